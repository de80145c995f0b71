package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/aquilax/promptbox/queue"
	"github.com/google/uuid"
)

// Memory keeps submissions in process. Used in tests and single-node setups.
type Memory struct {
	mu   sync.Mutex
	subs []prompt.Submission
	now  func() time.Time
}

func New() *Memory {
	return &Memory{now: time.Now}
}

// NewWithClock fixes the timestamp source, for tests.
func NewWithClock(now func() time.Time) *Memory {
	return &Memory{now: now}
}

func (m *Memory) Open(driver, dsn string) error {
	return nil
}

func (m *Memory) Submit(sub prompt.Submission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = uuid.New().String()
	sub.Status = prompt.StatusPending
	sub.CreatedAt = m.now()
	m.subs = append(m.subs, sub)
	return sub.ID, nil
}

func (m *Memory) ListPending() ([]prompt.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := make([]prompt.Submission, 0, len(m.subs))
	for _, sub := range m.subs {
		if sub.Status == prompt.StatusPending {
			pending = append(pending, sub)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}

func (m *Memory) Approve(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == id && m.subs[i].Status == prompt.StatusPending {
			m.subs[i].Status = prompt.StatusApproved
			return nil
		}
	}
	return queue.ErrNotFound
}

func (m *Memory) Reject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	// Already gone, nothing to do.
	return nil
}

func (m *Memory) Close() error {
	return nil
}
