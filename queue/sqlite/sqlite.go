package sqlite

import (
	"encoding/json"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/aquilax/promptbox/queue"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// The modernc driver registers as "sqlite", which sqlx does not know.
func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `CREATE TABLE IF NOT EXISTS submission (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	images TEXT NOT NULL,
	tags TEXT NOT NULL,
	contributor TEXT NOT NULL,
	action TEXT NOT NULL,
	target_id TEXT NOT NULL,
	original_title TEXT NOT NULL,
	submission_type TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	processed_at TIMESTAMP
)`

type SQLite struct {
	db *sqlx.DB
}

// row mirrors the submission table; the image and tag lists travel as JSON
// text columns.
type row struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Content        string    `db:"content"`
	Images         string    `db:"images"`
	Tags           string    `db:"tags"`
	Contributor    string    `db:"contributor"`
	Action         string    `db:"action"`
	TargetID       string    `db:"target_id"`
	OriginalTitle  string    `db:"original_title"`
	SubmissionType string    `db:"submission_type"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

func New() *SQLite {
	return &SQLite{}
}

func (m *SQLite) Open(driver, dsn string) error {
	var err error
	m.db, err = sqlx.Open(driver, dsn)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(schema)
	return err
}

func (m *SQLite) Submit(sub prompt.Submission) (string, error) {
	id := uuid.New().String()
	images, err := json.Marshal(coerce(sub.Images))
	if err != nil {
		return "", err
	}
	tags, err := json.Marshal(coerce(sub.Tags))
	if err != nil {
		return "", err
	}
	_, err = m.db.NamedExec(`INSERT INTO submission (
			id, title, content, images, tags, contributor,
			action, target_id, original_title, submission_type,
			status, created_at
		) VALUES (
			:id, :title, :content, :images, :tags, :contributor,
			:action, :target_id, :original_title, :submission_type,
			:status, :created_at
		)`,
		map[string]interface{}{
			"id":              id,
			"title":           sub.Title,
			"content":         sub.Content,
			"images":          string(images),
			"tags":            string(tags),
			"contributor":     sub.Contributor,
			"action":          string(sub.Action),
			"target_id":       sub.TargetID,
			"original_title":  sub.OriginalTitle,
			"submission_type": sub.SubmissionType,
			"status":          string(prompt.StatusPending),
			"created_at":      time.Now(),
		})
	return id, err
}

func (m *SQLite) ListPending() ([]prompt.Submission, error) {
	var rows []row
	err := m.db.Select(&rows, "SELECT id, title, content, images, tags, contributor, action, target_id, original_title, submission_type, status, created_at FROM submission WHERE status = ? ORDER BY created_at DESC", string(prompt.StatusPending))
	if err != nil {
		return nil, err
	}
	subs := make([]prompt.Submission, 0, len(rows))
	for _, r := range rows {
		sub := prompt.Submission{
			ID:             r.ID,
			Title:          r.Title,
			Content:        r.Content,
			Contributor:    r.Contributor,
			Action:         prompt.Action(r.Action),
			TargetID:       r.TargetID,
			OriginalTitle:  r.OriginalTitle,
			SubmissionType: r.SubmissionType,
			Status:         prompt.Status(r.Status),
			CreatedAt:      r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Images), &sub.Images); err != nil {
			sub.Images = []string{}
		}
		if err := json.Unmarshal([]byte(r.Tags), &sub.Tags); err != nil {
			sub.Tags = []string{}
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (m *SQLite) Approve(id string) error {
	res, err := m.db.NamedExec(`UPDATE submission SET status = :status, processed_at = :processed_at
		WHERE id = :id AND status = :pending`,
		map[string]interface{}{
			"status":       string(prompt.StatusApproved),
			"processed_at": time.Now(),
			"id":           id,
			"pending":      string(prompt.StatusPending),
		})
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return queue.ErrNotFound
	}
	return nil
}

func (m *SQLite) Reject(id string) error {
	_, err := m.db.Exec("DELETE FROM submission WHERE id = ?", id)
	return err
}

func (m *SQLite) Close() error {
	return m.db.Close()
}

func coerce(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
