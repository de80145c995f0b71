package main

import (
	"errors"
	"testing"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/aquilax/promptbox/queue"
	queuememory "github.com/aquilax/promptbox/queue/memory"
	storememory "github.com/aquilax/promptbox/store/memory"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	st    *State
	rec   *Reconciler
	ctrl  *Controller
	queue queue.Queue
	addr  int
}

func newTestApp(t *testing.T, q queue.Queue) *testApp {
	t.Helper()
	if q == nil {
		q = queuememory.New()
	}
	st := NewState()
	st.SetIdentity(nil, true)
	rec := NewReconciler(st, storememory.New(0), nil)
	ctrl := NewController(st, q, rec, NewSpamGuard(time.Minute))
	return &testApp{st: st, rec: rec, ctrl: ctrl, queue: q}
}

// nextAddr hands out a fresh submitter address so the spam guard stays out of
// tests that are not about it.
func (a *testApp) nextAddr() string {
	a.addr++
	return "10.0.0." + string(rune('0'+a.addr))
}

func (a *testApp) seed(sections ...prompt.Section) {
	a.st.Update(func(s *State) {
		s.sections = sections
	})
}

func twoSections() (prompt.Section, prompt.Section) {
	return prompt.Section{
			ID:    "s-1700000000001",
			Title: "Stories",
			Prompts: []prompt.Prompt{
				{ID: "1690000000001", Title: "Old one", Content: "old", Images: []string{"a", "c"}},
			},
		}, prompt.Section{
			ID:    "s-1700000000002",
			Title: "Characters",
			Prompts: []prompt.Prompt{
				{ID: "1690000000002", Title: "Keeper", Content: "keep"},
			},
		}
}

func TestApproveCreate(t *testing.T) {
	secA, secB := twoSections()
	app := newTestApp(t, nil)
	app.seed(secA, secB)

	id, err := app.ctrl.CreateSubmission(prompt.ActionCreate, "", SubmissionFields{
		Title:   "Fresh",
		Content: "fresh content",
		Tags:    []string{"story", "story"},
	}, app.nextAddr())
	require.NoError(t, err)

	require.NoError(t, app.ctrl.Approve(id, secA.ID))

	snapshot := app.st.Snapshot()
	require.Len(t, snapshot.Sections[0].Prompts, 2)
	head := snapshot.Sections[0].Prompts[0]
	require.Equal(t, "Fresh", head.Title)
	require.Equal(t, []string{"story"}, head.Tags)
	require.True(t, len(head.ID) > 2 && head.ID[:2] == "u-")
	// The other section is untouched.
	require.Equal(t, secB.Prompts, snapshot.Sections[1].Prompts)

	pending, err := app.ctrl.ListPending()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestApproveEdit(t *testing.T) {
	secA, secB := twoSections()
	app := newTestApp(t, nil)
	app.seed(secA, secB)
	targetID := secA.Prompts[0].ID

	id, err := app.ctrl.CreateSubmission(prompt.ActionEdit, targetID, SubmissionFields{
		Title:   "Ignored",
		Content: "rewritten",
	}, app.nextAddr())
	require.NoError(t, err)

	// The edit lands in the other section.
	require.NoError(t, app.ctrl.Approve(id, secB.ID))

	snapshot := app.st.Snapshot()
	for _, sec := range snapshot.Sections {
		for _, p := range sec.Prompts {
			require.NotEqual(t, targetID, p.ID)
		}
	}
	head := snapshot.Sections[1].Prompts[0]
	require.Equal(t, "rewritten", head.Content)
	// Edits keep the target's title, whatever the form said.
	require.Equal(t, "Old one", head.Title)
	require.Empty(t, snapshot.Sections[0].Prompts)
}

func TestApproveVariant(t *testing.T) {
	secA, secB := twoSections()
	app := newTestApp(t, nil)
	app.seed(secA, secB)
	targetID := secA.Prompts[0].ID

	id, err := app.ctrl.CreateSubmission(prompt.ActionVariant, targetID, SubmissionFields{
		Content: "another take",
		Images:  []string{"a", "b"},
	}, app.nextAddr())
	require.NoError(t, err)

	require.NoError(t, app.ctrl.Approve(id, ""))

	snapshot := app.st.Snapshot()
	p := snapshot.Sections[0].Prompts[0]
	require.Equal(t, []string{"a", "c", "b"}, p.Images)
	require.Len(t, p.Similar, 1)
	require.Equal(t, "another take", p.Similar[0].Content)
	require.NotEqual(t, targetID, p.ID)
	// The prompt did not move.
	require.Len(t, snapshot.Sections[0].Prompts, 1)
}

func TestCreateSubmissionValidation(t *testing.T) {
	secA, secB := twoSections()
	app := newTestApp(t, nil)
	app.seed(secA, secB)

	var validation *ValidationError
	_, err := app.ctrl.CreateSubmission(prompt.ActionCreate, "", SubmissionFields{Title: "t"}, app.nextAddr())
	require.True(t, errors.As(err, &validation), "empty content should be rejected")

	var notFound *NotFoundError
	_, err = app.ctrl.CreateSubmission(prompt.ActionVariant, "nope", SubmissionFields{Content: "c"}, app.nextAddr())
	require.True(t, errors.As(err, &notFound), "missing target should be rejected")

	addr := app.nextAddr()
	_, err = app.ctrl.CreateSubmission(prompt.ActionCreate, "", SubmissionFields{Title: "t", Content: "c"}, addr)
	require.NoError(t, err)
	_, err = app.ctrl.CreateSubmission(prompt.ActionCreate, "", SubmissionFields{Title: "t", Content: "c"}, addr)
	require.True(t, errors.As(err, &validation), "rapid reposts should be throttled")
}

func TestApproveMissingTarget(t *testing.T) {
	secA, secB := twoSections()
	app := newTestApp(t, nil)
	app.seed(secA, secB)
	targetID := secA.Prompts[0].ID

	id, err := app.ctrl.CreateSubmission(prompt.ActionEdit, targetID, SubmissionFields{Content: "x"}, app.nextAddr())
	require.NoError(t, err)

	// The target disappears before the approval.
	app.st.Update(func(s *State) {
		prompt.RemovePrompt(s.sections, targetID)
	})

	var notFound *NotFoundError
	err = app.ctrl.Approve(id, secA.ID)
	require.True(t, errors.As(err, &notFound))

	// The submission is still pending; the operator re-routes it.
	pending, err := app.ctrl.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

type flakyQueue struct {
	queue.Queue
	approveErr error
}

func (q *flakyQueue) Approve(id string) error {
	if q.approveErr != nil {
		return q.approveErr
	}
	return q.Queue.Approve(id)
}

func TestApprovePartialFailure(t *testing.T) {
	secA, secB := twoSections()
	fq := &flakyQueue{Queue: queuememory.New()}
	app := newTestApp(t, fq)
	app.seed(secA, secB)

	id, err := app.ctrl.CreateSubmission(prompt.ActionCreate, "", SubmissionFields{
		Title:   "t",
		Content: "c",
	}, app.nextAddr())
	require.NoError(t, err)

	fq.approveErr = errors.New("queue is down")
	err = app.ctrl.Approve(id, secA.ID)

	var partial *PartialApproveError
	require.True(t, errors.As(err, &partial), "got %v", err)
	require.Equal(t, id, partial.SubmissionID)

	// The merge happened; only the queue phase needs a retry.
	snapshot := app.st.Snapshot()
	require.Len(t, snapshot.Sections[0].Prompts, 2)
}

func TestRejectAbsentSubmission(t *testing.T) {
	secA, secB := twoSections()
	app := newTestApp(t, nil)
	app.seed(secA, secB)
	before := app.st.Snapshot()

	require.NoError(t, app.ctrl.Reject("never-existed"))

	require.Equal(t, before.Sections, app.st.Snapshot().Sections)
}
