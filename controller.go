package main

import (
	"strings"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/aquilax/promptbox/queue"
)

// Controller runs the submission lifecycle: visitors create submissions, the
// administrator lists, approves or rejects them, and approval merges the
// change into the tree.
type Controller struct {
	st    *State
	queue queue.Queue
	rec   *Reconciler
	sg    *SpamGuard
	now   func() time.Time
}

func NewController(st *State, q queue.Queue, rec *Reconciler, sg *SpamGuard) *Controller {
	return &Controller{st: st, queue: q, rec: rec, sg: sg, now: time.Now}
}

// SubmissionFields is what the submission form carries.
type SubmissionFields struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Images         []string `json:"images"`
	Tags           []string `json:"tags"`
	Contributor    string   `json:"contributor"`
	Secret         string   `json:"secret"`
	SubmissionType string   `json:"submissionType"`
}

// CreateSubmission validates the form and puts a pending submission in the
// queue. For edits the title is locked to the target's current title; for
// variants the stored image list is the union of the target's images and the
// newly attached ones. Nothing in the tree changes here.
func (c *Controller) CreateSubmission(action prompt.Action, targetID prompt.PromptID, fields SubmissionFields, remoteAddr string) (string, error) {
	if !c.sg.CanPost(remoteAddr) {
		return "", &ValidationError{Message: "please wait before posting again"}
	}
	if strings.TrimSpace(fields.Content) == "" {
		return "", &ValidationError{Field: "content", Message: "content is required"}
	}

	sub := prompt.Submission{
		Title:          strings.TrimSpace(fields.Title),
		Content:        fields.Content,
		Images:         coerceStrings(fields.Images),
		Tags:           prompt.DedupeTags(fields.Tags),
		Contributor:    signContributor(fields.Contributor, fields.Secret),
		Action:         action,
		SubmissionType: fields.SubmissionType,
	}

	switch action {
	case prompt.ActionCreate:
		if sub.Title == "" {
			return "", &ValidationError{Field: "title", Message: "title is required"}
		}
	case prompt.ActionEdit, prompt.ActionVariant:
		target, err := c.findTarget(targetID)
		if err != nil {
			return "", err
		}
		sub.TargetID = targetID
		sub.OriginalTitle = target.Title
		sub.Title = target.Title
		if action == prompt.ActionVariant {
			sub.Images = prompt.MergeImages(append([]string{}, target.Images...), fields.Images)
		}
	default:
		return "", &ValidationError{Field: "action", Message: "unknown action"}
	}

	id, err := c.queue.Submit(sub)
	if err != nil {
		return "", &NetworkError{Op: "submit", Err: err}
	}
	return id, nil
}

// ListPending returns the moderation queue, most recent first. An empty slice
// is a valid result.
func (c *Controller) ListPending() ([]prompt.Submission, error) {
	subs, err := c.queue.ListPending()
	if err != nil {
		return nil, &NetworkError{Op: "list submissions", Err: err}
	}
	return subs, nil
}

// Approve merges the submission into the tree, then clears it from the
// queue. The two phases are not transactional: when the queue-clear fails
// after a successful merge the error is a PartialApproveError, so the
// operator retries only the queue phase instead of merging twice.
func (c *Controller) Approve(submissionID string, targetSectionID prompt.SectionID) error {
	subs, err := c.ListPending()
	if err != nil {
		return err
	}
	var sub *prompt.Submission
	for i := range subs {
		if subs[i].ID == submissionID {
			sub = &subs[i]
			break
		}
	}
	if sub == nil {
		return &NotFoundError{Kind: "submission", ID: submissionID}
	}

	if err := c.Merge(*sub, targetSectionID, func() prompt.PromptID {
		return prompt.NewID(c.now())
	}); err != nil {
		return err
	}
	c.rec.Persist()

	if err := c.queue.Approve(submissionID); err != nil {
		return &PartialApproveError{SubmissionID: submissionID, Err: err}
	}
	return nil
}

// Reject deletes the submission permanently. Rejecting an id that is already
// gone is a success, not an error.
func (c *Controller) Reject(submissionID string) error {
	if err := c.queue.Reject(submissionID); err != nil {
		return &NetworkError{Op: "reject submission", Err: err}
	}
	return nil
}

// Merge applies one submission to the tree under the state lock. mint supplies
// the fresh prompt id; moderation and the import path mint different shapes.
func (c *Controller) Merge(sub prompt.Submission, targetSectionID prompt.SectionID, mint func() prompt.PromptID) error {
	var mergeErr error
	c.st.Update(func(s *State) {
		switch sub.Action {
		case prompt.ActionCreate:
			if !prompt.InsertAtHead(s.sections, targetSectionID, promptFromSubmission(sub, mint())) {
				mergeErr = &NotFoundError{Kind: "section", ID: targetSectionID}
			}
		case prompt.ActionEdit:
			if si, _ := prompt.FindPrompt(s.sections, sub.TargetID); si == -1 {
				mergeErr = &NotFoundError{Kind: "prompt", ID: sub.TargetID}
				return
			}
			// The id changes on purpose: the edited entry counts as new.
			prompt.RemovePrompt(s.sections, sub.TargetID)
			if !prompt.InsertAtHead(s.sections, targetSectionID, promptFromSubmission(sub, mint())) {
				mergeErr = &NotFoundError{Kind: "section", ID: targetSectionID}
			}
		case prompt.ActionVariant:
			si, pi := prompt.FindPrompt(s.sections, sub.TargetID)
			if si == -1 {
				mergeErr = &NotFoundError{Kind: "prompt", ID: sub.TargetID}
				return
			}
			p := &s.sections[si].Prompts[pi]
			p.Similar = append(p.Similar, prompt.Variant{Content: sub.Content, Contributor: sub.Contributor})
			p.Images = prompt.MergeImages(p.Images, sub.Images)
			p.ID = mint()
		default:
			mergeErr = &ValidationError{Field: "action", Message: "unknown action"}
		}
	})
	return mergeErr
}

func (c *Controller) findTarget(targetID prompt.PromptID) (prompt.Prompt, error) {
	var target prompt.Prompt
	found := false
	c.st.Update(func(s *State) {
		if si, pi := prompt.FindPrompt(s.sections, targetID); si != -1 {
			target = s.sections[si].Prompts[pi].Clone()
			found = true
		}
	})
	if !found {
		return prompt.Prompt{}, &NotFoundError{Kind: "prompt", ID: targetID}
	}
	return target, nil
}

func promptFromSubmission(sub prompt.Submission, id prompt.PromptID) prompt.Prompt {
	return prompt.Prompt{
		ID:          id,
		Title:       sub.Title,
		Content:     sub.Content,
		Images:      coerceStrings(sub.Images),
		Tags:        prompt.DedupeTags(sub.Tags),
		Contributor: sub.Contributor,
	}
}

func coerceStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
