package main

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aquilax/promptbox/prompt"
)

// Manual import accepts a pasted block of text carrying a JSON submission,
// optionally wrapped in 【...】 delimiters, and applies it straight to the
// tree. Used when the queue is unreachable or a submission arrives by hand.
const (
	importOpen  = "【"
	importClose = "】"
)

type Importer struct {
	st   *State
	ctrl *Controller
	rec  *Reconciler
	now  func() time.Time
}

func NewImporter(st *State, ctrl *Controller, rec *Reconciler) *Importer {
	return &Importer{st: st, ctrl: ctrl, rec: rec, now: time.Now}
}

// ParseSubmission extracts and validates the payload, producing one typed
// submission for everything downstream. HTML-escaped quotes are unescaped
// first; relayed text often arrives that way.
func ParseSubmission(text string) (prompt.Submission, error) {
	payload := text
	if i := strings.Index(text, importOpen); i != -1 {
		rest := text[i+len(importOpen):]
		if j := strings.Index(rest, importClose); j != -1 {
			payload = rest[:j]
		}
	}
	payload = strings.TrimSpace(strings.ReplaceAll(payload, "&quot;", `"`))

	var sub prompt.Submission
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		return prompt.Submission{}, &ValidationError{Field: "payload", Message: "not a valid submission payload"}
	}
	if strings.TrimSpace(sub.Content) == "" {
		return prompt.Submission{}, &ValidationError{Field: "content", Message: "content is required"}
	}
	switch sub.Action {
	case prompt.ActionCreate, prompt.ActionEdit, prompt.ActionVariant:
	case "":
		sub.Action = prompt.ActionCreate
	default:
		return prompt.Submission{}, &ValidationError{Field: "action", Message: "unknown action"}
	}
	if sub.Action != prompt.ActionCreate && sub.TargetID == "" {
		// A targetless edit or variant can only ever be a create.
		sub.Action = prompt.ActionCreate
	}
	sub.Images = coerceStrings(sub.Images)
	sub.Tags = prompt.DedupeTags(sub.Tags)
	return sub, nil
}

// Import applies the pasted submission with the same merge rules moderation
// uses, minting import-tagged ids. When the target of an edit or variant is
// nowhere in the tree the payload falls back to a plain create into
// fallbackSectionID instead of failing.
func (im *Importer) Import(text string, fallbackSectionID prompt.SectionID) error {
	sub, err := ParseSubmission(text)
	if err != nil {
		return err
	}

	mint := func() prompt.PromptID {
		return prompt.NewImportID(im.now())
	}

	sectionID := fallbackSectionID
	if sub.Action != prompt.ActionCreate {
		if owner, found := im.targetSection(sub.TargetID); found {
			sectionID = owner
		} else {
			sub.Action = prompt.ActionCreate
			sub.TargetID = ""
			if sub.Title == "" {
				sub.Title = sub.OriginalTitle
			}
			sectionID = fallbackSectionID
		}
	}

	if err := im.ctrl.Merge(sub, sectionID, mint); err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) && notFound.Kind == "prompt" {
			// Lost a race with a concurrent removal; same fallback applies.
			sub.Action = prompt.ActionCreate
			sub.TargetID = ""
			return im.finish(im.ctrl.Merge(sub, fallbackSectionID, mint))
		}
		return err
	}
	return im.finish(nil)
}

func (im *Importer) finish(err error) error {
	if err != nil {
		return err
	}
	im.rec.Persist()
	return nil
}

func (im *Importer) targetSection(id prompt.PromptID) (prompt.SectionID, bool) {
	var owner prompt.SectionID
	found := false
	im.st.Update(func(s *State) {
		if si, _ := prompt.FindPrompt(s.sections, id); si != -1 {
			owner = s.sections[si].ID
			found = true
		}
	})
	return owner, found
}
