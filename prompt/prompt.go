// Package prompt holds the data model of the prompt box: sections of prompt
// entries, their variants, moderation submissions and the exportable snapshot.
package prompt

import (
	"time"
)

type SectionID = string
type PromptID = string

// Section is a named, orderable, collapsible grouping of prompts. Restricted
// sections start collapsed and require an explicit confirmation before a
// non-admin viewer may expand them.
type Section struct {
	ID               SectionID `json:"id"`
	Title            string    `json:"title"`
	IsCollapsed      bool      `json:"isCollapsed"`
	DefaultCollapsed bool      `json:"defaultCollapsed"`
	IsRestricted     bool      `json:"isRestricted"`
	Prompts          []Prompt  `json:"prompts"`
}

// Prompt is the primary content unit. Image order is display order and index
// zero is the cover. The id is unique across the whole tree, not just within
// the owning section.
type Prompt struct {
	ID          PromptID  `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	Contributor string    `json:"contributor,omitempty"`
	Similar     []Variant `json:"similar,omitempty"`

	// Image is the legacy single-image field still present in old snapshots.
	// Sanitize folds it into Images.
	Image string `json:"image,omitempty"`
}

// Variant is an alternate content body attached to a prompt. It has no id and
// no image pool of its own; it is addressed by position in Similar.
type Variant struct {
	Content     string `json:"content"`
	Contributor string `json:"contributor,omitempty"`
}

type Action string

const (
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionVariant Action = "variant"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Submission is a visitor-proposed change awaiting moderation. TargetID is
// set for edit and variant actions and empty for create.
type Submission struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	Images         []string  `json:"images"`
	Tags           []string  `json:"tags"`
	Contributor    string    `json:"contributor,omitempty" db:"contributor"`
	Action         Action    `json:"action" db:"action"`
	TargetID       PromptID  `json:"targetId,omitempty" db:"target_id"`
	OriginalTitle  string    `json:"originalTitle,omitempty" db:"original_title"`
	SubmissionType string    `json:"submissionType,omitempty" db:"submission_type"`
	Status         Status    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Snapshot is the full exported/importable document: the section tree plus
// the global tag palette and the site notice.
type Snapshot struct {
	Sections    []Section `json:"sections"`
	CommonTags  []string  `json:"commonTags"`
	SiteNotes   string    `json:"siteNotes"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// Clone returns a deep copy of the prompt. Favorites are forks: they must not
// share backing arrays with the tree entry they were copied from.
func (p Prompt) Clone() Prompt {
	c := p
	c.Images = append([]string(nil), p.Images...)
	c.Tags = append([]string(nil), p.Tags...)
	c.Similar = append([]Variant(nil), p.Similar...)
	return c
}
