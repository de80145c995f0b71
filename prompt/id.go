package prompt

import (
	"strconv"
	"strings"
	"time"
)

// Ids minted here embed their creation time in milliseconds. That embedded
// timestamp is the only created-at signal the data model carries; freshness
// is derived from it.
const timestampDigits = 13

// NewID mints a prompt id for entries created through moderation or direct
// admin edits.
func NewID(now time.Time) PromptID {
	return "u-" + formatMillis(now)
}

// NewImportID mints a prompt id for entries arriving through the manual
// text-import path.
func NewImportID(now time.Time) PromptID {
	return "imported-" + formatMillis(now)
}

// NewSectionID mints a section id.
func NewSectionID(now time.Time) SectionID {
	return "s-" + formatMillis(now)
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// Timestamp extracts the embedded creation time from an id. Accepted shapes
// are a bare 13-digit number and "<tag>-<13 digits>" with optional trailing
// segments. Anything else reports false.
func Timestamp(id string) (time.Time, bool) {
	if id == "" {
		return time.Time{}, false
	}
	candidate := id
	if !isMillis(candidate) {
		parts := strings.Split(id, "-")
		if len(parts) < 2 || !isMillis(parts[1]) {
			return time.Time{}, false
		}
		candidate = parts[1]
	}
	ms, err := strconv.ParseInt(candidate, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// NewSince reports whether the id was minted strictly after the given time.
// Ids without a parseable embedded timestamp are never new.
func NewSince(id string, since time.Time) bool {
	ts, ok := Timestamp(id)
	if !ok {
		return false
	}
	return ts.After(since)
}

func isMillis(s string) bool {
	if len(s) != timestampDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
