package main

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/aquilax/tripcode"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

func hfSlug(s string) string {
	return slug.Make(s)
}

// renderMarkdown turns the site notes into sanitized HTML.
func renderMarkdown(t string) string {
	unsafe := blackfriday.Run([]byte(t),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.HardLineBreak))
	return string(bluemonday.UGCPolicy().SanitizeBytes(unsafe))
}

// signContributor appends a tripcode signature when the submitter supplied a
// secret, so returning contributors are recognizable without accounts.
func signContributor(name, secret string) string {
	if secret == "" {
		return name
	}
	if name == "" {
		name = "anonymous"
	}
	return name + " !" + tripcode.Tripcode(secret)
}

func hfGravatar(code string) string {
	if code == "" {
		return "https://www.gravatar.com/avatar/00000000000000000000000000000000?d=retro"
	}
	hash := md5.Sum([]byte(code))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(hash[:]) + "?d=retro"
}

func inHoneypot(t string) bool {
	return len(t) > 0
}
