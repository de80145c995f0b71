package main

import (
	"net/http"
	"sort"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/gorilla/feeds"
	"github.com/sourcegraph/sitemap"
)

const feedItems = 20

type feedEntry struct {
	p       prompt.Prompt
	section prompt.Section
	created time.Time
}

// freshestPrompts flattens the tree and orders entries by the timestamp
// embedded in their ids, newest first. Restricted sections never leak into
// the feed.
func freshestPrompts(sections []prompt.Section, limit int) []feedEntry {
	entries := make([]feedEntry, 0)
	for _, sec := range sections {
		if sec.IsRestricted {
			continue
		}
		for _, p := range sec.Prompts {
			created, ok := prompt.Timestamp(p.ID)
			if !ok {
				continue
			}
			entries = append(entries, feedEntry{p: p, section: sec, created: created})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].created.After(entries[j].created)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (pb *PromptBox) feedHandler(w http.ResponseWriter, r *http.Request) error {
	snapshot := pb.st.Snapshot()
	feed := &feeds.Feed{
		Title:       pb.config.Title,
		Link:        &feeds.Link{Href: pb.config.BaseURL},
		Description: pb.config.Description,
		Author:      &feeds.Author{Name: pb.config.AuthorName, Email: pb.config.AuthorEmail},
		Created:     time.Now(),
	}
	for _, entry := range freshestPrompts(snapshot.Sections, feedItems) {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       entry.p.Title,
			Link:        &feeds.Link{Href: pb.sectionURL(entry.section) + "#" + entry.p.ID},
			Description: entry.p.Content,
			Author:      &feeds.Author{Name: entry.p.Contributor},
			Created:     entry.created,
		})
	}
	w.Header().Set("Content-Type", "application/rss+xml")
	return feed.WriteRss(w)
}

func (pb *PromptBox) sitemapHandler(w http.ResponseWriter, r *http.Request) error {
	snapshot := pb.st.Snapshot()
	var urlSet sitemap.URLSet
	for _, sec := range snapshot.Sections {
		if sec.IsRestricted {
			continue
		}
		u := sitemap.URL{
			Loc:        pb.sectionURL(sec),
			ChangeFreq: sitemap.Daily,
			Priority:   0.7,
		}
		if len(sec.Prompts) > 0 {
			if created, ok := prompt.Timestamp(sec.Prompts[0].ID); ok {
				u.LastMod = &created
			}
		}
		urlSet.URLs = append(urlSet.URLs, u)
	}
	xml, err := sitemap.Marshal(&urlSet)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/xml")
	_, err = w.Write(xml)
	return err
}

func (pb *PromptBox) sectionURL(sec prompt.Section) string {
	return pb.config.BaseURL + "/section/" + sec.ID + "/" + hfSlug(sec.Title)
}
