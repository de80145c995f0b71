// Package remote talks to the snapshot store: a versioned JSON document
// fetched over HTTP and rewritten through a commit-style contents API that
// requires the current revision token on every write.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aquilax/promptbox/prompt"
	"github.com/avast/retry-go/v4"
)

// Client is the snapshot store contract used by the reconciliation engine.
type Client interface {
	Fetch(ctx context.Context) (*prompt.Snapshot, error)
	Push(ctx context.Context, snapshot *prompt.Snapshot) error
}

// Contents reads the published snapshot from SourceURL and commits new
// revisions through ContentsURL (a GitHub-contents-style endpoint: GET yields
// the current revision token, PUT with that token replaces the document).
type Contents struct {
	sourceURL   string
	contentsURL string
	token       string
	hc          *http.Client
	attempts    uint
}

const fetchAttempts = 3

func New(sourceURL, contentsURL, token string, hc *http.Client) *Contents {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Contents{
		sourceURL:   sourceURL,
		contentsURL: contentsURL,
		token:       token,
		hc:          hc,
		attempts:    fetchAttempts,
	}
}

// Fetch downloads and decodes the published snapshot. Transient transport
// failures are retried; the caller decides what a failure means (startup
// degrades, an explicit pull reports it).
func (c *Contents) Fetch(ctx context.Context) (*prompt.Snapshot, error) {
	var snapshot prompt.Snapshot
	err := retry.Do(func() error {
		// Cache buster keeps CDN copies out of explicit pulls.
		url := c.sourceURL + "?t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		res, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("snapshot fetch: unexpected status %d", res.StatusCode)
		}
		return json.NewDecoder(res.Body).Decode(&snapshot)
	}, retry.Attempts(c.attempts), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

type contentsFile struct {
	SHA string `json:"sha"`
}

type commitRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

// Push serializes the snapshot and commits it: read the current revision
// token first, then write with it. The read-modify-write pair is the remote's
// atomic unit; the caller only learns success or failure.
func (c *Contents) Push(ctx context.Context, snapshot *prompt.Snapshot) error {
	snapshot.LastUpdated = time.Now().UTC()
	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	sha, err := c.currentRevision(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(commitRequest{
		Message: "Update prompt box data - " + snapshot.LastUpdated.Format(time.RFC3339),
		Content: base64.StdEncoding.EncodeToString(body),
		SHA:     sha,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("snapshot push: unexpected status %d", res.StatusCode)
	}
	return nil
}

// currentRevision reads the revision token of the existing document. A 404
// means the document does not exist yet and the commit goes out without one.
func (c *Contents) currentRevision(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.contentsURL, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)
	res, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("snapshot revision: unexpected status %d", res.StatusCode)
	}
	var file contentsFile
	if err := json.NewDecoder(res.Body).Decode(&file); err != nil {
		return "", err
	}
	return file.SHA, nil
}

func (c *Contents) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}
