// Package imagehost uploads submission screenshots to third-party image
// hosts. The chain tries the primary host first and falls back to the next
// one on any failure; large images are downscaled before they leave the box.
package imagehost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nfnt/resize"
)

type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// FileForm posts the raw file as a multipart form and expects the hosted URL
// back as plain text.
type FileForm struct {
	URL string
	hc  *http.Client
}

func NewFileForm(url string, hc *http.Client) *FileForm {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &FileForm{URL: url, hc: hc}
}

func (f *FileForm) Upload(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("reqtype", "fileupload"); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("fileToUpload", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := f.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	hosted := strings.TrimSpace(string(raw))
	if res.StatusCode != http.StatusOK || !strings.HasPrefix(hosted, "https://") {
		return "", fmt.Errorf("image upload: unexpected response %q (%d)", hosted, res.StatusCode)
	}
	return hosted, nil
}

// Base64Form posts the image base64-encoded with an API key and expects a
// JSON envelope carrying the hosted URL.
type Base64Form struct {
	URL string
	Key string
	hc  *http.Client
}

func NewBase64Form(url, key string, hc *http.Client) *Base64Form {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Base64Form{URL: url, Key: key, hc: hc}
}

type base64Response struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (b *Base64Form) Upload(ctx context.Context, name string, data []byte) (string, error) {
	form := url.Values{}
	form.Set("key", b.Key)
	form.Set("image", base64.StdEncoding.EncodeToString(data))
	form.Set("name", name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := b.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	var parsed base64Response
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("image upload: host rejected %q (%d)", name, res.StatusCode)
	}
	return parsed.Data.URL, nil
}

// Chain tries uploaders in order and returns the first hosted URL.
type Chain struct {
	uploaders []Uploader
}

func NewChain(uploaders ...Uploader) *Chain {
	return &Chain{uploaders: uploaders}
}

func (c *Chain) Upload(ctx context.Context, name string, data []byte) (string, error) {
	var last error
	for _, u := range c.uploaders {
		hosted, err := u.Upload(ctx, name, data)
		if err == nil {
			return hosted, nil
		}
		last = err
	}
	if last == nil {
		last = errors.New("image upload: no hosts configured")
	}
	return "", last
}

const (
	maxWidth         = 1600
	jpegQuality      = 85
	compressOverSize = 1536 * 1024
)

// Compress downscales images wider than maxWidth and re-encodes them as JPEG.
// Small files and files that do not decode pass through untouched; a broken
// image is the host's problem to reject, not ours.
func Compress(data []byte) []byte {
	if len(data) < compressOverSize {
		return data
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	if img.Bounds().Dx() > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return data
	}
	if out.Len() >= len(data) {
		return data
	}
	return out.Bytes()
}
