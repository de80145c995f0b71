package imagehost

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileFormUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "fileupload", r.FormValue("reqtype"))
		_, header, err := r.FormFile("fileToUpload")
		require.NoError(t, err)
		require.Equal(t, "shot.png", header.Filename)
		w.Write([]byte("https://files.example/abc.png\n"))
	}))
	defer srv.Close()

	u := NewFileForm(srv.URL, srv.Client())
	hosted, err := u.Upload(context.Background(), "shot.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://files.example/abc.png", hosted)
}

func TestFileFormRejectsNonURLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Internal error"))
	}))
	defer srv.Close()

	u := NewFileForm(srv.URL, srv.Client())
	_, err := u.Upload(context.Background(), "shot.png", []byte("png-bytes"))
	require.Error(t, err)
}

func TestBase64FormUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "k", r.FormValue("key"))
		require.NotEmpty(t, r.FormValue("image"))
		w.Write([]byte(`{"success":true,"data":{"url":"https://img.example/x.jpg"}}`))
	}))
	defer srv.Close()

	u := NewBase64Form(srv.URL, "k", srv.Client())
	hosted, err := u.Upload(context.Background(), "shot.jpg", []byte("jpg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://img.example/x.jpg", hosted)
}

func TestChainFallsBack(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"url":"https://img.example/fallback.jpg"}}`))
	}))
	defer working.Close()

	chain := NewChain(
		NewFileForm(broken.URL, broken.Client()),
		NewBase64Form(working.URL, "k", working.Client()),
	)
	hosted, err := chain.Upload(context.Background(), "shot.jpg", []byte("jpg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://img.example/fallback.jpg", hosted)
}

func TestCompress(t *testing.T) {
	t.Run("small files pass through", func(t *testing.T) {
		data := []byte("tiny")
		require.Equal(t, data, Compress(data))
	})

	t.Run("wide images are downscaled", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 3200, 1800))
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
		// Pad past the threshold so the downscale path runs.
		data := append(buf.Bytes(), make([]byte, compressOverSize)...)

		out := Compress(data)
		decoded, _, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		require.LessOrEqual(t, decoded.Bounds().Dx(), maxWidth)
	})
}
