package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_WritesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF-audio-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "in")
	c := NewClient(time.Second, time.Second)

	n, err := c.Download(context.Background(), srv.URL+"/clip.wav", dest)
	require.NoError(t, err)
	assert.EqualValues(t, len("RIFF-audio-bytes"), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "RIFF-audio-bytes", string(got))
}

func TestDownload_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "in")
	_, err := NewClient(time.Second, time.Second).Download(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NoFileExists(t, dest)
}

func TestDownload_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(time.Second, time.Second).Download(context.Background(), url, filepath.Join(t.TempDir(), "in"))
	require.Error(t, err)
}

func TestDownload_InvalidURL(t *testing.T) {
	_, err := NewClient(time.Second, time.Second).Download(context.Background(), "://nope", filepath.Join(t.TempDir(), "in"))
	require.Error(t, err)
}

func TestDownload_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(50*time.Millisecond, time.Second).Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "in"))
	require.Error(t, err)
}

func TestContentType(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.Header().Set("Content-Type", "audio/mpeg; charset=binary")
	}))
	defer srv.Close()

	ct, err := NewClient(time.Second, time.Second).ContentType(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.MethodHead, method)
	assert.Equal(t, "audio/mpeg", ct)
}

func TestContentType_Missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
	}))
	defer srv.Close()

	ct, err := NewClient(time.Second, time.Second).ContentType(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, ct)
}

func TestExtensionForType(t *testing.T) {
	tests := map[string]string{
		"audio/mpeg":       ".mp3",
		"AUDIO/WAV":        ".wav",
		" audio/ogg ":      ".ogg",
		"audio/flac":       ".flac",
		"":                 "",
		"application/x-zz": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtensionForType(in), "type %q", in)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/media/song.wav", "song"},
		{"https://example.com/media/song.tar.gz?x=1", "song.tar"},
		{"https://example.com/", "audio_download"},
		{"http://h/dir/", "audio_download"},
		{"https://example.com/media/song.wav/?x=1", "audio_download"},
		{"https://example.com", "audio_download"},
		{"https://example.com/a%20b.ogg", "a_b"},
		{"https://example.com/.mp3", "audio_download"},
		{"::bad::", "audio_download"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BaseName(tc.url, "audio_download"), tc.url)
	}
}
