package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"audio-converter/internal/config"
)

// writeEncoderStub writes a fake ffmpeg that prefixes the input with "ID3",
// writes it to the last argument and appends the input path to a log file.
func writeEncoderStub(t *testing.T) (binary, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	script := `#!/bin/sh
for a in "$@"; do out="$a"; done
echo "$2" >> "` + logPath + `"
{ printf 'ID3'; cat "$2"; } > "$out"
`
	binary = filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return binary, logPath
}

func writeFailingStub(t *testing.T) string {
	t.Helper()
	binary := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return binary
}

func testAudioCfg(t *testing.T, binary string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Transcoder.Binary = binary
	cfg.Transcoder.Timeout = 10 * time.Second
	cfg.Fetch.DownloadTimeout = 2 * time.Second
	cfg.Fetch.HeadTimeout = time.Second
	cfg.Workspace.WorkDir = t.TempDir()
	return cfg
}

func newAudioApp(svc *AudioService) *fiber.App {
	app := fiber.New()
	app.Get("/health", HandleHealth)
	app.Post("/audio/convert-to-mp3", svc.HandleConvert)
	app.Post("/audio/encode-base64", svc.HandleEncodeBase64)
	return app
}

func convertRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/audio/convert-to-mp3", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="clip.mp3"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/audio/encode-base64", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}
