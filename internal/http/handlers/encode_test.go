package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-converter/internal/domain"
)

func TestHandleEncodeBase64_RoundTrip(t *testing.T) {
	app := newAudioApp(NewAudioService(testAudioCfg(t, "unused")))

	payload := append([]byte("ID3\x00\x01\xff"), bytes.Repeat([]byte{0xfb, 0x90}, 512)...)
	resp, err := app.Test(uploadRequest(t, "audio_file", "audio/mpeg", payload), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out domain.EncodeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	decoded, err := base64.StdEncoding.DecodeString(out.Base64String)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestHandleEncodeBase64_EmptyAudioFile(t *testing.T) {
	app := newAudioApp(NewAudioService(testAudioCfg(t, "unused")))

	resp, err := app.Test(uploadRequest(t, "audio_file", "audio/wav", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"base64_string":""}`, string(body))
}

func TestHandleEncodeBase64_RejectsNonAudio(t *testing.T) {
	app := newAudioApp(NewAudioService(testAudioCfg(t, "unused")))

	tests := []struct {
		name        string
		contentType string
	}{
		{"text", "text/plain"},
		{"octet stream", "application/octet-stream"},
		{"missing", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(uploadRequest(t, "audio_file", tc.contentType, []byte("hello")), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), "Invalid file type")
		})
	}
}

func TestHandleEncodeBase64_MissingField(t *testing.T) {
	app := newAudioApp(NewAudioService(testAudioCfg(t, "unused")))

	resp, err := app.Test(uploadRequest(t, "other", "audio/mpeg", []byte("x")), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	plain := httptest.NewRequest(http.MethodPost, "/audio/encode-base64", bytes.NewReader([]byte("x")))
	plain.Header.Set("Content-Type", "text/plain")
	resp, err = app.Test(plain, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
