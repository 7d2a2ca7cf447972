package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"audio-converter/internal/config"
	"audio-converter/internal/domain"
	"audio-converter/internal/infra/fetch"
	"audio-converter/internal/infra/ffmpeg"
	"audio-converter/internal/infra/logging"
)

// Fetcher downloads the source audio and looks up its declared media type.
type Fetcher interface {
	Download(ctx context.Context, rawURL, dest string) (int64, error)
	ContentType(ctx context.Context, rawURL string) (string, error)
}

// Encoder turns an input file into an MP3 file.
type Encoder interface {
	ToMP3(ctx context.Context, input, output string) (ffmpeg.Result, error)
}

// AudioService bundles configuration and dependencies for the audio endpoints.
type AudioService struct {
	Config  *config.Config
	Fetcher Fetcher
	Encoder Encoder
}

// NewAudioService creates an AudioService backed by net/http and the configured ffmpeg binary.
func NewAudioService(cfg config.Config) *AudioService {
	return &AudioService{
		Config:  &cfg,
		Fetcher: fetch.NewClient(cfg.Fetch.DownloadTimeout, cfg.Fetch.HeadTimeout),
		Encoder: ffmpeg.New(cfg.Transcoder.Binary, cfg.Transcoder.Timeout),
	}
}

// HandleHealth reports that the process is serving requests.
func HandleHealth(c *fiber.Ctx) error {
	logging.Info("Health check endpoint called")
	return c.JSON(domain.HealthResponse{Status: "ok"})
}

var errMissingAudioURL = fmt.Errorf("%w: audio_url is empty", domain.ErrBadRequest)

// parseConvertRequest decodes the body as JSON regardless of Content-Type.
func parseConvertRequest(c *fiber.Ctx) (string, error) {
	var req domain.ConvertRequest
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrBadRequest, err)
	}
	audioURL := strings.TrimSpace(req.AudioURL)
	if audioURL == "" {
		return "", errMissingAudioURL
	}
	return audioURL, nil
}

// HandleConvert downloads audio_url, converts it to MP3 and returns the file.
func (svc *AudioService) HandleConvert(c *fiber.Ctx) error {
	audioURL, err := parseConvertRequest(c)
	switch {
	case errors.Is(err, errMissingAudioURL):
		logging.Warn("Missing 'audio_url' in request payload")
		return fiber.NewError(fiber.StatusBadRequest, "Missing 'audio_url' in request payload.")
	case errors.Is(err, domain.ErrBadRequest):
		logging.Warn("Invalid convert payload", "error", err)
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload: expected a JSON object with 'audio_url'.")
	}

	logging.Info("Received request to convert audio", "url", audioURL, "request_id", c.GetRespHeader(fiber.HeaderXRequestID))

	artifact, err := svc.convertURL(c.UserContext(), audioURL)
	switch {
	case errors.Is(err, domain.ErrUpstreamFetch):
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to download audio file from URL.")
	case errors.Is(err, domain.ErrTranscode):
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to convert audio file to MP3 using FFmpeg.")
	case err != nil:
		logging.Error("Conversion failed", "url", audioURL, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
	}

	body, err := artifact.Open()
	if err != nil {
		_ = artifact.Remove()
		logging.Error("Failed to open converted file", "path", artifact.Path, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
	}

	logging.Info("Conversion complete", "url", audioURL, "filename", artifact.Name, "bytes", artifact.Size)

	c.Attachment(artifact.Name)
	c.Set(fiber.HeaderContentType, domain.MP3MediaType)
	// The server closes body after writing it, which removes the artifact.
	return c.SendStream(body, int(artifact.Size))
}

// HandleEncodeBase64 returns the uploaded audio file Base64-encoded.
func (svc *AudioService) HandleEncodeBase64(c *fiber.Ctx) error {
	fh, err := c.FormFile("audio_file")
	if err != nil {
		logging.Warn("Missing audio_file upload", "error", err)
		return fiber.NewError(fiber.StatusBadRequest, "Missing 'audio_file' upload.")
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	logging.Info("Received request to encode file", "filename", fh.Filename, "content_type", contentType)

	f, err := fh.Open()
	if err != nil {
		logging.Error("Error opening uploaded file", "filename", fh.Filename, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to process or encode the audio file: "+err.Error())
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Error closing uploaded file", "filename", fh.Filename, "error", err)
			return
		}
		logging.Debug("Closed file stream", "filename", fh.Filename)
	}()

	if !strings.HasPrefix(contentType, "audio/") {
		logging.Warn("Invalid file type uploaded", "content_type", contentType)
		return fiber.NewError(fiber.StatusBadRequest, "Invalid file type. Expected an audio file, got "+contentType)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		logging.Error("Error reading uploaded file", "filename", fh.Filename, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to process or encode the audio file: "+err.Error())
	}
	logging.Info("Read uploaded file", "filename", fh.Filename, "bytes", len(data))

	return c.JSON(domain.EncodeResponse{
		Base64String: base64.StdEncoding.EncodeToString(data),
	})
}
