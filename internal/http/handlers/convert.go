package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"audio-converter/internal/domain"
	"audio-converter/internal/infra/fetch"
	"audio-converter/internal/infra/logging"
	"audio-converter/internal/infra/workspace"
)

// convertURL downloads, renames, encodes and relocates the audio inside a
// scoped workspace. The returned artifact lives outside the workspace.
func (svc *AudioService) convertURL(ctx context.Context, audioURL string) (*workspace.Artifact, error) {
	base := fetch.BaseName(audioURL, domain.DefaultBaseName)

	ws, err := workspace.Acquire(svc.Config.Workspace.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logging.Warn("Failed to remove workspace", "dir", ws.Dir(), "error", err)
		}
	}()

	input := ws.Path(base + "_input")
	output := ws.Path(base + "_output.mp3")

	logging.Info("Downloading audio", "url", audioURL, "dest", input)
	n, err := svc.Fetcher.Download(ctx, audioURL, input)
	if err != nil {
		logging.Error("Error downloading file", "url", audioURL, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	logging.Info("File downloaded", "dest", input, "bytes", n)

	input = svc.renameByContentType(ctx, audioURL, ws, base, input)

	res, err := svc.Encoder.ToMP3(ctx, input, output)
	if err != nil {
		logging.Error("FFmpeg conversion failed",
			"input", input,
			"command", res.Command(),
			"exit_code", res.ExitCode,
			"stderr", res.Stderr,
			"stdout", res.Stdout,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrTranscode, err)
	}
	logging.Info("FFmpeg conversion successful", "input", input)
	logging.Debug("FFmpeg output", "stdout", res.Stdout, "stderr", res.Stderr)

	artifact, err := ws.Relocate(output, filepath.Base(output))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return artifact, nil
}

// renameByContentType gives the downloaded file an extension matching the
// declared media type. Every failure is logged and the original path is kept.
func (svc *AudioService) renameByContentType(ctx context.Context, audioURL string, ws *workspace.Workspace, base, input string) string {
	contentType, err := svc.Fetcher.ContentType(ctx, audioURL)
	if err != nil {
		logging.Warn("Could not determine content type", "url", audioURL, "error", err)
		return input
	}
	ext := fetch.ExtensionForType(contentType)
	if ext == "" {
		return input
	}

	renamed := ws.Path(base + ext)
	if err := os.Rename(input, renamed); err != nil {
		logging.Warn("Could not rename downloaded file", "from", input, "to", renamed, "error", err)
		return input
	}
	logging.Info("Renamed downloaded file", "path", renamed, "content_type", contentType)
	return renamed
}
