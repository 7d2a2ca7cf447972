// Package ffmpeg invokes the external ffmpeg encoder.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"audio-converter/internal/domain"
)

// Result captures the outcome of a single encoder run.
type Result struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Command returns the full command line for logging.
func (r Result) Command() string {
	return strings.Join(r.Args, " ")
}

// Transcoder runs a fixed MP3 encode with the configured binary.
type Transcoder struct {
	Binary string
	// Timeout bounds a run; zero means no limit.
	Timeout time.Duration
}

// New returns a Transcoder for binary. An empty binary means "ffmpeg".
func New(binary string, timeout time.Duration) *Transcoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{Binary: binary, Timeout: timeout}
}

// MP3Args builds the argument list: drop video, LAME MP3 at 192 kbit/s,
// 44.1 kHz stereo, overwrite the output if it exists.
func MP3Args(input, output string) []string {
	return []string{
		"-i", input,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-ar", "44100",
		"-ac", "2",
		"-y",
		output,
	}
}

// Available reports whether the encoder binary resolves on PATH.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

// ToMP3 encodes input into output. The returned Result is populated whenever
// the process was started. Errors wrap domain.ErrTranscoderNotFound when the
// binary cannot be resolved.
func (t *Transcoder) ToMP3(ctx context.Context, input, output string) (Result, error) {
	args := MP3Args(input, output)
	res := Result{Args: append([]string{t.Binary}, args...), ExitCode: -1}

	if _, err := exec.LookPath(t.Binary); err != nil {
		return res, fmt.Errorf("%w: %s: %v", domain.ErrTranscoderNotFound, t.Binary, err)
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return res, fmt.Errorf("%w: %s: %v", domain.ErrTranscoderNotFound, t.Binary, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, fmt.Errorf("ffmpeg exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		return res, fmt.Errorf("ffmpeg: %w", err)
	}
	return res, nil
}
