package domain

import "errors"

var (
	// ErrBadRequest signals invalid or missing client input.
	ErrBadRequest = errors.New("bad request")
	// ErrUpstreamFetch signals that the source audio could not be downloaded.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrTranscode signals that the external encoder did not produce an output.
	ErrTranscode = errors.New("transcode failed")
	// ErrTranscoderNotFound signals that the encoder binary is not resolvable on PATH.
	ErrTranscoderNotFound = errors.New("transcoder binary not found")
	// ErrInternal covers every other unexpected failure inside a handler.
	ErrInternal = errors.New("internal error")

	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that the token table has not been loaded yet.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)
