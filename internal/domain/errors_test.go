package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrors_AreDistinctAndWrappable(t *testing.T) {
	all := []error{
		ErrBadRequest,
		ErrUpstreamFetch,
		ErrTranscode,
		ErrTranscoderNotFound,
		ErrInternal,
		ErrInvalidAPIKey,
		ErrTokenStoreNotReady,
	}

	for i, a := range all {
		if a == nil || a.Error() == "" {
			t.Fatalf("error %d must be non-nil with a message", i)
		}
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("errors %q and %q must be distinct", a, b)
			}
		}
	}

	wrapped := fmt.Errorf("%w: %w", ErrTranscode, ErrTranscoderNotFound)
	if !errors.Is(wrapped, ErrTranscode) || !errors.Is(wrapped, ErrTranscoderNotFound) {
		t.Fatalf("expected errors.Is to match both wrapped errors")
	}

	joined := errors.Join(errors.New("context"), ErrUpstreamFetch)
	if !errors.Is(joined, ErrUpstreamFetch) {
		t.Fatalf("expected errors.Is to match ErrUpstreamFetch")
	}
}
