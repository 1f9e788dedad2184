package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestEngineError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("normalize: %w", NewEngineError(ErrCodeFieldMissing, "Product title not found", nil))

	if !errors.Is(err, &EngineError{Code: ErrCodeFieldMissing}) {
		t.Fatalf("expected errors.Is to match on code")
	}
	if errors.Is(err, &EngineError{Code: ErrCodeExhausted}) {
		t.Fatalf("did not expect a match on a different code")
	}
	if CodeOf(err) != ErrCodeFieldMissing {
		t.Errorf("CodeOf = %q", CodeOf(err))
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"pipeline error is verbatim", fmt.Errorf("wrap: %w", NewEngineError(ErrCodeExhausted, "Could not extract", nil)), "Could not extract"},
		{"capture error keeps code", NewEngineError(ErrCodeNetworkError, "fetch failed", ErrNetworkError), "NETWORK_ERROR: fetch failed: network error"},
		{"plain error", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
