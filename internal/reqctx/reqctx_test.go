package reqctx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestWithRequestContext(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "https://detail.1688.com/offer/1.html")

	rc := GetRequestContext(ctx)
	if _, err := uuid.Parse(rc.RequestID); err != nil {
		t.Errorf("RequestID %q is not a UUID: %v", rc.RequestID, err)
	}
	if rc.URL != "https://detail.1688.com/offer/1.html" {
		t.Errorf("URL = %q", rc.URL)
	}

	other := WithRequestContext(context.Background(), "")
	if RequestID(other) == rc.RequestID {
		t.Error("request ids should be unique")
	}
}

func TestGetRequestContext_Missing(t *testing.T) {
	if got := RequestID(context.Background()); got != "unknown" {
		t.Errorf("RequestID() = %q, want unknown", got)
	}
}

func TestNewRequestError(t *testing.T) {
	base := errors.New("boom")
	ctx := WithRequestContext(context.Background(), "https://x")

	err := NewRequestError(ctx, base)
	if !errors.Is(err, base) {
		t.Error("RequestError should unwrap to the original error")
	}
	if !strings.Contains(err.Error(), RequestID(ctx)) {
		t.Errorf("Error() = %q, want the request id", err.Error())
	}
}
