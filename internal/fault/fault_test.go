package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_ClassifiedError(t *testing.T) {
	err := New(NotFound, "thread not found")
	if got := KindOf(err); got != NotFound {
		t.Fatalf("expected %s, got %s", NotFound, got)
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	inner := Wrap(Timeout, "tool call timed out", errors.New("deadline exceeded"))
	err := fmt.Errorf("invoke list_tasks: %w", inner)
	if got := KindOf(err); got != Timeout {
		t.Fatalf("expected %s, got %s", Timeout, got)
	}
}

func TestKindOf_UnclassifiedDefaultsToPersistence(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Persistence {
		t.Fatalf("expected %s, got %s", Persistence, got)
	}
}

func TestUserMessage_NeverLeaksRawError(t *testing.T) {
	raw := errors.New("pq: connection refused host=10.0.0.3")
	if msg := UserMessage(raw); msg != "internal error" {
		t.Fatalf("raw error leaked: %q", msg)
	}
	wrapped := Wrap(Upstream, "the assistant is temporarily unavailable, try again", raw)
	if msg := UserMessage(wrapped); msg != "the assistant is temporarily unavailable, try again" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Auth, http.StatusUnauthorized},
		{NotFound, http.StatusNotFound},
		{Validation, http.StatusBadRequest},
		{Upstream, http.StatusServiceUnavailable},
		{ToolBridge, http.StatusServiceUnavailable},
		{Timeout, http.StatusGatewayTimeout},
		{Persistence, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.kind); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}
