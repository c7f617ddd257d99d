package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskchat/internal/fault"
)

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestStreamChat_TextDeltas(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"Hola"}}]}`,
		`{"choices":[{"delta":{"content":" mundo"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
	})
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second, nil)
	events, err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hola"}}, nil)
	if err != nil {
		t.Fatalf("stream chat: %v", err)
	}

	got := collect(t, events)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(got), got)
	}
	if got[0].Delta != "Hola" || got[1].Delta != " mundo" {
		t.Fatalf("unexpected deltas: %+v", got)
	}
	if got[2].Type != EventDone || got[2].FinishReason != "stop" {
		t.Fatalf("expected done event with stop, got %+v", got[2])
	}
}

func TestStreamChat_AssemblesToolCallFragments(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"list_tasks","arguments":""}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"status\":"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"pending\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
	})
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second, nil)
	events, err := client.StreamChat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("stream chat: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("expected tool_calls + done, got %+v", got)
	}
	if got[0].Type != EventToolCalls || len(got[0].ToolCalls) != 1 {
		t.Fatalf("expected one assembled tool call, got %+v", got[0])
	}
	call := got[0].ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "list_tasks" {
		t.Fatalf("unexpected call identity: %+v", call)
	}
	if call.Function.Arguments != `{"status":"pending"}` {
		t.Fatalf("arguments not reassembled: %q", call.Function.Arguments)
	}
	if got[1].Type != EventDone || got[1].FinishReason != "tool_calls" {
		t.Fatalf("expected done with tool_calls, got %+v", got[1])
	}
}

func TestStreamChat_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key", "gpt-4o-mini", 5*time.Second, nil)
	_, err := client.StreamChat(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if fault.KindOf(err) != fault.Upstream {
		t.Fatalf("expected upstream kind, got %v", err)
	}
	if strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("raw upstream body leaked into error: %v", err)
	}
}

func TestStreamChat_TimeoutBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key", "gpt-4o-mini", 50*time.Millisecond, nil)
	_, err := client.StreamChat(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if fault.KindOf(err) != fault.Timeout {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}
