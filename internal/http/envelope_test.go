package http

import (
	"testing"

	"taskchat/internal/fault"
)

func TestParseEnvelope_SendMessage(t *testing.T) {
	op, err := parseEnvelope([]byte(`{"type":"send_message","data":{"thread_id":"t1","content":"hola","stream":true}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op.Type != OpSendMessage {
		t.Fatalf("expected send_message, got %s", op.Type)
	}
	if op.SendMessage.ThreadID == nil || *op.SendMessage.ThreadID != "t1" {
		t.Fatalf("unexpected thread_id: %v", op.SendMessage.ThreadID)
	}
	if !op.SendMessage.Stream {
		t.Fatal("expected stream=true")
	}
}

func TestParseEnvelope_SendMessageWithoutThread(t *testing.T) {
	op, err := parseEnvelope([]byte(`{"type":"send_message","data":{"content":"hola"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op.SendMessage.ThreadID != nil {
		t.Fatalf("expected nil thread_id, got %v", *op.SendMessage.ThreadID)
	}
}

func TestParseEnvelope_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"type":`},
		{"unknown type", `{"type":"drop_all_threads","data":{}}`},
		{"send_message without content", `{"type":"send_message","data":{"thread_id":"t1"}}`},
		{"send_message blank content", `{"type":"send_message","data":{"content":"   "}}`},
		{"get_thread without id", `{"type":"get_thread","data":{}}`},
		{"delete_thread without id", `{"type":"delete_thread","data":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseEnvelope([]byte(tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if fault.KindOf(err) != fault.Validation {
				t.Fatalf("expected validation_failure, got %s", fault.KindOf(err))
			}
		})
	}
}

func TestParseEnvelope_ClampsLimits(t *testing.T) {
	op, err := parseEnvelope([]byte(`{"type":"list_threads","data":{"limit":0}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op.ListThreads.Limit != defaultPageLimit {
		t.Fatalf("expected default limit %d, got %d", defaultPageLimit, op.ListThreads.Limit)
	}

	op, err = parseEnvelope([]byte(`{"type":"get_thread","data":{"thread_id":"t1","limit":500}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op.GetThread.Limit != maxPageLimit {
		t.Fatalf("expected max limit %d, got %d", maxPageLimit, op.GetThread.Limit)
	}
}

func TestParseEnvelope_MissingDataDefaults(t *testing.T) {
	op, err := parseEnvelope([]byte(`{"type":"create_thread"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op.CreateThread == nil || op.CreateThread.Title != nil {
		t.Fatalf("expected empty create_thread data, got %+v", op.CreateThread)
	}
}
