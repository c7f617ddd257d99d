package http

import (
	"encoding/json"
	"strings"

	"taskchat/internal/fault"
)

// OpType es el conjunto cerrado de operaciones del protocolo. Agregar una
// operacion es una decision de compile-time: el dispatcher hace switch
// exhaustivo sobre estos valores.
type OpType string

const (
	OpCreateThread OpType = "create_thread"
	OpGetThread    OpType = "get_thread"
	OpListThreads  OpType = "list_threads"
	OpDeleteThread OpType = "delete_thread"
	OpSendMessage  OpType = "send_message"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Operation es el resultado de parsear un envelope: un tagged union con el
// payload del variante correspondiente ya validado.
type Operation struct {
	Type         OpType
	CreateThread *CreateThreadData
	GetThread    *GetThreadData
	ListThreads  *ListThreadsData
	DeleteThread *DeleteThreadData
	SendMessage  *SendMessageData
}

type CreateThreadData struct {
	Title *string `json:"title"`
}

type GetThreadData struct {
	ThreadID string `json:"thread_id"`
	Limit    int    `json:"limit"`
	After    string `json:"after"`
}

type ListThreadsData struct {
	Limit int    `json:"limit"`
	After string `json:"after"`
}

type DeleteThreadData struct {
	ThreadID string `json:"thread_id"`
}

type SendMessageData struct {
	ThreadID *string `json:"thread_id"`
	Content  string  `json:"content"`
	Stream   bool    `json:"stream"`
}

// parseEnvelope decodifica y valida el envelope {type, data}. Los envelopes
// desconocidos o malformados fallan con detalle de campo, nunca se ignoran.
func parseEnvelope(body []byte) (Operation, error) {
	if len(body) == 0 {
		return Operation{}, fault.New(fault.Validation, "request body cannot be empty")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Operation{}, fault.Wrap(fault.Validation, "malformed request envelope", err)
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	switch OpType(env.Type) {
	case OpCreateThread:
		var d CreateThreadData
		if err := json.Unmarshal(data, &d); err != nil {
			return Operation{}, fault.Wrap(fault.Validation, "malformed create_thread data", err)
		}
		return Operation{Type: OpCreateThread, CreateThread: &d}, nil

	case OpGetThread:
		var d GetThreadData
		if err := json.Unmarshal(data, &d); err != nil {
			return Operation{}, fault.Wrap(fault.Validation, "malformed get_thread data", err)
		}
		if strings.TrimSpace(d.ThreadID) == "" {
			return Operation{}, fault.New(fault.Validation, "get_thread requires thread_id")
		}
		d.Limit = clampLimit(d.Limit)
		return Operation{Type: OpGetThread, GetThread: &d}, nil

	case OpListThreads:
		var d ListThreadsData
		if err := json.Unmarshal(data, &d); err != nil {
			return Operation{}, fault.Wrap(fault.Validation, "malformed list_threads data", err)
		}
		d.Limit = clampLimit(d.Limit)
		return Operation{Type: OpListThreads, ListThreads: &d}, nil

	case OpDeleteThread:
		var d DeleteThreadData
		if err := json.Unmarshal(data, &d); err != nil {
			return Operation{}, fault.Wrap(fault.Validation, "malformed delete_thread data", err)
		}
		if strings.TrimSpace(d.ThreadID) == "" {
			return Operation{}, fault.New(fault.Validation, "delete_thread requires thread_id")
		}
		return Operation{Type: OpDeleteThread, DeleteThread: &d}, nil

	case OpSendMessage:
		var d SendMessageData
		if err := json.Unmarshal(data, &d); err != nil {
			return Operation{}, fault.Wrap(fault.Validation, "malformed send_message data", err)
		}
		if strings.TrimSpace(d.Content) == "" {
			return Operation{}, fault.New(fault.Validation, "send_message requires content")
		}
		return Operation{Type: OpSendMessage, SendMessage: &d}, nil

	default:
		return Operation{}, fault.New(fault.Validation, "unknown operation type")
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
