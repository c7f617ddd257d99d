package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskchat/internal/fault"
)

// Message es un mensaje del protocolo chat completions.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall es una invocacion de funcion pedida por el modelo.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describe una funcion disponible para el modelo.
type Tool struct {
	Type     string   `json:"type"`
	Function ToolSpec `json:"function"`
}

type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// EventType enumera los eventos nativos del stream de generacion.
type EventType int

const (
	EventTextDelta EventType = iota
	EventToolCalls
	EventDone
	EventError
)

// Event es un evento nativo del backend de inferencia. EventToolCalls llega
// a lo sumo una vez por stream, con los fragmentos ya ensamblados.
type Event struct {
	Type         EventType
	Delta        string
	ToolCalls    []ToolCall
	FinishReason string
	Err          error
}

// StreamingClient define la interfaz para generar respuestas en streaming.
type StreamingClient interface {
	StreamChat(ctx context.Context, messages []Message, tools []Tool) (<-chan Event, error)
}

// HTTPClient implementa StreamingClient contra una API chat completions
// OpenAI-compatible con stream habilitado.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente apuntando a la API de chat completions.
// El timeout acota la llamada completa, incluido el consumo del stream.
func NewHTTPClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Tools    []Tool    `json:"tools,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *HTTPClient) StreamChat(ctx context.Context, messages []Message, tools []Tool) (<-chan Event, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
		Tools:    tools,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fault.Wrap(fault.Upstream, "could not reach the assistant, try again", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		cancel()
		return nil, fault.Wrap(fault.Upstream, "could not reach the assistant, try again", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, classifyTransportErr(err)
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		c.logger.Warn("llm error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fault.New(fault.Upstream, "the assistant is temporarily unavailable, try again")
	}

	events := make(chan Event)
	go func() {
		defer cancel()
		defer resp.Body.Close()
		defer close(events)
		c.consumeStream(ctx, resp.Body, events)
	}()
	return events, nil
}

// consumeStream lee frames SSE "data: {...}" hasta el centinela [DONE],
// acumulando los fragmentos de tool calls por indice.
func (c *HTTPClient) consumeStream(ctx context.Context, body io.Reader, events chan<- Event) {
	var (
		calls  []ToolCall
		finish string
	)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.logger.Warn("malformed stream chunk", zap.Error(err))
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			if !emit(ctx, events, Event{Type: EventTextDelta, Delta: choice.Delta.Content}) {
				return
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			for len(calls) <= tc.Index {
				calls = append(calls, ToolCall{Type: "function"})
			}
			if tc.ID != "" {
				calls[tc.Index].ID = tc.ID
			}
			if tc.Function.Name != "" {
				calls[tc.Index].Function.Name = tc.Function.Name
			}
			calls[tc.Index].Function.Arguments += tc.Function.Arguments
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finish = *choice.FinishReason
		}
	}
	if err := scanner.Err(); err != nil {
		emit(ctx, events, Event{Type: EventError, Err: classifyTransportErr(err)})
		return
	}

	if finish == "tool_calls" && len(calls) > 0 {
		if !emit(ctx, events, Event{Type: EventToolCalls, ToolCalls: calls}) {
			return
		}
	}
	emit(ctx, events, Event{Type: EventDone, FinishReason: finish})
}

func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.Timeout, "the assistant took too long, try again", err)
	}
	if errors.Is(err, context.Canceled) {
		return fault.Wrap(fault.Upstream, "request cancelled", err)
	}
	return fault.Wrap(fault.Upstream, "the assistant is temporarily unavailable, try again", err)
}
