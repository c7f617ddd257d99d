package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskchat/internal/domain"
	"taskchat/internal/fault"
	"taskchat/internal/llm"
	"taskchat/internal/repository"
)

// ToolInvoker es la capacidad de tool-calling que se cablea a cada sesion.
type ToolInvoker interface {
	Catalog() []llm.Tool
	Invoke(ctx context.Context, name, arguments string, rctx domain.RequestContext) (string, error)
}

// ChatService construye una sesion efimera por request: carga la ventana de
// historia, cablea el tool bridge con la credencial del caller y conduce la
// generacion en streaming. No conserva estado entre invocaciones.
type ChatService struct {
	logger        *zap.Logger
	threads       repository.ThreadRepository
	messages      repository.MessageRepository
	llmClient     llm.StreamingClient
	bridge        ToolInvoker
	historyWindow int
	maxToolRounds int
}

func NewChatService(
	logger *zap.Logger,
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	llmClient llm.StreamingClient,
	bridge ToolInvoker,
	historyWindow int,
) *ChatService {
	if historyWindow <= 0 {
		historyWindow = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		logger:        logger,
		threads:       threads,
		messages:      messages,
		llmClient:     llmClient,
		bridge:        bridge,
		historyWindow: historyWindow,
		maxToolRounds: 5,
	}
}

// Send resuelve el thread (creandolo si no se indico uno), persiste el
// mensaje del usuario y devuelve el canal de eventos de la respuesta. El
// canal tiene buffer acotado: si el cliente lee lento, el productor espera.
func (s *ChatService) Send(ctx context.Context, rctx domain.RequestContext, threadID *string, content string) (domain.Thread, <-chan domain.StreamEvent, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Thread{}, nil, fault.New(fault.Validation, "content must not be empty")
	}

	var (
		thread domain.Thread
		err    error
	)
	if threadID == nil || *threadID == "" {
		thread, err = s.threads.Create(ctx, rctx, nil)
	} else {
		thread, err = s.threads.GetByID(ctx, rctx, *threadID)
	}
	if err != nil {
		return domain.Thread{}, nil, err
	}

	// La historia se carga antes de anexar el input: el input viaja aparte
	// al final de la conversacion.
	history, err := s.messages.ListRecent(ctx, rctx, thread.ID, s.historyWindow)
	if err != nil {
		return domain.Thread{}, nil, err
	}

	input, err := s.messages.Append(ctx, rctx, thread.ID, domain.RoleUser, content)
	if err != nil {
		return domain.Thread{}, nil, err
	}
	if err := s.threads.Touch(ctx, rctx, thread.ID, input.CreatedAt); err != nil {
		return domain.Thread{}, nil, err
	}

	events := make(chan domain.StreamEvent, 16)
	go s.respond(ctx, rctx, thread, history, input, events)
	return thread, events, nil
}

// respond conduce la generacion y emite los eventos traducidos. La escritura
// del mensaje final del assistant ocurre despues de emitir done y nunca
// aborta el stream ya emitido.
func (s *ChatService) respond(
	ctx context.Context,
	rctx domain.RequestContext,
	thread domain.Thread,
	history []domain.Message,
	input domain.Message,
	events chan<- domain.StreamEvent,
) {
	defer close(events)

	send := func(ev domain.StreamEvent) bool {
		// Un cliente desconectado corta la produccion; el chequeo previo
		// evita encolar eventos cuando ya nadie va a leerlos.
		select {
		case <-ctx.Done():
			return false
		default:
		}
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		kind := fault.KindOf(err)
		s.logger.Warn("stream aborted",
			zap.String("request_id", rctx.RequestID),
			zap.String("thread_id", thread.ID),
			zap.Error(err),
		)
		send(domain.StreamEvent{
			Type:         domain.StreamError,
			ErrorKind:    string(kind),
			ErrorMessage: fault.UserMessage(err),
		})
	}

	convo := make([]llm.Message, 0, len(history)+2)
	convo = append(convo, llm.Message{Role: domain.RoleSystem, Content: buildInstructions(rctx.TenantID)})
	for _, msg := range history {
		convo = append(convo, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	convo = append(convo, llm.Message{Role: domain.RoleUser, Content: input.Content})

	var assembled strings.Builder
	translator := NewTranslator()
	emitDeltas := func(evs []domain.StreamEvent) bool {
		for _, ev := range evs {
			assembled.WriteString(ev.Delta)
			if !send(ev) {
				return false
			}
		}
		return true
	}

	for round := 0; ; round++ {
		if round > s.maxToolRounds {
			fail(fault.New(fault.Upstream, "the assistant could not finish the request, try again"))
			return
		}

		stream, err := s.llmClient.StreamChat(ctx, convo, s.bridge.Catalog())
		if err != nil {
			fail(err)
			return
		}

		var toolCalls []llm.ToolCall
		finish := ""
		for ev := range stream {
			switch ev.Type {
			case llm.EventTextDelta:
				if !emitDeltas(translator.ContentDelta(ev.Delta)) {
					return
				}
			case llm.EventToolCalls:
				toolCalls = ev.ToolCalls
			case llm.EventDone:
				finish = ev.FinishReason
			case llm.EventError:
				fail(ev.Err)
				return
			}
		}
		if !emitDeltas(translator.Flush()) {
			return
		}

		if finish != "tool_calls" || len(toolCalls) == 0 {
			break
		}

		convo = append(convo, llm.Message{Role: domain.RoleAssistant, ToolCalls: toolCalls})
		for _, call := range toolCalls {
			name := call.Function.Name
			if !send(ToolCallStarted(name)) {
				return
			}
			result, err := s.bridge.Invoke(ctx, name, call.Function.Arguments, rctx)
			summary := "completed"
			if err != nil {
				// Degradacion: el fallo vuelve al modelo como resultado
				// para que responda sin datos de la tool.
				summary = "unavailable"
				result = "tool " + name + " is temporarily unavailable"
				s.logger.Warn("tool invocation failed",
					zap.String("request_id", rctx.RequestID),
					zap.String("tool", name),
					zap.Error(err),
				)
			}
			if !send(ToolCallCompleted(name, summary)) {
				return
			}
			convo = append(convo, llm.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	final := domain.Message{
		ThreadID:  thread.ID,
		Role:      domain.RoleAssistant,
		Content:   assembled.String(),
		CreatedAt: time.Now().UTC(),
	}
	if !send(ItemDone(final)) {
		return
	}
	if !send(Done()) {
		return
	}

	s.persistAssistant(ctx, rctx, thread.ID, final.Content)
}

// persistAssistant escribe el mensaje final con un contexto desacoplado del
// request: el stream ya fue emitido y una falla aca se loguea y se traga.
func (s *ChatService) persistAssistant(ctx context.Context, rctx domain.RequestContext, threadID, content string) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	msg, err := s.messages.Append(pctx, rctx, threadID, domain.RoleAssistant, content)
	if err != nil {
		s.logger.Error("assistant persistence failed after stream completion",
			zap.String("request_id", rctx.RequestID),
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		return
	}
	if err := s.threads.Touch(pctx, rctx, threadID, msg.CreatedAt); err != nil {
		s.logger.Error("thread touch failed after stream completion",
			zap.String("request_id", rctx.RequestID),
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
	}
}
