package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskchat/internal/domain"
	"taskchat/internal/fault"
	"taskchat/internal/repository"
	"taskchat/internal/service"
)

// ChatHandler despacha las operaciones del protocolo. Todas entran por el
// mismo POST; el envelope decide la ruta y el switch es exhaustivo sobre el
// conjunto cerrado de operaciones.
type ChatHandler struct {
	logger   *zap.Logger
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	chatServ *service.ChatService
	limiter  service.RateLimiter
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
// limiter puede ser nil cuando el rate limiting esta deshabilitado.
func NewChatHandler(
	logger *zap.Logger,
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	chatServ *service.ChatService,
	limiter service.RateLimiter,
) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		threads:  threads,
		messages: messages,
		chatServ: chatServ,
		limiter:  limiter,
	}
}

// Dispatch maneja POST /api/chat.
func (h *ChatHandler) Dispatch(c *gin.Context) {
	rctx, ok := GetRequestContext(c)
	if !ok {
		h.writeError(c, fault.New(fault.Auth, "missing authentication"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		h.writeError(c, fault.Wrap(fault.Validation, "could not read request body", err))
		return
	}

	op, err := parseEnvelope(body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx := c.Request.Context()

	switch op.Type {
	case OpCreateThread:
		thread, err := h.threads.Create(ctx, rctx, op.CreateThread.Title)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"thread": thread})

	case OpGetThread:
		thread, err := h.threads.GetByID(ctx, rctx, op.GetThread.ThreadID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		page, err := h.messages.ListPage(ctx, rctx, op.GetThread.ThreadID, op.GetThread.Limit, op.GetThread.After)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"thread": thread, "messages": page})

	case OpListThreads:
		page, err := h.threads.List(ctx, rctx, op.ListThreads.Limit, op.ListThreads.After)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"threads": page})

	case OpDeleteThread:
		if err := h.threads.Delete(ctx, rctx, op.DeleteThread.ThreadID); err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": op.DeleteThread.ThreadID})

	case OpSendMessage:
		h.sendMessage(c, rctx, op.SendMessage)

	default:
		h.writeError(c, fault.New(fault.Validation, "unknown operation type"))
	}
}

func (h *ChatHandler) sendMessage(c *gin.Context, rctx domain.RequestContext, data *SendMessageData) {
	if h.limiter != nil && !h.limiter.Allow(rctx.TenantID) {
		h.logger.Warn("rate limit exceeded", zap.String("request_id", rctx.RequestID))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": gin.H{"kind": "rate_limited", "message": "too many requests"}})
		return
	}

	thread, events, err := h.chatServ.Send(c.Request.Context(), rctx, data.ThreadID, data.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if data.Stream {
		h.streamEvents(c, thread, events)
		return
	}

	// Modo no-streaming: drenamos el stream y devolvemos el resultado final.
	var final *domain.Message
	for ev := range events {
		switch ev.Type {
		case domain.StreamItemDone:
			final = ev.Message
		case domain.StreamError:
			c.JSON(fault.HTTPStatus(fault.Kind(ev.ErrorKind)), gin.H{
				"error": gin.H{"kind": ev.ErrorKind, "message": ev.ErrorMessage},
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "message": final})
}

// streamEvents escribe el stream como server-sent events. Cada StreamEvent
// sale como un frame event:/data: y el flush es inmediato para que los deltas
// lleguen apenas se producen.
func (h *ChatHandler) streamEvents(c *gin.Context, thread domain.Thread, events <-chan domain.StreamEvent) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.writeError(c, fault.New(fault.Persistence, "streaming unsupported"))
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	writeFrame(c.Writer, "thread", gin.H{"thread": thread})
	flusher.Flush()

	for ev := range events {
		writeFrame(c.Writer, string(ev.Type), ev)
		flusher.Flush()
		if c.Request.Context().Err() != nil {
			// El cliente corto la conexion; el orquestador lo detecta por su
			// propio contexto, aca solo dejamos de escribir.
			return
		}
	}
}

func writeFrame(w io.Writer, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	io.WriteString(w, "event: "+event+"\n")
	io.WriteString(w, "data: "+string(data)+"\n\n")
}

// writeError mapea el fault al status HTTP y responde el mensaje sanitizado.
// El detalle interno queda solo en el log.
func (h *ChatHandler) writeError(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	h.logger.Warn("request failed",
		zap.String("kind", string(kind)),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err),
	)
	c.JSON(fault.HTTPStatus(kind), gin.H{
		"error": gin.H{"kind": string(kind), "message": fault.UserMessage(err)},
	})
}
