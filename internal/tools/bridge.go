// Package tools reenvía invocaciones de tools al tool server externo en
// nombre del tenant autenticado. La credencial del caller viaja unicamente
// en el header Authorization; el tenant id viaja ademas como argumento
// explicito para que el tool server aplique su propio aislamiento.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskchat/internal/domain"
	"taskchat/internal/fault"
	"taskchat/internal/llm"
)

// Bridge realiza las llamadas HTTP al tool server.
type Bridge struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func NewBridge(baseURL string, timeout time.Duration, logger *zap.Logger) *Bridge {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Catalog expone el catalogo fijo para configurar la generacion.
func (b *Bridge) Catalog() []llm.Tool {
	return Catalog()
}

// Invoke llama a la tool indicada con los argumentos generados por el modelo.
// Siempre inyecta user_id = tenant del request, pisando cualquier valor que
// el modelo haya puesto. Los errores del tool server se envuelven en la
// taxonomia local, nunca se propagan crudos.
func (b *Bridge) Invoke(ctx context.Context, name, arguments string, rctx domain.RequestContext) (string, error) {
	if !known(name) {
		return "", fault.New(fault.Validation, "unknown tool requested")
	}

	args := map[string]any{}
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fault.Wrap(fault.Validation, "malformed tool arguments", err)
		}
	}
	args["user_id"] = rctx.TenantID

	body, err := json.Marshal(args)
	if err != nil {
		return "", fault.Wrap(fault.Validation, "malformed tool arguments", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/tools/"+name, bytes.NewReader(body))
	if err != nil {
		return "", fault.Wrap(fault.ToolBridge, "task features are temporarily unavailable", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if header := rctx.Credential.AuthorizationHeader(); header != "" {
		req.Header.Set("Authorization", header)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fault.Wrap(fault.Timeout, "the task service took too long, try again", err)
		}
		return "", fault.Wrap(fault.ToolBridge, "task features are temporarily unavailable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fault.Wrap(fault.ToolBridge, "task features are temporarily unavailable", err)
	}

	switch {
	case resp.StatusCode < 300:
		return string(respBody), nil
	case resp.StatusCode == http.StatusNotFound:
		return "", fault.New(fault.NotFound, "the requested task was not found")
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return "", fault.New(fault.Validation, "the task service rejected the request")
	default:
		b.logger.Warn("tool server error",
			zap.String("tool", name),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", rctx.RequestID),
		)
		return "", fault.New(fault.ToolBridge, "task features are temporarily unavailable")
	}
}
