// Package fault define la taxonomia cerrada de fallas del servicio y su
// mapeo a codigos HTTP. Todos los componentes reportan errores como *Error
// para que el dispatcher pueda responder de forma uniforme y sanitizada.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind clasifica una falla dentro del conjunto cerrado.
type Kind string

const (
	Auth        Kind = "auth_failure"
	NotFound    Kind = "not_found"
	Validation  Kind = "validation_failure"
	Upstream    Kind = "upstream_unavailable"
	ToolBridge  Kind = "tool_bridge_unavailable"
	Persistence Kind = "persistence_failure"
	Timeout     Kind = "timeout"
)

// Error es una falla clasificada con mensaje apto para el usuario.
// La causa tecnica queda disponible via Unwrap solo para logging.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extrae el Kind de un error; cualquier error no clasificado se
// trata como Persistence (falla interna).
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Persistence
}

// UserMessage devuelve el mensaje sanitizado para el cliente. Los errores no
// clasificados nunca exponen su texto crudo.
func UserMessage(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "internal error"
}

// HTTPStatus mapea cada Kind a su status de respuesta.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Auth:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Upstream, ToolBridge:
		return http.StatusServiceUnavailable
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
