package service

import (
	"unicode/utf8"

	"taskchat/internal/domain"
)

// Translator convierte el stream nativo del backend en eventos protocolares,
// preservando el orden de emision. Mantiene un buffer minimo para no cortar
// un delta en medio de una secuencia UTF-8.
type Translator struct {
	pending []byte
}

func NewTranslator() *Translator {
	return &Translator{}
}

// ContentDelta traduce un delta de texto. Devuelve cero o un evento: si el
// chunk termina en una secuencia UTF-8 incompleta, la cola queda retenida
// hasta el proximo delta.
func (t *Translator) ContentDelta(chunk string) []domain.StreamEvent {
	t.pending = append(t.pending, chunk...)

	cut := len(t.pending)
	for cut > 0 && cut > len(t.pending)-utf8.UTFMax {
		r, size := utf8.DecodeLastRune(t.pending[:cut])
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut--
	}
	if cut == 0 {
		return nil
	}

	out := string(t.pending[:cut])
	t.pending = append(t.pending[:0], t.pending[cut:]...)
	return []domain.StreamEvent{{Type: domain.StreamContentDelta, Delta: out}}
}

// Flush libera cualquier cola retenida al cierre de un stream.
func (t *Translator) Flush() []domain.StreamEvent {
	if len(t.pending) == 0 {
		return nil
	}
	out := string(t.pending)
	t.pending = t.pending[:0]
	return []domain.StreamEvent{{Type: domain.StreamContentDelta, Delta: out}}
}

// ToolCallStarted marca el inicio de una invocacion. Solo expone el nombre:
// nunca los argumentos crudos, que podrian contener material sensible.
func ToolCallStarted(name string) domain.StreamEvent {
	return domain.StreamEvent{Type: domain.StreamToolCallStarted, ToolName: name}
}

// ToolCallCompleted marca el fin de una invocacion con un resumen corto.
func ToolCallCompleted(name, summary string) domain.StreamEvent {
	return domain.StreamEvent{Type: domain.StreamToolCallCompleted, ToolName: name, ToolSummary: summary}
}

// ItemDone envuelve el mensaje final del assistant.
func ItemDone(msg domain.Message) domain.StreamEvent {
	return domain.StreamEvent{Type: domain.StreamItemDone, Message: &msg}
}

// Done cierra el stream.
func Done() domain.StreamEvent {
	return domain.StreamEvent{Type: domain.StreamDone}
}
