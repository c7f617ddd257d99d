package domain

import "time"

// Roles validos para un mensaje. El store rechaza cualquier otro valor.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ValidRole indica si el rol pertenece al conjunto cerrado user/assistant/system.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message es un turno dentro de un thread. El ID es una secuencia monotona
// asignada por el store; los mensajes son append-only.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
