package domain

import "time"

// Thread es una conversacion persistida de un tenant. UpdatedAt avanza con
// cada mensaje y ordena el listado de threads.
type Thread struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
