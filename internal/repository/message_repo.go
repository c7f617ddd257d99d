package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskchat/internal/domain"
	"taskchat/internal/fault"
)

// MessageRepository persiste mensajes append-only dentro de un thread. La
// pertenencia al tenant se verifica contra el thread duenio en la misma
// query; el rol se valida en la frontera del store.
type MessageRepository interface {
	Append(ctx context.Context, rctx domain.RequestContext, threadID, role, content string) (domain.Message, error)
	ListRecent(ctx context.Context, rctx domain.RequestContext, threadID string, limit int) ([]domain.Message, error)
	ListPage(ctx context.Context, rctx domain.RequestContext, threadID string, limit int, after string) (domain.Page[domain.Message], error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Append(ctx context.Context, rctx domain.RequestContext, threadID, role, content string) (domain.Message, error) {
	if !domain.ValidRole(role) {
		return domain.Message{}, fault.New(fault.Validation, "invalid message role")
	}

	// El INSERT solo procede si el thread pertenece al tenant; cero filas
	// significa thread inexistente o ajeno, ambos NotFound.
	const query = `
		INSERT INTO chat_messages (thread_id, role, content, created_at)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (
			SELECT 1 FROM chat_threads WHERE id = $1 AND tenant_id = $5
		)
		RETURNING id
	`
	msg := domain.Message{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	err := r.pool.QueryRow(ctx, query, threadID, role, content, msg.CreatedAt, rctx.TenantID).Scan(&msg.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, fault.New(fault.NotFound, "thread not found")
	}
	if err != nil {
		return domain.Message{}, fault.Wrap(fault.Persistence, "could not append message", err)
	}
	return msg, nil
}

// ListRecent devuelve los ultimos limit mensajes del thread en orden
// cronologico ascendente (la ventana acotada de contexto).
func (r *PgMessageRepository) ListRecent(ctx context.Context, rctx domain.RequestContext, threadID string, limit int) ([]domain.Message, error) {
	const query = `
		SELECT id, thread_id, role, content, created_at FROM (
			SELECT m.id, m.thread_id, m.role, m.content, m.created_at
			FROM chat_messages m
			JOIN chat_threads t ON t.id = m.thread_id
			WHERE m.thread_id = $1 AND t.tenant_id = $2
			ORDER BY m.id DESC
			LIMIT $3
		) recent
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query, threadID, rctx.TenantID, limit)
	if err != nil {
		return nil, fault.Wrap(fault.Persistence, "could not load messages", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListPage pagina mensajes en orden ascendente; el cursor es el id del
// ultimo mensaje visto.
func (r *PgMessageRepository) ListPage(ctx context.Context, rctx domain.RequestContext, threadID string, limit int, after string) (domain.Page[domain.Message], error) {
	const firstPage = `
		SELECT m.id, m.thread_id, m.role, m.content, m.created_at
		FROM chat_messages m
		JOIN chat_threads t ON t.id = m.thread_id
		WHERE m.thread_id = $1 AND t.tenant_id = $2
		ORDER BY m.id ASC
		LIMIT $3
	`
	const afterPage = `
		SELECT m.id, m.thread_id, m.role, m.content, m.created_at
		FROM chat_messages m
		JOIN chat_threads t ON t.id = m.thread_id
		WHERE m.thread_id = $1 AND t.tenant_id = $2 AND m.id > $3
		ORDER BY m.id ASC
		LIMIT $4
	`
	var (
		rows pgx.Rows
		err  error
	)
	if after == "" {
		rows, err = r.pool.Query(ctx, firstPage, threadID, rctx.TenantID, limit+1)
	} else {
		afterID, convErr := strconv.ParseInt(after, 10, 64)
		if convErr != nil {
			return domain.Page[domain.Message]{}, fault.New(fault.Validation, "invalid message cursor")
		}
		rows, err = r.pool.Query(ctx, afterPage, threadID, rctx.TenantID, afterID, limit+1)
	}
	if err != nil {
		return domain.Page[domain.Message]{}, fault.Wrap(fault.Persistence, "could not load messages", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return domain.Page[domain.Message]{}, err
	}
	return pageOf(messages, limit, func(m domain.Message) string {
		return strconv.FormatInt(m.ID, 10)
	}), nil
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fault.Wrap(fault.Persistence, "could not load messages", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.Persistence, "could not load messages", err)
	}
	return messages, nil
}
