package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskchat/internal/domain"
	"taskchat/internal/fault"
)

// ThreadRepository persiste threads. Todas las operaciones filtran por el
// tenant del request en el predicado de la query, de modo que "no existe" y
// "pertenece a otro tenant" son indistinguibles (ambas devuelven NotFound).
type ThreadRepository interface {
	Create(ctx context.Context, rctx domain.RequestContext, title *string) (domain.Thread, error)
	GetByID(ctx context.Context, rctx domain.RequestContext, threadID string) (domain.Thread, error)
	List(ctx context.Context, rctx domain.RequestContext, limit int, after string) (domain.Page[domain.Thread], error)
	Touch(ctx context.Context, rctx domain.RequestContext, threadID string, at time.Time) error
	Delete(ctx context.Context, rctx domain.RequestContext, threadID string) error
}

type PgThreadRepository struct {
	pool *pgxpool.Pool
}

func NewPgThreadRepository(pool *pgxpool.Pool) *PgThreadRepository {
	return &PgThreadRepository{pool: pool}
}

func (r *PgThreadRepository) Create(ctx context.Context, rctx domain.RequestContext, title *string) (domain.Thread, error) {
	const query = `
		INSERT INTO chat_threads (id, tenant_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	now := time.Now().UTC()
	thread := domain.Thread{
		ID:        uuid.NewString(),
		TenantID:  rctx.TenantID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.pool.Exec(ctx, query, thread.ID, thread.TenantID, thread.Title, now); err != nil {
		return domain.Thread{}, fault.Wrap(fault.Persistence, "could not create thread", err)
	}
	return thread, nil
}

func (r *PgThreadRepository) GetByID(ctx context.Context, rctx domain.RequestContext, threadID string) (domain.Thread, error) {
	const query = `
		SELECT id, tenant_id, title, created_at, updated_at
		FROM chat_threads
		WHERE id = $1 AND tenant_id = $2
	`
	var thread domain.Thread
	err := r.pool.QueryRow(ctx, query, threadID, rctx.TenantID).Scan(
		&thread.ID,
		&thread.TenantID,
		&thread.Title,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Thread{}, fault.New(fault.NotFound, "thread not found")
	}
	if err != nil {
		return domain.Thread{}, fault.Wrap(fault.Persistence, "could not load thread", err)
	}
	return thread, nil
}

func (r *PgThreadRepository) List(ctx context.Context, rctx domain.RequestContext, limit int, after string) (domain.Page[domain.Thread], error) {
	// Keyset sobre updated_at; el cursor es el id del ultimo thread visto y
	// se pide limit+1 para saber si hay mas paginas.
	const firstPage = `
		SELECT id, tenant_id, title, created_at, updated_at
		FROM chat_threads
		WHERE tenant_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	const afterPage = `
		SELECT id, tenant_id, title, created_at, updated_at
		FROM chat_threads
		WHERE tenant_id = $1
		  AND updated_at < (SELECT updated_at FROM chat_threads WHERE id = $2 AND tenant_id = $1)
		ORDER BY updated_at DESC
		LIMIT $3
	`
	var (
		rows pgx.Rows
		err  error
	)
	if after == "" {
		rows, err = r.pool.Query(ctx, firstPage, rctx.TenantID, limit+1)
	} else {
		rows, err = r.pool.Query(ctx, afterPage, rctx.TenantID, after, limit+1)
	}
	if err != nil {
		return domain.Page[domain.Thread]{}, fault.Wrap(fault.Persistence, "could not list threads", err)
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		var t domain.Thread
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return domain.Page[domain.Thread]{}, fault.Wrap(fault.Persistence, "could not list threads", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Thread]{}, fault.Wrap(fault.Persistence, "could not list threads", err)
	}

	return pageOf(threads, limit, func(t domain.Thread) string { return t.ID }), nil
}

func (r *PgThreadRepository) Touch(ctx context.Context, rctx domain.RequestContext, threadID string, at time.Time) error {
	const query = `
		UPDATE chat_threads
		SET updated_at = $3
		WHERE id = $1 AND tenant_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, threadID, rctx.TenantID, at.UTC())
	if err != nil {
		return fault.Wrap(fault.Persistence, "could not touch thread", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.NotFound, "thread not found")
	}
	return nil
}

func (r *PgThreadRepository) Delete(ctx context.Context, rctx domain.RequestContext, threadID string) error {
	// Los mensajes caen por ON DELETE CASCADE.
	const query = `
		DELETE FROM chat_threads
		WHERE id = $1 AND tenant_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, threadID, rctx.TenantID)
	if err != nil {
		return fault.Wrap(fault.Persistence, "could not delete thread", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.NotFound, "thread not found")
	}
	return nil
}

// pageOf recorta la lista pedida con limit+1 y arma la pagina con cursor.
func pageOf[T any](items []T, limit int, cursor func(T) string) domain.Page[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	page := domain.Page[T]{Data: items, HasMore: hasMore}
	if hasMore && len(items) > 0 {
		page.After = cursor(items[len(items)-1])
	}
	return page
}
