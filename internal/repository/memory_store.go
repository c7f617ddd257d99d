package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskchat/internal/domain"
	"taskchat/internal/fault"
)

// MemoryStore implementa ThreadRepository y MessageRepository en memoria.
// Respeta el mismo contrato de aislamiento por tenant que la implementacion
// Postgres; se usa en tests y para correr el servidor sin base de datos.
type MemoryStore struct {
	mu        sync.Mutex
	threads   map[string]domain.Thread
	messages  map[string][]domain.Message
	nextMsgID int64

	// AppendErr fuerza fallas de persistencia en tests.
	AppendErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:  make(map[string]domain.Thread),
		messages: make(map[string][]domain.Message),
	}
}

var (
	_ ThreadRepository  = (*MemoryStore)(nil)
	_ MessageRepository = (*MemoryStore)(nil)
)

func (s *MemoryStore) Create(_ context.Context, rctx domain.RequestContext, title *string) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	thread := domain.Thread{
		ID:        uuid.NewString(),
		TenantID:  rctx.TenantID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.threads[thread.ID] = thread
	return thread, nil
}

func (s *MemoryStore) GetByID(_ context.Context, rctx domain.RequestContext, threadID string) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owned(rctx, threadID)
}

func (s *MemoryStore) List(_ context.Context, rctx domain.RequestContext, limit int, after string) (domain.Page[domain.Thread], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var threads []domain.Thread
	for _, t := range s.threads {
		if t.TenantID == rctx.TenantID {
			threads = append(threads, t)
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})

	if after != "" {
		idx := -1
		for i, t := range threads {
			if t.ID == after {
				idx = i
				break
			}
		}
		if idx >= 0 {
			threads = threads[idx+1:]
		}
	}

	return pageOf(threads, limit, func(t domain.Thread) string { return t.ID }), nil
}

func (s *MemoryStore) Touch(_ context.Context, rctx domain.RequestContext, threadID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, err := s.owned(rctx, threadID)
	if err != nil {
		return err
	}
	thread.UpdatedAt = at.UTC()
	s.threads[threadID] = thread
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, rctx domain.RequestContext, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(rctx, threadID); err != nil {
		return err
	}
	delete(s.threads, threadID)
	delete(s.messages, threadID)
	return nil
}

func (s *MemoryStore) Append(_ context.Context, rctx domain.RequestContext, threadID, role, content string) (domain.Message, error) {
	if !domain.ValidRole(role) {
		return domain.Message{}, fault.New(fault.Validation, "invalid message role")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return domain.Message{}, s.AppendErr
	}
	if _, err := s.owned(rctx, threadID); err != nil {
		return domain.Message{}, err
	}
	s.nextMsgID++
	msg := domain.Message{
		ID:        s.nextMsgID,
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[threadID] = append(s.messages[threadID], msg)
	return msg, nil
}

func (s *MemoryStore) ListRecent(_ context.Context, rctx domain.RequestContext, threadID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(rctx, threadID); err != nil {
		return nil, err
	}
	msgs := s.messages[threadID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) ListPage(_ context.Context, rctx domain.RequestContext, threadID string, limit int, after string) (domain.Page[domain.Message], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(rctx, threadID); err != nil {
		return domain.Page[domain.Message]{}, err
	}
	msgs := s.messages[threadID]
	if after != "" {
		afterID, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			return domain.Page[domain.Message]{}, fault.New(fault.Validation, "invalid message cursor")
		}
		idx := 0
		for i, m := range msgs {
			if m.ID > afterID {
				idx = i
				break
			}
			idx = i + 1
		}
		msgs = msgs[idx:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return pageOf(out, limit, func(m domain.Message) string {
		return strconv.FormatInt(m.ID, 10)
	}), nil
}

// owned busca el thread aplicando el predicado id+tenant; requiere lock tomado.
func (s *MemoryStore) owned(rctx domain.RequestContext, threadID string) (domain.Thread, error) {
	thread, ok := s.threads[threadID]
	if !ok || thread.TenantID != rctx.TenantID {
		return domain.Thread{}, fault.New(fault.NotFound, "thread not found")
	}
	return thread, nil
}
