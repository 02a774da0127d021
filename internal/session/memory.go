package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore хранит флаг "сервер прогрет" в памяти процесса
type MemoryStore struct {
	mu   sync.RWMutex
	warm map[uuid.UUID]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{warm: make(map[uuid.UUID]struct{})}
}

func (s *MemoryStore) IsWarm(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.warm[sessionID]
	return ok, nil
}

// MarkWarm идемпотентна: повторная запись ничего не меняет
func (s *MemoryStore) MarkWarm(ctx context.Context, sessionID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.warm[sessionID] = struct{}{}
	return nil
}

func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() {}
