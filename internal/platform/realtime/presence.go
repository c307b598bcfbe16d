package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Presence tracks which users currently hold a live gateway connection.
// A user has at most one active connection; a newer connection replaces an
// older one. Removal is keyed by connection id so that a late-arriving
// disconnect for a stale connection never clobbers a fresher one.
type Presence interface {
	MarkOnline(ctx context.Context, userID uuid.UUID, connID string) error
	MarkOffline(ctx context.Context, connID string) error
	Lookup(ctx context.Context, userID uuid.UUID) (connID string, online bool, err error)
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

// MemoryPresence is the single-instance implementation backed by two maps
// guarded by a RWMutex. For multi-instance deployments use RedisPresence so
// all instances share one view.
type MemoryPresence struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]string
	byConn map[string]uuid.UUID
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		byUser: make(map[uuid.UUID]string),
		byConn: make(map[string]uuid.UUID),
	}
}

func (p *MemoryPresence) MarkOnline(_ context.Context, userID uuid.UUID, connID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.byUser[userID]; ok {
		delete(p.byConn, old)
	}
	p.byUser[userID] = connID
	p.byConn[connID] = userID
	return nil
}

func (p *MemoryPresence) MarkOffline(_ context.Context, connID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.byConn[connID]
	if !ok {
		return nil
	}
	delete(p.byConn, connID)
	// Only clear the user entry if this connection is still the current one.
	if p.byUser[userID] == connID {
		delete(p.byUser, userID)
	}
	return nil
}

func (p *MemoryPresence) Lookup(_ context.Context, userID uuid.UUID) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.byUser[userID]
	return connID, ok, nil
}

func (p *MemoryPresence) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, ok, err := p.Lookup(ctx, userID)
	return ok, err
}
