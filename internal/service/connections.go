package service

import (
	"context"
	"fmt"
	"sync"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

// ConnectionRegistry holds the saved connection profiles keyed by
// nickname. It loads from the encrypted store on first use and rewrites
// the whole list on every change.
type ConnectionRegistry struct {
	store   domain.ConnectionStore
	emitter EventEmitter

	mu     sync.Mutex
	loaded bool
	conns  []domain.DbConnection
	// loadErr is set when the stored list could not be read. Changes then
	// stay in memory so the unreadable document is never overwritten.
	loadErr error
}

func NewConnectionRegistry(store domain.ConnectionStore, emitter EventEmitter) *ConnectionRegistry {
	return &ConnectionRegistry{store: store, emitter: emitter}
}

func (r *ConnectionRegistry) ensureLoadedLocked() {
	if r.loaded {
		return
	}
	r.loaded = true
	conns, err := r.store.LoadConnections()
	if err != nil {
		log := logging.WithComponent("connections")
		log.Error().Err(err).Msg("load connections; saving disabled until restart")
		r.loadErr = fmt.Errorf("%w: %v", ErrConnectionsUnreadable, err)
		conns = nil
	}
	r.conns = conns
}

// LoadErr reports why the stored profiles could not be read, or nil.
func (r *ConnectionRegistry) LoadErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()
	return r.loadErr
}

func (r *ConnectionRegistry) persistLocked() {
	log := logging.WithComponent("connections")
	if r.loadErr != nil {
		log.Error().Err(r.loadErr).Msg("not saving connections over an unreadable store")
		return
	}
	if err := r.store.SaveConnections(r.conns); err != nil {
		log.Error().Err(err).Msg("save connections")
	}
}

// List returns a copy of all profiles in insertion order.
func (r *ConnectionRegistry) List() []domain.DbConnection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()
	out := make([]domain.DbConnection, len(r.conns))
	copy(out, r.conns)
	return out
}

// Get looks a profile up by nickname.
func (r *ConnectionRegistry) Get(nickname string) (domain.DbConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()
	for _, c := range r.conns {
		if c.Nickname == nickname {
			return c, nil
		}
	}
	return domain.DbConnection{}, fmt.Errorf("%q: %w", nickname, ErrConnectionNotFound)
}

// Save inserts conn or replaces the profile with the same nickname.
func (r *ConnectionRegistry) Save(ctx context.Context, conn domain.DbConnection) {
	conn.Normalize()

	r.mu.Lock()
	r.ensureLoadedLocked()
	replaced := false
	for i := range r.conns {
		if r.conns[i].Nickname == conn.Nickname {
			r.conns[i] = conn
			replaced = true
			break
		}
	}
	if !replaced {
		r.conns = append(r.conns, conn)
	}
	r.persistLocked()
	r.mu.Unlock()

	r.emitter.Emit(ctx, "connection:saved", conn.Nickname)
}

// Delete removes the profile with nickname. It reports whether one existed.
func (r *ConnectionRegistry) Delete(ctx context.Context, nickname string) bool {
	r.mu.Lock()
	r.ensureLoadedLocked()
	idx := -1
	for i, c := range r.conns {
		if c.Nickname == nickname {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	r.conns = append(r.conns[:idx], r.conns[idx+1:]...)
	r.persistLocked()
	r.mu.Unlock()

	r.emitter.Emit(ctx, "connection:deleted", nickname)
	return true
}
