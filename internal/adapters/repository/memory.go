package repository

import (
	"context"
	"sync"

	"github.com/okian/pugil/internal/domain/model"
)

// Memory is an in-process Store for setups that do not need the score
// history to survive a restart, and for tests.
type Memory struct {
	settings

	mu  sync.RWMutex
	rec model.ScoreRecord
	set bool
}

// NewMemory constructs an in-memory store with configuration options.
func NewMemory(opts ...Option) *Memory {
	return &Memory{settings: newSettings(opts...)}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, rec model.ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec.Clone()
	m.rec.Left = clipHistory(m.rec.Left)
	m.rec.Right = clipHistory(m.rec.Right)
	m.set = true
	return nil
}

// Load implements Store.
func (m *Memory) Load(_ context.Context) (model.ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return model.ScoreRecord{}, ErrNotFound
	}
	if m.now().Sub(m.rec.SavedAt) > m.ttl {
		return model.ScoreRecord{}, ErrExpired
	}
	out := m.rec.Clone()
	out.Left = clipHistory(out.Left)
	out.Right = clipHistory(out.Right)
	return out, nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = model.ScoreRecord{}
	m.set = false
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
