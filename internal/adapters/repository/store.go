// Package repository defines the score history store interface and errors.
package repository

import (
	"context"

	"github.com/okian/pugil/internal/domain/model"
)

// Store provides durable access to the persisted score record. One record
// exists per store; each save replaces the previous one.
type Store interface {
	// Save writes the record, replacing any previous one.
	Save(ctx context.Context, rec model.ScoreRecord) error

	// Load returns the persisted record. It returns ErrNotFound when
	// nothing has been saved and ErrExpired when the record is older
	// than the retention window.
	Load(ctx context.Context) (model.ScoreRecord, error)

	// Clear removes the persisted record.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// clipHistory keeps the newest entries within the history cap. Records
// written by older builds may carry longer histories.
func clipHistory(h []float64) []float64 {
	if len(h) > model.MaxHistory {
		return h[len(h)-model.MaxHistory:]
	}
	return h
}
