// Package worker defines the persistence workers that drain score
// snapshots off the queue and write them to the store.
package worker

import (
	"github.com/okian/pugil/pkg/logger"
)

// Option applies a configuration option to the StoreWorker.
type Option func(*StoreWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *StoreWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *StoreWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
