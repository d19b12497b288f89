package stream

import (
	"github.com/okian/pugil/pkg/logger"
)

// Option configures a Handler.
type Option func(*Handler)

// WithReadLimit caps the size of one inbound websocket message.
func WithReadLimit(limit int64) Option {
	return func(h *Handler) {
		if limit > 0 {
			h.readLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}
