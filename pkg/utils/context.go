package utils

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single backend call
const DefaultTimeout = 10 * time.Second

// WithTimeout creates context with default timeout
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultTimeout)
}

// WithLongTimeout creates context with longer timeout (initial loads of big threads)
func WithLongTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 30*time.Second)
}
