package database

import (
	"context"
	"time"
)

// Timeouts holds the per-class deadlines for storage operations. A
// stalled backend fails the batch run instead of hanging it.
type Timeouts struct {
	// Query bounds read queries.
	Query time.Duration

	// Write bounds single-record writes.
	Write time.Duration

	// Bulk bounds bulk reads and migrations.
	Bulk time.Duration
}

// DefaultTimeouts returns the deadlines used when no configuration
// overrides them.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Query: 5 * time.Second,
		Write: 10 * time.Second,
		Bulk:  30 * time.Second,
	}
}

var current = DefaultTimeouts()

// SetTimeouts overrides the active deadlines. Zero fields keep their
// current value. Called once at startup before any repository use.
func SetTimeouts(t Timeouts) {
	if t.Query > 0 {
		current.Query = t.Query
	}
	if t.Write > 0 {
		current.Write = t.Write
	}
	if t.Bulk > 0 {
		current.Bulk = t.Bulk
	}
}

// QueryContext creates a context with the query deadline.
// Use this for SELECT queries and read operations.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, current.Query)
}

// WriteContext creates a context with the write deadline.
// Use this for INSERT, UPDATE, DELETE operations.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, current.Write)
}

// BulkContext creates a context with the bulk deadline.
// Use this for bulk reads and migrations.
func BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, current.Bulk)
}
