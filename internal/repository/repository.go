// Package repository persists raw records and provider tokens. The
// ingestion core only depends on the Repository interface; Postgres
// backs production and the in-memory implementation backs tests and
// local development.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/models"
)

var (
	// ErrNotFound means the partition has no stored records yet.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means an insert hit the partition uniqueness
	// constraint. Under concurrent ingestion this is a benign race
	// outcome, not a failure.
	ErrDuplicate = errors.New("duplicate record")

	// ErrTokenNotFound means no credential is stored for the
	// (user, provider) pair.
	ErrTokenNotFound = errors.New("token not found")
)

// Repository defines the persistence operations the ingestion core and
// the read side require.
type Repository interface {
	// FindLatest returns the most recent record for a partition,
	// ordered by fetched_at descending. Returns ErrNotFound when the
	// partition is empty.
	FindLatest(ctx context.Context, p models.Partition) (*models.RawRecord, error)

	// Insert appends a record. Returns ErrDuplicate when the
	// uniqueness constraint on (user_id, fetched_at, source, category)
	// rejects the row.
	Insert(ctx context.Context, rec *models.RawRecord) error

	// Recent returns the latest records across all partitions.
	Recent(ctx context.Context, limit int) ([]*models.RawRecord, error)

	// FetchedSince returns records with fetched_at >= since, newest
	// first, optionally filtered by source and category ("" matches
	// all).
	FetchedSince(ctx context.Context, since time.Time, source models.Source, category string) ([]*models.RawRecord, error)

	// Utility
	Close() error
}

// TokenRepository stores opaque provider credential blobs.
type TokenRepository interface {
	SaveToken(ctx context.Context, token *models.OAuthToken) error
	GetToken(ctx context.Context, userID, provider string) (*models.OAuthToken, error)
	DeleteToken(ctx context.Context, userID, provider string) error
}
