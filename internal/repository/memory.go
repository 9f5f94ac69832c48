package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/models"
)

// InMemoryRepository keeps records in process memory. It honors the
// same uniqueness guarantee as the Postgres schema, so the ingestion
// core behaves identically against it in tests and local development.
type InMemoryRepository struct {
	records []*models.RawRecord
	tokens  map[string]*models.OAuthToken
	mu      sync.RWMutex
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: []*models.RawRecord{},
		tokens:  make(map[string]*models.OAuthToken),
	}
}

// FindLatest returns the newest record in a partition.
func (r *InMemoryRepository) FindLatest(ctx context.Context, p models.Partition) (*models.RawRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.RawRecord
	for _, rec := range r.records {
		if rec.Partition() != p {
			continue
		}
		if latest == nil || rec.FetchedAt.After(latest.FetchedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// Insert appends a record, enforcing the uniqueness constraint on
// (user_id, fetched_at, source, category).
func (r *InMemoryRepository) Insert(ctx context.Context, rec *models.RawRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.Partition() == rec.Partition() && existing.FetchedAt.Equal(rec.FetchedAt) {
			return ErrDuplicate
		}
	}

	clone := *rec
	r.records = append(r.records, &clone)
	return nil
}

// Recent returns the latest records across all partitions.
func (r *InMemoryRepository) Recent(ctx context.Context, limit int) ([]*models.RawRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.RawRecord, len(r.records))
	copy(out, r.records)
	sort.Slice(out, func(i, j int) bool {
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FetchedSince returns records fetched at or after since, newest first.
func (r *InMemoryRepository) FetchedSince(ctx context.Context, since time.Time, source models.Source, category string) ([]*models.RawRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.RawRecord{}
	for _, rec := range r.records {
		if rec.FetchedAt.Before(since) {
			continue
		}
		if source != "" && rec.Source != source {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	return out, nil
}

// SaveToken upserts a provider credential blob.
func (r *InMemoryRepository) SaveToken(ctx context.Context, token *models.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *token
	clone.UpdatedAt = time.Now()
	r.tokens[token.UserID+"/"+token.Provider] = &clone
	return nil
}

// GetToken retrieves a provider credential blob.
func (r *InMemoryRepository) GetToken(ctx context.Context, userID, provider string) (*models.OAuthToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[userID+"/"+provider]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// DeleteToken removes a provider credential blob.
func (r *InMemoryRepository) DeleteToken(ctx context.Context, userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, userID+"/"+provider)
	return nil
}

// Close is a no-op for the in-memory repository.
func (r *InMemoryRepository) Close() error {
	return nil
}
