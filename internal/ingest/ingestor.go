// Package ingest gates every incoming payload through the hash-guard
// duplicate check and derives the canonical observation timestamp. It
// is the sole write path into the raw data lake.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yuruhealth/yuruhealth/internal/database"
	"github.com/yuruhealth/yuruhealth/internal/dedup"
	"github.com/yuruhealth/yuruhealth/internal/logging"
	"github.com/yuruhealth/yuruhealth/internal/metrics"
	"github.com/yuruhealth/yuruhealth/internal/models"
	"github.com/yuruhealth/yuruhealth/internal/repository"
	"github.com/yuruhealth/yuruhealth/internal/timestamp"
)

// Clock abstracts wall-clock time for tests.
type Clock func() time.Time

// Ingestor is the ingestion deduplicator. It holds no record state of
// its own: the last-known digest is always read back from storage, and
// the check-then-act race is closed by a per-partition mutex plus the
// storage uniqueness constraint.
type Ingestor struct {
	repo   repository.Repository
	filter *dedup.Filter
	loc    *time.Location
	logger *logging.Logger
	clock  Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithClock overrides the wall-clock source.
func WithClock(clock Clock) Option {
	return func(i *Ingestor) { i.clock = clock }
}

// WithLogger overrides the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(i *Ingestor) { i.logger = logger }
}

// New creates an Ingestor writing through repo. All stored timestamps
// are expressed in loc, the single canonical zone for the store.
func New(repo repository.Repository, filter *dedup.Filter, loc *time.Location, opts ...Option) *Ingestor {
	ing := &Ingestor{
		repo:   repo,
		filter: filter,
		loc:    loc,
		logger: logging.Default(),
		clock:  time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest runs one payload through the dedup gate for its partition.
// The payload is persisted verbatim; only the duplicate comparison
// sees the volatility-filtered projection. Every call terminates in
// exactly one of Persisted, Skipped, or Failed.
func (i *Ingestor) Ingest(ctx context.Context, userID string, source models.Source, category string, payload any) Result {
	if userID == "" || category == "" || !source.Valid() {
		return failed(FailureInvalidPartition,
			fmt.Errorf("invalid partition (user=%q source=%q category=%q)", userID, source, category))
	}
	part := models.Partition{UserID: userID, Source: source, Category: category}

	normalized, err := dedup.Normalize(payload)
	if err != nil {
		metrics.RecordsTotal.WithLabelValues(string(source), string(StatusFailed)).Inc()
		return failed(FailureMalformedPayload, err)
	}

	digest, err := i.filter.Digest(normalized)
	if err != nil {
		metrics.RecordsTotal.WithLabelValues(string(source), string(StatusFailed)).Inc()
		return failed(FailureMalformedPayload, err)
	}

	// Serialize the read-compare-write sequence per partition. Distinct
	// partitions never contend.
	lock := i.partitionLock(part)
	lock.Lock()
	defer lock.Unlock()

	res := i.ingestLocked(ctx, part, normalized, digest)
	metrics.RecordsTotal.WithLabelValues(string(source), string(res.Status)).Inc()
	return res
}

func (i *Ingestor) ingestLocked(ctx context.Context, part models.Partition, payload any, digest string) Result {
	findCtx, cancel := database.QueryContext(ctx)
	latest, err := i.repo.FindLatest(findCtx, part)
	cancel()
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return failed(FailureStorageUnavailable, fmt.Errorf("find latest record: %w", err))
	}

	if latest != nil && latest.Digest == digest {
		i.logger.InfoContext(ctx, "skipped duplicate payload",
			"source", part.Source, "category", part.Category)
		return skipped()
	}

	now := i.clock().In(i.loc)
	candidates := timestamp.ForSource(part.Source)(asMap(payload))
	recordedAt, derived := timestamp.Derive(candidates, i.loc, now)
	if !derived {
		metrics.TimestampFallbacks.WithLabelValues(string(part.Source)).Inc()
		i.logger.DebugContext(ctx, "recorded_at fell back to wall clock",
			"source", part.Source, "category", part.Category)
	}

	rec := &models.RawRecord{
		ID:         uuid.New().String(),
		UserID:     part.UserID,
		Source:     part.Source,
		Category:   part.Category,
		Payload:    payload,
		Digest:     digest,
		RecordedAt: recordedAt,
		FetchedAt:  now,
	}

	insertCtx, cancel := database.WriteContext(ctx)
	err = i.repo.Insert(insertCtx, rec)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent caller won the insert race for the same
			// fetched_at slot; treat like a duplicate payload.
			i.logger.InfoContext(ctx, "skipped record after losing insert race",
				"source", part.Source, "category", part.Category)
			return skipped()
		}
		return failed(FailureStorageUnavailable, fmt.Errorf("insert record: %w", err))
	}

	i.logger.InfoContext(ctx, "persisted record",
		"source", part.Source, "category", part.Category, "recorded_at", recordedAt)
	return persisted(rec)
}

func (i *Ingestor) partitionLock(part models.Partition) *sync.Mutex {
	i.mu.Lock()
	defer i.mu.Unlock()

	key := part.Key()
	lock, ok := i.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		i.locks[key] = lock
	}
	return lock
}

func asMap(payload any) map[string]any {
	if m, ok := payload.(map[string]any); ok {
		return m
	}
	// Non-mapping payloads carry no timestamp candidates; derivation
	// falls back to wall-clock time.
	return map[string]any{}
}
