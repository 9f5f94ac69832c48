// Package batch orchestrates one scheduled aggregation run: every
// configured fetcher executes concurrently, each observation passes
// through the ingestion deduplicator, and the run reports per-source
// counts plus an overall pass/fail for the process exit code.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/fetchers"
	"github.com/yuruhealth/yuruhealth/internal/ingest"
	"github.com/yuruhealth/yuruhealth/internal/logging"
	"github.com/yuruhealth/yuruhealth/internal/metrics"
	"github.com/yuruhealth/yuruhealth/internal/models"
)

// SourceResult summarizes one provider's run.
type SourceResult struct {
	Source    models.Source
	Skipped   bool // provider not configured
	Persisted int
	Duplicate int
	Failed    int
	Err       error
}

// Summary is the outcome of a whole batch run.
type Summary struct {
	Results []SourceResult
	Started time.Time
	Took    time.Duration
}

// OK reports whether the run completed without irrecoverable errors.
// Unconfigured providers and duplicate skips do not fail a run;
// authentication failures, fetch errors, and storage failures do.
func (s Summary) OK() bool {
	for _, r := range s.Results {
		if r.Err != nil || r.Failed > 0 {
			return false
		}
	}
	return true
}

// Line renders the one-line per-source summary, e.g.
// "fetch done | oura:3 | switchbot:-- | weather:ERR".
func (s Summary) Line() string {
	parts := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		switch {
		case r.Err != nil:
			parts = append(parts, fmt.Sprintf("%s:ERR", r.Source))
		case r.Skipped:
			parts = append(parts, fmt.Sprintf("%s:--", r.Source))
		default:
			parts = append(parts, fmt.Sprintf("%s:%d", r.Source, r.Persisted))
		}
	}
	return "fetch done | " + strings.Join(parts, " | ")
}

// Runner executes one batch run.
type Runner struct {
	ingestor *ingest.Ingestor
	fetchers []fetchers.Fetcher
	logger   *logging.Logger
	userID   string
	lookback time.Duration
}

// NewRunner creates a Runner over the given fetchers.
func NewRunner(ingestor *ingest.Ingestor, fs []fetchers.Fetcher, userID string, lookback time.Duration, logger *logging.Logger) *Runner {
	return &Runner{
		ingestor: ingestor,
		fetchers: fs,
		logger:   logger,
		userID:   userID,
		lookback: lookback,
	}
}

// Run fetches all sources concurrently and ingests every observation.
// Fetch calls for distinct sources are independent network I/O; the
// dedup check-and-insert is serialized per partition inside the
// ingestor.
func (r *Runner) Run(ctx context.Context) Summary {
	started := time.Now()
	end := started
	start := end.Add(-r.lookback)

	results := make([]SourceResult, len(r.fetchers))
	var wg sync.WaitGroup
	for idx, f := range r.fetchers {
		wg.Add(1)
		go func(idx int, f fetchers.Fetcher) {
			defer wg.Done()
			results[idx] = r.runSource(ctx, f, start, end)
		}(idx, f)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Source < results[j].Source
	})

	summary := Summary{Results: results, Started: started, Took: time.Since(started)}
	r.logger.InfoContext(ctx, summary.Line(), "took", summary.Took)
	return summary
}

func (r *Runner) runSource(ctx context.Context, f fetchers.Fetcher, start, end time.Time) SourceResult {
	res := SourceResult{Source: f.Source()}
	timer := time.Now()

	observations, err := f.FetchData(ctx, r.userID, start, end)
	metrics.FetchDuration.WithLabelValues(string(f.Source())).Observe(time.Since(timer).Seconds())

	if err != nil {
		if errors.Is(err, fetchers.ErrNotConfigured) {
			res.Skipped = true
			r.logger.InfoContext(ctx, "source not configured, skipping", "source", f.Source())
			return res
		}
		metrics.FetchErrors.WithLabelValues(string(f.Source())).Inc()

		var authErr *fetchers.AuthError
		if errors.As(err, &authErr) {
			r.logger.ErrorContext(ctx, "source authentication failed", "source", f.Source(), "error", err)
		} else {
			r.logger.WarnContext(ctx, "source fetch failed", "source", f.Source(), "error", err)
		}
		res.Err = err
		return res
	}

	for _, obs := range observations {
		outcome := r.ingestor.Ingest(ctx, r.userID, f.Source(), obs.Category, obs.Payload)
		switch outcome.Status {
		case ingest.StatusPersisted:
			res.Persisted++
		case ingest.StatusSkipped:
			res.Duplicate++
		case ingest.StatusFailed:
			res.Failed++
			r.logger.ErrorContext(ctx, "ingest failed",
				"source", f.Source(), "category", obs.Category,
				"kind", outcome.Kind, "error", outcome.Err)
			if res.Err == nil {
				res.Err = outcome.Err
			}
		}
	}
	return res
}
