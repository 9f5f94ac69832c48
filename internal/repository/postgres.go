package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yuruhealth/yuruhealth/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// uniqueRawDataConstraint guards the (user_id, fetched_at, source,
// category) slot. Only a violation of this constraint is the benign
// concurrent-insert race; any other unique violation is a real error.
const uniqueRawDataConstraint = "unique_raw_data_v2"

// PostgresRepository implements Repository and TokenRepository using
// PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Connection pool configuration. The batch runs for seconds, not
	// hours, so the pool stays small.
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// FindLatest returns the newest record in a partition.
func (r *PostgresRepository) FindLatest(ctx context.Context, p models.Partition) (*models.RawRecord, error) {
	query := `
		SELECT id, user_id, source, category, payload, digest, recorded_at, fetched_at
		FROM raw_data_lake
		WHERE user_id = $1 AND source = $2 AND category = $3
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, p.UserID, string(p.Source), p.Category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest record: %w", err)
	}
	return rec, nil
}

// Insert appends a record to the raw data lake.
func (r *PostgresRepository) Insert(ctx context.Context, rec *models.RawRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO raw_data_lake (id, user_id, source, category, payload, digest, recorded_at, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.ID, rec.UserID, string(rec.Source), rec.Category,
		payload, rec.Digest, rec.RecordedAt, rec.FetchedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == uniqueRawDataConstraint {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Recent returns the latest records across all partitions.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]*models.RawRecord, error) {
	query := `
		SELECT id, user_id, source, category, payload, digest, recorded_at, fetched_at
		FROM raw_data_lake
		ORDER BY fetched_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FetchedSince returns records fetched at or after since, newest first.
func (r *PostgresRepository) FetchedSince(ctx context.Context, since time.Time, source models.Source, category string) ([]*models.RawRecord, error) {
	query := `
		SELECT id, user_id, source, category, payload, digest, recorded_at, fetched_at
		FROM raw_data_lake
		WHERE fetched_at >= $1
	`
	args := []any{since}
	argPos := 2

	if source != "" {
		query += fmt.Sprintf(" AND source = $%d", argPos)
		args = append(args, string(source))
		argPos++
	}
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, category)
		argPos++
	}
	query += " ORDER BY fetched_at DESC LIMIT 10000"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// SaveToken upserts a provider credential blob.
func (r *PostgresRepository) SaveToken(ctx context.Context, token *models.OAuthToken) error {
	data, err := json.Marshal(token.TokenData)
	if err != nil {
		return fmt.Errorf("failed to encode token data: %w", err)
	}

	query := `
		INSERT INTO oauth_tokens (user_id, provider, token_data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, provider)
		DO UPDATE SET token_data = EXCLUDED.token_data, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, token.UserID, token.Provider, data); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken retrieves a provider credential blob.
func (r *PostgresRepository) GetToken(ctx context.Context, userID, provider string) (*models.OAuthToken, error) {
	query := `
		SELECT user_id, provider, token_data, updated_at
		FROM oauth_tokens
		WHERE user_id = $1 AND provider = $2
	`

	token := &models.OAuthToken{}
	var data []byte
	err := r.pool.QueryRow(ctx, query, userID, provider).Scan(
		&token.UserID, &token.Provider, &data, &token.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if err := json.Unmarshal(data, &token.TokenData); err != nil {
		return nil, fmt.Errorf("failed to decode token data: %w", err)
	}
	return token, nil
}

// DeleteToken removes a provider credential blob.
func (r *PostgresRepository) DeleteToken(ctx context.Context, userID, provider string) error {
	query := `DELETE FROM oauth_tokens WHERE user_id = $1 AND provider = $2`
	if _, err := r.pool.Exec(ctx, query, userID, provider); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.RawRecord, error) {
	rec := &models.RawRecord{}
	var source string
	var payload []byte

	if err := row.Scan(
		&rec.ID, &rec.UserID, &source, &rec.Category,
		&payload, &rec.Digest, &rec.RecordedAt, &rec.FetchedAt,
	); err != nil {
		return nil, err
	}

	rec.Source = models.Source(source)
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]*models.RawRecord, error) {
	records := []*models.RawRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}
