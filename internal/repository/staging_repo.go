package repository

import (
	"context"
	"fmt"
	"time"

	"sites-ingestion-service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StagingRepository persists accepted telemetry messages and exposes the
// read/aggregate operations used for monitoring and retention.
type StagingRepository interface {
	// Insert stages a message. The row is always created PENDING with
	// received_at set by the database, and the new id is returned.
	Insert(ctx context.Context, msg *model.StagedMessage) (int64, error)
	// CountByStatus counts staged rows in the given status.
	CountByStatus(ctx context.Context, status model.Status) (int64, error)
	// GroupStatistics aggregates rows by (site_id, data_type, status).
	// An empty siteID returns all sites.
	GroupStatistics(ctx context.Context, siteID string) ([]model.StagingStat, error)
	// Recent returns the most recently received rows, newest first.
	Recent(ctx context.Context, limit int) ([]model.StagedMessageSummary, error)
	// Cleanup deletes SENT rows processed more than retentionDays ago and
	// returns the number deleted. PENDING and FAILED rows are never touched;
	// a stuck row is a downstream defect an operator needs to see.
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
	// OldestPending returns the received_at of the oldest PENDING row, or
	// nil when the backlog is empty.
	OldestPending(ctx context.Context) (*time.Time, error)
	// NewestMessage returns the received_at of the newest row of any status.
	NewestMessage(ctx context.Context) (*time.Time, error)
	// HealthCheck reports whether the backing store answers a round-trip.
	HealthCheck(ctx context.Context) bool
}

type stagingRepo struct {
	pool *pgxpool.Pool
}

// NewStagingRepo creates a new StagingRepository.
func NewStagingRepo(pool *pgxpool.Pool) StagingRepository {
	return &stagingRepo{pool: pool}
}

func (r *stagingRepo) Insert(ctx context.Context, msg *model.StagedMessage) (int64, error) {
	const q = `
        INSERT INTO staged_messages (site_id, data_type, payload, message_timestamp, mqtt_topic, host, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int64
	err := r.pool.QueryRow(ctx, q,
		msg.SiteID,
		msg.DataType,
		msg.Payload,
		msg.MessageTimestamp,
		msg.MQTTTopic,
		msg.Host,
		model.StatusPending,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting staged message for site %s: %w", msg.SiteID, err)
	}
	return id, nil
}

func (r *stagingRepo) CountByStatus(ctx context.Context, status model.Status) (int64, error) {
	const q = `SELECT COUNT(*) FROM staged_messages WHERE status = $1`
	var count int64
	if err := r.pool.QueryRow(ctx, q, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", status, err)
	}
	return count, nil
}

func (r *stagingRepo) GroupStatistics(ctx context.Context, siteID string) ([]model.StagingStat, error) {
	const q = `
        SELECT site_id, data_type, status, COUNT(*)
        FROM staged_messages
        WHERE ($1 = '' OR site_id = $1)
        GROUP BY site_id, data_type, status
        ORDER BY site_id, data_type, status
    `
	rows, err := r.pool.Query(ctx, q, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying staging statistics: %w", err)
	}
	defer rows.Close()

	var stats []model.StagingStat
	for rows.Next() {
		var s model.StagingStat
		if err := rows.Scan(&s.SiteID, &s.DataType, &s.Status, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning staging statistic: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading staging statistics: %w", err)
	}
	return stats, nil
}

func (r *stagingRepo) Recent(ctx context.Context, limit int) ([]model.StagedMessageSummary, error) {
	const q = `
        SELECT id, site_id, data_type, status, received_at, message_timestamp
        FROM staged_messages
        ORDER BY received_at DESC
        LIMIT $1
    `
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent staged messages: %w", err)
	}
	defer rows.Close()

	var summaries []model.StagedMessageSummary
	for rows.Next() {
		var s model.StagedMessageSummary
		if err := rows.Scan(&s.ID, &s.SiteID, &s.DataType, &s.Status, &s.ReceivedAt, &s.MessageTimestamp); err != nil {
			return nil, fmt.Errorf("scanning staged message summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading recent staged messages: %w", err)
	}
	return summaries, nil
}

func (r *stagingRepo) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	const q = `
        DELETE FROM staged_messages
        WHERE status = $1
          AND processed_at IS NOT NULL
          AND processed_at < now() - ($2 * interval '1 day')
    `
	tag, err := r.pool.Exec(ctx, q, model.StatusSent, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sent rows older than %d days: %w", retentionDays, err)
	}
	return tag.RowsAffected(), nil
}

func (r *stagingRepo) OldestPending(ctx context.Context) (*time.Time, error) {
	const q = `
        SELECT received_at FROM staged_messages
        WHERE status = $1
        ORDER BY received_at ASC
        LIMIT 1
    `
	var ts time.Time
	err := r.pool.QueryRow(ctx, q, model.StatusPending).Scan(&ts)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying oldest pending row: %w", err)
	}
	return &ts, nil
}

func (r *stagingRepo) NewestMessage(ctx context.Context) (*time.Time, error) {
	const q = `SELECT MAX(received_at) FROM staged_messages`
	var ts *time.Time
	if err := r.pool.QueryRow(ctx, q).Scan(&ts); err != nil {
		return nil, fmt.Errorf("querying newest staged message: %w", err)
	}
	return ts, nil
}

func (r *stagingRepo) HealthCheck(ctx context.Context) bool {
	return r.pool.Ping(ctx) == nil
}
