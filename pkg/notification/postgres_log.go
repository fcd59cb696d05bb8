package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLogStore implements LogStore on a delivery_logs table. The
// aggregates reuse Postgres grouping (FILTER clauses, date_bin) rather
// than scanning rows into the process.
type PostgresLogStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLogStore creates a Postgres-backed delivery log store.
func NewPostgresLogStore(pool *pgxpool.Pool) (*PostgresLogStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &PostgresLogStore{pool: pool}, nil
}

const logColumns = `id, notification_id, channel, status, response,
	coalesce(error, ''), attempt, duration_ms, metadata, created_at`

// Append implements LogStore.
func (s *PostgresLogStore) Append(ctx context.Context, log *DeliveryLog) error {
	if log.NotificationID == uuid.Nil {
		return fmt.Errorf("%w: notification id is required", ErrInvalidLog)
	}
	if !log.Status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, log.Status)
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.Attempt < 1 {
		log.Attempt = 1
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	response, err := marshalNullableMap(log.Response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	metadata, err := marshalNullableMap(log.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO delivery_logs (id, notification_id, channel, status, response,
			error, attempt, duration_ms, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, log.NotificationID, log.Channel, string(log.Status), response,
		log.Error, log.Attempt, log.Duration.Milliseconds(), metadata, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append delivery log: %w", err)
	}
	return nil
}

// FindByID implements LogStore.
func (s *PostgresLogStore) FindByID(ctx context.Context, id uuid.UUID) (*DeliveryLog, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM delivery_logs WHERE id = $1`, id)

	log, err := scanLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery log: %w", err)
	}
	return log, nil
}

// FindByNotification implements LogStore.
func (s *PostgresLogStore) FindByNotification(ctx context.Context, notificationID uuid.UUID) ([]DeliveryLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+logColumns+` FROM delivery_logs
		WHERE notification_id = $1
		ORDER BY created_at ASC`,
		notificationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

// Search implements LogStore.
func (s *PostgresLogStore) Search(ctx context.Context, filter LogFilter) ([]DeliveryLog, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.NotificationID != uuid.Nil {
		where = append(where, "notification_id = "+arg(filter.NotificationID))
	}
	if filter.Channel != "" {
		where = append(where, "channel = "+arg(filter.Channel))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if !filter.Range.From.IsZero() {
		where = append(where, "created_at >= "+arg(filter.Range.From))
	}
	if !filter.Range.To.IsZero() {
		where = append(where, "created_at <= "+arg(filter.Range.To))
	}

	query := `SELECT ` + logColumns + ` FROM delivery_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search delivery logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

// Stats implements LogStore.
func (s *PostgresLogStore) Stats(ctx context.Context, within TimeRange) (LogStats, error) {
	where, args := rangeClause(within)

	var stats LogStats
	var avgMs *float64
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'sent'),
			count(*) FILTER (WHERE status = 'failed'),
			count(*) FILTER (WHERE status = 'processing'),
			avg(duration_ms) FILTER (WHERE duration_ms > 0)
		FROM delivery_logs`+where,
		args...,
	).Scan(&stats.Total, &stats.Sent, &stats.Failed, &stats.Processing, &avgMs)
	if err != nil {
		return LogStats{}, fmt.Errorf("failed to collect delivery stats: %w", err)
	}

	stats.Pending = stats.Total - stats.Sent - stats.Failed - stats.Processing
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Sent) / float64(stats.Total) * 100
	}
	if avgMs != nil {
		stats.AvgDuration = time.Duration(*avgMs * float64(time.Millisecond))
	}
	return stats, nil
}

// StatsByChannel implements LogStore.
func (s *PostgresLogStore) StatsByChannel(ctx context.Context, within TimeRange) ([]ChannelStats, error) {
	where, args := rangeClause(within)

	rows, err := s.pool.Query(ctx, `
		SELECT
			channel,
			count(*),
			count(*) FILTER (WHERE status = 'sent'),
			count(*) FILTER (WHERE status = 'failed'),
			count(*) FILTER (WHERE status = 'processing'),
			avg(duration_ms) FILTER (WHERE duration_ms > 0)
		FROM delivery_logs`+where+`
		GROUP BY channel
		ORDER BY channel ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to collect channel stats: %w", err)
	}
	defer rows.Close()

	var out []ChannelStats
	for rows.Next() {
		var cs ChannelStats
		var avgMs *float64
		if err := rows.Scan(&cs.Channel, &cs.Total, &cs.Sent, &cs.Failed, &cs.Processing, &avgMs); err != nil {
			return nil, fmt.Errorf("failed to scan channel stats: %w", err)
		}
		if avgMs != nil {
			cs.AvgDuration = time.Duration(*avgMs * float64(time.Millisecond))
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// Failed implements LogStore.
func (s *PostgresLogStore) Failed(ctx context.Context, limit int) ([]DeliveryLog, error) {
	return s.Search(ctx, LogFilter{Status: LogFailed, Limit: limit})
}

// Timeline implements LogStore.
func (s *PostgresLogStore) Timeline(ctx context.Context, within TimeRange, interval time.Duration) ([]TimelineBucket, error) {
	if interval <= 0 {
		interval = time.Hour
	}
	where, args := rangeClause(within)
	args = append(args, interval)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT date_bin($%d, created_at, 'epoch'::timestamptz) AS bucket, status, count(*)
		FROM delivery_logs%s
		GROUP BY bucket, status
		ORDER BY bucket ASC, status ASC`,
		len(args), where),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to collect timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelineBucket
	for rows.Next() {
		var b TimelineBucket
		var status string
		if err := rows.Scan(&b.Time, &status, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan timeline bucket: %w", err)
		}
		b.Status = LogStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

// rangeClause builds the optional WHERE clause for a time range.
func rangeClause(within TimeRange) (string, []any) {
	var (
		where []string
		args  []any
	)
	if !within.From.IsZero() {
		args = append(args, within.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !within.To.IsZero() {
		args = append(args, within.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func collectLogs(rows pgx.Rows) ([]DeliveryLog, error) {
	var out []DeliveryLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}
		out = append(out, *log)
	}
	return out, rows.Err()
}

func scanLog(row pgx.Row) (*DeliveryLog, error) {
	var (
		log        DeliveryLog
		status     string
		response   []byte
		metadata   []byte
		durationMs int64
	)

	err := row.Scan(&log.ID, &log.NotificationID, &log.Channel, &status, &response,
		&log.Error, &log.Attempt, &durationMs, &metadata, &log.CreatedAt)
	if err != nil {
		return nil, err
	}

	log.Status = LogStatus(status)
	log.Duration = time.Duration(durationMs) * time.Millisecond
	if err := unmarshalNullableMap(response, &log.Response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if err := unmarshalNullableMap(metadata, &log.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &log, nil
}
