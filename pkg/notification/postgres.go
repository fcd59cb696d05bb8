package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a notifications table (see the
// goose migrations under migrations/). Status updates enforce the
// state machine inside the UPDATE predicate so concurrent workers
// cannot race a cancelled or otherwise frozen record past it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed notification store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

const notificationColumns = `id, template_name, recipient, data, channels, priority,
	status, scheduled_for, metadata, job_ids, created_at, updated_at`

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, n *Notification) error {
	if len(n.Channels) == 0 {
		return ErrNoChannels
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPriority, n.Priority)
	}
	if n.Status == "" {
		n.Status = StatusPending
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, n.Status)
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.UpdatedAt = n.CreatedAt

	recipient, err := json.Marshal(n.Recipient)
	if err != nil {
		return fmt.Errorf("failed to marshal recipient: %w", err)
	}
	data, err := marshalNullableMap(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	metadata, err := marshalNullableMap(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO notifications (id, template_name, recipient, data, channels,
			priority, status, scheduled_for, metadata, job_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.TemplateName, recipient, data, n.Channels, string(n.Priority),
		string(n.Status), n.ScheduledFor, metadata, jobIDStrings(n.JobIDs),
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// FindByID implements Store.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// UpdateStatus implements Store. The allowed source states for the
// target status are folded into the WHERE clause; a zero-row update is
// classified as not-found or invalid-transition afterwards.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, string(status), allowedSources(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = s.pool.QueryRow(ctx, `SELECT status FROM notifications WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up notification: %w", err)
	}
	if Status(current) == status && status != StatusCancelled {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
}

// SetJobIDs implements Store.
func (s *PostgresStore) SetJobIDs(ctx context.Context, id uuid.UUID, jobIDs []uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET job_ids = $2, updated_at = now() WHERE id = $1`,
		id, jobIDStrings(jobIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to set job ids: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List implements Store, returning matches newest first.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Notification, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Priority != "" {
		where = append(where, "priority = "+arg(string(filter.Priority)))
	}
	if filter.Channel != "" {
		where = append(where, arg(filter.Channel)+" = ANY(channels)")
	}
	if !filter.From.IsZero() {
		where = append(where, "created_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "created_at <= "+arg(filter.To))
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications`
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
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// allowedSources returns the states an UPDATE to target may start
// from, including target itself so same-status writes stay idempotent.
// Cancelled never appears as a source: a frozen record accepts no
// write, not even a repeated cancel.
func allowedSources(target Status) []string {
	var sources []string
	if target != StatusCancelled {
		sources = append(sources, string(target))
	}
	for from, allowed := range transitions {
		for _, to := range allowed {
			if to == target {
				sources = append(sources, string(from))
				break
			}
		}
	}
	return sources
}

func jobIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n         Notification
		recipient []byte
		data      []byte
		metadata  []byte
		jobIDs    []string
		priority  string
		status    string
	)

	err := row.Scan(&n.ID, &n.TemplateName, &recipient, &data, &n.Channels,
		&priority, &status, &n.ScheduledFor, &metadata, &jobIDs,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	n.Priority = Priority(priority)
	n.Status = Status(status)

	if len(recipient) > 0 {
		if err := json.Unmarshal(recipient, &n.Recipient); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipient: %w", err)
		}
	}
	if err := unmarshalNullableMap(data, &n.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if err := unmarshalNullableMap(metadata, &n.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	for _, raw := range jobIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse job id: %w", err)
		}
		n.JobIDs = append(n.JobIDs, id)
	}
	return &n, nil
}

func marshalNullableMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalNullableMap(raw []byte, dst *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
