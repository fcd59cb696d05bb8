package notification

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and single-process
// deployments. All operations are safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Notification
}

// NewMemoryStore creates an empty in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[uuid.UUID]*Notification)}
}

// Create implements Store. Missing ID, priority, status, and
// timestamps are filled in.
func (s *MemoryStore) Create(ctx context.Context, n *Notification) error {
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
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = n.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[n.ID] = cloneNotification(n)
	return nil
}

// FindByID implements Store.
func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneNotification(n), nil
}

// UpdateStatus implements Store. Same-status updates are no-ops except
// on a cancelled record, which accepts no further writes; forbidden
// transitions return ErrInvalidTransition.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n.Status == status && status != StatusCancelled {
		return nil
	}
	if err := n.Status.Transition(status); err != nil {
		return err
	}
	n.Status = status
	n.UpdatedAt = time.Now()
	return nil
}

// SetJobIDs implements Store.
func (s *MemoryStore) SetJobIDs(ctx context.Context, id uuid.UUID, jobIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n.JobIDs = slices.Clone(jobIDs)
	n.UpdatedAt = time.Now()
	return nil
}

// List implements Store, returning matches newest first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.byID {
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && n.Priority != filter.Priority {
			continue
		}
		if filter.Channel != "" && !slices.Contains(n.Channels, filter.Channel) {
			continue
		}
		if !filter.From.IsZero() && n.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && n.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, *cloneNotification(n))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Offset, filter.Limit), nil
}

func cloneNotification(n *Notification) *Notification {
	c := *n
	c.Channels = slices.Clone(n.Channels)
	c.JobIDs = slices.Clone(n.JobIDs)
	c.Data = maps.Clone(n.Data)
	c.Metadata = maps.Clone(n.Metadata)
	if n.Recipient.Extra != nil {
		c.Recipient.Extra = maps.Clone(n.Recipient.Extra)
	}
	return &c
}

// MemoryLogStore is an in-memory LogStore. The log is an append-only
// slice; read projections scan it under a read lock.
type MemoryLogStore struct {
	mu   sync.RWMutex
	logs []DeliveryLog
	byID map[uuid.UUID]int
}

// NewMemoryLogStore creates an empty in-memory delivery log store.
func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{byID: make(map[uuid.UUID]int)}
}

// Append implements LogStore.
func (s *MemoryLogStore) Append(ctx context.Context, log *DeliveryLog) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[log.ID] = len(s.logs)
	s.logs = append(s.logs, *cloneLog(log))
	return nil
}

// FindByID implements LogStore.
func (s *MemoryLogStore) FindByID(ctx context.Context, id uuid.UUID) (*DeliveryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	return cloneLog(&s.logs[i]), nil
}

// FindByNotification implements LogStore.
func (s *MemoryLogStore) FindByNotification(ctx context.Context, notificationID uuid.UUID) ([]DeliveryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeliveryLog
	for i := range s.logs {
		if s.logs[i].NotificationID == notificationID {
			out = append(out, *cloneLog(&s.logs[i]))
		}
	}
	return out, nil
}

// Search implements LogStore.
func (s *MemoryLogStore) Search(ctx context.Context, filter LogFilter) ([]DeliveryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeliveryLog
	for i := range s.logs {
		log := &s.logs[i]
		if filter.NotificationID != uuid.Nil && log.NotificationID != filter.NotificationID {
			continue
		}
		if filter.Channel != "" && log.Channel != filter.Channel {
			continue
		}
		if filter.Status != "" && log.Status != filter.Status {
			continue
		}
		if !filter.Range.Contains(log.CreatedAt) {
			continue
		}
		out = append(out, *cloneLog(log))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filter.Offset, filter.Limit), nil
}

// Stats implements LogStore.
func (s *MemoryLogStore) Stats(ctx context.Context, within TimeRange) (LogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats LogStats
	var durationSum time.Duration
	var durationCount int
	for i := range s.logs {
		log := &s.logs[i]
		if !within.Contains(log.CreatedAt) {
			continue
		}
		stats.Total++
		switch log.Status {
		case LogSent:
			stats.Sent++
		case LogFailed:
			stats.Failed++
		case LogProcessing:
			stats.Processing++
		}
		if log.Duration > 0 {
			durationSum += log.Duration
			durationCount++
		}
	}
	stats.Pending = stats.Total - stats.Sent - stats.Failed - stats.Processing
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Sent) / float64(stats.Total) * 100
	}
	if durationCount > 0 {
		stats.AvgDuration = durationSum / time.Duration(durationCount)
	}
	return stats, nil
}

// StatsByChannel implements LogStore, returning channels in sorted order.
func (s *MemoryLogStore) StatsByChannel(ctx context.Context, within TimeRange) ([]ChannelStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		stats         ChannelStats
		durationSum   time.Duration
		durationCount int
	}
	channels := make(map[string]*acc)
	for i := range s.logs {
		log := &s.logs[i]
		if !within.Contains(log.CreatedAt) {
			continue
		}
		a, ok := channels[log.Channel]
		if !ok {
			a = &acc{stats: ChannelStats{Channel: log.Channel}}
			channels[log.Channel] = a
		}
		a.stats.Total++
		switch log.Status {
		case LogSent:
			a.stats.Sent++
		case LogFailed:
			a.stats.Failed++
		case LogProcessing:
			a.stats.Processing++
		}
		if log.Duration > 0 {
			a.durationSum += log.Duration
			a.durationCount++
		}
	}

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ChannelStats, 0, len(names))
	for _, name := range names {
		a := channels[name]
		if a.durationCount > 0 {
			a.stats.AvgDuration = a.durationSum / time.Duration(a.durationCount)
		}
		out = append(out, a.stats)
	}
	return out, nil
}

// Failed implements LogStore.
func (s *MemoryLogStore) Failed(ctx context.Context, limit int) ([]DeliveryLog, error) {
	return s.Search(ctx, LogFilter{Status: LogFailed, Limit: limit})
}

// Timeline implements LogStore. Entries are truncated to interval
// boundaries and counted per (bucket, status), oldest bucket first.
func (s *MemoryLogStore) Timeline(ctx context.Context, within TimeRange, interval time.Duration) ([]TimelineBucket, error) {
	if interval <= 0 {
		interval = time.Hour
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		time   time.Time
		status LogStatus
	}
	counts := make(map[key]int)
	for i := range s.logs {
		log := &s.logs[i]
		if !within.Contains(log.CreatedAt) {
			continue
		}
		counts[key{time: log.CreatedAt.Truncate(interval), status: log.Status}]++
	}

	out := make([]TimelineBucket, 0, len(counts))
	for k, count := range counts {
		out = append(out, TimelineBucket{Time: k.time, Status: k.status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func cloneLog(log *DeliveryLog) *DeliveryLog {
	c := *log
	c.Response = maps.Clone(log.Response)
	c.Metadata = maps.Clone(log.Metadata)
	return &c
}

// paginate applies offset and limit; limit defaults to 50.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
