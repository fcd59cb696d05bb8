package notifier

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/notifykit/notifykit/pkg/binder"
	"github.com/notifykit/notifykit/pkg/notification"
)

// LogService serves the delivery log read projections: raw search,
// aggregate stats, per-channel breakdowns, recent failures, and the
// activity timeline.
type LogService struct {
	logs notification.LogStore
	log  *slog.Logger
}

func NewLogService(logs notification.LogStore, log *slog.Logger) *LogService {
	if log == nil {
		log = slog.Default()
	}
	return &LogService{logs: logs, log: log}
}

func (s *LogService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.search)
	r.Get("/stats", s.stats)
	r.Get("/stats/channels", s.statsByChannel)
	r.Get("/failed", s.failed)
	r.Get("/timeline", s.timeline)
	r.Get("/{id}", s.get)

	return r
}

type searchLogsRequest struct {
	NotificationID string `query:"notification_id"`
	Channel        string `query:"channel"`
	Status         string `query:"status"`
	From           string `query:"from"`
	To             string `query:"to"`
	Limit          int    `query:"limit"`
	Offset         int    `query:"offset"`
}

func (s *LogService) search(w http.ResponseWriter, r *http.Request) {
	var req searchLogsRequest
	if err := binder.Query()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	filter := notification.LogFilter{
		Channel: req.Channel,
		Status:  notification.LogStatus(req.Status),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}
	if req.NotificationID != "" {
		id, err := uuid.Parse(req.NotificationID)
		if err != nil {
			respondError(w, r, s.log, fmt.Errorf("%w: invalid notification_id: %v", binder.ErrFailedToParseQuery, err))
			return
		}
		filter.NotificationID = id
	}

	var err error
	if filter.Range, err = parseRange(req.From, req.To); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	entries, err := s.logs.Search(r.Context(), filter)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: entries,
		Meta: map[string]any{"count": len(entries), "offset": filter.Offset},
	})
}

type statsRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
}

func (s *LogService) stats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := binder.Query()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	within, err := parseRange(req.From, req.To)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	stats, err := s.logs.Stats(r.Context(), within)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, stats)
}

func (s *LogService) statsByChannel(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := binder.Query()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	within, err := parseRange(req.From, req.To)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	stats, err := s.logs.StatsByChannel(r.Context(), within)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, stats)
}

type failedLogsRequest struct {
	Limit int `query:"limit"`
}

func (s *LogService) failed(w http.ResponseWriter, r *http.Request) {
	var req failedLogsRequest
	if err := binder.Query()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	entries, err := s.logs.Failed(r.Context(), req.Limit)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: entries,
		Meta: map[string]any{"count": len(entries)},
	})
}

type timelineRequest struct {
	From     string `query:"from"`
	To       string `query:"to"`
	Interval string `query:"interval"`
}

func (s *LogService) timeline(w http.ResponseWriter, r *http.Request) {
	var req timelineRequest
	if err := binder.Query()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	within, err := parseRange(req.From, req.To)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	interval := time.Hour
	if req.Interval != "" {
		if interval, err = time.ParseDuration(req.Interval); err != nil || interval <= 0 {
			respondError(w, r, s.log, fmt.Errorf("%w: invalid interval %q", binder.ErrFailedToParseQuery, req.Interval))
			return
		}
	}

	buckets, err := s.logs.Timeline(r.Context(), within, interval)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: buckets,
		Meta: map[string]any{"interval": interval.String()},
	})
}

func (s *LogService) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, s.log, fmt.Errorf("%w: invalid id: %v", binder.ErrFailedToParsePath, err))
		return
	}

	entry, err := s.logs.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, entry)
}

func parseRange(from, to string) (notification.TimeRange, error) {
	var within notification.TimeRange
	var err error
	if within.From, err = parseTime(from); err != nil {
		return notification.TimeRange{}, err
	}
	if within.To, err = parseTime(to); err != nil {
		return notification.TimeRange{}, err
	}
	return within, nil
}
