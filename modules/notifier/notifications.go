package notifier

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/notifykit/notifykit/pkg/binder"
	"github.com/notifykit/notifykit/pkg/dispatch"
	"github.com/notifykit/notifykit/pkg/notification"
)

// NotificationService exposes intake and read operations for
// notifications over HTTP. All business rules live in the orchestrator
// and stores; handlers only translate between HTTP and domain calls.
type NotificationService struct {
	orch  *dispatch.Orchestrator
	store notification.Store
	logs  notification.LogStore
	log   *slog.Logger
}

func NewNotificationService(orch *dispatch.Orchestrator, store notification.Store, logs notification.LogStore, log *slog.Logger) *NotificationService {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationService{orch: orch, store: store, logs: logs, log: log}
}

func (s *NotificationService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.send)
	r.Post("/validate", s.validate)
	r.Get("/", s.list)
	r.Get("/{id}", s.get)
	r.Post("/{id}/cancel", s.cancel)
	r.Get("/{id}/logs", s.deliveryLogs)

	return r
}

func (s *NotificationService) send(w http.ResponseWriter, r *http.Request) {
	var req dispatch.SendRequest
	if err := binder.JSON()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	receipt, err := s.orch.Send(r.Context(), req)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusAccepted, receipt)
}

func (s *NotificationService) validate(w http.ResponseWriter, r *http.Request) {
	var req dispatch.SendRequest
	if err := binder.JSON()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, s.orch.Validate(r.Context(), req))
}

// listNotificationsRequest mirrors notification.Filter with the string
// representations a query string can carry.
type listNotificationsRequest struct {
	Status   string `query:"status"`
	Channel  string `query:"channel"`
	Priority string `query:"priority"`
	From     string `query:"from"`
	To       string `query:"to"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

func (s *NotificationService) list(w http.ResponseWriter, r *http.Request) {
	var req listNotificationsRequest
	if err := binder.Query()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	filter := notification.Filter{
		Status:   notification.Status(req.Status),
		Channel:  req.Channel,
		Priority: notification.Priority(req.Priority),
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Status != "" && !filter.Status.Valid() {
		respondError(w, r, s.log, fmt.Errorf("%w: unknown status %q", notification.ErrInvalidStatus, req.Status))
		return
	}
	if req.Priority != "" && !filter.Priority.Valid() {
		respondError(w, r, s.log, fmt.Errorf("%w: unknown priority %q", notification.ErrInvalidPriority, req.Priority))
		return
	}

	var err error
	if filter.From, err = parseTime(req.From); err != nil {
		respondError(w, r, s.log, err)
		return
	}
	if filter.To, err = parseTime(req.To); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	items, err := s.store.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: items,
		Meta: map[string]any{"count": len(items), "offset": filter.Offset},
	})
}

func (s *NotificationService) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	n, err := s.store.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, n)
}

func (s *NotificationService) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	if err := s.orch.Cancel(r.Context(), id); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	n, err := s.store.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, n)
}

func (s *NotificationService) deliveryLogs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	// 404 for unknown notifications rather than an empty log list.
	if _, err := s.store.FindByID(r.Context(), id); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	entries, err := s.logs.FindByNotification(r.Context(), id)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: entries,
		Meta: map[string]any{"count": len(entries)},
	})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id: %v", binder.ErrFailedToParsePath, err)
	}
	return id, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q, want RFC 3339", binder.ErrFailedToParseQuery, s)
	}
	return t, nil
}
