package notifier

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/notifykit/notifykit/pkg/binder"
	"github.com/notifykit/notifykit/pkg/queue"
)

// QueueService exposes queue introspection and flow control.
type QueueService struct {
	queue *queue.Queue
	log   *slog.Logger
}

func NewQueueService(q *queue.Queue, log *slog.Logger) *QueueService {
	if log == nil {
		log = slog.Default()
	}
	return &QueueService{queue: q, log: log}
}

func (s *QueueService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/stats", s.stats)
	r.Get("/jobs/{id}", s.getJob)
	r.Post("/pause", s.pause)
	r.Post("/resume", s.resume)

	return r
}

func (s *QueueService) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.Stats(r.Context())
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: stats,
		Meta: map[string]any{"paused": s.queue.Paused()},
	})
}

func (s *QueueService) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, s.log, fmt.Errorf("%w: invalid id: %v", binder.ErrFailedToParsePath, err))
		return
	}

	job, err := s.queue.GetJob(r.Context(), id)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, job)
}

func (s *QueueService) pause(w http.ResponseWriter, r *http.Request) {
	s.queue.Pause()
	s.log.InfoContext(r.Context(), "queue paused")
	respondData(w, http.StatusOK, map[string]any{"paused": true})
}

func (s *QueueService) resume(w http.ResponseWriter, r *http.Request) {
	s.queue.Resume()
	s.log.InfoContext(r.Context(), "queue resumed")
	respondData(w, http.StatusOK, map[string]any{"paused": false})
}
