package notifier

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notifykit/notifykit/pkg/binder"
	"github.com/notifykit/notifykit/pkg/logger"
	"github.com/notifykit/notifykit/pkg/template"
)

// TemplateService exposes template management over HTTP. Templates are
// addressed by name since that is how send requests reference them.
type TemplateService struct {
	store template.Store
	log   *slog.Logger
}

func NewTemplateService(store template.Store, log *slog.Logger) *TemplateService {
	if log == nil {
		log = slog.Default()
	}
	return &TemplateService{store: store, log: log}
}

func (s *TemplateService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Get("/{name}", s.get)
	r.Put("/{name}", s.update)
	r.Delete("/{name}", s.remove)

	return r
}

type templateRequest struct {
	Name      string   `json:"name"`
	Channel   string   `json:"channel"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Variables []string `json:"variables"`
}

func (s *TemplateService) list(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respond(w, http.StatusOK, JSONResponse{
		Data: templates,
		Meta: map[string]any{"count": len(templates)},
	})
}

func (s *TemplateService) create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := binder.JSON()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	created, err := s.store.Create(r.Context(), template.Template{
		Name:      req.Name,
		Channel:   req.Channel,
		Subject:   req.Subject,
		Body:      req.Body,
		Variables: req.Variables,
	})
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	s.log.InfoContext(r.Context(), "template created", logger.TemplateName(created.Name))
	respondData(w, http.StatusCreated, created)
}

func (s *TemplateService) get(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.store.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	respondData(w, http.StatusOK, tpl)
}

func (s *TemplateService) update(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	var req templateRequest
	if err := binder.JSON()(r, &req); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	tpl := *existing
	if req.Name != "" {
		tpl.Name = req.Name
	}
	if req.Channel != "" {
		tpl.Channel = req.Channel
	}
	tpl.Subject = req.Subject
	tpl.Body = req.Body
	tpl.Variables = req.Variables

	updated, err := s.store.Update(r.Context(), tpl)
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	s.log.InfoContext(r.Context(), "template updated", logger.TemplateName(updated.Name))
	respondData(w, http.StatusOK, updated)
}

func (s *TemplateService) remove(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, s.log, err)
		return
	}

	if err := s.store.Delete(r.Context(), existing.ID); err != nil {
		respondError(w, r, s.log, err)
		return
	}

	s.log.InfoContext(r.Context(), "template deleted", logger.TemplateName(existing.Name))
	w.WriteHeader(http.StatusNoContent)
}
