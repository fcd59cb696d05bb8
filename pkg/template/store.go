package template

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store handles template persistence and lookup.
type Store interface {
	// Create stores a new template. The name must be unique.
	Create(ctx context.Context, tpl Template) (*Template, error)

	// Update replaces the mutable fields of an existing template.
	Update(ctx context.Context, tpl Template) (*Template, error)

	// Delete removes a template by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByName retrieves a template by its unique name.
	FindByName(ctx context.Context, name string) (*Template, error)

	// List returns all templates, ordered by name.
	List(ctx context.Context) ([]Template, error)
}

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Template
	byName map[string]uuid.UUID
}

// NewMemoryStore creates a new in-memory template store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]*Template),
		byName: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, tpl Template) (*Template, error) {
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[tpl.Name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrTemplateExists, tpl.Name)
	}

	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	stored := tpl
	s.byID[tpl.ID] = &stored
	s.byName[tpl.Name] = tpl.ID

	result := stored
	return &result, nil
}

func (s *MemoryStore) Update(ctx context.Context, tpl Template) (*Template, error) {
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[tpl.ID]
	if !ok {
		return nil, ErrTemplateNotFound
	}

	if other, exists := s.byName[tpl.Name]; exists && other != tpl.ID {
		return nil, fmt.Errorf("%w: %q", ErrTemplateExists, tpl.Name)
	}

	delete(s.byName, existing.Name)
	existing.Name = tpl.Name
	existing.Channel = tpl.Channel
	existing.Subject = tpl.Subject
	existing.Body = tpl.Body
	existing.Variables = tpl.Variables
	existing.UpdatedAt = time.Now()
	s.byName[existing.Name] = existing.ID

	result := *existing
	return &result, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, ok := s.byID[id]
	if !ok {
		return ErrTemplateNotFound
	}

	delete(s.byName, tpl.Name)
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) FindByName(ctx context.Context, name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	// Return a copy to prevent external mutation of stored data
	tpl := *s.byID[id]
	return &tpl, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]Template, 0, len(s.byID))
	for _, tpl := range s.byID {
		templates = append(templates, *tpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

func validateTemplate(tpl Template) error {
	var errs []error

	if strings.TrimSpace(tpl.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: name is required", ErrTemplateInvalid))
	}
	if strings.TrimSpace(tpl.Channel) == "" {
		errs = append(errs, fmt.Errorf("%w: channel is required", ErrTemplateInvalid))
	}
	if strings.TrimSpace(tpl.Body) == "" {
		errs = append(errs, fmt.Errorf("%w: body is required", ErrTemplateInvalid))
	}
	if tpl.Body != "" {
		if err := Validate(tpl.Body); err != nil {
			errs = append(errs, err)
		}
	}
	if tpl.Subject != "" {
		if err := Validate(tpl.Subject); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
