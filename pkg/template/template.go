package template

import (
	"time"

	"github.com/google/uuid"
)

// Template defines reusable notification content. Subject and Body may contain
// {{variable}} placeholders that are substituted at render time.
type Template struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Channel   string    `json:"channel" yaml:"channel"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Body      string    `json:"body" yaml:"body"`
	Variables []string  `json:"variables,omitempty" yaml:"variables,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// RequiredVariables returns the explicit variable list when present, otherwise
// the variables discovered by scanning the subject and body for placeholders.
func (t *Template) RequiredVariables() []string {
	if len(t.Variables) > 0 {
		return t.Variables
	}

	seen := make(map[string]struct{})
	var vars []string
	for _, v := range append(ExtractVariables(t.Body), ExtractVariables(t.Subject)...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		vars = append(vars, v)
	}
	return vars
}
