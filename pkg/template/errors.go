package template

import "errors"

// Common errors
var (
	// ErrTemplateNotFound is returned when no template exists with the given name.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExists is returned when creating a template with a taken name.
	ErrTemplateExists = errors.New("template name already exists")

	// ErrTemplateInvalid is returned when a template fails structural validation.
	ErrTemplateInvalid = errors.New("template is invalid")

	// ErrTemplateSyntax is returned when rendering fails due to malformed placeholders.
	ErrTemplateSyntax = errors.New("template syntax error")
)
