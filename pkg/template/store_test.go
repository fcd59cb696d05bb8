package template_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifykit/notifykit/pkg/template"
)

func TestMemoryStore_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates and finds by name", func(t *testing.T) {
		t.Parallel()

		store := template.NewMemoryStore()
		created, err := store.Create(ctx, template.Template{
			Name:    "welcome",
			Channel: "email",
			Subject: "Welcome, {{name}}",
			Body:    "Hi {{name}}",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := store.FindByName(ctx, "welcome")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "email", found.Channel)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		store := template.NewMemoryStore()
		_, err := store.Create(ctx, template.Template{Name: "dup", Channel: "email", Body: "x"})
		require.NoError(t, err)

		_, err = store.Create(ctx, template.Template{Name: "dup", Channel: "sms", Body: "y"})
		assert.ErrorIs(t, err, template.ErrTemplateExists)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		t.Parallel()

		store := template.NewMemoryStore()
		_, err := store.Create(ctx, template.Template{Name: "", Channel: "", Body: ""})
		assert.ErrorIs(t, err, template.ErrTemplateInvalid)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()

		store := template.NewMemoryStore()
		_, err := store.Create(ctx, template.Template{Name: "bad", Channel: "email", Body: "Hi {{name"})
		assert.ErrorIs(t, err, template.ErrTemplateSyntax)
	})
}

func TestMemoryStore_FindByName_NotFound(t *testing.T) {
	t.Parallel()

	store := template.NewMemoryStore()
	_, err := store.FindByName(context.Background(), "nope")
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)
}

func TestMemoryStore_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := template.NewMemoryStore()
	created, err := store.Create(ctx, template.Template{Name: "old", Channel: "email", Body: "x"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, template.Template{
		ID:      created.ID,
		Name:    "new",
		Channel: "sms",
		Body:    "y {{code}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)

	_, err = store.FindByName(ctx, "old")
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)

	found, err := store.FindByName(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "sms", found.Channel)
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := template.NewMemoryStore()
	created, err := store.Create(ctx, template.Template{Name: "tmp", Channel: "email", Body: "x"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))
	assert.ErrorIs(t, store.Delete(ctx, created.ID), template.ErrTemplateNotFound)

	_, err = store.FindByName(ctx, "tmp")
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := template.NewMemoryStore()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.Create(ctx, template.Template{Name: name, Channel: "email", Body: "x"})
		require.NoError(t, err)
	}

	templates, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, "alpha", templates[0].Name)
	assert.Equal(t, "mid", templates[1].Name)
	assert.Equal(t, "zeta", templates[2].Name)
}

func TestLoadReader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("seeds templates", func(t *testing.T) {
		t.Parallel()

		doc := `
templates:
  - name: welcome
    channel: email
    subject: "Welcome, {{name}}"
    body: "Hi {{name}}, your code is {{code}}"
    variables: [name, code]
  - name: otp-sms
    channel: sms
    body: "Your code: {{code}}"
`
		store := template.NewMemoryStore()
		require.NoError(t, template.LoadReader(ctx, store, strings.NewReader(doc)))

		tpl, err := store.FindByName(ctx, "welcome")
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "code"}, tpl.Variables)

		tpl, err = store.FindByName(ctx, "otp-sms")
		require.NoError(t, err)
		assert.Equal(t, "sms", tpl.Channel)
	})

	t.Run("fails on invalid yaml", func(t *testing.T) {
		t.Parallel()

		store := template.NewMemoryStore()
		err := template.LoadReader(ctx, store, strings.NewReader("templates: [not a template"))
		assert.Error(t, err)
	})
}
