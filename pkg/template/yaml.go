package template

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk shape of a template seed document:
//
//	templates:
//	  - name: welcome
//	    channel: email
//	    subject: "Welcome, {{name}}"
//	    body: "Hi {{name}}, your code is {{code}}"
//	    variables: [name, code]
type seedFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadFile reads a YAML seed file and creates every template it defines in the
// store. Intended for development bootstrap and tests; returns on the first
// template that fails to load.
func LoadFile(ctx context.Context, store Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open template seed file %q: %w", path, err)
	}
	defer f.Close()

	return LoadReader(ctx, store, f)
}

// LoadReader decodes a YAML seed document from r and creates its templates in the store.
func LoadReader(ctx context.Context, store Store, r io.Reader) error {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("failed to decode template seed: %w", err)
	}

	for _, tpl := range seed.Templates {
		if _, err := store.Create(ctx, tpl); err != nil {
			return fmt.Errorf("failed to seed template %q: %w", tpl.Name, err)
		}
	}

	return nil
}
