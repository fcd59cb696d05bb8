package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// PathExtractor returns the raw value of a named path parameter from the
// request. Routers expose this differently, so the caller supplies the
// extraction function (e.g. chi.URLParam).
type PathExtractor func(r *http.Request, name string) string

// Path creates a path parameter binder function using the provided extractor.
//
// Struct fields are matched against path parameters using the `path` tag.
// Fields without a tag fall back to the lowercased field name, and a tag of
// "-" skips the field. Parameters the extractor resolves to an empty string
// leave the field untouched.
//
// Example:
//
//	type GetRequest struct {
//		ID string `path:"id"`
//	}
//
//	bindFunc := binder.Path(func(r *http.Request, name string) string {
//		return chi.URLParam(r, name)
//	})
func Path(extractor PathExtractor) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrFailedToParsePath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("%w: target must be a non-nil pointer", ErrFailedToParsePath)
		}
		if rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrFailedToParsePath)
		}

		// Collect parameter values per field so the shared reflection
		// binder can do the actual assignment.
		rt := rv.Elem().Type()
		values := make(map[string][]string, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			paramName, skip := parseFieldTag(rt.Field(i), "path")
			if skip {
				continue
			}
			if raw := extractor(r, paramName); raw != "" {
				values[paramName] = []string{raw}
			}
		}

		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
