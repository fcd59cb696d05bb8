package binder

import (
	"net/http"
)

// Query creates a query string binder function.
//
// Struct fields are matched against URL query parameters using the `query`
// tag. Fields without a tag fall back to the lowercased field name, and a
// tag of "-" skips the field. Repeated parameters and comma-separated values
// both populate slice fields.
//
// Example:
//
//	type ListRequest struct {
//		Status string   `query:"status"`
//		Tags   []string `query:"tags"`
//		Limit  int      `query:"limit"`
//	}
//
//	var req ListRequest
//	if err := binder.Query()(r, &req); err != nil {
//		// handle error
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
