package binder

import "strings"

// sanitizeStringValue strips control characters that have no business in
// request payloads. NUL and other C0 control bytes are removed; tab, LF and
// CR are kept since multi-line text fields legitimately contain them.
func sanitizeStringValue(s string) string {
	if !strings.ContainsFunc(s, isDisallowedControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isDisallowedControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDisallowedControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r < 0x20 || r == 0x7f
}

// sanitizeFormValue applies sanitizeStringValue and additionally strips CR
// and LF. Form, query and path values live on the header-adjacent surface
// where line breaks enable response splitting; multi-line text belongs in
// JSON bodies.
func sanitizeFormValue(s string) string {
	s = sanitizeStringValue(s)
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\r' || r == '\n' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
