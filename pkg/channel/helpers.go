package channel

import (
	"regexp"
	"strings"
)

var (
	emailRegex     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRegex  = regexp.MustCompile(`\D`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	scriptTagRegex = regexp.MustCompile(`(?is)<script\b.*?</script>`)
)

// ValidEmail reports whether s looks like an email address. The check
// is intentionally loose; final validation belongs to the provider.
func ValidEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailRegex.MatchString(s)
}

// ValidPhone reports whether s contains a plausible phone number,
// defined as 10 to 15 digits after stripping formatting characters.
func ValidPhone(s string) bool {
	if s == "" {
		return false
	}
	digits := nonDigitRegex.ReplaceAllString(s, "")
	return len(digits) >= 10 && len(digits) <= 15
}

// StripHTML reduces an HTML body to plain text: tags are removed and
// common entities decoded. Used to derive the text alternative of an
// HTML email.
func StripHTML(html string) string {
	s := htmlTagRegex.ReplaceAllString(html, "")
	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
	return strings.TrimSpace(replacer.Replace(s))
}

// SanitizeHTML removes script blocks from an HTML body before it is
// handed to a provider.
func SanitizeHTML(html string) string {
	return scriptTagRegex.ReplaceAllString(html, "")
}
