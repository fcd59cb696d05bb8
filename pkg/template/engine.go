package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Context carries the values substituted into placeholders. Values are limited
// to a small closed set of scalar kinds (strings, booleans, integers, floats,
// and timestamps) so that merged recipient/data bags stay well-typed.
type Context map[string]any

var placeholderRegex = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// ExtractVariables returns the distinct variable names referenced by the text,
// in order of first appearance. Helper pipes are ignored: "{{name|upper}}"
// references the variable "name".
func ExtractVariables(text string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var vars []string

	for _, m := range matches {
		name := variableName(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		vars = append(vars, name)
	}

	return vars
}

// MissingVariables reports which required variables are absent from the
// context. A variable counts as missing when the key is absent, the value is
// nil, or the value is an empty string. When required is empty, the variable
// list is derived by scanning subject and body.
func MissingVariables(subject, body string, ctx Context, required []string) []string {
	vars := required
	if len(vars) == 0 {
		vars = append(ExtractVariables(body), ExtractVariables(subject)...)
	}

	var missing []string
	seen := make(map[string]struct{}, len(vars))
	for _, name := range vars {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		v, ok := ctx[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			missing = append(missing, name)
		}
	}

	return missing
}

// Render substitutes placeholders in the text with context values. Unknown
// variables render as empty strings. Returns ErrTemplateSyntax when the
// placeholder markup is malformed.
func Render(text string, ctx Context) (string, error) {
	if err := checkSyntax(text); err != nil {
		return "", err
	}

	out := placeholderRegex.ReplaceAllStringFunc(text, func(match string) string {
		expr := match[2 : len(match)-2]
		return evalPlaceholder(expr, ctx)
	})

	return out, nil
}

// RenderTemplate renders subject and body in one pass. An empty subject stays empty.
func RenderTemplate(tpl *Template, ctx Context) (subject, body string, err error) {
	if tpl.Subject != "" {
		subject, err = Render(tpl.Subject, ctx)
		if err != nil {
			return "", "", err
		}
	}

	body, err = Render(tpl.Body, ctx)
	if err != nil {
		return "", "", err
	}

	return subject, body, nil
}

// Validate performs a syntax-only check of template text, suitable for
// rejecting malformed templates at authoring time.
func Validate(text string) error {
	return checkSyntax(text)
}

func checkSyntax(text string) error {
	opens := strings.Count(text, "{{")
	closes := strings.Count(text, "}}")
	if opens != closes {
		return fmt.Errorf("%w: found %d '{{' but %d '}}'", ErrTemplateSyntax, opens, closes)
	}

	// A trailing "{{" with no terminator is not caught by the balance check
	// when the text also contains a stray "}}" earlier on.
	if idx := strings.LastIndex(text, "{{"); idx >= 0 && !strings.Contains(text[idx:], "}}") {
		return fmt.Errorf("%w: placeholder missing closing braces", ErrTemplateSyntax)
	}

	return nil
}

// evalPlaceholder resolves "name" or "name|helper" or "name|helper:arg" expressions.
func evalPlaceholder(expr string, ctx Context) string {
	parts := strings.SplitN(expr, "|", 2)
	name := strings.TrimSpace(parts[0])

	value := ""
	if v, ok := ctx[name]; ok {
		value = formatValue(v)
	}

	if len(parts) == 1 {
		return value
	}

	helper, arg := strings.TrimSpace(parts[1]), ""
	if i := strings.Index(helper, ":"); i >= 0 {
		helper, arg = helper[:i], helper[i+1:]
	}

	return applyHelper(helper, arg, value)
}

func applyHelper(helper, arg, value string) string {
	switch helper {
	case "upper":
		return strings.ToUpper(value)
	case "lower":
		return strings.ToLower(value)
	case "truncate":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 || len(value) <= n {
			return value
		}
		return value[:n] + "..."
	case "default":
		if value == "" {
			return arg
		}
		return value
	case "formatDate":
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return value
		}
		return t.UTC().Format("02/01/2006")
	default:
		return value
	}
}

func variableName(expr string) string {
	name := expr
	if i := strings.Index(name, "|"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
