// Package template provides named notification templates and the lightweight
// placeholder engine used to render them.
//
// A Template pairs a unique name with a delivery channel, an optional subject,
// a body, and an optional explicit list of required variables. Subject and
// body may reference context values with {{variable}} placeholders; a small
// set of helpers can be piped onto a variable:
//
//	{{name|upper}}            uppercase
//	{{name|lower}}            lowercase
//	{{name|truncate:20}}      truncate with ellipsis
//	{{name|default:friend}}   fallback for empty values
//	{{date|formatDate}}       DD/MM/YYYY (UTC) from an RFC 3339 value
//
// Rendering never fails on an unknown variable (it renders empty); callers
// that need stricter behavior use MissingVariables before rendering, which is
// exactly what the dispatch orchestrator does.
//
// Persistence is behind the Store interface. MemoryStore backs development
// and tests; LoadFile seeds a store from a YAML document.
//
// # Usage
//
//	store := template.NewMemoryStore()
//	_, err := store.Create(ctx, template.Template{
//	    Name:    "welcome",
//	    Channel: "email",
//	    Subject: "Welcome, {{name}}",
//	    Body:    "Hi {{name}}, your code is {{code}}",
//	})
//
//	tpl, err := store.FindByName(ctx, "welcome")
//	subject, body, err := template.RenderTemplate(tpl, template.Context{
//	    "name": "Ana",
//	    "code": "123",
//	})
package template
