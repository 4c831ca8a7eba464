// Package gate suppresses protected pages and fragments when the caller's
// resolved permission is false. Gates never fetch anything themselves; they
// read the appstate.State that appstate.Loader put on the request.
package gate

import (
	"html/template"
	"net/http"

	"factory-erp/internal/appstate"
	"factory-erp/internal/permission"

	"github.com/gin-gonic/gin"
)

// RestrictedMessage is the fixed placeholder shown in place of a denied page.
const RestrictedMessage = "access restricted"

var restrictedPage = template.Must(template.New("restricted").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Access restricted</title></head>
<body>
<main class="access-restricted" data-module="{{.Module}}" data-action="{{.Action}}">
<h1>Access restricted</h1>
<p>You do not have permission to {{.Action}} {{.Module}}.</p>
</main>
</body>
</html>
`))

// Page guards a page-level route. action defaults to "view". A denied
// caller gets 403 with the restricted placeholder, as HTML when the client
// accepts it and JSON otherwise. Super-admins always pass.
func Page(module string, action ...string) gin.HandlerFunc {
	act := permission.ActionView
	if len(action) > 0 && action[0] != "" {
		act = action[0]
	}

	return func(c *gin.Context) {
		s, _ := appstate.From(c.Request.Context())
		if appstate.Can(s, module, act) {
			c.Next()
			return
		}
		Restricted(c, module, act)
	}
}

// Restricted aborts with the placeholder for module/action.
func Restricted(c *gin.Context, module, action string) {
	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":  RestrictedMessage,
			"module": module,
			"action": action,
		})
	default:
		c.Status(http.StatusForbidden)
		c.Header("Content-Type", "text/html; charset=utf-8")
		_ = restrictedPage.Execute(c.Writer, struct{ Module, Action string }{module, action})
		c.Abort()
	}
}

// Inline returns children when the caller may perform action on module, and
// fallback otherwise. A zero fallback renders nothing.
func Inline(s appstate.State, module, action string, children, fallback template.HTML) template.HTML {
	if appstate.Can(s, module, action) {
		return children
	}
	return fallback
}

// FuncMap exposes the gates to html/template:
//
//	{{if can "inventory" "edit"}}...{{end}}
//	{{gate "inventory" "delete" "<button>Delete</button>"}}
//	{{gate "inventory" "delete" "<button>Delete</button>" "<span>read only</span>"}}
func FuncMap(s appstate.State) template.FuncMap {
	return template.FuncMap{
		"can": func(module, action string) bool {
			return appstate.Can(s, module, action)
		},
		"gate": func(module, action string, children template.HTML, fallback ...template.HTML) template.HTML {
			var fb template.HTML
			if len(fallback) > 0 {
				fb = fallback[0]
			}
			return Inline(s, module, action, children, fb)
		},
	}
}
