package gate

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"factory-erp/internal/appstate"
	"factory-erp/internal/permission"
	"factory-erp/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewerState() appstate.State {
	return appstate.State{
		User: users.User{ID: "u-1"},
		Companies: []users.CompanyAccess{{
			CompanyID:   "c-1",
			Permissions: permission.Map{permission.ModuleInventory: permission.Actions("view")},
		}},
		CurrentCompanyID: "c-1",
	}
}

func servePage(t *testing.T, s *appstate.State, accept string, g gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/app/x", func(c *gin.Context) {
		if s != nil {
			c.Request = c.Request.WithContext(appstate.With(c.Request.Context(), *s))
		}
		c.Next()
	}, g, func(c *gin.Context) {
		c.String(http.StatusOK, "page body")
	})

	req := httptest.NewRequest(http.MethodGet, "/app/x", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPage_DefaultsToView(t *testing.T) {
	s := viewerState()
	w := servePage(t, &s, "text/html", Page(permission.ModuleInventory))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page body", w.Body.String())
}

func TestPage_DeniedRendersPlaceholder(t *testing.T) {
	s := viewerState()

	w := servePage(t, &s, "text/html", Page(permission.ModuleInventory, permission.ActionEdit))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access restricted")
	assert.NotContains(t, w.Body.String(), "page body")

	w = servePage(t, &s, "application/json", Page(permission.ModuleVehicles))
	require.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, RestrictedMessage, body["error"])
	assert.Equal(t, permission.ModuleVehicles, body["module"])
	assert.Equal(t, permission.ActionView, body["action"])
}

func TestPage_FailsClosedWithoutState(t *testing.T) {
	w := servePage(t, nil, "application/json", Page(permission.ModuleInventory))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPage_SuperAdminAlwaysPasses(t *testing.T) {
	s := appstate.State{User: users.User{ID: "root", IsSuperAdmin: true}}
	w := servePage(t, &s, "", Page(permission.ModuleRoles, permission.ActionDelete))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInline(t *testing.T) {
	s := viewerState()
	btn := template.HTML("<button>Edit</button>")

	assert.Equal(t, btn, Inline(s, permission.ModuleInventory, permission.ActionView, btn, ""))
	assert.Equal(t, template.HTML(""), Inline(s, permission.ModuleInventory, permission.ActionEdit, btn, ""))
	assert.Equal(t, template.HTML("read only"), Inline(s, permission.ModuleInventory, permission.ActionEdit, btn, "read only"))
}

func TestFuncMap(t *testing.T) {
	tpl := template.Must(template.New("t").Funcs(FuncMap(viewerState())).Parse(
		`{{if can "inventory" "view"}}list{{end}}|{{gate "inventory" "edit" .Edit}}|{{gate "inventory" "edit" .Edit .RO}}`,
	))

	var buf bytes.Buffer
	require.NoError(t, tpl.Execute(&buf, map[string]template.HTML{
		"Edit": "<b>edit</b>",
		"RO":   "<i>ro</i>",
	}))
	parts := strings.Split(buf.String(), "|")
	require.Len(t, parts, 3)
	assert.Equal(t, "list", parts[0])
	assert.Equal(t, "", parts[1])
	assert.Equal(t, "<i>ro</i>", parts[2])
}
