package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"factory-erp/internal/appstate"
	"factory-erp/internal/gate"
	"factory-erp/internal/permission"
	"factory-erp/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Modules lists the ERP areas exposed under /api/v1 and /app.
var Modules = []string{
	permission.ModuleInventory,
	permission.ModulePurchaseOrders,
	permission.ModuleQuotations,
	permission.ModuleVehicles,
	permission.ModuleHospitality,
	permission.ModuleCompanies,
	permission.ModuleUsers,
	permission.ModuleRoles,
}

var allActions = []string{
	permission.ActionView,
	permission.ActionCreate,
	permission.ActionEdit,
	permission.ActionDelete,
	permission.ActionApprove,
	permission.ActionExport,
}

// ModuleAccess reports what the caller may do in module. Business
// workflows live elsewhere; this is the permission surface the client
// renders against.
func ModuleAccess(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := rbac.Principal(c)
		actions := make(map[string]bool, len(allActions))
		for _, a := range allActions {
			actions[a] = p.Can(module, a)
		}
		c.JSON(http.StatusOK, gin.H{
			"module":    module,
			"companyId": appstate.FromGin(c).CurrentCompanyID,
			"actions":   actions,
		})
	}
}

// modulePage is parsed with a zero-state FuncMap; each request clones it and
// rebinds the gates to the caller's state.
var modulePage = template.Must(template.New("module").Funcs(gate.FuncMap(appstate.State{})).Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Module}}</title></head>
<body>
<main data-module="{{.Module}}">
<h1>{{.Module}}</h1>
<nav>
{{gate .Module "create" .New}}
{{gate .Module "export" .Export}}
</nav>
{{if can .Module "approve"}}<section class="approvals"></section>{{end}}
</main>
</body>
</html>
`))

// ModulePage renders the shell page for module. Guard it with gate.Page.
func ModulePage(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpl, err := modulePage.Clone()
		if err != nil {
			writeError(c, err)
			return
		}
		tpl.Funcs(gate.FuncMap(appstate.FromGin(c)))

		var buf bytes.Buffer
		if err := tpl.Execute(&buf, struct {
			Module      string
			New, Export template.HTML
		}{
			Module: module,
			New:    `<a class="btn" href="?new=1">New</a>`,
			Export: `<a class="btn" href="?export=1">Export</a>`,
		}); err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}
}
