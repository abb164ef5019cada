// Package dashboard resolves organisation dashboard paths to views.
package dashboard

import (
	"strings"

	"authx-console/internal/widget"
)

// View is one page of the organisation dashboard.
type View string

const (
	ViewIndex           View = "index"
	ViewSettings        View = "settings"
	ViewSupport         View = "support"
	ViewAddOrganization View = "add_organization"
	ViewNotFound        View = "not_found"
)

// Root is the dashboard mount point. ErrorRedirect is where an unrecoverable failure sends the user.
const (
	Root          = "/dashboard"
	ErrorRedirect = "/"
)

var routes = map[string]View{
	"":                 ViewIndex,
	"settings":         ViewSettings,
	"support":          ViewSupport,
	"add-organization": ViewAddOrganization,
}

// Resolve maps a request path to its view. Trailing slashes are ignored; paths outside
// Root and unknown subpaths resolve to ViewNotFound.
func Resolve(path string) View {
	if path != Root && !strings.HasPrefix(path, Root+"/") {
		return ViewNotFound
	}
	rest := strings.Trim(strings.TrimPrefix(path, Root), "/")
	if v, ok := routes[rest]; ok {
		return v
	}
	return ViewNotFound
}

// Page is what the console returns for a dashboard path.
type Page struct {
	View View `json:"view"`
	// Tabs is set on the settings view, which hosts the widget editor.
	Tabs []widget.Tab `json:"tabs,omitempty"`
}

// PageFor resolves path and attaches the widget editor tabs where they apply.
func PageFor(path string) Page {
	p := Page{View: Resolve(path)}
	if p.View == ViewSettings {
		p.Tabs = append([]widget.Tab(nil), widget.Tabs...)
	}
	return p
}
