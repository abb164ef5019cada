package server

import (
	"log"
	"net/http"

	"authx-console/internal/dashboard"
)

func dashboardPage(w http.ResponseWriter, r *http.Request) {
	p := dashboard.PageFor(r.URL.Path)
	status := http.StatusOK
	if p.View == dashboard.ViewNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, p)
}

// recoverToRoot turns a panic in a dashboard handler into a redirect to the console root.
func recoverToRoot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("server: dashboard %s: %v", r.URL.Path, rec)
				http.Redirect(w, r, dashboard.ErrorRedirect, http.StatusFound)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
