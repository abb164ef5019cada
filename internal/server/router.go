// Package server exposes the console over HTTP (signup flows, widget editor, dashboard) and gRPC (health).
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"authx-console/internal/health"
	"authx-console/internal/server/interceptors"
	"authx-console/internal/widget"
)

// Deps holds the services behind the HTTP API. A nil Widgets leaves the widget routes unregistered.
type Deps struct {
	Flows          *FlowRegistry
	Widgets        *widget.Service
	Health         *health.Checker
	AllowedOrigins []string
}

// NewRouter builds the console HTTP handler.
//
//	POST   /api/signup                       credential form
//	POST   /api/signup/otp                   {otp}
//	POST   /api/signup/resend
//	DELETE /api/signup/notice
//	GET    /api/signup                       flow view
//	GET    /api/orgs/{orgID}/widget          draft
//	PUT    /api/orgs/{orgID}/widget
//	POST   /api/orgs/{orgID}/widget/reset/{tab}
//	POST   /api/orgs/{orgID}/widget/logo     multipart "logo"
//	POST   /api/orgs/{orgID}/widget/publish  Authorization: Bearer
//	GET    /logos/*
//	GET    /dashboard/*
//	GET    /health
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(interceptors.Identify)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", interceptors.OperatorHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(deps.Health))

	if deps.Flows != nil {
		sh := &signupHandler{flows: deps.Flows}
		r.Route("/api/signup", func(r chi.Router) {
			r.Get("/", sh.state)
			r.Post("/", sh.submit)
			r.Post("/otp", sh.otp)
			r.Post("/resend", sh.resend)
			r.Delete("/notice", sh.dismiss)
		})
	}

	if deps.Widgets != nil {
		wh := &widgetHandler{svc: deps.Widgets}
		r.Route("/api/orgs/{orgID}/widget", func(r chi.Router) {
			r.Get("/", wh.get)
			r.Put("/", wh.put)
			r.Post("/reset/{tab}", wh.reset)
			r.Post("/logo", wh.uploadLogo)
			r.Post("/publish", wh.publish)
		})
		r.Get("/logos/*", wh.logo)
	}

	r.Group(func(r chi.Router) {
		r.Use(recoverToRoot)
		r.Get("/dashboard", dashboardPage)
		r.Get("/dashboard/*", dashboardPage)
	})
	return r
}

func healthHandler(c *health.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			writeJSON(w, http.StatusOK, health.Report{Status: "ok"})
			return
		}
		rep := c.Check(r.Context())
		status := http.StatusOK
		if !rep.Healthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, rep)
	}
}
