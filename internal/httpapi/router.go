// SPDX-License-Identifier: MIT
// C9's JSON-only HTTP surface, per spec.md §6.
//
// Grounded on server/server.go's setupMiddleware/setupRoutes shape
// (one router, a fixed middleware chain applied with r.Use, resource
// groups registered with chi sub-routers) kept for the pieces that
// apply to a pure JSON API and dropped for the teacher's HTML-page-only
// concerns (urlvars, URL normalization, path security, extension
// stripping — none of which a machine-readable-only control surface
// needs).
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/queued/queued/internal/core"
)

// NewRouter builds the daemon's HTTP surface. metricsHandler may be nil
// if metrics collection is disabled.
func NewRouter(facade *core.Facade, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(securityHeaders)
	r.Use(extractToken)
	r.Use(requireJSON)

	h := &handlers{facade: facade}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, APIResponse{OK: false, Error: "NOT_FOUND", Message: "unknown resource"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, APIResponse{OK: false, Error: "METHOD_NOT_ALLOWED", Message: "verb not supported for this resource"})
	})

	r.Get("/status", h.status)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Post("/auth", h.authenticate)

	r.Get("/option/{key}", h.getOption)
	r.Post("/option/{key}", h.setOption)

	r.Post("/permissions/{userId}", h.addPermission)
	r.Delete("/permissions/{userId}", h.removePermission)

	r.Post("/plugin/{name}", h.addPlugin)
	r.Delete("/plugin/{name}", h.removePlugin)
	r.Get("/plugin/{name}", h.getPlugin)
	r.Get("/plugins", h.listPlugins)

	r.Get("/reports", h.reports)

	r.Get("/task/{id}", h.getTask)
	r.Post("/task", h.addTask)
	r.Post("/task/{id}", h.editTask)
	r.Put("/task/{id}", h.toggleTask)
	r.Get("/tasks", h.listTasks)

	r.Get("/user/{name}", h.getUser)
	r.Post("/user/{name}", h.addOrEditUser)
	r.Get("/users", h.listUsers)

	return r
}
