package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/terjecfg/internal/fileservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *fileservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/tree", h.Tree)

	// Files.
	r.Get("/file", h.GetFile)
	r.Post("/file", h.SaveFile)

	// History.
	r.Get("/history", h.History)
	r.Get("/history/search", h.SearchHistory)
	r.Get("/versions/{id}", h.GetVersion)
	r.Post("/restore", h.Restore)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
