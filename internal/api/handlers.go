package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/terjecfg/internal/fileservice"
	"github.com/starford/terjecfg/internal/history"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *fileservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *fileservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Tree handles GET /api/tree.
//
//	@Summary		List settings folders and .cfg/.xml files
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	TreeResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context())
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	if tree == nil {
		tree = []*TreeNode{}
	}
	writeJSON(w, http.StatusOK, TreeResponse{Tree: tree})
}

// GetFile handles GET /api/file?path=.
//
//	@Summary		Get a parsed settings file with metadata
//	@Tags			files
//	@Produce		json
//	@Param			path	query		string	true	"File path relative to the settings root"
//	@Success		200		{object}	FileDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/file [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	file, err := h.svc.Load(r.Context(), path)
	if err != nil {
		writeError(w, "load file", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, file)
}

// SaveFile handles POST /api/file.
//
//	@Summary		Apply a batch of edits to a settings file
//	@Description	Each edit is applied independently. Failed edits are reported in outcomes.
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveFileRequest	true	"Edits to apply"
//	@Success		200		{object}	SaveResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/file [post]
func (h *Handler) SaveFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.Save(r.Context(), req.Path, req.Updates)
	if err != nil {
		writeError(w, "save file", err, slog.String("path", req.Path))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// History handles GET /api/history?path=.
//
//	@Summary		List recent versions of a file, oldest first
//	@Tags			history
//	@Produce		json
//	@Param			path	query		string	true	"File path"
//	@Success		200		{object}	HistoryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	versions, err := h.svc.History(r.Context(), path)
	if err != nil {
		writeError(w, "history", err, slog.String("path", path))
		return
	}
	if versions == nil {
		versions = []Version{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Path: path, Versions: versions})
}

// SearchHistory handles GET /api/history/search.
//
//	@Summary		Full-text search across stored versions
//	@Tags			history
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			path	query		string	false	"Restrict to one file"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/history/search [get]
func (h *Handler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	path := r.URL.Query().Get("path")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchHistory(r.Context(), q, path, limit)
	if err != nil {
		writeError(w, "search history", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []history.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetVersion handles GET /api/versions/{id}.
//
//	@Summary		Get a stored version including its content
//	@Tags			history
//	@Produce		json
//	@Param			id	path		int	true	"Version id"
//	@Success		200	{object}	Version
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/versions/{id} [get]
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid version id"))
		return
	}
	v, err := h.svc.Version(r.Context(), id)
	if err != nil {
		writeError(w, "get version", err, slog.Int64("id", id))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Restore handles POST /api/restore.
//
//	@Summary		Restore a file to a stored version
//	@Description	Writes the version content back to disk and records it as a new version.
//	@Tags			history
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RestoreRequest	true	"Version to restore"
//	@Success		200		{object}	Version
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/restore [post]
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	v, err := h.svc.Restore(r.Context(), req.ID)
	if err != nil {
		writeError(w, "restore", err, slog.Int64("id", req.ID))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
