package api

import (
	"github.com/starford/terjecfg/internal/editor"
	"github.com/starford/terjecfg/internal/fileservice"
	"github.com/starford/terjecfg/internal/history"
	"github.com/starford/terjecfg/internal/models"
)

// SaveFileRequest is the request body for POST /api/file.
type SaveFileRequest struct {
	Path    string        `json:"path" example:"Core.cfg" validate:"required"`
	Updates []editor.Edit `json:"updates" validate:"required"`
}

// RestoreRequest is the request body for POST /api/restore.
type RestoreRequest struct {
	ID int64 `json:"id" example:"42" validate:"required"`
}

// FileDetail is a parsed file (aliased from the domain layer).
type FileDetail = fileservice.FileDetail

// SaveResult is the response of a save (aliased from the domain layer).
type SaveResult = fileservice.SaveResult

// Version is one entry of a file's history (aliased from the domain layer).
type Version = history.Version

// TreeNode is a file or folder in the settings tree.
type TreeNode = models.TreeNode

// TreeResponse wraps the settings tree.
type TreeResponse struct {
	Tree []*TreeNode `json:"tree" validate:"required"`
}

// HistoryResponse wraps the versions of one file, oldest first.
type HistoryResponse struct {
	Path     string    `json:"path" example:"Core.cfg" validate:"required"`
	Versions []Version `json:"versions" validate:"required"`
}

// SearchResponse wraps history search hits.
type SearchResponse struct {
	Results []history.SearchResult `json:"results" validate:"required"`
}
