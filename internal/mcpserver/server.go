// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes terjecfg tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/terjecfg/internal/catalog"
	"github.com/starford/terjecfg/internal/editor"
	"github.com/starford/terjecfg/internal/fileservice"
)

const contractURI = "terjecfg://edit-contract"

// Server wraps the MCP server with terjecfg tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *fileservice.Service
	catalog *catalog.Catalog
}

// New creates a new MCP server with all terjecfg tools registered.
func New(svc *fileservice.Service, cat *catalog.Catalog, version string) *Server {
	if cat == nil {
		cat = catalog.Empty()
	}
	s := &Server{svc: svc, catalog: cat}

	s.mcp = server.NewMCPServer(
		"terjecfg",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List the .cfg and .xml settings files."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix (empty for all)")),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a settings file as numbered lines with setting metadata. "+
			"Use the returned line and segment indices for update_file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. Core.cfg)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("update_file",
		mcp.WithDescription("Apply a batch of value edits to a settings file. "+
			"Each edit is applied independently and reported with its own status. "+
			"Read the contract first via the get_edit_contract tool or the "+contractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
		mcp.WithArray("updates", mcp.Required(),
			mcp.Description("Edits as objects {lineIndex, segmentIndex, value}"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lineIndex":    map[string]any{"type": "integer"},
					"segmentIndex": map[string]any{"type": "integer"},
					"value":        map[string]any{"type": "string"},
				},
				"required": []string{"lineIndex", "value"},
			}),
		),
	), s.updateFile)

	s.mcp.AddTool(mcp.NewTool("file_history",
		mcp.WithDescription("List recent versions of a settings file, oldest first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
	), s.fileHistory)

	s.mcp.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription("Full-text search through every stored version."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("path", mcp.Description("Optional file to restrict the search to")),
	), s.searchHistory)

	s.mcp.AddTool(mcp.NewTool("restore_version",
		mcp.WithDescription("Write a stored version back to its file. The restore is recorded as a new version."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Version id from file_history")),
	), s.restoreVersion)

	s.mcp.AddTool(mcp.NewTool("get_setting_help",
		mcp.WithDescription("Describe a setting key: its type, default value and description."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Setting key (e.g. Core.WaterDrainFromVomit)")),
		mcp.WithString("locale", mcp.Description("Description language: en-US, pt-BR, es-ES or ru-RU")),
	), s.getSettingHelp)

	s.mcp.AddTool(mcp.NewTool("get_edit_contract",
		mcp.WithDescription("Returns the terjecfg edit contract. "+
			"Call this before update_file to address lines and segments correctly."),
	), s.getEditContract)

	// Resource: edit contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Edit Contract",
			mcp.WithResourceDescription("How settings files are addressed and edited."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := strings.Trim(req.GetString("folder", ""), "/")

	metas, err := s.svc.Files(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		if folder == "" || strings.HasPrefix(m.Path, folder+"/") {
			paths = append(paths, m.Path)
		}
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no files found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	file, err := s.svc.Load(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(file), nil
}

func (s *Server) updateFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	edits, err := decodeEdits(req.GetArguments()["updates"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Save(ctx, path, edits)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// The content is large and already known to the caller; report the
	// outcomes and the recorded version only.
	return jsonResult(map[string]any{
		"path":     res.Path,
		"outcomes": res.Outcomes,
		"version":  res.Version,
		"opId":     res.OpID,
	}), nil
}

// decodeEdits converts the untyped tool argument into edits.
func decodeEdits(raw any) ([]editor.Edit, error) {
	if raw == nil {
		return nil, fmt.Errorf("required argument \"updates\" not found")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid updates: %w", err)
	}
	var edits []editor.Edit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("invalid updates: %w", err)
	}
	return edits, nil
}

func (s *Server) fileHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	versions, err := s.svc.History(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(versions) == 0 {
		return mcp.NewToolResultText("no history found"), nil
	}
	return jsonResult(versions), nil
}

func (s *Server) searchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchHistory(ctx, query, req.GetString("path", ""), 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) restoreVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id <= 0 || id != float64(int64(id)) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid version id: %v", id)), nil
	}
	v, err := s.svc.Restore(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored %s to version %d as version %d", v.Path, int64(id), v.ID)), nil
}

// settingHelp is the get_setting_help payload.
type settingHelp struct {
	Key         string `json:"key"`
	Type        string `json:"type,omitempty"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
	Locale      string `json:"locale"`
}

func (s *Server) getSettingHelp(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, ok := s.catalog.Entry(key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown setting: %s", key)), nil
	}
	locale := req.GetString("locale", s.catalog.Locale())
	return jsonResult(settingHelp{
		Key:         key,
		Type:        entry.Type,
		Default:     entry.Default,
		Description: entry.Description(locale),
		Locale:      locale,
	}), nil
}

func (s *Server) getEditContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EditContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     EditContract,
		},
	}, nil
}
