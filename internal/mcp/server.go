package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/archive"
	"github.com/a3tai/mcp-release-notes/internal/config"
	"github.com/a3tai/mcp-release-notes/internal/descriptions"
	"github.com/a3tai/mcp-release-notes/internal/releasenote"
	"github.com/a3tai/mcp-release-notes/internal/store"
)

const maxListedFiles = 10

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *archive.Service
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *archive.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("archive service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"release_parse_file",
		mcp.WithDescription(descriptions.GetToolDescription("release_parse_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, relative to the archive directory"),
		),
	), s.handleParseFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_ingest_file",
		mcp.WithDescription(descriptions.GetToolDescription("release_ingest_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, relative to the archive directory"),
		),
	), s.handleIngestFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_ingest_directory",
		mcp.WithDescription(descriptions.GetToolDescription("release_ingest_directory")),
		mcp.WithString("query",
			mcp.Description("Words every file name must contain"),
		),
	), s.handleIngestDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_find_files",
		mcp.WithDescription(descriptions.GetToolDescription("release_find_files")),
		mcp.WithString("query",
			mcp.Description("Words every file name must contain"),
		),
	), s.handleFindFiles)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_list",
		mcp.WithDescription(descriptions.GetToolDescription("release_list")),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_get",
		mcp.WithDescription(descriptions.GetToolDescription("release_get")),
		mcp.WithString("version",
			mcp.Required(),
			mcp.Description("Product version, e.g. 3.1.3.11"),
		),
	), s.handleGet)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_search",
		mcp.WithDescription(descriptions.GetToolDescription("release_search")),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Whitespace-separated keywords"),
		),
	), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_delete",
		mcp.WithDescription(descriptions.GetToolDescription("release_delete")),
		mcp.WithString("version",
			mcp.Required(),
			mcp.Description("Product version to delete"),
		),
	), s.handleDelete)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("release_server_info")),
	), s.handleServerInfo)

	s.mcpServer.AddTool(mcp.NewTool(
		"release_stats",
		mcp.WithDescription(descriptions.GetToolDescription("release_stats")),
	), s.handleStats)
}

// Handler functions
func (s *Server) handleParseFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.service.ParseFile(ctx, path)
	if err != nil {
		return s.toolError("release_parse_file", err), nil
	}

	return mcp.NewToolResultText(s.formatRecord(rec)), nil
}

func (s *Server) handleIngestFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.IngestFile(ctx, path)
	if err != nil {
		return s.toolError("release_ingest_file", err), nil
	}

	return mcp.NewToolResultText(s.formatIngestResult(result)), nil
}

func (s *Server) handleIngestDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")

	result, err := s.service.IngestDirectory(ctx, query)
	if err != nil {
		return s.toolError("release_ingest_directory", err), nil
	}

	return mcp.NewToolResultText(s.formatBatchResult(result)), nil
}

func (s *Server) handleFindFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")

	files, err := s.service.FindFiles(ctx, query, 0)
	if err != nil {
		return s.toolError("release_find_files", err), nil
	}

	text := fmt.Sprintf("Found %d release-note PDF(s) in %s\n", len(files), s.service.ArchiveDirectory())
	if query != "" {
		text += fmt.Sprintf("Query: %s\n", query)
	}
	for i, f := range files {
		text += fmt.Sprintf("%d. %s (%d bytes, modified %s)\n", i+1, f.Path, f.Size, f.ModifiedTime)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.service.List(ctx)
	if err != nil {
		return s.toolError("release_list", err), nil
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("The archive is empty. Use release_ingest_file to add release notes."), nil
	}

	text := fmt.Sprintf("Archived release notes (%d):\n", len(notes))
	for i, n := range notes {
		text += fmt.Sprintf("%d. %s - %s, TLS %s, SSH %s, %d entries (from %s, %s)\n",
			i+1, s.config.ServerName, n.Version, n.Security.TLS, n.Security.SSH, n.EntryCount,
			n.SourceName, n.CreatedAt.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version, err := request.RequireString("version")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := s.service.Get(ctx, version)
	if err != nil {
		return s.toolError("release_get", err), nil
	}

	return mcp.NewToolResultText(s.formatNote(note)), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hits, err := s.service.Search(ctx, query)
	if err != nil {
		return s.toolError("release_search", err), nil
	}

	return mcp.NewToolResultText(s.formatSearchHits(query, hits)), nil
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version, err := request.RequireString("version")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.Delete(ctx, version); err != nil {
		return s.toolError("release_delete", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted release note %s", strings.TrimSpace(version))), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.service.Info(ctx)
	if err != nil {
		return s.toolError("release_server_info", err), nil
	}

	return mcp.NewToolResultText(s.formatServerInfo(info)), nil
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.service.Stats(ctx)
	if err != nil {
		return s.toolError("release_stats", err), nil
	}

	return mcp.NewToolResultText(s.formatStats(stats)), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool call failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

// Result formatting helpers

func (s *Server) formatRecord(rec *releasenote.Record) string {
	text := fmt.Sprintf("Version: %s\n", rec.Version)
	text += fmt.Sprintf("TLS (OpenSSL): %s\n", rec.Security.TLS)
	text += fmt.Sprintf("SSH (OpenSSH): %s\n", rec.Security.SSH)
	text += fmt.Sprintf("Entries: %d\n", len(rec.Entries))
	text += formatSection("Improvements", rec.Improvements())
	text += formatSection("Issues", rec.Issues())
	return text
}

func (s *Server) formatIngestResult(result *archive.IngestResult) string {
	if result.Duplicate {
		return fmt.Sprintf("Version %s is already archived (from %s, %s). Nothing was changed; delete it first to re-import.\n",
			result.Note.Version, result.Note.SourceName, result.Note.CreatedAt.Format("2006-01-02 15:04"))
	}

	text := fmt.Sprintf("Archived release note %s (id %s)\n", result.Note.Version, result.Note.ID)
	return text + s.formatRecord(result.Record)
}

func (s *Server) formatBatchResult(result *archive.BatchResult) string {
	text := fmt.Sprintf("Ingested: %d, duplicates: %d, failed: %d\n",
		result.Ingested, result.Duplicates, result.Failed)
	for _, item := range result.Items {
		switch {
		case item.Error != "":
			text += fmt.Sprintf("✗ %s: %s\n", item.File, item.Error)
		case item.Duplicate:
			text += fmt.Sprintf("= %s: version %s already archived\n", item.File, item.Version)
		default:
			text += fmt.Sprintf("✓ %s: version %s, %d entries\n", item.File, item.Version, item.Entries)
		}
	}
	return text
}

func (s *Server) formatNote(note *store.Note) string {
	text := fmt.Sprintf("%s %s release note\n", s.config.ServerName, note.Version)
	text += fmt.Sprintf("Source: %s (archived %s)\n", note.SourceName, note.CreatedAt.Format("2006-01-02 15:04"))
	text += fmt.Sprintf("TLS (OpenSSL): %s\n", note.Security.TLS)
	text += fmt.Sprintf("SSH (OpenSSH): %s\n", note.Security.SSH)

	rec := releasenote.Record{Items: note.Items}
	text += formatSection("Improvements", rec.Improvements())
	text += formatSection("Issues", rec.Issues())
	return text
}

func (s *Server) formatSearchHits(query string, hits []store.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No archived release notes contain every keyword of %q\n", query)
	}

	text := fmt.Sprintf("%d release note(s) match %q\n", len(hits), query)
	for _, hit := range hits {
		text += fmt.Sprintf("\n%s (%d matching entries)\n", hit.Note.Version, len(hit.Matches))
		for _, m := range hit.Matches {
			text += fmt.Sprintf("  • %s\n", m)
		}
	}
	return text
}

func (s *Server) formatServerInfo(info *archive.ServerInfo) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", info.ServerName, info.Version)
	text += fmt.Sprintf("Archive Directory: %s\n", info.ArchiveDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", info.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Product: %s\n", info.Product)
	text += fmt.Sprintf("Archived Notes: %d\n", info.ArchivedNotes)
	text += fmt.Sprintf("Change Labels: %s\n\n", strings.Join(info.ChangeLabels, ", "))

	if len(info.DirectoryContents) > 0 {
		text += fmt.Sprintf("Directory Contents (%d PDF files found):\n", len(info.DirectoryContents))
		for i, file := range info.DirectoryContents {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(info.DirectoryContents)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "Directory Contents: No PDF files found in the archive directory\n\n"
	}

	text += "Available Tools:\n"
	for _, tool := range info.AvailableTools {
		text += fmt.Sprintf("• %s\n  Parameters: %s\n", tool.Name, tool.Parameters)
	}

	text += "\n" + info.UsageGuidance
	return text
}

func (s *Server) formatStats(stats *archive.Stats) string {
	a := stats.Archive
	text := fmt.Sprintf("Archived notes: %d (%d entries)\n", a.Notes, a.Entries)
	if a.NewestVersion != "" {
		text += fmt.Sprintf("Versions: %s to %s\n", a.OldestVersion, a.NewestVersion)
	}
	text += formatTally("Entries by type", a.EntriesByType)
	text += formatTally("OpenSSL versions", a.TLSVersions)
	text += formatTally("OpenSSH versions", a.SSHVersions)

	d := stats.Directory
	text += fmt.Sprintf("\nArchive directory: %s\n", d.Directory)
	text += fmt.Sprintf("PDF files: %d, total %d bytes", d.TotalFiles, d.TotalSize)
	if d.TotalFiles > 0 {
		text += fmt.Sprintf(", average %d bytes\nLargest: %s (%d bytes)\nSmallest: %s (%d bytes)",
			d.AverageFileSize, d.LargestFileName, d.LargestFileSize, d.SmallestFileName, d.SmallestFileSize)
	}
	return text + "\n"
}

func formatTally(title string, counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	text := fmt.Sprintf("\n%s:\n", title)
	if len(keys) == 0 {
		return text + "  (none)\n"
	}
	for _, k := range keys {
		text += fmt.Sprintf("  %s: %d\n", k, counts[k])
	}
	return text
}

func formatSection(title string, entries []string) string {
	text := fmt.Sprintf("\n%s (%d):\n", title, len(entries))
	if len(entries) == 0 {
		return text + "  (none)\n"
	}
	for _, e := range entries {
		text += fmt.Sprintf("  • %s\n", e)
	}
	return text
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx is
// cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP stdio server",
		zap.String("archive_directory", s.service.ArchiveDirectory()))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
