package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/descriptions"
	"github.com/a3tai/mcp-release-notes/internal/pdf"
	"github.com/a3tai/mcp-release-notes/internal/store"
)

const (
	infoFileLimit   = 100
	infoScanTimeout = 10 * time.Second
	infoCacheTTL    = 5 * time.Minute
)

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}

// ServerInfo describes the server, its archive and its tools
type ServerInfo struct {
	ServerName        string         `json:"server_name"`
	Version           string         `json:"version"`
	ArchiveDirectory  string         `json:"archive_directory"`
	MaxFileSize       int64          `json:"max_file_size"`
	ArchivedNotes     int            `json:"archived_notes"`
	Product           string         `json:"product"`
	ChangeLabels      []string       `json:"change_labels"`
	AvailableTools    []ToolInfo     `json:"available_tools"`
	DirectoryContents []pdf.FileInfo `json:"directory_contents"`
	FromCache         bool           `json:"from_cache"`
	UsageGuidance     string         `json:"usage_guidance"`
}

// scanCache keeps the last archive directory listing for a TTL
type scanCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	files      []pdf.FileInfo
	lastUpdate time.Time
}

func newScanCache(ttl time.Duration) *scanCache {
	return &scanCache{ttl: ttl}
}

func (c *scanCache) get() ([]pdf.FileInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files == nil || time.Since(c.lastUpdate) > c.ttl {
		return nil, false
	}
	return c.files, true
}

func (c *scanCache) set(files []pdf.FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = files
	c.lastUpdate = time.Now()
}

// Info reports server settings, the number of archived notes and the
// documents waiting in the archive directory
func (s *Service) Info(ctx context.Context) (*ServerInfo, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count archived notes: %w", err)
	}

	files, fromCache := s.scanCache.get()
	if !fromCache {
		scanCtx := ctx
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			scanCtx, cancel = context.WithTimeout(ctx, infoScanTimeout)
			defer cancel()
		}

		files, err = s.search.FindDocuments(scanCtx, "", infoFileLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A slow or unreadable directory should not hide the rest of the info
			s.logger.Warn("archive directory scan failed", zap.Error(err))
			files = []pdf.FileInfo{}
		} else {
			s.scanCache.set(files)
		}
	}

	vocab := s.engine.Vocabulary()
	labels := make([]string, 0, len(vocab.ChangeKinds))
	for _, kind := range vocab.ChangeKinds {
		labels = append(labels, kind.Label)
	}

	return &ServerInfo{
		ServerName:        s.cfg.ServerName,
		Version:           s.cfg.Version,
		ArchiveDirectory:  s.pathValidator.Root(),
		MaxFileSize:       s.cfg.MaxFileSize,
		ArchivedNotes:     count,
		Product:           vocab.ProductName,
		ChangeLabels:      labels,
		AvailableTools:    availableTools(),
		DirectoryContents: files,
		FromCache:         fromCache,
		UsageGuidance:     usageGuidance(),
	}, nil
}

// Stats pairs the archive statistics with a size summary of the archive
// directory
type Stats struct {
	Archive   *store.Stats       `json:"archive"`
	Directory pdf.DirectoryStats `json:"directory"`
}

// Stats summarises the archived notes and the PDFs in the archive directory
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	archived, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute archive statistics: %w", err)
	}

	files, err := s.search.FindDocuments(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive directory: %w", err)
	}

	return &Stats{
		Archive:   archived,
		Directory: pdf.SummarizeFiles(s.pathValidator.Root(), files),
	}, nil
}

func availableTools() []ToolInfo {
	names := descriptions.GetAllToolNames()
	tools := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
			Parameters:  descriptions.GetToolParameters(name),
		})
	}
	return tools
}

func usageGuidance() string {
	return `Release-note archive workflow:

1. release_find_files lists the PDFs in the archive directory.
2. release_parse_file previews what the extractor reads from one document.
3. release_ingest_file (or release_ingest_directory for a batch) archives documents under their product version.
4. release_list, release_get and release_search read the archive; release_stats summarises it.
5. release_delete removes a version so a corrected document can be re-imported.

Paths are relative to the archive directory. Documents over the size limit are rejected.`
}
