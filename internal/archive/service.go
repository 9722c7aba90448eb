// Package archive ties PDF decoding, release-note extraction and storage
// together behind the operations the transports expose.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/pdf"
	"github.com/a3tai/mcp-release-notes/internal/pdf/security"
	"github.com/a3tai/mcp-release-notes/internal/releasenote"
	"github.com/a3tai/mcp-release-notes/internal/store"
)

var (
	// ErrEmptyQuery is returned by Search when the query holds no keywords
	ErrEmptyQuery = errors.New("search query cannot be empty")
	// ErrInvalidArgument marks a blank version or upload name
	ErrInvalidArgument = errors.New("invalid argument")
)

// Config holds the service settings taken from the server configuration
type Config struct {
	ServerName       string
	Version          string
	ArchiveDirectory string
	MaxFileSize      int64
}

// IngestResult is the outcome of archiving one document. A duplicate version
// is reported with the note already in the archive.
type IngestResult struct {
	Record    *releasenote.Record `json:"record"`
	Note      *store.Note         `json:"note"`
	Duplicate bool                `json:"duplicate"`
}

// BatchItem is the outcome for one file of a directory ingest
type BatchItem struct {
	File      string `json:"file"`
	Version   string `json:"version,omitempty"`
	Entries   int    `json:"entries"`
	Duplicate bool   `json:"duplicate"`
	Error     string `json:"error,omitempty"`
}

// BatchResult summarises a directory ingest
type BatchResult struct {
	Items      []BatchItem `json:"items"`
	Ingested   int         `json:"ingested"`
	Duplicates int         `json:"duplicates"`
	Failed     int         `json:"failed"`
}

// Service handles release-note operations by orchestrating the PDF,
// extraction and storage components
type Service struct {
	cfg           Config
	reader        *pdf.Reader
	validator     *pdf.Validator
	search        *pdf.Search
	pathValidator *security.PathValidator
	engine        *releasenote.Engine
	store         store.Store
	scanCache     *scanCache
	logger        *zap.Logger
}

// NewService creates a new archive service with all components
func NewService(cfg Config, engine *releasenote.Engine, st store.Store, logger *zap.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("extraction engine cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pathValidator, err := security.NewPathValidator(cfg.ArchiveDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if err := pathValidator.EnsureRoot(); err != nil {
		return nil, err
	}

	validator := pdf.NewValidator(cfg.MaxFileSize)
	return &Service{
		cfg:           cfg,
		reader:        pdf.NewReader(logger),
		validator:     validator,
		search:        pdf.NewSearch(validator, pathValidator),
		pathValidator: pathValidator,
		engine:        engine,
		store:         st,
		scanCache:     newScanCache(infoCacheTTL),
		logger:        logger,
	}, nil
}

// ArchiveDirectory returns the absolute archive directory
func (s *Service) ArchiveDirectory() string {
	return s.pathValidator.Root()
}

// ParseFile parses a release-note PDF inside the archive directory without
// storing it
func (s *Service) ParseFile(ctx context.Context, path string) (*releasenote.Record, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateFile(resolved); err != nil {
		return nil, err
	}

	doc, err := s.reader.OpenFile(resolved)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return s.parse(doc)
}

// ParseUpload parses an uploaded release note without storing it
func (s *Service) ParseUpload(ctx context.Context, name string, r io.Reader) (*releasenote.Record, error) {
	name, data, err := s.readUpload(name, r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.reader.OpenBytes(name, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return s.parse(doc)
}

// IngestFile parses a release-note PDF inside the archive directory and
// archives it
func (s *Service) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	rec, err := s.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, rec, filepath.Base(path))
}

// IngestUpload parses an uploaded release note and archives it. Uploads
// larger than the configured size limit are rejected before decoding.
func (s *Service) IngestUpload(ctx context.Context, name string, r io.Reader) (*IngestResult, error) {
	rec, err := s.ParseUpload(ctx, name, r)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, rec, filepath.Base(name))
}

// IngestDirectory archives every PDF in the archive directory whose name
// matches query. Per-file failures are recorded and do not stop the batch.
func (s *Service) IngestDirectory(ctx context.Context, query string) (*BatchResult, error) {
	files, err := s.search.FindDocuments(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Items: []BatchItem{}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item := BatchItem{File: f.Path}
		res, err := s.IngestFile(ctx, f.Path)
		switch {
		case err != nil:
			item.Error = err.Error()
			result.Failed++
			s.logger.Warn("failed to ingest release note", zap.String("file", f.Path), zap.Error(err))
		case res.Duplicate:
			item.Version = res.Record.Version
			item.Entries = len(res.Record.Entries)
			item.Duplicate = true
			result.Duplicates++
		default:
			item.Version = res.Record.Version
			item.Entries = len(res.Record.Entries)
			result.Ingested++
		}
		result.Items = append(result.Items, item)
	}

	s.logger.Info("directory ingest finished",
		zap.Int("ingested", result.Ingested),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed))
	return result, nil
}

// FindFiles lists release-note PDFs in the archive directory
func (s *Service) FindFiles(ctx context.Context, query string, limit int) ([]pdf.FileInfo, error) {
	return s.search.FindDocuments(ctx, query, limit)
}

// List returns every archived note, newest version first
func (s *Service) List(ctx context.Context) ([]store.Note, error) {
	return s.store.List(ctx)
}

// Get returns one archived note in full
func (s *Service) Get(ctx context.Context, version string) (*store.Note, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, fmt.Errorf("%w: version cannot be empty", ErrInvalidArgument)
	}
	return s.store.Get(ctx, version)
}

// Search splits query on whitespace and returns the notes containing every
// keyword
func (s *Service) Search(ctx context.Context, query string) ([]store.SearchHit, error) {
	keywords := releasenote.DedupStrings(strings.Fields(query))
	if len(keywords) == 0 {
		return nil, ErrEmptyQuery
	}
	return s.store.Search(ctx, keywords)
}

// Delete removes an archived note
func (s *Service) Delete(ctx context.Context, version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return fmt.Errorf("%w: version cannot be empty", ErrInvalidArgument)
	}
	if err := s.store.Delete(ctx, version); err != nil {
		return err
	}
	s.logger.Info("release note deleted", zap.String("version", version))
	return nil
}

func (s *Service) parse(doc *pdf.Document) (*releasenote.Record, error) {
	rec, err := s.engine.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", doc.Name(), err)
	}

	s.logger.Debug("parsed release note",
		zap.String("source", doc.Name()),
		zap.Int("pages", doc.NumPages()),
		zap.String("version", rec.Version),
		zap.Int("entries", len(rec.Entries)))
	return rec, nil
}

func (s *Service) save(ctx context.Context, rec *releasenote.Record, sourceName string) (*IngestResult, error) {
	note, err := s.store.Save(ctx, rec, sourceName)
	if errors.Is(err, store.ErrDuplicateVersion) {
		existing, getErr := s.store.Get(ctx, rec.Version)
		if getErr != nil {
			return nil, fmt.Errorf("duplicate version %s: %w", rec.Version, getErr)
		}
		s.logger.Info("release note already archived",
			zap.String("version", rec.Version),
			zap.String("source", sourceName))
		return &IngestResult{Record: rec, Note: existing, Duplicate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", sourceName, err)
	}

	s.logger.Info("release note archived",
		zap.String("version", note.Version),
		zap.String("source", sourceName),
		zap.Int("entries", note.EntryCount))
	return &IngestResult{Record: rec, Note: note}, nil
}

func (s *Service) readUpload(name string, r io.Reader) (string, []byte, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", nil, fmt.Errorf("%w: upload name cannot be empty", ErrInvalidArgument)
	}

	limit := s.cfg.MaxFileSize
	var buf bytes.Buffer
	var err error
	if limit > 0 {
		_, err = io.Copy(&buf, io.LimitReader(r, limit+1))
	} else {
		_, err = io.Copy(&buf, r)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload %s: %w", name, err)
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return "", nil, fmt.Errorf("%w: %s exceeds %d bytes", pdf.ErrFileTooLarge, name, limit)
	}

	data := buf.Bytes()
	if err := s.validator.ValidateBytes(name, data); err != nil {
		return "", nil, err
	}
	return name, data, nil
}
