package pdf

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/mcp-release-notes/internal/pdf/security"
)

// FileInfo describes a release-note PDF found in the archive directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Search discovers release-note PDFs under the archive directory
type Search struct {
	validator *Validator
	paths     *security.PathValidator
}

// NewSearch creates a search handler confined to the validator's archive root
func NewSearch(validator *Validator, paths *security.PathValidator) *Search {
	return &Search{
		validator: validator,
		paths:     paths,
	}
}

// FindDocuments walks the archive directory for PDFs whose file name
// contains every word of query. Hidden directories are skipped, as are
// files that fail the size and extension checks. A limit of 0 means no limit.
func (s *Search) FindDocuments(ctx context.Context, query string, limit int) ([]FileInfo, error) {
	root := s.paths.Root()
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("cannot access archive directory: %w", err)
	}

	terms := splitIntoWords(strings.ToLower(query))
	files := []FileInfo{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Continue walking past unreadable entries
			return nil
		}

		within, err := s.paths.IsPathWithinDirectory(path)
		if err != nil || !within {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		if !isPDFFile(d.Name()) || !matchesQuery(d.Name(), terms) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking archive directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isPDFFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func matchesQuery(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, term := range terms {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// splitIntoWords splits on whitespace and the separators common in release
// note file names
func splitIntoWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '_', '-', '.':
			return true
		}
		return false
	})
}
