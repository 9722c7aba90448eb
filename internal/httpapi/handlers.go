package httpapi

import (
	"encoding/json"
	"errors"
	"io/fs"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/archive"
	"github.com/a3tai/mcp-release-notes/internal/pdf"
	"github.com/a3tai/mcp-release-notes/internal/pdf/security"
	"github.com/a3tai/mcp-release-notes/internal/store"
)

// formField is the multipart field carrying uploaded documents
const formField = "file"

// multipart parts above this stay on disk while parsing
const formMemory = 8 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResult struct {
	File      string      `json:"file"`
	Note      *store.Note `json:"note,omitempty"`
	Duplicate bool        `json:"duplicate"`
	Error     string      `json:"error,omitempty"`
}

type listResponse struct {
	Count int          `json:"count"`
	Notes []store.Note `json:"notes"`
}

type searchResponse struct {
	Query string            `json:"query"`
	Count int               `json:"count"`
	Hits  []store.SearchHit `json:"hits"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Info(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	notes, err := s.service.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if notes == nil {
		notes = []store.Note{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Count: len(notes), Notes: notes})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	note, err := s.service.Get(r.Context(), chi.URLParam(r, "version"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "version")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	hits, err := s.service.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if hits == nil {
		hits = []store.SearchHit{}
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Query: query, Count: len(hits), Hits: hits})
}

// handleParse returns what the extractor reads from one uploaded document
// without archiving it
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	files, ok := s.uploadedFiles(w, r)
	if !ok {
		return
	}
	if len(files) != 1 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exactly one file is required"})
		return
	}

	f, err := files[0].Open()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	rec, err := s.service.ParseUpload(r.Context(), files[0].Filename, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// handleIngest archives every uploaded document. A single upload maps its
// outcome onto the status code; a batch always answers 200 with per-file
// results.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	files, ok := s.uploadedFiles(w, r)
	if !ok {
		return
	}

	if len(files) == 1 {
		res, err := s.ingest(r, files[0])
		if err != nil {
			s.writeError(w, err)
			return
		}
		status := http.StatusCreated
		if res.Duplicate {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, uploadResult{File: files[0].Filename, Note: res.Note, Duplicate: res.Duplicate})
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		res, err := s.ingest(r, fh)
		if err != nil {
			results = append(results, uploadResult{File: fh.Filename, Error: err.Error()})
			continue
		}
		results = append(results, uploadResult{File: fh.Filename, Note: res.Note, Duplicate: res.Duplicate})
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) ingest(r *http.Request, fh *multipart.FileHeader) (*archive.IngestResult, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.service.IngestUpload(r.Context(), fh.Filename, f)
}

func (s *Server) uploadedFiles(w http.ResponseWriter, r *http.Request) ([]*multipart.FileHeader, bool) {
	if s.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: pdf.ErrFileTooLarge.Error()})
			return nil, false
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected a multipart/form-data body: " + err.Error()})
		return nil, false
	}

	files := r.MultipartForm.File[formField]
	if len(files) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no " + formField + " part in the form"})
		return nil, false
	}
	return files, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateVersion):
		return http.StatusConflict
	case errors.Is(err, pdf.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, security.ErrOutsideArchive):
		return http.StatusForbidden
	case errors.Is(err, pdf.ErrNotPDF),
		errors.Is(err, pdf.ErrEmptyFile),
		errors.Is(err, pdf.ErrInvalidStructure),
		errors.Is(err, pdf.ErrUnreadable),
		errors.Is(err, archive.ErrEmptyQuery),
		errors.Is(err, archive.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
