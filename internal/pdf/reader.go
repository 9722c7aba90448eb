package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/releasenote"
)

// ErrUnreadable is returned when a document cannot be decoded at all
var ErrUnreadable = errors.New("document could not be decoded")

// Reader opens PDF documents for the extraction engine
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a new PDF reader
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// OpenFile decodes a PDF on disk. The returned document keeps the file open
// until Close is called.
func (r *Reader) OpenFile(path string) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return newDocument(path, reader, f, r.logger), nil
}

// OpenBytes decodes a PDF held in memory
func (r *Reader) OpenBytes(name string, data []byte) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	return newDocument(name, reader, nil, r.logger), nil
}

// Document is an opened PDF. It implements releasenote.Document.
type Document struct {
	name   string
	reader *pdf.Reader
	closer io.Closer
	logger *zap.Logger
	pages  []releasenote.Page
}

func newDocument(name string, reader *pdf.Reader, closer io.Closer, logger *zap.Logger) *Document {
	d := &Document{name: name, reader: reader, closer: closer, logger: logger}
	for i := 1; i <= reader.NumPage(); i++ {
		d.pages = append(d.pages, newPage(i, reader, logger))
	}
	return d
}

// Name returns the file name or upload name the document was opened from
func (d *Document) Name() string {
	return d.name
}

// NumPages returns the number of pages in the document
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Pages returns the pages in document order
func (d *Document) Pages() []releasenote.Page {
	return d.pages
}

// Close releases the underlying file, if any
func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}
