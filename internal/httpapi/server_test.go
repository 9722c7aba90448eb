package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-release-notes/internal/archive"
	"github.com/a3tai/mcp-release-notes/internal/releasenote"
	"github.com/a3tai/mcp-release-notes/internal/store"
)

func releaseNotePDF(version string) []byte {
	lines := []string{
		"TrusGuard v" + version + " Release Note",
		"OpenSSL 3.0.13",
		"OpenSSH 9.3p2",
		"[Improvement] SSL VPN connection stability improved",
	}

	var content bytes.Buffer
	content.WriteString("BT\n/F1 11 Tf\n16 TL\n1 0 0 1 72 760 Tm\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", line)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func newTestServer(t *testing.T, maxFileSize int64) *Server {
	t.Helper()
	engine, err := releasenote.NewEngine()
	require.NoError(t, err)

	svc, err := archive.NewService(archive.Config{
		ServerName:       "mcp-release-notes",
		Version:          "test",
		ArchiveDirectory: t.TempDir(),
		MaxFileSize:      maxFileSize,
	}, engine, store.OpenMemory(t), nil)
	require.NoError(t, err)

	s, err := NewServer("127.0.0.1:0", svc, maxFileSize, nil)
	require.NoError(t, err)
	return s
}

type upload struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(formField, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(":0", nil, 0, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReleaseLifecycle(t *testing.T) {
	s := newTestServer(t, 0)

	body, ct := multipartBody(t, upload{"TrusGuard_v3.1.0.pdf", releaseNotePDF("3.1.0")})
	rec := do(t, s, http.MethodPost, "/api/releases", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[uploadResult](t, rec)
	assert.False(t, created.Duplicate)
	require.NotNil(t, created.Note)
	assert.Equal(t, "3.1.0", created.Note.Version)
	assert.Equal(t, "TrusGuard_v3.1.0.pdf", created.Note.SourceName)

	body, ct = multipartBody(t, upload{"again.pdf", releaseNotePDF("3.1.0")})
	rec = do(t, s, http.MethodPost, "/api/releases", body, ct)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, decode[uploadResult](t, rec).Duplicate)

	rec = do(t, s, http.MethodGet, "/api/releases", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResponse](t, rec)
	assert.Equal(t, 1, list.Count)

	rec = do(t, s, http.MethodGet, "/api/releases/3.1.0", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	note := decode[store.Note](t, rec)
	assert.Equal(t, releasenote.SecurityComponents{TLS: "3.0.13", SSH: "9.3p2"}, note.Security)
	assert.NotEmpty(t, note.RawText)

	rec = do(t, s, http.MethodGet, "/api/search?q=VPN+stability", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[searchResponse](t, rec)
	assert.Equal(t, 1, found.Count)

	rec = do(t, s, http.MethodGet, "/api/search?q=firewall", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[searchResponse](t, rec).Count)

	rec = do(t, s, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[archive.Stats](t, rec)
	assert.Equal(t, 1, stats.Archive.Notes)
	assert.Equal(t, "3.1.0", stats.Archive.NewestVersion)

	rec = do(t, s, http.MethodDelete, "/api/releases/3.1.0", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/releases/3.1.0", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/releases/3.1.0", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchUpload(t *testing.T) {
	s := newTestServer(t, 0)

	body, ct := multipartBody(t,
		upload{"a.pdf", releaseNotePDF("3.0.1")},
		upload{"b.pdf", releaseNotePDF("3.0.2")},
		upload{"b-copy.pdf", releaseNotePDF("3.0.2")},
		upload{"notes.txt", []byte("plain text")},
	)
	rec := do(t, s, http.MethodPost, "/api/releases", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := decode[[]uploadResult](t, rec)
	require.Len(t, results, 4)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].Error)
	assert.True(t, results[2].Duplicate)
	assert.NotEmpty(t, results[3].Error)
}

func TestParseDoesNotArchive(t *testing.T) {
	s := newTestServer(t, 0)

	body, ct := multipartBody(t, upload{"preview.pdf", releaseNotePDF("3.2.0")})
	rec := do(t, s, http.MethodPost, "/api/parse", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	parsed := decode[releasenote.Record](t, rec)
	assert.Equal(t, "3.2.0", parsed.Version)

	rec = do(t, s, http.MethodGet, "/api/releases", nil, "")
	assert.Zero(t, decode[listResponse](t, rec).Count)
}

func TestErrorStatuses(t *testing.T) {
	data := releaseNotePDF("3.3.0")
	s := newTestServer(t, int64(len(data)-1))

	tests := []struct {
		name   string
		method string
		target string
		files  []upload
		raw    string
		want   int
	}{
		{name: "too large", method: http.MethodPost, target: "/api/releases", files: []upload{{"big.pdf", data}}, want: http.StatusRequestEntityTooLarge},
		{name: "not a pdf", method: http.MethodPost, target: "/api/releases", files: []upload{{"notes.docx", []byte("x")}}, want: http.StatusBadRequest},
		{name: "broken pdf", method: http.MethodPost, target: "/api/parse", files: []upload{{"broken.pdf", []byte("%PDF-1.4 garbage")}}, want: http.StatusBadRequest},
		{name: "two files to parse", method: http.MethodPost, target: "/api/parse", files: []upload{{"a.pdf", []byte("x")}, {"b.pdf", []byte("x")}}, want: http.StatusBadRequest},
		{name: "no file part", method: http.MethodPost, target: "/api/releases", files: []upload{}, want: http.StatusBadRequest},
		{name: "not multipart", method: http.MethodPost, target: "/api/releases", raw: "{}", want: http.StatusBadRequest},
		{name: "empty search", method: http.MethodGet, target: "/api/search?q=", want: http.StatusBadRequest},
		{name: "unknown version", method: http.MethodGet, target: "/api/releases/9.9.9", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			switch {
			case tt.files != nil:
				body, ct := multipartBody(t, tt.files...)
				rec = do(t, s, tt.method, tt.target, body, ct)
			case tt.raw != "":
				rec = do(t, s, tt.method, tt.target, bytes.NewBufferString(tt.raw), "application/json")
			default:
				rec = do(t, s, tt.method, tt.target, nil, "")
			}
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, 1<<20)
	rec := do(t, s, http.MethodGet, "/api/info", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[archive.ServerInfo](t, rec)
	assert.Equal(t, "mcp-release-notes", info.ServerName)
	assert.NotEmpty(t, info.AvailableTools)
}

func TestServe_Shutdown(t *testing.T) {
	s := newTestServer(t, 0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
