package staticfile

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustWrite(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestServeHTTPReturnsFileContent(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "index.html", "<html><body>hi</body></html>")

	srv, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Body.String() != "<html><body>hi</body></html>" {
		t.Fatalf("got body %q", rec.Body.String())
	}
	if rec.Header().Get("Server") == "" {
		t.Fatal("expected Server header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Fatalf("got Content-Type %q, want text/html", ct)
	}
}

func TestServeHTTPSetsContentTypeByExtension(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "style.css", "body { color: red; }")
	mustWrite(t, dir, "app.js", "console.log('hi');")
	mustWrite(t, dir, "pixel.png", "\x89PNG\r\n\x1a\n")
	mustWrite(t, dir, "photo.jpeg", "\xff\xd8\xff")
	mustWrite(t, dir, "notes.txt", "plain text")

	srv, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		path string
		want string
	}{
		{"/style.css", "text/css"},
		{"/app.js", "application/javascript"},
		{"/pixel.png", "image/png"},
		{"/photo.jpeg", "image/jpeg"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got status %d", c.path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != c.want {
			t.Fatalf("%s: got Content-Type %q, want %q", c.path, ct, c.want)
		}
	}

	// An extension outside the fixed table falls back to sniffing, and
	// content sniffed as plain text still reports some form of text/plain.
	req := httptest.NewRequest(http.MethodGet, "/notes.txt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/notes.txt: got status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("/notes.txt: got Content-Type %q, want a text/plain variant", ct)
	}
}

func TestServeHTTPRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "index.html", "ok")

	srv, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/../../../etc/passwd", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}

func TestServeHTTPRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	srv, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/nope.txt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}

func TestServeHTTPRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	srv, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sub", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404 for a directory path", rec.Code)
	}
}

func TestServeHTTPRejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	mustWrite(t, outside, "secret.txt", "top secret")

	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	srv, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/link.txt", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404 for symlink escaping root", rec.Code)
	}
}
