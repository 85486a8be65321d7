package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/rxh/internal/config"
)

func TestNewRejectsInvalidScheduler(t *testing.T) {
	srv := config.Server{
		Listen: []string{"127.0.0.1:0"},
		URI:    "/",
		Forward: &config.Forward{
			Backends: nil,
		},
	}
	if _, err := New(srv, "127.0.0.1:0", "127.0.0.1:0"); err == nil {
		t.Fatal("expected error building scheduler with no backends")
	}
}

func TestServeHTTPDispatchesToStaticFileRoute(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	srv := config.Server{
		Listen: []string{"127.0.0.1:0"},
		URI:    "/static",
		Serve:  dir,
	}
	h, err := New(srv, "127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/static/index.html", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Body.String() != "hi" {
		t.Fatalf("got body %q", rec.Body.String())
	}
}

func TestServeHTTPReturns404WhenNoPatternMatches(t *testing.T) {
	srv := config.Server{
		Listen: []string{"127.0.0.1:0"},
		URI:    "/only-this",
		Serve:  t.TempDir(),
	}
	h, err := New(srv, "127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/elsewhere", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}

func TestNewGeneratesProxyIDWhenUnset(t *testing.T) {
	srv := config.Server{
		Listen: []string{"127.0.0.1:0"},
		URI:    "/",
		Forward: &config.Forward{
			Backends: []config.Backend{{Address: "127.0.0.1:1", Weight: 1}},
		},
	}
	h, err := New(srv, "127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.routes[0].proxyID == "" {
		t.Fatal("expected a generated proxyID when Forward.ProxyID is unset")
	}

	h2, err := New(srv, "127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.routes[0].proxyID == h2.routes[0].proxyID {
		t.Fatal("expected each New call to generate a distinct proxyID")
	}
}

func TestNewKeepsConfiguredProxyID(t *testing.T) {
	srv := config.Server{
		Listen: []string{"127.0.0.1:0"},
		URI:    "/",
		Forward: &config.Forward{
			Backends: []config.Backend{{Address: "127.0.0.1:1", Weight: 1}},
			ProxyID:  "edge-1",
		},
	}
	h, err := New(srv, "127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.routes[0].proxyID != "edge-1" {
		t.Fatalf("got proxyID %q, want configured value %q", h.routes[0].proxyID, "edge-1")
	}
}

func TestServeHTTPPicksFirstMatchingPattern(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	os.WriteFile(filepath.Join(dirA, "f.txt"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(dirB, "f.txt"), []byte("b"), 0o644)

	srv := config.Server{
		Listen: []string{"127.0.0.1:0"},
		Match: []config.Pattern{
			{URI: "/shared", Serve: dirA},
			{URI: "/shared/sub", Serve: dirB},
		},
	}
	h, err := New(srv, "127.0.0.1:0", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/shared/sub/f.txt", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != "a" {
		t.Fatalf("expected first matching pattern (/shared) to win, got %q", rec.Body.String())
	}
}
