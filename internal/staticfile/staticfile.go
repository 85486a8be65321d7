// Package staticfile serves files from a configured root directory,
// canonicalizing every request path so it can never escape that root —
// whether through ".." segments or a symlink planted inside it — and
// inferring each response's Content-Type from its extension, with content
// sniffing as a fallback for extensions the fixed table doesn't name.
package staticfile

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tomtom215/rxh/internal/shaping"
)

// extensionContentType maps the extensions named explicitly by the static
// file contract to their Content-Type. Anything else falls back to content
// sniffing, and failing that, text/plain.
var extensionContentType = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Server serves files rooted at root. root is made absolute once at
// construction; its symlinks are evaluated again on every request, so each
// request is checked against the root as it is on disk at that moment.
type Server struct {
	root string
}

// New builds a Server rooted at root. root need not exist yet; a later
// ServeHTTP call against a root that has since been removed simply
// produces 404s.
func New(root string) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Server{root: abs}, nil
}

// ServeHTTP resolves the request path against the server root and writes
// the file's content, or a 404 if the path escapes the root, doesn't
// exist, can't be resolved, or isn't a regular file.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolve(r.URL.Path)
	if !ok {
		shaping.WriteNotFound(w)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		shaping.WriteNotFound(w)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		shaping.WriteNotFound(w)
		return
	}

	contentType, err := s.contentType(path, f)
	if err != nil {
		shaping.WriteNotFound(w)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	shaping.StampServer(h)
	http.ServeContent(w, r, path, info.ModTime(), f)
}

// contentType resolves path's Content-Type from its extension, falling back
// to sniffing f's content for any extension not in extensionContentType and
// finally to text/plain. f's read offset is restored to the start before
// returning so the caller can still serve it from the beginning.
func (s *Server) contentType(path string, f *os.File) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extensionContentType[ext]; ok {
		return ct, nil
	}

	mt, err := mimetype.DetectReader(f)
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return "", serr
	}
	if err != nil {
		return "text/plain", nil
	}
	return mt.String(), nil
}

// resolve maps a request path to an absolute filesystem path under s.root,
// rejecting the request if the canonicalized (symlink-evaluated) result
// escapes the root.
func (s *Server) resolve(requestPath string) (string, bool) {
	clean := filepath.Clean("/" + requestPath)
	candidate := filepath.Join(s.root, clean)

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", false
	}
	resolvedRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return "", false
	}

	if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}
