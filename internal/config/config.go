// Package config decodes and validates the proxy's declarative
// configuration: one or more [[server]] blocks, each either a single
// pattern (uri/forward/serve at the top level) or a multi-pattern block
// built from [[server.match]] entries.
package config

import "fmt"

// Config is the top-level decoded configuration tree.
type Config struct {
	Server []Server `koanf:"server"`
	Admin  *Admin   `koanf:"admin"`
}

// Admin configures the optional observability surface (/metrics, /healthz).
// A nil Admin means the surface is disabled.
type Admin struct {
	Listen string `koanf:"listen" validate:"required,hostname_port"`
}

// Server is a single listener and its routing configuration. Exactly one of
// the simple shape (URI/Forward/Serve set directly) or the multi-pattern
// shape (Match non-empty) may be used.
type Server struct {
	Listen      []string `koanf:"listen" validate:"required,min=1,dive,hostname_port"`
	Name        string   `koanf:"name"`
	Connections uint     `koanf:"connections"`

	// Simple shape.
	URI     string   `koanf:"uri"`
	Forward *Forward `koanf:"forward"`
	Serve   string   `koanf:"serve"`

	// Multi-pattern shape.
	Match []Pattern `koanf:"match"`
}

// Pattern is a single URI prefix and its destination, used both for the
// simple shape (implicitly, as a single synthesized Pattern) and the
// [[server.match]] multi-pattern shape.
type Pattern struct {
	URI     string   `koanf:"uri"`
	Forward *Forward `koanf:"forward"`
	Serve   string   `koanf:"serve"`
}

// Forward describes a set of backends and the algorithm used to schedule
// requests across them.
type Forward struct {
	Algorithm string    `koanf:"algorithm"`
	Backends  []Backend `koanf:"backends"`

	// ProxyID overrides the Forwarded header's "by" value for requests
	// routed through this pattern. Left empty, the router generates a
	// stable identifier once at startup so multiple instances of this
	// proxy behind the same backend can still be told apart in logs.
	ProxyID string `koanf:"proxy_id"`
}

// Backend is a single upstream origin. Weight defaults to 1 when the TOML
// source supplies a bare address string instead of a table.
type Backend struct {
	Address string `koanf:"address" validate:"required,hostname_port"`
	Weight  int    `koanf:"weight" validate:"gte=1"`
}

const (
	defaultConnections = 1024
	defaultURI         = "/"
)

// Errors enforcing the parser rules from the configuration shape, worded
// exactly as the contract requires so callers can match on them.
var (
	errAmbiguousShape = fmt.Errorf("either use 'match' for multiple patterns or describe a single pattern")
	errAmbiguousDest  = fmt.Errorf("use either 'forward' or 'serve', if you need multiple patterns use 'match'")
	errMissingShape   = fmt.Errorf("missing 'match' or simple configuration")
)

// Patterns returns the effective list of patterns for a Server, whichever
// shape it was declared in. It assumes Normalize has already run.
func (s Server) Patterns() []Pattern {
	if len(s.Match) > 0 {
		return s.Match
	}
	return []Pattern{{URI: s.URI, Forward: s.Forward, Serve: s.Serve}}
}

// isSimple reports whether the server declares URI/Forward/Serve directly.
func (s Server) isSimple() bool {
	return s.URI != "" || s.Forward != nil || s.Serve != ""
}

// Normalize applies parser-level sugar and defaults: a missing simple URI
// defaults to "/", a missing Connections defaults to 1024. It does not run
// validation; call Validate afterward.
func (c *Config) Normalize() {
	for i := range c.Server {
		s := &c.Server[i]
		if s.Connections == 0 {
			s.Connections = defaultConnections
		}
		if len(s.Match) == 0 && s.isSimple() && s.URI == "" {
			s.URI = defaultURI
		}
		for j := range s.Match {
			if s.Match[j].URI == "" {
				s.Match[j].URI = defaultURI
			}
		}
	}
}
