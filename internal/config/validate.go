package config

import (
	"fmt"

	"github.com/tomtom215/rxh/internal/validation"
)

// checkShapes enforces the exactly-one-of rules the declarative shape
// can't express as plain struct tags: exactly one of the multi-pattern
// (match) and simple (uri/forward/serve) shapes per server, and within the
// simple shape and every match entry, exactly one of forward/serve.
func (c *Config) checkShapes() error {
	for i := range c.Server {
		s := &c.Server[i]

		simple := s.isSimple()
		multi := len(s.Match) > 0

		switch {
		case simple && multi:
			return errAmbiguousShape
		case !simple && !multi:
			return errMissingShape
		case simple:
			if err := checkDestination(s.Forward, s.Serve); err != nil {
				return err
			}
		case multi:
			for _, p := range s.Match {
				if err := checkDestination(p.Forward, p.Serve); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkDestination(forward *Forward, serve string) error {
	hasForward := forward != nil && len(forward.Backends) > 0
	hasServe := serve != ""
	if hasForward == hasServe {
		return errAmbiguousDest
	}
	return nil
}

// Validate checks by hand that every server has at least one listen
// address and that no listen address repeats across servers and the admin
// block, and runs go-playground/validator field constraints over every
// backend and the admin block, after checkShapes has confirmed the overall
// document shape is sane. The validate tags on Server are not applied.
func (c *Config) Validate() error {
	if len(c.Server) == 0 {
		return fmt.Errorf("config: at least one [[server]] block is required")
	}
	seenListen := make(map[string]int)
	for i := range c.Server {
		s := &c.Server[i]
		if len(s.Listen) == 0 {
			return fmt.Errorf("config: server %d: 'listen' is required", i)
		}
		for _, addr := range s.Listen {
			if first, ok := seenListen[addr]; ok {
				return fmt.Errorf("config: server %d: 'listen' address %q already used by server %d", i, addr, first)
			}
			seenListen[addr] = i
		}
		for _, p := range s.Patterns() {
			if p.Forward == nil {
				continue
			}
			for _, b := range p.Forward.Backends {
				if verr := validation.ValidateStruct(&b); verr != nil {
					return fmt.Errorf("config: server %d: backend %q: %w", i, b.Address, verr)
				}
			}
		}
	}
	if c.Admin != nil {
		if verr := validation.ValidateStruct(c.Admin); verr != nil {
			return fmt.Errorf("config: admin: %w", verr)
		}
		if first, ok := seenListen[c.Admin.Listen]; ok {
			return fmt.Errorf("config: admin: 'listen' address %q already used by server %d", c.Admin.Listen, first)
		}
	}
	return nil
}
