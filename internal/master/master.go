// Package master fans out one rxserver.Server per (server config, listen
// replica) pair under a suture supervisor tree. An error from any one
// listener unwinds the whole tree and is returned from Master.Serve, and a
// single shutdown context stops every listener together.
package master

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/rxh/internal/config"
	"github.com/tomtom215/rxh/internal/logging"
	"github.com/tomtom215/rxh/internal/router"
	"github.com/tomtom215/rxh/internal/rxserver"
)

// Spec configures a Master.
type Spec struct {
	// FailureThreshold/FailureDecay/FailureBackoff/Timeout tune the root
	// suture.Supervisor's restart policy; zero values take suture's
	// defaults.
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	Timeout          time.Duration
}

// Master owns the root supervisor and every rxserver.Server it has fanned
// out. Build one with New, add listeners with Build, then Serve.
type Master struct {
	root    *suture.Supervisor
	servers []*rxserver.Server
}

// terminating wraps a suture.Service so that any error it returns unwinds
// the whole tree instead of triggering suture's default per-service
// restart-with-backoff. An rxserver.Server's Serve only ever returns once
// its listener is unusable (e.g. a non-transient accept error), and at that
// point restarting it in place would just re-invoke Serve on the same
// broken listener — the failure has to propagate to Master.Serve instead.
type terminating struct {
	suture.Service
}

func (t terminating) Serve(ctx context.Context) error {
	err := t.Service.Serve(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", suture.ErrTerminateSupervisorTree, err)
	}
	return nil
}

// New builds a Master with its root supervisor wired to log restart/failure
// events through the shared zerolog logger via a slog adapter.
func New(spec Spec) *Master {
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	root := suture.New("rxh", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: spec.FailureThreshold,
		FailureDecay:     spec.FailureDecay,
		FailureBackoff:   spec.FailureBackoff,
		Timeout:          spec.Timeout,
	})
	return &Master{root: root}
}

// Build instantiates one rxserver.Server per (Server config, listen
// replica) pair from cfg and adds each to the supervisor tree, along with
// the admin surface if cfg.Admin is set. It must be called before Serve.
func Build(m *Master, cfg *config.Config, adminHandler http.Handler) error {
	for _, srvCfg := range cfg.Server {
		for _, listenAddr := range srvCfg.Listen {
			logName := srvCfg.Name
			if logName == "" {
				logName = listenAddr
			}

			h, err := router.New(srvCfg, listenAddr, listenAddr)
			if err != nil {
				return fmt.Errorf("master: build router for %s: %w", logName, err)
			}

			s, err := rxserver.New(listenAddr, h, srvCfg.Connections, logName)
			if err != nil {
				return fmt.Errorf("master: bind listener %s: %w", listenAddr, err)
			}

			m.servers = append(m.servers, s)
			m.root.Add(terminating{s})
		}
	}

	if cfg.Admin != nil && adminHandler != nil {
		s, err := rxserver.New(cfg.Admin.Listen, adminHandler, 64, "admin")
		if err != nil {
			return fmt.Errorf("master: bind admin listener: %w", err)
		}
		m.servers = append(m.servers, s)
		m.root.Add(terminating{s})
	}

	return nil
}

// Servers returns every rxserver.Server the Master is supervising, in the
// order they were added. Useful for tests and for admin/healthz reporting.
func (m *Master) Servers() []*rxserver.Server {
	return m.servers
}

// Healthy returns false once any supervised listener has begun draining
// for shutdown, and true otherwise (including while listeners are still
// starting). Satisfies admin.HealthReporter.
func (m *Master) Healthy() bool {
	for _, s := range m.servers {
		switch s.State().Kind {
		case rxserver.ShuttingDownPending, rxserver.ShuttingDownDone:
			return false
		}
	}
	return true
}

// Serve runs every listener until ctx is cancelled or one exits with an
// error that terminates the whole tree, then waits for the rest to drain.
// It returns the first such error, or nil on a clean shutdown.
func (m *Master) Serve(ctx context.Context) error {
	err := m.root.Serve(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
