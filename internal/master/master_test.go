package master

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/rxh/internal/config"
)

func TestBuildCreatesOneServerPerListenReplica(t *testing.T) {
	cfg := &config.Config{
		Server: []config.Server{
			{
				Listen:      []string{"127.0.0.1:0", "127.0.0.1:0"},
				Connections: 8,
				URI:         "/",
				Serve:       t.TempDir(),
			},
		},
	}

	m := New(Spec{})
	if err := Build(m, cfg, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Servers()) != 2 {
		t.Fatalf("got %d servers, want 2 (one per listen replica)", len(m.Servers()))
	}
}

func TestBuildAddsAdminServerWhenConfigured(t *testing.T) {
	cfg := &config.Config{
		Server: []config.Server{
			{Listen: []string{"127.0.0.1:0"}, URI: "/", Serve: t.TempDir()},
		},
		Admin: &config.Admin{Listen: "127.0.0.1:0"},
	}

	m := New(Spec{})
	if err := Build(m, cfg, http.NewServeMux()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Servers()) != 2 {
		t.Fatalf("got %d servers, want 2 (one proxy listener + admin)", len(m.Servers()))
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	cfg := &config.Config{
		Server: []config.Server{
			{Listen: []string{"127.0.0.1:0"}, URI: "/", Serve: t.TempDir()},
		},
	}

	m := New(Spec{})
	if err := Build(m, cfg, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after context cancellation")
	}
}

// TestServePropagatesAcceptError verifies that a real accept failure on one
// listener unwinds the whole tree instead of being silently retried by
// suture's default restart-with-backoff, and that Master.Serve surfaces it.
func TestServePropagatesAcceptError(t *testing.T) {
	cfg := &config.Config{
		Server: []config.Server{
			{Listen: []string{"127.0.0.1:0"}, URI: "/", Serve: t.TempDir()},
		},
	}

	m := New(Spec{})
	if err := Build(m, cfg, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	if err := m.Servers()[0].Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Serve returned nil, want the propagated accept error")
		}
		if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
			t.Fatalf("Serve error %v does not wrap suture.ErrTerminateSupervisorTree", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after the listener's accept error")
	}
}
