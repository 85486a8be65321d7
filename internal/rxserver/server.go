// Package rxserver implements the per-listener Server instance: it owns a
// TCP listener, a connection-count semaphore, a notifier for draining
// in-flight requests, and the state latch that reports what the listener
// is doing right now.
package rxserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/rxh/internal/logging"
	"github.com/tomtom215/rxh/internal/metrics"
	"github.com/tomtom215/rxh/internal/notifier"
	"github.com/tomtom215/rxh/internal/rxerr"
)

// Kind identifies which state the latch currently holds.
type Kind int

// Latch states, progressing monotonically except Listening <-> MaxConnectionsReached.
const (
	Starting Kind = iota
	Listening
	MaxConnectionsReached
	ShuttingDownPending
	ShuttingDownDone
)

// State is a snapshot of the Server's latch. N carries the max-connections
// cap for MaxConnectionsReached and the pending-connection count for
// ShuttingDownPending; it is meaningless for the other kinds.
type State struct {
	Kind Kind
	N    int
}

// Server owns one listener and its accept loop: a connection semaphore
// bounds concurrency, a Notifier drains in-flight handlers on shutdown, and
// a single-writer state latch reports progress.
type Server struct {
	listener net.Listener
	handler  http.Handler
	sem      *semaphore.Weighted
	maxConns int64
	active   atomic.Int64
	notifier *notifier.Notifier
	logName  string

	stateMu sync.RWMutex
	state   State
}

// New binds listenAddr and returns a Server ready to Serve. handler serves
// every accepted connection; maxConns bounds how many may be live at once.
func New(listenAddr string, handler http.Handler, maxConns uint, logName string) (*Server, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, rxerr.IO("listen "+listenAddr, err)
	}
	if maxConns == 0 {
		maxConns = 1
	}
	return &Server{
		listener: ln,
		handler:  handler,
		sem:      semaphore.NewWeighted(int64(maxConns)),
		maxConns: int64(maxConns),
		notifier: notifier.New(),
		logName:  logName,
		state:    State{Kind: Starting},
	}, nil
}

// Addr returns the listener's actual local address (useful when listenAddr
// used port 0).
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close closes the underlying listener out of band from ctx cancellation,
// which makes the in-flight Accept in acceptLoop fail and Serve return that
// error. Exported for tests that need to exercise the accept-error path
// without waiting on a real socket fault.
func (s *Server) Close() error {
	return s.listener.Close()
}

// State returns the latch's latest published value. Callers should treat it
// as "latest known", not necessarily current.
func (s *Server) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Server) publish(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// Serve accepts connections until ctx is cancelled, then drains in-flight
// handlers before returning. A nil error means a clean shutdown; any other
// error means the accept loop failed and the caller (Master) should treat
// this listener as down.
func (s *Server) Serve(ctx context.Context) error {
	logging.Info().Msgf("%s => Listening for requests", s.logName)
	s.publish(State{Kind: Listening})

	errCh := make(chan error, 1)
	go s.acceptLoop(ctx, errCh)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msgf("%s => Received shutdown signal", s.logName)
	s.listener.Close()

	n, err := s.notifier.Send(notifier.Shutdown)
	if err == nil && n > 0 {
		s.publish(State{Kind: ShuttingDownPending, N: n})
		logging.Info().Msgf("%s => Can't shutdown yet, %d pending connections", s.logName, n)
		s.notifier.CollectAcknowledgements()
	}

	s.publish(State{Kind: ShuttingDownDone})
	logging.Info().Msgf("%s => Shutdown complete", s.logName)
	return nil
}

// acceptLoop publishes MaxConnectionsReached whenever the semaphore is
// momentarily exhausted, blocks on the next permit, republishes Listening
// once one frees up, then accepts and spawns a per-connection task.
func (s *Server) acceptLoop(ctx context.Context, errCh chan<- error) {
	needRepublish := false
	for {
		if !s.sem.TryAcquire(1) {
			s.publish(State{Kind: MaxConnectionsReached, N: int(s.maxConns)})
			logging.Info().Msgf("%s => Reached max connections: %d", s.logName, s.maxConns)
			needRepublish = true

			if err := s.sem.Acquire(ctx, 1); err != nil {
				return
			}
		}

		if needRepublish {
			s.publish(State{Kind: Listening})
			logging.Info().Msgf("%s => Accepting connections again", s.logName)
			needRepublish = false
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.sem.Release(1)
			select {
			case <-ctx.Done():
				return
			default:
			}
			errCh <- rxerr.IO("accept on "+s.logName, err)
			return
		}

		sub := s.notifier.Subscribe()
		go s.serve(conn, sub)
	}
}

// serve runs the HTTP engine over a single accepted connection until it
// closes (which may span several keep-alive requests), then releases its
// semaphore permit and resolves its shutdown subscription.
func (s *Server) serve(conn net.Conn, sub *notifier.Subscription) {
	s.active.Add(1)
	metrics.SetActiveConnections(s.logName, int(s.active.Load()))

	defer func() {
		if n, ok := sub.Poll(); ok && n == notifier.Shutdown {
			sub.Acknowledge()
		} else {
			sub.Close()
		}
		s.active.Add(-1)
		metrics.SetActiveConnections(s.logName, int(s.active.Load()))
		s.sem.Release(1)
	}()

	ln := newOneConnListener(conn)
	httpSrv := &http.Server{
		Handler: s.handler,
		ConnState: func(_ net.Conn, st http.ConnState) {
			if st == http.StateClosed || st == http.StateHijacked {
				ln.Close()
			}
		},
	}
	_ = httpSrv.Serve(ln)
}

// oneConnListener adapts a single already-accepted net.Conn into a
// net.Listener so http.Server.Serve can drive it through its normal
// keep-alive request loop; Accept returns that one connection once, then
// blocks until Close.
type oneConnListener struct {
	ch     chan net.Conn
	closed chan struct{}
	addr   net.Addr
}

func newOneConnListener(conn net.Conn) *oneConnListener {
	ch := make(chan net.Conn, 1)
	ch <- conn
	return &oneConnListener{ch: ch, closed: make(chan struct{}), addr: conn.LocalAddr()}
}

func (l *oneConnListener) Accept() (net.Conn, error) {
	select {
	case conn, ok := <-l.ch:
		if !ok {
			return nil, fmt.Errorf("rxserver: connection already served")
		}
		return conn, nil
	case <-l.closed:
		return nil, fmt.Errorf("rxserver: listener closed")
	}
}

func (l *oneConnListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *oneConnListener) Addr() net.Addr {
	return l.addr
}
