package proxy

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// echoBackend runs a minimal HTTP/1.1 server on a loopback port that
// responds with the request's Forwarded header in its body, so forwarding
// can be asserted without pulling in net/http/httptest's client-server
// plumbing (which would hide the raw wire behavior Forward relies on).
func echoBackend(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, err := http.ReadRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}
		body := req.Header.Get("Forwarded")
		fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Length: %d\r\nContent-Type: text/plain\r\n\r\n%s", len(body), body)
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestForwardAddsForwardedHeaderAndRelaysResponse(t *testing.T) {
	backend := echoBackend(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:5000"
	rec := httptest.NewRecorder()

	err := Forward(rec, r, backend, Request{ClientAddr: "127.0.0.1:5000", ServerAddr: "127.0.0.1:9000"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}

	want := "for=127.0.0.1:5000;by=127.0.0.1:9000;host="
	if got := rec.Body.String(); got[:len(want)] != want {
		t.Fatalf("got body %q", got)
	}
}

func TestForwardReturns502OnConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := Forward(rec, r, addr, Request{ClientAddr: "127.0.0.1:1", ServerAddr: "127.0.0.1:2"}); err != nil {
		t.Fatalf("Forward returned error instead of handling locally: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got status %d, want 502", rec.Code)
	}
	if rec.Body.String() != "HTTP 502 BAD GATEWAY" {
		t.Fatalf("got body %q", rec.Body.String())
	}
}

func TestForwardRejects101WithoutUpgradeRequest(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadString('\n')
		fmt.Fprint(conn, "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n")
	}()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := Forward(rec, r, ln.Addr().String(), Request{ClientAddr: "x", ServerAddr: "y"}); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got status %d, want 502 for unsolicited upgrade", rec.Code)
	}
}

func init() {
	DialTimeout = 2 * time.Second
}
