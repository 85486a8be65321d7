// Package proxy implements the forwarder: it opens a connection to a chosen
// backend, replays the inbound request onto it, relays the response back to
// the client, and — when the exchange negotiates a protocol upgrade —
// splices the two raw connections together for the rest of their lifetime.
package proxy

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/rxh/internal/httpwire"
	"github.com/tomtom215/rxh/internal/logging"
	"github.com/tomtom215/rxh/internal/metrics"
	"github.com/tomtom215/rxh/internal/shaping"
)

// DialTimeout bounds how long Forward waits to establish the backend TCP
// connection before treating it as a connect failure.
var DialTimeout = 5 * time.Second

// Request carries the addressing context the router already has at hand so
// the forwarder doesn't need to re-derive it from r.
type Request struct {
	ClientAddr string // client's remote address, e.g. "127.0.0.1:54321"
	ServerAddr string // this listener's local address, used as the Forwarded "by" fallback
	ProxyID    string // optional identifier preferred over ServerAddr in Forwarded
}

// Forward opens a connection to backend, sends r as an HTTP/1.1 request,
// and relays the response to w. A connect failure is handled locally as a
// 502 and never returned as an error. Failures writing the request or
// reading the response head after a successful connect are returned so the
// caller can log them; they are not turned into another response, since
// headers may already be in flight to the client. A failure while copying
// the response body is logged here and not returned.
func Forward(w http.ResponseWriter, r *http.Request, backend string, req Request) error {
	conn, err := net.DialTimeout("tcp", backend, DialTimeout)
	if err != nil {
		metrics.RecordError("io")
		shaping.WriteBadGateway(w)
		return nil
	}

	outReq, err := buildOutboundRequest(r, backend, req)
	if err != nil {
		conn.Close()
		metrics.RecordError("http")
		shaping.WriteBadGateway(w)
		return nil
	}

	if err := outReq.Write(conn); err != nil {
		conn.Close()
		return fmt.Errorf("proxy: write upstream request: %w", err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, outReq)
	if err != nil {
		conn.Close()
		abortClient(w)
		return fmt.Errorf("proxy: read upstream response: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSwitchingProtocols {
		return handleUpgrade(w, r, conn, br, resp)
	}

	shaping.StampServer(w.Header())
	httpwire.CopyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		conn.Close()
		logging.Err(err).Msg("proxy: copying response body")
		return nil
	}
	conn.Close()
	return nil
}

// buildOutboundRequest clones r into a request addressed at backend, strips
// hop-by-hop headers unless the request is negotiating a protocol upgrade
// (in which case Connection/Upgrade must reach the backend intact), and
// extends the Forwarded header.
func buildOutboundRequest(r *http.Request, backend string, req Request) (*http.Request, error) {
	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, "http://"+backend+r.URL.RequestURI(), r.Body)
	if err != nil {
		return nil, err
	}
	httpwire.CopyHeader(outReq.Header, r.Header)
	if !httpwire.IsUpgrade(r.Header) {
		httpwire.StripHopByHop(outReq.Header)
	}
	outReq.Host = r.Host
	outReq.ContentLength = r.ContentLength

	by := req.ProxyID
	if by == "" {
		by = req.ServerAddr
	}
	host := r.Host
	if host == "" {
		host = req.ServerAddr
	}
	shaping.ApplyForwarded(outReq.Header, req.ClientAddr, by, host)
	return outReq, nil
}

// abortClient closes the client connection without writing a response, per
// the mid-stream failure contract: the failure is logged by the caller, not
// escalated into another HTTP response.
func abortClient(w http.ResponseWriter) {
	conn, _, err := httpwire.Hijack(w)
	if err != nil {
		return
	}
	conn.Close()
}

// handleUpgrade relays a 101 response verbatim to the client, then splices
// the client and backend connections together so upgraded-protocol bytes
// (e.g. WebSocket frames) flow untouched in both directions. If the
// original request never asked for an upgrade, a 101 from the backend is a
// protocol error and the client instead receives a 502.
func handleUpgrade(w http.ResponseWriter, r *http.Request, backend net.Conn, backendReader *bufio.Reader, resp *http.Response) error {
	if !httpwire.IsUpgrade(r.Header) {
		backend.Close()
		shaping.WriteBadGateway(w)
		return nil
	}

	clientConn, clientBuf, err := httpwire.Hijack(w)
	if err != nil {
		backend.Close()
		return fmt.Errorf("proxy: hijack client connection for upgrade: %w", err)
	}

	if err := writeStatusLine(clientConn, resp); err != nil {
		clientConn.Close()
		backend.Close()
		return fmt.Errorf("proxy: write upgrade response: %w", err)
	}

	go func() {
		if err := httpwire.Splice(backend, backendReader, clientConn, clientBuf.Reader); err != nil {
			logging.Err(err).Msg("proxy: upgrade tunnel closed")
		}
	}()
	return nil
}

func writeStatusLine(w io.Writer, resp *http.Response) error {
	statusText := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", resp.StatusCode, statusText); err != nil {
		return err
	}
	if err := resp.Header.Write(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
