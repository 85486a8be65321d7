// Package httpwire holds the small net/http helpers shared by the router and
// proxy forwarder: hop-by-hop header stripping, upgrade detection, and the
// connection hijack/splice used once a 101 response has round-tripped.
package httpwire

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"strings"
)

// hopByHop lists the headers that apply to a single transport hop and must
// not be forwarded verbatim to the next one (RFC 7230 §6.1), plus the
// historical Proxy-Connection some clients still send.
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// StripHopByHop deletes the hop-by-hop headers from h, including any headers
// the Connection header nominates by name, in place.
func StripHopByHop(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			h.Del(strings.TrimSpace(name))
		}
	}
	for _, name := range hopByHop {
		h.Del(name)
	}
}

// CopyHeader appends every value of every header in src to dst.
func CopyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

// IsUpgrade reports whether h carries a Connection: Upgrade request asking
// for a protocol switch.
func IsUpgrade(h http.Header) bool {
	if h.Get("Upgrade") == "" {
		return false
	}
	for _, v := range h.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "Upgrade") {
				return true
			}
		}
	}
	return false
}

// Hijack takes over the underlying TCP connection of w, returning the raw
// net.Conn and any data already buffered by the server's reader.
func Hijack(w http.ResponseWriter) (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, nil, ErrNotHijackable
	}
	return hj.Hijack()
}

// ErrNotHijackable is returned by Hijack when the ResponseWriter does not
// support hijacking.
var ErrNotHijackable = httpwireError("httpwire: response writer does not support hijacking")

type httpwireError string

func (e httpwireError) Error() string { return string(e) }

// Splice copies bytes bidirectionally between two half-connections until
// either side closes, then closes both. aSrc and bSrc are normally a and b
// themselves, but may instead be the buffered readers returned alongside a
// hijacked connection so that bytes already read into that buffer aren't
// lost. Splice blocks until both copy directions have finished and returns
// the first non-EOF error observed, if any.
func Splice(a net.Conn, aSrc io.Reader, b net.Conn, bSrc io.Reader) error {
	errc := make(chan error, 2)
	go func() {
		_, err := io.Copy(b, aSrc)
		b.Close()
		errc <- err
	}()
	go func() {
		_, err := io.Copy(a, bSrc)
		a.Close()
		errc <- err
	}()

	var first error
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil && first == nil {
			first = err
		}
	}
	return first
}
