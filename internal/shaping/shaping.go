// Package shaping implements the small request/response transformations
// every response passes through regardless of whether it came from a
// backend or the static file server: the Forwarded header appended to
// outgoing upstream requests, the Server header stamped on every
// response, and the canned error bodies for 404/502.
package shaping

import (
	"fmt"
	"net/http"
)

// ServerHeaderValue is the process-wide identifier stamped into every
// response's Server header.
var ServerHeaderValue = "rxh/dev"

// SetVersion sets the version segment of ServerHeaderValue. Call this once
// at startup; cmd/rxh does so with the build version.
func SetVersion(version string) {
	if version == "" {
		version = "dev"
	}
	ServerHeaderValue = "rxh/" + version
}

// StampServer sets the Server header on an outgoing response.
func StampServer(h http.Header) {
	h.Set("Server", ServerHeaderValue)
}

// Forwarded builds the value to append to an outgoing upstream request's
// Forwarded header: "for=<clientAddr>;by=<by>;host=<host>". If the inbound
// request already carried a Forwarded header, the new segment is appended
// after ", " rather than replacing it, preserving the chain through any
// prior hops.
func Forwarded(existing, clientAddr, by, host string) string {
	segment := fmt.Sprintf("for=%s;by=%s;host=%s", clientAddr, by, host)
	if existing == "" {
		return segment
	}
	return existing + ", " + segment
}

// ApplyForwarded sets the Forwarded header on an outgoing upstream request,
// extending any value already present on the inbound request.
func ApplyForwarded(h http.Header, clientAddr, by, host string) {
	h.Set("Forwarded", Forwarded(h.Get("Forwarded"), clientAddr, by, host))
}

// NotFoundBody is the canned body written for 404 responses.
const NotFoundBody = "HTTP 404 NOT FOUND"

// BadGatewayBody is the canned body written for 502 responses.
const BadGatewayBody = "HTTP 502 BAD GATEWAY"

// WriteNotFound writes a 404 response with the canned plain-text body and
// the Server header stamped.
func WriteNotFound(w http.ResponseWriter) {
	writeCanned(w, http.StatusNotFound, NotFoundBody)
}

// WriteBadGateway writes a 502 response with the canned plain-text body
// and the Server header stamped.
func WriteBadGateway(w http.ResponseWriter) {
	writeCanned(w, http.StatusBadGateway, BadGatewayBody)
}

func writeCanned(w http.ResponseWriter, status int, body string) {
	h := w.Header()
	h.Set("Content-Type", "text/plain")
	StampServer(h)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
