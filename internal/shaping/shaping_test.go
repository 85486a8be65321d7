package shaping

import (
	"net/http/httptest"
	"testing"
)

func TestForwardedNoExisting(t *testing.T) {
	got := Forwarded("", "127.0.0.1:5000", "127.0.0.1:8080", "example.com")
	want := "for=127.0.0.1:5000;by=127.0.0.1:8080;host=example.com"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestForwardedAppendsToExisting(t *testing.T) {
	existing := "for=10.0.0.1;by=gw1;host=a.test"
	got := Forwarded(existing, "127.0.0.1:5000", "127.0.0.1:8080", "example.com")
	want := existing + ", for=127.0.0.1:5000;by=127.0.0.1:8080;host=example.com"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWriteNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotFound(rec)
	if rec.Code != 404 {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Body.String() != NotFoundBody {
		t.Fatalf("got body %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain" {
		t.Fatalf("unexpected content-type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Server") == "" {
		t.Fatal("expected Server header to be set")
	}
}

func TestWriteBadGateway(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteBadGateway(rec)
	if rec.Code != 502 {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Body.String() != BadGatewayBody {
		t.Fatalf("got body %q", rec.Body.String())
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3")
	if ServerHeaderValue != "rxh/1.2.3" {
		t.Fatalf("got %q", ServerHeaderValue)
	}
	SetVersion("")
	if ServerHeaderValue != "rxh/dev" {
		t.Fatalf("got %q", ServerHeaderValue)
	}
}
