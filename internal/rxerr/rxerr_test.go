package rxerr

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Config("parse", errors.New("bad toml"))
	kind, ok := KindOf(err)
	if !ok || kind != KindConfig {
		t.Fatalf("got kind=%v ok=%v", kind, ok)
	}
}

func TestNilPassthrough(t *testing.T) {
	if IO("op", nil) != nil {
		t.Fatal("expected nil")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := HTTP("roundtrip", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through the wrapper")
	}
}
