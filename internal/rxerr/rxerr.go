// Package rxerr tags errors by the subsystem that produced them — I/O,
// config, or HTTP — so callers and metrics can tell them apart without
// string matching, while still composing with errors.Is/As through %w
// wrapping.
package rxerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by the subsystem that produced it.
type Kind string

// Error kinds.
const (
	KindIO     Kind = "io"
	KindConfig Kind = "config"
	KindHTTP   Kind = "http"
)

// Error is a taxonomy-tagged error wrapping an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IO wraps err as an I/O error (socket bind/accept/read/write, file read).
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// Config wraps err as a configuration parse/semantic error.
func Config(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// HTTP wraps err as an HTTP codec error.
func HTTP(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindHTTP, Op: op, Err: err}
}

// As reports whether err (or an error it wraps) is an *Error, and if so
// returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it (or a wrapped cause) is a tagged
// *Error, and ok=false otherwise. Useful for metrics labeling.
func KindOf(err error) (Kind, bool) {
	if e, ok := As(err); ok {
		return e.Kind, true
	}
	return "", false
}
