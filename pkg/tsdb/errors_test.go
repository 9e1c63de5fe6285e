package tsdb

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := newError("open", "/tmp/x.enod").Format("bad header").Cause(io.ErrUnexpectedEOF).Err()

	msg := err.Error()
	for _, part := range []string{"open", "/tmp/x.enod", "bad header", io.ErrUnexpectedEOF.Error()} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}
}

func TestError_MatchesKindAndCause(t *testing.T) {
	err := newError("get", "p").IO(io.ErrUnexpectedEOF).Err()

	if !errors.Is(err, ErrIO) {
		t.Error("errors.Is(err, ErrIO) = false")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is(err, cause) = false")
	}
	if IsFormat(err) || IsNotFound(err) || IsOutOfOrder(err) {
		t.Error("error matched an unrelated kind")
	}

	var e *Error
	if !errors.As(err, &e) || e.Op != "get" {
		t.Errorf("errors.As() = %+v", e)
	}
}

func TestError_DefaultsToIO(t *testing.T) {
	err := newError("sync", "p").Err()
	if !IsIO(err) {
		t.Errorf("error without a kind = %v, want ErrIO", err)
	}
}

func TestOutOfOrderError(t *testing.T) {
	var err error = &OutOfOrderError{Timestamp: 5, Max: 10}

	if !errors.Is(err, ErrOutOfOrder) {
		t.Error("OutOfOrderError should match ErrOutOfOrder")
	}
	if got := err.Error(); !strings.Contains(got, "5") || !strings.Contains(got, "10") {
		t.Errorf("Error() = %q", got)
	}
}
