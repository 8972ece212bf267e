package cuss

import (
	"errors"
	"strings"
	"testing"
)

func TestNewDefaultsToCatalogSeverity(t *testing.T) {
	c := New(SerUnknownMnemonic, "unknown mnemonic %q", "FOOP")
	if c.Severity != Fatal {
		t.Fatalf("expected Fatal, got %v", c.Severity)
	}
	if !strings.Contains(c.Message, "FOOP") {
		t.Fatalf("expected formatted message, got %q", c.Message)
	}
}

func TestWarningSeverityOverride(t *testing.T) {
	c := New(SerExtendTolerated, "tolerated")
	if c.Severity != Warning {
		t.Fatalf("expected Warning, got %v", c.Severity)
	}
}

func TestWrapCapturesError(t *testing.T) {
	inner := errors.New("boom")
	c := Wrap(SerStructural, inner, "reading %s", "FOO.agc")
	if c.Err != inner {
		t.Fatalf("expected wrapped error to be preserved")
	}
	if !strings.Contains(c.String(), "boom") {
		t.Fatalf("expected String() to include the wrapped error, got %q", c.String())
	}
}

func TestWithContextAppends(t *testing.T) {
	c := New(SerMultiplyDefined, "redefined")
	c = c.WithContext("first defined at FOO.agc:1")
	if len(c.Context) != 1 {
		t.Fatalf("expected one context entry, got %v", c.Context)
	}
	if !strings.Contains(c.String(), "first defined at FOO.agc:1") {
		t.Fatalf("expected String() to include context, got %q", c.String())
	}
}

func TestIsFatal(t *testing.T) {
	warn := New(SerExtendTolerated, "tolerated")
	fatal := New(SerUnknownMnemonic, "unknown")

	if IsFatal([]Cuss{warn}) {
		t.Fatalf("expected only-warnings slice to not be fatal")
	}
	if !IsFatal([]Cuss{warn, fatal}) {
		t.Fatalf("expected mixed slice to be fatal")
	}
	if IsFatal(nil) {
		t.Fatalf("expected empty slice to not be fatal")
	}
}
