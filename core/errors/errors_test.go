package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(nil, CategoryInvalidInput, "code", "hint", true); err != nil {
		t.Fatalf("wrap nil: expected nil got %v", err)
	}
}

func TestClassifiedAccessors(t *testing.T) {
	cause := fmt.Errorf("session log not found")
	err := Wrap(cause, CategoryMissingInput, "log_missing", "check the session id and workspace hash", true)

	if got := CategoryOf(err); got != CategoryMissingInput {
		t.Fatalf("category: expected %s got %s", CategoryMissingInput, got)
	}
	if got := CodeOf(err); got != "log_missing" {
		t.Fatalf("code: expected log_missing got %s", got)
	}
	if got := HintOf(err); got != "check the session id and workspace hash" {
		t.Fatalf("hint mismatch: %s", got)
	}
	if !FatalOf(err) {
		t.Fatalf("expected fatal classification")
	}
	if err.Error() != cause.Error() {
		t.Fatalf("error text: expected %q got %q", cause.Error(), err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach cause")
	}
}

func TestNonFatalClassification(t *testing.T) {
	err := Wrap(fmt.Errorf("bad line"), CategoryMalformedRecord, "record_undecodable", "", false)
	if FatalOf(err) {
		t.Fatalf("malformed record should classify non-fatal")
	}
}

func TestUnclassifiedDefaults(t *testing.T) {
	plain := fmt.Errorf("plain failure")
	if got := CategoryOf(plain); got != "" {
		t.Fatalf("expected empty category for unclassified error, got %s", got)
	}
	if got := CodeOf(plain); got != "" {
		t.Fatalf("expected empty code for unclassified error, got %s", got)
	}
	if !FatalOf(plain) {
		t.Fatalf("unclassified errors default to fatal")
	}
}
