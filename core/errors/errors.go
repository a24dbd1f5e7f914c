package errors

import "errors"

type Category string

const (
	CategoryInvalidInput        Category = "invalid_input"
	CategoryMissingInput        Category = "missing_input"
	CategoryMalformedRecord     Category = "malformed_record"
	CategoryStructuralAmbiguity Category = "structural_ambiguity"
	CategoryVerification        Category = "verification_failed"
	CategoryIOFailure           Category = "io_failure"
	CategoryInternalFailure     Category = "internal_failure"
)

type classifiedError struct {
	category Category
	code     string
	hint     string
	fatal    bool
	cause    error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

func (e *classifiedError) Category() Category {
	return e.category
}

func (e *classifiedError) Code() string {
	return e.code
}

func (e *classifiedError) Hint() string {
	return e.hint
}

func (e *classifiedError) Fatal() bool {
	return e.fatal
}

// Wrap classifies a cause for exit-code mapping and output envelopes.
// Fatal errors abort the run; non-fatal ones are recovered locally and
// surface as warnings in command output.
func Wrap(cause error, category Category, code, hint string, fatal bool) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{
		category: category,
		code:     code,
		hint:     hint,
		fatal:    fatal,
		cause:    cause,
	}
}

func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

func CodeOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}

func HintOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.hint
	}
	return ""
}

func FatalOf(err error) bool {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.fatal
	}
	return true
}
