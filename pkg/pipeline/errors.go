package pipeline

import (
	"github.com/nikogura/cv-convert/pkg/cvtext"
	"github.com/nikogura/cv-convert/pkg/docx"
	"github.com/nikogura/cv-convert/pkg/llm"
	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is an error that did not come from the pipeline.
	KindUnknown Kind = iota
	// KindPrecondition is a missing or invalid input detected before any delegate runs.
	KindPrecondition
	// KindExtraction is unreadable CV data.
	KindExtraction
	// KindService is a failed language model exchange.
	KindService
	// KindTemplate is a missing, malformed or unwritable template.
	KindTemplate
	// KindMerge is a failure while writing values into the template.
	KindMerge
)

func (k Kind) String() (name string) {
	switch k {
	case KindPrecondition:
		name = "precondition"
	case KindExtraction:
		name = "extraction"
	case KindService:
		name = "service"
	case KindTemplate:
		name = "template"
	case KindMerge:
		name = "merge"
	default:
		name = "unknown"
	}
	return name
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() (msg string) {
	msg = e.Kind.String() + ": " + e.Err.Error()
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() (err error) {
	err = e.Err
	return err
}

func newError(kind Kind, err error) (pErr *Error) {
	pErr = &Error{Kind: kind, Err: err}
	return pErr
}

func preconditionf(format string, args ...interface{}) (pErr *Error) {
	pErr = newError(KindPrecondition, errors.Errorf(format, args...))
	return pErr
}

// KindOf classifies err. A pipeline Error keeps its kind; otherwise the delegate error types decide.
func KindOf(err error) (kind Kind) {
	if err == nil {
		return kind
	}

	var pErr *Error
	if errors.As(err, &pErr) {
		kind = pErr.Kind
		return kind
	}

	var extractionErr *cvtext.ExtractionError
	var serviceErr *llm.ServiceError
	var templateErr *docx.TemplateError
	switch {
	case errors.As(err, &extractionErr):
		kind = KindExtraction
	case errors.As(err, &serviceErr):
		kind = KindService
	case errors.As(err, &templateErr):
		kind = KindTemplate
	}

	return kind
}

// classify wraps err with its own kind, or fallback when it has none.
func classify(err error, fallback Kind) (pErr *Error) {
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = fallback
	}
	pErr = newError(kind, err)
	return pErr
}
