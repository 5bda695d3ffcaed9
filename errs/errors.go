// Package errs defines the single error taxonomy shared by every component:
// AST/validator, path resolver, evaluators, and storage adapters. It has no
// dependency on any other package in this module so that every layer,
// including the AST itself, can return typed errors without import cycles.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which of the four failure families an Error belongs to,
// plus the specific case within it.
type Kind string

const (
	// ValidationError cases.
	KindUnknownOperator             Kind = "unknown_operator"
	KindOperatorNotSupportedByBackend Kind = "operator_not_supported_by_backend"
	KindValueShapeMismatch          Kind = "value_shape_mismatch"
	KindEmptyGroup                  Kind = "empty_group"
	KindInvalidNot                  Kind = "invalid_not"
	KindInvalidPaging                Kind = "invalid_paging"
	KindDepthExceeded                Kind = "depth_exceeded"
	KindMalformedPath                Kind = "malformed_path"

	// ResolutionError cases.
	KindUnknownField      Kind = "unknown_field"
	KindInvalidLeaf       Kind = "invalid_leaf"
	KindAmbiguousRelation Kind = "ambiguous_relation"

	// BackendError cases.
	KindTranslationFailed Kind = "translation_failed"
	KindExecutionFailed   Kind = "execution_failed"

	// RuntimeError cases (memory evaluator only).
	KindInvalidRegex  Kind = "invalid_regex"
	KindTypeMismatch  Kind = "type_mismatch"
)

// Family is one of the four top-level failure families errors are
// classified under.
type Family string

const (
	FamilyValidation Family = "validation"
	FamilyResolution Family = "resolution"
	FamilyBackend    Family = "backend"
	FamilyRuntime    Family = "runtime"
)

var familyOf = map[Kind]Family{
	KindUnknownOperator:                FamilyValidation,
	KindOperatorNotSupportedByBackend:  FamilyValidation,
	KindValueShapeMismatch:             FamilyValidation,
	KindEmptyGroup:                     FamilyValidation,
	KindInvalidNot:                     FamilyValidation,
	KindInvalidPaging:                  FamilyValidation,
	KindDepthExceeded:                  FamilyValidation,
	KindMalformedPath:                  FamilyValidation,
	KindUnknownField:                   FamilyResolution,
	KindInvalidLeaf:                    FamilyResolution,
	KindAmbiguousRelation:              FamilyResolution,
	KindTranslationFailed:              FamilyBackend,
	KindExecutionFailed:                FamilyBackend,
	KindInvalidRegex:                   FamilyRuntime,
	KindTypeMismatch:                   FamilyRuntime,
}

// Error is the single typed-error shape used across the module: a
// Kind/Message/Field/Cause core extended with operator and fuzzy-suggestion
// context.
type Error struct {
	Kind       Kind
	Message    string
	Field      string
	Operator   string
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Operator != "" {
		base = fmt.Sprintf("%s (operator=%s)", base, e.Operator)
	}
	if e.Suggestion != "" {
		base = fmt.Sprintf("%s (did you mean %q?)", base, e.Suggestion)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error { return e.Cause }

// Family reports which of the four top-level failure families this error
// belongs to.
func (e *Error) Family() Family { return familyOf[e.Kind] }

// New constructs an Error with no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error carrying an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
