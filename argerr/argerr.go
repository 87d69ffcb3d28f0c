// Package argerr defines the error kinds shared by the typarg packages.
//
// Four kinds exist. Definition and ValidatorInit errors are raised while a
// command is being compiled and are always fatal to program startup.
// Conversion and Validation errors are raised while parsing and are reported
// to the end user as diagnostics before the process exits non-zero. No kind
// is ever recovered internally.
package argerr

import "fmt"

// Kind represents the type of argument error.
type Kind int

const (
	KindDefinition Kind = iota
	KindValidatorInit
	KindConversion
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition error"
	case KindValidatorInit:
		return "validator init error"
	case KindConversion:
		return "conversion error"
	case KindValidation:
		return "validation error"
	default:
		return "unknown error"
	}
}

// Exit codes:
//
//	Exit 1: Developer errors, fatal at startup
//	  - Definition errors (contradictory field declarations)
//	  - Validator init errors (inconsistent validator bounds)
//
//	Exit 2: User input errors
//	  - Conversion errors (token does not match the field grammar)
//	  - Validation errors (converted value violates a constraint)
var exitCodes = map[Kind]int{
	KindDefinition:    1,
	KindValidatorInit: 1,
	KindConversion:    2,
	KindValidation:    2,
}

// Error is the error type surfaced by every typarg package.
type Error struct {
	Kind    Kind
	Field   string // declared field name, when known
	Message string
	Err     error // underlying cause, when any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("'%s' - %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code appropriate for this error.
func (e *Error) ExitCode() int {
	if code, ok := exitCodes[e.Kind]; ok {
		return code
	}
	return 1
}

// WithField returns a copy of e attributed to the named field.
func (e *Error) WithField(name string) *Error {
	clone := *e
	clone.Field = name
	return &clone
}

// Verify Error implements the error interface.
var _ error = (*Error)(nil)

// Definition reports a self-contradictory field declaration.
func Definition(format string, args ...any) *Error {
	return &Error{Kind: KindDefinition, Message: fmt.Sprintf(format, args...)}
}

// ValidatorInit reports an invalid validator configuration. The validator
// name is prepended so the developer can tell which constructor failed.
func ValidatorInit(validator, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if validator != "" {
		msg = fmt.Sprintf("%s - %s", validator, msg)
	}
	return &Error{Kind: KindValidatorInit, Message: msg}
}

// Conversion reports a raw token that does not match the expected grammar.
// The offending text and the grammar description are both kept on the error.
func Conversion(raw, expected string) *Error {
	return &Error{
		Kind:    KindConversion,
		Message: fmt.Sprintf("invalid value '%s', expected %s", raw, expected),
	}
}

// Conversionf reports a conversion failure with a free-form message.
func Conversionf(format string, args ...any) *Error {
	return &Error{Kind: KindConversion, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a converted value that violates a semantic constraint.
func Validation(validator, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if validator != "" {
		msg = fmt.Sprintf("%s: %s", validator, msg)
	}
	return &Error{Kind: KindValidation, Message: msg}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// IsDefinition reports whether err is a definition error.
func IsDefinition(err error) bool { return IsKind(err, KindDefinition) }

// IsConversion reports whether err is a conversion error.
func IsConversion(err error) bool { return IsKind(err, KindConversion) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
