// Package validate provides the post-conversion constraint checks that can
// be attached to a compiled field.
//
// A validator is pure: it sees one successfully converted value and either
// accepts it or returns a validation error. Constructors check their own
// configuration eagerly and fail with an init error when the bounds are
// inconsistent. The confirmation validator is the one exception to purity:
// it reads a single line of interactive input.
package validate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/descriptor"
)

// Validator checks one converted value. Check is never invoked on a value
// whose conversion failed.
type Validator interface {
	Check(value any) error
}

// I returns a pointer to an int bound.
func I(v int) *int { return &v }

// F returns a pointer to a float bound.
func F(v float64) *float64 { return &v }

// S returns a pointer to a string bound.
func S(v string) *string { return &v }

// Must panics on a constructor error, for declaration blocks where an init
// failure is fatal anyway.
func Must(v Validator, err error) Validator {
	if err != nil {
		panic(err)
	}
	return v
}

type lengthValidator struct {
	min, max *int
}

// NewLength validates string length against optional bounds. At least one
// bound is mandatory and min must stay below max.
func NewLength(min, max *int) (Validator, error) {
	if min == nil && max == nil {
		return nil, argerr.ValidatorInit("LengthValidator", "invalid range provided")
	}
	if min != nil && max != nil && *min >= *max {
		return nil, argerr.ValidatorInit("LengthValidator", "invalid range provided")
	}
	return &lengthValidator{min: min, max: max}, nil
}

func (v *lengthValidator) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		return argerr.Validation("LengthValidator", "expected 'str' value, found '%T'", value)
	}
	n := len(s)
	switch {
	case v.min != nil && v.max != nil && (n < *v.min || n > *v.max):
		return argerr.Validation("LengthValidator", "string length should be between %d and %d", *v.min, *v.max)
	case v.min != nil && n < *v.min:
		return argerr.Validation("LengthValidator", "string length should be greater than %d", *v.min)
	case v.max != nil && n > *v.max:
		return argerr.Validation("LengthValidator", "string length should be less than %d", *v.max)
	}
	return nil
}

type rangeValidator struct {
	min, max *float64
}

// NewRange validates a numeric value against optional bounds. At least one
// bound is mandatory and min must stay below max.
func NewRange(min, max *float64) (Validator, error) {
	if min == nil && max == nil {
		return nil, argerr.ValidatorInit("RangeValidator", "invalid range provided")
	}
	if min != nil && max != nil && *min >= *max {
		return nil, argerr.ValidatorInit("RangeValidator", "invalid range provided")
	}
	return &rangeValidator{min: min, max: max}, nil
}

func (v *rangeValidator) Check(value any) error {
	var n float64
	switch val := value.(type) {
	case int:
		n = float64(val)
	case float64:
		n = val
	default:
		return argerr.Validation("RangeValidator", "expected numeric value, found '%T'", value)
	}
	switch {
	case v.min != nil && v.max != nil && (n < *v.min || n > *v.max):
		return argerr.Validation("RangeValidator", "value should be between %s and %s",
			formatBound(*v.min), formatBound(*v.max))
	case v.min != nil && n < *v.min:
		return argerr.Validation("RangeValidator", "value should be greater than %s", formatBound(*v.min))
	case v.max != nil && n > *v.max:
		return argerr.Validation("RangeValidator", "value should be less than %s", formatBound(*v.max))
	}
	return nil
}

func formatBound(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

type dateTimeRangeValidator struct {
	min, max *string
	format   string
}

// NewDateTimeRange validates date, time and datetime values against string
// bounds expressed in the given strftime format. An empty format selects
// the default format of the value's own type at check time. The format and
// the presence of at least one bound are checked eagerly.
func NewDateTimeRange(min, max *string, format string) (Validator, error) {
	if format != "" {
		if _, err := strftime.Layout(format); err != nil {
			return nil, argerr.ValidatorInit("DateTimeRangeValidator", "bad directive in format '%s': %v", format, err)
		}
	}
	if min == nil && max == nil {
		return nil, argerr.ValidatorInit("DateTimeRangeValidator", "invalid range provided")
	}
	return &dateTimeRangeValidator{min: min, max: max, format: format}, nil
}

func (v *dateTimeRangeValidator) Check(value any) error {
	var point time.Time
	format := v.format
	switch val := value.(type) {
	case descriptor.DateValue:
		point = val.Time
		if format == "" {
			format = "%Y-%m-%d"
		}
	case descriptor.DateTimeValue:
		point = val.Time
		if format == "" {
			format = "%Y-%m-%dT%H:%M:%S"
		}
	case descriptor.TimeValue:
		point = val.Time
		if format == "" {
			format = "%H:%M:%S"
		}
	default:
		return argerr.Validation("DateTimeRangeValidator", "expected date, time or datetime value, found '%T'", value)
	}

	layout, err := strftime.Layout(format)
	if err != nil {
		return argerr.Validation("DateTimeRangeValidator", "bad format '%s'", format)
	}

	var minT, maxT time.Time
	if v.min != nil {
		if minT, err = time.Parse(layout, *v.min); err != nil {
			return argerr.Validation("DateTimeRangeValidator", "invalid bound '%s' for format '%s'", *v.min, format)
		}
	}
	if v.max != nil {
		if maxT, err = time.Parse(layout, *v.max); err != nil {
			return argerr.Validation("DateTimeRangeValidator", "invalid bound '%s' for format '%s'", *v.max, format)
		}
	}

	switch {
	case v.min != nil && v.max != nil && (point.Before(minT) || point.After(maxT)):
		return argerr.Validation("DateTimeRangeValidator", "should be between %s and %s", *v.min, *v.max)
	case v.min != nil && v.max == nil && point.Before(minT):
		return argerr.Validation("DateTimeRangeValidator", "should be after %s", *v.min)
	case v.max != nil && v.min == nil && point.After(maxT):
		return argerr.Validation("DateTimeRangeValidator", "should be before %s", *v.max)
	}
	return nil
}

type pathValidator struct {
	isAbsolute bool
	isDir      bool
	isFile     bool
	exists     bool
}

// NewPath validates filesystem properties of a path value. At most one of
// isDir, isFile and exists may be set.
func NewPath(isAbsolute, isDir, isFile, exists bool) (Validator, error) {
	count := 0
	for _, b := range []bool{isDir, isFile, exists} {
		if b {
			count++
		}
	}
	if count > 1 {
		return nil, argerr.ValidatorInit("PathValidator", "only one of is_dir, is_file, exists can be true at most")
	}
	return &pathValidator{isAbsolute: isAbsolute, isDir: isDir, isFile: isFile, exists: exists}, nil
}

func (v *pathValidator) Check(value any) error {
	var path string
	switch val := value.(type) {
	case descriptor.PathValue:
		path = string(val)
	case string:
		path = val
	default:
		return argerr.Validation("PathValidator", "expected 'str' or 'path' value, found '%T'", value)
	}

	// No checks on the standard stream placeholder.
	if path == "-" {
		return nil
	}

	if v.isAbsolute && !strings.HasPrefix(path, string(os.PathSeparator)) {
		return argerr.Validation("PathValidator", "'%s' is not an absolute path", path)
	}
	info, err := os.Stat(path)
	if v.isDir {
		if err != nil || !info.IsDir() {
			return argerr.Validation("PathValidator", "'%s' is not a valid directory", path)
		}
	}
	if v.isFile {
		if err != nil || info.IsDir() {
			return argerr.Validation("PathValidator", "'%s' is not a valid file", path)
		}
	}
	if v.exists && err != nil {
		return argerr.Validation("PathValidator", "'%s' does not exist", path)
	}
	return nil
}

type urlValidator struct {
	opts descriptor.URLOptions
}

// NewURL validates URL structure: scheme allow-list, host and port
// requirements.
func NewURL(opts descriptor.URLOptions) (Validator, error) {
	return &urlValidator{opts: opts}, nil
}

func (v *urlValidator) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		if u, isURL := value.(*descriptor.URLValue); isURL {
			s = u.String()
		} else {
			return argerr.Validation("UrlValidator", "expected 'str' value, found '%T'", value)
		}
	}
	probe := descriptor.URL(v.opts).DomainType()
	if _, err := probe.Convert(s); err != nil {
		return argerr.Validation("UrlValidator", "%v", err)
	}
	return nil
}

type regexValidator struct {
	pattern *regexp.Regexp
}

// NewRegex validates a string against a full-match regular expression. The
// pattern is compiled eagerly.
func NewRegex(pattern string) (Validator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, argerr.ValidatorInit("RegexValidator", "invalid pattern '%s': %v", pattern, err)
	}
	return &regexValidator{pattern: re}, nil
}

func (v *regexValidator) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		return argerr.Validation("RegexValidator", "expected 'str' value, found '%T'", value)
	}
	m := v.pattern.FindString(s)
	if m != s {
		return argerr.Validation("RegexValidator", "'%s' does not match expression '%s'", s, v.pattern.String())
	}
	return nil
}

// ConfirmationOptions configures the interactive confirmation validator.
type ConfirmationOptions struct {
	Message      string
	AbortMessage string
	Answers      []string
	IgnoreCase   bool
	In           io.Reader
	Out          io.Writer
}

type confirmationValidator struct {
	opts ConfirmationOptions
}

// NewConfirmation prompts for a yes/no style answer before accepting the
// value. A non-matching or interrupted answer surfaces as a normal
// validation failure carrying the abort message.
func NewConfirmation(opts ConfirmationOptions) (Validator, error) {
	if opts.Message == "" {
		opts.Message = "Are you sure you want to proceed?"
	}
	if opts.AbortMessage == "" {
		opts.AbortMessage = "aborted!"
	}
	if len(opts.Answers) == 0 {
		opts.Answers = []string{"y", "yes"}
		opts.IgnoreCase = true
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	return &confirmationValidator{opts: opts}, nil
}

func (v *confirmationValidator) Check(value any) error {
	o := v.opts
	fmt.Fprintf(o.Out, "%s [%s]: ", o.Message, strings.Join(o.Answers, "/"))

	line, err := bufio.NewReader(o.In).ReadString('\n')
	if err != nil && line == "" {
		return argerr.Validation("ConfirmationValidator", "%s", o.AbortMessage)
	}
	answer := strings.TrimSpace(line)
	for _, allow := range o.Answers {
		if answer == allow || (o.IgnoreCase && strings.EqualFold(answer, allow)) {
			return nil
		}
	}
	return argerr.Validation("ConfirmationValidator", "%s", o.AbortMessage)
}
