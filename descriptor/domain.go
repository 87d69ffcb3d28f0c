package descriptor

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/typarg/typarg/argerr"
)

// DomainType is a pluggable type with its own parsing rules. Implementations
// must report malformed input through a conversion error (never a panic) and
// must round-trip a previously converted value unchanged.
type DomainType interface {
	// Name renders the grammar of the type including runtime parameters,
	// e.g. "date [%Y-%m-%d]" or "url [http|https]".
	Name() string
	// Metavar is the bare placeholder used in usage lines, e.g. "date".
	Metavar() string
	// Validate eagerly checks the type's runtime parameters.
	Validate() error
	// Convert turns a raw token into the typed value. Passing an already
	// converted value returns it unchanged.
	Convert(value any) (any, error)
}

const (
	defaultDateFormat     = "%Y-%m-%d"
	defaultTimeFormat     = "%H:%M:%S"
	defaultDateTimeFormat = "%Y-%m-%dT%H:%M:%S"
)

// PathValue is a filesystem path argument. The literal "-" stands for the
// standard streams.
type PathValue string

func (p PathValue) String() string { return string(p) }

// IsStdio reports whether the path denotes stdin/stdout.
func (p PathValue) IsStdio() bool { return string(p) == "-" }

// Open opens the path for reading; "-" yields stdin.
func (p PathValue) Open() (*os.File, error) {
	if p.IsStdio() {
		return os.Stdin, nil
	}
	return os.Open(string(p))
}

// Create opens the path for writing; "-" yields stdout.
func (p PathValue) Create() (*os.File, error) {
	if p.IsStdio() {
		return os.Stdout, nil
	}
	return os.Create(string(p))
}

// DateValue is a calendar date parsed with a strftime format.
type DateValue struct {
	Time   time.Time
	Format string
}

func (d DateValue) String() string { return strftime.Format(d.Format, d.Time) }

// TimeValue is a wall-clock time parsed with a strftime format.
type TimeValue struct {
	Time   time.Time
	Format string
}

func (t TimeValue) String() string { return strftime.Format(t.Format, t.Time) }

// DateTimeValue is a timestamp parsed with a strftime format.
type DateTimeValue struct {
	Time   time.Time
	Format string
}

func (d DateTimeValue) String() string { return strftime.Format(d.Format, d.Time) }

// URLValue is a structurally validated URL.
type URLValue struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
	Path     string
	Query    string
	Fragment string

	raw string
}

func (u *URLValue) String() string { return u.raw }

type pathType struct{}

// Path returns a filesystem path descriptor.
func Path() *Type { return Domain(pathType{}) }

func (pathType) Name() string    { return "path" }
func (pathType) Metavar() string { return "path" }
func (pathType) Validate() error { return nil }

func (pathType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case PathValue:
		return v, nil
	case string:
		return PathValue(v), nil
	default:
		return nil, argerr.Conversionf("invalid path value '%v'", value)
	}
}

type dateType struct{ format string }

// Date returns a date descriptor. An empty format selects "%Y-%m-%d"; the
// format is validated when the type is resolved.
func Date(format string) *Type {
	if format == "" {
		format = defaultDateFormat
	}
	return Domain(dateType{format: format})
}

func (d dateType) Name() string    { return fmt.Sprintf("date [%s]", d.format) }
func (dateType) Metavar() string   { return "date" }
func (d dateType) Validate() error { return checkFormat(d.format) }

func (d dateType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case DateValue:
		return v, nil
	case string:
		t, err := parseFormat(d.format, v)
		if err != nil {
			return nil, argerr.Conversionf("date string '%s' does not match '%s'", v, d.format)
		}
		return DateValue{Time: t, Format: d.format}, nil
	default:
		return nil, argerr.Conversionf("invalid date value '%v'", value)
	}
}

type timeType struct{ format string }

// Time returns a wall-clock time descriptor. An empty format selects
// "%H:%M:%S".
func Time(format string) *Type {
	if format == "" {
		format = defaultTimeFormat
	}
	return Domain(timeType{format: format})
}

func (t timeType) Name() string    { return fmt.Sprintf("time [%s]", t.format) }
func (timeType) Metavar() string   { return "time" }
func (t timeType) Validate() error { return checkFormat(t.format) }

func (t timeType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case TimeValue:
		return v, nil
	case string:
		parsed, err := parseFormat(t.format, v)
		if err != nil {
			return nil, argerr.Conversionf("time string '%s' does not match '%s'", v, t.format)
		}
		return TimeValue{Time: parsed, Format: t.format}, nil
	default:
		return nil, argerr.Conversionf("invalid time value '%v'", value)
	}
}

type dateTimeType struct{ format string }

// DateTime returns a timestamp descriptor. An empty format selects
// "%Y-%m-%dT%H:%M:%S".
func DateTime(format string) *Type {
	if format == "" {
		format = defaultDateTimeFormat
	}
	return Domain(dateTimeType{format: format})
}

func (d dateTimeType) Name() string    { return fmt.Sprintf("datetime [%s]", d.format) }
func (dateTimeType) Metavar() string   { return "datetime" }
func (d dateTimeType) Validate() error { return checkFormat(d.format) }

func (d dateTimeType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case DateTimeValue:
		return v, nil
	case string:
		t, err := parseFormat(d.format, v)
		if err != nil {
			return nil, argerr.Conversionf("datetime string '%s' does not match '%s'", v, d.format)
		}
		return DateTimeValue{Time: t, Format: d.format}, nil
	default:
		return nil, argerr.Conversionf("invalid datetime value '%v'", value)
	}
}

// URLOptions carries the structural requirements of a URL descriptor.
type URLOptions struct {
	AllowedSchemes []string
	HostRequired   bool
	PortRequired   bool
}

type urlType struct{ opts URLOptions }

// URL returns a URL descriptor with optional structural requirements.
func URL(opts ...URLOptions) *Type {
	var o URLOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return Domain(urlType{opts: o})
}

func (u urlType) Name() string {
	if len(u.opts.AllowedSchemes) > 0 {
		return fmt.Sprintf("url [%s]", strings.Join(u.opts.AllowedSchemes, "|"))
	}
	return "url"
}

func (urlType) Metavar() string { return "url" }
func (urlType) Validate() error { return nil }

func (u urlType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case *URLValue:
		return v, nil
	case string:
		return u.parse(v)
	default:
		return nil, argerr.Conversionf("invalid url value '%v'", value)
	}
}

func (u urlType) parse(raw string) (*URLValue, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, argerr.Conversionf("invalid url structure")
	}
	if len(u.opts.AllowedSchemes) > 0 {
		allowed := false
		for _, s := range u.opts.AllowedSchemes {
			if parsed.Scheme == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, argerr.Conversionf("invalid scheme %s, expected values %v", parsed.Scheme, u.opts.AllowedSchemes)
		}
	}
	if u.opts.HostRequired && parsed.Hostname() == "" {
		return nil, argerr.Conversionf("hostname must be present")
	}
	port := 0
	if p := parsed.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	} else if u.opts.PortRequired {
		return nil, argerr.Conversionf("port must be present")
	}
	password, _ := parsed.User.Password()
	return &URLValue{
		Scheme:   parsed.Scheme,
		Host:     parsed.Hostname(),
		Port:     port,
		Username: parsed.User.Username(),
		Password: password,
		Path:     parsed.Path,
		Query:    parsed.RawQuery,
		Fragment: parsed.Fragment,
		raw:      raw,
	}, nil
}

// checkFormat validates a strftime format string, reporting the bad
// directive as a definition error.
func checkFormat(format string) error {
	if _, err := strftime.Layout(format); err != nil {
		return argerr.Definition("bad directive in format '%s': %v", format, err)
	}
	return nil
}

func parseFormat(format, value string) (time.Time, error) {
	layout, err := strftime.Layout(format)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, value)
}
