package command

import "sort"

// Values provides read-only access to the converted values of a parse,
// keyed by field destination name. It is created by Parse and never
// modified afterwards.
type Values struct {
	m        map[string]any
	supplied map[string]bool
	path     []string
}

func newValues() *Values {
	return &Values{
		m:        make(map[string]any),
		supplied: make(map[string]bool),
	}
}

// Get returns the converted value for name and whether it is set.
func (v *Values) Get(name string) (any, bool) {
	val, ok := v.m[name]
	return val, ok
}

// Supplied reports whether the field was present on the command line, as
// opposed to filled from its default.
func (v *Values) Supplied(name string) bool {
	return v.supplied[name]
}

// String returns the string value for name, or defaultVal.
func (v *Values) String(name, defaultVal string) string {
	if s, ok := v.m[name].(string); ok {
		return s
	}
	return defaultVal
}

// Int returns the integer value for name, or defaultVal.
func (v *Values) Int(name string, defaultVal int) int {
	if n, ok := v.m[name].(int); ok {
		return n
	}
	return defaultVal
}

// Float returns the float value for name, or defaultVal.
func (v *Values) Float(name string, defaultVal float64) float64 {
	if f, ok := v.m[name].(float64); ok {
		return f
	}
	return defaultVal
}

// Bool returns the boolean value for name, or false.
func (v *Values) Bool(name string) bool {
	b, _ := v.m[name].(bool)
	return b
}

// Slice returns the accumulated values of a repeated field.
func (v *Values) Slice(name string) []any {
	s, _ := v.m[name].([]any)
	return s
}

// Map returns the accumulated entries of a map field.
func (v *Values) Map(name string) map[any]any {
	m, _ := v.m[name].(map[any]any)
	return m
}

// Path returns the resolved command path of the parse, the root command
// name first.
func (v *Values) Path() []string {
	out := make([]string, len(v.path))
	copy(out, v.path)
	return out
}

// Names returns every destination name with a value, sorted.
func (v *Values) Names() []string {
	names := make([]string, 0, len(v.m))
	for name := range v.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Values) set(name string, value any) {
	v.m[name] = value
}
