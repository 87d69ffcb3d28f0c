// Package convert builds the stateless conversion functions that turn raw
// command-line tokens into typed values for each descriptor kind.
//
// Sum conversion tries members strictly in declaration order and
// short-circuits on the first success; a boolean member uses the literal
// rule "" or "True" is true, "False" is false. Failures are reported as
// conversion errors carrying the offending text and the expected grammar.
package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/descriptor"
)

// Func converts one raw token into a typed value.
type Func func(raw string) (any, error)

// TupleFunc converts the token group consumed by a tuple field.
type TupleFunc func(raws []string) (any, error)

// MapEntry is the result of converting one map occurrence.
type MapEntry struct {
	Key   any
	Value any
}

// ForType returns the conversion function for a resolved descriptor.
// Tuple descriptors consume multiple tokens and are built with ForTuple.
func ForType(t *descriptor.Type) (Func, error) {
	switch t.Variant() {
	case descriptor.VariantScalar:
		return scalarFunc(t), nil
	case descriptor.VariantSum:
		return sumFunc(t), nil
	case descriptor.VariantMap:
		return mapFunc(t), nil
	case descriptor.VariantRepeated:
		return ForType(t.Elem())
	case descriptor.VariantTuple:
		return nil, argerr.Definition("tuple descriptors convert token groups, not single tokens")
	default:
		return nil, argerr.Definition("type '%s' not supported", t.String())
	}
}

// ForTuple returns the conversion function for a tuple descriptor. Without
// an open tail the token count must equal the declared arity; with one, all
// remaining tokens are converted with the single declared element type.
func ForTuple(t *descriptor.Type) (TupleFunc, error) {
	if !t.IsTuple() {
		if t.IsRepeated() && t.Elem().IsTuple() {
			return ForTuple(t.Elem())
		}
		return nil, argerr.Definition("'%s' is not a tuple descriptor", t.String())
	}

	elems := make([]Func, len(t.Elems()))
	for i, e := range t.Elems() {
		elems[i] = scalarFunc(e)
	}

	return func(raws []string) (any, error) {
		if !t.OpenTail() && len(raws) != len(elems) {
			return nil, argerr.Conversion(strings.Join(raws, " "), t.String())
		}
		result := make([]any, 0, len(raws))
		for i, raw := range raws {
			conv := elems[0]
			if !t.OpenTail() {
				conv = elems[i]
			}
			v, err := conv(raw)
			if err != nil {
				return nil, argerr.Conversion(raw, t.String())
			}
			result = append(result, v)
		}
		return result, nil
	}, nil
}

func scalarFunc(t *descriptor.Type) Func {
	if t.Kind() == descriptor.KindDomain {
		dt := t.DomainType()
		return func(raw string) (any, error) { return dt.Convert(raw) }
	}

	kind := kindFunc(t.Kind())
	choices := t.Choices()
	if len(choices) == 0 {
		return kind
	}

	// Enumerated literals: convert with the underlying kind, then check
	// membership against the ordered value set.
	return func(raw string) (any, error) {
		v, err := kind(raw)
		if err != nil {
			return nil, err
		}
		for _, c := range choices {
			if v == c {
				return v, nil
			}
		}
		names := make([]string, len(choices))
		for i, c := range choices {
			names[i] = fmt.Sprintf("%v", c)
		}
		return nil, argerr.Conversionf("invalid choice '%s' (choose from %s)", raw, strings.Join(names, ", "))
	}
}

func kindFunc(kind descriptor.Kind) Func {
	switch kind {
	case descriptor.KindString:
		return func(raw string) (any, error) { return raw, nil }
	case descriptor.KindInt:
		return func(raw string) (any, error) {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, argerr.Conversion(raw, "int")
			}
			return n, nil
		}
	case descriptor.KindFloat:
		return func(raw string) (any, error) {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, argerr.Conversion(raw, "float")
			}
			return f, nil
		}
	case descriptor.KindBool:
		return func(raw string) (any, error) {
			switch raw {
			case "True", "":
				return true, nil
			case "False":
				return false, nil
			default:
				return nil, argerr.Conversion(raw, "bool")
			}
		}
	default:
		return func(raw string) (any, error) {
			return nil, argerr.Conversionf("no converter for kind '%s'", kind)
		}
	}
}

// sumFunc tries each member converter in declaration order. The boolean
// member rule is positional: a permissive member declared earlier shadows
// it, exactly as declared.
func sumFunc(t *descriptor.Type) Func {
	members := t.Members()
	funcs := make([]Func, len(members))
	bools := make([]bool, len(members))
	for i, m := range members {
		bools[i] = m.Kind() == descriptor.KindBool && m.DomainType() == nil
		funcs[i] = scalarFunc(m)
	}

	grammar := t.String()
	return func(raw string) (any, error) {
		var merr *multierror.Error
		for i, f := range funcs {
			if bools[i] {
				if raw == "True" || raw == "" {
					return true, nil
				}
				if raw == "False" {
					return false, nil
				}
				continue
			}
			v, err := f(raw)
			if err == nil {
				return v, nil
			}
			merr = multierror.Append(merr, err)
		}
		return nil, &argerr.Error{
			Kind:    argerr.KindConversion,
			Message: fmt.Sprintf("invalid value '%s', expected %s", raw, grammar),
			Err:     merr.ErrorOrNil(),
		}
	}
}

// mapFunc parses one "key", "key=" or "key=value" occurrence. A missing or
// empty value defaults the value text to the literal "True", so maps with a
// boolean (or sum-with-boolean) value type toggle by presence alone.
func mapFunc(t *descriptor.Type) Func {
	key := kindFunc(t.KeyKind())
	var value Func
	if t.Value().IsSum() {
		value = sumFunc(t.Value())
	} else {
		value = scalarFunc(t.Value())
	}

	return func(raw string) (any, error) {
		k, v, err := splitEntry(raw)
		if err != nil {
			return nil, err
		}
		ck, err := key(k)
		if err != nil {
			return nil, argerr.Conversionf("dict key '%s' is invalid", k)
		}
		cv, err := value(v)
		if err != nil {
			return nil, argerr.Conversionf("dict value conversion error for key '%s': %v", k, err)
		}
		return MapEntry{Key: ck, Value: cv}, nil
	}
}

func splitEntry(raw string) (key, value string, err error) {
	parts := strings.Split(raw, "=")
	switch len(parts) {
	case 1:
		key, value = parts[0], "True"
	case 2:
		key, value = parts[0], parts[1]
	default:
		return "", "", argerr.Conversionf("invalid value '%s' for dictionary", raw)
	}
	if key == "" {
		return "", "", argerr.Conversionf("invalid value (no key) for dictionary")
	}
	if value == "" {
		value = "True"
	}
	return key, value, nil
}

// FormatValue renders a typed value back into its token form, used for
// default type checks and help output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
