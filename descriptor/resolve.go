package descriptor

import (
	"github.com/typarg/typarg/argerr"
)

// Resolve normalizes a declared type into its canonical descriptor.
//
// One level of Optional wrapping is stripped with the optionality returned
// separately. A sum containing an Optional member has that member removed
// (this is what "optional" means combined with a sum); when exactly one
// member remains the sum collapses into it. Repeated containers resolve
// their element recursively. Enumerated types are checked for homogeneous
// values. Domain types validate their runtime parameters eagerly, so an
// invalid format string fails here rather than on first use.
func Resolve(declared *Type) (*Type, bool, error) {
	if declared == nil {
		return nil, false, argerr.Definition("no type declared")
	}
	return resolve(declared)
}

func resolve(t *Type) (*Type, bool, error) {
	switch t.variant {
	case VariantOptional:
		inner, _, err := resolve(t.inner)
		return inner, true, err

	case VariantScalar:
		if err := checkScalar(t); err != nil {
			return nil, false, err
		}
		return t, false, nil

	case VariantSum:
		return resolveSum(t)

	case VariantTuple:
		if len(t.elems) == 0 {
			return nil, false, argerr.Definition("tuple must declare at least one element type")
		}
		for _, e := range t.elems {
			if !e.IsScalar() {
				return nil, false, argerr.Definition("tuple types must be simple builtin types - '%s'", e.String())
			}
			if err := checkScalar(e); err != nil {
				return nil, false, err
			}
		}
		return t, false, nil

	case VariantMap:
		return resolveMap(t)

	case VariantRepeated:
		if t.inner != nil && t.inner.variant == VariantRepeated {
			return nil, false, argerr.Definition("nested list types are not supported")
		}
		inner, optional, err := resolve(t.inner)
		if err != nil {
			return nil, false, err
		}
		return &Type{variant: VariantRepeated, inner: inner}, optional, nil

	default:
		return nil, false, argerr.Definition("type '%s' not supported", t.String())
	}
}

func resolveSum(t *Type) (*Type, bool, error) {
	optional := false
	members := make([]*Type, 0, len(t.members))
	for _, m := range t.members {
		if m.variant == VariantOptional {
			optional = true
			m = m.inner
		}
		members = append(members, m)
	}

	// A one-member sum is not a sum at all; evaluate the member directly.
	// Ex. Union(Optional(List(String()))) resolves as List(String()).
	if len(members) == 1 {
		inner, innerOpt, err := resolve(members[0])
		return inner, optional || innerOpt, err
	}

	for _, m := range members {
		if !m.IsScalar() {
			return nil, false, argerr.Definition("unions must be simple builtin types - '%s'", m.String())
		}
		if err := checkScalar(m); err != nil {
			return nil, false, err
		}
	}

	return &Type{variant: VariantSum, members: members}, optional, nil
}

func resolveMap(t *Type) (*Type, bool, error) {
	if t.keyKind != KindString && t.keyKind != KindInt {
		return nil, false, argerr.Definition("dictionary key type must be one of 'str' or 'int'")
	}
	if t.value == nil {
		return nil, false, argerr.Definition("dictionary value type must be declared")
	}

	value := t.value
	if value.variant == VariantOptional {
		value = value.inner
	}

	switch value.variant {
	case VariantScalar:
		switch value.kind {
		case KindString, KindInt, KindFloat, KindBool:
		default:
			return nil, false, argerr.Definition(
				"dictionary value type must be one of 'str', 'int', 'float', 'bool' and 'Union'")
		}
	case VariantSum:
		resolved, _, err := resolveSum(value)
		if err != nil {
			return nil, false, err
		}
		value = resolved
	default:
		return nil, false, argerr.Definition(
			"dictionary value type must be one of 'str', 'int', 'float', 'bool' and 'Union'")
	}

	return &Type{variant: VariantMap, keyKind: t.keyKind, value: value}, false, nil
}

// checkScalar validates enumerated value homogeneity and eagerly validates
// domain type parameters.
func checkScalar(t *Type) error {
	if len(t.choices) > 0 {
		want := kindOfValue(t.choices[0])
		for _, c := range t.choices[1:] {
			if kindOfValue(c) != want {
				return argerr.Definition("enumerated values must share one type")
			}
		}
	}
	if t.kind == KindDomain {
		if t.domain == nil {
			return argerr.Definition("domain type not supplied")
		}
		if err := t.domain.Validate(); err != nil {
			return err
		}
	}
	return nil
}
