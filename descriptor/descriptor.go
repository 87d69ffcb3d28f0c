// Package descriptor models a field's declared type as a small closed set of
// constructor calls and normalizes it into a canonical, immutable descriptor.
//
// A declared type is built with String, Int, Union, TupleOf, MapOf, List and
// friends, then passed through Resolve which strips nullability wrappers,
// validates composites and produces the descriptor consumed by the converter
// and field compiler packages.
package descriptor

import (
	"fmt"
	"strings"
)

// Kind identifies a scalar descriptor. An enumerated-literal type resolves to
// the kind of its first value with the ordered literal set kept in Choices.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// Variant identifies the shape of a descriptor node.
type Variant int

const (
	VariantScalar Variant = iota
	VariantOptional
	VariantSum
	VariantTuple
	VariantMap
	VariantRepeated
)

// Type is one node of a declared or resolved type tree. Values are built by
// the package constructors and never mutated afterwards; Resolve returns a
// fresh normalized tree.
type Type struct {
	variant  Variant
	kind     Kind
	choices  []any      // ordered literal values for enumerated types
	domain   DomainType // kind == KindDomain
	members  []*Type    // VariantSum, declaration order
	elems    []*Type    // VariantTuple
	openTail bool       // VariantTuple with a repeating last element
	keyKind  Kind       // VariantMap
	value    *Type      // VariantMap value
	inner    *Type      // VariantOptional and VariantRepeated
}

// String returns a String descriptor.
func String() *Type { return &Type{variant: VariantScalar, kind: KindString} }

// Int returns an integer descriptor.
func Int() *Type { return &Type{variant: VariantScalar, kind: KindInt} }

// Float returns a float descriptor.
func Float() *Type { return &Type{variant: VariantScalar, kind: KindFloat} }

// Bool returns a boolean descriptor.
func Bool() *Type { return &Type{variant: VariantScalar, kind: KindBool} }

// Enum returns an enumerated-literal descriptor. The scalar kind is taken
// from the first value; the ordered value set is kept for choice display and
// implicit validation. Homogeneity is checked by Resolve.
func Enum(values ...any) *Type {
	t := &Type{variant: VariantScalar, choices: values}
	if len(values) > 0 {
		t.kind = kindOfValue(values[0])
	}
	return t
}

// Domain returns a descriptor for a pluggable domain type.
func Domain(dt DomainType) *Type {
	return &Type{variant: VariantScalar, kind: KindDomain, domain: dt}
}

// Optional wraps t, marking the field nullable. Resolve strips the wrapper
// and records the optionality on the field.
func Optional(t *Type) *Type { return &Type{variant: VariantOptional, inner: t} }

// Union returns a sum descriptor. Declaration order is semantically
// significant: conversion tries members left to right and the first that
// type-checks wins.
func Union(members ...*Type) *Type { return &Type{variant: VariantSum, members: members} }

// TupleOf returns a fixed-arity tuple descriptor.
func TupleOf(elems ...*Type) *Type { return &Type{variant: VariantTuple, elems: elems} }

// OpenTuple returns an open-tail tuple descriptor: the single element type
// repeats to absorb any number of remaining tokens.
func OpenTuple(elem *Type) *Type {
	return &Type{variant: VariantTuple, elems: []*Type{elem}, openTail: true}
}

// MapOf returns a map descriptor. The key must be a string or integer
// scalar; the value a simple scalar or a sum of simple scalars.
func MapOf(key, value *Type) *Type {
	t := &Type{variant: VariantMap, value: value}
	if key != nil {
		t.keyKind = key.kind
	}
	return t
}

// List returns a repeated descriptor: the field may occur multiple times,
// accumulating converted elements.
func List(elem *Type) *Type { return &Type{variant: VariantRepeated, inner: elem} }

// Variant returns the shape of this node.
func (t *Type) Variant() Variant { return t.variant }

// Kind returns the scalar kind. Only meaningful for VariantScalar nodes.
func (t *Type) Kind() Kind { return t.kind }

// Choices returns the ordered literal values of an enumerated type, or nil.
func (t *Type) Choices() []any { return t.choices }

// DomainType returns the pluggable domain type, or nil.
func (t *Type) DomainType() DomainType { return t.domain }

// Members returns the sum members in declaration order.
func (t *Type) Members() []*Type { return t.members }

// Elems returns the tuple element types.
func (t *Type) Elems() []*Type { return t.elems }

// OpenTail reports whether the tuple's last element type repeats.
func (t *Type) OpenTail() bool { return t.openTail }

// KeyKind returns the map key kind.
func (t *Type) KeyKind() Kind { return t.keyKind }

// Value returns the map value descriptor.
func (t *Type) Value() *Type { return t.value }

// Elem returns the element descriptor of a repeated or optional node.
func (t *Type) Elem() *Type { return t.inner }

// IsScalar reports whether this node is a scalar.
func (t *Type) IsScalar() bool { return t.variant == VariantScalar }

// IsSum reports whether this node is a sum type.
func (t *Type) IsSum() bool { return t.variant == VariantSum }

// IsTuple reports whether this node is a tuple.
func (t *Type) IsTuple() bool { return t.variant == VariantTuple }

// IsMap reports whether this node is a map.
func (t *Type) IsMap() bool { return t.variant == VariantMap }

// IsRepeated reports whether this node is a repeated container.
func (t *Type) IsRepeated() bool { return t.variant == VariantRepeated }

// IsEnum reports whether this node carries an enumerated literal set.
func (t *Type) IsEnum() bool { return t.variant == VariantScalar && len(t.choices) > 0 }

// SumHasBool reports whether any sum member is a boolean scalar.
func (t *Type) SumHasBool() bool {
	for _, m := range t.members {
		if m.variant == VariantScalar && m.kind == KindBool {
			return true
		}
	}
	return false
}

// String renders the grammar of this descriptor, used in diagnostics and
// help output: "int", "(int|str)", "(int,str,bool)", "[str, int]".
func (t *Type) String() string {
	switch t.variant {
	case VariantScalar:
		if t.domain != nil {
			return t.domain.Name()
		}
		return t.kind.String()
	case VariantOptional:
		return t.inner.String()
	case VariantSum:
		names := make([]string, len(t.members))
		for i, m := range t.members {
			names[i] = m.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(names, "|"))
	case VariantTuple:
		if t.openTail {
			return fmt.Sprintf("(%s,...)", t.elems[0].String())
		}
		names := make([]string, len(t.elems))
		for i, e := range t.elems {
			names[i] = e.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(names, ","))
	case VariantMap:
		return fmt.Sprintf("[%s, %s]", t.keyKind.String(), t.value.String())
	case VariantRepeated:
		return t.inner.String()
	default:
		return "unknown"
	}
}

func kindOfValue(v any) Kind {
	switch v.(type) {
	case string:
		return KindString
	case int:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	default:
		return KindString
	}
}
