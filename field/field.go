// Package field compiles a declared field - its type, option strings and
// raw options - into an immutable Spec that the argument backend executes.
//
// Every contradictory combination is rejected here, at definition time, with
// a definition error; nothing is deferred to parse time.
package field

import (
	"fmt"
	"strings"

	"github.com/typarg/typarg/convert"
	"github.com/typarg/typarg/descriptor"
	"github.com/typarg/typarg/group"
	"github.com/typarg/typarg/validate"
)

// ActionKind is how the backend reacts when the field is supplied.
type ActionKind int

const (
	ActionStore ActionKind = iota
	ActionStoreConst
	ActionAppend
	ActionAppendConst
	ActionToggle
	ActionCount
	ActionHelp
	ActionVersion
)

func (a ActionKind) String() string {
	switch a {
	case ActionStore:
		return "store"
	case ActionStoreConst:
		return "store_const"
	case ActionAppend:
		return "append"
	case ActionAppendConst:
		return "append_const"
	case ActionToggle:
		return "toggle"
	case ActionCount:
		return "count"
	case ActionHelp:
		return "help"
	case ActionVersion:
		return "version"
	default:
		return "unknown"
	}
}

type nargsKind int

const (
	nargsUnset nargsKind = iota
	nargsExactly
	nargsZeroOrOne
	nargsZeroOrMore
	nargsOneOrMore
)

// NArgs is the arity contract of a field: how many raw tokens one
// occurrence consumes. The zero value means "one token per occurrence,
// repeatable when the field is a repeated container".
type NArgs struct {
	kind nargsKind
	n    int
}

// Exactly declares a fixed token count per occurrence.
func Exactly(n int) NArgs { return NArgs{kind: nargsExactly, n: n} }

// ZeroOrOne declares an optional single token ("?").
func ZeroOrOne() NArgs { return NArgs{kind: nargsZeroOrOne} }

// ZeroOrMore declares any number of tokens ("*").
func ZeroOrMore() NArgs { return NArgs{kind: nargsZeroOrMore} }

// OneOrMore declares at least one token ("+").
func OneOrMore() NArgs { return NArgs{kind: nargsOneOrMore} }

// IsUnset reports whether no arity was declared.
func (n NArgs) IsUnset() bool { return n.kind == nargsUnset }

// Count returns the fixed token count and whether one was declared.
func (n NArgs) Count() (int, bool) { return n.n, n.kind == nargsExactly }

// IsZeroOrOne reports the "?" contract.
func (n NArgs) IsZeroOrOne() bool { return n.kind == nargsZeroOrOne }

// IsZeroOrMore reports the "*" contract.
func (n NArgs) IsZeroOrMore() bool { return n.kind == nargsZeroOrMore }

// IsOneOrMore reports the "+" contract.
func (n NArgs) IsOneOrMore() bool { return n.kind == nargsOneOrMore }

func (n NArgs) String() string {
	switch n.kind {
	case nargsExactly:
		return fmt.Sprintf("%d", n.n)
	case nargsZeroOrOne:
		return "?"
	case nargsZeroOrMore:
		return "*"
	case nargsOneOrMore:
		return "+"
	default:
		return "unset"
	}
}

type suppress struct{}

func (suppress) String() string { return "==SUPPRESS==" }

// Suppress is the sentinel default for fields whose value must never be
// shown or required; a field literally named "help" always defaults to it.
var Suppress any = suppress{}

// Options are the raw per-field options supplied at declaration time.
type Options struct {
	// Opts are explicit option strings ("-o", "--opt"). A field with no
	// option strings is positional. Supplying only short options
	// suppresses automatic long-option generation.
	Opts []string

	Default   any
	Help      string
	NArgs     NArgs
	Const     any
	Dest      string
	Counter   bool
	Metavar   string
	Metavars  []string
	Aliases   []string
	Validator validate.Validator

	// Group assigns the field to a display/constraint group by title,
	// resolved through the shared registry. GroupOptions applies on the
	// title's first registration only.
	Group        string
	GroupOptions *group.Options
}

// Spec is the compiled, immutable contract for one field. It is created
// once at definition time and never mutated afterwards.
type Spec struct {
	Name         string // public name, private marker stripped
	OriginalName string // declared name as written
	Dest         string // storage key, namespaced under subcommands

	Type     *descriptor.Type // resolved descriptor, owned by this Spec
	Optional bool             // a nullable wrapper was declared
	Required bool

	NArgs    NArgs
	Action   ActionKind
	Const    any
	HasConst bool
	Default  any

	Convert      convert.Func
	ConvertTuple convert.TupleFunc
	Validator    validate.Validator

	Help     string
	Metavars []string
	Group    *group.Group

	ShortOpts   []string
	LongOpts    []string
	NegatedOpts []string // synthesized --no- forms for toggles
	Aliases     []string

	Counter      bool
	Positional   bool
	IsSubcommand bool
}

// OptionStrings returns every option string the field answers to, negated
// toggle forms included.
func (s *Spec) OptionStrings() []string {
	out := make([]string, 0, len(s.ShortOpts)+len(s.LongOpts)+len(s.NegatedOpts))
	out = append(out, s.ShortOpts...)
	out = append(out, s.LongOpts...)
	out = append(out, s.NegatedOpts...)
	return out
}

// DisplayName is the name used in diagnostics and help: the option strings
// joined, or the metavar, or the field name.
func (s *Spec) DisplayName() string {
	opts := append(append([]string{}, s.ShortOpts...), s.LongOpts...)
	if len(opts) > 0 {
		return strings.Join(opts, "/")
	}
	if len(s.Metavars) > 0 {
		return strings.Join(s.Metavars, " ")
	}
	return s.Name
}

// Repeatable reports whether supplying the field multiple times accumulates
// values rather than overwriting.
func (s *Spec) Repeatable() bool {
	return s.Action == ActionAppend || s.Action == ActionAppendConst || s.Action == ActionCount
}
