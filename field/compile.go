package field

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/convert"
	"github.com/typarg/typarg/descriptor"
	"github.com/typarg/typarg/group"
)

// Default group titles assigned when a field declares none.
const (
	GroupPositional    = "positional arguments"
	GroupOptions       = "options"
	GroupCommands      = "commands"
	GroupMiscellaneous = "miscellaneous"
)

// Scope carries the compilation state of one command: option strings and
// aliases registered so far (for collision checks), the destination prefix
// of the owning subcommand and the shared group registry.
type Scope struct {
	UsedOpts map[string]bool
	Aliases  map[string]bool
	Prefix   string
	Registry *group.Registry
}

// NewScope returns an empty scope backed by the given registry.
func NewScope(registry *group.Registry) *Scope {
	return &Scope{
		UsedOpts: make(map[string]bool),
		Aliases:  make(map[string]bool),
		Registry: registry,
	}
}

// Compile resolves the declared type and turns it plus the raw options into
// an executable Spec. Every rule violation is a definition error raised
// here; there is no recovery path.
func Compile(name string, declared *descriptor.Type, opts Options, scope *Scope) (*Spec, error) {
	c := &compilation{name: name, opts: opts, scope: scope}

	steps := []func() error{
		c.evalName,
		func() error { return c.resolveType(declared) },
		c.evalOpts,
		c.evalDest,
		c.evalLongOpts,
		c.evalNArgs,
		c.evalConst,
		c.evalAction,
		c.evalCounter,
		c.evalDefault,
		c.evalMetavar,
		c.evalAliases,
		c.evalGroup,
		c.buildConverters,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			if ae, ok := err.(*argerr.Error); ok && ae.Field == "" {
				return nil, ae.WithField(name)
			}
			return nil, err
		}
	}

	c.spec.Validator = opts.Validator
	c.spec.Help = opts.Help
	return &c.spec, nil
}

type compilation struct {
	name  string
	opts  Options
	scope *Scope
	spec  Spec
}

func (c *compilation) evalName() error {
	if strings.Contains(c.name, "__") {
		return argerr.Definition("'%s' cannot have '__' in their name", c.name)
	}
	c.spec.OriginalName = c.name
	c.spec.Name = strings.TrimPrefix(c.name, "_")
	return nil
}

func (c *compilation) resolveType(declared *descriptor.Type) error {
	resolved, optional, err := descriptor.Resolve(declared)
	if err != nil {
		return err
	}
	c.spec.Type = resolved
	c.spec.Optional = optional
	return nil
}

func (c *compilation) evalOpts() error {
	for _, opt := range c.opts.Opts {
		switch {
		case strings.HasPrefix(opt, "--"):
			c.spec.LongOpts = append(c.spec.LongOpts, opt)
		case strings.HasPrefix(opt, "-") && opt != "-":
			c.spec.ShortOpts = append(c.spec.ShortOpts, opt)
		default:
			return argerr.Definition("option string '%s' must start with '-'", opt)
		}
	}

	// A non-nullable field with no option strings is positional; a nullable
	// one gets an automatic long option later.
	c.spec.Required = !c.spec.Optional
	c.spec.Positional = len(c.opts.Opts) == 0 && c.spec.Required
	return nil
}

func (c *compilation) evalDest() error {
	if strings.HasPrefix(c.spec.OriginalName, "_") && c.opts.Dest == "" {
		return argerr.Definition("field starting with _ should have 'dest' property")
	}
	dest := c.opts.Dest
	if dest == "" {
		dest = c.spec.Name
	}
	if c.scope.Prefix != "" {
		dest = c.scope.Prefix + "__" + dest
	}
	c.spec.Dest = dest
	return nil
}

// evalLongOpts registers explicit option strings and generates the
// automatic long option for non-required fields. Supplying only short
// options suppresses the automatic form.
func (c *compilation) evalLongOpts() error {
	for _, opt := range append(append([]string{}, c.spec.ShortOpts...), c.spec.LongOpts...) {
		if c.scope.UsedOpts[opt] {
			return argerr.Definition("option string '%s' already in use", opt)
		}
		c.scope.UsedOpts[opt] = true
	}
	return nil
}

// autoLongOpt generates the long option of a non-required field that
// declared no option strings. Supplying only short options suppresses the
// automatic form.
func (c *compilation) autoLongOpt() error {
	if len(c.spec.LongOpts) > 0 || len(c.spec.ShortOpts) > 0 || c.spec.Required {
		return nil
	}
	opt := "--" + strings.ReplaceAll(strings.ToLower(c.spec.Name), "_", "-")
	if c.scope.UsedOpts[opt] {
		return argerr.Definition("conflict in generating 'longopt'. '%s' already in use", opt)
	}
	c.scope.UsedOpts[opt] = true
	c.spec.LongOpts = []string{opt}
	return nil
}

func (c *compilation) evalNArgs() error {
	t := c.spec.Type
	hasConst := c.opts.Const != nil

	if tup := tupleOf(t); tup != nil && !hasConst {
		n, fixed := c.opts.NArgs.Count()
		if !fixed || n < 2 {
			return argerr.Definition("'nargs' must be an integer value (2 or more) for tuple fields")
		}
		if !tup.OpenTail() && n != len(tup.Elems()) {
			return argerr.Definition("'nargs' (%d) must be same as no. of fields in tuple (%d)", n, len(tup.Elems()))
		}
	}
	if unionWithBool(t) && !c.opts.NArgs.IsUnset() && !c.opts.NArgs.IsZeroOrOne() {
		return argerr.Definition("'nargs' must be '?' or unset for union with bool fields")
	}
	if hasConst && !c.opts.NArgs.IsUnset() && !c.opts.NArgs.IsZeroOrOne() && tupleOf(t) == nil {
		return argerr.Definition("'nargs' must be '?' or unset to supply 'const'")
	}
	if !c.opts.NArgs.IsUnset() && !c.opts.NArgs.IsZeroOrOne() {
		if !t.IsRepeated() && tupleOf(t) == nil {
			return argerr.Definition("must be list or tuple type when 'nargs' is specified")
		}
	}

	c.spec.NArgs = c.opts.NArgs
	if c.spec.NArgs.IsUnset() && unionWithBool(t) {
		c.spec.NArgs = ZeroOrOne()
	}
	return nil
}

func (c *compilation) evalConst() error {
	t := c.spec.Type
	if strings.HasPrefix(c.spec.OriginalName, "_") && c.opts.Const == nil {
		return argerr.Definition("field starting with _ should have 'const' property")
	}
	if c.opts.Const != nil {
		if scalarKind(t) == descriptor.KindBool && t.IsScalar() {
			return argerr.Definition("'const' property is not allowed for 'bool' type")
		}
		if c.spec.Positional {
			return argerr.Definition("'const' property is not allowed for 'positional' arguments")
		}
		if t.IsScalar() && t.Kind() != descriptor.KindDomain && !kindMatches(c.opts.Const, t.Kind()) {
			return argerr.Definition("'const' must be of same type as field")
		}
		c.spec.Const = c.opts.Const
		c.spec.HasConst = true
		if c.spec.NArgs.IsUnset() && tupleOf(t) == nil {
			c.spec.NArgs = ZeroOrOne()
		}
		return nil
	}

	// A sum containing a boolean toggles to true by bare presence.
	if unionWithBool(t) {
		c.spec.Const = true
		c.spec.HasConst = true
	}
	return nil
}

// evalAction derives the action from the resolved shape; callers never set
// it directly. Fields named help or version wire to the built-in actions
// regardless of their declared type.
func (c *compilation) evalAction() error {
	t := c.spec.Type

	switch strings.ToLower(c.spec.Name) {
	case "help":
		c.spec.Action = ActionHelp
		c.spec.Required = false
		return c.autoLongOpt()
	case "version":
		c.spec.Action = ActionVersion
		c.spec.Required = false
		return c.autoLongOpt()
	}

	switch {
	case c.spec.HasConst && c.opts.Const != nil &&
		((t.IsRepeated() && !unionWithBool(t)) || strings.HasPrefix(c.spec.OriginalName, "_")):
		c.spec.Action = ActionAppendConst
	case c.spec.HasConst && t.IsRepeated() && unionWithBool(t):
		c.spec.Action = ActionAppend
	case c.spec.HasConst && c.opts.Const != nil:
		if c.opts.NArgs.IsZeroOrOne() {
			c.spec.Action = ActionStore
		} else {
			c.spec.Action = ActionStoreConst
			c.spec.NArgs = NArgs{}
		}
	case t.IsRepeated() && (tupleOf(t) != nil || c.opts.NArgs.IsUnset()):
		c.spec.Action = ActionAppend
	case t.IsMap():
		c.spec.Action = ActionAppend
	case t.IsScalar() && t.Kind() == descriptor.KindBool && !t.IsEnum():
		c.spec.Action = ActionToggle
	case c.opts.Counter:
		c.spec.Action = ActionCount
	default:
		c.spec.Action = ActionStore
	}

	if err := c.autoLongOpt(); err != nil {
		return err
	}

	if c.spec.Action == ActionToggle {
		for _, long := range c.spec.LongOpts {
			neg := "--no-" + strings.TrimPrefix(long, "--")
			if c.scope.UsedOpts[neg] {
				return argerr.Definition("option string '%s' already in use", neg)
			}
			c.scope.UsedOpts[neg] = true
			c.spec.NegatedOpts = append(c.spec.NegatedOpts, neg)
		}
	}
	return nil
}

func (c *compilation) evalCounter() error {
	if !c.opts.Counter {
		return nil
	}
	t := c.spec.Type
	if !t.IsScalar() || (t.Kind() != descriptor.KindInt && t.Kind() != descriptor.KindFloat) {
		return argerr.Definition("field type must be 'int' or 'float' for counter fields")
	}
	c.spec.Counter = true
	return nil
}

func (c *compilation) evalDefault() error {
	t := c.spec.Type
	def := c.opts.Default

	if def != nil && def != Suppress {
		if c.spec.Required {
			return argerr.Definition("'default' is invalid for 'required' fields")
		}
		if err := c.checkDefault(t, def); err != nil {
			return err
		}
	}

	if strings.ToLower(c.spec.Name) == "help" {
		c.spec.Default = Suppress
		return nil
	}

	if def == nil {
		switch {
		case c.opts.Counter:
			c.spec.Default = 0
		case t.IsScalar() && t.Kind() == descriptor.KindBool && !t.IsEnum():
			c.spec.Default = false
		}
		return nil
	}

	c.spec.Default = def
	return nil
}

func (c *compilation) checkDefault(t *descriptor.Type, def any) error {
	switch {
	case t.IsSum():
		conv, err := convert.ForType(t)
		if err != nil {
			return err
		}
		got, err := conv(convert.FormatValue(def))
		if err != nil || reflect.TypeOf(got) != reflect.TypeOf(def) {
			return argerr.Definition("'default' must be a valid type from the given union %s", t.String())
		}
	case t.IsMap():
		return c.checkMapDefault(t, def)
	case tupleOf(t) != nil:
		return c.checkTupleDefault(t, def)
	case t.IsScalar() && t.Kind() == descriptor.KindDomain:
		if _, err := t.DomainType().Convert(def); err != nil {
			return argerr.Definition(
				"'default' must be of same type as defined by 'type' property, '%T' given", def)
		}
	case t.IsRepeated():
		return c.checkDefault(t.Elem(), def)
	case t.IsScalar():
		if !kindMatches(def, t.Kind()) {
			return argerr.Definition(
				"'default' must be of same type as defined by 'type' property, '%T' given", def)
		}
	}
	return nil
}

func (c *compilation) checkMapDefault(t *descriptor.Type, def any) error {
	if raw, ok := def.(string); ok {
		conv, err := convert.ForType(t)
		if err != nil {
			return err
		}
		if _, err := conv(raw); err != nil {
			return argerr.Definition("'default' must be a valid dict %s", t.String())
		}
		return nil
	}
	if reflect.ValueOf(def).Kind() != reflect.Map {
		return argerr.Definition("'default' must be a valid dict %s", t.String())
	}
	return nil
}

func (c *compilation) checkTupleDefault(t *descriptor.Type, def any) error {
	tup := tupleOf(t)
	fail := func() error {
		return argerr.Definition("'default' must be a valid tuple %s", tup.String())
	}

	elems, ok := def.([]any)
	if !ok {
		return fail()
	}
	if !tup.OpenTail() && len(elems) != len(tup.Elems()) {
		return fail()
	}
	for i, v := range elems {
		et := tup.Elems()[0]
		if !tup.OpenTail() {
			et = tup.Elems()[i]
		}
		if et.Kind() != descriptor.KindDomain && !kindMatches(v, et.Kind()) {
			return fail()
		}
	}
	return nil
}

func (c *compilation) evalMetavar() error {
	if len(c.opts.Metavars) > 0 {
		c.spec.Metavars = transformMetavars(c.opts.Metavars)
		return nil
	}
	if c.opts.Metavar != "" {
		c.spec.Metavars = transformMetavars([]string{c.opts.Metavar})
		return nil
	}

	t := c.spec.Type
	var metavar string
	switch {
	case t.IsScalar() && t.Kind() == descriptor.KindDomain && !c.spec.Positional:
		metavar = t.DomainType().Metavar()
	case t.IsEnum() || (t.IsRepeated() && t.Elem().IsEnum()):
		choices := t.Choices()
		if t.IsRepeated() {
			choices = t.Elem().Choices()
		}
		names := make([]string, len(choices))
		for i, v := range choices {
			names[i] = convert.FormatValue(v)
		}
		c.spec.Metavars = []string{"(" + strings.Join(names, "|") + ")"}
		return nil
	case t.IsMap() || (t.IsRepeated() && t.Elem().IsMap()):
		metavar = "key=value"
	case c.spec.Positional:
		metavar = c.spec.Name
	default:
		if n, fixed := c.spec.NArgs.Count(); fixed {
			vars := make([]string, n)
			for i := range vars {
				vars[i] = "value" + strconv.Itoa(i+1)
			}
			c.spec.Metavars = transformMetavars(vars)
			return nil
		}
		metavar = "value"
	}
	c.spec.Metavars = transformMetavars([]string{metavar})
	return nil
}

func (c *compilation) evalAliases() error {
	for _, alias := range c.opts.Aliases {
		if c.scope.Aliases[alias] {
			return argerr.Definition("conflicting command alias '%s'", alias)
		}
		c.scope.Aliases[alias] = true
	}
	c.spec.Aliases = c.opts.Aliases
	return nil
}

func (c *compilation) evalGroup() error {
	title := c.opts.Group
	var gopts []group.Options
	if c.opts.GroupOptions != nil {
		gopts = append(gopts, *c.opts.GroupOptions)
	}

	if title == "" {
		switch {
		case c.spec.Action == ActionHelp || c.spec.Action == ActionVersion:
			title = GroupMiscellaneous
		case c.spec.IsSubcommand:
			title = GroupCommands
		case c.spec.Positional:
			title = GroupPositional
		default:
			title = GroupOptions
		}
	}

	g, err := c.scope.Registry.Get(title, gopts...)
	if err != nil {
		return err
	}
	kind := group.MemberField
	if c.spec.IsSubcommand {
		kind = group.MemberCommand
	}
	if err := g.AddMember(c.spec.Name, kind); err != nil {
		return err
	}
	c.spec.Group = g
	return nil
}

func (c *compilation) buildConverters() error {
	t := c.spec.Type
	switch c.spec.Action {
	case ActionToggle, ActionCount, ActionHelp, ActionVersion, ActionStoreConst, ActionAppendConst:
		return nil
	}
	if tupleOf(t) != nil {
		conv, err := convert.ForTuple(t)
		if err != nil {
			return err
		}
		c.spec.ConvertTuple = conv
		return nil
	}
	conv, err := convert.ForType(t)
	if err != nil {
		return err
	}
	c.spec.Convert = conv
	return nil
}

// tupleOf returns the tuple descriptor of t, looking through one repeated
// container, or nil.
func tupleOf(t *descriptor.Type) *descriptor.Type {
	if t.IsTuple() {
		return t
	}
	if t.IsRepeated() && t.Elem().IsTuple() {
		return t.Elem()
	}
	return nil
}

// unionWithBool reports whether t, or its repeated element, is a sum
// containing a boolean member.
func unionWithBool(t *descriptor.Type) bool {
	if t.IsSum() {
		return t.SumHasBool()
	}
	if t.IsRepeated() && t.Elem().IsSum() {
		return t.Elem().SumHasBool()
	}
	return false
}

func scalarKind(t *descriptor.Type) descriptor.Kind {
	if t.IsScalar() {
		return t.Kind()
	}
	return -1
}

func kindMatches(v any, kind descriptor.Kind) bool {
	switch kind {
	case descriptor.KindString:
		_, ok := v.(string)
		return ok
	case descriptor.KindInt:
		_, ok := v.(int)
		return ok
	case descriptor.KindFloat:
		switch v.(type) {
		case float64, int:
			return true
		}
		return false
	case descriptor.KindBool:
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

func transformMetavars(vars []string) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		if strings.HasPrefix(v, "(") || strings.HasPrefix(v, "<") {
			out[i] = v
			continue
		}
		out[i] = "<" + strings.ToLower(v) + ">"
	}
	return out
}

