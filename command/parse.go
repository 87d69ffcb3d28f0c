package command

import (
	"strings"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/convert"
	"github.com/typarg/typarg/descriptor"
	"github.com/typarg/typarg/field"
	"github.com/typarg/typarg/group"
	"github.com/typarg/typarg/internal/log"
)

// parser holds the transient state of one argv walk. A Command is never
// mutated while parsing, so concurrent parses of the same tree are safe.
type parser struct {
	cur      *Command
	values   *Values
	exclude  map[*group.Group]string
	sep      bool
	posIndex int
}

func (c *Command) parse(argv []string) (*Values, *Command, error) {
	p := &parser{
		cur:     c,
		values:  newValues(),
		exclude: make(map[*group.Group]string),
	}
	p.values.path = []string{c.Name}

	if err := p.walk(argv); err != nil {
		return nil, p.cur, err
	}
	if err := p.finish(); err != nil {
		return nil, p.cur, err
	}
	return p.values, p.cur, nil
}

func (p *parser) walk(argv []string) error {
	for i := 0; i < len(argv); {
		token := argv[i]

		if !p.sep && token == "--" {
			p.sep = true
			i++
			continue
		}

		if !p.sep && isOption(token) {
			next, err := p.applyOption(argv, i)
			if err != nil {
				return err
			}
			i = next
			continue
		}

		if !p.sep && p.posIndex >= len(p.cur.positionals) {
			if sub := p.cur.lookupSub(token); sub != nil {
				p.descend(sub)
				i++
				continue
			}
		}

		next, err := p.applyPositional(argv, i)
		if err != nil {
			return err
		}
		i = next
	}
	return nil
}

func (p *parser) descend(sub *Command) {
	log.Debug("parse: entering subcommand '%s'", sub.Name)
	p.cur = sub
	p.posIndex = 0
	p.values.path = append(p.values.path, sub.Name)
}

func isOption(token string) bool {
	return strings.HasPrefix(token, "-") && token != "-" && token != "--"
}

// lookupOption resolves an option string against the current command, then
// its ancestors, so global options remain usable after a subcommand.
func (p *parser) lookupOption(name string) (optEntry, bool) {
	for c := p.cur; c != nil; c = c.parent {
		if e, ok := c.options[name]; ok {
			return e, true
		}
	}
	return optEntry{}, false
}

func (p *parser) applyOption(argv []string, i int) (int, error) {
	token := argv[i]
	name := token
	inline := ""
	hasInline := false
	if eq := strings.Index(token, "="); eq >= 0 {
		name, inline = token[:eq], token[eq+1:]
		hasInline = true
	}

	entry, ok := p.lookupOption(name)
	if !ok {
		return 0, p.unknownOption(name)
	}
	spec := entry.spec
	log.Debug("parse: option %s -> field '%s' (%s)", name, spec.Name, spec.Action)

	switch spec.Action {
	case field.ActionHelp:
		p.cur.renderHelp()
		return 0, ErrHelp
	case field.ActionVersion:
		p.cur.printVersion()
		return 0, ErrVersion
	case field.ActionToggle:
		if err := p.markSupplied(spec); err != nil {
			return 0, err
		}
		p.values.set(spec.Dest, !entry.negated)
		return i + 1, nil
	case field.ActionCount:
		if err := p.markSupplied(spec); err != nil {
			return 0, err
		}
		p.increment(spec)
		return i + 1, nil
	case field.ActionStoreConst:
		if err := p.markSupplied(spec); err != nil {
			return 0, err
		}
		p.values.set(spec.Dest, spec.Const)
		return i + 1, nil
	case field.ActionAppendConst:
		if err := p.markSupplied(spec); err != nil {
			return 0, err
		}
		p.appendValue(spec, spec.Const)
		return i + 1, nil
	}

	if err := p.markSupplied(spec); err != nil {
		return 0, err
	}

	var tokens []string
	next := i + 1
	if hasInline {
		tokens = []string{inline}
	} else {
		tokens, next = p.gather(spec, argv, next)
	}
	return next, p.store(spec, tokens)
}

// gather consumes the raw tokens one occurrence of spec claims, stopping at
// the next option-like token.
func (p *parser) gather(spec *field.Spec, argv []string, i int) ([]string, int) {
	avail := func(j int) bool {
		return j < len(argv) && (p.sep || !isOption(argv[j]))
	}

	if n, fixed := spec.NArgs.Count(); fixed {
		tokens := make([]string, 0, n)
		for len(tokens) < n && avail(i) {
			tokens = append(tokens, argv[i])
			i++
		}
		return tokens, i
	}
	if spec.NArgs.IsZeroOrMore() || spec.NArgs.IsOneOrMore() {
		var tokens []string
		for avail(i) {
			tokens = append(tokens, argv[i])
			i++
		}
		return tokens, i
	}
	// Unset and "?" both take at most one token.
	if avail(i) {
		return []string{argv[i]}, i + 1
	}
	return nil, i
}

// store converts the gathered tokens and records the result under the
// field's destination, accumulating for append actions.
func (p *parser) store(spec *field.Spec, tokens []string) error {
	t := spec.Type

	if spec.ConvertTuple != nil {
		if len(tokens) == 0 && spec.HasConst {
			return p.accept(spec, spec.Const)
		}
		v, err := spec.ConvertTuple(tokens)
		if err != nil {
			return p.attribute(spec, err)
		}
		return p.accept(spec, v)
	}

	if len(tokens) == 0 {
		switch {
		case spec.HasConst:
			return p.accept(spec, spec.Const)
		case spec.NArgs.IsZeroOrMore():
			return nil
		case spec.NArgs.IsZeroOrOne():
			// A bare option under a '?' contract falls back to the
			// field's default rather than erroring.
			if spec.Default != nil && spec.Default != field.Suppress {
				p.values.set(spec.Dest, spec.Default)
			}
			return nil
		default:
			return argerr.Conversionf("argument %s: expected a value", spec.DisplayName()).
				WithField(spec.Name)
		}
	}

	if t.IsMap() || (t.IsRepeated() && t.Elem().IsMap()) {
		for _, raw := range tokens {
			v, err := spec.Convert(raw)
			if err != nil {
				return p.attribute(spec, err)
			}
			entry := v.(convert.MapEntry)
			if err := p.check(spec, entry.Value); err != nil {
				return err
			}
			p.mergeEntry(spec, entry)
		}
		return nil
	}

	// A repeated field with explicit arity stores the whole gathered list
	// at once; only unset-arity lists accumulate per occurrence.
	if t.IsRepeated() && spec.Action == field.ActionStore {
		list := make([]any, 0, len(tokens))
		for _, raw := range tokens {
			v, err := spec.Convert(raw)
			if err != nil {
				return p.attribute(spec, err)
			}
			if err := p.check(spec, v); err != nil {
				return err
			}
			list = append(list, v)
		}
		p.values.set(spec.Dest, list)
		return nil
	}

	for _, raw := range tokens {
		v, err := spec.Convert(raw)
		if err != nil {
			return p.attribute(spec, err)
		}
		if err := p.accept(spec, v); err != nil {
			return err
		}
	}
	return nil
}

// accept validates one converted value and records it.
func (p *parser) accept(spec *field.Spec, v any) error {
	if err := p.check(spec, v); err != nil {
		return err
	}
	if spec.Action == field.ActionAppend || spec.Action == field.ActionAppendConst {
		p.appendValue(spec, v)
		return nil
	}
	p.values.set(spec.Dest, v)
	return nil
}

func (p *parser) check(spec *field.Spec, v any) error {
	if spec.Validator == nil {
		return nil
	}
	if err := spec.Validator.Check(v); err != nil {
		return p.attribute(spec, err)
	}
	return nil
}

func (p *parser) attribute(spec *field.Spec, err error) error {
	if ae, ok := err.(*argerr.Error); ok && ae.Field == "" {
		return ae.WithField(spec.Name)
	}
	return err
}

func (p *parser) appendValue(spec *field.Spec, v any) {
	existing, _ := p.values.Get(spec.Dest)
	slice, _ := existing.([]any)
	p.values.set(spec.Dest, append(slice, v))
}

// mergeEntry folds one converted map occurrence into the accumulated map.
// A repeated key overwrites the earlier value, matching last-wins option
// semantics.
func (p *parser) mergeEntry(spec *field.Spec, entry convert.MapEntry) {
	existing, _ := p.values.Get(spec.Dest)
	m, ok := existing.(map[any]any)
	if !ok {
		m = make(map[any]any)
		p.values.set(spec.Dest, m)
	}
	m[entry.Key] = entry.Value
}

func (p *parser) increment(spec *field.Spec) {
	if spec.Type.Kind() == descriptor.KindFloat {
		cur, _ := p.values.m[spec.Dest].(float64)
		p.values.set(spec.Dest, cur+1)
		return
	}
	cur, _ := p.values.m[spec.Dest].(int)
	p.values.set(spec.Dest, cur+1)
}

func (p *parser) applyPositional(argv []string, i int) (int, error) {
	if p.posIndex >= len(p.cur.positionals) {
		return 0, p.unknownArgument(argv[i])
	}
	spec := p.cur.positionals[p.posIndex]

	if err := p.markSupplied(spec); err != nil {
		return 0, err
	}

	if spec.Action == field.ActionToggle {
		v, err := parseBoolLiteral(argv[i])
		if err != nil {
			return 0, p.attribute(spec, err)
		}
		p.values.set(spec.Dest, v)
		p.posIndex++
		return i + 1, nil
	}

	tokens, next := p.gather(spec, argv, i)
	if !spec.Repeatable() || spec.ConvertTuple != nil {
		p.posIndex++
	}
	return next, p.store(spec, tokens)
}

func parseBoolLiteral(raw string) (bool, error) {
	switch raw {
	case "True", "":
		return true, nil
	case "False":
		return false, nil
	}
	return false, argerr.Conversion(raw, "bool")
}

// markSupplied records the occurrence and enforces mutual exclusion inside
// the field's group.
func (p *parser) markSupplied(spec *field.Spec) error {
	p.values.supplied[spec.Dest] = true

	g := spec.Group
	if g == nil || !g.MutuallyExclusive {
		return nil
	}
	if prev, ok := p.exclude[g]; ok && prev != spec.DisplayName() {
		return argerr.Validation("", "argument %s: not allowed with argument %s",
			spec.DisplayName(), prev)
	}
	p.exclude[g] = spec.DisplayName()
	return nil
}

// finish applies defaults along the resolved command path and enforces
// required fields and required exclusive groups.
func (p *parser) finish() error {
	var missing []string
	seenGroups := make(map[*group.Group]bool)

	for c := p.cur; c != nil; c = c.parent {
		for _, spec := range c.specs {
			if spec.Action == field.ActionHelp || spec.Action == field.ActionVersion {
				continue
			}
			if p.values.supplied[spec.Dest] {
				continue
			}
			if spec.Required {
				missing = append(missing, spec.DisplayName())
				continue
			}
			if spec.Default != nil && spec.Default != field.Suppress {
				if _, ok := p.values.Get(spec.Dest); !ok {
					p.values.set(spec.Dest, spec.Default)
				}
			}
		}
		for _, title := range c.registry.Titles() {
			g, _ := c.registry.Lookup(title)
			if !g.Required || seenGroups[g] {
				continue
			}
			if _, supplied := p.exclude[g]; supplied {
				seenGroups[g] = true
				continue
			}
			owned, err := p.requireGroup(c, g)
			if err != nil {
				return err
			}
			if owned {
				seenGroups[g] = true
			}
		}
	}

	if len(missing) > 0 {
		return argerr.Validation("", "the following arguments are required: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// requireGroup reports a required mutually-exclusive group none of whose
// members was supplied. The group only binds commands that declare one of
// its member fields.
func (p *parser) requireGroup(c *Command, g *group.Group) (bool, error) {
	var names []string
	for _, spec := range c.specs {
		if spec.Group == g {
			names = append(names, spec.DisplayName())
		}
	}
	if len(names) == 0 {
		return false, nil
	}
	return true, argerr.Validation("", "one of the arguments %s is required",
		strings.Join(names, ", "))
}

func (p *parser) unknownOption(name string) error {
	var known []string
	for c := p.cur; c != nil; c = c.parent {
		for opt := range c.options {
			known = append(known, opt)
		}
	}
	if match, ok := FindSimilar(name, known); ok {
		return argerr.Validation("", "unrecognized argument '%s', did you mean '%s'?", name, match)
	}
	return argerr.Validation("", "unrecognized argument '%s'", name)
}

func (p *parser) unknownArgument(token string) error {
	var known []string
	for name := range p.cur.subs {
		known = append(known, name)
	}
	if match, ok := FindSimilar(token, known); ok {
		return argerr.Validation("", "unrecognized argument '%s', did you mean '%s'?", token, match)
	}
	return argerr.Validation("", "unrecognized argument '%s'", token)
}
