// Package command assembles compiled field specs into an executable
// command tree and drives the token-by-token argument backend.
//
// The compile phase (New, Field, Subcommand, Bind) is where every
// definition error surfaces; the parse phase (Parse, Execute) only ever
// reports conversion and validation errors. The two phases never
// interleave.
package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/descriptor"
	"github.com/typarg/typarg/field"
	"github.com/typarg/typarg/group"
)

// ErrHelp is returned by Parse after rendering help output.
var ErrHelp = errors.New("help requested")

// ErrVersion is returned by Parse after printing the version.
var ErrVersion = errors.New("version requested")

// Handler receives the converted values of a successful parse.
type Handler func(v *Values) error

type optEntry struct {
	spec    *field.Spec
	negated bool
}

// Command is one node of the definition tree: its compiled field specs,
// option lookup tables, subcommands and the shared group registry.
type Command struct {
	Name        string
	Description string
	Epilog      string

	version string

	registry    *group.Registry
	scope       *field.Scope
	specs       []*field.Spec
	byDest      map[string]*field.Spec
	positionals []*field.Spec
	options     map[string]optEntry
	subs        map[string]*Command
	subAliases  map[string]string
	subSpecs    []*field.Spec
	parent      *Command

	handler       Handler
	handlerParams []string

	out io.Writer
}

// New creates a top-level command definition. It owns the group registry
// passed down to every nested command, and carries the built-in help field.
func New(name, description string) *Command {
	registry := group.NewRegistry()
	c := &Command{
		Name:        name,
		Description: description,
		registry:    registry,
		scope:       field.NewScope(registry),
		byDest:      make(map[string]*field.Spec),
		options:     make(map[string]optEntry),
		subs:        make(map[string]*Command),
		subAliases:  make(map[string]string),
		out:         os.Stdout,
	}
	c.mustBuiltin("help", []string{"-h", "--help"}, "show this help message and exit")
	return c
}

// SetVersion sets the version string and registers the --version field.
func (c *Command) SetVersion(version string) {
	c.version = version
	c.mustBuiltin("version", []string{"--version"}, "show program version and exit")
}

// SetOutput redirects help and version output, mainly for tests.
func (c *Command) SetOutput(w io.Writer) { c.out = w }

func (c *Command) mustBuiltin(name string, opts []string, help string) {
	spec, err := field.Compile(name, descriptor.Optional(descriptor.Bool()), field.Options{
		Opts: opts,
		Help: help,
	}, c.scope)
	if err != nil {
		panic(err)
	}
	c.register(spec)
}

// Field compiles and registers one field. Definition errors are fatal and
// surface immediately.
func (c *Command) Field(name string, typ *descriptor.Type, opts field.Options) (*field.Spec, error) {
	spec, err := field.Compile(name, typ, opts, c.scope)
	if err != nil {
		return nil, err
	}
	if err := c.checkRedirect(spec); err != nil {
		return nil, err
	}
	if existing, ok := c.byDest[spec.Dest]; ok && !strings.HasPrefix(spec.OriginalName, "_") {
		return nil, argerr.Definition("destination '%s' already used by field '%s'", spec.Dest, existing.Name).
			WithField(name)
	}
	c.register(spec)
	return spec, nil
}

// MustField is Field for declaration blocks; a definition error panics,
// matching the always-fatal contract of the compile phase.
func (c *Command) MustField(name string, typ *descriptor.Type, opts field.Options) *field.Spec {
	spec, err := c.Field(name, typ, opts)
	if err != nil {
		panic(err)
	}
	return spec
}

// checkRedirect validates a private-marker field: its destination must be
// an already-declared list-or-tuple field carrying its own constant.
func (c *Command) checkRedirect(spec *field.Spec) error {
	if !strings.HasPrefix(spec.OriginalName, "_") {
		return nil
	}
	target, ok := c.byDest[spec.Dest]
	if !ok {
		return argerr.Definition("'dest' of field starting with _ must name a declared field").
			WithField(spec.OriginalName)
	}
	if !target.Type.IsRepeated() && !target.Type.IsTuple() {
		return argerr.Definition("'dest' of field starting with _ must name a list or tuple field").
			WithField(spec.OriginalName)
	}
	if !target.HasConst {
		return argerr.Definition("'dest' target of field starting with _ must carry a 'const' property").
			WithField(spec.OriginalName)
	}
	return nil
}

func (c *Command) register(spec *field.Spec) {
	c.specs = append(c.specs, spec)
	if _, ok := c.byDest[spec.Dest]; !ok {
		c.byDest[spec.Dest] = spec
	}
	if spec.Positional {
		c.positionals = append(c.positionals, spec)
		return
	}
	for _, opt := range spec.ShortOpts {
		c.options[opt] = optEntry{spec: spec}
	}
	for _, opt := range spec.LongOpts {
		c.options[opt] = optEntry{spec: spec}
	}
	for _, opt := range spec.NegatedOpts {
		c.options[opt] = optEntry{spec: spec, negated: true}
	}
}

// SubcommandOptions configures a nested command field.
type SubcommandOptions struct {
	Aliases []string
	Help    string
	Group   string
}

// Subcommand creates a nested command sharing the group registry. Its
// fields store under a "<name>__" destination namespace so that same-named
// fields across sibling subcommands never collide.
func (c *Command) Subcommand(name, description string, opts ...SubcommandOptions) (*Command, error) {
	var o SubcommandOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if strings.Contains(name, "__") {
		return nil, argerr.Definition("'%s' cannot have '__' in their name", name)
	}
	if _, ok := c.subs[name]; ok {
		return nil, argerr.Definition("subcommand '%s' already declared", name)
	}
	for _, alias := range o.Aliases {
		if c.scope.Aliases[alias] {
			return nil, argerr.Definition("conflicting command alias '%s'", alias).WithField(name)
		}
		c.scope.Aliases[alias] = true
	}

	prefix := name
	if c.scope.Prefix != "" {
		prefix = c.scope.Prefix + "__" + name
	}
	sub := &Command{
		Name:        name,
		Description: description,
		registry:    c.registry,
		scope:       field.NewScope(c.registry),
		byDest:      make(map[string]*field.Spec),
		options:     make(map[string]optEntry),
		subs:        make(map[string]*Command),
		subAliases:  make(map[string]string),
		parent:      c,
		out:         c.out,
	}
	sub.scope.Prefix = prefix
	sub.scope.Aliases = c.scope.Aliases
	sub.mustBuiltin("help", []string{"-h", "--help"}, "show this help message and exit")

	c.subs[name] = sub
	for _, alias := range o.Aliases {
		c.subAliases[alias] = name
	}

	title := o.Group
	if title == "" {
		title = field.GroupCommands
	}
	g, err := c.registry.Get(title)
	if err != nil {
		return nil, err
	}
	if err := g.AddMember(name, group.MemberCommand); err != nil {
		return nil, err
	}

	display := &field.Spec{
		Name:         name,
		OriginalName: name,
		Dest:         name,
		Help:         o.Help,
		Aliases:      o.Aliases,
		Group:        g,
		IsSubcommand: true,
		Positional:   true,
	}
	c.subSpecs = append(c.subSpecs, display)
	return sub, nil
}

// MustSubcommand is Subcommand with the fatal compile-phase contract.
func (c *Command) MustSubcommand(name, description string, opts ...SubcommandOptions) *Command {
	sub, err := c.Subcommand(name, description, opts...)
	if err != nil {
		panic(err)
	}
	return sub
}

// Bind attaches the handler invoked when this command is the resolved
// target of a parse. Every declared parameter name must match a compiled
// field destination; the check runs now, not at invocation time.
func (c *Command) Bind(handler Handler, params ...string) error {
	for _, p := range params {
		if _, ok := c.byDest[p]; !ok {
			return argerr.Definition("handler parameter '%s' does not match any compiled field", p)
		}
	}
	c.handler = handler
	c.handlerParams = params
	return nil
}

// MustBind is Bind with the fatal compile-phase contract.
func (c *Command) MustBind(handler Handler, params ...string) {
	if err := c.Bind(handler, params...); err != nil {
		panic(err)
	}
}

// Registry returns the shared group registry, used when rendering grouped
// help output.
func (c *Command) Registry() *group.Registry { return c.registry }

// Specs returns the compiled field specs in declaration order.
func (c *Command) Specs() []*field.Spec {
	out := make([]*field.Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Lookup returns the compiled spec for a destination name.
func (c *Command) Lookup(dest string) (*field.Spec, bool) {
	s, ok := c.byDest[dest]
	return s, ok
}

// Subcommands returns the nested commands by name.
func (c *Command) Subcommands() map[string]*Command {
	out := make(map[string]*Command, len(c.subs))
	for k, v := range c.subs {
		out[k] = v
	}
	return out
}

func (c *Command) lookupSub(token string) *Command {
	if sub, ok := c.subs[token]; ok {
		return sub
	}
	if name, ok := c.subAliases[token]; ok {
		return c.subs[name]
	}
	return nil
}

// path returns the command path from the root down to this command.
func (c *Command) path() []string {
	if c.parent == nil {
		return []string{c.Name}
	}
	return append(c.parent.path(), c.Name)
}

// Execute parses argv and dispatches to the handler of the resolved
// command. Help and version requests are not errors.
func (c *Command) Execute(argv []string) error {
	values, target, err := c.parse(argv)
	if errors.Is(err, ErrHelp) || errors.Is(err, ErrVersion) {
		return nil
	}
	if err != nil {
		return err
	}
	if target.handler == nil {
		target.renderHelp()
		return nil
	}
	return target.handler(values)
}

// Parse walks argv and returns the converted values. The resolved
// subcommand path is available through Values.Path.
func (c *Command) Parse(argv []string) (*Values, error) {
	values, _, err := c.parse(argv)
	return values, err
}

func (c *Command) printVersion() {
	fmt.Fprintf(c.out, "%s %s\n", c.root().Name, c.root().version)
}

func (c *Command) root() *Command {
	if c.parent == nil {
		return c
	}
	return c.parent.root()
}
