// Package group implements the title-keyed registry of display and
// constraint groups shared by every command in a definition tree.
package group

import (
	"strings"

	"github.com/typarg/typarg/argerr"
)

// MemberKind separates plain argument fields from subcommand fields; a
// group may not mix the two.
type MemberKind int

const (
	MemberUnset MemberKind = iota
	MemberField
	MemberCommand
)

// Group is a named collection of fields sharing a display heading and,
// optionally, a mutual-exclusion constraint. Fields reference their group
// through the registry; they never own it.
type Group struct {
	Title             string
	Description       string
	HideTitle         bool
	MutuallyExclusive bool
	Required          bool

	memberKind MemberKind
	members    []string
}

// Members returns the names of the fields assigned to this group, in
// assignment order.
func (g *Group) Members() []string { return g.members }

// AddMember records a field in the group, enforcing that plain fields and
// subcommand fields never share a group.
func (g *Group) AddMember(name string, kind MemberKind) error {
	if g.memberKind == MemberUnset {
		g.memberKind = kind
	} else if g.memberKind != kind {
		return argerr.Definition("group '%s' cannot mix argument fields and subcommands", g.Title)
	}
	g.members = append(g.members, name)
	return nil
}

// Kind returns the kind of members the group holds so far.
func (g *Group) Kind() MemberKind { return g.memberKind }

// Options configures a group on first registration. Later registrations of
// the same title ignore the options and return the existing group.
type Options struct {
	Description       string
	HideTitle         bool
	MutuallyExclusive bool
	Required          bool
}

// Registry deduplicates groups by title so that two fields anywhere in a
// command tree declaring the same title land in one shared group. It is
// owned by the top-level command definition and passed by reference to
// nested commands; population is lazy and append-only.
type Registry struct {
	order  []string
	groups map[string]*Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Get returns the group registered under title, creating it on first use.
// Titles compare case-insensitively. Marking a group required without
// marking it mutually exclusive is a definition error.
func (r *Registry) Get(title string, opts ...Options) (*Group, error) {
	key := strings.ToLower(title)
	if g, ok := r.groups[key]; ok {
		return g, nil
	}

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Required && !o.MutuallyExclusive {
		return nil, argerr.Definition("'required' flag is only applicable when 'mutually_exclusive' is true")
	}

	g := &Group{
		Title:             key,
		Description:       o.Description,
		HideTitle:         o.HideTitle,
		MutuallyExclusive: o.MutuallyExclusive,
		Required:          o.Required,
	}
	r.groups[key] = g
	r.order = append(r.order, key)
	return g, nil
}

// Lookup returns the group registered under title, if any.
func (r *Registry) Lookup(title string) (*Group, bool) {
	g, ok := r.groups[strings.ToLower(title)]
	return g, ok
}

// Titles returns registered titles in first-registration order.
func (r *Registry) Titles() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
