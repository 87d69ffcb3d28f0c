package command

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/typarg/typarg/convert"
	"github.com/typarg/typarg/field"
	"github.com/typarg/typarg/group"
	"github.com/typarg/typarg/internal/style"
)

const helpColumn = 26

// renderHelp writes the grouped help page of this command: a usage line,
// then every registry group that has members here, in first-registration
// order.
func (c *Command) renderHelp() {
	var out bytes.Buffer

	out.WriteString(strings.Join(c.path(), " "))
	if c.Description != "" {
		out.WriteString(" - ")
		out.WriteString(c.Description)
	}
	out.WriteString("\n\n")

	out.WriteString(style.Header("usage"))
	out.WriteString("\n   ")
	out.WriteString(c.usageLine())
	out.WriteString("\n\n")

	for _, title := range c.registry.Titles() {
		g, _ := c.registry.Lookup(title)
		members := c.groupMembers(g)
		if len(members) == 0 {
			continue
		}
		if !g.HideTitle {
			out.WriteString(style.Header(g.Title))
			out.WriteString("\n")
		}
		if g.Description != "" {
			out.WriteString("   ")
			out.WriteString(style.Muted(g.Description))
			out.WriteString("\n")
		}
		for _, spec := range members {
			c.renderField(&out, spec)
		}
		out.WriteString("\n")
	}

	if c.Epilog != "" {
		out.WriteString(style.Muted(c.Epilog))
		out.WriteString("\n")
	}

	fmt.Fprint(c.out, out.String())
}

func (c *Command) usageLine() string {
	parts := []string{strings.Join(c.path(), " ")}
	parts = append(parts, style.Muted("[options]"))
	for _, spec := range c.positionals {
		parts = append(parts, style.Metavar(strings.Join(spec.Metavars, " ")))
	}
	if len(c.subs) > 0 {
		parts = append(parts, style.Muted("<command> [...]"))
	}
	return strings.Join(parts, " ")
}

// groupMembers returns this command's specs assigned to g, declaration
// order preserved, subcommand display entries last.
func (c *Command) groupMembers(g *group.Group) []*field.Spec {
	var out []*field.Spec
	for _, spec := range c.specs {
		if spec.Group == g {
			out = append(out, spec)
		}
	}
	for _, spec := range c.subSpecs {
		if spec.Group == g {
			out = append(out, spec)
		}
	}
	return out
}

func (c *Command) renderField(out *bytes.Buffer, spec *field.Spec) {
	left := c.invocation(spec)

	help := spec.Help
	if spec.Repeatable() && !spec.IsSubcommand {
		help = strings.TrimSpace(help + " (multiple allowed)")
	}
	if d := spec.Default; d != nil && d != field.Suppress && !spec.IsSubcommand {
		help = strings.TrimSpace(help + " " + style.Muted("(default: "+convert.FormatValue(d)+")"))
	}

	pad := helpColumn - len(stripANSI(left))
	if pad < 2 {
		out.WriteString("   " + left + "\n")
		if help != "" {
			out.WriteString(strings.Repeat(" ", helpColumn+3) + help + "\n")
		}
		return
	}
	out.WriteString("   " + left + strings.Repeat(" ", pad) + help + "\n")
}

// invocation renders the left help column: styled option strings plus
// metavars, or the bare metavar for positionals and the name plus aliases
// for subcommands.
func (c *Command) invocation(spec *field.Spec) string {
	if spec.IsSubcommand {
		name := spec.Name
		if len(spec.Aliases) > 0 {
			name += " (" + strings.Join(spec.Aliases, ", ") + ")"
		}
		return style.Option(name)
	}
	if spec.Positional {
		return style.Metavar(strings.Join(spec.Metavars, " "))
	}

	opts := append(append([]string{}, spec.ShortOpts...), spec.LongOpts...)
	styled := make([]string, len(opts))
	for i, o := range opts {
		styled[i] = style.Option(o)
	}
	left := strings.Join(styled, ", ")

	if takesValue(spec) {
		left += " " + style.Metavar(strings.Join(spec.Metavars, " "))
	}
	return left
}

func takesValue(spec *field.Spec) bool {
	switch spec.Action {
	case field.ActionToggle, field.ActionCount, field.ActionHelp,
		field.ActionVersion, field.ActionStoreConst, field.ActionAppendConst:
		return false
	}
	return true
}

// stripANSI drops ANSI escape sequences so the printable width of a styled
// string can be measured.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
