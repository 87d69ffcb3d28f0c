// Command typarg-demo exercises the typed field engine end to end: unions,
// tuples, dictionaries, enumerations, domain types, validators, groups and
// subcommands, all declared through the library API.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/command"
	"github.com/typarg/typarg/descriptor"
	"github.com/typarg/typarg/field"
	"github.com/typarg/typarg/group"
	"github.com/typarg/typarg/internal/log"
	"github.com/typarg/typarg/internal/style"
	"github.com/typarg/typarg/validate"
)

func main() {
	style.Init(term.IsTerminal(int(os.Stdout.Fd())))

	if path := os.Getenv("TYPARG_DEMO_LOG"); path != "" {
		if err := log.Init(filepath.Clean(path), log.LevelDebug); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		defer func() { _ = log.Close() }()
	}

	root := buildRoot()

	if err := root.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, style.Error(err.Error()))
		if ae, ok := err.(*argerr.Error); ok {
			os.Exit(ae.ExitCode())
		}
		os.Exit(1)
	}
}

func buildRoot() *command.Command {
	root := command.New("typarg-demo", "showcase for the typed argument engine")
	root.SetVersion("1.0.0")

	root.MustField("verbose", descriptor.Optional(descriptor.Int()), field.Options{
		Opts:    []string{"-v"},
		Counter: true,
		Help:    "increase verbosity",
	})
	root.MustField("config", descriptor.Optional(descriptor.Path()), field.Options{
		Help:      "configuration file",
		Validator: validate.Must(validate.NewPath(false, false, true, false)),
	})

	convert := root.MustSubcommand("convert", "convert a value between formats",
		command.SubcommandOptions{Aliases: []string{"c"}, Help: "convert a value"})
	convert.MustField("value", descriptor.Union(descriptor.Int(), descriptor.Float(), descriptor.String()),
		field.Options{Help: "value to convert, tried as int, float, then string"})
	convert.MustField("format", descriptor.Optional(descriptor.Enum("json", "yaml", "plain")), field.Options{
		Default: "plain",
		Help:    "output format",
	})
	convert.MustBind(func(v *command.Values) error {
		value, _ := v.Get("convert__value")
		fmt.Printf("%v (%T) as %s\n", value, value, v.String("convert__format", "plain"))
		return nil
	}, "convert__value", "convert__format")

	serve := root.MustSubcommand("serve", "run the demo endpoint")
	serve.MustField("endpoint", descriptor.Optional(descriptor.URL(descriptor.URLOptions{
		AllowedSchemes: []string{"http", "https"},
		HostRequired:   true,
	})), field.Options{Help: "endpoint to serve on"})
	serve.MustField("window", descriptor.Optional(descriptor.TupleOf(
		descriptor.Int(), descriptor.Int())), field.Options{
		NArgs: field.Exactly(2),
		Help:  "low/high window bounds",
	})
	serve.MustField("label", descriptor.Optional(descriptor.MapOf(descriptor.String(), descriptor.String())),
		field.Options{Help: "labels as key=value pairs"})
	serve.MustField("workers", descriptor.Optional(descriptor.Int()), field.Options{
		Default:   4,
		Validator: validate.Must(validate.NewRange(validate.F(1), validate.F(64))),
		Help:      "worker pool size",
	})
	serve.MustField("quiet", descriptor.Optional(descriptor.Bool()), field.Options{
		Group:        "output control",
		GroupOptions: &group.Options{MutuallyExclusive: true},
		Help:         "suppress output",
	})
	serve.MustField("debug", descriptor.Optional(descriptor.Bool()), field.Options{
		Group: "output control",
		Help:  "verbose diagnostics",
	})
	serve.MustBind(func(v *command.Values) error {
		fmt.Printf("serving with %d workers\n", v.Int("serve__workers", 4))
		if labels := v.Map("serve__label"); len(labels) > 0 {
			fmt.Printf("labels: %v\n", labels)
		}
		return nil
	})

	return root
}
