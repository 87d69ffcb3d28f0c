package command

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/descriptor"
	"github.com/typarg/typarg/field"
	"github.com/typarg/typarg/group"
	"github.com/typarg/typarg/validate"
)

func TestParse_ScalarStore(t *testing.T) {
	c := New("app", "")
	c.MustField("name", descriptor.Optional(descriptor.String()), field.Options{})

	v, err := c.Parse([]string{"--name", "zaphod"})
	require.NoError(t, err)
	require.Equal(t, "zaphod", v.String("name", ""))
	require.True(t, v.Supplied("name"))
}

func TestParse_InlineValue(t *testing.T) {
	c := New("app", "")
	c.MustField("port", descriptor.Optional(descriptor.Int()), field.Options{})

	v, err := c.Parse([]string{"--port=8080"})
	require.NoError(t, err)
	require.Equal(t, 8080, v.Int("port", 0))
}

func TestParse_DefaultsApplied(t *testing.T) {
	c := New("app", "")
	c.MustField("workers", descriptor.Optional(descriptor.Int()), field.Options{Default: 4})

	v, err := c.Parse(nil)
	require.NoError(t, err)
	require.Equal(t, 4, v.Int("workers", 0))
	require.False(t, v.Supplied("workers"))
}

func TestParse_RequiredPositionalMissing(t *testing.T) {
	c := New("app", "")
	c.MustField("input", descriptor.String(), field.Options{})

	_, err := c.Parse(nil)
	require.Error(t, err)
	require.True(t, argerr.IsValidation(err))
	require.Contains(t, err.Error(), "the following arguments are required")
}

func TestParse_PositionalConsumed(t *testing.T) {
	c := New("app", "")
	c.MustField("input", descriptor.String(), field.Options{})
	c.MustField("count", descriptor.Int(), field.Options{})

	v, err := c.Parse([]string{"data.csv", "3"})
	require.NoError(t, err)
	require.Equal(t, "data.csv", v.String("input", ""))
	require.Equal(t, 3, v.Int("count", 0))
}

func TestParse_UnionValue(t *testing.T) {
	c := New("app", "")
	c.MustField("value", descriptor.Optional(descriptor.Union(
		descriptor.Int(), descriptor.String())), field.Options{})

	v, err := c.Parse([]string{"--value", "10"})
	require.NoError(t, err)
	got, _ := v.Get("value")
	require.Equal(t, 10, got)

	v, err = c.Parse([]string{"--value", "hello"})
	require.NoError(t, err)
	got, _ = v.Get("value")
	require.Equal(t, "hello", got)
}

func TestParse_UnionWithBoolBarePresence(t *testing.T) {
	c := New("app", "")
	c.MustField("cache", descriptor.Optional(descriptor.Union(
		descriptor.Bool(), descriptor.String())), field.Options{})

	v, err := c.Parse([]string{"--cache"})
	require.NoError(t, err)
	got, _ := v.Get("cache")
	require.Equal(t, true, got)

	v, err = c.Parse([]string{"--cache", "redis"})
	require.NoError(t, err)
	got, _ = v.Get("cache")
	require.Equal(t, "redis", got)
}

func TestParse_TupleField(t *testing.T) {
	c := New("app", "")
	c.MustField("row", descriptor.Optional(descriptor.TupleOf(
		descriptor.Int(), descriptor.String(), descriptor.Bool())), field.Options{
		NArgs: field.Exactly(3),
	})

	v, err := c.Parse([]string{"--row", "10", "foo", "False"})
	require.NoError(t, err)
	got, _ := v.Get("row")
	require.Equal(t, []any{10, "foo", false}, got)

	_, err = c.Parse([]string{"--row", "20.2", "foo", "False"})
	require.Error(t, err)
	require.True(t, argerr.IsConversion(err))
	require.Contains(t, err.Error(), "invalid value '20.2', expected (int,str,bool)")
}

func TestParse_MapAccumulation(t *testing.T) {
	c := New("app", "")
	c.MustField("label", descriptor.Optional(descriptor.MapOf(
		descriptor.String(), descriptor.Int())), field.Options{})

	v, err := c.Parse([]string{"--label", "abc=10", "--label", "xyz=20"})
	require.NoError(t, err)
	require.Equal(t, map[any]any{"abc": 10, "xyz": 20}, v.Map("label"))
}

func TestParse_MapDuplicateKeyLastWins(t *testing.T) {
	c := New("app", "")
	c.MustField("label", descriptor.Optional(descriptor.MapOf(
		descriptor.String(), descriptor.Int())), field.Options{})

	v, err := c.Parse([]string{"--label", "abc=10", "--label", "abc=20"})
	require.NoError(t, err)
	require.Equal(t, map[any]any{"abc": 20}, v.Map("label"))
}

func TestParse_ListAppend(t *testing.T) {
	c := New("app", "")
	c.MustField("tag", descriptor.Optional(descriptor.List(descriptor.String())), field.Options{})

	v, err := c.Parse([]string{"--tag", "a", "--tag", "b"})
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, v.Slice("tag"))
}

func TestParse_ListWithExplicitArity(t *testing.T) {
	c := New("app", "")
	c.MustField("num", descriptor.Optional(descriptor.List(descriptor.Int())), field.Options{
		NArgs: field.OneOrMore(),
	})

	v, err := c.Parse([]string{"--num", "1", "2", "3"})
	require.NoError(t, err)
	require.Equal(t, []any{1, 2, 3}, v.Slice("num"))
}

func TestParse_ListWithFixedArity(t *testing.T) {
	c := New("app", "")
	c.MustField("pair", descriptor.Optional(descriptor.List(descriptor.Int())), field.Options{
		NArgs: field.Exactly(2),
	})

	v, err := c.Parse([]string{"--pair", "7", "9"})
	require.NoError(t, err)
	require.Equal(t, []any{7, 9}, v.Slice("pair"))
}

func TestParse_ZeroOrOneBareStoresDefault(t *testing.T) {
	c := New("app", "")
	c.MustField("depth", descriptor.Optional(descriptor.Int()), field.Options{
		NArgs:   field.ZeroOrOne(),
		Default: 2,
	})

	v, err := c.Parse([]string{"--depth"})
	require.NoError(t, err)
	require.Equal(t, 2, v.Int("depth", 0))

	v, err = c.Parse([]string{"--depth", "5"})
	require.NoError(t, err)
	require.Equal(t, 5, v.Int("depth", 0))
}

func TestParse_ZeroOrOneBareNoDefaultLeavesUnset(t *testing.T) {
	c := New("app", "")
	c.MustField("depth", descriptor.Optional(descriptor.Int()), field.Options{
		NArgs: field.ZeroOrOne(),
	})

	v, err := c.Parse([]string{"--depth"})
	require.NoError(t, err)
	_, ok := v.Get("depth")
	require.False(t, ok)
	require.True(t, v.Supplied("depth"))
}

func TestParse_Toggle(t *testing.T) {
	c := New("app", "")
	c.MustField("cache", descriptor.Optional(descriptor.Bool()), field.Options{})

	v, err := c.Parse([]string{"--cache"})
	require.NoError(t, err)
	require.True(t, v.Bool("cache"))

	v, err = c.Parse([]string{"--no-cache"})
	require.NoError(t, err)
	require.False(t, v.Bool("cache"))

	// Default when absent
	v, err = c.Parse(nil)
	require.NoError(t, err)
	require.False(t, v.Bool("cache"))
}

func TestParse_Counter(t *testing.T) {
	c := New("app", "")
	c.MustField("verbose", descriptor.Optional(descriptor.Int()), field.Options{
		Opts:    []string{"-v"},
		Counter: true,
	})

	v, err := c.Parse([]string{"-v", "-v", "-v"})
	require.NoError(t, err)
	require.Equal(t, 3, v.Int("verbose", 0))

	v, err = c.Parse(nil)
	require.NoError(t, err)
	require.Equal(t, 0, v.Int("verbose", -1))
}

func TestParse_StoreConst(t *testing.T) {
	c := New("app", "")
	c.MustField("level", descriptor.Optional(descriptor.Int()), field.Options{Const: 3})

	v, err := c.Parse([]string{"--level"})
	require.NoError(t, err)
	require.Equal(t, 3, v.Int("level", 0))
}

func TestParse_SeparatorEndsOptions(t *testing.T) {
	c := New("app", "")
	c.MustField("input", descriptor.String(), field.Options{})

	v, err := c.Parse([]string{"--", "--input-looking-token"})
	require.NoError(t, err)
	require.Equal(t, "--input-looking-token", v.String("input", ""))
}

func TestParse_UnknownOptionSuggestion(t *testing.T) {
	c := New("app", "")
	c.MustField("cache", descriptor.Optional(descriptor.Bool()), field.Options{})

	_, err := c.Parse([]string{"--cahce"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unrecognized argument '--cahce'")
	require.Contains(t, err.Error(), "did you mean '--cache'?")
}

func TestParse_ValidatorRuns(t *testing.T) {
	c := New("app", "")
	c.MustField("workers", descriptor.Optional(descriptor.Int()), field.Options{
		Validator: validate.Must(validate.NewRange(validate.F(1), validate.F(8))),
	})

	_, err := c.Parse([]string{"--workers", "16"})
	require.Error(t, err)
	require.True(t, argerr.IsValidation(err))
	require.Contains(t, err.Error(), "value should be between 1 and 8")

	v, err := c.Parse([]string{"--workers", "4"})
	require.NoError(t, err)
	require.Equal(t, 4, v.Int("workers", 0))
}

func TestParse_MutuallyExclusiveGroup(t *testing.T) {
	c := New("app", "")
	c.MustField("quiet", descriptor.Optional(descriptor.Bool()), field.Options{
		Group:        "output control",
		GroupOptions: &group.Options{MutuallyExclusive: true},
	})
	c.MustField("debug", descriptor.Optional(descriptor.Bool()), field.Options{
		Group: "output control",
	})

	_, err := c.Parse([]string{"--quiet", "--debug"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not allowed with argument")

	v, err := c.Parse([]string{"--quiet"})
	require.NoError(t, err)
	require.True(t, v.Bool("quiet"))
}

func TestParse_RequiredExclusiveGroup(t *testing.T) {
	c := New("app", "")
	c.MustField("json", descriptor.Optional(descriptor.Bool()), field.Options{
		Group:        "format",
		GroupOptions: &group.Options{MutuallyExclusive: true, Required: true},
	})
	c.MustField("yaml", descriptor.Optional(descriptor.Bool()), field.Options{
		Group: "format",
	})

	_, err := c.Parse(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "one of the arguments")

	_, err = c.Parse([]string{"--yaml"})
	require.NoError(t, err)
}

func TestParse_SubcommandDescent(t *testing.T) {
	c := New("app", "")
	sub := c.MustSubcommand("fetch", "fetch things", SubcommandOptions{Aliases: []string{"f"}})
	sub.MustField("depth", descriptor.Optional(descriptor.Int()), field.Options{Default: 1})

	v, err := c.Parse([]string{"fetch", "--depth", "3"})
	require.NoError(t, err)
	require.Equal(t, []string{"app", "fetch"}, v.Path())
	require.Equal(t, 3, v.Int("fetch__depth", 0))

	// Alias resolves to the same subcommand.
	v, err = c.Parse([]string{"f", "--depth", "2"})
	require.NoError(t, err)
	require.Equal(t, 2, v.Int("fetch__depth", 0))
}

func TestParse_ParentOptionAfterSubcommand(t *testing.T) {
	c := New("app", "")
	c.MustField("verbose", descriptor.Optional(descriptor.Bool()), field.Options{})
	c.MustSubcommand("fetch", "")

	v, err := c.Parse([]string{"fetch", "--verbose"})
	require.NoError(t, err)
	require.True(t, v.Bool("verbose"))
}

func TestParse_SiblingSubcommandsShareFieldNames(t *testing.T) {
	c := New("app", "")
	a := c.MustSubcommand("alpha", "")
	b := c.MustSubcommand("beta", "")
	a.MustField("path", descriptor.Optional(descriptor.String()), field.Options{})
	b.MustField("path", descriptor.Optional(descriptor.String()), field.Options{})

	v, err := c.Parse([]string{"alpha", "--path", "/tmp"})
	require.NoError(t, err)
	require.Equal(t, "/tmp", v.String("alpha__path", ""))
	_, ok := v.Get("beta__path")
	require.False(t, ok)
}

func TestExecute_HandlerDispatch(t *testing.T) {
	c := New("app", "")
	sub := c.MustSubcommand("greet", "")
	sub.MustField("name", descriptor.Optional(descriptor.String()), field.Options{Default: "world"})

	var got string
	sub.MustBind(func(v *Values) error {
		got = v.String("greet__name", "")
		return nil
	}, "greet__name")

	require.NoError(t, c.Execute([]string{"greet", "--name", "gopher"}))
	require.Equal(t, "gopher", got)
}

func TestBind_RejectsUnknownParam(t *testing.T) {
	c := New("app", "")
	c.MustField("name", descriptor.Optional(descriptor.String()), field.Options{})

	err := c.Bind(func(v *Values) error { return nil }, "nme")
	require.Error(t, err)
	require.True(t, argerr.IsDefinition(err))
	require.Contains(t, err.Error(), "does not match any compiled field")
}

func TestParse_HelpRendering(t *testing.T) {
	var out bytes.Buffer
	c := New("app", "does things")
	c.SetOutput(&out)
	c.MustField("input", descriptor.String(), field.Options{Help: "input file"})
	c.MustField("workers", descriptor.Optional(descriptor.Int()), field.Options{
		Default: 4,
		Help:    "worker pool size",
	})

	_, err := c.Parse([]string{"--help"})
	require.ErrorIs(t, err, ErrHelp)

	help := out.String()
	require.Contains(t, help, "usage")
	require.Contains(t, help, "positional arguments")
	require.Contains(t, help, "<input>")
	require.Contains(t, help, "input file")
	require.Contains(t, help, "--workers")
	require.Contains(t, help, "(default: 4)")
	require.Contains(t, help, "-h, --help")
}

func TestParse_Version(t *testing.T) {
	var out bytes.Buffer
	c := New("app", "")
	c.SetOutput(&out)
	c.SetVersion("2.1.0")

	_, err := c.Parse([]string{"--version"})
	require.ErrorIs(t, err, ErrVersion)
	require.Equal(t, "app 2.1.0\n", out.String())
}

func TestExecute_HelpIsNotAnError(t *testing.T) {
	var out bytes.Buffer
	c := New("app", "")
	c.SetOutput(&out)

	require.NoError(t, c.Execute([]string{"--help"}))
}

func TestField_DuplicateDest(t *testing.T) {
	c := New("app", "")
	c.MustField("name", descriptor.Optional(descriptor.String()), field.Options{})

	_, err := c.Field("alias", descriptor.Optional(descriptor.String()), field.Options{Dest: "name"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "destination 'name' already used")
}

func TestField_PrivateRedirect(t *testing.T) {
	c := New("app", "")
	c.MustField("item", descriptor.Optional(descriptor.List(descriptor.String())), field.Options{
		Const: "seed",
	})

	spec, err := c.Field("_all", descriptor.Optional(descriptor.String()), field.Options{
		Dest:  "item",
		Const: "everything",
	})
	require.NoError(t, err)
	require.Equal(t, field.ActionAppendConst, spec.Action)

	v, err := c.Parse([]string{"--item", "--all"})
	require.NoError(t, err)
	require.Equal(t, []any{"seed", "everything"}, v.Slice("item"))
}

func TestField_PrivateRedirectNeedsListTarget(t *testing.T) {
	c := New("app", "")
	c.MustField("mode", descriptor.Optional(descriptor.String()), field.Options{Const: "fast"})

	_, err := c.Field("_turbo", descriptor.Optional(descriptor.String()), field.Options{
		Dest:  "mode",
		Const: "turbo",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "must name a list or tuple field")
}
