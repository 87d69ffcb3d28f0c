package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typarg/typarg/argerr"
	"github.com/typarg/typarg/descriptor"
)

func TestRangeValidator(t *testing.T) {
	v, err := NewRange(F(10), F(20))
	require.NoError(t, err)

	require.NoError(t, v.Check(15))
	require.NoError(t, v.Check(15.5))

	err = v.Check(21)
	require.Error(t, err)
	require.True(t, argerr.IsValidation(err))
	require.Contains(t, err.Error(), "value should be between 10 and 20")

	err = v.Check("hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected numeric value")
}

func TestRangeValidator_SingleBound(t *testing.T) {
	v, err := NewRange(F(10), nil)
	require.NoError(t, err)
	require.NoError(t, v.Check(100))

	err = v.Check(5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "value should be greater than 10")
}

func TestRangeValidator_InvalidBounds(t *testing.T) {
	_, err := NewRange(nil, nil)
	require.Error(t, err)
	require.True(t, argerr.IsKind(err, argerr.KindValidatorInit))
	require.Contains(t, err.Error(), "invalid range provided")

	_, err = NewRange(F(20), F(10))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid range provided")
}

func TestLengthValidator(t *testing.T) {
	v, err := NewLength(I(3), I(8))
	require.NoError(t, err)

	require.NoError(t, v.Check("hello"))

	err = v.Check("hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "string length should be between 3 and 8")

	err = v.Check(42)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 'str' value")
}

func TestLengthValidator_InvalidBounds(t *testing.T) {
	_, err := NewLength(I(8), I(3))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid range provided")
}

func TestDateTimeRangeValidator(t *testing.T) {
	v, err := NewDateTimeRange(S("2020-01-01"), S("2020-12-31"), "")
	require.NoError(t, err)

	date := func(raw string) any {
		converted, cerr := descriptor.Date("").DomainType().Convert(raw)
		require.NoError(t, cerr)
		return converted
	}

	require.NoError(t, v.Check(date("2020-06-15")))

	err = v.Check(date("2021-01-01"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "should be between 2020-01-01 and 2020-12-31")
}

func TestDateTimeRangeValidator_BadFormat(t *testing.T) {
	_, err := NewDateTimeRange(S("2020-01-01"), nil, "%Q")
	require.Error(t, err)
	require.True(t, argerr.IsKind(err, argerr.KindValidatorInit))
	require.Contains(t, err.Error(), "bad directive")
}

func TestDateTimeRangeValidator_NoBounds(t *testing.T) {
	_, err := NewDateTimeRange(nil, nil, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid range provided")
}

func TestPathValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	isFile, err := NewPath(false, false, true, false)
	require.NoError(t, err)
	require.NoError(t, isFile.Check(file))

	err = isFile.Check(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is not a valid file")

	isDir, err := NewPath(false, true, false, false)
	require.NoError(t, err)
	require.NoError(t, isDir.Check(dir))

	exists, err := NewPath(false, false, false, true)
	require.NoError(t, err)
	err = exists.Check(filepath.Join(dir, "missing"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestPathValidator_StdioSkipsChecks(t *testing.T) {
	v, err := NewPath(true, false, true, false)
	require.NoError(t, err)
	require.NoError(t, v.Check(descriptor.PathValue("-")))
}

func TestPathValidator_ExclusiveFlags(t *testing.T) {
	_, err := NewPath(false, true, true, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "only one of is_dir, is_file, exists can be true at most")
}

func TestURLValidator(t *testing.T) {
	v, err := NewURL(descriptor.URLOptions{AllowedSchemes: []string{"https"}})
	require.NoError(t, err)

	require.NoError(t, v.Check("https://example.com"))

	err = v.Check("http://example.com")
	require.Error(t, err)
	require.True(t, argerr.IsValidation(err))
}

func TestRegexValidator(t *testing.T) {
	v, err := NewRegex(`[a-z]+\d{2}`)
	require.NoError(t, err)

	require.NoError(t, v.Check("abc12"))

	err = v.Check("abc1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not match expression")
}

func TestRegexValidator_CompiledEagerly(t *testing.T) {
	_, err := NewRegex("([unclosed")
	require.Error(t, err)
	require.True(t, argerr.IsKind(err, argerr.KindValidatorInit))
}

func TestConfirmationValidator(t *testing.T) {
	var out strings.Builder
	v, err := NewConfirmation(ConfirmationOptions{
		In:  strings.NewReader("yes\n"),
		Out: &out,
	})
	require.NoError(t, err)
	require.NoError(t, v.Check("anything"))
	require.Contains(t, out.String(), "Are you sure you want to proceed?")
}

func TestConfirmationValidator_Abort(t *testing.T) {
	var out strings.Builder
	v, err := NewConfirmation(ConfirmationOptions{
		AbortMessage: "no deal",
		In:           strings.NewReader("n\n"),
		Out:          &out,
	})
	require.NoError(t, err)

	err = v.Check("anything")
	require.Error(t, err)
	require.True(t, argerr.IsValidation(err))
	require.Contains(t, err.Error(), "no deal")
}

func TestConfirmationValidator_InterruptedInput(t *testing.T) {
	var out strings.Builder
	v, err := NewConfirmation(ConfirmationOptions{
		In:  strings.NewReader(""),
		Out: &out,
	})
	require.NoError(t, err)
	require.Error(t, v.Check("anything"))
}

func TestMust(t *testing.T) {
	require.NotNil(t, Must(NewRange(F(1), F(2))))
	require.Panics(t, func() { Must(NewRange(nil, nil)) })
}
