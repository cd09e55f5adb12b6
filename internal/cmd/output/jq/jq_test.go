package jq

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	cmdcommon "github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/test/config"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	command := &cobra.Command{Use: "list"}
	AddFlags(command.Flags())
	require.NoError(t, command.Flags().Parse(args))
	return command
}

func mockConfig(values map[string]string, bools map[string]bool) *config.MockConfigHook {
	return &config.MockConfigHook{
		GetStringMock: func(key string) string { return values[key] },
		GetBoolMock:   func(key string) bool { return bools[key] },
	}
}

var vehicles = []map[string]any{
	{"id": "v1", "chassis_no": "CH-001", "status": "Sold", "price": 850000},
	{"id": "v2", "chassis_no": "CH-002", "status": "In Stock", "price": 650000},
	{"id": "v3", "chassis_no": "CH-003", "status": "Sold", "price": 1500000},
}

func TestResolveSettingsDefaults(t *testing.T) {
	settings, err := ResolveSettings(newCommand(t), nil)
	require.NoError(t, err)
	require.Equal(t, Settings{Color: cmdcommon.ColorModeAuto, Theme: DefaultTheme}, settings)
	require.False(t, settings.Active())
}

func TestResolveSettingsEmptyFlagIsIdentity(t *testing.T) {
	cfg := mockConfig(map[string]string{DefaultExpressionConfigPath: ".[0]"}, nil)

	settings, err := ResolveSettings(newCommand(t, "--jq="), cfg)
	require.NoError(t, err)
	require.Equal(t, ".", settings.Expression)
}

func TestResolveSettingsRawShortFlag(t *testing.T) {
	settings, err := ResolveSettings(newCommand(t, "-r"), nil)
	require.NoError(t, err)
	require.True(t, settings.Raw)
}

func TestResolveSettingsReadsConfig(t *testing.T) {
	cfg := mockConfig(
		map[string]string{
			ColorEnabledConfigPath:      "always",
			ColorThemeConfigPath:        "github",
			DefaultExpressionConfigPath: ".[].chassis_no",
		},
		map[string]bool{RawOutputConfigPath: true},
	)

	settings, err := ResolveSettings(newCommand(t), cfg)
	require.NoError(t, err)
	require.Equal(t, Settings{
		Expression: ".[].chassis_no",
		Color:      cmdcommon.ColorModeAlways,
		Theme:      "github",
		Raw:        true,
	}, settings)
}

func TestResolveSettingsFlagOverridesConfiguredExpression(t *testing.T) {
	cfg := mockConfig(map[string]string{DefaultExpressionConfigPath: ".[0]"}, nil)

	settings, err := ResolveSettings(newCommand(t, "--jq", "length"), cfg)
	require.NoError(t, err)
	require.Equal(t, "length", settings.Expression)
}

func TestResolveSettingsRejectsUnknownColorMode(t *testing.T) {
	cfg := mockConfig(map[string]string{ColorEnabledConfigPath: "rainbow"}, nil)

	_, err := ResolveSettings(newCommand(t), cfg)
	require.Error(t, err)
}

func TestResolveSettingsWithoutJQFlag(t *testing.T) {
	cfg := mockConfig(map[string]string{DefaultExpressionConfigPath: ".[0]"}, nil)

	settings, err := ResolveSettings(&cobra.Command{Use: "dashboard"}, cfg)
	require.NoError(t, err)
	require.False(t, settings.Active())
}

func TestValidateOutputFormat(t *testing.T) {
	err := ValidateOutputFormat(cmdcommon.TEXT, Settings{Expression: "."})
	require.ErrorContains(t, err, "only supported with --output json or --output yaml")

	err = ValidateOutputFormat(cmdcommon.JSON, Settings{Raw: true})
	require.ErrorContains(t, err, "requires")

	err = ValidateOutputFormat(cmdcommon.YAML, Settings{Expression: ".", Raw: true})
	require.ErrorContains(t, err, "only supported with --output json")

	require.NoError(t, ValidateOutputFormat(cmdcommon.YAML, Settings{Expression: "."}))
	require.NoError(t, ValidateOutputFormat(cmdcommon.TEXT, Settings{}))
}

func TestApplyToRawSelectsRecords(t *testing.T) {
	settings := Settings{
		Expression: `[.[] | select(.status == "Sold") | .id]`,
		Color:      cmdcommon.ColorModeNever,
	}

	result, handled, err := ApplyToRaw(vehicles, cmdcommon.YAML, settings, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, handled)
	require.Equal(t, []any{"v1", "v3"}, result)
}

func TestApplyToRawMultipleResultsBecomeArray(t *testing.T) {
	settings := Settings{Expression: ".[].price", Color: cmdcommon.ColorModeNever}

	result, _, err := ApplyToRaw(vehicles, cmdcommon.JSON, settings, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, []any{float64(850000), float64(650000), float64(1500000)}, result)
}

func TestApplyToRawNoResultsIsNull(t *testing.T) {
	settings := Settings{Expression: `.[] | select(.status == "Booked")`, Color: cmdcommon.ColorModeNever}

	result, handled, err := ApplyToRaw(vehicles, cmdcommon.JSON, settings, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, handled)
	require.Nil(t, result)
}

func TestApplyToRawColorizedJSONWritesDirectly(t *testing.T) {
	settings := Settings{Expression: ".[0]", Color: cmdcommon.ColorModeAlways, Theme: DefaultTheme}

	buf := &bytes.Buffer{}
	result, handled, err := ApplyToRaw(vehicles, cmdcommon.JSON, settings, buf)
	require.NoError(t, err)
	require.True(t, handled)
	require.Nil(t, result)
	require.Contains(t, buf.String(), "\x1b[")
	require.Contains(t, buf.String(), "CH-001")
}

func TestApplyToRawRawOutput(t *testing.T) {
	settings := Settings{Expression: ".[] | .chassis_no, .price", Raw: true}

	buf := &bytes.Buffer{}
	result, handled, err := ApplyToRaw(vehicles, cmdcommon.JSON, settings, buf)
	require.NoError(t, err)
	require.True(t, handled)
	require.Nil(t, result)
	require.Equal(t, "CH-001\n850000\nCH-002\n650000\nCH-003\n1500000\n", buf.String())
}

func TestApplyToRawPassesThroughWithoutExpression(t *testing.T) {
	result, handled, err := ApplyToRaw(vehicles, cmdcommon.TEXT, Settings{}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, handled)
	require.Equal(t, vehicles, result)
}

func TestApplyFilterErrors(t *testing.T) {
	_, err := ApplyFilter([]byte(`{"a":1}`), ".a[")
	require.ErrorContains(t, err, "invalid jq expression")

	_, err = ApplyFilter([]byte(`{"a":1}`), ".a.b")
	require.ErrorContains(t, err, "jq filter failed")

	_, err = ApplyFilter(nil, ".")
	require.ErrorContains(t, err, "empty")

	_, err = ApplyFilter([]byte(`not json`), ".")
	require.ErrorContains(t, err, "not valid JSON")
}

func TestShouldUseColor(t *testing.T) {
	require.True(t, ShouldUseColor(cmdcommon.ColorModeAlways, &bytes.Buffer{}))
	require.False(t, ShouldUseColor(cmdcommon.ColorModeNever, &bytes.Buffer{}))
	require.False(t, ShouldUseColor(cmdcommon.ColorModeAuto, &bytes.Buffer{}))

	original := isTerminal
	isTerminal = func(any) bool { return true }
	t.Cleanup(func() { isTerminal = original })

	t.Setenv("NO_COLOR", "1")
	require.False(t, ShouldUseColor(cmdcommon.ColorModeAuto, &bytes.Buffer{}))
}

func TestColorizeScalarIsPlain(t *testing.T) {
	require.Equal(t, "42", Colorize([]byte("42"), DefaultTheme))
	require.Equal(t, "oops", Colorize([]byte("oops"), DefaultTheme))
}
