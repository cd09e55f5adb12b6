// Package jq applies --jq expressions to json and yaml command output.
package jq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	cmdcommon "github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/iostreams"
)

const (
	FlagName                    = "jq"
	ColorFlagName               = "jq-color"
	ColorThemeFlagName          = "jq-color-theme"
	RawOutputFlagName           = "jq-raw-output"
	RawOutputFlagShort          = "r"
	DefaultExpressionConfigPath = "jq.default-expression"
	ColorEnabledConfigPath      = "jq.color.enabled"
	ColorThemeConfigPath        = "jq.color.theme"
	RawOutputConfigPath         = "jq.raw-output"
	DefaultTheme                = "friendly"
)

var compiled sync.Map

// Settings is the resolved --jq configuration of one command run.
type Settings struct {
	Expression string
	Color      cmdcommon.ColorMode
	Theme      string
	Raw        bool
}

// Active reports whether an expression should be applied.
func (s Settings) Active() bool {
	return strings.TrimSpace(s.Expression) != ""
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagName, "",
		`Filter json or yaml output with a jq expression, e.g. '.[] | select(.status == "Sold") | .chassis_no'`)

	color := cmdpkg.NewEnum([]string{
		cmdcommon.ColorModeAuto.String(),
		cmdcommon.ColorModeAlways.String(),
		cmdcommon.ColorModeNever.String(),
	}, cmdcommon.DefaultColorMode)
	flags.Var(color, ColorFlagName, fmt.Sprintf(`Colorize jq results.
- Config path: [ %s ]
- Allowed    : [ auto|always|never ]`, ColorEnabledConfigPath))

	flags.String(ColorThemeFlagName, DefaultTheme, fmt.Sprintf(`Color theme for jq results.
- Config path: [ %s ]
- Examples   : [ friendly, github-dark, dracula ]`, ColorThemeConfigPath))

	flags.BoolP(RawOutputFlagName, RawOutputFlagShort, false,
		fmt.Sprintf(`Print string results without quotes, one per line.
- Config path: [ %s ]`, RawOutputConfigPath))
}

// BindFlags lets flags override their config paths.
func BindFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	if cfg == nil || flags == nil {
		return nil
	}
	for flag, path := range map[string]string{
		ColorFlagName:      ColorEnabledConfigPath,
		ColorThemeFlagName: ColorThemeConfigPath,
		RawOutputFlagName:  RawOutputConfigPath,
	} {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := cfg.BindFlag(path, f); err != nil {
			return err
		}
	}
	return nil
}

// ResolveSettings combines the command's flags with the profile config.
// Commands without a --jq flag never filter, whatever the config says.
func ResolveSettings(command *cobra.Command, cfg config.Hook) (Settings, error) {
	settings := Settings{Theme: DefaultTheme, Color: cmdcommon.ColorModeAuto}
	if command == nil || command.Flags().Lookup(FlagName) == nil {
		return settings, nil
	}
	flags := command.Flags()

	expression, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	settings.Expression = strings.TrimSpace(expression)
	if flags.Changed(FlagName) && settings.Expression == "" {
		settings.Expression = "."
	}

	if cfg == nil {
		if flags.Lookup(RawOutputFlagName) != nil {
			if settings.Raw, err = flags.GetBool(RawOutputFlagName); err != nil {
				return Settings{}, err
			}
		}
		return settings, nil
	}

	if !flags.Changed(FlagName) {
		if def := strings.TrimSpace(cfg.GetString(DefaultExpressionConfigPath)); def != "" {
			settings.Expression = def
		}
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.GetString(ColorEnabledConfigPath)))
	if settings.Color, err = cmdcommon.ColorModeStringToIota(mode); err != nil {
		return Settings{}, err
	}
	if theme := strings.TrimSpace(cfg.GetString(ColorThemeConfigPath)); theme != "" {
		settings.Theme = theme
	}
	settings.Raw = cfg.GetBool(RawOutputConfigPath)
	return settings, nil
}

// ValidateOutputFormat rejects flag combinations that cannot be honoured.
func ValidateOutputFormat(outType cmdcommon.OutputFormat, s Settings) error {
	switch {
	case s.Raw && !s.Active():
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName),
		}
	case s.Raw && outType != cmdcommon.JSON:
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json", RawOutputFlagName),
		}
	case s.Active() && outType == cmdcommon.TEXT:
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName),
		}
	}
	return nil
}

// HasFilter is shorthand for s.Active().
func HasFilter(s Settings) bool { return s.Active() }

// ApplyToRaw filters raw through the expression. When the result has been
// written to out already, for raw or colorized output, handled is true and
// the caller prints nothing.
func ApplyToRaw(raw any, outType cmdcommon.OutputFormat, s Settings, out io.Writer) (result any, handled bool, err error) {
	if !s.Active() {
		return raw, false, nil
	}
	if err := ValidateOutputFormat(outType, s); err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode output before applying jq filter: %w", err)
	}
	results, err := Evaluate(body, s.Expression)
	if err != nil {
		return nil, false, err
	}

	if s.Raw {
		return nil, true, writeRaw(results, out)
	}

	filtered, err := encode(results)
	if err != nil {
		return nil, false, err
	}
	if outType == cmdcommon.JSON && ShouldUseColor(s.Color, out) {
		_, err := fmt.Fprintln(out, strings.TrimRight(Colorize(filtered, s.Theme), "\n"))
		return nil, true, err
	}

	var payload any
	if err := json.Unmarshal(filtered, &payload); err != nil {
		return nil, false, fmt.Errorf("jq produced invalid JSON: %w", err)
	}
	return payload, false, nil
}

// ApplyFilter evaluates expression against a JSON document and returns the
// results as JSON: a single value as is, several as an array.
func ApplyFilter(body []byte, expression string) ([]byte, error) {
	results, err := Evaluate(body, expression)
	if err != nil {
		return nil, err
	}
	return encode(results)
}

// Evaluate runs expression against a JSON document.
func Evaluate(body []byte, expression string) ([]any, error) {
	if len(body) == 0 {
		return nil, errors.New("output is empty, cannot apply jq filter")
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			return results, nil
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
}

func compile(expression string) (*gojq.Code, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = "."
	}
	if code, ok := compiled.Load(expression); ok {
		return code.(*gojq.Code), nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	compiled.Store(expression, code)
	return code, nil
}

func encode(results []any) ([]byte, error) {
	var v any
	switch len(results) {
	case 0:
		return []byte("null"), nil
	case 1:
		v = results[0]
	default:
		v = results
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filtered result: %w", err)
	}
	return out, nil
}

func writeRaw(results []any, out io.Writer) error {
	for _, r := range results {
		line, ok := r.(string)
		if !ok {
			encoded, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to encode filtered result: %w", err)
			}
			line = string(encoded)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

var isTerminal = iostreams.IsTerminal

// ShouldUseColor resolves auto mode against NO_COLOR and whether out is a
// terminal.
func ShouldUseColor(mode cmdcommon.ColorMode, out io.Writer) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	}
	if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		return false
	}
	return isTerminal(out)
}

// Colorize pretty-prints a JSON document with terminal colors. Scalars and
// anything chroma cannot handle come back indented but uncolored.
func Colorize(body []byte, theme string) string {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return string(body)
	}
	indented, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return string(body)
	}
	switch doc.(type) {
	case map[string]any, []any:
	default:
		return string(indented)
	}

	lexer := lexers.Get("json")
	formatter := formatters.Get("terminal256")
	if lexer == nil || formatter == nil {
		return string(indented)
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Get(DefaultTheme)
	}
	if style == nil {
		style = styles.Fallback
	}

	tokens, err := lexer.Tokenise(nil, string(indented))
	if err != nil {
		return string(indented)
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, tokens); err != nil {
		return string(indented)
	}
	return buf.String()
}
