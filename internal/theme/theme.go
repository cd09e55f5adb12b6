package theme

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "default"

// Token represents a semantic color slot within the CLI.
type Token string

const (
	ColorTextPrimary   Token = "text.primary"
	ColorTextSecondary Token = "text.secondary"
	ColorTextMuted     Token = "text.muted"
	ColorBorder        Token = "border"
	ColorSurface       Token = "surface"
	ColorSurfaceText   Token = "surface.text"
	ColorPrimary       Token = "primary"
	ColorPrimaryText   Token = "primary.text"
	ColorAccent        Token = "accent"
	ColorAccentText    Token = "accent.text"
	ColorSuccess       Token = "success"
	ColorSuccessText   Token = "success.text"
	ColorInfo          Token = "info"
	ColorInfoText      Token = "info.text"
	ColorWarning       Token = "warning"
	ColorWarningText   Token = "warning.text"
	ColorDanger        Token = "danger"
	ColorDangerText    Token = "danger.text"
	ColorHighlight     Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "" && dark == "":
		return lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#000000"}
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name        string
	DisplayName string
	About       string
	Colors      map[Token]Color
}

// Color returns a color for the provided token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if p.Colors != nil {
		if c, ok := p.Colors[token]; ok {
			return ensureColor(c, token)
		}
	}
	return fallbackColor(token)
}

// Adaptive returns the lipgloss adaptive color for the provided token.
func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to the requested token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

type contextKey struct{}

var (
	registryOnce         sync.Once
	registryMu           sync.RWMutex
	palettes             map[string]Palette
	current              Palette
	defaultPal           Palette
	themeKey             contextKey
	configuredExplicitly bool
)

// ContextWithPalette stores the palette on the context.
func ContextWithPalette(ctx context.Context, p Palette) context.Context {
	return context.WithValue(ctx, themeKey, p)
}

// FromContext returns the palette stored on the context or the current palette.
func FromContext(ctx context.Context) Palette {
	if ctx == nil {
		return Current()
	}
	if p, ok := ctx.Value(themeKey).(Palette); ok {
		return p
	}
	return Current()
}

// Available returns the list of registered theme IDs (sorted).
func Available() []string {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Exists returns true when a theme is registered.
func Exists(name string) bool {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	_, ok := palettes[resolveName(name)]
	return ok
}

// Get returns the palette with the provided name.
func Get(name string) (Palette, bool) {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := palettes[resolveName(name)]
	return p, ok
}

// SetCurrent sets the active palette.
func SetCurrent(name string) error {
	ensureRegistry()

	name = resolveName(name)
	if name == "" {
		name = DefaultName
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown color theme %q", name)
	}
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	return current
}

// CurrentName returns the ID of the active palette.
func CurrentName() string {
	return resolveName(Current().Name)
}

// Flag is a pflag.Value implementation for theme IDs.
type Flag struct {
	value string
}

// NewFlag returns a Flag with the provided default value.
func NewFlag(defaultValue string) *Flag {
	name := resolveName(defaultValue)
	if name == "" || !Exists(name) {
		name = DefaultName
	}
	return &Flag{value: name}
}

// String implements pflag.Value.
func (f *Flag) String() string {
	if f == nil {
		return DefaultName
	}
	return f.value
}

// Set implements pflag.Value.
func (f *Flag) Set(v string) error {
	name := resolveName(v)
	if name == "" {
		name = DefaultName
	}
	if !Exists(name) {
		return fmt.Errorf("invalid color theme %q", v)
	}
	f.value = name
	return nil
}

// Type implements pflag.Value.
func (f *Flag) Type() string {
	return "string"
}

// Value returns the currently selected theme ID.
func (f *Flag) Value() string {
	return f.String()
}

// ensureRegistry lazily loads the palettes.
func ensureRegistry() {
	registryOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()

		palettes = make(map[string]Palette)

		registerPalette(showroomPalette())
		registerPalette(ledgerPalette())
		registerPalette(monoPalette())
		defaultPal = palettes[DefaultName]
		current = defaultPal

		for _, seed := range accentSeeds {
			registerPalette(paletteFromAccent(seed.name, seed.display, seed.accent))
		}
	})
}

func registerPalette(p Palette) {
	if p.Name == "" {
		return
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Name
	}
	if p.Colors == nil {
		p.Colors = map[Token]Color{}
	}
	p.Name = sanitizeName(p.Name)
	palettes[p.Name] = p
}

func ensureColor(c Color, token Token) Color {
	if strings.TrimSpace(c.Light) == "" && strings.TrimSpace(c.Dark) == "" {
		return fallbackColor(token)
	}
	if strings.TrimSpace(c.Light) == "" {
		c.Light = c.Dark
	}
	if strings.TrimSpace(c.Dark) == "" {
		c.Dark = c.Light
	}
	return c
}

func fallbackColor(token Token) Color {
	if defaultPal.Colors != nil {
		if c, ok := defaultPal.Colors[token]; ok {
			return ensureColor(c, token)
		}
	}
	return Color{Light: "#FFFFFF", Dark: "#000000"}
}

func sanitizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

func resolveName(name string) string {
	normalized := sanitizeName(name)
	if normalized == "" {
		return ""
	}
	return normalized
}

var accentSeeds = []struct {
	name, display, accent string
}{
	{"saffron", "Saffron", "#F4A300"},
	{"teal", "Teal", "#008C8C"},
	{"crimson", "Crimson", "#C8102E"},
	{"indigo", "Indigo", "#3F51B5"},
}

// paletteFromAccent derives a full palette from a single brand color. Text
// and surfaces stay neutral; semantic slots are fixed so status colors keep
// their meaning across themes.
func paletteFromAccent(name, display, accent string) Palette {
	accent = normalizeHex(accent)
	return Palette{
		Name:        name,
		DisplayName: display,
		About:       "Derived from " + accent + ".",
		Colors: map[Token]Color{
			ColorTextPrimary:   {Light: "#1B1D22", Dark: "#ECEEF2"},
			ColorTextSecondary: derivedTextSecondary("#5A5F6B"),
			ColorTextMuted:     mutedColor("#7A7F8C"),
			ColorBorder:        {Light: lightenHex(accent, 0.55), Dark: darkenHex(accent, 0.45)},
			ColorSurface:       {Light: "#FFFFFF", Dark: "#15171C"},
			ColorSurfaceText:   {Light: "#1B1D22", Dark: "#ECEEF2"},
			ColorPrimary:       singleColor(accent),
			ColorPrimaryText:   singleColor(contrastColor(accent)),
			ColorAccent:        {Light: darkenHex(accent, 0.2), Dark: lightenHex(accent, 0.2)},
			ColorAccentText:    singleColor(contrastColor(darkenHex(accent, 0.2))),
			ColorSuccess:       singleColor("#2E7D32"),
			ColorSuccessText:   singleColor(contrastColor("#2E7D32")),
			ColorInfo:          singleColor("#1565C0"),
			ColorInfoText:      singleColor(contrastColor("#1565C0")),
			ColorWarning:       singleColor("#F9A825"),
			ColorWarningText:   singleColor(contrastColor("#F9A825")),
			ColorDanger:        singleColor("#C62828"),
			ColorDangerText:    singleColor(contrastColor("#C62828")),
			ColorHighlight:     {Light: lightenHex(accent, 0.8), Dark: darkenHex(accent, 0.7)},
		},
	}
}

func singleColor(hex string) Color {
	h := normalizeHex(hex)
	return Color{Light: h, Dark: h}
}

func mutedColor(hex string) Color {
	base := normalizeHex(hex)
	if base == "" {
		return Color{Light: "#646A7A", Dark: "#7C8298"}
	}
	return Color{
		Light: darkenHex(base, 0.35),
		Dark:  lightenHex(base, 0.35),
	}
}

func derivedTextSecondary(hex string) Color {
	base := normalizeHex(hex)
	if base == "" {
		return Color{Light: "#1F2026", Dark: "#D7D9E3"}
	}
	return Color{
		Light: darkenHex(base, 0.25),
		Dark:  lightenHex(base, 0.2),
	}
}

func normalizeHex(hex string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if trimmed == "" {
		return ""
	}
	switch len(trimmed) {
	case 3:
		var b strings.Builder
		b.WriteString("#")
		for _, r := range trimmed {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return strings.ToUpper(b.String())
	case 6:
		return "#" + strings.ToUpper(trimmed)
	case 8:
		return "#" + strings.ToUpper(trimmed)
	default:
		if len(trimmed) > 6 {
			return "#" + strings.ToUpper(trimmed[:6])
		}
		return "#" + strings.ToUpper(trimmed)
	}
}

func contrastColor(hex string) string {
	h := normalizeHex(hex)
	if h == "" {
		return "#121418"
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return "#121418"
	}
	if relativeLuminance(c) > 0.55 {
		return "#121418"
	}
	return "#F8F8F8"
}

func lightenHex(hex string, amount float64) string {
	h := normalizeHex(hex)
	if h == "" {
		return ""
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return h
	}
	return c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, clampFloat(amount, 0, 1)).Clamped().Hex()
}

func darkenHex(hex string, amount float64) string {
	h := normalizeHex(hex)
	if h == "" {
		return ""
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return h
	}
	return c.BlendLab(colorful.Color{R: 0, G: 0, B: 0}, clampFloat(amount, 0, 1)).Clamped().Hex()
}

func clampFloat(val, minVal, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func showroomPalette() Palette {
	p := paletteFromAccent(DefaultName, "Default", "#1F6FEB")
	p.About = "Blue accent on neutral surfaces."
	return p
}

func ledgerPalette() Palette {
	return Palette{
		Name:        "ledger",
		DisplayName: "Ledger",
		About:       "Green-on-dark, reminiscent of accounting terminals.",
		Colors: map[Token]Color{
			ColorTextPrimary:   singleColor("#D8F3DC"),
			ColorTextSecondary: singleColor("#B7E4C7"),
			ColorTextMuted:     singleColor("#74C69D"),
			ColorBorder:        singleColor("#2D6A4F"),
			ColorSurface:       singleColor("#081C15"),
			ColorSurfaceText:   singleColor("#D8F3DC"),
			ColorPrimary:       singleColor("#52B788"),
			ColorPrimaryText:   singleColor("#081C15"),
			ColorAccent:        singleColor("#95D5B2"),
			ColorAccentText:    singleColor("#081C15"),
			ColorSuccess:       singleColor("#40916C"),
			ColorSuccessText:   singleColor("#F8F8F8"),
			ColorInfo:          singleColor("#74C69D"),
			ColorInfoText:      singleColor("#081C15"),
			ColorWarning:       singleColor("#E9C46A"),
			ColorWarningText:   singleColor("#081C15"),
			ColorDanger:        singleColor("#E76F51"),
			ColorDangerText:    singleColor("#081C15"),
			ColorHighlight:     singleColor("#1B4332"),
		},
	}
}

func monoPalette() Palette {
	return Palette{
		Name:        "mono",
		DisplayName: "Monochrome",
		About:       "Grayscale only.",
		Colors: map[Token]Color{
			ColorTextPrimary:   {Light: "#000000", Dark: "#FFFFFF"},
			ColorTextSecondary: {Light: "#333333", Dark: "#CCCCCC"},
			ColorTextMuted:     {Light: "#666666", Dark: "#999999"},
			ColorBorder:        {Light: "#999999", Dark: "#666666"},
			ColorSurface:       {Light: "#FFFFFF", Dark: "#000000"},
			ColorSurfaceText:   {Light: "#000000", Dark: "#FFFFFF"},
			ColorPrimary:       {Light: "#000000", Dark: "#FFFFFF"},
			ColorPrimaryText:   {Light: "#FFFFFF", Dark: "#000000"},
			ColorAccent:        {Light: "#333333", Dark: "#CCCCCC"},
			ColorAccentText:    {Light: "#FFFFFF", Dark: "#000000"},
			ColorSuccess:       {Light: "#000000", Dark: "#FFFFFF"},
			ColorSuccessText:   {Light: "#FFFFFF", Dark: "#000000"},
			ColorInfo:          {Light: "#333333", Dark: "#CCCCCC"},
			ColorInfoText:      {Light: "#FFFFFF", Dark: "#000000"},
			ColorWarning:       {Light: "#555555", Dark: "#AAAAAA"},
			ColorWarningText:   {Light: "#FFFFFF", Dark: "#000000"},
			ColorDanger:        {Light: "#000000", Dark: "#FFFFFF"},
			ColorDangerText:    {Light: "#FFFFFF", Dark: "#000000"},
			ColorHighlight:     {Light: "#E0E0E0", Dark: "#2A2A2A"},
		},
	}
}
