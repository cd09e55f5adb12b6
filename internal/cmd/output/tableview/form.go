package tableview

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dealerops/dealerctl/internal/theme"
)

// formModel is the edit form: one input per field with its error, if any,
// shown beside it.
type formModel struct {
	recordID string
	title    string
	fields   []FormField
	inputs   []textinput.Model
	errors   map[string]string
	focus    int
}

func newFormModel(recordID, title string, fields []FormField, p theme.Palette) *formModel {
	f := &formModel{
		recordID: recordID,
		title:    title,
		fields:   append([]FormField(nil), fields...),
		inputs:   make([]textinput.Model, len(fields)),
	}
	labelWidth := 0
	for _, field := range fields {
		labelWidth = max(labelWidth, lipgloss.Width(field.Label))
	}
	for i, field := range fields {
		in := textinput.New()
		in.Prompt = padStatusLine(field.Label, labelWidth) + " : "
		in.PromptStyle = p.ForegroundStyle(theme.ColorTextSecondary)
		in.Placeholder = field.Placeholder
		in.Width = 40
		if field.Secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		} else {
			in.SetValue(field.Value)
		}
		f.inputs[i] = in
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// Values returns the current input of every field by key.
func (f *formModel) Values() map[string]string {
	values := make(map[string]string, len(f.fields))
	for i, field := range f.fields {
		values[field.Key] = strings.TrimSpace(f.inputs[i].Value())
	}
	return values
}

func (f *formModel) SetErrors(errs map[string]string) {
	f.errors = errs
	for i, field := range f.fields {
		if _, ok := errs[field.Key]; ok {
			f.setFocus(i)
			return
		}
	}
}

func (f *formModel) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f *formModel) onLastField() bool {
	return f.focus == len(f.inputs)-1
}

// Update handles navigation between inputs and forwards other keys to the
// focused input. Submitting and leaving the form are handled by the caller.
func (f *formModel) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil
		}
	}
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *formModel) View(p theme.Palette) string {
	errStyle := p.ForegroundStyle(theme.ColorDanger)
	lines := []string{p.ForegroundStyle(theme.ColorPrimary).Bold(true).Render(f.title), ""}
	for i, field := range f.fields {
		line := f.inputs[i].View()
		if msg, ok := f.errors[field.Key]; ok {
			line += "  " + errStyle.Render("✗ "+msg)
		}
		lines = append(lines, line)
	}
	if msg, ok := f.errors[""]; ok {
		lines = append(lines, "", errStyle.Render(msg))
	}
	lines = append(lines, "", lipgloss.NewStyle().Faint(true).
		Render("tab/↑/↓ move · enter on the last field or ctrl+s saves · esc discards"))
	return strings.Join(lines, "\n")
}
