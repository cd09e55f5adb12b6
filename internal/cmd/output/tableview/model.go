package tableview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dealerops/dealerctl/internal/theme"
)

const (
	validationFailedMessage = "Please correct the highlighted fields"
	requestFailedMessage    = "An unexpected error occurred"
)

var writeClipboardText = clipboard.WriteAll

type viewMode int

const (
	modeTable viewMode = iota
	modeFilter
	modeConfirmDelete
	modeDetail
	modeForm
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusError
)

type mutationDoneMsg struct {
	action Action
	id     string
	result Result
}

type reloadedMsg struct {
	records []Record
	err     error
	quiet   bool
}

type detailLoadedMsg struct {
	id    string
	items []DetailItem
	err   error
}

type formLoadedMsg struct {
	id     string
	fields []FormField
	err    error
}

// Model is the interactive table. It owns its Grid and replaces it on every
// change; record mutations go through RowActions and come back as messages
// on the bubbletea loop.
type Model struct {
	ctx     context.Context
	grid    Grid
	actions RowActions
	caps    Capabilities

	title       string
	profileName string

	table       table.Model
	styles      table.Styles
	tableStyle  lipgloss.Style
	statusStyle lipgloss.Style
	palette     theme.Palette
	width       int
	height      int

	mode        viewMode
	filterInput textinput.Model
	spinner     spinner.Model
	busy        bool
	busyLabel   string

	status     string
	statusKind statusKind

	pendingDelete string
	detailTitle   string
	detailItems   []DetailItem
	form          *formModel

	showHelp   bool
	themes     []string
	themeIndex int
}

func tableKeyMap() table.KeyMap {
	return table.KeyMap{
		LineUp: key.NewBinding(
			key.WithKeys("up", "k", "ctrl+p"),
			key.WithHelp("↑/k/ctrl+p", "up"),
		),
		LineDown: key.NewBinding(
			key.WithKeys("down", "j", "ctrl+n"),
			key.WithHelp("↓/j/ctrl+n", "down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g/home", "first row"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G/end", "last row"),
		),
	}
}

func NewModel(ctx context.Context, g Grid, actions RowActions, opts ...Option) *Model {
	cfg := newConfig(opts)
	if ctx == nil {
		ctx = context.Background()
	}
	palette := theme.Current()

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "type to filter"
	filter.PromptStyle = palette.ForegroundStyle(theme.ColorAccent)

	m := &Model{
		ctx:         ctx,
		grid:        g,
		actions:     actions,
		caps:        actions.Capabilities(),
		title:       cfg.title,
		profileName: strings.TrimSpace(cfg.profileName),
		width:       cfg.width,
		height:      cfg.height,
		filterInput: filter,
		themes:      theme.Available(),
	}
	m.applyPalette(palette)
	m.table = table.New(
		table.WithFocused(true),
		table.WithStyles(m.styles),
		table.WithKeyMap(tableKeyMap()),
	)
	m.syncTable()
	return m
}

// Grid returns the current table state.
func (m *Model) Grid() Grid {
	return m.grid
}

func (m *Model) applyPalette(p theme.Palette) {
	m.palette = p
	m.tableStyle = newTableBoxStyle(p)
	m.statusStyle = newStatusBoxStyle(p)
	m.spinner = newSpinnerModel(p)
	m.styles = newTableStyles(p)
	m.table.SetStyles(m.styles)
	for i, name := range m.themes {
		if name == p.Name {
			m.themeIndex = i
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// syncTable rebuilds the table component from the current page of the grid.
func (m *Model) syncTable() {
	headerRow := append([]string{selectionHeader(m.grid.HeaderSelection())}, headers(m.grid)...)

	records := m.grid.PageRecords()
	matrix := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, 0, len(headerRow))
		row = append(row, selectionMark(m.grid.IsSelected(r.ID)))
		for _, c := range m.grid.columns {
			row = append(row, m.grid.Cell(r, c))
		}
		matrix[i] = row
	}

	frameWidth, _ := m.tableStyle.GetFrameSize()
	padding := lipgloss.Width(m.styles.Cell.Render("")) * len(headerRow)
	widths, _ := calculateColumnWidths(headerRow, matrix, m.width-frameWidth-padding)
	columns := make([]table.Column, len(headerRow))
	for i, h := range headerRow {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}
	rows := make([]table.Row, len(matrix))
	for i, cells := range matrix {
		row := make(table.Row, len(cells))
		for j, cell := range cells {
			row[j] = truncateCell(cell, widths[j])
		}
		rows[i] = row
	}

	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.SetHeight(max(len(rows), 1) + 1)
	m.table.SetCursor(clamp(cursor, 0, max(len(rows)-1, 0)))
}

func selectionHeader(state HeaderState) string {
	switch state {
	case HeaderAll:
		return "[x]"
	case HeaderPartial:
		return "[-]"
	default:
		return "[ ]"
	}
}

func selectionMark(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func (m *Model) currentRecord() (Record, bool) {
	records := m.grid.PageRecords()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(records) {
		return Record{}, false
	}
	return records[idx], true
}

// recordTitle names a record in messages by its first column.
func (m *Model) recordTitle(r Record) string {
	if len(m.grid.columns) > 0 {
		if title := strings.TrimSpace(m.grid.Cell(r, m.grid.columns[0])); title != "" {
			return title
		}
	}
	return r.ID
}

func (m *Model) setStatus(kind statusKind, msg string) {
	m.statusKind = kind
	m.status = strings.TrimSpace(msg)
}

// startRequest marks the view busy and runs fn as a command. Only one
// request runs at a time.
func (m *Model) startRequest(label string, fn func() tea.Msg) tea.Cmd {
	m.busy = true
	m.busyLabel = label
	return tea.Batch(m.spinner.Tick, fn)
}

func (m *Model) finishRequest() {
	m.busy = false
	m.busyLabel = ""
}

func (m *Model) mutate(action Action, id string) tea.Cmd {
	ctx, actions := m.ctx, m.actions
	label := action.Progress()
	if r, ok := m.grid.Record(id); ok {
		label += " " + m.recordTitle(r)
	}
	return m.startRequest(label+"...", func() tea.Msg {
		var result Result
		switch action {
		case ActionDelete:
			result = actions.Delete(ctx, id)
		case ActionApprove:
			result = actions.Approve(ctx, id)
		case ActionCancel:
			result = actions.Cancel(ctx, id)
		}
		return mutationDoneMsg{action: action, id: id, result: result}
	})
}

func (m *Model) submitForm() tea.Cmd {
	f := m.form
	values := f.Values()
	if errs := m.actions.Validate(m.ctx, f.recordID, values); len(errs) > 0 {
		f.SetErrors(errs)
		m.setStatus(statusError, validationFailedMessage)
		return nil
	}
	f.errors = nil

	ctx, actions, id := m.ctx, m.actions, f.recordID
	return m.startRequest("Saving...", func() tea.Msg {
		return mutationDoneMsg{action: ActionEdit, id: id, result: actions.Update(ctx, id, values)}
	})
}

func (m *Model) reload(quiet bool) tea.Cmd {
	ctx, actions := m.ctx, m.actions
	return m.startRequest("Refreshing...", func() tea.Msg {
		records, err := actions.Reload(ctx)
		return reloadedMsg{records: records, err: err, quiet: quiet}
	})
}

func (m *Model) openDetail(r Record) tea.Cmd {
	ctx, actions, id := m.ctx, m.actions, r.ID
	m.detailTitle = m.recordTitle(r)
	return m.startRequest("Loading "+m.detailTitle+"...", func() tea.Msg {
		items, err := actions.Detail(ctx, id)
		return detailLoadedMsg{id: id, items: items, err: err}
	})
}

func (m *Model) openForm(r Record) tea.Cmd {
	ctx, actions, id := m.ctx, m.actions, r.ID
	m.detailTitle = m.recordTitle(r)
	return m.startRequest("Loading "+m.detailTitle+"...", func() tea.Msg {
		fields, err := actions.EditFields(ctx, id)
		return formLoadedMsg{id: id, fields: fields, err: err}
	})
}

func resultMessage(r Result) string {
	if strings.TrimSpace(r.Message) == "" {
		return requestFailedMessage
	}
	return r.Message
}

func (m *Model) handleMutation(msg mutationDoneMsg) tea.Cmd {
	res := msg.result
	if !res.Success {
		if msg.action == ActionEdit && m.form != nil && len(res.FieldErrors) > 0 {
			m.form.SetErrors(res.FieldErrors)
		}
		m.setStatus(statusError, resultMessage(res))
		return nil
	}

	m.setStatus(statusSuccess, res.Message)
	switch msg.action {
	case ActionDelete:
		m.grid = m.grid.RemoveRecord(msg.id)
		m.syncTable()
		return nil
	case ActionEdit:
		m.form = nil
		m.mode = modeTable
	}
	return m.reload(true)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncTable()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case mutationDoneMsg:
		m.finishRequest()
		return m, m.handleMutation(msg)
	case reloadedMsg:
		m.finishRequest()
		if msg.err != nil {
			m.setStatus(statusError, fmt.Sprintf("Unable to refresh: %v", msg.err))
			return m, nil
		}
		m.grid = m.grid.WithRecords(msg.records)
		m.syncTable()
		if !msg.quiet {
			m.setStatus(statusInfo, fmt.Sprintf("Loaded %d records", m.grid.Len()))
		}
		return m, nil
	case detailLoadedMsg:
		m.finishRequest()
		if msg.err != nil {
			m.setStatus(statusError, fmt.Sprintf("Unable to open %s: %v", m.detailTitle, msg.err))
			return m, nil
		}
		m.detailItems = msg.items
		m.mode = modeDetail
		return m, nil
	case formLoadedMsg:
		m.finishRequest()
		if msg.err != nil {
			m.setStatus(statusError, fmt.Sprintf("Unable to edit %s: %v", m.detailTitle, msg.err))
			return m, nil
		}
		m.form = newFormModel(msg.id, "Edit "+m.detailTitle, msg.fields, m.palette)
		m.mode = modeForm
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeFilter:
			return m, m.updateFilter(msg)
		case modeConfirmDelete:
			return m, m.updateConfirmDelete(msg)
		case modeDetail:
			switch msg.String() {
			case "esc", "backspace", "enter", "q":
				m.mode = modeTable
				m.detailItems = nil
			}
			return m, nil
		case modeForm:
			return m, m.updateForm(msg)
		default:
			return m.updateTable(msg)
		}
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.mode = modeTable
		m.filterInput.Blur()
		return nil
	case "esc":
		m.mode = modeTable
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.grid = m.grid.SetFilter("")
		m.syncTable()
		return nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if value := m.filterInput.Value(); value != m.grid.Filter() {
		m.grid = m.grid.SetFilter(value)
		m.table.SetCursor(0)
		m.syncTable()
	}
	return cmd
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) tea.Cmd {
	id := m.pendingDelete
	m.pendingDelete = ""
	m.mode = modeTable
	if msg.String() != "y" {
		m.setStatus(statusInfo, "Delete cancelled")
		return nil
	}
	return m.mutate(ActionDelete, id)
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeTable
		m.setStatus(statusInfo, "Changes discarded")
		return nil
	case "ctrl+s":
		if m.busy {
			return nil
		}
		return m.submitForm()
	case "enter":
		if !m.form.onLastField() {
			m.form.setFocus(m.form.focus + 1)
			return nil
		}
		if m.busy {
			return nil
		}
		return m.submitForm()
	}
	return m.form.Update(msg)
}

// requestKeys start a request and are ignored while one is in flight.
var requestKeys = map[string]Action{
	"enter": ActionView,
	"v":     ActionView,
	"e":     ActionEdit,
	"d":     ActionDelete,
	"A":     ActionApprove,
	"C":     ActionCancel,
}

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) { //nolint:ireturn
	k := msg.String()

	if action, ok := requestKeys[k]; ok {
		return m, m.runAction(action)
	}

	switch k {
	case "q":
		return m, tea.Quit
	case "esc":
		if m.grid.Filter() != "" {
			m.filterInput.SetValue("")
			m.grid = m.grid.SetFilter("")
			m.syncTable()
			return m, nil
		}
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "t":
		if len(m.themes) > 0 {
			m.themeIndex = (m.themeIndex + 1) % len(m.themes)
			if p, ok := theme.Get(m.themes[m.themeIndex]); ok {
				m.applyPalette(p)
				m.setStatus(statusInfo,
					fmt.Sprintf("Theme: %s (set color-theme: %s in config to persist)", p.DisplayName, p.Name))
			}
		}
		return m, nil
	case "/":
		m.mode = modeFilter
		m.filterInput.SetValue(m.grid.Filter())
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()
	case "left", "h", "[":
		m.grid = m.grid.PrevPage()
		m.table.SetCursor(0)
		m.syncTable()
		return m, nil
	case "right", "l", "]":
		m.grid = m.grid.NextPage()
		m.table.SetCursor(0)
		m.syncTable()
		return m, nil
	case " ":
		if r, ok := m.currentRecord(); ok {
			m.grid = m.grid.ToggleRow(r.ID)
			m.syncTable()
		}
		return m, nil
	case "a":
		m.grid = m.grid.ToggleAllOnPage()
		m.syncTable()
		return m, nil
	case "r":
		if m.busy {
			return m, nil
		}
		return m, m.reload(false)
	case "y":
		if r, ok := m.currentRecord(); ok {
			if err := writeClipboardText(r.ID); err != nil {
				m.setStatus(statusError, fmt.Sprintf("Unable to copy: %v", err))
			} else {
				m.setStatus(statusInfo, "Copied ID "+r.ID)
			}
		}
		return m, nil
	}

	if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= 9 {
		if n <= len(m.grid.columns) {
			m.grid = m.grid.ToggleSort(m.grid.columns[n-1].Key)
			m.syncTable()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) runAction(action Action) tea.Cmd {
	if m.busy {
		return nil
	}
	if !m.caps.Allows(action) {
		m.setStatus(statusError, fmt.Sprintf("%s is not available here", action.Title()))
		return nil
	}
	r, ok := m.currentRecord()
	if !ok {
		return nil
	}

	switch action {
	case ActionView:
		return m.openDetail(r)
	case ActionEdit:
		return m.openForm(r)
	case ActionDelete:
		m.pendingDelete = r.ID
		m.mode = modeConfirmDelete
		m.setStatus(statusInfo, fmt.Sprintf("Delete %s? Press y to confirm, any other key to keep it", m.recordTitle(r)))
		return nil
	default:
		return m.mutate(action, r.ID)
	}
}

func (m *Model) View() string {
	var sections []string

	if m.title != "" {
		sections = append(sections, m.palette.ForegroundStyle(theme.ColorPrimary).Bold(true).Render(m.title))
	}

	switch m.mode {
	case modeDetail:
		sections = append(sections, m.tableStyle.Render(m.renderDetail()))
	case modeForm:
		sections = append(sections, m.tableStyle.Render(m.form.View(m.palette)))
	default:
		if m.mode == modeFilter || m.grid.Filter() != "" {
			sections = append(sections, m.filterInput.View())
		}
		if m.grid.FilteredCount() == 0 {
			sections = append(sections, m.tableStyle.Render(noRecordsMessage))
		} else {
			sections = append(sections, borderedTableView(m.tableStyle, m.table.View(), m.styles.Selected))
		}
		sections = append(sections, m.renderPager())
	}

	widthHint := 0
	for _, section := range sections {
		widthHint = max(widthHint, lipgloss.Width(section))
	}
	sections = append(sections, m.renderStatusArea(widthHint))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderDetail() string {
	labelWidth := 0
	for _, item := range m.detailItems {
		labelWidth = max(labelWidth, lipgloss.Width(item.Label))
	}
	labelStyle := m.palette.ForegroundStyle(theme.ColorTextSecondary)
	lines := []string{m.palette.ForegroundStyle(theme.ColorPrimary).Bold(true).Render(m.detailTitle), ""}
	for _, item := range m.detailItems {
		value := item.Value
		if value == "" {
			value = "-"
		}
		lines = append(lines, labelStyle.Render(padStatusLine(item.Label, labelWidth))+"  "+value)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPager() string {
	faint := lipgloss.NewStyle().Faint(true)
	active := m.palette.ForegroundStyle(theme.ColorAccent)

	prev, next := faint.Render("‹ prev"), faint.Render("next ›")
	if m.grid.HasPrev() {
		prev = active.Render("‹ prev")
	}
	if m.grid.HasNext() {
		next = active.Render("next ›")
	}
	return prev + "  " + PageFooter(m.grid) + "  " + next
}

func (m *Model) renderStatusArea(widthHint int) string {
	width := widthHint
	if m.width > 0 && (width <= 0 || width > m.width) {
		width = m.width
	}
	if width <= 0 {
		width = 80
	}

	frameWidth, _ := m.statusStyle.GetFrameSize()
	innerWidth := max(width-frameWidth, 1)

	if m.showHelp {
		return m.statusStyle.Render(m.renderHelpContent(innerWidth))
	}

	var left string
	switch {
	case m.busy:
		left = m.spinner.View() + " " + m.busyLabel
	case m.status != "":
		left = m.statusStyleFor(m.statusKind).Render(m.status)
	default:
		left = lipgloss.NewStyle().Faint(true).Render(m.actionHint())
	}

	right := lipgloss.NewStyle().Faint(true).Render("Press ? for help")
	if profile := m.profileName; profile != "" {
		right = m.palette.ForegroundStyle(theme.ColorTextSecondary).Render("Profile: "+profile) + "  " + right
	}
	return m.statusStyle.Render(renderStatusRow(left, right, innerWidth))
}

func (m *Model) statusStyleFor(kind statusKind) lipgloss.Style {
	switch kind {
	case statusSuccess:
		return m.palette.ForegroundStyle(theme.ColorSuccess)
	case statusError:
		return m.palette.ForegroundStyle(theme.ColorDanger)
	default:
		return lipgloss.NewStyle().Faint(true)
	}
}

func (m *Model) actionHint() string {
	parts := []string{"/ filter"}
	for _, a := range m.caps.Actions() {
		parts = append(parts, a.Key()+" "+a.String())
	}
	parts = append(parts, "q quit")
	return strings.Join(parts, " · ")
}

func (m *Model) renderHelpContent(innerWidth int) string {
	helpLines := []string{
		"Up/Down j/k     : move between rows",
		"Left/Right h/l  : previous / next page",
		"1-9             : sort by column (again to reverse)",
		"/<text>         : filter rows (esc clears)",
		"Space / a       : select row / select page",
		"Enter / v       : view record",
		"e               : edit record",
		"d               : delete record (asks first)",
		"A / C           : approve / cancel record",
		"r               : refresh",
		"y               : copy record ID",
		"t               : cycle color theme",
		"?               : toggle this help",
		"q               : quit",
	}
	helpStyle := lipgloss.NewStyle().Faint(true)
	rendered := make([]string, len(helpLines))
	for i, line := range helpLines {
		rendered[i] = padStatusLine(helpStyle.Render(line), innerWidth)
	}
	return strings.Join(rendered, "\n")
}
