package tableview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/iostreams"
)

type fakeActions struct {
	caps Capabilities

	fieldErrors  map[string]string
	updateResult Result
	deleteResult Result
	mutation     Result
	reloaded     []Record
	reloadErr    error

	updated  []map[string]string
	deleted  []string
	approved []string
	reloads  int
}

func newFakeActions() *fakeActions {
	return &fakeActions{
		caps: Capabilities{
			CanView: true, CanEdit: true, CanDelete: true, CanApprove: true, CanCancel: true,
		},
		updateResult: Result{Success: true, Message: "Vehicle updated"},
		deleteResult: Result{Success: true, Message: "Vehicle deleted"},
		mutation:     Result{Success: true, Message: "Purchase order approved"},
	}
}

func (f *fakeActions) Capabilities() Capabilities { return f.caps }

func (f *fakeActions) Detail(_ context.Context, id string) ([]DetailItem, error) {
	if id == "broken" {
		return nil, errors.New("gone")
	}
	return []DetailItem{{Label: "Chassis No", Value: "CH-" + id}, {Label: "Variant", Value: ""}}, nil
}

func (f *fakeActions) EditFields(_ context.Context, _ string) ([]FormField, error) {
	return []FormField{
		{Key: "model", Label: "Model", Value: "Nexon"},
		{Key: "price", Label: "Price", Value: "850000"},
	}, nil
}

func (f *fakeActions) Validate(_ context.Context, _ string, _ map[string]string) map[string]string {
	return f.fieldErrors
}

func (f *fakeActions) Update(_ context.Context, _ string, values map[string]string) Result {
	f.updated = append(f.updated, values)
	return f.updateResult
}

func (f *fakeActions) Delete(_ context.Context, id string) Result {
	f.deleted = append(f.deleted, id)
	return f.deleteResult
}

func (f *fakeActions) Approve(_ context.Context, id string) Result {
	f.approved = append(f.approved, id)
	return f.mutation
}

func (f *fakeActions) Cancel(_ context.Context, _ string) Result {
	return f.mutation
}

func (f *fakeActions) Reload(_ context.Context) ([]Record, error) {
	f.reloads++
	return f.reloaded, f.reloadErr
}

func executeCmd(t *testing.T, model *Model, cmd tea.Cmd) *Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		msg, ok := runCmd(current)
		if !ok {
			continue
		}
		switch m := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(m)...)
			continue
		case spinner.TickMsg, nil:
			continue
		}
		updated, next := model.Update(msg)
		bm, ok := updated.(*Model)
		require.True(t, ok)
		model = bm
		if next != nil {
			queue = append(queue, next)
		}
	}
	return model
}

// runCmd runs cmd unless it blocks, as cursor blinks do.
func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func press(t *testing.T, model *Model, keys ...string) *Model {
	t.Helper()
	for _, k := range keys {
		updated, cmd := model.Update(keyMsg(k))
		bm, ok := updated.(*Model)
		require.True(t, ok)
		model = executeCmd(t, bm, cmd)
	}
	return model
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func newTestModel(actions RowActions, opts ...GridOption) *Model {
	g := NewGrid(vehicleColumns()[:3], vehicleRecords(), opts...)
	return NewModel(context.Background(), g, actions, WithTitle("Vehicles"), WithProfileName(" default "))
}

func TestModel_FilterAsYouType(t *testing.T) {
	m := newTestModel(newFakeActions(), WithPageSize(5))

	m = press(t, m, "/", "s", "o", "l", "d")
	require.Equal(t, modeFilter, m.mode)
	assert.Equal(t, "sold", m.Grid().Filter())
	assert.Equal(t, 2, m.Grid().FilteredCount())
	assert.Contains(t, m.View(), `Page 1 of 1 · 2 records matching "sold"`)

	m = press(t, m, "enter")
	assert.Equal(t, modeTable, m.mode)
	assert.Equal(t, "sold", m.Grid().Filter())

	m = press(t, m, "esc")
	assert.Equal(t, "", m.Grid().Filter())
	assert.Equal(t, 6, m.Grid().FilteredCount())
}

func TestModel_FilterEscClears(t *testing.T) {
	m := newTestModel(newFakeActions())

	m = press(t, m, "/", "n", "e", "x", "esc")
	assert.Equal(t, modeTable, m.mode)
	assert.Equal(t, "", m.Grid().Filter())
}

func TestModel_DeleteAsksFirst(t *testing.T) {
	actions := newFakeActions()
	m := newTestModel(actions)

	m = press(t, m, "d")
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Empty(t, actions.deleted)
	assert.Contains(t, m.status, "Delete CH-001?")

	m = press(t, m, "y")
	assert.Equal(t, []string{"v1"}, actions.deleted)
	assert.Equal(t, 5, m.Grid().Len())
	_, ok := m.Grid().Record("v1")
	assert.False(t, ok)
	assert.Equal(t, statusSuccess, m.statusKind)
	assert.Equal(t, "Vehicle deleted", m.status)
	assert.Zero(t, actions.reloads, "a delete updates the local list only")
}

func TestModel_DeleteDeclined(t *testing.T) {
	actions := newFakeActions()
	m := newTestModel(actions)

	m = press(t, m, "d", "n")
	assert.Equal(t, modeTable, m.mode)
	assert.Empty(t, actions.deleted)
	assert.Equal(t, "Delete cancelled", m.status)
	assert.Equal(t, 6, m.Grid().Len())
}

func TestModel_DeleteFailureKeepsList(t *testing.T) {
	actions := newFakeActions()
	actions.deleteResult = Result{Message: "Vehicle is referenced by a voucher"}
	m := newTestModel(actions)

	m = press(t, m, "d", "y")
	assert.Equal(t, []string{"v1"}, actions.deleted)
	assert.Equal(t, 6, m.Grid().Len())
	assert.Equal(t, statusError, m.statusKind)
	assert.Equal(t, "Vehicle is referenced by a voucher", m.status)
	assert.Contains(t, m.View(), "Vehicle is referenced by a voucher")
}

func TestModel_FailureWithoutMessageIsGeneric(t *testing.T) {
	actions := newFakeActions()
	actions.mutation = Result{}
	m := newTestModel(actions)

	m = press(t, m, "A")
	assert.Equal(t, requestFailedMessage, m.status)
	assert.Zero(t, actions.reloads)
}

func TestModel_ApproveReloads(t *testing.T) {
	actions := newFakeActions()
	actions.reloaded = vehicleRecords()[1:]
	m := newTestModel(actions)

	m = press(t, m, "A")
	assert.Equal(t, []string{"v1"}, actions.approved)
	assert.Equal(t, 1, actions.reloads)
	assert.Equal(t, 5, m.Grid().Len())
	assert.False(t, m.busy)
	assert.Equal(t, "Purchase order approved", m.status)
}

func TestModel_ReloadFailureIsReported(t *testing.T) {
	actions := newFakeActions()
	actions.reloadErr = errors.New("database is locked")
	m := newTestModel(actions)

	m = press(t, m, "r")
	assert.Equal(t, 6, m.Grid().Len())
	assert.Equal(t, statusError, m.statusKind)
	assert.Equal(t, "Unable to refresh: database is locked", m.status)
}

func TestModel_RefreshReportsCount(t *testing.T) {
	actions := newFakeActions()
	actions.reloaded = vehicleRecords()[:2]
	m := newTestModel(actions)

	m = press(t, m, "r")
	assert.Equal(t, "Loaded 2 records", m.status)
}

func TestModel_RequestsIgnoredWhileBusy(t *testing.T) {
	actions := newFakeActions()
	m := newTestModel(actions)

	updated, first := m.Update(keyMsg("A"))
	m = updated.(*Model)
	require.True(t, m.busy)
	require.NotNil(t, first)

	for _, k := range []string{"A", "C", "d", "e", "r"} {
		updated, cmd := m.Update(keyMsg(k))
		m = updated.(*Model)
		assert.Nil(t, cmd, k)
		assert.Equal(t, modeTable, m.mode, k)
	}
	assert.Contains(t, m.View(), "Approving CH-001...")

	m = executeCmd(t, m, first)
	assert.Equal(t, []string{"v1"}, actions.approved)
	assert.False(t, m.busy)
}

func TestModel_UnavailableAction(t *testing.T) {
	actions := newFakeActions()
	actions.caps = Capabilities{CanView: true}
	m := newTestModel(actions)

	m = press(t, m, "A")
	assert.Empty(t, actions.approved)
	assert.Equal(t, "Approve is not available here", m.status)
	assert.NotContains(t, m.actionHint(), "approve")
	assert.Contains(t, m.actionHint(), "v view")
}

func TestModel_ViewDetail(t *testing.T) {
	m := newTestModel(newFakeActions())

	m = press(t, m, "enter")
	require.Equal(t, modeDetail, m.mode)
	view := m.View()
	assert.Contains(t, view, "CH-v1")
	assert.Contains(t, view, "Variant")

	m = press(t, m, "esc")
	assert.Equal(t, modeTable, m.mode)
}

func TestModel_ViewDetailFailure(t *testing.T) {
	m := newTestModel(newFakeActions())
	m.grid = m.grid.WithRecords([]Record{{ID: "broken", Fields: map[string]any{"chassis_no": "CH-X"}}})
	m.syncTable()

	m = press(t, m, "v")
	assert.Equal(t, modeTable, m.mode)
	assert.Equal(t, "Unable to open CH-X: gone", m.status)
}

func TestModel_EditShowsFieldErrorsInline(t *testing.T) {
	actions := newFakeActions()
	actions.fieldErrors = map[string]string{"price": "must be at least 0"}
	m := newTestModel(actions)

	m = press(t, m, "e")
	require.Equal(t, modeForm, m.mode)
	require.NotNil(t, m.form)

	m = press(t, m, "ctrl+s")
	assert.Empty(t, actions.updated, "invalid input is never submitted")
	assert.Equal(t, modeForm, m.mode)
	assert.Equal(t, validationFailedMessage, m.status)
	assert.Equal(t, 1, m.form.focus)
	assert.Contains(t, m.View(), "✗ must be at least 0")
}

func TestModel_EditSubmits(t *testing.T) {
	actions := newFakeActions()
	actions.reloaded = vehicleRecords()
	m := newTestModel(actions)

	m = press(t, m, "e", "enter", "9")
	require.Equal(t, 1, m.form.focus)

	m = press(t, m, "enter")
	require.Len(t, actions.updated, 1)
	assert.Equal(t, map[string]string{"model": "Nexon", "price": "8500009"}, actions.updated[0])
	assert.Equal(t, modeTable, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, 1, actions.reloads)
	assert.Equal(t, "Vehicle updated", m.status)
}

func TestModel_EditServerFieldErrors(t *testing.T) {
	actions := newFakeActions()
	actions.updateResult = Result{
		Message:     "Please correct the highlighted fields",
		FieldErrors: map[string]string{"model": "is already in use"},
	}
	m := newTestModel(actions)

	m = press(t, m, "e", "ctrl+s")
	require.Len(t, actions.updated, 1)
	assert.Equal(t, modeForm, m.mode)
	assert.Contains(t, m.View(), "✗ is already in use")
	assert.Zero(t, actions.reloads)
}

func TestModel_EditDiscard(t *testing.T) {
	actions := newFakeActions()
	m := newTestModel(actions)

	m = press(t, m, "e", "esc")
	assert.Equal(t, modeTable, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, "Changes discarded", m.status)
	assert.Empty(t, actions.updated)
}

func TestModel_SortAndPageKeys(t *testing.T) {
	m := newTestModel(newFakeActions(), WithPageSize(4))

	m = press(t, m, "2")
	assert.Equal(t, SortState{Key: "model", Direction: SortAscending}, m.Grid().Sort())
	assert.Contains(t, m.View(), "Model ▲")

	m = press(t, m, "2")
	assert.Equal(t, SortDescending, m.Grid().Sort().Direction)

	m = press(t, m, "9")
	assert.Equal(t, "model", m.Grid().Sort().Key)

	m = press(t, m, "right")
	assert.Equal(t, 2, m.Grid().Page())
	m = press(t, m, "l")
	assert.Equal(t, 2, m.Grid().Page())
	m = press(t, m, "[")
	assert.Equal(t, 1, m.Grid().Page())
}

func TestModel_SelectionKeys(t *testing.T) {
	m := newTestModel(newFakeActions(), WithPageSize(3))

	m = press(t, m, " ")
	assert.Equal(t, []string{"v1"}, m.Grid().Selected())
	assert.Contains(t, m.View(), "[-]")

	m = press(t, m, "a")
	assert.Equal(t, HeaderAll, m.Grid().HeaderSelection())
	assert.Contains(t, m.View(), "[x]")

	m = press(t, m, "a")
	assert.Empty(t, m.Grid().Selected())
}

func TestModel_CopyID(t *testing.T) {
	var copied string
	original := writeClipboardText
	writeClipboardText = func(text string) error {
		copied = text
		return nil
	}
	t.Cleanup(func() { writeClipboardText = original })

	m := press(t, newTestModel(newFakeActions()), "y")
	assert.Equal(t, "v1", copied)
	assert.Equal(t, "Copied ID v1", m.status)
}

func TestModel_StatusAreaShowsProfile(t *testing.T) {
	m := newTestModel(newFakeActions())
	view := m.View()
	assert.Contains(t, view, "Vehicles")
	assert.Contains(t, view, "Profile: default")
	assert.Contains(t, view, "Page 1 of 1 · 6 records")

	m = press(t, m, "?")
	assert.Contains(t, m.View(), "cycle color theme")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(newFakeActions())
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestRenderStatic(t *testing.T) {
	streams, _, out, _ := iostreams.NewTestIOStreams()
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(5)).ToggleSort("model")

	require.NoError(t, RenderStatic(streams.Out, g, "Vehicles"))
	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Vehicles"))
	assert.Contains(t, text, "Model ▲")
	assert.Contains(t, text, "altroz")
	assert.NotContains(t, text, "Tiago")
	assert.Contains(t, text, "Page 1 of 2 · 6 records")
}

func TestRenderStatic_NoRecords(t *testing.T) {
	streams, _, out, _ := iostreams.NewTestIOStreams()
	g := NewGrid(vehicleColumns(), vehicleRecords()).SetFilter("zzz")

	require.NoError(t, RenderStatic(streams.Out, g, ""))
	assert.Contains(t, out.String(), noRecordsMessage)
	assert.Contains(t, out.String(), `Page 0 of 0 · 0 records matching "zzz"`)
}

func TestRender_FallsBackToStaticWithoutTerminal(t *testing.T) {
	streams, _, out, _ := iostreams.NewTestIOStreams()
	g := NewGrid(vehicleColumns(), vehicleRecords()[:1])

	require.NoError(t, Render(context.Background(), &streams, g, newFakeActions(), WithTitle("Vehicles")))
	assert.Contains(t, out.String(), "Page 1 of 1 · 1 record")
	assert.NotContains(t, out.String(), "1 records")
}

func TestPageFooter(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(4)).NextPage()
	assert.Equal(t, "Page 2 of 2 · 6 records", PageFooter(g))
}

func TestCalculateColumnWidths(t *testing.T) {
	widths, minWidths := calculateColumnWidths(
		[]string{"ID", "MODEL"},
		[][]string{{"v1", strings.Repeat("x", 60)}},
		0,
	)
	assert.Equal(t, []int{4, 40}, widths)
	assert.Equal(t, []int{4, 5}, minWidths)

	widths, _ = calculateColumnWidths([]string{"ID", "MODEL"}, [][]string{{"v1", strings.Repeat("x", 60)}}, 20)
	assert.Equal(t, 20, sum(widths))
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "Tata Nexon", truncateCell("Tata\n Nexon", 20))
	assert.Equal(t, "Tata…", truncateCell("Tata Nexon", 5))
}
