package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packlist/internal/classify"
	"packlist/internal/dnd"
	"packlist/internal/model"
	"packlist/internal/mutate"
	"packlist/internal/store"
)

type testApp struct {
	m       *appModel
	clock   *dnd.ManualClock
	batches []model.Batch
	ids     map[string]string
}

// newTestApp seeds a, b, c in Clothes. With the default categories the
// screen rows are: 1 Clothes, 2 a, 3 b, 4 c, 5 Toiletries, ...
func newTestApp(t *testing.T, height int) *testApp {
	t.Helper()
	ctx := context.Background()
	s := store.Store{Dir: t.TempDir()}
	ta := &testApp{ids: map[string]string{}}
	for _, n := range []string{"a", "b", "c"} {
		it, err := s.CreateItem(ctx, store.NewItem{Name: n, Category: "Clothes"})
		require.NoError(t, err)
		ta.ids[n] = it.ID
	}
	ta.clock = dnd.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m, err := newAppModel(Options{
		Store:     s,
		List:      mutate.List{Store: s, Classifier: classify.NewKeyword(nil)},
		Committer: dnd.CommitterFunc(func(b model.Batch) { ta.batches = append(ta.batches, b) }),
		Config:    dnd.TerminalConfig(),
	}, ta.clock)
	require.NoError(t, err)
	ta.m = m

	st, err := s.Load(ctx)
	require.NoError(t, err)
	ta.send(committedMsg{state: st})
	ta.send(tea.WindowSizeMsg{Width: 60, Height: height})
	return ta
}

func (ta *testApp) send(msg tea.Msg) tea.Cmd {
	_, cmd := ta.m.Update(msg)
	return cmd
}

// run executes cmd and feeds its message back, the way the program loop would.
func (ta *testApp) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if done, ok := msg.(mutationDoneMsg); ok {
		require.NoError(t, done.err)
	}
	ta.send(msg)
}

func (ta *testApp) mouse(action tea.MouseAction, y int) tea.Cmd {
	return ta.send(tea.MouseMsg{X: 5, Y: y, Action: action, Button: tea.MouseButtonLeft})
}

func (ta *testApp) names(category string) []string {
	st := ta.m.engine.State()
	var out []string
	for _, g := range model.GroupItems(st.Items, st.CategoryOrder) {
		if g.Name != category {
			continue
		}
		for _, it := range g.Items {
			out = append(out, it.Name)
		}
	}
	return out
}

func (ta *testApp) startDrag(y int) {
	ta.mouse(tea.MouseActionPress, y)
	ta.clock.Advance(dnd.TerminalConfig().HoldMouse)
}

func TestMouseDrag_CommitsItemOrder(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.startDrag(2)
	require.True(t, ta.m.engine.Capturing())
	ta.mouse(tea.MouseActionMotion, 4)
	assert.Equal(t, []string{"b", "c", "a"}, ta.names("Clothes"))
	assert.True(t, ta.m.engine.State().Provisional)

	ta.mouse(tea.MouseActionRelease, 4)
	assert.True(t, ta.m.engine.Idle())
	require.Len(t, ta.batches, 1)
	got := map[string]int{}
	for _, p := range ta.batches[0].Items {
		got[p.ID] = p.Order
	}
	assert.Equal(t, map[string]int{ta.ids["b"]: 0, ta.ids["c"]: 1, ta.ids["a"]: 2}, got)
}

func TestMouseTap_TogglesItem(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.mouse(tea.MouseActionPress, 3)
	cmd := ta.mouse(tea.MouseActionRelease, 3)
	ta.run(t, cmd)

	for _, it := range ta.m.engine.State().Items {
		assert.Equal(t, it.Name == "b", it.Checked, it.Name)
	}
	assert.Equal(t, "packed b", ta.m.status)
	assert.Empty(t, ta.batches)
}

func TestMouseTap_HeaderFoldsCategory(t *testing.T) {
	ta := newTestApp(t, 20)
	before := len(ta.m.rows())

	ta.mouse(tea.MouseActionPress, 1)
	assert.Nil(t, ta.mouse(tea.MouseActionRelease, 1))
	assert.True(t, ta.m.collapsed["Clothes"])
	assert.Len(t, ta.m.rows(), before-3)
}

func TestFocusLoss_CancelsDrag(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.startDrag(2)
	ta.mouse(tea.MouseActionMotion, 4)
	ta.send(tea.BlurMsg{})

	assert.True(t, ta.m.engine.Idle())
	assert.False(t, ta.m.engine.State().Provisional)
	assert.Equal(t, []string{"a", "b", "c"}, ta.names("Clothes"))
	assert.Empty(t, ta.batches)
}

func TestEscape_CancelsDrag(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.startDrag(2)
	ta.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, ta.m.engine.Idle())

	ta.mouse(tea.MouseActionRelease, 4)
	assert.Empty(t, ta.batches)
}

func TestResize_CancelsDrag(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.startDrag(2)
	ta.send(tea.WindowSizeMsg{Width: 70, Height: 20})
	assert.True(t, ta.m.engine.Idle())
	assert.Empty(t, ta.batches)
}

func TestWheel_IgnoredWhileCapturing(t *testing.T) {
	// Four list rows for eight rows of content.
	ta := newTestApp(t, 6)

	ta.send(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, float64(wheelStep), ta.m.scroll)

	ta.send(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Zero(t, ta.m.scroll)

	ta.startDrag(2)
	require.True(t, ta.m.engine.Capturing())
	ta.send(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Zero(t, ta.m.scroll)
	ta.send(tea.BlurMsg{})
}

func TestQuickAdd_CreatesCategoryAndItem(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.True(t, ta.m.adding)
	ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Camping: tent")})
	cmd := ta.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, ta.m.adding)
	ta.run(t, cmd)

	assert.Equal(t, []string{"tent"}, ta.names("Camping"))
	assert.Contains(t, ta.m.settings.Categories, "Camping")
	assert.Contains(t, ta.m.status, "new category")
	rows := ta.m.rows()
	assert.Equal(t, "tent", rows[ta.m.cursor].item.Name, "cursor follows the new item")
}

func TestKeyboardMove_FollowsItem(t *testing.T) {
	ta := newTestApp(t, 20)

	ta.send(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "a", ta.m.rows()[ta.m.cursor].item.Name)

	ta.run(t, ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")}))
	assert.Equal(t, []string{"b", "a", "c"}, ta.names("Clothes"))
	assert.Equal(t, "a", ta.m.rows()[ta.m.cursor].item.Name)

	// Already last in its group.
	ta.send(tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")}))
}

func TestKeyboardMove_SurvivesLaterMousePress(t *testing.T) {
	ta := newTestApp(t, 20)
	ta.send(tea.KeyMsg{Type: tea.KeyDown})

	cmd := ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	ta.mouse(tea.MouseActionPress, 5)
	require.False(t, ta.m.engine.Idle())
	ta.run(t, cmd)
	assert.Equal(t, []string{"b", "a", "c"}, ta.names("Clothes"))

	ta.mouse(tea.MouseActionRelease, 5)
	assert.True(t, ta.m.engine.Idle())
}

// Run with -race: the edit runs off the loop while the loop handles presses.
func TestKeyboardMove_ConcurrentWithMouse(t *testing.T) {
	ta := newTestApp(t, 20)
	ta.send(tea.KeyMsg{Type: tea.KeyDown})

	cmd := ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")})
	require.NotNil(t, cmd)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	for i := 0; i < 50; i++ {
		ta.mouse(tea.MouseActionPress, 5)
		ta.mouse(tea.MouseActionRelease, 5)
	}

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("move did not finish")
	}
	require.NoError(t, msg.(mutationDoneMsg).err)
	ta.send(msg)
	assert.Equal(t, []string{"b", "a", "c"}, ta.names("Clothes"))
}

func TestKeys_IgnoredWhilePressed(t *testing.T) {
	ta := newTestApp(t, 20)
	ta.send(tea.KeyMsg{Type: tea.KeyDown})

	ta.mouse(tea.MouseActionPress, 5)
	assert.Nil(t, ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("J")}))
	assert.Nil(t, ta.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}))
	assert.False(t, ta.m.adding)
	ta.send(tea.BlurMsg{})
}

func TestCategoryDrag_HeaderStaysUnderPointer(t *testing.T) {
	ta := newTestApp(t, 20)
	order := model.CloneStrings(ta.m.engine.State().CategoryOrder)
	require.Equal(t, "Toiletries", order[1])

	ta.startDrag(5)
	d, ok := ta.m.engine.Drag()
	require.True(t, ok)
	require.Equal(t, "Toiletries", d.Subject)
	require.True(t, ta.m.collapsed["Clothes"])
	lines := strings.Split(ta.m.View(), "\n")
	assert.Contains(t, lines[5], "Toiletries", "collapsing leaves the held header in place")

	// Sideways jitter over the same header.
	ta.send(tea.MouseMsg{X: 6, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, order, ta.m.engine.State().CategoryOrder)

	ta.mouse(tea.MouseActionMotion, 6)
	want := []string{order[0], order[2], order[1]}
	want = append(want, order[3:]...)
	assert.Equal(t, want, ta.m.engine.State().CategoryOrder)

	ta.mouse(tea.MouseActionRelease, 6)
	require.Len(t, ta.batches, 1)
	assert.Equal(t, want, ta.batches[0].CategoryOrder)
	assert.False(t, ta.m.collapsed["Clothes"])
	assert.Zero(t, ta.m.lead)
	lines = strings.Split(ta.m.View(), "\n")
	assert.Contains(t, lines[6], "Toiletries", "expanding keeps the dropped header under the pointer")
}

func TestTripFilter_Cycles(t *testing.T) {
	assert.Equal(t, "Leisure", nextTrip([]string{"Leisure", "Business"}, ""))
	assert.Equal(t, "Business", nextTrip([]string{"Leisure", "Business"}, "Leisure"))
	assert.Equal(t, "", nextTrip([]string{"Leisure", "Business"}, "Business"))
	assert.Equal(t, "", nextTrip(nil, ""))
}

func TestView_ShowsListAndDragHighlight(t *testing.T) {
	ta := newTestApp(t, 20)

	out := ta.m.View()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 20)
	assert.Contains(t, lines[0], "0/3 packed")
	assert.Contains(t, lines[1], "Clothes (0/3)")
	assert.Contains(t, lines[2], "[ ] a")

	ta.startDrag(2)
	assert.Contains(t, ta.m.View(), "moving")
	ta.send(tea.BlurMsg{})
}

func TestLoopClock_DeliversOnLoop(t *testing.T) {
	msgs := make(chan tea.Msg, 2)
	c := newLoopClock(func(m tea.Msg) { msgs <- m })

	fired := 0
	c.AfterFunc(time.Millisecond, func() { fired++ })
	stopped := c.AfterFunc(time.Hour, func() { fired += 10 })
	require.True(t, stopped.Stop())

	select {
	case msg := <-msgs:
		assert.Zero(t, fired, "callbacks only run when the loop handles the message")
		c.fire(msg.(timerFiredMsg).id)
	case <-time.After(2 * time.Second):
		t.Fatal("timer message not delivered")
	}
	assert.Equal(t, 1, fired)
	assert.False(t, stopped.Stop())
	assert.Empty(t, c.pending)
}
