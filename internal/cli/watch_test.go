package cli

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/masonry/pkg/container"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/schedule/schedtest"
	"github.com/matzehuels/masonry/pkg/surface"
)

func demoLayout(t *testing.T) *layout.Snapshot {
	t.Helper()
	board := surface.NewBoard(400)
	for _, it := range []struct {
		id string
		h  float64
	}{{"a", 40}, {"b", 60}, {"c", 20}} {
		_, err := board.Add(it.id, it.h)
		require.NoError(t, err)
	}
	cfg := layout.DefaultConfig()
	cfg.Columns = 2
	cfg.Gap = 0

	e := layout.NewEngine()
	_, ok := e.Layout(board, cfg)
	require.True(t, ok)
	return e.Snapshot()
}

func TestRenderBoard(t *testing.T) {
	snap := demoLayout(t)
	out := renderBoard(snap, 10, 20, 100)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3, "tallest column is 60px at 20px per row")
	assert.Contains(t, lines[0], "a")
	assert.Contains(t, lines[0], "b")
	assert.Contains(t, lines[2], "c")

	clipped := renderBoard(snap, 10, 20, 1)
	assert.Len(t, strings.Split(clipped, "\n"), 1)
	assert.Empty(t, renderBoard(nil, 10, 20, 10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "item", truncate("item", 10))
	assert.Equal(t, "ite…", truncate("item-12", 4))
	assert.Equal(t, "i", truncate("item", 1))

	got := truncate("héllo-wörld", 4)
	assert.Equal(t, "hél…", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "日", truncate("日本語", 1))
	assert.Equal(t, "日本語", truncate("日本語", 3))
}

func TestAddItemSkipsTakenIDs(t *testing.T) {
	board := surface.NewBoard(400)
	for _, id := range []string{"item-1", "item-2", "item-3"} {
		_, err := board.Add(id, 40)
		require.NoError(t, err)
	}
	m := &watchModel{board: board, rng: rand.New(rand.NewPCG(1, 1)), next: 1}

	m.addItem()
	assert.Equal(t, 4, board.Len())
	assert.NotNil(t, board.Block("item-4"))
	assert.Equal(t, "added item-4", m.status)

	m.addItem()
	assert.NotNil(t, board.Block("item-5"))
}

func TestPublishKeepsLatest(t *testing.T) {
	ch := make(chan passMsg, 1)
	publish(ch, passMsg{res: layout.Result{Height: 1}})
	publish(ch, passMsg{res: layout.Result{Height: 2}})

	got := <-ch
	assert.Equal(t, 2.0, got.res.Height)
}

func TestWatchModelDrivesContainer(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := surface.NewBoard(0)
	_, err := board.Add("a", 40)
	require.NoError(t, err)

	cfg := layout.DefaultConfig()
	cfg.Gap = 0
	cfg.Debounce = 100 * time.Millisecond

	passes := make(chan passMsg, 1)
	var cont *container.Container
	cont = container.New(board, cfg,
		container.WithClock(clock),
		container.WithOnLayout(func(res layout.Result) {
			publish(passes, passMsg{res: res, snap: cont.Snapshot()})
		}),
	)
	cont.Attach(context.Background())
	defer cont.Detach()

	m := &watchModel{
		board:     board,
		container: cont,
		passes:    passes,
		cellPx:    8,
		rowPx:     20,
		rng:       rand.New(rand.NewPCG(1, 1)),
		next:      1,
	}

	// The board has no width until the first window size arrives.
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 800.0, board.Width())
	clock.Advance(cfg.Debounce + 32*time.Millisecond)

	msg := <-passes
	m.Update(msg)
	require.NotNil(t, m.snap)
	assert.Equal(t, 2, m.last.ColumnCount, "800px at 400px per column")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Equal(t, 2, board.Len())
	assert.Contains(t, m.status, "item-2")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	assert.Equal(t, 3, cont.Config().Columns)

	assert.Contains(t, m.View(), "masonry watch")
}
