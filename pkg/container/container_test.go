package container_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/masonry/pkg/container"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/observability"
	"github.com/matzehuels/masonry/pkg/schedule/schedtest"
	"github.com/matzehuels/masonry/pkg/surface"
)

const frame = 16 * time.Millisecond

func testConfig() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.Gap = 0
	return cfg
}

func newBoard(t *testing.T, width float64, heights ...float64) *surface.Board {
	t.Helper()
	b := surface.NewBoard(width)
	for i, h := range heights {
		_, err := b.Add(fmt.Sprintf("item-%d", i), h)
		require.NoError(t, err)
	}
	return b
}

type recorder struct {
	observability.NoopLayoutHooks
	observability.NoopSchedulerHooks

	mu        sync.Mutex
	completed int
	skipped   int
	placed    []string
	ignored   int
	restarts  int
}

func (r *recorder) OnPassComplete(context.Context, string, layout.Result, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recorder) OnPassSkipped(context.Context, string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *recorder) OnItemPlaced(_ context.Context, _ string, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, id)
}

func (r *recorder) OnResizeIgnored(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored++
}

func (r *recorder) OnSchedule(_ context.Context, _ string, _ time.Duration, restarted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if restarted {
		r.restarts++
	}
}

func installRecorder(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	observability.SetLayoutHooks(r)
	observability.SetSchedulerHooks(r)
	t.Cleanup(observability.Reset)
	return r
}

func TestAttachRunsFirstPassOnNextFrame(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40, 30, 70)
	c := container.New(board, testConfig(), container.WithClock(clock))

	c.Attach(context.Background())
	assert.Equal(t, 0, c.Passes(), "pass ran before the frame")

	clock.Advance(frame)
	require.Equal(t, 1, c.Passes())

	assert.Equal(t, 2, board.Columns())
	assert.Equal(t, 160.0, board.Height())
	assert.True(t, board.Distributed())

	var cols []int
	for _, blk := range board.Blocks() {
		p, ok := blk.Placement()
		require.True(t, ok, "block %s not placed", blk.ID())
		cols = append(cols, p.Column)
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0}, cols)
}

func TestOwnHeightWriteDoesNotRetrigger(t *testing.T) {
	rec := installRecorder(t)
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())

	clock.Advance(frame)
	require.Equal(t, 1, c.Passes())
	assert.Equal(t, 1, rec.ignored, "own resize was not recognized")

	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, c.Passes(), "container re-laid out in response to itself")
	assert.Equal(t, 0, clock.Pending())
}

func TestStaleGuardDoesNotSwallowWidthChange(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())

	// The empty board's height stays 0, so no resize follows the first pass.
	clock.Advance(frame)
	require.Equal(t, 1, c.Passes())

	board.Resize(600)
	clock.Advance(time.Second)
	assert.Equal(t, 2, c.Passes())
}

func TestResizeBurstIsDebounced(t *testing.T) {
	rec := installRecorder(t)
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40, 30, 70)
	var results []layout.Result
	c := container.New(board, testConfig(),
		container.WithClock(clock),
		container.WithOnLayout(func(r layout.Result) { results = append(results, r) }),
	)
	c.Attach(context.Background())
	clock.Advance(frame)
	require.Equal(t, 1, c.Passes())

	for i, w := range []float64{900, 800, 700, 600, 500} {
		if i > 0 {
			clock.Advance(50 * time.Millisecond)
		}
		board.Resize(w)
	}
	assert.Equal(t, 4, rec.restarts)

	clock.Advance(299 * time.Millisecond)
	assert.Equal(t, 1, c.Passes(), "pass ran inside the quiet period")

	clock.Advance(100 * time.Millisecond)
	require.Equal(t, 2, c.Passes())
	require.Len(t, results, 2)

	last := results[1]
	assert.Equal(t, 500.0, last.Width)
	assert.Equal(t, 1, last.ColumnCount)
	assert.True(t, last.Reordered)
	assert.Equal(t, 250.0, board.Height())
}

func TestResizeWithSameWidthIsIgnored(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)

	c.OnResize(1000)
	c.OnResize(1000)
	clock.Advance(time.Second)
	assert.Equal(t, 1, c.Passes())
}

func TestNewItemSkipsDebounce(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60)
	var placed []string
	c := container.New(board, testConfig(),
		container.WithClock(clock),
		container.WithOnItemPlaced(func(id string) { placed = append(placed, id) }),
	)
	c.Attach(context.Background())
	clock.Advance(frame)
	require.Equal(t, []string{"item-0", "item-1"}, placed)

	_, err := board.Add("late", 30)
	require.NoError(t, err)

	clock.Advance(frame)
	assert.Equal(t, 2, c.Passes(), "new item waited for the debounce window")
	assert.Equal(t, []string{"item-0", "item-1", "late"}, placed)

	p, ok := board.Block("late").Placement()
	require.True(t, ok)
	assert.Equal(t, 0, p.Column)
	assert.Equal(t, 50.0, p.Top)
}

func TestItemGrowthIsDebounced(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)

	require.NoError(t, board.SetItemHeight("item-0", 200))
	clock.Advance(frame)
	assert.Equal(t, 1, c.Passes())

	clock.Advance(layout.DefaultDebounce)
	assert.Equal(t, 2, c.Passes())
	assert.Equal(t, 200.0, board.Height())
}

func TestRemovedItemIsForgotten(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40)
	var results []layout.Result
	c := container.New(board, testConfig(),
		container.WithClock(clock),
		container.WithOnLayout(func(r layout.Result) { results = append(results, r) }),
	)
	c.Attach(context.Background())
	clock.Advance(frame)

	require.True(t, board.Remove("item-1"))
	clock.Advance(time.Second)

	require.Len(t, results, 2)
	assert.Equal(t, 1, results[1].Forgotten)
	_, ok := c.Placement("item-1")
	assert.False(t, ok)
}

func TestSetConfigSchedulesPass(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1200, 10, 10, 10, 10)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)
	require.Equal(t, 3, board.Columns())

	cfg := testConfig()
	cfg.Columns = 2
	cfg.Debounce = 50 * time.Millisecond
	c.SetConfig(cfg)

	clock.Advance(49 * time.Millisecond)
	assert.Equal(t, 3, board.Columns())
	clock.Advance(time.Second)
	assert.Equal(t, 2, board.Columns())
	assert.Equal(t, 2, c.Config().Columns)
}

func TestSetConfigNormalizes(t *testing.T) {
	board := newBoard(t, 1000)
	cfg := testConfig()
	cfg.Gap = -5
	cfg.MaxColumnWidth = 0
	c := container.New(board, cfg, container.WithClock(schedtest.NewFakeClock()))

	got := c.Config()
	assert.Equal(t, layout.DefaultGap, got.Gap)
	assert.Equal(t, layout.DefaultMaxColumnWidth, got.MaxColumnWidth)
}

func TestDetachCancelsPendingWork(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)

	board.Resize(500)
	c.Detach()
	assert.False(t, c.Attached())

	clock.Advance(time.Second)
	assert.Equal(t, 1, c.Passes())
	assert.Equal(t, 0, clock.Pending())

	board.Resize(300)
	_, err := board.Add("after", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, clock.Pending(), "detached container still observes the board")
}

func TestReattachContinuesHistory(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40)
	cfg := testConfig()
	cfg.ColumnLock = true
	c := container.New(board, cfg, container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)
	c.Detach()

	require.NoError(t, board.SetItemHeight("item-0", 500))
	var results []layout.Result
	c2 := container.New(board, cfg, container.WithClock(clock),
		container.WithOnLayout(func(r layout.Result) { results = append(results, r) }))
	c2.Restore(c.Snapshot())
	c2.Attach(context.Background())
	clock.Advance(frame)

	require.Len(t, results, 1)
	p, _ := board.Block("item-2").Placement()
	assert.Equal(t, 0, p.Column, "column lock lost across containers")
	assert.Empty(t, results[0].Placed)
}

func TestRestoreOntoFreshBoard(t *testing.T) {
	clock := schedtest.NewFakeClock()
	cfg := testConfig()
	cfg.ColumnLock = true

	first := newBoard(t, 1000, 50, 60, 40)
	c := container.New(first, cfg, container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)
	c.Detach()

	fresh := newBoard(t, 1000, 50, 60, 40)
	var results []layout.Result
	c2 := container.New(fresh, cfg, container.WithClock(clock),
		container.WithOnLayout(func(r layout.Result) { results = append(results, r) }))
	c2.Restore(c.Snapshot())
	c2.Attach(context.Background())
	clock.Advance(frame)

	require.Len(t, results, 1)
	for _, blk := range fresh.Blocks() {
		want, _ := first.Block(blk.ID()).Placement()
		got, ok := blk.Placement()
		require.True(t, ok, "restored item %s was never written", blk.ID())
		assert.Equal(t, want, got)
		assert.False(t, blk.Animated(), "restored item %s animated onto a fresh board", blk.ID())
	}
	assert.Equal(t, first.Height(), fresh.Height())
	assert.Equal(t, 2, fresh.Columns())
	assert.True(t, fresh.Distributed())
	assert.Empty(t, results[0].Placed)

	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, c2.Passes(), "restored container re-laid out in response to itself")
}

func TestImmediatePassDropsPendingDebounce(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60)
	var results []layout.Result
	c := container.New(board, testConfig(),
		container.WithClock(clock),
		container.WithOnLayout(func(r layout.Result) { results = append(results, r) }),
	)
	c.Attach(context.Background())
	clock.Advance(frame)
	require.Equal(t, 1, c.Passes())

	board.Resize(1200)
	_, err := board.Add("new", 30)
	require.NoError(t, err)

	clock.Advance(frame)
	require.Equal(t, 2, c.Passes())
	assert.Equal(t, 1200.0, results[1].Width, "immediate pass missed the pending resize")

	clock.Advance(time.Second)
	assert.Equal(t, 2, c.Passes(), "superseded debounced pass still committed")
	assert.Equal(t, 0, clock.Pending())
}

func TestLayoutNowDropsPendingDebounce(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)

	board.Resize(600)
	res, ok := c.LayoutNow()
	require.True(t, ok)
	assert.Equal(t, 600.0, res.Width)

	clock.Advance(time.Second)
	assert.Equal(t, 2, c.Passes())
}

func TestUnattachedHostSkipsPass(t *testing.T) {
	rec := installRecorder(t)
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 0, 50, 60)
	c := container.New(board, testConfig(), container.WithClock(clock))
	c.Attach(context.Background())

	clock.Advance(frame)
	assert.Equal(t, 0, c.Passes())
	assert.Equal(t, 1, rec.skipped)
	_, placed := board.Block("item-0").Placement()
	assert.False(t, placed)

	board.Resize(800)
	clock.Advance(time.Second)
	assert.Equal(t, 1, c.Passes())
	assert.Equal(t, []string{"item-0", "item-1"}, rec.placed)
}

func TestContainersAreIndependent(t *testing.T) {
	clock := schedtest.NewFakeClock()
	a := newBoard(t, 1000, 10, 20)
	b := newBoard(t, 1000, 30, 40)
	ca := container.New(a, testConfig(), container.WithClock(clock))
	cb := container.New(b, testConfig(), container.WithClock(clock))
	require.NotEqual(t, ca.ID(), cb.ID())

	ca.Attach(context.Background())
	cb.Attach(context.Background())
	clock.Advance(frame)
	require.Equal(t, 1, ca.Passes())
	require.Equal(t, 1, cb.Passes())

	a.Resize(500)
	clock.Advance(200 * time.Millisecond)
	b.Resize(500)
	clock.Advance(150 * time.Millisecond)

	assert.Equal(t, 2, ca.Passes(), "a was delayed by b's resize")
	assert.Equal(t, 1, cb.Passes())

	clock.Advance(time.Second)
	assert.Equal(t, 2, cb.Passes())
}

func TestLayoutNow(t *testing.T) {
	board := newBoard(t, 1000, 50, 60)
	c := container.New(board, testConfig(), container.WithClock(schedtest.NewFakeClock()))

	_, ok := c.LayoutNow()
	assert.False(t, ok, "detached container ran a pass")

	c.Attach(context.Background())
	res, ok := c.LayoutNow()
	require.True(t, ok)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, []string{"item-0", "item-1"}, res.Placed)
}

func TestTransitionOnlyOnUpdates(t *testing.T) {
	clock := schedtest.NewFakeClock()
	board := newBoard(t, 1000, 50, 60, 40)
	cfg := testConfig()
	cfg.Transition = true
	c := container.New(board, cfg, container.WithClock(clock))
	c.Attach(context.Background())
	clock.Advance(frame)

	for _, blk := range board.Blocks() {
		assert.False(t, blk.Animated(), "first placement of %s animated", blk.ID())
	}

	board.Resize(500)
	clock.Advance(time.Second)
	assert.True(t, board.Block("item-1").Animated())
}

func TestCancelledContextDetaches(t *testing.T) {
	board := newBoard(t, 1000, 50)
	c := container.New(board, testConfig(), container.WithClock(schedtest.NewFakeClock()))

	ctx, cancel := context.WithCancel(context.Background())
	c.Attach(ctx)
	require.True(t, c.Attached())

	cancel()
	assert.Eventually(t, func() bool { return !c.Attached() }, time.Second, time.Millisecond)
}

func TestRealClockEndToEnd(t *testing.T) {
	board := newBoard(t, 1000, 50, 60, 40)
	done := make(chan layout.Result, 4)
	cfg := testConfig()
	cfg.Debounce = 10 * time.Millisecond
	c := container.New(board, cfg, container.WithOnLayout(func(r layout.Result) { done <- r }))
	c.Attach(context.Background())
	defer c.Detach()

	select {
	case res := <-done:
		assert.Equal(t, 3, res.Items)
	case <-time.After(2 * time.Second):
		t.Fatal("no pass with the real clock")
	}

	board.Resize(300)
	select {
	case res := <-done:
		assert.Equal(t, 1, res.ColumnCount)
	case <-time.After(2 * time.Second):
		t.Fatal("resize did not relayout")
	}
}
