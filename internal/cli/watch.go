package cli

import (
	"context"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/config"
	"github.com/matzehuels/masonry/pkg/container"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/pipeline"
	"github.com/matzehuels/masonry/pkg/surface"
)

// Terminal cells are mapped to layout pixels with a fixed scale.
const (
	defaultCellPx = 8.0
	defaultRowPx  = 20.0
)

var (
	watchBlockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0"))
	watchHelpStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// passMsg carries a committed pass into the bubbletea loop.
type passMsg struct {
	res  layout.Result
	snap *layout.Snapshot
}

// watchModel is the bubbletea model for the live preview. The terminal width
// is the container width: window size events resize the board and go through
// the container's debounce and frame scheduling like any other resize.
type watchModel struct {
	board     *surface.Board
	container *container.Container
	passes    <-chan passMsg

	cellPx, rowPx float64
	rng           *rand.Rand
	next          int

	snap   *layout.Snapshot
	last   layout.Result
	count  int
	rows   int
	status string
}

func (m *watchModel) Init() tea.Cmd {
	return waitForPass(m.passes)
}

func waitForPass(ch <-chan passMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "a":
			m.addItem()
		case "x":
			m.removeItem()
		case "g":
			m.growItem()
		case "l":
			cfg := m.container.Config()
			cfg.ColumnLock = !cfg.ColumnLock
			m.container.SetConfig(cfg)
			m.status = fmt.Sprintf("column lock %v", cfg.ColumnLock)
		case "+", "=":
			m.setColumns(1)
		case "-":
			m.setColumns(-1)
		}
	case tea.WindowSizeMsg:
		m.rows = msg.Height
		m.board.Resize(float64(msg.Width) * m.cellPx)
	case passMsg:
		m.snap = msg.snap
		m.last = msg.res
		m.count++
		return m, waitForPass(m.passes)
	}
	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("masonry watch"))
	if m.snap != nil {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  pass %d · %d columns · %gpx · %d changed",
			m.count, m.last.ColumnCount, m.last.Height, len(m.last.Changed))))
	}
	if m.status != "" {
		b.WriteString(StyleWarning.Render("  " + m.status))
	}
	b.WriteString("\n")
	b.WriteString(watchHelpStyle.Render("a add  x remove  g grow  l lock  +/- columns  q quit"))
	b.WriteString("\n\n")
	if m.snap != nil {
		b.WriteString(renderBoard(m.snap, m.cellPx, m.rowPx, max(1, m.rows-4)))
	}
	return b.String()
}

func (m *watchModel) addItem() {
	m.next++
	id := fmt.Sprintf("item-%d", m.next)
	// Items loaded from a file may already use the generated names.
	for m.board.Block(id) != nil {
		m.next++
		id = fmt.Sprintf("item-%d", m.next)
	}
	h := float64(40 + m.rng.IntN(160))
	if _, err := m.board.Add(id, h); err != nil {
		m.status = "add failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("added %s", id)
}

func (m *watchModel) removeItem() {
	blocks := m.board.Blocks()
	if len(blocks) == 0 {
		return
	}
	id := blocks[m.rng.IntN(len(blocks))].ID()
	m.board.Remove(id)
	m.status = "removed " + id
}

func (m *watchModel) growItem() {
	blocks := m.board.Blocks()
	if len(blocks) == 0 {
		return
	}
	blk := blocks[m.rng.IntN(len(blocks))]
	h := blk.Height() + 20
	if err := m.board.SetItemHeight(blk.ID(), h); err == nil {
		m.status = fmt.Sprintf("grew %s to %g", blk.ID(), h)
	}
}

func (m *watchModel) setColumns(delta int) {
	cfg := m.container.Config()
	n := cfg.Columns
	if n == layout.ColumnsAuto {
		n = m.last.ColumnCount
	}
	n = max(1, n+delta)
	cfg.Columns = n
	m.container.SetConfig(cfg)
	m.status = fmt.Sprintf("%d columns", n)
}

// renderBoard draws a snapshot as colored blocks, one terminal column per
// cellPx pixels and one row per rowPx pixels. Output is cut at maxRows.
func renderBoard(s *layout.Snapshot, cellPx, rowPx float64, maxRows int) string {
	if s == nil || s.ColumnCount == 0 {
		return ""
	}
	colCells := max(1, int(s.ColumnWidth/cellPx))
	gapCells := max(0, int(math.Round(s.Config.Gap/cellPx)))
	blank := strings.Repeat(" ", colCells)

	columns := make([]string, s.ColumnCount)
	for i := range columns {
		var lines []string
		style := watchBlockStyle.Background(columnColors[i%len(columnColors)]).Width(colCells)
		for _, e := range s.Column(i) {
			top := int(math.Round(e.Placement.Top / rowPx))
			for len(lines) < top {
				lines = append(lines, blank)
			}
			rows := max(1, int(math.Round(e.ItemHeight/rowPx)))
			for r := 0; r < rows; r++ {
				label := ""
				if r == 0 {
					label = truncate(e.ID, colCells)
				}
				lines = append(lines, style.Render(label))
			}
		}
		if len(lines) == 0 {
			lines = append(lines, blank)
		}
		columns[i] = strings.Join(lines, "\n")
	}

	parts := make([]string, 0, 2*len(columns))
	for i, col := range columns {
		if i > 0 && gapCells > 0 {
			parts = append(parts, strings.Repeat(" ", gapCells))
		}
		parts = append(parts, col)
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	lines := strings.Split(out, "\n")
	if len(lines) > maxRows {
		lines = lines[:maxRows]
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:max(n, 0)])
	}
	return string(r[:n-1]) + "…"
}

// watchCommand creates the watch command for the live terminal preview.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		itemsFile string
		count     int
		seed      uint64
		cellPx    float64
		rowPx     float64
		attrs     []string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Preview a live container in the terminal",
		Long: `Preview a live container in the terminal.

The terminal width is the container width: resizing the window resizes the
container, and the layout follows after the debounce window. Keys add,
remove and grow items or change the column settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []pipeline.Item
			merged := map[string]string{}
			if itemsFile != "" {
				in, err := pipeline.ReadInputFile(itemsFile)
				if err != nil {
					return err
				}
				items = in.Items
				maps.Copy(merged, in.StringAttributes())
			}
			maps.Copy(merged, parseAttributes(attrs))
			return c.runWatch(cmd.Context(), items, count, seed, cellPx, rowPx, merged)
		},
	}

	cmd.Flags().StringVar(&itemsFile, "items", "", "items file to start from")
	cmd.Flags().IntVarP(&count, "count", "n", 24, "number of random items when no items file is given")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "seed for random item heights")
	cmd.Flags().Float64Var(&cellPx, "cell", defaultCellPx, "pixels per terminal column")
	cmd.Flags().Float64Var(&rowPx, "row", defaultRowPx, "pixels per terminal row")
	cmd.Flags().StringArrayVarP(&attrs, "attr", "a", nil, "layout attribute as key=value (repeatable)")

	_ = cmd.RegisterFlagCompletionFunc("attr", completeAttributes)

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, items []pipeline.Item, count int, seed uint64, cellPx, rowPx float64, attrs map[string]string) error {
	if cellPx <= 0 || rowPx <= 0 {
		return fmt.Errorf("--cell and --row must be positive")
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	if len(items) == 0 {
		for i := 0; i < count; i++ {
			items = append(items, pipeline.Item{ID: fmt.Sprintf("item-%d", i+1), Height: float64(40 + rng.IntN(160))})
		}
	}

	cfg, warnings := config.ApplyAttributes(c.layoutConfig(), attrs)
	for _, w := range warnings {
		c.Logger.Warn("config value replaced", "code", w.Code, "detail", w.Message)
	}

	board := surface.NewBoard(0)
	for _, it := range items {
		if _, err := board.Add(it.ID, it.Height); err != nil {
			return err
		}
	}

	passes := make(chan passMsg, 1)
	var cont *container.Container
	cont = container.New(board, cfg,
		container.WithLogger(c.Logger),
		container.WithOnLayout(func(res layout.Result) {
			publish(passes, passMsg{res: res, snap: cont.Snapshot()})
		}),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cont.Attach(ctx)
	defer cont.Detach()

	m := &watchModel{
		board:     board,
		container: cont,
		passes:    passes,
		cellPx:    cellPx,
		rowPx:     rowPx,
		rng:       rng,
		next:      len(items),
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// publish hands msg to the UI, replacing an unread older pass.
func publish(ch chan passMsg, msg passMsg) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
