package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/config"
	"github.com/matzehuels/masonry/pkg/container"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/pipeline"
	"github.com/matzehuels/masonry/pkg/schedule"
	"github.com/matzehuels/masonry/pkg/schedule/schedtest"
	"github.com/matzehuels/masonry/pkg/surface"
)

// Script actions.
const (
	actionResize = "resize"
	actionAdd    = "add"
	actionInsert = "insert"
	actionRemove = "remove"
	actionGrow   = "grow"
	actionConfig = "config"
	actionWait   = "wait"
)

// simScript is a replayable sequence of container mutations:
//
//	width = 1000
//
//	[layout]
//	columns = 2
//	column_lock = true
//
//	[[items]]
//	id = "a"
//	height = 50
//
//	[[steps]]
//	wait = "100ms"
//	action = "resize"
//	width = 640
type simScript struct {
	Width  float64              `toml:"width"`
	Layout config.LayoutSection `toml:"layout"`
	Items  []pipeline.Item      `toml:"items"`
	Steps  []simStep            `toml:"steps"`
}

// simStep is one mutation. Wait is how long to let the container run before
// the step is applied.
type simStep struct {
	Wait       string         `toml:"wait"`
	Action     string         `toml:"action"`
	Width      float64        `toml:"width"`
	ID         string         `toml:"id"`
	Height     float64        `toml:"height"`
	Index      int            `toml:"index"`
	Attributes map[string]any `toml:"attributes"`

	wait time.Duration
}

// parseScript decodes and checks a simulation script.
func parseScript(data []byte) (*simScript, error) {
	var s simScript
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse script")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown script key %q", undecoded[0].String())
	}
	if s.Width <= 0 {
		s.Width = pipeline.DefaultWidth
	}
	if err := pipeline.ValidateItems(s.Items); err != nil {
		return nil, err
	}

	for i := range s.Steps {
		st := &s.Steps[i]
		if st.Wait != "" {
			d, err := time.ParseDuration(st.Wait)
			if err != nil || d < 0 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "step %d: invalid wait %q", i+1, st.Wait)
			}
			st.wait = d
		}
		if err := st.check(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "step %d", i+1)
		}
	}
	return &s, nil
}

func (st *simStep) check() error {
	switch st.Action {
	case actionResize:
		if st.Width < 0 {
			return fmt.Errorf("resize needs a width >= 0")
		}
	case actionAdd, actionInsert, actionGrow:
		if err := errors.ValidateItemID(st.ID); err != nil {
			return err
		}
		return errors.ValidateHeight(st.ID, st.Height)
	case actionRemove:
		return errors.ValidateItemID(st.ID)
	case actionConfig:
		if len(st.Attributes) == 0 {
			return fmt.Errorf("config needs attributes")
		}
	case actionWait:
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

func (st *simStep) String() string {
	switch st.Action {
	case actionResize:
		return fmt.Sprintf("resize to %g", st.Width)
	case actionAdd:
		return fmt.Sprintf("add %s (%g)", st.ID, st.Height)
	case actionInsert:
		return fmt.Sprintf("insert %s (%g) at %d", st.ID, st.Height, st.Index)
	case actionRemove:
		return "remove " + st.ID
	case actionGrow:
		return fmt.Sprintf("grow %s to %g", st.ID, st.Height)
	case actionConfig:
		return "set " + formatAttributes(st.stringAttributes())
	default:
		return st.Action
	}
}

func (st *simStep) stringAttributes() map[string]string {
	out := make(map[string]string, len(st.Attributes))
	for k, v := range st.Attributes {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// simulation replays a script against a board driven by a container.
type simulation struct {
	clock   schedule.Clock
	advance func(ctx context.Context, d time.Duration) error
	out     io.Writer
	logger  *log.Logger

	mu     sync.Mutex
	passes []layout.Result
}

// newRealSimulation runs on the wall clock.
func newRealSimulation(out io.Writer, logger *log.Logger) *simulation {
	return &simulation{
		clock: schedule.RealClock{},
		advance: func(ctx context.Context, d time.Duration) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		out:    out,
		logger: logger,
	}
}

// newVirtualSimulation runs on a manual clock, so waits take no real time
// and the output is deterministic.
func newVirtualSimulation(out io.Writer, logger *log.Logger) *simulation {
	clock := schedtest.NewFakeClock()
	return &simulation{
		clock: clock,
		advance: func(ctx context.Context, d time.Duration) error {
			clock.Advance(d)
			return ctx.Err()
		},
		out:    out,
		logger: logger,
	}
}

// run replays the script and returns the final layout.
func (sim *simulation) run(ctx context.Context, script *simScript, base layout.Config) (*layout.Snapshot, error) {
	cfg, warnings := script.Layout.Apply(base)
	for _, w := range warnings {
		sim.logger.Warn("config value replaced", "code", w.Code, "detail", w.Message)
	}

	board := surface.NewBoard(script.Width)
	for _, it := range script.Items {
		if _, err := board.Add(it.ID, it.Height); err != nil {
			return nil, err
		}
	}

	c := container.New(board, cfg,
		container.WithClock(sim.clock),
		container.WithLogger(sim.logger),
		container.WithOnLayout(sim.record),
	)
	c.Attach(ctx)
	defer c.Detach()

	sim.printf("%s %s\n", StyleTitle.Render("attach"), StyleDim.Render(fmt.Sprintf("width %g, %d items", script.Width, len(script.Items))))
	if err := sim.advance(ctx, schedule.DefaultFrameInterval); err != nil {
		return nil, err
	}

	for i := range script.Steps {
		st := &script.Steps[i]
		if st.wait > 0 {
			if err := sim.advance(ctx, st.wait); err != nil {
				return nil, err
			}
		}
		sim.printf("%s %s\n", StyleTitle.Render(fmt.Sprintf("step %d", i+1)), st)
		if err := sim.apply(board, c, st); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	// Let the last debounce window and its frame run out.
	settle := c.Config().Debounce + 2*schedule.DefaultFrameInterval
	if err := sim.advance(ctx, settle); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

func (sim *simulation) apply(board *surface.Board, c *container.Container, st *simStep) error {
	switch st.Action {
	case actionResize:
		board.Resize(st.Width)
	case actionAdd:
		_, err := board.Add(st.ID, st.Height)
		return err
	case actionInsert:
		_, err := board.Insert(st.Index, st.ID, st.Height)
		return err
	case actionRemove:
		if !board.Remove(st.ID) {
			return errors.New(errors.ErrCodeNotFound, "item %q not found", st.ID)
		}
	case actionGrow:
		return board.SetItemHeight(st.ID, st.Height)
	case actionConfig:
		cfg, warnings := config.ApplyAttributes(c.Config(), st.stringAttributes())
		for _, w := range warnings {
			sim.logger.Warn("config value replaced", "code", w.Code, "detail", w.Message)
		}
		c.SetConfig(cfg)
	}
	return nil
}

// record runs on the pass that committed; passes are serialized.
func (sim *simulation) record(res layout.Result) {
	sim.mu.Lock()
	sim.passes = append(sim.passes, res)
	n := len(sim.passes)
	sim.mu.Unlock()

	line := fmt.Sprintf("  pass %d  %s columns · height %s · %d changed",
		n,
		StyleNumber.Render(fmt.Sprint(res.ColumnCount)),
		StyleNumber.Render(fmt.Sprintf("%g", res.Height)),
		len(res.Changed))
	if res.Reordered {
		line += StyleWarning.Render(" · reordered")
	}
	sim.printf("%s\n", line)
}

// Passes returns the committed passes in order.
func (sim *simulation) Passes() []layout.Result {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return append([]layout.Result(nil), sim.passes...)
}

func (sim *simulation) printf(format string, args ...any) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	fmt.Fprintf(sim.out, format, args...)
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		output  string
		virtual bool
		tbl     bool
	)

	cmd := &cobra.Command{
		Use:   "simulate [script.toml]",
		Short: "Replay resizes and item changes against a live container",
		Long: `Replay a script of resizes, additions, removals, height changes and
attribute changes against a live container, printing every committed pass.

Events go through the same debounce and frame scheduling a browser host
would see: bursts collapse into one pass, new items are placed right away,
and the container's own height changes do not trigger extra passes.

With --virtual the script runs on a simulated clock and finishes instantly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				if os.IsNotExist(err) {
					return errors.New(errors.ErrCodeFileNotFound, "script not found: %s", args[0])
				}
				return err
			}
			script, err := parseScript(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sim := newRealSimulation(out, c.Logger)
			if virtual {
				sim = newVirtualSimulation(out, c.Logger)
			}

			prog := newProgress(c.Logger)
			snap, err := sim.run(cmd.Context(), script, c.layoutConfig())
			if err != nil {
				return err
			}
			prog.done("replayed script", "steps", len(script.Steps), "passes", len(sim.Passes()))

			if snap != nil && tbl {
				fmt.Fprintln(out, columnTable(snap))
			}
			if output != "" && snap != nil {
				if err := layout.WriteSnapshotFile(snap, output); err != nil {
					return err
				}
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final layout to this file")
	cmd.Flags().BoolVar(&virtual, "virtual", false, "run on a simulated clock")
	cmd.Flags().BoolVar(&tbl, "table", true, "print the final columns as a table")

	return cmd
}

func formatAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return strings.Join(parts, " ")
}
