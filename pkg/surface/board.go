// Package surface provides a headless in-memory layout host.
//
// A [Board] behaves like a container element: it has a width, an ordered list
// of children with measured heights, and it observes its own size. Writing a
// new container height notifies resize observers exactly as a browser
// ResizeObserver would, so code driving a Board has to cope with the same
// self-triggered notifications as code driving a real element.
//
// Boards back the CLI, the HTTP API and the terminal preview, and make the
// reactive parts of package container testable without a UI toolkit.
package surface

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/masonry/pkg/layout"
)

// Board is an in-memory container. It is safe for concurrent use; observer
// callbacks are invoked without the board's lock held.
type Board struct {
	mu          sync.Mutex
	width       float64
	height      float64
	columns     int
	distributed bool
	blocks      []*Block
	heightSets  int

	nextObserver int
	resize       map[int]func(width float64)
	children     map[int]func()
}

// Block is one child of a Board.
type Block struct {
	board *Board
	id    string

	height    float64
	placement layout.Placement
	placed    bool
	animated  bool
	writes    int
}

// NewBoard returns a board of the given content width. A width of zero
// models a container that is not attached yet.
func NewBoard(width float64) *Board {
	return &Board{
		width:    width,
		resize:   make(map[int]func(float64)),
		children: make(map[int]func()),
	}
}

// Width returns the content width.
func (b *Board) Width() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

// Items returns the children in order.
func (b *Board) Items() []layout.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]layout.Item, len(b.blocks))
	for i, blk := range b.blocks {
		out[i] = blk
	}
	return out
}

// SetHeight sets the container height. A change in height is a change in the
// board's own size and notifies resize observers.
func (b *Board) SetHeight(h float64) {
	b.mu.Lock()
	changed := h != b.height
	b.height = h
	b.heightSets++
	width := b.width
	observers := b.resizeObserversLocked()
	b.mu.Unlock()

	if changed {
		for _, fn := range observers {
			fn(width)
		}
	}
}

// SetColumnCount records the column count hint.
func (b *Board) SetColumnCount(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.columns = n
}

// SetDistributed records whether items have been placed.
func (b *Board) SetDistributed(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.distributed = v
}

// Resize changes the content width and notifies resize observers when it
// actually changed.
func (b *Board) Resize(width float64) {
	b.mu.Lock()
	if width == b.width {
		b.mu.Unlock()
		return
	}
	b.width = width
	observers := b.resizeObserversLocked()
	b.mu.Unlock()

	for _, fn := range observers {
		fn(width)
	}
}

// Add appends a child with the given id and height.
func (b *Board) Add(id string, height float64) (*Block, error) {
	b.mu.Lock()
	if b.indexLocked(id) >= 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("block %q already exists", id)
	}
	blk := &Block{board: b, id: id, height: height}
	b.blocks = append(b.blocks, blk)
	observers := b.childObserversLocked()
	b.mu.Unlock()

	notify(observers)
	return blk, nil
}

// Insert places a new child at index i (clamped to the valid range).
func (b *Board) Insert(i int, id string, height float64) (*Block, error) {
	b.mu.Lock()
	if b.indexLocked(id) >= 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("block %q already exists", id)
	}
	i = min(max(0, i), len(b.blocks))
	blk := &Block{board: b, id: id, height: height}
	b.blocks = slices.Insert(b.blocks, i, blk)
	observers := b.childObserversLocked()
	b.mu.Unlock()

	notify(observers)
	return blk, nil
}

// Remove detaches the child with id. It reports whether it existed.
func (b *Board) Remove(id string) bool {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.blocks = slices.Delete(b.blocks, i, i+1)
	observers := b.childObserversLocked()
	b.mu.Unlock()

	notify(observers)
	return true
}

// SetItemHeight changes the measured height of a child, as when an image
// inside it finishes loading, and notifies child observers.
func (b *Board) SetItemHeight(id string, height float64) error {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("block %q not found", id)
	}
	b.blocks[i].height = height
	observers := b.childObserversLocked()
	b.mu.Unlock()

	notify(observers)
	return nil
}

// ObserveResize registers fn for size changes of the board itself. The
// returned function unregisters it.
func (b *Board) ObserveResize(fn func(width float64)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextObserver++
	id := b.nextObserver
	b.resize[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.resize, id)
	}
}

// ObserveChildren registers fn for changes to the child list or child
// sizes. The returned function unregisters it.
func (b *Board) ObserveChildren(fn func()) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextObserver++
	id := b.nextObserver
	b.children[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.children, id)
	}
}

// Height returns the last container height written.
func (b *Board) Height() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.height
}

// HeightWrites returns how many times SetHeight was called.
func (b *Board) HeightWrites() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.heightSets
}

// Columns returns the last column count hint.
func (b *Board) Columns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.columns
}

// Distributed reports whether the board has been told items were placed.
func (b *Board) Distributed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.distributed
}

// Block returns the child with id, or nil.
func (b *Board) Block(id string) *Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.blocks[i]
	}
	return nil
}

// Blocks returns the children in order.
func (b *Board) Blocks() []*Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.blocks)
}

// Len returns the number of children.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

func (b *Board) indexLocked(id string) int {
	return slices.IndexFunc(b.blocks, func(blk *Block) bool { return blk.id == id })
}

func (b *Board) resizeObserversLocked() []func(float64) {
	out := make([]func(float64), 0, len(b.resize))
	for _, id := range sortedKeys(b.resize) {
		out = append(out, b.resize[id])
	}
	return out
}

func (b *Board) childObserversLocked() []func() {
	out := make([]func(), 0, len(b.children))
	for _, id := range sortedKeys(b.children) {
		out = append(out, b.children[id])
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// ID returns the block's identifier.
func (blk *Block) ID() string { return blk.id }

// Height returns the block's measured height.
func (blk *Block) Height() float64 {
	blk.board.mu.Lock()
	defer blk.board.mu.Unlock()
	return blk.height
}

// Place applies a placement.
func (blk *Block) Place(p layout.Placement, animate bool) {
	blk.board.mu.Lock()
	defer blk.board.mu.Unlock()
	blk.placement = p
	blk.placed = true
	blk.animated = animate
	blk.writes++
}

// Placement returns the applied placement. The boolean is false until the
// block has been placed once; unplaced blocks are hidden.
func (blk *Block) Placement() (layout.Placement, bool) {
	blk.board.mu.Lock()
	defer blk.board.mu.Unlock()
	return blk.placement, blk.placed
}

// Animated reports whether the last placement asked for a transition.
func (blk *Block) Animated() bool {
	blk.board.mu.Lock()
	defer blk.board.mu.Unlock()
	return blk.animated
}

// Writes returns how many placements were applied to the block.
func (blk *Block) Writes() int {
	blk.board.mu.Lock()
	defer blk.board.mu.Unlock()
	return blk.writes
}

// Ensure Board implements layout.Surface.
var _ layout.Surface = (*Board)(nil)
