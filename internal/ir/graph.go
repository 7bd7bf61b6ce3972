package ir

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/ludo-technologies/bcfg/internal/types"
)

// Graph is the control-flow graph of one method body. It owns every block
// in an arena indexed by BlockID. A new graph holds Entry -> Exit.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	Name string

	blocks []*Block
	entry  BlockID
	exit   BlockID
}

// NewGraph returns a graph whose entry flows straight into its exit.
func NewGraph(name string) *Graph {
	g := &Graph{Name: name}
	entry := g.newBlock(KindEntry)
	exit := g.newBlock(KindExit)
	g.entry, g.exit = entry.id, exit.id
	entry.link(&entry.primary, exit)
	return g
}

func (g *Graph) newBlock(kind BlockKind) *Block {
	b := &Block{
		id:        BlockID(len(g.blocks)),
		kind:      kind,
		graph:     g,
		primary:   NoBlock,
		ifFalse:   NoBlock,
		unhandled: NoBlock,
	}
	g.blocks = append(g.blocks, b)
	return b
}

// Block returns the block with the given id, or nil if the id was never
// allocated or has been released.
func (g *Graph) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// Entry returns the entry block.
func (g *Graph) Entry() *Block { return g.blocks[g.entry] }

// Exit returns the exit block.
func (g *Graph) Exit() *Block { return g.blocks[g.exit] }

// NumAllocated returns the size of the arena, released slots included.
func (g *Graph) NumAllocated() int { return len(g.blocks) }

// NewSimpleBlock returns an empty simple block flowing into primary.
func (g *Graph) NewSimpleBlock(primary *Block) *Block {
	b := g.newBlock(KindSimple)
	b.link(&b.primary, primary)
	return b
}

// NewConditionalBlock returns an empty conditional block.
func (g *Graph) NewConditionalBlock(ifTrue, ifFalse *Block) *Block {
	b := g.newBlock(KindConditional)
	b.link(&b.primary, ifTrue)
	b.link(&b.ifFalse, ifFalse)
	return b
}

// NewSwitchBlock returns an empty switch block with no cases yet.
func (g *Graph) NewSwitchBlock(dflt *Block) *Block {
	b := g.newBlock(KindSwitch)
	b.link(&b.primary, dflt)
	return b
}

// NewCaseBlock returns an empty case block flowing into primary.
func (g *Graph) NewCaseBlock(primary *Block) *Block {
	b := g.newBlock(KindCase)
	b.link(&b.primary, primary)
	return b
}

// NewCatchBlock returns an empty catch block handling caught.
func (g *Graph) NewCatchBlock(primary *Block, caught ...types.Type) *Block {
	b := g.newBlock(KindCatch)
	b.caught = append([]types.Type(nil), caught...)
	b.link(&b.primary, primary)
	return b
}

// NewReturnBlock returns an empty return block flowing into the exit.
func (g *Graph) NewReturnBlock() *Block {
	b := g.newBlock(KindReturn)
	b.link(&b.primary, g.Exit())
	return b
}

// NewThrowBlock returns an empty throw block. Its catch successors follow
// the context of its throw element once ResetCatchBlocks is called.
func (g *Graph) NewThrowBlock() *Block {
	b := g.newBlock(KindThrow)
	b.link(&b.unhandled, g.Exit())
	return b
}

// NewThrowingExpressionBlock returns an empty throwing-expression block
// falling through to primary.
func (g *Graph) NewThrowingExpressionBlock(primary *Block) *Block {
	b := g.newBlock(KindThrowingExpression)
	b.link(&b.primary, primary)
	b.link(&b.unhandled, g.Exit())
	return b
}

// NewPlaceholderBlock returns a stand-in used while a block is under
// construction. It must be replaced and released before the graph is used.
func (g *Graph) NewPlaceholderBlock() *Block {
	return g.newBlock(KindPlaceholder)
}

// Release frees the arena slot of a detached block. The block must have
// no predecessors other than itself.
func (g *Graph) Release(b *Block) {
	if b.graph != g {
		assertf("Release", "%s belongs to another graph", b.id)
	}
	if b.id == g.entry || b.id == g.exit {
		panic(structural(b, RuleIllegalOp, "cannot release %s block", b.kind))
	}
	for _, p := range b.preds {
		if p != b.id {
			panic(structural(b, RuleIllegalOp, "block is still referenced by %s", p))
		}
	}
	b.DereferenceAllSuccessors()
	g.blocks[b.id] = nil
}

// AllBlocksUnordered returns every block connected to Entry or Exit by
// successor or predecessor edges. The order is deterministic for an
// unmodified graph.
func (g *Graph) AllBlocksUnordered() []*Block {
	seen := bitset.New(uint(len(g.blocks)))
	queue := []*Block{g.Entry(), g.Exit()}
	seen.Set(uint(g.entry))
	seen.Set(uint(g.exit))

	var out []*Block
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		out = append(out, b)

		for _, s := range b.Successors() {
			if !seen.Test(uint(s.id)) {
				seen.Set(uint(s.id))
				queue = append(queue, s)
			}
		}
		for p := range b.Predecessors() {
			if !seen.Test(uint(p.id)) {
				seen.Set(uint(p.id))
				queue = append(queue, p)
			}
		}
	}
	return out
}

// BlocksDepthFirst returns the blocks reachable from Entry (forward) or
// from Exit (backward) in depth-first order.
func (g *Graph) BlocksDepthFirst(forward bool) []*Block {
	var out []*Block
	Walk(g, forward, func(b *Block) bool {
		out = append(out, b)
		return true
	})
	return out
}

// Visit runs v over every block of AllBlocksUnordered, stepping into the
// expressions of each element.
func (g *Graph) Visit(v Visitor) {
	for _, b := range g.AllBlocksUnordered() {
		visitBlock(b, v, true)
	}
}

// CheckValidity checks every block reachable from Entry and returns the
// first violation.
func (g *Graph) CheckValidity() error {
	var err error
	Walk(g, true, func(b *Block) bool {
		err = b.CheckValidity()
		return err == nil
	})
	return err
}

// CheckEdgeSymmetry verifies that every successor edge has a matching
// predecessor entry and the other way round, counting multiplicity.
func (g *Graph) CheckEdgeSymmetry() error {
	for _, b := range g.AllBlocksUnordered() {
		if err := g.checkEdges(b); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) checkEdges(b *Block) error {
	out := make(map[BlockID]int)
	for _, id := range b.successorIDs() {
		if id == NoBlock {
			continue
		}
		out[id]++
	}
	for id, n := range out {
		s := g.Block(id)
		if s == nil {
			return structural(b, RuleEdgeSymmetry, "successor %s was released", id)
		}
		if got := countID(s.preds, b.id); got != n {
			return structural(b, RuleEdgeSymmetry, "%d edges to %s but %d predecessor entries", n, id, got)
		}
	}
	for _, id := range b.preds {
		p := g.Block(id)
		if p == nil {
			return structural(b, RuleEdgeSymmetry, "predecessor %s was released", id)
		}
		if countID(p.successorIDs(), b.id) == 0 {
			return structural(b, RuleEdgeSymmetry, "predecessor %s has no edge here", id)
		}
	}
	return nil
}

func countID(ids []BlockID, id BlockID) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}

// Verify checks the whole graph and reports every violation found: the
// shape of Entry and Exit, validity of each reachable block and edge
// symmetry. It returns nil for a well-formed graph.
func (g *Graph) Verify() error {
	var errs []error

	entry, exit := g.Entry(), g.Exit()
	if n := entry.NumPredecessors(); n != 0 {
		errs = append(errs, structural(entry, RuleEntryShape, "entry has %d predecessors, want 0", n))
	}
	if n := len(entry.successorIDs()); n != 1 {
		errs = append(errs, structural(entry, RuleEntryShape, "entry has %d successors, want 1", n))
	}
	if n := len(exit.successorIDs()); n != 0 {
		errs = append(errs, structural(exit, RuleExitShape, "exit has %d successors, want 0", n))
	}

	for _, b := range g.AllBlocksUnordered() {
		if b.kind != KindEntry {
			if err := b.CheckValidity(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := g.checkEdges(b); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("graph %s: %w", g.Name, errors.Join(errs...))
}

// Stats summarizes the shape of a graph.
type Stats struct {
	Blocks   int            `json:"blocks" yaml:"blocks"`
	Elements int            `json:"elements" yaml:"elements"`
	Edges    int            `json:"edges" yaml:"edges"`
	ByKind   map[string]int `json:"by_kind" yaml:"by_kind"`
}

// Stats counts the blocks, elements and edges reachable from Entry.
func (g *Graph) Stats() Stats {
	st := Stats{ByKind: make(map[string]int)}
	Walk(g, true, func(b *Block) bool {
		st.Blocks++
		st.ByKind[b.kind.String()]++
		st.Edges += len(b.successorIDs())
		if b.kind.HasElements() {
			st.Elements += len(b.elements)
		}
		return true
	})
	return st
}
