package ir

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/ludo-technologies/bcfg/internal/expr"
)

// Visitor receives the nodes of a traversal. VisitBlock is called before
// the elements of the block, VisitElement before the expressions of the
// element, and expressions arrive in post-order.
type Visitor interface {
	VisitBlock(b *Block)
	VisitElement(e Element)
	VisitExpr(x expr.Expr)
}

// BaseVisitor implements Visitor with no-ops. Embed it and override the
// hooks of interest.
type BaseVisitor struct{}

func (BaseVisitor) VisitBlock(*Block) {}
func (BaseVisitor) VisitElement(Element) {}
func (BaseVisitor) VisitExpr(expr.Expr) {}

// VisitorFuncs adapts plain functions to a Visitor. Nil hooks are skipped.
type VisitorFuncs struct {
	Block   func(*Block)
	Element func(Element)
	Expr    func(expr.Expr)
}

func (f VisitorFuncs) VisitBlock(b *Block) {
	if f.Block != nil {
		f.Block(b)
	}
}

func (f VisitorFuncs) VisitElement(e Element) {
	if f.Element != nil {
		f.Element(e)
	}
}

func (f VisitorFuncs) VisitExpr(x expr.Expr) {
	if f.Expr != nil {
		f.Expr(x)
	}
}

func visitBlock(b *Block, v Visitor, stepIntoExprs bool) {
	v.VisitBlock(b)
	if !b.kind.HasElements() {
		return
	}
	// The visitor may rewrite the block; iterate over what was there.
	for _, e := range b.Elements() {
		v.VisitElement(e)
		if stepIntoExprs {
			for _, x := range e.Exprs() {
				expr.Walk(x, v.VisitExpr)
			}
		}
	}
}

// Worklist drives a Visitor over a graph that may change while it runs.
// It is seeded with every block reachable from Entry; a visitor that
// creates blocks hands them to Enqueue. Each block ever enqueued is
// visited exactly once, in no guaranteed order once mutation starts.
type Worklist struct {
	graph         *Graph
	visitor       Visitor
	stepIntoExprs bool

	queue  []*Block
	queued *bitset.BitSet
}

// NewWorklist seeds a worklist with a forward depth-first walk of g.
func NewWorklist(g *Graph, v Visitor, stepIntoExprs bool) *Worklist {
	w := &Worklist{
		graph:         g,
		visitor:       v,
		stepIntoExprs: stepIntoExprs,
		queued:        bitset.New(uint(g.NumAllocated())),
	}
	Walk(g, true, func(b *Block) bool {
		w.Enqueue(b)
		return true
	})
	return w
}

// Enqueue schedules b unless it has been queued before.
func (w *Worklist) Enqueue(b *Block) {
	if b.graph != w.graph {
		assertf("Worklist.Enqueue", "%s belongs to another graph", b.id)
	}
	if w.queued.Test(uint(b.id)) {
		return
	}
	w.queued.Set(uint(b.id))
	w.queue = append(w.queue, b)
}

// Len returns the number of blocks still waiting.
func (w *Worklist) Len() int { return len(w.queue) }

// Run drains the queue. Blocks released by the visitor before their turn
// are skipped.
func (w *Worklist) Run() {
	for len(w.queue) > 0 {
		b := w.queue[0]
		w.queue = w.queue[1:]
		if w.graph.Block(b.id) != b {
			continue
		}
		visitBlock(b, w.visitor, w.stepIntoExprs)
	}
}
