package ir

import "github.com/bits-and-blooms/bitset"

// Walk visits the blocks reachable from Entry along successor edges
// (forward) or from Exit along predecessor edges (backward), depth-first.
// Each block is passed to fn once; returning false stops the walk.
//
// Walk must not run while the graph is being mutated.
func Walk(g *Graph, forward bool, fn func(*Block) bool) {
	start := g.Entry()
	if !forward {
		start = g.Exit()
	}

	stacked := bitset.New(uint(g.NumAllocated()))
	stack := []*Block{start}
	stacked.Set(uint(start.id))

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var next []*Block
		if forward {
			next = b.Successors()
		} else {
			next = b.PredecessorsSnapshot()
		}
		// Push in reverse so the first successor is visited first.
		for i := len(next) - 1; i >= 0; i-- {
			n := next[i]
			if stacked.Test(uint(n.id)) {
				continue
			}
			stacked.Set(uint(n.id))
			stack = append(stack, n)
		}

		if !fn(b) {
			return
		}
	}
}
