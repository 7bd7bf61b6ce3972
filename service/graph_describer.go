package service

import (
	"slices"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/ir"
)

// DescribeGraph converts a built graph into its output model. Blocks are
// listed in depth-first order from Entry, followed by Exit when it is not
// reachable.
func DescribeGraph(g *ir.Graph, filePath string, showElements bool) domain.MethodGraph {
	blocks := g.BlocksDepthFirst(true)
	if !slices.Contains(blocks, g.Exit()) {
		blocks = append(blocks, g.Exit())
	}

	st := g.Stats()
	mg := domain.MethodGraph{
		Method:   g.Name,
		FilePath: filePath,
		Metrics: domain.GraphMetrics{
			Blocks:     st.Blocks,
			Elements:   st.Elements,
			Edges:      st.Edges,
			EHContexts: countEHContexts(blocks),
			ByKind:     st.ByKind,
		},
		Blocks: make([]domain.BlockInfo, 0, len(blocks)),
	}

	for _, b := range blocks {
		mg.Blocks = append(mg.Blocks, describeBlock(b, showElements))
	}
	return mg
}

func describeBlock(b *ir.Block, showElements bool) domain.BlockInfo {
	info := domain.BlockInfo{
		ID:   int(b.ID()),
		Kind: b.Kind().String(),
	}

	roles := edgeRoles(b)
	for i, s := range b.Successors() {
		if s == nil {
			continue
		}
		info.Successors = append(info.Successors, domain.Edge{Target: int(s.ID()), Role: roles[i]})
	}
	for p := range b.Predecessors() {
		info.Predecessors = append(info.Predecessors, int(p.ID()))
	}

	switch b.Kind() {
	case ir.KindCatch:
		for _, t := range b.CaughtTypes() {
			info.CaughtTypes = append(info.CaughtTypes, t.String())
		}
	case ir.KindConditional:
		info.Inverted = b.IsInverted()
	}

	if showElements && b.Kind().HasElements() {
		for _, e := range b.Elements() {
			info.Elements = append(info.Elements, e.String())
		}
	}
	return info
}

// edgeRoles names the successors of b in the order Successors returns them.
func edgeRoles(b *ir.Block) []domain.EdgeRole {
	n := len(b.Successors())
	roles := make([]domain.EdgeRole, n)

	switch b.Kind() {
	case ir.KindConditional:
		roles[0], roles[1] = domain.EdgeTrue, domain.EdgeFalse
	case ir.KindSwitch:
		roles[0] = domain.EdgeDefault
		for i := 1; i < n; i++ {
			roles[i] = domain.EdgeCase
		}
	case ir.KindThrow:
		roles[0] = domain.EdgeUnhandled
		for i := 1; i < n; i++ {
			roles[i] = domain.EdgeCatch
		}
	case ir.KindThrowingExpression:
		roles[0], roles[1] = domain.EdgeNext, domain.EdgeUnhandled
		for i := 2; i < n; i++ {
			roles[i] = domain.EdgeCatch
		}
	default:
		for i := range roles {
			roles[i] = domain.EdgeNext
		}
	}
	return roles
}

// countEHContexts counts the distinct non-empty handler contexts in use
func countEHContexts(blocks []*ir.Block) int {
	seen := make(map[*ir.EHContext]bool)
	for _, b := range blocks {
		if !b.Kind().HasElements() {
			continue
		}
		for _, e := range b.Elements() {
			if eh := e.EHContext(); e.IsThrowing() && eh != nil && !eh.IsEmpty() {
				seen[eh] = true
			}
		}
	}
	return len(seen)
}
