package ir

import (
	"github.com/ludo-technologies/bcfg/internal/expr"
	"github.com/ludo-technologies/bcfg/internal/types"
)

var testX = expr.NewVariable("x", types.Int, expr.VarLocal)

func call(name string) *expr.MethodCall {
	return &expr.MethodCall{
		Method: &expr.MethodID{Owner: "Foo", Name: name, Descriptor: "()V"},
	}
}

// assignX returns a non-throwing "x = v" element.
func assignX(v int64) *VariableAssign {
	return NewVariableAssign(&expr.Assign{LHS: expr.Ref(testX), RHS: expr.IntLit(v)}, nil)
}

// spliceEntry makes b the first block after Entry.
func spliceEntry(g *Graph, b *Block) {
	g.Entry().ReplaceAllSuccessors(g.Exit(), b)
}

// simpleChain builds Entry -> simple(elems..., goto) -> Exit and returns
// the simple block.
func simpleChain(elems ...Element) (*Graph, *Block) {
	g := NewGraph("Foo.chain")
	b := g.NewSimpleBlock(g.Exit())
	for _, e := range elems {
		b.AppendElement(e)
	}
	b.AppendElement(NewGoto())
	spliceEntry(g, b)
	return g, b
}

func ids(bs []*Block) []BlockID {
	out := make([]BlockID, len(bs))
	for i, b := range bs {
		out[i] = b.ID()
	}
	return out
}

func predIDs(b *Block) []BlockID {
	return ids(b.PredecessorsSnapshot())
}

func recoverPanic(f func()) (r any) {
	defer func() { r = recover() }()
	f()
	return nil
}
