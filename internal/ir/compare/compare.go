// Package compare decides whether two blocks hold structurally identical
// code, for checking that a rewrite left a block's meaning unchanged.
package compare

import (
	"fmt"
	"reflect"

	"github.com/ludo-technologies/bcfg/internal/expr"
	"github.com/ludo-technologies/bcfg/internal/ir"
	"github.com/ludo-technologies/bcfg/internal/types"
)

// Node is one entry of a linearized block: exactly one field is set.
type Node struct {
	Element ir.Element
	Expr    expr.Expr
}

func (n Node) String() string {
	if n.Element != nil {
		return ir.ElementString(n.Element)
	}
	if n.Expr == nil {
		return "<none>"
	}
	return fmt.Sprintf("[%T] %s", n.Expr, n.Expr)
}

func (n Node) value() any {
	if n.Element != nil {
		return n.Element
	}
	return n.Expr
}

// Mismatch is the first pair of nodes that differ.
type Mismatch struct {
	Index  int
	Left   Node
	Right  Node
	Reason string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("node %d: %s: %s vs %s", m.Index, m.Reason, m.Left, m.Right)
}

// Equal reports whether a and b hold the same elements and expressions.
// Variables compare by identity and types through sys.
func Equal(a, b *ir.Block, sys types.System) bool {
	return Diff(a, b, sys) == nil
}

// Diff returns the first difference between a and b, or nil if Equal.
func Diff(a, b *ir.Block, sys types.System) *Mismatch {
	left, right := Linearize(a), Linearize(b)
	if len(left) != len(right) {
		m := &Mismatch{Index: min(len(left), len(right)), Reason: fmt.Sprintf("%d nodes vs %d", len(left), len(right))}
		if m.Index < len(left) {
			m.Left = left[m.Index]
		}
		if m.Index < len(right) {
			m.Right = right[m.Index]
		}
		return m
	}

	c := comparer{sys: sys}
	for i := range left {
		if reason := c.node(left[i], right[i]); reason != "" {
			return &Mismatch{Index: i, Left: left[i], Right: right[i], Reason: reason}
		}
	}
	return nil
}

// Linearize lists the expressions of every element of b in post-order,
// each element following its own expressions.
func Linearize(b *ir.Block) []Node {
	if !b.Kind().HasElements() {
		return nil
	}
	var out []Node
	for _, e := range b.Elements() {
		for _, x := range e.Exprs() {
			expr.Walk(x, func(x expr.Expr) {
				out = append(out, Node{Expr: x})
			})
		}
		out = append(out, Node{Element: e})
	}
	return out
}

type comparer struct {
	sys types.System
}

func (c comparer) node(a, b Node) string {
	if reflect.TypeOf(a.value()) != reflect.TypeOf(b.value()) {
		return "different node types"
	}
	if a.Element != nil {
		return c.element(a.Element, b.Element)
	}
	if len(a.Expr.Children()) != len(b.Expr.Children()) {
		return "different operand counts"
	}
	if !c.sys.SameType(a.Expr.Type(), b.Expr.Type()) {
		return "different types"
	}
	return c.expr(a.Expr, b.Expr)
}

func (c comparer) element(a, b ir.Element) string {
	if a.IsThrowing() != b.IsThrowing() {
		return "throwing differs"
	}
	if a.IsThrowing() && a.EHContext().Len() != b.EHContext().Len() {
		return "handler count differs"
	}

	switch x := a.(type) {
	case *ir.Goto, *ir.ConditionalTest, *ir.SwitchTest, *ir.MethodCall,
		*ir.PolymorphicCall, *ir.Store, *ir.VariableAssign, *ir.Throw,
		*ir.Lock, *ir.Unlock:
		return ""
	case *ir.CaseLabel:
		if x.IsDefault() != b.(*ir.CaseLabel).IsDefault() {
			return "default label differs"
		}
	case *ir.Return:
		if (x.Value == nil) != (b.(*ir.Return).Value == nil) {
			return "return value differs"
		}
	case *ir.Phi:
		y := b.(*ir.Phi)
		if x.Var != y.Var {
			return "phi variable differs"
		}
		if x.NumOperands() != y.NumOperands() {
			return "phi operand count differs"
		}
	default:
		panic(fmt.Sprintf("compare: unexpected element %T", a))
	}
	return ""
}

func (c comparer) expr(a, b expr.Expr) string {
	switch x := a.(type) {
	case *expr.Literal:
		if x.Value != b.(*expr.Literal).Value {
			return "literal value differs"
		}
	case *expr.VarRef:
		if x.Var != b.(*expr.VarRef).Var {
			return "variable differs"
		}
	case *expr.BinaryOp:
		if x.Op != b.(*expr.BinaryOp).Op {
			return "operator differs"
		}
	case *expr.UnaryOp:
		if x.Op != b.(*expr.UnaryOp).Op {
			return "operator differs"
		}
	case *expr.FieldRef:
		y := b.(*expr.FieldRef)
		if !sameField(x.Field, y.Field) {
			return "field differs"
		}
		if (x.Instance == nil) != (y.Instance == nil) {
			return "static and instance field"
		}
	case *expr.MethodCall:
		y := b.(*expr.MethodCall)
		if !sameMethod(x.Method, y.Method) {
			return "method differs"
		}
		if x.Polymorphic != y.Polymorphic {
			return "call kind differs"
		}
		if (x.Instance == nil) != (y.Instance == nil) {
			return "static and instance call"
		}
	case *expr.New:
		if !c.sys.SameType(x.Class, b.(*expr.New).Class) {
			return "allocated class differs"
		}
	case *expr.Cast:
		if !c.sys.SameType(x.Target, b.(*expr.Cast).Target) {
			return "cast target differs"
		}
	case *expr.ArrayRef, *expr.Assign, *expr.CaughtException:
	default:
		panic(fmt.Sprintf("compare: unexpected expression %T", a))
	}
	return ""
}

func sameField(a, b *expr.FieldID) bool {
	return a == b || (a.Owner == b.Owner && a.Name == b.Name)
}

func sameMethod(a, b *expr.MethodID) bool {
	return a == b || (a.Owner == b.Owner && a.Name == b.Name && a.Descriptor == b.Descriptor)
}
