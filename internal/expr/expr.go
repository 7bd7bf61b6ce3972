// Package expr defines the expression trees wrapped by basic block
// elements. The IR only relies on CanThrow, Type and Children; everything
// else exists so the builder and comparator have something concrete to
// work on.
package expr

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/bcfg/internal/types"
)

// Expr is an expression node.
type Expr interface {
	// CanThrow reports whether evaluating this node alone may raise.
	CanThrow() bool
	Type() types.Type
	// Children returns the direct sub-expressions in evaluation order.
	Children() []Expr
	String() string
	expr()
}

// VarKind tells locals, parameters and the receiver apart.
type VarKind int

const (
	VarLocal VarKind = iota
	VarParam
	VarThis
)

// Variable is a method-local storage slot. Variables compare by identity.
type Variable struct {
	Name string
	Typ  types.Type
	Kind VarKind
}

// NewVariable allocates a fresh variable.
func NewVariable(name string, typ types.Type, kind VarKind) *Variable {
	return &Variable{Name: name, Typ: typ, Kind: kind}
}

func (v *Variable) String() string { return v.Name }

// MethodID names a method by owner, name and descriptor.
type MethodID struct {
	Owner      string
	Name       string
	Descriptor string
}

func (m *MethodID) String() string {
	return m.Owner + "." + m.Name + m.Descriptor
}

// FieldID names a field by owner and name.
type FieldID struct {
	Owner string
	Name  string
	Typ   types.Type
}

func (f *FieldID) String() string { return f.Owner + "." + f.Name }

// Literal is a constant. Value holds int64, float64, bool, string or nil.
type Literal struct {
	Value any
	Typ   types.Type
}

// IntLit returns an int literal.
func IntLit(v int64) *Literal { return &Literal{Value: v, Typ: types.Int} }

// BoolLit returns a boolean literal.
func BoolLit(v bool) *Literal { return &Literal{Value: v, Typ: types.Boolean} }

// StringLit returns a string literal.
func StringLit(v string) *Literal { return &Literal{Value: v, Typ: types.String} }

// NullLit returns the null literal.
func NullLit() *Literal { return &Literal{Typ: types.Null} }

func (l *Literal) CanThrow() bool { return false }
func (l *Literal) Type() types.Type { return l.Typ }
func (l *Literal) Children() []Expr { return nil }
func (l *Literal) expr() {}
func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}

// VarRef reads a local, parameter or this.
type VarRef struct {
	Var *Variable
}

// Ref returns a reference to v.
func Ref(v *Variable) *VarRef { return &VarRef{Var: v} }

func (r *VarRef) CanThrow() bool { return false }
func (r *VarRef) Type() types.Type { return r.Var.Typ }
func (r *VarRef) Children() []Expr { return nil }
func (r *VarRef) expr() {}
func (r *VarRef) String() string { return r.Var.Name }

// BinaryOperator is the operator tag of a BinaryOp.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpXor
	OpShl
	OpShr
)

var binaryOperatorNames = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%",
	OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=", OpEq: "==", OpNe: "!=",
	OpAnd: "&&", OpOr: "||", OpBitAnd: "&", OpBitOr: "|", OpXor: "^",
	OpShl: "<<", OpShr: ">>",
}

func (op BinaryOperator) String() string {
	if int(op) >= 0 && int(op) < len(binaryOperatorNames) {
		return binaryOperatorNames[op]
	}
	return "?"
}

// ParseBinaryOperator maps a source spelling back to its operator.
func ParseBinaryOperator(s string) (BinaryOperator, bool) {
	for i, n := range binaryOperatorNames {
		if n == s {
			return BinaryOperator(i), true
		}
	}
	return 0, false
}

// IsComparison reports whether op yields a boolean.
func (op BinaryOperator) IsComparison() bool {
	return op >= OpLt && op <= OpOr
}

// BinaryOp applies Op to LHS and RHS.
type BinaryOp struct {
	Op  BinaryOperator
	LHS Expr
	RHS Expr
}

// Binary builds a binary operation.
func Binary(op BinaryOperator, lhs, rhs Expr) *BinaryOp {
	return &BinaryOp{Op: op, LHS: lhs, RHS: rhs}
}

// CanThrow is true for integral division and remainder.
func (b *BinaryOp) CanThrow() bool {
	if b.Op != OpDiv && b.Op != OpRem {
		return false
	}
	p, ok := b.LHS.Type().(types.Primitive)
	return ok && p != types.Float && p != types.Double
}

func (b *BinaryOp) Type() types.Type {
	if b.Op.IsComparison() {
		return types.Boolean
	}
	return b.LHS.Type()
}

func (b *BinaryOp) Children() []Expr { return []Expr{b.LHS, b.RHS} }
func (b *BinaryOp) expr() {}
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.LHS, b.Op, b.RHS)
}

// UnaryOperator is the operator tag of a UnaryOp.
type UnaryOperator int

const (
	OpNeg UnaryOperator = iota
	OpNot
	OpBitNot
)

func (op UnaryOperator) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	}
	return "?"
}

// UnaryOp applies Op to Operand.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expr
}

func (u *UnaryOp) CanThrow() bool { return false }
func (u *UnaryOp) Type() types.Type { return u.Operand.Type() }
func (u *UnaryOp) Children() []Expr { return []Expr{u.Operand} }
func (u *UnaryOp) expr() {}
func (u *UnaryOp) String() string { return u.Op.String() + u.Operand.String() }

// FieldRef reads Field from Instance, or a static field when Instance is nil.
type FieldRef struct {
	Instance Expr
	Field    *FieldID
}

// CanThrow is true for instance fields (null receiver).
func (f *FieldRef) CanThrow() bool { return f.Instance != nil }
func (f *FieldRef) Type() types.Type { return f.Field.Typ }
func (f *FieldRef) Children() []Expr {
	if f.Instance == nil {
		return nil
	}
	return []Expr{f.Instance}
}
func (f *FieldRef) expr() {}
func (f *FieldRef) String() string {
	if f.Instance == nil {
		return f.Field.String()
	}
	return f.Instance.String() + "." + f.Field.Name
}

// ArrayRef reads Array[Index].
type ArrayRef struct {
	Array Expr
	Index Expr
}

func (a *ArrayRef) CanThrow() bool { return true }
func (a *ArrayRef) Type() types.Type {
	if arr, ok := a.Array.Type().(*types.Array); ok {
		return arr.Elem
	}
	return types.Object
}
func (a *ArrayRef) Children() []Expr { return []Expr{a.Array, a.Index} }
func (a *ArrayRef) expr() {}
func (a *ArrayRef) String() string { return fmt.Sprintf("%s[%s]", a.Array, a.Index) }

// MethodCall invokes Method. Polymorphic marks signature-polymorphic
// invocations that are lowered to their own element kind.
type MethodCall struct {
	Instance    Expr
	Method      *MethodID
	Args        []Expr
	Result      types.Type
	Polymorphic bool
}

func (m *MethodCall) CanThrow() bool { return true }
func (m *MethodCall) Type() types.Type {
	if m.Result == nil {
		return types.Void
	}
	return m.Result
}
func (m *MethodCall) Children() []Expr {
	children := make([]Expr, 0, len(m.Args)+1)
	if m.Instance != nil {
		children = append(children, m.Instance)
	}
	return append(children, m.Args...)
}
func (m *MethodCall) expr() {}
func (m *MethodCall) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.String()
	}
	recv := m.Method.Owner
	if m.Instance != nil {
		recv = m.Instance.String()
	}
	return fmt.Sprintf("%s.%s(%s)", recv, m.Method.Name, strings.Join(args, ", "))
}

// Assign stores RHS into LHS.
type Assign struct {
	LHS Expr
	RHS Expr
}

// CanThrow is true when storing into LHS or evaluating RHS may raise.
func (a *Assign) CanThrow() bool { return a.LHS.CanThrow() || a.RHS.CanThrow() }
func (a *Assign) Type() types.Type { return a.LHS.Type() }
func (a *Assign) Children() []Expr { return []Expr{a.LHS, a.RHS} }
func (a *Assign) expr() {}
func (a *Assign) String() string { return fmt.Sprintf("%s = %s", a.LHS, a.RHS) }

// IsVariableAssign reports whether the destination is a local, a
// parameter or this, as opposed to a field or array slot.
func (a *Assign) IsVariableAssign() bool {
	_, ok := a.LHS.(*VarRef)
	return ok
}

// New allocates an instance of Class.
type New struct {
	Class *types.Class
}

func (n *New) CanThrow() bool { return true }
func (n *New) Type() types.Type { return n.Class }
func (n *New) Children() []Expr { return nil }
func (n *New) expr() {}
func (n *New) String() string { return "new " + n.Class.Name() }

// Cast converts Operand to Target.
type Cast struct {
	Target  types.Type
	Operand Expr
}

// CanThrow is true for reference casts.
func (c *Cast) CanThrow() bool {
	_, prim := c.Target.(types.Primitive)
	return !prim
}
func (c *Cast) Type() types.Type { return c.Target }
func (c *Cast) Children() []Expr { return []Expr{c.Operand} }
func (c *Cast) expr() {}
func (c *Cast) String() string { return fmt.Sprintf("(%s) %s", c.Target, c.Operand) }

// CaughtException is the value delivered to a catch block.
type CaughtException struct {
	Typ types.Type
}

func (c *CaughtException) CanThrow() bool { return false }
func (c *CaughtException) Type() types.Type { return c.Typ }
func (c *CaughtException) Children() []Expr { return nil }
func (c *CaughtException) expr() {}
func (c *CaughtException) String() string { return "<caught " + c.Typ.Name() + ">" }

// MayThrow reports whether e or any of its sub-expressions can throw.
func MayThrow(e Expr) bool {
	if e == nil {
		return false
	}
	if e.CanThrow() {
		return true
	}
	for _, c := range e.Children() {
		if MayThrow(c) {
			return true
		}
	}
	return false
}

// Walk calls fn for every node of e in post-order.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	for _, c := range e.Children() {
		Walk(c, fn)
	}
	fn(e)
}
