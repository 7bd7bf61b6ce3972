// Package legacy models the tree-shaped control-flow representation that
// front ends produce before basic blocks exist. The IR builder only reads
// it: successor lists and statement lists are exposed as copies.
package legacy

import (
	"fmt"

	"github.com/ludo-technologies/bcfg/internal/expr"
	"github.com/ludo-technologies/bcfg/internal/types"
)

// BlockKind is the control-flow shape of a legacy block.
type BlockKind int

const (
	KindEntry BlockKind = iota
	KindExit
	KindNormal      // Succs[0] = target, ends with an optional goto
	KindConditional // Succs[0] = then, Succs[1] = else, ends with an if
	KindSwitch      // Succs[0] = default, Succs[1:] = case blocks, ends with a switch
	KindCase        // Succs[0] = target, holds exactly one case statement
	KindPei         // potentially excepting: Succs[0] = next (unless it throws), rest = catch blocks
	KindCatch       // Succs[0] = target
	KindReturn      // Succs[0] = exit, ends with a return
)

var blockKindNames = [...]string{
	KindEntry:       "entry",
	KindExit:        "exit",
	KindNormal:      "normal",
	KindConditional: "conditional",
	KindSwitch:      "switch",
	KindCase:        "case",
	KindPei:         "pei",
	KindCatch:       "catch",
	KindReturn:      "return",
}

func (k BlockKind) String() string {
	if int(k) >= 0 && int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// ParseBlockKind maps a fixture spelling to its kind.
func ParseBlockKind(s string) (BlockKind, bool) {
	for i, n := range blockKindNames {
		if n == s {
			return BlockKind(i), true
		}
	}
	return 0, false
}

// Block is one node of the legacy graph.
type Block struct {
	Name string
	Kind BlockKind

	succs  []*Block
	stmts  []Stmt
	caught []types.Type

	// elseFallThrough marks a conditional whose else branch is the
	// natural fall-through successor.
	elseFallThrough bool
}

// Successors returns a copy of the ordered successor list.
func (b *Block) Successors() []*Block {
	return append([]*Block(nil), b.succs...)
}

// Statements returns a copy of the ordered statement list.
func (b *Block) Statements() []Stmt {
	return append([]Stmt(nil), b.stmts...)
}

// CaughtTypes returns the exception types a catch block handles.
func (b *Block) CaughtTypes() []types.Type {
	return append([]types.Type(nil), b.caught...)
}

// ElseFallThrough reports the conditional fall-through marker.
func (b *Block) ElseFallThrough() bool { return b.elseFallThrough }

// AddSuccessor appends s to the successor list.
func (b *Block) AddSuccessor(s *Block) *Block {
	b.succs = append(b.succs, s)
	return b
}

// AddStmt appends a statement.
func (b *Block) AddStmt(s Stmt) *Block {
	b.stmts = append(b.stmts, s)
	return b
}

// SetCaught records the caught types of a catch block.
func (b *Block) SetCaught(ts ...types.Type) *Block {
	b.caught = ts
	return b
}

// SetElseFallThrough sets the conditional fall-through marker.
func (b *Block) SetElseFallThrough(v bool) *Block {
	b.elseFallThrough = v
	return b
}

func (b *Block) String() string {
	return fmt.Sprintf("%s(%s)", b.Name, b.Kind)
}

// Method is the legacy graph of one method body.
type Method struct {
	Class  string
	Name   string
	Params []*expr.Variable
	Locals []*expr.Variable
	This   *expr.Variable

	Entry  *Block
	Exit   *Block
	Blocks []*Block
}

// NewMethod returns a method whose entry has no successor yet.
func NewMethod(class, name string) *Method {
	m := &Method{Class: class, Name: name}
	m.Entry = &Block{Name: "entry", Kind: KindEntry}
	m.Exit = &Block{Name: "exit", Kind: KindExit}
	return m
}

// QualifiedName returns Class.Name.
func (m *Method) QualifiedName() string {
	if m.Class == "" {
		return m.Name
	}
	return m.Class + "." + m.Name
}

// NewBlock creates a block owned by m.
func (m *Method) NewBlock(name string, kind BlockKind) *Block {
	b := &Block{Name: name, Kind: kind}
	m.Blocks = append(m.Blocks, b)
	return b
}

// Start returns the first real block, or the exit for an empty body.
func (m *Method) Start() *Block {
	if len(m.Entry.succs) == 0 {
		return m.Exit
	}
	return m.Entry.succs[0]
}

// Stmt is a legacy statement.
type Stmt interface {
	String() string
	stmt()
}

// GotoStmt transfers control to the single successor.
type GotoStmt struct{}

// IfStmt branches on Cond.
type IfStmt struct {
	Cond expr.Expr
}

// SwitchStmt dispatches on Value.
type SwitchStmt struct {
	Value expr.Expr
}

// CaseStmt labels a switch case. A nil Value is the default label.
type CaseStmt struct {
	Value *expr.Literal
}

// ReturnStmt leaves the method, with an optional Value.
type ReturnStmt struct {
	Value expr.Expr
}

// ThrowStmt raises Value.
type ThrowStmt struct {
	Value expr.Expr
}

// ExprStmt evaluates a call or an assignment for its effect.
type ExprStmt struct {
	X expr.Expr
}

// LockStmt enters the monitor of Monitor.
type LockStmt struct {
	Monitor expr.Expr
}

// UnlockStmt exits the monitor of Monitor.
type UnlockStmt struct {
	Monitor expr.Expr
}

func (*GotoStmt) stmt() {}
func (*IfStmt) stmt() {}
func (*SwitchStmt) stmt() {}
func (*CaseStmt) stmt() {}
func (*ReturnStmt) stmt() {}
func (*ThrowStmt) stmt() {}
func (*ExprStmt) stmt() {}
func (*LockStmt) stmt() {}
func (*UnlockStmt) stmt() {}

func (*GotoStmt) String() string { return "goto" }
func (s *IfStmt) String() string { return "if " + s.Cond.String() }
func (s *SwitchStmt) String() string { return "switch " + s.Value.String() }
func (s *CaseStmt) String() string {
	if s.Value == nil {
		return "default:"
	}
	return "case " + s.Value.String() + ":"
}
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}
func (s *ThrowStmt) String() string { return "throw " + s.Value.String() }
func (s *ExprStmt) String() string { return s.X.String() }
func (s *LockStmt) String() string { return "lock " + s.Monitor.String() }
func (s *UnlockStmt) String() string { return "unlock " + s.Monitor.String() }
