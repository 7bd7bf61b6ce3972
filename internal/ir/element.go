package ir

import (
	"fmt"

	"github.com/ludo-technologies/bcfg/internal/expr"
)

// Element is one instruction-like unit of a block. The set of concrete
// element types is closed; Kind identifies which one an Element is.
type Element interface {
	Kind() ElementKind
	// Block returns the owning block, or nil before insertion.
	Block() *Block
	// IsTerminal reports whether the element must end its block.
	IsTerminal() bool
	// IsThrowing reports whether the element may raise and therefore
	// carries an exception-handling context.
	IsThrowing() bool
	// EHContext returns the handlers of a throwing element, nil otherwise.
	EHContext() *EHContext
	// Exprs returns the expressions held directly by the element.
	Exprs() []expr.Expr
	String() string

	base() *elementBase
}

type elementBase struct {
	block *Block
	eh    *EHContext
}

func (e *elementBase) Block() *Block { return e.block }
func (e *elementBase) EHContext() *EHContext { return e.eh }
func (e *elementBase) base() *elementBase { return e }

// SetEHContext replaces the handlers of a throwing element. The owning
// block must call ResetCatchBlocks afterwards.
func SetEHContext(e Element, eh *EHContext) {
	if !e.IsThrowing() {
		assertf("SetEHContext", "%s element does not throw", e.Kind())
	}
	if eh == nil {
		eh = EmptyEHContext
	}
	e.base().eh = eh
}

func throwingBase(eh *EHContext) elementBase {
	if eh == nil {
		eh = EmptyEHContext
	}
	return elementBase{eh: eh}
}

// Goto transfers control to the primary successor.
type Goto struct {
	elementBase
}

// NewGoto returns a goto element.
func NewGoto() *Goto { return &Goto{} }

func (*Goto) Kind() ElementKind { return ElemGoto }
func (*Goto) IsTerminal() bool { return true }
func (*Goto) IsThrowing() bool { return false }
func (*Goto) Exprs() []expr.Expr { return nil }
func (*Goto) String() string { return "goto" }

// ConditionalTest branches on Cond.
type ConditionalTest struct {
	elementBase
	Cond expr.Expr
}

// NewConditionalTest returns a conditional test element.
func NewConditionalTest(cond expr.Expr) *ConditionalTest {
	return &ConditionalTest{Cond: cond}
}

func (*ConditionalTest) Kind() ElementKind { return ElemConditionalTest }
func (*ConditionalTest) IsTerminal() bool { return true }
func (*ConditionalTest) IsThrowing() bool { return false }
func (c *ConditionalTest) Exprs() []expr.Expr { return []expr.Expr{c.Cond} }
func (c *ConditionalTest) String() string { return "if " + c.Cond.String() }

// SwitchTest dispatches on Value.
type SwitchTest struct {
	elementBase
	Value expr.Expr
}

// NewSwitchTest returns a switch test element.
func NewSwitchTest(v expr.Expr) *SwitchTest {
	return &SwitchTest{Value: v}
}

func (*SwitchTest) Kind() ElementKind { return ElemSwitchTest }
func (*SwitchTest) IsTerminal() bool { return true }
func (*SwitchTest) IsThrowing() bool { return false }
func (s *SwitchTest) Exprs() []expr.Expr { return []expr.Expr{s.Value} }
func (s *SwitchTest) String() string { return "switch " + s.Value.String() }

// CaseLabel labels a case block. A nil Value is the default label.
type CaseLabel struct {
	elementBase
	Value *expr.Literal
}

// NewCaseLabel returns a case label element.
func NewCaseLabel(v *expr.Literal) *CaseLabel {
	return &CaseLabel{Value: v}
}

// IsDefault reports whether this is the default label.
func (c *CaseLabel) IsDefault() bool { return c.Value == nil }

func (*CaseLabel) Kind() ElementKind { return ElemCaseLabel }
func (*CaseLabel) IsTerminal() bool { return true }
func (*CaseLabel) IsThrowing() bool { return false }
func (c *CaseLabel) Exprs() []expr.Expr {
	if c.Value == nil {
		return nil
	}
	return []expr.Expr{c.Value}
}
func (c *CaseLabel) String() string {
	if c.Value == nil {
		return "default:"
	}
	return "case " + c.Value.String() + ":"
}

// MethodCall evaluates a call for its side effects.
type MethodCall struct {
	elementBase
	Call *expr.MethodCall
}

// NewMethodCall returns a call element handled by eh.
func NewMethodCall(call *expr.MethodCall, eh *EHContext) *MethodCall {
	if call.Polymorphic {
		assertf("NewMethodCall", "polymorphic call %s needs NewPolymorphicCall", call)
	}
	return &MethodCall{elementBase: throwingBase(eh), Call: call}
}

func (*MethodCall) Kind() ElementKind { return ElemMethodCall }
func (*MethodCall) IsTerminal() bool { return true }
func (*MethodCall) IsThrowing() bool { return true }
func (m *MethodCall) Exprs() []expr.Expr { return []expr.Expr{m.Call} }
func (m *MethodCall) String() string { return m.Call.String() }

// PolymorphicCall evaluates a signature-polymorphic call.
type PolymorphicCall struct {
	elementBase
	Call *expr.MethodCall
}

// NewPolymorphicCall returns a polymorphic call element handled by eh.
func NewPolymorphicCall(call *expr.MethodCall, eh *EHContext) *PolymorphicCall {
	return &PolymorphicCall{elementBase: throwingBase(eh), Call: call}
}

func (*PolymorphicCall) Kind() ElementKind { return ElemPolymorphicCall }
func (*PolymorphicCall) IsTerminal() bool { return true }
func (*PolymorphicCall) IsThrowing() bool { return true }
func (p *PolymorphicCall) Exprs() []expr.Expr { return []expr.Expr{p.Call} }
func (p *PolymorphicCall) String() string { return "polymorphic " + p.Call.String() }

// Store writes to a field or an array slot.
type Store struct {
	elementBase
	Assign *expr.Assign
}

// NewStore returns a store element handled by eh.
func NewStore(a *expr.Assign, eh *EHContext) *Store {
	if a.IsVariableAssign() {
		assertf("NewStore", "%s assigns a variable", a)
	}
	return &Store{elementBase: throwingBase(eh), Assign: a}
}

func (*Store) Kind() ElementKind { return ElemStore }
func (*Store) IsTerminal() bool { return true }
func (*Store) IsThrowing() bool { return true }
func (s *Store) Exprs() []expr.Expr { return []expr.Expr{s.Assign} }
func (s *Store) String() string { return s.Assign.String() }

// VariableAssign writes to a local, a parameter or this. It throws, and
// is then terminal, when its value may throw.
type VariableAssign struct {
	elementBase
	Assign   *expr.Assign
	throwing bool
}

// NewVariableAssign returns an assignment element. eh is only kept when
// the value may throw.
func NewVariableAssign(a *expr.Assign, eh *EHContext) *VariableAssign {
	if !a.IsVariableAssign() {
		assertf("NewVariableAssign", "%s does not assign a variable", a)
	}
	va := &VariableAssign{Assign: a, throwing: expr.MayThrow(a.RHS)}
	if va.throwing {
		va.elementBase = throwingBase(eh)
	}
	return va
}

// Variable returns the assigned variable.
func (v *VariableAssign) Variable() *expr.Variable {
	return v.Assign.LHS.(*expr.VarRef).Var
}

func (*VariableAssign) Kind() ElementKind { return ElemVariableAssign }
func (v *VariableAssign) IsTerminal() bool { return v.throwing }
func (v *VariableAssign) IsThrowing() bool { return v.throwing }
func (v *VariableAssign) Exprs() []expr.Expr { return []expr.Expr{v.Assign} }
func (v *VariableAssign) String() string { return v.Assign.String() }

// Return leaves the method with an optional Value.
type Return struct {
	elementBase
	Value expr.Expr
}

// NewReturn returns a return element; v may be nil.
func NewReturn(v expr.Expr) *Return {
	return &Return{Value: v}
}

func (*Return) Kind() ElementKind { return ElemReturn }
func (*Return) IsTerminal() bool { return true }
func (*Return) IsThrowing() bool { return false }
func (r *Return) Exprs() []expr.Expr {
	if r.Value == nil {
		return nil
	}
	return []expr.Expr{r.Value}
}
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// Throw raises Value.
type Throw struct {
	elementBase
	Value expr.Expr
}

// NewThrow returns a throw element handled by eh.
func NewThrow(v expr.Expr, eh *EHContext) *Throw {
	return &Throw{elementBase: throwingBase(eh), Value: v}
}

func (*Throw) Kind() ElementKind { return ElemThrow }
func (*Throw) IsTerminal() bool { return true }
func (*Throw) IsThrowing() bool { return true }
func (t *Throw) Exprs() []expr.Expr { return []expr.Expr{t.Value} }
func (t *Throw) String() string { return "throw " + t.Value.String() }

// Lock enters the monitor of Monitor.
type Lock struct {
	elementBase
	Monitor expr.Expr
}

// NewLock returns a lock element handled by eh.
func NewLock(m expr.Expr, eh *EHContext) *Lock {
	return &Lock{elementBase: throwingBase(eh), Monitor: m}
}

func (*Lock) Kind() ElementKind { return ElemLock }
func (*Lock) IsTerminal() bool { return true }
func (*Lock) IsThrowing() bool { return true }
func (l *Lock) Exprs() []expr.Expr { return []expr.Expr{l.Monitor} }
func (l *Lock) String() string { return "lock " + l.Monitor.String() }

// Unlock exits the monitor of Monitor.
type Unlock struct {
	elementBase
	Monitor expr.Expr
}

// NewUnlock returns an unlock element handled by eh.
func NewUnlock(m expr.Expr, eh *EHContext) *Unlock {
	return &Unlock{elementBase: throwingBase(eh), Monitor: m}
}

func (*Unlock) Kind() ElementKind { return ElemUnlock }
func (*Unlock) IsTerminal() bool { return true }
func (*Unlock) IsThrowing() bool { return true }
func (u *Unlock) Exprs() []expr.Expr { return []expr.Expr{u.Monitor} }
func (u *Unlock) String() string { return "unlock " + u.Monitor.String() }

// ElementString renders e prefixed by its kind, for diagnostics.
func ElementString(e Element) string {
	return fmt.Sprintf("[%s] %s", e.Kind(), e)
}
