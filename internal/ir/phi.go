package ir

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/bcfg/internal/expr"
)

// Unversioned marks a phi operand that renaming has not resolved yet.
const Unversioned = -1

// PhiOperand is one SSA use or definition of a variable.
type PhiOperand struct {
	Var     *expr.Variable
	Version int
}

// IsResolved reports whether renaming assigned a version.
func (o *PhiOperand) IsResolved() bool { return o.Version != Unversioned }

func (o *PhiOperand) String() string {
	if !o.IsResolved() {
		return o.Var.Name + "_?"
	}
	return fmt.Sprintf("%s_%d", o.Var.Name, o.Version)
}

// Phi merges one value per predecessor into Result at a join point.
// Operands are keyed by predecessor block.
type Phi struct {
	elementBase
	Var    *expr.Variable
	Result *PhiOperand

	operands map[BlockID]*PhiOperand
	order    []BlockID
}

// NewPhi returns a phi for v with one unresolved operand per distinct
// predecessor in preds.
func NewPhi(v *expr.Variable, preds []*Block) *Phi {
	p := &Phi{
		Var:      v,
		Result:   &PhiOperand{Var: v, Version: Unversioned},
		operands: make(map[BlockID]*PhiOperand, len(preds)),
	}
	for _, pred := range preds {
		p.AddOperand(pred)
	}
	return p
}

// InsertPhi creates a phi for v covering the current predecessors of b and
// inserts it at the front of b.
func InsertPhi(b *Block, v *expr.Variable) *Phi {
	p := NewPhi(v, b.PredecessorsSnapshot())
	b.InsertElement(0, p)
	return p
}

// AddOperand adds an unresolved operand for pred unless one exists.
func (p *Phi) AddOperand(pred *Block) *PhiOperand {
	if op, ok := p.operands[pred.ID()]; ok {
		return op
	}
	op := &PhiOperand{Var: p.Var, Version: Unversioned}
	p.operands[pred.ID()] = op
	p.order = append(p.order, pred.ID())
	return op
}

// Operand returns the operand flowing in from pred, or nil.
func (p *Phi) Operand(pred *Block) *PhiOperand {
	return p.operands[pred.ID()]
}

// RemoveOperand drops the operand of pred.
func (p *Phi) RemoveOperand(pred *Block) {
	id := pred.ID()
	if _, ok := p.operands[id]; !ok {
		return
	}
	delete(p.operands, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Predecessors returns the operand keys in insertion order.
func (p *Phi) Predecessors() []BlockID {
	return append([]BlockID(nil), p.order...)
}

// NumOperands returns the number of operands.
func (p *Phi) NumOperands() int { return len(p.order) }

func (*Phi) Kind() ElementKind { return ElemPhi }
func (*Phi) IsTerminal() bool { return false }
func (*Phi) IsThrowing() bool { return false }
func (p *Phi) Exprs() []expr.Expr { return nil }

func (p *Phi) String() string {
	parts := make([]string, len(p.order))
	for i, id := range p.order {
		parts[i] = fmt.Sprintf("%s: %s", id, p.operands[id])
	}
	return fmt.Sprintf("%s = phi(%s)", p.Result, strings.Join(parts, ", "))
}
