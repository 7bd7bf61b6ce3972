package ir

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ludo-technologies/bcfg/internal/types"
)

// Block is a basic block. Its successor fields depend on Kind; they are
// stored as arena ids of the owning Graph so every edge role stays
// explicit:
//
//	entry                next
//	simple, case, catch  primary
//	return               primary (conventionally the exit)
//	conditional          ifTrue, ifFalse (primary is ifTrue unless inverted)
//	switch               primary (default), cases
//	throw                unhandled, catches
//	throwing-expression  primary, unhandled, catches
//	exit, placeholder    none
type Block struct {
	id    BlockID
	kind  BlockKind
	graph *Graph

	elements []Element
	preds    []BlockID

	primary   BlockID
	ifFalse   BlockID
	inverted  bool
	cases     []BlockID
	unhandled BlockID
	catches   []BlockID

	caught []types.Type
}

// ID returns the arena id of the block.
func (b *Block) ID() BlockID { return b.id }

// Kind returns the variant of the block.
func (b *Block) Kind() BlockKind { return b.kind }

// Graph returns the owning graph.
func (b *Block) Graph() *Graph { return b.graph }

func (b *Block) String() string {
	return fmt.Sprintf("%s:%s", b.id, b.kind)
}

func (b *Block) get(id BlockID) *Block {
	if id == NoBlock {
		return nil
	}
	return b.graph.Block(id)
}

// Successors returns the successors in role order, one entry per edge.
func (b *Block) Successors() []*Block {
	ids := b.successorIDs()
	out := make([]*Block, len(ids))
	for i, id := range ids {
		out[i] = b.get(id)
	}
	return out
}

func (b *Block) successorIDs() []BlockID {
	switch b.kind {
	case KindExit, KindPlaceholder:
		return nil
	case KindEntry, KindSimple, KindCase, KindCatch, KindReturn:
		return []BlockID{b.primary}
	case KindConditional:
		return []BlockID{b.primary, b.ifFalse}
	case KindSwitch:
		return append([]BlockID{b.primary}, b.cases...)
	case KindThrow:
		return append([]BlockID{b.unhandled}, b.catches...)
	case KindThrowingExpression:
		return append([]BlockID{b.primary, b.unhandled}, b.catches...)
	}
	panic(fmt.Sprintf("ir: unexpected block kind %d", int(b.kind)))
}

// Predecessors yields the predecessors, one entry per incoming edge. The
// graph must not be mutated while iterating; use PredecessorsSnapshot
// for that.
func (b *Block) Predecessors() iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		for _, id := range b.preds {
			if !yield(b.get(id)) {
				return
			}
		}
	}
}

// PredecessorsSnapshot returns a copy of the predecessor list.
func (b *Block) PredecessorsSnapshot() []*Block {
	out := make([]*Block, len(b.preds))
	for i, id := range b.preds {
		out[i] = b.get(id)
	}
	return out
}

// NumPredecessors returns the number of incoming edges.
func (b *Block) NumPredecessors() int { return len(b.preds) }

// distinctPredecessors returns each predecessor once, in first-edge order.
func (b *Block) distinctPredecessors() []*Block {
	seen := make(map[BlockID]bool, len(b.preds))
	out := make([]*Block, 0, len(b.preds))
	for _, id := range b.preds {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, b.get(id))
	}
	return out
}

func (b *Block) addPred(p *Block) {
	b.preds = append(b.preds, p.id)
}

func (b *Block) removePred(p *Block) {
	i := slices.Index(b.preds, p.id)
	if i < 0 {
		panic(structural(b, RuleEdgeSymmetry, "%s is not a predecessor", p.id))
	}
	b.preds = slices.Delete(b.preds, i, i+1)
}

// link sets a successor field and registers the predecessor edge.
func (b *Block) link(field *BlockID, to *Block) {
	*field = to.id
	to.addPred(b)
}

// PrimarySuccessor returns the fall-through successor, or nil for kinds
// that have none.
func (b *Block) PrimarySuccessor() *Block {
	switch b.kind {
	case KindExit, KindPlaceholder, KindThrow:
		return nil
	case KindConditional:
		if b.inverted {
			return b.get(b.ifFalse)
		}
		return b.get(b.primary)
	case KindEntry, KindSimple, KindCase, KindCatch, KindReturn, KindSwitch, KindThrowingExpression:
		return b.get(b.primary)
	}
	panic(fmt.Sprintf("ir: unexpected block kind %d", int(b.kind)))
}

// IfTrue returns the taken branch of a conditional block.
func (b *Block) IfTrue() *Block {
	b.mustBe("IfTrue", KindConditional)
	return b.get(b.primary)
}

// IfFalse returns the not-taken branch of a conditional block.
func (b *Block) IfFalse() *Block {
	b.mustBe("IfFalse", KindConditional)
	return b.get(b.ifFalse)
}

// IsInverted reports whether the if-false branch is the primary one.
func (b *Block) IsInverted() bool {
	b.mustBe("IsInverted", KindConditional)
	return b.inverted
}

// SetInverted chooses which branch of a conditional is primary.
func (b *Block) SetInverted(v bool) {
	b.mustBe("SetInverted", KindConditional)
	b.inverted = v
}

// DefaultCase returns the default successor of a switch block.
func (b *Block) DefaultCase() *Block {
	b.mustBe("DefaultCase", KindSwitch)
	return b.get(b.primary)
}

// Cases returns the ordered case successors of a switch block.
func (b *Block) Cases() []*Block {
	b.mustBe("Cases", KindSwitch)
	out := make([]*Block, len(b.cases))
	for i, id := range b.cases {
		out[i] = b.get(id)
	}
	return out
}

// AddCase appends a case successor to a switch block.
func (b *Block) AddCase(c *Block) {
	b.mustBe("AddCase", KindSwitch)
	b.cases = append(b.cases, c.id)
	c.addPred(b)
}

// UnhandledBlock returns the unhandled-exception successor of a throwing
// block.
func (b *Block) UnhandledBlock() *Block {
	b.mustBe("UnhandledBlock", KindThrow, KindThrowingExpression)
	return b.get(b.unhandled)
}

// CatchBlocks returns the catch successors of a throwing block.
func (b *Block) CatchBlocks() []*Block {
	b.mustBe("CatchBlocks", KindThrow, KindThrowingExpression)
	out := make([]*Block, len(b.catches))
	for i, id := range b.catches {
		out[i] = b.get(id)
	}
	return out
}

// CaughtTypes returns the exception types handled by a catch block.
func (b *Block) CaughtTypes() []types.Type {
	b.mustBe("CaughtTypes", KindCatch)
	return append([]types.Type(nil), b.caught...)
}

func (b *Block) mustBe(op string, kinds ...BlockKind) {
	if !slices.Contains(kinds, b.kind) {
		assertf(op, "not supported on %s block %s", b.kind, b.id)
	}
}

// Elements returns a copy of the element list.
func (b *Block) Elements() []Element {
	b.mustHaveElements("Elements")
	return append([]Element(nil), b.elements...)
}

// NumElements returns the element count.
func (b *Block) NumElements() int {
	b.mustHaveElements("NumElements")
	return len(b.elements)
}

// Element returns the element at i; negative i counts from the end.
func (b *Block) Element(i int) Element {
	b.mustHaveElements("Element")
	if i < 0 {
		i += len(b.elements)
	}
	return b.elements[i]
}

// LastElement returns the final element, or nil if the block is empty.
func (b *Block) LastElement() Element {
	b.mustHaveElements("LastElement")
	if len(b.elements) == 0 {
		return nil
	}
	return b.elements[len(b.elements)-1]
}

func (b *Block) mustHaveElements(op string) {
	if !b.kind.HasElements() {
		assertf(op, "%s block %s has no elements", b.kind, b.id)
	}
}

func (b *Block) endsWithTerminal() bool {
	return len(b.elements) > 0 && b.elements[len(b.elements)-1].IsTerminal()
}

// AppendElement adds e at the end of the block.
func (b *Block) AppendElement(e Element) {
	if !b.kind.HasElements() {
		panic(structural(b, RuleIllegalOp, "cannot add elements to a %s block", b.kind))
	}
	b.InsertElement(len(b.elements), e)
}

// InsertElement inserts e at position at. A negative at counts from the
// end: -1 inserts before the last element. Inserting after a terminal
// element, or a terminal element anywhere but at the end, panics.
func (b *Block) InsertElement(at int, e Element) {
	if !b.kind.HasElements() {
		panic(structural(b, RuleIllegalOp, "cannot add elements to a %s block", b.kind))
	}
	if e.Block() != nil {
		assertf("InsertElement", "element %s already belongs to %s", e, e.Block().id)
	}
	n := len(b.elements)
	idx := at
	if at < 0 {
		idx = n + at
	}
	if idx < 0 || idx > n {
		panic(structural(b, RuleIllegalOp, "insert position %d out of range for %d elements", at, n))
	}
	if e.IsTerminal() {
		if idx != n || b.endsWithTerminal() {
			panic(structural(b, RuleTerminal, "terminal element %q must be the only terminal and last", e))
		}
	} else if idx == n && b.endsWithTerminal() {
		panic(structural(b, RuleTerminal, "cannot place %q after terminal element", e))
	}
	b.elements = slices.Insert(b.elements, idx, e)
	e.base().block = b
}

// RemoveElement removes a non-terminal element from the block.
func (b *Block) RemoveElement(e Element) {
	b.mustHaveElements("RemoveElement")
	i := slices.Index(b.elements, e)
	if i < 0 {
		assertf("RemoveElement", "element %s is not in %s", e, b.id)
	}
	if e.IsTerminal() {
		panic(structural(b, RuleTerminal, "cannot remove terminal element %q", e))
	}
	b.elements = slices.Delete(b.elements, i, i+1)
	e.base().block = nil
}

// ReplaceAllSuccessors redirects every successor edge to what so it
// targets with instead. Each edge moves one predecessor entry from what to
// with.
func (b *Block) ReplaceAllSuccessors(what, with *Block) {
	if what == with {
		return
	}
	b.replaceSuccessors(what, with, true)
}

func (b *Block) replaceSuccessors(what, with *Block, includeUnhandled bool) {
	swap := func(field *BlockID) {
		if *field != what.id {
			return
		}
		*field = with.id
		what.removePred(b)
		with.addPred(b)
	}
	switch b.kind {
	case KindExit, KindPlaceholder:
	case KindEntry, KindSimple, KindCase, KindCatch, KindReturn:
		swap(&b.primary)
	case KindConditional:
		swap(&b.primary)
		swap(&b.ifFalse)
	case KindSwitch:
		swap(&b.primary)
		for i := range b.cases {
			swap(&b.cases[i])
		}
	case KindThrow, KindThrowingExpression:
		if b.kind == KindThrowingExpression {
			swap(&b.primary)
		}
		if includeUnhandled {
			swap(&b.unhandled)
		}
		for i := range b.catches {
			swap(&b.catches[i])
		}
	default:
		panic(fmt.Sprintf("ir: unexpected block kind %d", int(b.kind)))
	}
}

// DereferenceAllSuccessors points every successor edge back at b itself.
// It is the last step of detaching b from the graph.
func (b *Block) DereferenceAllSuccessors() {
	for _, s := range b.distinctSuccessors() {
		b.ReplaceAllSuccessors(s, b)
	}
}

func (b *Block) distinctSuccessors() []*Block {
	ids := b.successorIDs()
	out := make([]*Block, 0, len(ids))
	for i, id := range ids {
		if id == NoBlock || slices.Contains(ids[:i], id) {
			continue
		}
		out = append(out, b.get(id))
	}
	return out
}

// redirectPredecessors makes every predecessor of b target to instead.
func (b *Block) redirectPredecessors(to *Block) {
	for _, p := range b.distinctPredecessors() {
		p.ReplaceAllSuccessors(b, to)
	}
}

// ResetCatchBlocks recomputes the catch successors of a throwing block
// from the exception-handling context of its last element.
func (b *Block) ResetCatchBlocks() {
	b.mustBe("ResetCatchBlocks", KindThrow, KindThrowingExpression)
	for _, id := range b.catches {
		b.get(id).removePred(b)
	}
	b.catches = b.catches[:0]

	last := b.LastElement()
	if last == nil || !last.IsThrowing() {
		return
	}
	for _, c := range last.EHContext().catches {
		b.catches = append(b.catches, c.id)
		c.addPred(b)
	}
}

// Split moves the elements before at into a new simple block placed in
// front of b and returns it. Every predecessor of b now targets the new
// block. at follows the InsertElement convention and must leave the
// terminal element in b. Splitting the exit block requires at == 0 and
// creates an empty simple block that becomes the only normal path into
// the exit; unhandled-exception edges keep targeting the exit.
func (b *Block) Split(at int) *Block {
	switch b.kind {
	case KindExit:
		if at != 0 {
			panic(structural(b, RuleIllegalOp, "exit block can only be split at 0, got %d", at))
		}
		front := b.graph.NewSimpleBlock(b)
		front.AppendElement(NewGoto())
		for _, p := range b.distinctPredecessors() {
			if p != front {
				p.replaceSuccessors(b, front, false)
			}
		}
		return front
	case KindEntry, KindPlaceholder, KindCase, KindCatch:
		panic(structural(b, RuleIllegalOp, "cannot split a %s block", b.kind))
	case KindSimple, KindConditional, KindSwitch, KindReturn, KindThrow, KindThrowingExpression:
	default:
		panic(fmt.Sprintf("ir: unexpected block kind %d", int(b.kind)))
	}

	n := len(b.elements)
	idx := at
	if at < 0 {
		idx = n + at
	}
	if n == 0 || idx < 0 || idx > n-1 {
		panic(structural(b, RuleIllegalOp, "split position %d out of range for %d elements", at, n))
	}

	front := b.graph.newBlock(KindSimple)
	moved := b.elements[:idx:idx]
	b.elements = append([]Element(nil), b.elements[idx:]...)
	for _, e := range moved {
		front.elements = append(front.elements, e)
		e.base().block = front
	}
	b.redirectPredecessors(front)
	front.link(&front.primary, b)
	front.AppendElement(NewGoto())
	return front
}

// MergeIntoSuccessor moves the elements of a simple block, minus its
// goto, to the front of its primary successor, detaches b and returns the
// successor. The successor must have b as its only predecessor.
func (b *Block) MergeIntoSuccessor() *Block {
	if b.kind != KindSimple {
		panic(structural(b, RuleIllegalOp, "only simple blocks can be merged"))
	}
	succ := b.get(b.primary)
	switch {
	case succ == b:
		panic(structural(b, RuleIllegalOp, "cannot merge a block into itself"))
	case !succ.kind.HasElements() || succ.kind == KindCase:
		panic(structural(b, RuleIllegalOp, "cannot merge into %s block %s", succ.kind, succ.id))
	case len(succ.preds) != 1:
		panic(structural(b, RuleIllegalOp, "successor %s has %d predecessors, want 1", succ.id, len(succ.preds)))
	}
	last := b.LastElement()
	if last == nil || last.Kind() != ElemGoto {
		panic(structural(b, RuleTerminal, "simple block must end with goto"))
	}

	moved := b.elements[:len(b.elements)-1]
	for _, e := range moved {
		e.base().block = succ
	}
	succ.elements = append(append([]Element(nil), moved...), succ.elements...)
	b.elements = []Element{last}

	b.redirectPredecessors(succ)
	b.DereferenceAllSuccessors()
	return succ
}

// Delete detaches a simple block holding only its goto, redirecting its
// predecessors to its successor.
func (b *Block) Delete() {
	if b.kind != KindSimple {
		panic(structural(b, RuleIllegalOp, "only simple blocks can be deleted"))
	}
	succ := b.get(b.primary)
	if succ == b {
		panic(structural(b, RuleIllegalOp, "cannot delete a self loop"))
	}
	if len(b.elements) > 1 {
		panic(structural(b, RuleIllegalOp, "block still holds %d elements", len(b.elements)))
	}
	b.redirectPredecessors(succ)
	b.DereferenceAllSuccessors()
}

// CheckValidity verifies the element and successor invariants of the
// block's kind.
func (b *Block) CheckValidity() error {
	if err := b.checkElements(); err != nil {
		return err
	}
	for _, id := range b.successorIDs() {
		if id == NoBlock || b.graph.Block(id) == nil {
			return structural(b, RuleSuccessors, "successor is unset")
		}
	}

	last := func() Element {
		if len(b.elements) == 0 {
			return nil
		}
		return b.elements[len(b.elements)-1]
	}
	requireLast := func(k ElementKind) error {
		if l := last(); l == nil || l.Kind() != k {
			return structural(b, RuleTerminal, "last element must be %s, got %s", k, describe(l))
		}
		return nil
	}

	switch b.kind {
	case KindEntry:
		if len(b.preds) != 0 {
			return structural(b, RuleEntryShape, "entry has %d predecessors, want 0", len(b.preds))
		}
		return nil
	case KindExit:
		return nil
	case KindPlaceholder:
		return structural(b, RulePlaceholder, "placeholder left in graph")
	case KindSimple:
		return requireLast(ElemGoto)
	case KindCatch:
		if len(b.elements) == 0 {
			return nil
		}
		return requireLast(ElemGoto)
	case KindConditional:
		return requireLast(ElemConditionalTest)
	case KindSwitch:
		return requireLast(ElemSwitchTest)
	case KindReturn:
		return requireLast(ElemReturn)
	case KindCase:
		if len(b.elements) != 1 || b.elements[0].Kind() != ElemCaseLabel {
			return structural(b, RuleTerminal, "case block must hold exactly one case label")
		}
		return nil
	case KindThrow:
		if err := requireLast(ElemThrow); err != nil {
			return err
		}
		return b.checkThrowing(last())
	case KindThrowingExpression:
		l := last()
		if l == nil {
			return structural(b, RuleTerminal, "throwing block is empty")
		}
		switch l.Kind() {
		case ElemGoto, ElemSwitchTest, ElemConditionalTest, ElemCaseLabel, ElemReturn, ElemPhi, ElemThrow:
			return structural(b, RuleTerminal, "%s cannot end a throwing-expression block", l.Kind())
		case ElemVariableAssign:
			if !l.IsThrowing() {
				return structural(b, RuleTerminal, "non-throwing assignment cannot end a throwing block")
			}
		case ElemMethodCall, ElemPolymorphicCall, ElemStore, ElemLock, ElemUnlock:
		default:
			panic(fmt.Sprintf("ir: unexpected element kind %d", int(l.Kind())))
		}
		return b.checkThrowing(l)
	}
	panic(fmt.Sprintf("ir: unexpected block kind %d", int(b.kind)))
}

func (b *Block) checkThrowing(last Element) error {
	if b.unhandled != b.graph.exit {
		return structural(b, RuleUnhandled, "unhandled successor is %s, want exit %s", b.unhandled, b.graph.exit)
	}
	eh := last.EHContext()
	if eh == nil || len(eh.catches) != len(b.catches) {
		return structural(b, RuleCatches, "catch successors out of sync with %s", eh)
	}
	for i, c := range eh.catches {
		if c.id != b.catches[i] {
			return structural(b, RuleCatches, "catch successor %d is %s, context says %s", i, b.catches[i], c.id)
		}
	}
	return nil
}

func (b *Block) checkElements() error {
	if !b.kind.HasElements() {
		return nil
	}
	for i, e := range b.elements {
		if e.Block() != b {
			return structural(b, RuleOwnership, "element %d %q is owned by another block", i, e)
		}
		if e.IsTerminal() && i != len(b.elements)-1 {
			return structural(b, RuleTerminal, "terminal element %q at %d is not last", e, i)
		}
	}
	return nil
}

func describe(e Element) string {
	if e == nil {
		return "nothing"
	}
	return e.Kind().String()
}
