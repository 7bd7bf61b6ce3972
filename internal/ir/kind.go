package ir

import "fmt"

// BlockID identifies a block inside the arena of its Graph.
type BlockID int

// NoBlock is the zero value of an unset successor field.
const NoBlock BlockID = -1

func (id BlockID) String() string {
	if id == NoBlock {
		return "b?"
	}
	return fmt.Sprintf("b%d", int(id))
}

// BlockKind is the control-flow shape of a block.
type BlockKind int

const (
	KindEntry BlockKind = iota
	KindExit
	KindSimple
	KindConditional
	KindSwitch
	KindCase
	KindCatch
	KindReturn
	KindThrow
	KindThrowingExpression
	KindPlaceholder
)

var blockKindNames = [...]string{
	KindEntry:              "entry",
	KindExit:               "exit",
	KindSimple:             "simple",
	KindConditional:        "conditional",
	KindSwitch:             "switch",
	KindCase:               "case",
	KindCatch:              "catch",
	KindReturn:             "return",
	KindThrow:              "throw",
	KindThrowingExpression: "throwing-expression",
	KindPlaceholder:        "placeholder",
}

func (k BlockKind) String() string {
	if int(k) >= 0 && int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// HasElements reports whether blocks of this kind carry an element list.
func (k BlockKind) HasElements() bool {
	switch k {
	case KindEntry, KindExit, KindPlaceholder:
		return false
	case KindSimple, KindConditional, KindSwitch, KindCase, KindCatch,
		KindReturn, KindThrow, KindThrowingExpression:
		return true
	}
	panic(fmt.Sprintf("ir: unexpected block kind %d", int(k)))
}

// IsThrowing reports whether blocks of this kind carry exception edges.
func (k BlockKind) IsThrowing() bool {
	return k == KindThrow || k == KindThrowingExpression
}

// ElementKind tags the concrete type of an Element.
type ElementKind int

const (
	ElemGoto ElementKind = iota
	ElemConditionalTest
	ElemSwitchTest
	ElemCaseLabel
	ElemMethodCall
	ElemPolymorphicCall
	ElemStore
	ElemVariableAssign
	ElemReturn
	ElemThrow
	ElemLock
	ElemUnlock
	ElemPhi
)

var elementKindNames = [...]string{
	ElemGoto:            "goto",
	ElemConditionalTest: "if",
	ElemSwitchTest:      "switch",
	ElemCaseLabel:       "case",
	ElemMethodCall:      "call",
	ElemPolymorphicCall: "polymorphic-call",
	ElemStore:           "store",
	ElemVariableAssign:  "assign",
	ElemReturn:          "return",
	ElemThrow:           "throw",
	ElemLock:            "lock",
	ElemUnlock:          "unlock",
	ElemPhi:             "phi",
}

func (k ElementKind) String() string {
	if int(k) >= 0 && int(k) < len(elementKindNames) {
		return elementKindNames[k]
	}
	return "unknown"
}
