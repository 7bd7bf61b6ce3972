// Package types provides the minimal type-system surface the IR needs:
// named types with identity and a "same type" predicate.
package types

import "fmt"

// Type is a type known to the compiler front end.
type Type interface {
	// Name returns the fully qualified, human readable name.
	Name() string
	String() string
}

// Primitive identifies one of the built-in value types.
type Primitive int

const (
	Void Primitive = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

var primitiveNames = [...]string{
	Void:    "void",
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

// Name returns the keyword spelling of the primitive.
func (p Primitive) Name() string {
	if int(p) >= 0 && int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

func (p Primitive) String() string { return p.Name() }

// Class is a reference type declared by name. Two distinct *Class values
// with the same name describe the same type.
type Class struct {
	name  string
	Super *Class
}

// NewClass returns a class type with the given binary name.
func NewClass(name string, super *Class) *Class {
	return &Class{name: name, Super: super}
}

func (c *Class) Name() string { return c.name }
func (c *Class) String() string { return c.name }

// Array is an array type of Elem.
type Array struct {
	Elem Type
}

// NewArray returns the array type of elem.
func NewArray(elem Type) *Array {
	return &Array{Elem: elem}
}

func (a *Array) Name() string { return a.Elem.Name() + "[]" }
func (a *Array) String() string { return a.Name() }

// Null is the type of the null literal.
var Null Type = nullType{}

type nullType struct{}

func (nullType) Name() string { return "null" }
func (nullType) String() string { return "null" }

// Well known classes.
var (
	Object    = NewClass("java.lang.Object", nil)
	String    = NewClass("java.lang.String", Object)
	Throwable = NewClass("java.lang.Throwable", Object)
	Exception = NewClass("java.lang.Exception", Throwable)
)

// System answers type identity questions.
type System interface {
	SameType(a, b Type) bool
}

// DefaultSystem compares types structurally by kind and name.
type DefaultSystem struct{}

// SameType reports whether a and b denote the same type.
func (DefaultSystem) SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case Primitive:
		bt, ok := b.(Primitive)
		return ok && at == bt
	case *Class:
		bt, ok := b.(*Class)
		return ok && at.name == bt.name
	case *Array:
		bt, ok := b.(*Array)
		return ok && (DefaultSystem{}).SameType(at.Elem, bt.Elem)
	case nullType:
		_, ok := b.(nullType)
		return ok
	default:
		panic(fmt.Sprintf("types.SameType: unexpected type %T", a))
	}
}

// Lookup resolves a type by its source spelling. Unknown names become
// classes; a trailing "[]" builds an array type.
func Lookup(name string) Type {
	if len(name) > 2 && name[len(name)-2:] == "[]" {
		return NewArray(Lookup(name[:len(name)-2]))
	}
	for p, n := range primitiveNames {
		if n == name {
			return Primitive(p)
		}
	}
	switch name {
	case "null":
		return Null
	case Object.name:
		return Object
	case String.name:
		return String
	case Throwable.name:
		return Throwable
	case Exception.name:
		return Exception
	}
	return NewClass(name, Object)
}
