package types

import "testing"

func TestPrimitive_Name(t *testing.T) {
	tests := []struct {
		p        Primitive
		expected string
	}{
		{Void, "void"},
		{Boolean, "boolean"},
		{Int, "int"},
		{Double, "double"},
		{Primitive(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.p.Name(); got != tc.expected {
			t.Errorf("Primitive(%d).Name() = %s, expected %s", tc.p, got, tc.expected)
		}
	}
}

func TestDefaultSystem_SameType(t *testing.T) {
	sys := DefaultSystem{}
	fooA := NewClass("com.example.Foo", Object)
	fooB := NewClass("com.example.Foo", Object)
	bar := NewClass("com.example.Bar", Object)

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same primitive", Int, Int, true},
		{"different primitive", Int, Long, false},
		{"same class by name", fooA, fooB, true},
		{"different class", fooA, bar, false},
		{"array of same elem", NewArray(Int), NewArray(Int), true},
		{"array of different elem", NewArray(Int), NewArray(Long), false},
		{"class vs primitive", fooA, Int, false},
		{"null", Null, Null, true},
		{"nil pair", nil, nil, true},
		{"nil vs type", nil, Int, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sys.SameType(tc.a, tc.b); got != tc.want {
				t.Errorf("SameType(%v, %v) = %v, expected %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	if Lookup("int") != Int {
		t.Error("Lookup(int) should return the Int primitive")
	}
	if Lookup("java.lang.String") != String {
		t.Error("Lookup should return the well known String class")
	}
	arr, ok := Lookup("int[][]").(*Array)
	if !ok {
		t.Fatalf("Lookup(int[][]) should be an array, got %T", Lookup("int[][]"))
	}
	if arr.Name() != "int[][]" {
		t.Errorf("array name = %s, expected int[][]", arr.Name())
	}
	if !(DefaultSystem{}).SameType(Lookup("a.B"), NewClass("a.B", nil)) {
		t.Error("looked up class should be the same type as a fresh class with the same name")
	}
}
