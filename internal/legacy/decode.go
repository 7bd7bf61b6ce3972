package legacy

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/bcfg/internal/expr"
	"github.com/ludo-technologies/bcfg/internal/types"
)

// ExitName is the reserved successor name of the method exit.
const ExitName = "exit"

type fileSpec struct {
	Class   string       `yaml:"class"`
	Methods []methodSpec `yaml:"methods"`
}

type varSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type methodSpec struct {
	Name   string      `yaml:"name"`
	Static bool        `yaml:"static"`
	Params []varSpec   `yaml:"params"`
	Locals []varSpec   `yaml:"locals"`
	Entry  string      `yaml:"entry"`
	Blocks []blockSpec `yaml:"blocks"`
}

type blockSpec struct {
	Name            string      `yaml:"name"`
	Kind            string      `yaml:"kind"`
	Succ            []string    `yaml:"succ"`
	Caught          []string    `yaml:"caught"`
	ElseFallThrough bool        `yaml:"else_fallthrough"`
	Stmts           []yaml.Node `yaml:"stmts"`
}

// DecodeFile reads a fixture file.
func DecodeFile(path string) ([]*Method, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	methods, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return methods, nil
}

// Decode reads every method of one fixture document.
func Decode(r io.Reader) ([]*Method, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	methods := make([]*Method, 0, len(spec.Methods))
	for i := range spec.Methods {
		m, err := decodeMethod(spec.Class, &spec.Methods[i])
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", spec.Methods[i].Name, err)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// methodDecoder resolves names within one method.
type methodDecoder struct {
	method *Method
	vars   map[string]*expr.Variable
	blocks map[string]*Block
	fields map[string]*expr.FieldID
	calls  map[string]*expr.MethodID
}

func decodeMethod(class string, spec *methodSpec) (*Method, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("missing method name")
	}
	d := &methodDecoder{
		method: NewMethod(class, spec.Name),
		vars:   make(map[string]*expr.Variable),
		blocks: make(map[string]*Block),
		fields: make(map[string]*expr.FieldID),
		calls:  make(map[string]*expr.MethodID),
	}
	m := d.method
	if !spec.Static {
		m.This = expr.NewVariable("this", types.Lookup(class), expr.VarThis)
	}
	for _, p := range spec.Params {
		v := expr.NewVariable(p.Name, types.Lookup(p.Type), expr.VarParam)
		if err := d.declare(v); err != nil {
			return nil, err
		}
		m.Params = append(m.Params, v)
	}
	for _, l := range spec.Locals {
		v := expr.NewVariable(l.Name, types.Lookup(l.Type), expr.VarLocal)
		if err := d.declare(v); err != nil {
			return nil, err
		}
		m.Locals = append(m.Locals, v)
	}

	d.blocks[ExitName] = m.Exit
	for _, bs := range spec.Blocks {
		kind, ok := ParseBlockKind(bs.Kind)
		if !ok || kind == KindEntry || kind == KindExit {
			return nil, fmt.Errorf("block %s: invalid kind %q", bs.Name, bs.Kind)
		}
		if _, dup := d.blocks[bs.Name]; dup {
			return nil, fmt.Errorf("duplicate block %q", bs.Name)
		}
		d.blocks[bs.Name] = m.NewBlock(bs.Name, kind)
	}

	for i := range spec.Blocks {
		bs := &spec.Blocks[i]
		b := d.blocks[bs.Name]
		for _, name := range bs.Succ {
			s, ok := d.blocks[name]
			if !ok {
				return nil, fmt.Errorf("block %s: unknown successor %q", bs.Name, name)
			}
			b.AddSuccessor(s)
		}
		if b.Kind == KindReturn && len(bs.Succ) == 0 {
			b.AddSuccessor(m.Exit)
		}
		for _, c := range bs.Caught {
			b.caught = append(b.caught, types.Lookup(c))
		}
		b.elseFallThrough = bs.ElseFallThrough
		for j := range bs.Stmts {
			s, err := d.stmt(&bs.Stmts[j])
			if err != nil {
				return nil, fmt.Errorf("block %s, stmt %d: %w", bs.Name, j, err)
			}
			b.AddStmt(s)
		}
	}

	switch {
	case spec.Entry != "":
		start, ok := d.blocks[spec.Entry]
		if !ok {
			return nil, fmt.Errorf("unknown entry block %q", spec.Entry)
		}
		m.Entry.AddSuccessor(start)
	case len(m.Blocks) > 0:
		m.Entry.AddSuccessor(m.Blocks[0])
	default:
		m.Entry.AddSuccessor(m.Exit)
	}
	return m, nil
}

func (d *methodDecoder) declare(v *expr.Variable) error {
	if _, dup := d.vars[v.Name]; dup {
		return fmt.Errorf("duplicate variable %q", v.Name)
	}
	d.vars[v.Name] = v
	return nil
}

// single returns the key and value of a one-entry mapping.
func single(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, fmt.Errorf("line %d: expected a single-key mapping", n.Line)
	}
	return n.Content[0].Value, n.Content[1], nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// absent reports whether an optional node field was left out or set to null.
func absent(n *yaml.Node) bool {
	return n.Kind == 0 || isNull(n)
}

func (d *methodDecoder) stmt(n *yaml.Node) (Stmt, error) {
	if n.Kind == yaml.ScalarNode && n.Value == "goto" {
		return &GotoStmt{}, nil
	}
	key, val, err := single(n)
	if err != nil {
		return nil, err
	}
	switch key {
	case "goto":
		return &GotoStmt{}, nil
	case "if":
		cond, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &IfStmt{Cond: cond}, nil
	case "switch":
		v, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &SwitchStmt{Value: v}, nil
	case "case":
		if isNull(val) || val.Value == "default" {
			return &CaseStmt{}, nil
		}
		lit, err := literal(val)
		if err != nil {
			return nil, err
		}
		return &CaseStmt{Value: lit}, nil
	case "return":
		if isNull(val) {
			return &ReturnStmt{}, nil
		}
		v, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: v}, nil
	case "throw":
		v, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &ThrowStmt{Value: v}, nil
	case "expr":
		v, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: v}, nil
	case "lock", "unlock":
		v, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		if key == "lock" {
			return &LockStmt{Monitor: v}, nil
		}
		return &UnlockStmt{Monitor: v}, nil
	}
	return nil, fmt.Errorf("line %d: unknown statement %q", n.Line, key)
}

type binSpec struct {
	Op  string    `yaml:"op"`
	LHS yaml.Node `yaml:"lhs"`
	RHS yaml.Node `yaml:"rhs"`
}

type unSpec struct {
	Op string    `yaml:"op"`
	X  yaml.Node `yaml:"x"`
}

type fieldSpec struct {
	Owner    string     `yaml:"owner"`
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Instance yaml.Node `yaml:"instance"`
}

type arraySpec struct {
	Array yaml.Node `yaml:"array"`
	Index yaml.Node `yaml:"index"`
}

type callSpec struct {
	Owner       string      `yaml:"owner"`
	Name        string      `yaml:"name"`
	Desc        string      `yaml:"desc"`
	Instance    yaml.Node   `yaml:"instance"`
	Args        []yaml.Node `yaml:"args"`
	Result      string      `yaml:"result"`
	Polymorphic bool        `yaml:"polymorphic"`
}

type assignSpec struct {
	LHS yaml.Node `yaml:"lhs"`
	RHS yaml.Node `yaml:"rhs"`
}

type castSpec struct {
	Type string    `yaml:"type"`
	X    yaml.Node `yaml:"x"`
}

func (d *methodDecoder) expr(n *yaml.Node) (expr.Expr, error) {
	key, val, err := single(n)
	if err != nil {
		return nil, err
	}
	switch key {
	case "lit":
		return literal(val)
	case "local", "param":
		v, ok := d.vars[val.Value]
		if !ok {
			return nil, fmt.Errorf("line %d: undeclared variable %q", val.Line, val.Value)
		}
		return expr.Ref(v), nil
	case "this":
		if d.method.This == nil {
			return nil, fmt.Errorf("line %d: this in a static method", val.Line)
		}
		return expr.Ref(d.method.This), nil
	case "binop":
		var s binSpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		op, ok := expr.ParseBinaryOperator(s.Op)
		if !ok {
			return nil, fmt.Errorf("line %d: unknown operator %q", val.Line, s.Op)
		}
		lhs, err := d.expr(&s.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := d.expr(&s.RHS)
		if err != nil {
			return nil, err
		}
		return expr.Binary(op, lhs, rhs), nil
	case "unop":
		var s unSpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		x, err := d.expr(&s.X)
		if err != nil {
			return nil, err
		}
		var op expr.UnaryOperator
		switch s.Op {
		case "-":
			op = expr.OpNeg
		case "!":
			op = expr.OpNot
		case "~":
			op = expr.OpBitNot
		default:
			return nil, fmt.Errorf("line %d: unknown operator %q", val.Line, s.Op)
		}
		return &expr.UnaryOp{Op: op, Operand: x}, nil
	case "field":
		var s fieldSpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		ref := &expr.FieldRef{Field: d.field(s.Owner, s.Name, s.Type)}
		if !absent(&s.Instance) {
			if ref.Instance, err = d.expr(&s.Instance); err != nil {
				return nil, err
			}
		}
		return ref, nil
	case "array":
		var s arraySpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		arr, err := d.expr(&s.Array)
		if err != nil {
			return nil, err
		}
		idx, err := d.expr(&s.Index)
		if err != nil {
			return nil, err
		}
		return &expr.ArrayRef{Array: arr, Index: idx}, nil
	case "call":
		var s callSpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		call := &expr.MethodCall{
			Method:      d.methodID(s.Owner, s.Name, s.Desc),
			Polymorphic: s.Polymorphic,
		}
		if s.Result != "" {
			call.Result = types.Lookup(s.Result)
		}
		if !absent(&s.Instance) {
			if call.Instance, err = d.expr(&s.Instance); err != nil {
				return nil, err
			}
		}
		for i := range s.Args {
			a, err := d.expr(&s.Args[i])
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
		}
		return call, nil
	case "assign":
		var s assignSpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		lhs, err := d.expr(&s.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := d.expr(&s.RHS)
		if err != nil {
			return nil, err
		}
		return &expr.Assign{LHS: lhs, RHS: rhs}, nil
	case "new":
		cls, ok := types.Lookup(val.Value).(*types.Class)
		if !ok {
			return nil, fmt.Errorf("line %d: %q is not a class", val.Line, val.Value)
		}
		return &expr.New{Class: cls}, nil
	case "cast":
		var s castSpec
		if err := val.Decode(&s); err != nil {
			return nil, err
		}
		x, err := d.expr(&s.X)
		if err != nil {
			return nil, err
		}
		return &expr.Cast{Target: types.Lookup(s.Type), Operand: x}, nil
	case "caught":
		return &expr.CaughtException{Typ: types.Lookup(val.Value)}, nil
	}
	return nil, fmt.Errorf("line %d: unknown expression %q", n.Line, key)
}

// field interns field ids so equal references share one *FieldID.
func (d *methodDecoder) field(owner, name, typ string) *expr.FieldID {
	key := owner + "." + name
	if f, ok := d.fields[key]; ok {
		return f
	}
	f := &expr.FieldID{Owner: owner, Name: name, Typ: types.Lookup(typ)}
	d.fields[key] = f
	return f
}

func (d *methodDecoder) methodID(owner, name, desc string) *expr.MethodID {
	key := owner + "." + name + desc
	if m, ok := d.calls[key]; ok {
		return m
	}
	m := &expr.MethodID{Owner: owner, Name: name, Descriptor: desc}
	d.calls[key] = m
	return m
}

func literal(n *yaml.Node) (*expr.Literal, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: literal must be a scalar", n.Line)
	}
	switch n.Tag {
	case "!!null":
		return expr.NullLit(), nil
	case "!!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, err
		}
		return expr.BoolLit(v), nil
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, err
		}
		return expr.IntLit(v), nil
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, err
		}
		return &expr.Literal{Value: v, Typ: types.Double}, nil
	default:
		return expr.StringLit(n.Value), nil
	}
}
