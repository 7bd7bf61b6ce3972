package builder

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/bcfg/internal/expr"
	"github.com/ludo-technologies/bcfg/internal/ir"
	"github.com/ludo-technologies/bcfg/internal/legacy"
	"github.com/ludo-technologies/bcfg/internal/types"
)

func decode(t *testing.T, src string) []*legacy.Method {
	t.Helper()
	methods, err := legacy.Decode(strings.NewReader(src))
	require.NoError(t, err)
	return methods
}

func buildOne(t *testing.T, src string) *ir.Graph {
	t.Helper()
	methods := decode(t, src)
	require.Len(t, methods, 1)
	g, err := New(WithVerify(true)).Build(methods[0])
	require.NoError(t, err)
	return g
}

// assertNoPlaceholders fails if any placeholder survived construction.
func assertNoPlaceholders(t *testing.T, g *ir.Graph) {
	t.Helper()
	for _, b := range g.AllBlocksUnordered() {
		assert.NotEqual(t, ir.KindPlaceholder, b.Kind(), "block %s", b.ID())
	}
}

func TestBuild_IfElseReturn(t *testing.T) {
	g := buildOne(t, `
class: Foo
methods:
  - name: choose
    static: true
    params: [{name: cond, type: boolean}]
    blocks:
      - {name: test, kind: conditional, succ: [one, two], stmts: [{if: {param: cond}}]}
      - {name: one, kind: return, stmts: [{return: {lit: 1}}]}
      - {name: two, kind: return, stmts: [{return: {lit: 2}}]}
`)

	cond := g.Entry().PrimarySuccessor()
	require.Equal(t, ir.KindConditional, cond.Kind())
	require.Equal(t, 1, cond.NumElements())
	test, ok := cond.Element(0).(*ir.ConditionalTest)
	require.True(t, ok)
	assert.Equal(t, "cond", test.Cond.String())

	succs := cond.Successors()
	require.Len(t, succs, 2)
	assert.NotSame(t, succs[0], succs[1])
	for i, want := range []int64{1, 2} {
		r := succs[i]
		require.Equal(t, ir.KindReturn, r.Kind())
		require.Equal(t, 1, r.NumElements())
		ret := r.Element(0).(*ir.Return)
		assert.Equal(t, want, ret.Value.(*expr.Literal).Value)
		require.Len(t, r.Successors(), 1)
		assert.Same(t, g.Exit(), r.Successors()[0])
	}

	assert.Equal(t, 5, len(g.AllBlocksUnordered()))
	assertNoPlaceholders(t, g)
}

func TestBuild_EmptyBody(t *testing.T) {
	g := buildOne(t, `
class: Foo
methods:
  - name: run
    blocks:
      - {name: ret, kind: return, stmts: [{return: null}]}
`)

	ret := g.Entry().PrimarySuccessor()
	require.Equal(t, ir.KindReturn, ret.Kind())
	require.Equal(t, 1, ret.NumElements())
	assert.Nil(t, ret.Element(0).(*ir.Return).Value)
	assert.Same(t, g.Exit(), ret.PrimarySuccessor())

	var inner int
	for _, b := range g.AllBlocksUnordered() {
		if b.Kind() != ir.KindEntry && b.Kind() != ir.KindExit {
			inner++
		}
	}
	assert.Equal(t, 1, inner)
}

func TestBuild_NoBlocks(t *testing.T) {
	g := buildOne(t, `
class: Foo
methods:
  - name: nothing
`)
	assert.Same(t, g.Exit(), g.Entry().PrimarySuccessor())
}

func TestBuild_LoopTerminates(t *testing.T) {
	g := buildOne(t, `
class: Foo
methods:
  - name: count
    static: true
    locals: [{name: i, type: int}]
    blocks:
      - name: init
        kind: normal
        succ: [head]
        stmts: [{expr: {assign: {lhs: {local: i}, rhs: {lit: 0}}}}]
      - name: head
        kind: conditional
        succ: [body, done]
        stmts: [{if: {binop: {op: "<", lhs: {local: i}, rhs: {lit: 10}}}}]
      - name: body
        kind: normal
        succ: [head]
        stmts:
          - expr: {assign: {lhs: {local: i}, rhs: {binop: {op: "+", lhs: {local: i}, rhs: {lit: 1}}}}}
          - goto
      - name: done
        kind: return
        stmts: [{return: {local: i}}]
`)

	first := g.Entry().PrimarySuccessor()
	head := first.PrimarySuccessor()
	require.Equal(t, ir.KindConditional, head.Kind())
	body := head.IfTrue()
	require.Equal(t, ir.KindSimple, body.Kind())
	assert.Same(t, head, body.PrimarySuccessor(), "back edge targets the real block")
	assert.Equal(t, 2, head.NumPredecessors())
	assert.Equal(t, ir.ElemGoto, first.LastElement().Kind(), "synthetic goto")
	assert.Equal(t, 2, body.NumElements())
	assertNoPlaceholders(t, g)
}

func TestBuild_SelfLoop(t *testing.T) {
	g := buildOne(t, `
class: Foo
methods:
  - name: spin
    blocks:
      - {name: spin, kind: normal, succ: [spin], stmts: [goto]}
`)
	spin := g.Entry().PrimarySuccessor()
	assert.Same(t, spin, spin.PrimarySuccessor())
	assertNoPlaceholders(t, g)
}

func TestBuild_SwitchAndInvertedConditional(t *testing.T) {
	g := buildOne(t, `
class: Foo
methods:
  - name: pick
    static: true
    params: [{name: k, type: int}]
    blocks:
      - {name: sw, kind: switch, succ: [dflt, c1, c2], stmts: [{switch: {param: k}}]}
      - {name: c1, kind: case, succ: [join], stmts: [{case: 1}]}
      - {name: c2, kind: case, succ: [join], stmts: [{case: 2}]}
      - {name: dflt, kind: case, succ: [test], stmts: [{case: default}]}
      - name: test
        kind: conditional
        succ: [join, join]
        else_fallthrough: true
        stmts: [{if: {binop: {op: "==", lhs: {param: k}, rhs: {lit: 0}}}}]
      - {name: join, kind: return, stmts: [{return: {param: k}}]}
`)

	sw := g.Entry().PrimarySuccessor()
	require.Equal(t, ir.KindSwitch, sw.Kind())
	cases := sw.Cases()
	require.Len(t, cases, 2)
	assert.Equal(t, int64(1), cases[0].Element(0).(*ir.CaseLabel).Value.Value)
	assert.True(t, sw.DefaultCase().Element(0).(*ir.CaseLabel).IsDefault())

	test := sw.DefaultCase().PrimarySuccessor()
	require.Equal(t, ir.KindConditional, test.Kind())
	assert.True(t, test.IsInverted())

	join := test.IfFalse()
	assert.Equal(t, 4, join.NumPredecessors(), "both case edges and both conditional edges")
	require.NoError(t, g.CheckEdgeSymmetry())
}

const tryCatchFixture = `
class: Foo
methods:
  - name: retry
    locals: [{name: e, type: java.lang.Exception}]
    blocks:
      - {name: start, kind: normal, succ: [handler]}
      - name: handler
        kind: catch
        caught: [java.lang.Exception]
        succ: [attempt]
      - name: attempt
        kind: pei
        succ: [done, handler]
        stmts: [{expr: {call: {owner: Foo, name: run, desc: "()V", instance: {this: this}}}}]
      - name: done
        kind: pei
        succ: [handler]
        stmts: [{throw: {new: java.lang.Exception}}]
`

func TestBuild_ThrowingBlocksUnhandledIsExit(t *testing.T) {
	g := buildOne(t, tryCatchFixture)
	assertNoPlaceholders(t, g)

	var throwing int
	for _, b := range g.AllBlocksUnordered() {
		if !b.Kind().IsThrowing() {
			continue
		}
		throwing++
		assert.Same(t, g.Exit(), b.UnhandledBlock(), "block %s", b.ID())

		catches := b.CatchBlocks()
		require.Len(t, catches, 1)
		assert.Equal(t, ir.KindCatch, catches[0].Kind())
		assert.Equal(t, []types.Type{types.Exception}, catches[0].CaughtTypes())
		assert.Equal(t, catches, b.LastElement().EHContext().CatchBlocks())
	}
	assert.Equal(t, 2, throwing)
}

func TestBuild_HandlersShareContext(t *testing.T) {
	g := buildOne(t, tryCatchFixture)

	attempt := g.Entry().PrimarySuccessor().PrimarySuccessor().PrimarySuccessor()
	require.Equal(t, ir.KindThrowingExpression, attempt.Kind())
	done := attempt.PrimarySuccessor()
	require.Equal(t, ir.KindThrow, done.Kind())

	assert.Same(t, attempt.LastElement().EHContext(), done.LastElement().EHContext())
}

// catchBeforeHandlers builds start -> catch -> pei -> pei2 -> return, with both
// throwing blocks handled by catch, directly through the legacy API. The catch
// block is still under construction when both throwing blocks are reached.
func catchBeforeHandlers() *legacy.Method {
	m := legacy.NewMethod("Foo", "loop")
	start := m.NewBlock("start", legacy.KindNormal)
	catch := m.NewBlock("catch", legacy.KindCatch).SetCaught(types.Exception)
	pei := m.NewBlock("pei", legacy.KindPei)
	pei2 := m.NewBlock("pei2", legacy.KindPei)
	ret := m.NewBlock("ret", legacy.KindReturn)

	m.Entry.AddSuccessor(start)
	start.AddSuccessor(catch)
	catch.AddSuccessor(pei)
	run := &expr.MethodID{Owner: "Foo", Name: "run", Descriptor: "()V"}
	pei.AddSuccessor(pei2).AddSuccessor(catch).
		AddStmt(&legacy.ExprStmt{X: &expr.MethodCall{Method: run}})
	pei2.AddSuccessor(ret).AddSuccessor(catch).
		AddStmt(&legacy.ExprStmt{X: &expr.MethodCall{Method: run}})
	ret.AddSuccessor(m.Exit).AddStmt(&legacy.ReturnStmt{})
	return m
}

func TestBuild_PlaceholderCatchIsResolved(t *testing.T) {
	g, err := New(WithVerify(true)).Build(catchBeforeHandlers())
	require.NoError(t, err)
	assertNoPlaceholders(t, g)

	catch := g.Entry().PrimarySuccessor().PrimarySuccessor()
	require.Equal(t, ir.KindCatch, catch.Kind())
	pei := catch.PrimarySuccessor()
	pei2 := pei.PrimarySuccessor()

	for _, b := range []*ir.Block{pei, pei2} {
		require.Equal(t, ir.KindThrowingExpression, b.Kind(), "block %s", b.ID())
		assert.Same(t, g.Exit(), b.UnhandledBlock())
		require.Len(t, b.CatchBlocks(), 1)
		assert.Same(t, catch, b.CatchBlocks()[0])
		assert.Equal(t, []*ir.Block{catch}, b.LastElement().EHContext().CatchBlocks())
	}
	assert.Same(t, pei.LastElement().EHContext(), pei2.LastElement().EHContext())
	assert.Equal(t, ir.KindReturn, pei2.PrimarySuccessor().Kind())
}

func TestBuild_StatementMismatch(t *testing.T) {
	methods := decode(t, `
class: Foo
methods:
  - name: bad
    static: true
    params: [{name: c, type: boolean}]
    blocks:
      - {name: b, kind: normal, succ: [exit], stmts: [{if: {param: c}}]}
`)
	g, err := New().Build(methods[0])
	assert.Nil(t, g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatementMismatch))
	assert.Contains(t, err.Error(), "build Foo.bad")
	assert.Contains(t, err.Error(), "block b")
}

func TestBuild_CallOutsideThrowingBlock(t *testing.T) {
	methods := decode(t, `
class: Foo
methods:
  - name: bad
    static: true
    blocks:
      - {name: b, kind: normal, succ: [exit], stmts: [{expr: {call: {owner: Foo, name: run, desc: "()V"}}}]}
`)
	_, err := New().Build(methods[0])
	assert.ErrorIs(t, err, ErrStatementMismatch)
}

func TestBuild_MalformedSuccessors(t *testing.T) {
	methods := decode(t, `
class: Foo
methods:
  - name: bad
    static: true
    params: [{name: c, type: boolean}]
    blocks:
      - {name: b, kind: conditional, succ: [exit], stmts: [{if: {param: c}}]}
`)
	_, err := New().Build(methods[0])
	assert.ErrorIs(t, err, ErrMalformedBlock)
}

func TestBuild_StructuralFailureIsReturned(t *testing.T) {
	methods := decode(t, `
class: Foo
methods:
  - name: bad
    blocks:
      - name: call
        kind: pei
        succ: [ret, ret]
        stmts: [{expr: {call: {owner: Foo, name: run, desc: "()V"}}}]
      - {name: ret, kind: return, stmts: [{return: null}]}
`)
	g, err := New().Build(methods[0])
	assert.Nil(t, g)
	require.Error(t, err)
	assert.True(t, ir.IsInternal(err), "got %v", err)
}

func TestBuildAll(t *testing.T) {
	methods := decode(t, `
class: Foo
methods:
  - name: ok
    blocks:
      - {name: ret, kind: return, stmts: [{return: null}]}
  - name: bad
    blocks:
      - {name: ret, kind: return, stmts: [goto]}
`)
	graphs, err := New().BuildAll(methods)
	require.Len(t, graphs, 2)
	assert.NotNil(t, graphs[0])
	assert.Nil(t, graphs[1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Foo.bad")
}

func TestBuild_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	methods := decode(t, `
class: Foo
methods:
  - name: run
    blocks:
      - {name: ret, kind: return, stmts: [{return: null}]}
`)

	_, err := New(WithLogger(logger)).Build(methods[0])
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"built graph"`)
	assert.Contains(t, out, `"method":"Foo.run"`)
	assert.Contains(t, out, `"session":"`)
	assert.Contains(t, out, `"blocks":3`)
}
