// Package builder translates the tree-shaped legacy control flow of a
// method into an ir.Graph.
package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/bcfg/internal/expr"
	"github.com/ludo-technologies/bcfg/internal/ir"
	"github.com/ludo-technologies/bcfg/internal/legacy"
)

var (
	// ErrStatementMismatch reports a statement that cannot appear in the
	// kind of block being built.
	ErrStatementMismatch = errors.New("statement does not fit block")

	// ErrMalformedBlock reports a legacy block whose successors or
	// statements do not match its kind.
	ErrMalformedBlock = errors.New("malformed legacy block")
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithVerify makes Build run ir.Graph.Verify on every result.
func WithVerify(v bool) Option {
	return func(b *Builder) { b.verify = v }
}

// Builder turns legacy methods into graphs. A Builder holds no per-graph
// state and may be shared between goroutines; every Build call runs its
// own session.
type Builder struct {
	logger zerolog.Logger
	verify bool
}

// New returns a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build translates one method. Structural failures raised by the ir
// package are returned as errors.
func (b *Builder) Build(m *legacy.Method) (g *ir.Graph, err error) {
	defer func() {
		if err != nil {
			g = nil
			err = fmt.Errorf("build %s: %w", m.QualifiedName(), err)
		}
	}()
	defer ir.Recover(&err)

	s := newSession(m, b.logger)
	if g, err = s.run(); err != nil {
		return nil, err
	}
	if b.verify {
		if err := g.Verify(); err != nil {
			return nil, err
		}
	}

	st := g.Stats()
	s.log.Debug().
		Int("blocks", st.Blocks).
		Int("elements", st.Elements).
		Int("eh_contexts", s.pool.Size()).
		Msg("built graph")
	return g, nil
}

// BuildAll translates every method in order. Failed methods leave a nil
// entry; their errors are joined.
func (b *Builder) BuildAll(methods []*legacy.Method) ([]*ir.Graph, error) {
	graphs := make([]*ir.Graph, len(methods))
	var errs []error
	for i, m := range methods {
		g, err := b.Build(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		graphs[i] = g
	}
	return graphs, errors.Join(errs...)
}

// session is the state of one Build call. Legacy blocks get a dense id on
// first encounter; memo maps that id to the ir block built for it, or to
// its placeholder while it is under construction.
type session struct {
	method *legacy.Method
	graph  *ir.Graph
	pool   *ir.EHContextPool
	log    zerolog.Logger

	ids  map[*legacy.Block]int
	memo []*ir.Block
}

func newSession(m *legacy.Method, logger zerolog.Logger) *session {
	return &session{
		method: m,
		graph:  ir.NewGraph(m.QualifiedName()),
		pool:   ir.NewEHContextPool(),
		log: logger.With().
			Str("session", uuid.NewString()).
			Str("method", m.QualifiedName()).
			Logger(),
		ids: make(map[*legacy.Block]int, len(m.Blocks)),
	}
}

func (s *session) run() (*ir.Graph, error) {
	root, err := s.build(s.method.Start())
	if err != nil {
		return nil, err
	}
	if root != s.graph.Exit() {
		s.graph.Entry().ReplaceAllSuccessors(s.graph.Exit(), root)
	}
	s.resyncHandlers()
	return s.graph, nil
}

func (s *session) lookup(n *legacy.Block) (int, *ir.Block) {
	id, ok := s.ids[n]
	if !ok {
		id = len(s.memo)
		s.ids[n] = id
		s.memo = append(s.memo, nil)
	}
	return id, s.memo[id]
}

func (s *session) build(n *legacy.Block) (*ir.Block, error) {
	switch n.Kind {
	case legacy.KindExit:
		return s.graph.Exit(), nil
	case legacy.KindEntry:
		return nil, fmt.Errorf("%w: %s: entry used as a successor", ErrMalformedBlock, n.Name)
	}

	id, done := s.lookup(n)
	if done != nil {
		if done.Kind() == ir.KindPlaceholder {
			s.log.Trace().Str("block", n.Name).Msg("back edge")
		}
		return done, nil
	}

	ph := s.graph.NewPlaceholderBlock()
	s.memo[id] = ph

	succs := n.Successors()
	targets := make([]*ir.Block, len(succs))
	for i, sn := range succs {
		t, err := s.build(sn)
		if err != nil {
			return nil, err
		}
		targets[i] = t
	}

	blk, err := s.translate(n, targets)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", n.Name, err)
	}

	for _, p := range ph.PredecessorsSnapshot() {
		p.ReplaceAllSuccessors(ph, blk)
	}
	s.memo[id] = blk
	s.graph.Release(ph)
	return blk, nil
}

func (s *session) translate(n *legacy.Block, targets []*ir.Block) (*ir.Block, error) {
	g := s.graph
	want := func(lo, hi int) error {
		if len(targets) < lo || (hi >= 0 && len(targets) > hi) {
			return fmt.Errorf("%w: %s block has %d successors", ErrMalformedBlock, n.Kind, len(targets))
		}
		return nil
	}

	var blk *ir.Block
	eh := ir.EmptyEHContext
	switch n.Kind {
	case legacy.KindNormal:
		if err := want(1, 1); err != nil {
			return nil, err
		}
		blk = g.NewSimpleBlock(targets[0])
	case legacy.KindCatch:
		if err := want(1, 1); err != nil {
			return nil, err
		}
		blk = g.NewCatchBlock(targets[0], n.CaughtTypes()...)
	case legacy.KindConditional:
		if err := want(2, 2); err != nil {
			return nil, err
		}
		blk = g.NewConditionalBlock(targets[0], targets[1])
	case legacy.KindSwitch:
		if err := want(1, -1); err != nil {
			return nil, err
		}
		blk = g.NewSwitchBlock(targets[0])
		for _, c := range targets[1:] {
			blk.AddCase(c)
		}
	case legacy.KindCase:
		if err := want(1, 1); err != nil {
			return nil, err
		}
		blk = g.NewCaseBlock(targets[0])
	case legacy.KindReturn:
		if err := want(0, 1); err != nil {
			return nil, err
		}
		if len(targets) == 1 && targets[0] != g.Exit() {
			return nil, fmt.Errorf("%w: return block flows into %s", ErrMalformedBlock, targets[0].ID())
		}
		blk = g.NewReturnBlock()
	case legacy.KindPei:
		if endsWithThrow(n) {
			blk = g.NewThrowBlock()
			eh = s.pool.Get(targets)
			break
		}
		if err := want(1, -1); err != nil {
			return nil, err
		}
		blk = g.NewThrowingExpressionBlock(targets[0])
		eh = s.pool.Get(targets[1:])
	default:
		return nil, fmt.Errorf("%w: unexpected kind %s", ErrMalformedBlock, n.Kind)
	}

	for _, st := range n.Statements() {
		e, err := s.element(blk, n, st, eh)
		if err != nil {
			return nil, err
		}
		blk.AppendElement(e)
	}

	switch blk.Kind() {
	case ir.KindSimple, ir.KindCatch:
		if last := blk.LastElement(); last == nil || last.Kind() != ir.ElemGoto {
			blk.AppendElement(ir.NewGoto())
		}
	case ir.KindThrow, ir.KindThrowingExpression:
		blk.ResetCatchBlocks()
	}
	return blk, nil
}

func endsWithThrow(n *legacy.Block) bool {
	stmts := n.Statements()
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*legacy.ThrowStmt)
	return ok
}

func mismatch(st legacy.Stmt, blk *ir.Block) error {
	return fmt.Errorf("%w: %q in %s block", ErrStatementMismatch, st, blk.Kind())
}

// element maps one legacy statement to the element it becomes inside blk.
func (s *session) element(blk *ir.Block, n *legacy.Block, st legacy.Stmt, eh *ir.EHContext) (ir.Element, error) {
	kind := blk.Kind()
	throwing := kind == ir.KindThrowingExpression

	switch st := st.(type) {
	case *legacy.GotoStmt:
		if kind != ir.KindSimple && kind != ir.KindCatch {
			return nil, mismatch(st, blk)
		}
		return ir.NewGoto(), nil
	case *legacy.IfStmt:
		if kind != ir.KindConditional {
			return nil, mismatch(st, blk)
		}
		if n.ElseFallThrough() {
			blk.SetInverted(true)
		}
		return ir.NewConditionalTest(st.Cond), nil
	case *legacy.SwitchStmt:
		if kind != ir.KindSwitch {
			return nil, mismatch(st, blk)
		}
		return ir.NewSwitchTest(st.Value), nil
	case *legacy.CaseStmt:
		if kind != ir.KindCase {
			return nil, mismatch(st, blk)
		}
		return ir.NewCaseLabel(st.Value), nil
	case *legacy.ReturnStmt:
		if kind != ir.KindReturn {
			return nil, mismatch(st, blk)
		}
		return ir.NewReturn(st.Value), nil
	case *legacy.ThrowStmt:
		if kind != ir.KindThrow {
			return nil, mismatch(st, blk)
		}
		return ir.NewThrow(st.Value, eh), nil
	case *legacy.LockStmt:
		if !throwing {
			return nil, mismatch(st, blk)
		}
		return ir.NewLock(st.Monitor, eh), nil
	case *legacy.UnlockStmt:
		if !throwing {
			return nil, mismatch(st, blk)
		}
		return ir.NewUnlock(st.Monitor, eh), nil
	case *legacy.ExprStmt:
		switch x := st.X.(type) {
		case *expr.MethodCall:
			if !throwing {
				return nil, mismatch(st, blk)
			}
			if x.Polymorphic {
				return ir.NewPolymorphicCall(x, eh), nil
			}
			return ir.NewMethodCall(x, eh), nil
		case *expr.Assign:
			if !x.IsVariableAssign() {
				if !throwing {
					return nil, mismatch(st, blk)
				}
				return ir.NewStore(x, eh), nil
			}
			if expr.MayThrow(x.RHS) && !throwing {
				return nil, mismatch(st, blk)
			}
			return ir.NewVariableAssign(x, eh), nil
		}
		return nil, fmt.Errorf("%w: %q is not a call or an assignment", ErrStatementMismatch, st)
	}
	return nil, fmt.Errorf("%w: unknown statement %T", ErrStatementMismatch, st)
}

// resyncHandlers rebuilds the handler context of every throwing element
// from the final catch successors of its block. Contexts pooled while a
// catch block was still a placeholder are replaced here.
func (s *session) resyncHandlers() {
	for _, b := range s.graph.AllBlocksUnordered() {
		if !b.Kind().IsThrowing() {
			continue
		}
		last := b.LastElement()
		if last == nil || !last.IsThrowing() {
			continue
		}
		eh := s.pool.Get(b.CatchBlocks())
		if eh == last.EHContext() {
			continue
		}
		ir.SetEHContext(last, eh)
		b.ResetCatchBlocks()
	}
}
