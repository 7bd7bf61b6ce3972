package ir

import (
	"strconv"
	"strings"
)

// EHContext is the immutable, ordered list of catch blocks reachable from
// a throwing element. Contexts handed out by one EHContextPool can be
// compared by pointer.
type EHContext struct {
	catches []*Block
}

// EmptyEHContext is the context of an element with no handlers.
var EmptyEHContext = &EHContext{}

// CatchBlocks returns a copy of the ordered catch blocks.
func (c *EHContext) CatchBlocks() []*Block {
	return append([]*Block(nil), c.catches...)
}

// Len returns the number of handlers.
func (c *EHContext) Len() int { return len(c.catches) }

// IsEmpty reports whether there are no handlers.
func (c *EHContext) IsEmpty() bool { return len(c.catches) == 0 }

func (c *EHContext) String() string {
	if c.IsEmpty() {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, b := range c.catches {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.ID().String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// EHContextPool interns contexts for one construction session. It is not
// safe for concurrent use and must not be shared between graphs.
type EHContextPool struct {
	contexts map[string]*EHContext
}

// NewEHContextPool returns an empty pool.
func NewEHContextPool() *EHContextPool {
	return &EHContextPool{contexts: make(map[string]*EHContext)}
}

// Get returns the pooled context for catches. Equal sequences yield the
// same pointer; an empty sequence yields EmptyEHContext.
func (p *EHContextPool) Get(catches []*Block) *EHContext {
	if len(catches) == 0 {
		return EmptyEHContext
	}
	key := poolKey(catches)
	if c, ok := p.contexts[key]; ok {
		return c
	}
	for _, b := range catches {
		if b.Kind() != KindCatch && b.Kind() != KindPlaceholder {
			assertf("EHContextPool.Get", "%s is a %s block, not a catch block", b.ID(), b.Kind())
		}
	}
	c := &EHContext{catches: append([]*Block(nil), catches...)}
	p.contexts[key] = c
	return c
}

// Size returns the number of distinct non-empty contexts handed out.
func (p *EHContextPool) Size() int { return len(p.contexts) }

func poolKey(catches []*Block) string {
	var sb strings.Builder
	for i, b := range catches {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(b.ID())))
	}
	return sb.String()
}
