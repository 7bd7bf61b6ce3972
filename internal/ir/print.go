package ir

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a text dump of the blocks reachable from Entry to w.
//
// Format:
//
//	graph Foo.bar:
//	  b0: entry -> b2
//	  b2: conditional <- b0
//	    if (x < 0)
//	    -> true b3, false b4
func Fprint(w io.Writer, g *Graph) {
	fmt.Fprintf(w, "graph %s:\n", g.Name)
	Walk(g, true, func(b *Block) bool {
		fprintBlock(w, b)
		return true
	})
}

// String returns the Fprint dump of g.
func (g *Graph) String() string {
	var sb strings.Builder
	Fprint(&sb, g)
	return sb.String()
}

func fprintBlock(w io.Writer, b *Block) {
	header := fmt.Sprintf("  %s: %s", b.id, b.kind)
	if b.kind == KindCatch && len(b.caught) > 0 {
		names := make([]string, len(b.caught))
		for i, t := range b.caught {
			names[i] = t.String()
		}
		header += " (" + strings.Join(names, ", ") + ")"
	}
	if len(b.preds) > 0 {
		preds := make([]string, len(b.preds))
		for i, p := range b.preds {
			preds[i] = p.String()
		}
		header += " <- " + strings.Join(preds, " ")
	}

	switch b.kind {
	case KindEntry:
		fmt.Fprintf(w, "%s -> %s\n", header, b.primary)
		return
	case KindExit, KindPlaceholder:
		fmt.Fprintln(w, header)
		return
	}

	fmt.Fprintln(w, header)
	for _, e := range b.elements {
		line := e.String()
		if e.IsThrowing() && !e.EHContext().IsEmpty() {
			line += " catch " + e.EHContext().String()
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprintf(w, "    -> %s\n", formatEdges(b))
}

func formatEdges(b *Block) string {
	switch b.kind {
	case KindConditional:
		s := fmt.Sprintf("true %s, false %s", b.primary, b.ifFalse)
		if b.inverted {
			s += " (inverted)"
		}
		return s
	case KindSwitch:
		parts := []string{"default " + b.primary.String()}
		for _, c := range b.cases {
			parts = append(parts, c.String())
		}
		return strings.Join(parts, ", ")
	case KindThrow:
		return "unhandled " + b.unhandled.String() + catchSuffix(b)
	case KindThrowingExpression:
		return b.primary.String() + ", unhandled " + b.unhandled.String() + catchSuffix(b)
	default:
		return b.primary.String()
	}
}

func catchSuffix(b *Block) string {
	if len(b.catches) == 0 {
		return ""
	}
	parts := make([]string, len(b.catches))
	for i, c := range b.catches {
		parts[i] = c.String()
	}
	return ", catch " + strings.Join(parts, " ")
}
