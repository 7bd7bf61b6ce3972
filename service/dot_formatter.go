package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/version"
)

// DOTFormatterConfig configures the DOT formatter behavior
type DOTFormatterConfig struct {
	// ShowLegend includes a legend subgraph
	ShowLegend bool

	// ShowElements puts the elements of each block into its label
	ShowElements bool

	// RankDir is the layout direction: TB, LR, BT, RL
	RankDir string
}

// DefaultDOTFormatterConfig returns a DOTFormatterConfig with sensible defaults
func DefaultDOTFormatterConfig() *DOTFormatterConfig {
	return &DOTFormatterConfig{
		ShowLegend:   true,
		ShowElements: false,
		RankDir:      "TB",
	}
}

// DOTFormatter formats control flow graphs as DOT for Graphviz
type DOTFormatter struct {
	config *DOTFormatterConfig
}

// NewDOTFormatter creates a new DOT formatter with the given configuration
func NewDOTFormatter(config *DOTFormatterConfig) *DOTFormatter {
	if config == nil {
		config = DefaultDOTFormatterConfig()
	}
	return &DOTFormatter{config: config}
}

// nodeStyles defines the shape and colors of a block by kind.
// This is effectively a constant map and should not be modified at runtime.
var nodeStyles = map[string]struct {
	shape  string
	fill   string
	border string
}{
	"entry":               {shape: "circle", fill: "#D3D3D3", border: "#696969"},
	"exit":                {shape: "doublecircle", fill: "#D3D3D3", border: "#696969"},
	"simple":              {shape: "box", fill: "#FFFFFF", border: "#000000"},
	"conditional":         {shape: "diamond", fill: "#ADD8E6", border: "#4682B4"},
	"switch":              {shape: "hexagon", fill: "#ADD8E6", border: "#4682B4"},
	"case":                {shape: "box", fill: "#E0FFFF", border: "#4682B4"},
	"catch":               {shape: "box", fill: "#FFE4B5", border: "#FF8C00"},
	"return":              {shape: "box", fill: "#90EE90", border: "#228B22"},
	"throw":               {shape: "box", fill: "#FF6B6B", border: "#DC143C"},
	"throwing-expression": {shape: "box", fill: "#FFD700", border: "#FFA500"},
}

// edgeStyles defines the visual style for edges based on their role.
// This is effectively a constant map and should not be modified at runtime.
var edgeStyles = map[domain.EdgeRole]struct {
	style string
	color string
}{
	domain.EdgeNext:      {style: "solid", color: "#000000"},
	domain.EdgeTrue:      {style: "solid", color: "#228B22"},
	domain.EdgeFalse:     {style: "solid", color: "#DC143C"},
	domain.EdgeDefault:   {style: "solid", color: "#4682B4"},
	domain.EdgeCase:      {style: "solid", color: "#4682B4"},
	domain.EdgeUnhandled: {style: "dotted", color: "#696969"},
	domain.EdgeCatch:     {style: "dashed", color: "#FF8C00"},
}

// validRankDirs contains the valid Graphviz rank directions
var validRankDirs = map[string]bool{
	"TB": true, // Top to Bottom
	"LR": true, // Left to Right
	"BT": true, // Bottom to Top
	"RL": true, // Right to Left
}

// FormatBuild formats every graph of a build as DOT and returns the string
func (f *DOTFormatter) FormatBuild(response *domain.BuildResponse) (string, error) {
	var sb strings.Builder
	if err := f.WriteBuild(response, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteBuild writes every graph of a build as DOT to the writer, one
// cluster per method
func (f *DOTFormatter) WriteBuild(response *domain.BuildResponse, writer io.Writer) error {
	if response == nil {
		return fmt.Errorf("nil response")
	}

	if !validRankDirs[f.config.RankDir] {
		return fmt.Errorf("invalid rank direction %q: must be one of TB, LR, BT, RL", f.config.RankDir)
	}

	fmt.Fprintf(writer, "/* bcfg Control Flow Graphs - Generated: %s */\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "/* Version: %s */\n", version.GetVersion())
	fmt.Fprintln(writer, "digraph cfg {")

	if len(response.Methods) == 0 {
		fmt.Fprintln(writer, "    /* No methods were built */")
		fmt.Fprintln(writer, "}")
		return nil
	}

	fmt.Fprintf(writer, "    rankdir=%s;\n", f.config.RankDir)
	fmt.Fprintln(writer, "    compound=true;")
	fmt.Fprintln(writer, "    node [style=filled, fontname=\"Helvetica\"];")
	fmt.Fprintln(writer, "    edge [fontname=\"Helvetica\", fontsize=10];")
	fmt.Fprintln(writer)

	for i, m := range response.Methods {
		f.writeMethod(writer, i, m)
		fmt.Fprintln(writer)
	}

	if f.config.ShowLegend {
		f.writeLegend(writer)
	}

	fmt.Fprintln(writer, "}")
	return nil
}

// writeMethod writes one graph as a cluster. Node IDs carry the method
// index so blocks of different methods never collide.
func (f *DOTFormatter) writeMethod(writer io.Writer, index int, m domain.MethodGraph) {
	prefix := fmt.Sprintf("m%d_%s", index, escapeDOTID(m.Method))

	fmt.Fprintf(writer, "    // %s\n", m.Method)
	fmt.Fprintf(writer, "    subgraph cluster_%d {\n", index)
	fmt.Fprintf(writer, "        label=\"%s\";\n", escapeDOTLabel(m.Method))
	fmt.Fprintln(writer, "        color=\"#CCCCCC\";")
	if len(m.Violations) > 0 {
		fmt.Fprintf(writer, "        tooltip=\"%s\";\n", escapeDOTLabel(strings.Join(m.Violations, "\n")))
		fmt.Fprintln(writer, "        color=\"#DC143C\";")
	}
	fmt.Fprintln(writer)

	for _, b := range m.Blocks {
		f.writeNode(writer, prefix, b)
	}
	fmt.Fprintln(writer)

	for _, b := range m.Blocks {
		for _, e := range b.Successors {
			f.writeEdge(writer, prefix, b.ID, e)
		}
	}
	fmt.Fprintln(writer, "    }")
}

// writeNode writes a single block in DOT format
func (f *DOTFormatter) writeNode(writer io.Writer, prefix string, b domain.BlockInfo) {
	style, ok := nodeStyles[b.Kind]
	if !ok {
		style = nodeStyles["simple"]
	}

	label := fmt.Sprintf("b%d %s", b.ID, b.Kind)
	if len(b.CaughtTypes) > 0 {
		label += "\n" + strings.Join(b.CaughtTypes, ", ")
	}
	if f.config.ShowElements {
		for _, e := range b.Elements {
			label += "\n" + e
		}
	}

	fmt.Fprintf(writer, "        %s_b%d [label=\"%s\", shape=%s, fillcolor=\"%s\", color=\"%s\"];\n",
		prefix, b.ID, escapeDOTLabel(label), style.shape, style.fill, style.border)
}

// writeEdge writes a single successor edge in DOT format
func (f *DOTFormatter) writeEdge(writer io.Writer, prefix string, from int, e domain.Edge) {
	style, ok := edgeStyles[e.Role]
	if !ok {
		style = edgeStyles[domain.EdgeNext]
	}

	fmt.Fprintf(writer, "        %s_b%d -> %s_b%d [style=%s, color=\"%s\"",
		prefix, from, prefix, e.Target, style.style, style.color)
	if e.Role != domain.EdgeNext {
		fmt.Fprintf(writer, ", label=\"%s\"", e.Role)
	}
	fmt.Fprintln(writer, "];")
}

// writeLegend writes the legend subgraph
func (f *DOTFormatter) writeLegend(writer io.Writer) {
	fmt.Fprintln(writer, "    // Legend")
	fmt.Fprintln(writer, "    subgraph cluster_legend {")
	fmt.Fprintln(writer, "        label=\"Legend\";")
	fmt.Fprintln(writer, "        style=filled;")
	fmt.Fprintln(writer, "        fillcolor=\"#F5F5F5\";")
	fmt.Fprintln(writer, "        color=\"#CCCCCC\";")
	fmt.Fprintln(writer, "        fontsize=10;")
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "        // Edge roles")
	for _, role := range []domain.EdgeRole{
		domain.EdgeTrue, domain.EdgeFalse, domain.EdgeCase, domain.EdgeUnhandled, domain.EdgeCatch,
	} {
		style := edgeStyles[role]
		fmt.Fprintf(writer, "        legend_%s_a [label=\"\", style=invis, width=0, height=0];\n", role)
		fmt.Fprintf(writer, "        legend_%s_b [label=\"%s\", style=invis, width=0, height=0];\n", role, role)
		fmt.Fprintf(writer, "        legend_%s_a -> legend_%s_b [style=%s, color=\"%s\", label=\"%s\"];\n",
			role, role, style.style, style.color, role)
	}
	fmt.Fprintln(writer, "    }")
}

// escapeDOTID escapes a string for use as a DOT node ID
func escapeDOTID(id string) string {
	// Replace characters that are problematic in DOT IDs
	replacer := strings.NewReplacer(
		"/", "__",
		".", "_",
		"-", "_",
		"$", "_",
		"<", "_",
		">", "_",
		" ", "_",
		":", "_",
		"(", "_",
		")", "_",
		"[", "_",
		"]", "_",
		"{", "_",
		"}", "_",
	)
	escaped := replacer.Replace(id)

	// Ensure it starts with a letter or underscore
	if len(escaped) > 0 && !isValidDOTIDStart(escaped[0]) {
		escaped = "_" + escaped
	}

	return escaped
}

// escapeDOTLabel escapes a string for use as a DOT label
func escapeDOTLabel(label string) string {
	// Note: backslash must be first to avoid double-escaping
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
		"\r", "",
		"\t", "\\t",
	)
	return replacer.Replace(label)
}

// isValidDOTIDStart checks if a character can start a DOT ID
func isValidDOTIDStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
