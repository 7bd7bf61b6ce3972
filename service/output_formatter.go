package service

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/bcfg/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	dot *DOTFormatter
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{dot: NewDOTFormatter(nil)}
}

// NewOutputFormatterWithDOT creates an output formatter whose DOT output
// uses cfg
func NewOutputFormatterWithDOT(cfg *DOTFormatterConfig) *OutputFormatterImpl {
	return &OutputFormatterImpl{dot: NewDOTFormatter(cfg)}
}

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data any) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data any) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Format formats the response and returns it as a string
func (f *OutputFormatterImpl) Format(response *domain.BuildResponse, format domain.OutputFormat) (string, error) {
	var sb strings.Builder
	if err := f.Write(response, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write writes the build response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.BuildResponse, format domain.OutputFormat, writer io.Writer) error {
	if response == nil {
		return fmt.Errorf("nil response")
	}
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatDOT:
		return f.dot.WriteBuild(response, writer)
	case domain.OutputFormatText, "":
		return f.writeText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeText writes the build response as plain text
func (f *OutputFormatterImpl) writeText(response *domain.BuildResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Control Flow Graphs ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n", response.Version)
	fmt.Fprintf(writer, "Duration: %dms\n\n", response.DurationMs)

	// Summary
	sum := response.Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files processed: %d\n", sum.FilesProcessed)
	fmt.Fprintf(writer, "  Methods built: %d\n", sum.MethodsBuilt)
	fmt.Fprintf(writer, "  Methods failed: %d\n", sum.MethodsFailed)
	fmt.Fprintf(writer, "  Blocks: %d\n", sum.TotalBlocks)
	fmt.Fprintf(writer, "  Elements: %d\n", sum.TotalElements)
	fmt.Fprintf(writer, "  Edges: %d\n", sum.TotalEdges)
	fmt.Fprintf(writer, "  Violations: %d\n", sum.Violations)

	for _, m := range response.Methods {
		fmt.Fprintf(writer, "\n%s (%s)\n", m.Method, m.FilePath)
		fmt.Fprintf(writer, "  %d blocks, %d elements, %d edges, %d handler contexts\n",
			m.Metrics.Blocks, m.Metrics.Elements, m.Metrics.Edges, m.Metrics.EHContexts)
		if kinds := formatKindCounts(m.Metrics.ByKind); kinds != "" {
			fmt.Fprintf(writer, "  kinds: %s\n", kinds)
		}

		for _, b := range m.Blocks {
			fmt.Fprintf(writer, "  %s\n", formatBlockLine(b))
			for _, e := range b.Elements {
				fmt.Fprintf(writer, "      %s\n", e)
			}
		}

		for _, v := range m.Violations {
			fmt.Fprintf(writer, "  [VIOLATION] %s\n", v)
		}
	}

	// Warnings
	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	// Errors
	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}

// formatBlockLine renders a block header such as
// "b3 conditional <- b2 -> true b4, false b5"
func formatBlockLine(b domain.BlockInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "b%d %s", b.ID, b.Kind)
	if len(b.CaughtTypes) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(b.CaughtTypes, ", "))
	}
	if len(b.Predecessors) > 0 {
		preds := make([]string, len(b.Predecessors))
		for i, p := range b.Predecessors {
			preds[i] = fmt.Sprintf("b%d", p)
		}
		fmt.Fprintf(&sb, " <- %s", strings.Join(preds, " "))
	}
	if len(b.Successors) > 0 {
		succs := make([]string, len(b.Successors))
		for i, e := range b.Successors {
			if e.Role == domain.EdgeNext {
				succs[i] = fmt.Sprintf("b%d", e.Target)
			} else {
				succs[i] = fmt.Sprintf("%s b%d", e.Role, e.Target)
			}
		}
		fmt.Fprintf(&sb, " -> %s", strings.Join(succs, ", "))
	}
	if b.Inverted {
		sb.WriteString(" (inverted)")
	}
	return sb.String()
}

// formatKindCounts renders block counts per kind in name order
func formatKindCounts(byKind map[string]int) string {
	names := make([]string, 0, len(byKind))
	for name := range byKind {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, byKind[name])
	}
	return strings.Join(parts, " ")
}
