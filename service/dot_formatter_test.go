package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ludo-technologies/bcfg/domain"
)

func TestEscapeDOTID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "qualified method",
			input:    "com.example.Foo.bar",
			expected: "com_example_Foo_bar",
		},
		{
			name:     "constructor",
			input:    "Foo.<init>",
			expected: "Foo__init_",
		},
		{
			name:     "inner class",
			input:    "Foo$Inner.run",
			expected: "Foo_Inner_run",
		},
		{
			name:     "path",
			input:    "src/fixtures/a-b",
			expected: "src__fixtures__a_b",
		},
		{
			name:     "starts with number",
			input:    "123abc",
			expected: "_123abc",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := escapeDOTID(tc.input)
			if result != tc.expected {
				t.Errorf("escapeDOTID(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestEscapeDOTLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple string",
			input:    "hello",
			expected: "hello",
		},
		{
			name:     "string with quotes",
			input:    `x = "s"`,
			expected: `x = \"s\"`,
		},
		{
			name:     "string with newline",
			input:    "b2 conditional\nif cond",
			expected: `b2 conditional\nif cond`,
		},
		{
			name:     "string with backslash",
			input:    `path\to\file`,
			expected: `path\\to\\file`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := escapeDOTLabel(tc.input)
			if result != tc.expected {
				t.Errorf("escapeDOTLabel(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestDOTFormatterBasic(t *testing.T) {
	formatter := NewDOTFormatter(nil)

	out, err := formatter.FormatBuild(sampleResponse())
	if err != nil {
		t.Fatalf("FormatBuild failed: %v", err)
	}

	for _, want := range []string{
		"digraph cfg {",
		"rankdir=TB;",
		"subgraph cluster_0 {",
		`label="Foo.choose";`,
		`m0_Foo_choose_b0 [label="b0 entry", shape=circle`,
		`m0_Foo_choose_b1 [label="b1 exit", shape=doublecircle`,
		`m0_Foo_choose_b2 [label="b2 conditional", shape=diamond`,
		`m0_Foo_choose_b0 -> m0_Foo_choose_b2 [style=solid, color="#000000"];`,
		`m0_Foo_choose_b2 -> m0_Foo_choose_b3 [style=solid, color="#228B22", label="true"];`,
		`m0_Foo_choose_b2 -> m0_Foo_choose_b4 [style=solid, color="#DC143C", label="false"];`,
		"subgraph cluster_legend {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output should contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "if cond") {
		t.Error("elements should be hidden by default")
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "}") {
		t.Error("DOT output should end with a closing brace")
	}
}

func TestDOTFormatterShowElements(t *testing.T) {
	formatter := NewDOTFormatter(&DOTFormatterConfig{RankDir: "TB", ShowElements: true})

	out, err := formatter.FormatBuild(sampleResponse())
	if err != nil {
		t.Fatalf("FormatBuild failed: %v", err)
	}
	if !strings.Contains(out, `label="b2 conditional\nif cond"`) {
		t.Errorf("elements should be part of the label\n%s", out)
	}
	if strings.Contains(out, "cluster_legend") {
		t.Error("legend should be omitted when disabled")
	}
}

func TestDOTFormatterExceptionEdges(t *testing.T) {
	resp := &domain.BuildResponse{
		Methods: []domain.MethodGraph{{
			Method: "Bar.retry",
			Blocks: []domain.BlockInfo{
				{ID: 3, Kind: "catch", CaughtTypes: []string{"java.lang.Exception"}},
				{ID: 4, Kind: "throwing-expression", Successors: []domain.Edge{
					{Target: 5, Role: domain.EdgeNext},
					{Target: 1, Role: domain.EdgeUnhandled},
					{Target: 3, Role: domain.EdgeCatch},
				}},
			},
		}},
	}

	out, err := NewDOTFormatter(nil).FormatBuild(resp)
	if err != nil {
		t.Fatalf("FormatBuild failed: %v", err)
	}
	for _, want := range []string{
		`label="b3 catch\njava.lang.Exception"`,
		`m0_Bar_retry_b4 -> m0_Bar_retry_b1 [style=dotted, color="#696969", label="unhandled"];`,
		`m0_Bar_retry_b4 -> m0_Bar_retry_b3 [style=dashed, color="#FF8C00", label="catch"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output should contain %q\n%s", want, out)
		}
	}
}

func TestDOTFormatterSeparatesMethods(t *testing.T) {
	resp := sampleResponse()
	second := resp.Methods[0]
	second.Method = "Foo.other"
	resp.Methods = append(resp.Methods, second)

	out, err := NewDOTFormatter(nil).FormatBuild(resp)
	if err != nil {
		t.Fatalf("FormatBuild failed: %v", err)
	}
	if !strings.Contains(out, "subgraph cluster_1 {") || !strings.Contains(out, "m1_Foo_other_b0") {
		t.Errorf("each method should get its own cluster\n%s", out)
	}
}

func TestDOTFormatterViolations(t *testing.T) {
	resp := sampleResponse()
	resp.Methods[0].Violations = []string{`block b2: "bad"`}

	out, err := NewDOTFormatter(nil).FormatBuild(resp)
	if err != nil {
		t.Fatalf("FormatBuild failed: %v", err)
	}
	if !strings.Contains(out, `tooltip="block b2: \"bad\""`) {
		t.Errorf("violations should be attached to the cluster\n%s", out)
	}
}

func TestDOTFormatterNilResponse(t *testing.T) {
	if _, err := NewDOTFormatter(nil).FormatBuild(nil); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestDOTFormatterRankDir(t *testing.T) {
	for _, dir := range []string{"TB", "LR", "BT", "RL"} {
		t.Run(dir, func(t *testing.T) {
			out, err := NewDOTFormatter(&DOTFormatterConfig{RankDir: dir}).FormatBuild(sampleResponse())
			if err != nil {
				t.Fatalf("FormatBuild failed: %v", err)
			}
			if !strings.Contains(out, "rankdir="+dir+";") {
				t.Errorf("expected rankdir=%s", dir)
			}
		})
	}
}

func TestDOTFormatterInvalidRankDir(t *testing.T) {
	var buf bytes.Buffer
	err := NewDOTFormatter(&DOTFormatterConfig{RankDir: "UP"}).WriteBuild(sampleResponse(), &buf)
	if err == nil {
		t.Fatal("expected error for invalid rank direction")
	}
	if !strings.Contains(err.Error(), "invalid rank direction") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDOTFormatterEmptyBuild(t *testing.T) {
	out, err := NewDOTFormatter(nil).FormatBuild(&domain.BuildResponse{})
	if err != nil {
		t.Fatalf("FormatBuild failed: %v", err)
	}
	if !strings.Contains(out, "No methods were built") {
		t.Errorf("empty build should say so\n%s", out)
	}
}
