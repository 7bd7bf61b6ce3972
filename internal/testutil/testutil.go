// Package testutil provides fixtures and helpers for testing bcfg components
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/bcfg/internal/legacy"
)

// ChooseFixture holds an if/else method and a method without blocks
const ChooseFixture = `
class: Foo
methods:
  - name: choose
    static: true
    params: [{name: cond, type: boolean}]
    blocks:
      - {name: test, kind: conditional, succ: [one, two], stmts: [{if: {param: cond}}]}
      - {name: one, kind: return, stmts: [{return: {lit: 1}}]}
      - {name: two, kind: return, stmts: [{return: {lit: 2}}]}
  - name: nothing
`

// RetryFixture holds a method whose call and throw are covered by one handler
const RetryFixture = `
class: Bar
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
        stmts: [{expr: {call: {owner: Bar, name: run, desc: "()V", instance: {this: this}}}}]
      - name: done
        kind: pei
        succ: [handler]
        stmts: [{throw: {new: java.lang.Exception}}]
`

// MalformedFixture holds a conditional with a single successor, which
// cannot be built
const MalformedFixture = `
class: Baz
methods:
  - name: bad
    static: true
    params: [{name: c, type: boolean}]
    blocks:
      - {name: b, kind: conditional, succ: [exit], stmts: [{if: {param: c}}]}
`

// BrokenFixture is not valid YAML
const BrokenFixture = "class: [unterminated\n"

// WriteFixture writes content to dir/name and returns the path
func WriteFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

// WriteFixtures writes every name/content pair into a fresh temporary
// directory and returns it
func WriteFixtures(t *testing.T, fixtures map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range fixtures {
		WriteFixture(t, dir, name, content)
	}
	return dir
}

// DecodeMethods decodes a fixture document, failing the test on error
func DecodeMethods(t *testing.T, src string) []*legacy.Method {
	t.Helper()
	methods, err := legacy.Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Failed to decode fixture: %v", err)
	}
	return methods
}
