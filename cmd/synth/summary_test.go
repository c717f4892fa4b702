package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm/synth"
)

func fanout(t *testing.T) []byte {
	t.Helper()
	data, err := synth.ImportFanout(context.Background(), "env", 2)
	if err != nil {
		t.Fatalf("ImportFanout: %v", err)
	}
	return data
}

func TestSummarize(t *testing.T) {
	s, err := summarize(fanout(t))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if len(s.funcs) != 3 {
		t.Fatalf("funcs = %d, want 3", len(s.funcs))
	}
	if !s.funcs[0].imported || s.funcs[0].name != "env.f0" {
		t.Errorf("funcs[0] = %+v", s.funcs[0])
	}
	run := s.funcs[2]
	if run.imported || run.index != 2 || run.arity != 1 || run.name != "run" {
		t.Errorf("run = %+v", run)
	}
	if len(run.exports) != 1 || run.exports[0] != "run" {
		t.Errorf("run exports = %v", run.exports)
	}
	if len(run.body) == 0 {
		t.Error("run body not disassembled")
	}
	if len(run.callees) != 2 || run.callees[0] != 0 || run.callees[1] != 1 {
		t.Errorf("run callees = %v, want [0 1]", run.callees)
	}
	if !strings.Contains(s.meta, "interface version") {
		t.Errorf("meta = %q", s.meta)
	}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()
	for _, want := range []string{"contractenvmetav0", "import", "2 run(i64) -> i64 [run]", "calls 0, 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummarize_Invalid(t *testing.T) {
	_, err := summarize([]byte("not wasm"))
	if err == nil {
		t.Fatal("expected error")
	}
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Phase != errors.PhaseDecode {
		t.Errorf("error = %v, want decode phase", err)
	}
}

func TestSummarize_UnexportedAndRepeatedCalls(t *testing.T) {
	b := synth.NewModuleBuilder()
	f := b.Func(0, 0)
	f.I64Const(1)
	helper, b := f.Finish()

	g := b.Func(0, 0)
	g.Call(helper).Call(helper).I64Add()
	_, b = g.Finish()

	s, err := summarize(b.MustFinish(context.Background()))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.funcs[0].name != "func[0]" || len(s.funcs[0].callees) != 0 {
		t.Errorf("funcs[0] = %+v", s.funcs[0])
	}
	if got := s.funcs[1].callees; len(got) != 1 || got[0] != 0 {
		t.Errorf("funcs[1] callees = %v, want [0]", got)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	recipePath := filepath.Join(dir, "r.yaml")
	src := "name: r\nmeta: {interface_version: 3}\nfuncs:\n  - {name: f, arity: 0, body: [i64.const 1]}\nexports:\n  - {func: f, name: run}\n"
	if err := os.WriteFile(recipePath, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "nested", "out.wasm")

	if err := run("", recipePath, "", out, false, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s, err := summarize(data)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(s.meta, "interface version 3 ") {
		t.Errorf("recipe metadata not kept: %q", s.meta)
	}

	if err := run("", "", "nope", out, false, false); err == nil {
		t.Error("expected error for unknown preset")
	}
	if err := run("", "", "countdown-loop", out, false, false); err != nil {
		t.Errorf("preset: %v", err)
	}
}

func TestPresetNames(t *testing.T) {
	names := presetNames()
	if len(names) != len(synth.Presets()) {
		t.Fatalf("names = %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInteractiveModel(t *testing.T) {
	m := newInteractiveModel("fanout", fanout(t))
	if !strings.Contains(m.View(), "Decoding") {
		t.Error("expected loading view")
	}

	m.Update(m.load())
	if len(m.visible) != 3 {
		t.Fatalf("visible = %v", m.visible)
	}

	m.Update(key("down"))
	m.Update(key("down"))
	m.Update(key("enter"))
	if m.state != stateShowBody {
		t.Fatalf("state = %v", m.state)
	}
	if !strings.Contains(m.View(), "call") {
		t.Errorf("body view missing call:\n%s", m.View())
	}
	m.Update(key("esc"))

	m.Update(key("/"))
	if m.state != stateFilter {
		t.Fatalf("state = %v, want filter", m.state)
	}
	m.Update(key("f1"))
	m.Update(key("enter"))
	if len(m.visible) != 1 || m.summary.funcs[m.visible[0]].name != "env.f1" {
		t.Errorf("filtered = %v", m.visible)
	}
	if m.selected != 0 {
		t.Errorf("selected = %d", m.selected)
	}

	m.Update(key("esc"))
	if len(m.visible) != 3 {
		t.Errorf("filter not cleared: %v", m.visible)
	}
}
