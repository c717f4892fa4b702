package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm"
	"github.com/wippyai/wasm-synth/wasm/synth"
)

type moduleSummary struct {
	size     int
	sections []wasm.SectionInfo
	meta     string
	funcs    []funcSummary
}

type funcSummary struct {
	name     string
	exports  []string
	body     []string
	callees  []uint32
	index    uint32
	arity    int
	locals   uint64
	imported bool
}

func summarize(data []byte) (*moduleSummary, error) {
	m, err := wasm.ParseModule(data)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "decode module")
	}

	s := &moduleSummary{size: len(data), sections: m.Layout}
	if cs, ok := m.CustomSection(synth.EnvMetaSectionName); ok {
		if v, ok := synth.ParseEnvMetaInterfaceVersion(cs.Data); ok {
			s.meta = fmt.Sprintf("interface version %d (protocol %d, pre-release %d)", v, v>>32, uint32(v))
		} else {
			s.meta = fmt.Sprintf("%d bytes", len(cs.Data))
		}
	}

	exports := make(map[uint32][]string)
	for _, exp := range m.Exports {
		if exp.Kind == wasm.KindFunc {
			exports[exp.Idx] = append(exports[exp.Idx], exp.Name)
		}
	}

	var idx uint32
	for _, imp := range m.Imports {
		if imp.Desc.Kind != wasm.KindFunc {
			continue
		}
		s.funcs = append(s.funcs, funcSummary{
			index:    idx,
			name:     imp.Module + "." + imp.Name,
			arity:    arityOf(m.GetFuncType(idx)),
			exports:  exports[idx],
			imported: true,
		})
		idx++
	}

	for i, body := range m.Code {
		lines, err := wasm.Disassemble(body.Code)
		if err != nil {
			lines = []string{fmt.Sprintf("; %v", err)}
		}
		name := m.FuncName(idx)
		if name == "" {
			name = fmt.Sprintf("func[%d]", i)
		}
		s.funcs = append(s.funcs, funcSummary{
			index:   idx,
			name:    name,
			arity:   arityOf(m.GetFuncType(idx)),
			exports: exports[idx],
			body:    lines,
			callees: callees(body.Code),
			locals:  body.NumLocals(),
		})
		idx++
	}

	return s, nil
}

// callees returns the distinct call targets of a body in first-call order.
func callees(code []byte) []uint32 {
	instrs, err := wasm.DecodeInstructions(code)
	if err != nil {
		return nil
	}
	var out []uint32
	seen := make(map[uint32]bool)
	for _, in := range instrs {
		if target, ok := in.GetCallTarget(); ok && !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}

func arityOf(ft *wasm.FuncType) int {
	if ft == nil {
		return -1
	}
	return len(ft.Params)
}

func (f funcSummary) signature() string {
	params := make([]string, f.arity)
	for i := range params {
		params[i] = "i64"
	}
	sig := fmt.Sprintf("%d %s(%s) -> i64", f.index, f.name, strings.Join(params, ", "))
	if len(f.exports) > 0 {
		sig += " [" + strings.Join(f.exports, ", ") + "]"
	}
	return sig
}

func (f funcSummary) calls() string {
	targets := make([]string, len(f.callees))
	for i, c := range f.callees {
		targets[i] = fmt.Sprint(c)
	}
	return strings.Join(targets, ", ")
}

func printSummary(w io.Writer, s *moduleSummary) {
	fmt.Fprintf(w, "Size: %d bytes\n", s.size)
	if s.meta != "" {
		fmt.Fprintf(w, "Metadata: %s\n", s.meta)
	}

	fmt.Fprintf(w, "\nSections:\n")
	for _, sec := range s.sections {
		name := wasm.SectionName(sec.ID)
		if sec.Name != "" {
			name += " " + sec.Name
		}
		fmt.Fprintf(w, "  %-28s offset %-6d size %d\n", name, sec.Offset, sec.Size)
	}

	fmt.Fprintf(w, "\nFunctions:\n")
	for _, f := range s.funcs {
		fmt.Fprintf(w, "  %s\n", f.signature())
		if len(f.callees) > 0 {
			fmt.Fprintf(w, "      calls %s\n", f.calls())
		}
	}
}
