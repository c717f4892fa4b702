package wasm_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-synth/wasm"
	"github.com/wippyai/wasm-synth/wasm/internal/binary"
)

func TestWriteCustomSection(t *testing.T) {
	var w binary.Writer
	wasm.WriteCustomSection(&w, wasm.CustomSection{Name: "meta", Data: []byte{0xCA, 0xFE}})

	want := []byte{
		wasm.SectionCustom, 0x07,
		0x04, 'm', 'e', 't', 'a',
		0xCA, 0xFE,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("custom section: got %x, want %x", w.Bytes(), want)
	}
}

func TestWriteFuncType(t *testing.T) {
	var w binary.Writer
	wasm.WriteFuncType(&w, i64Func(2))

	want := []byte{wasm.FuncTypeByte, 0x02, 0x7E, 0x7E, 0x01, 0x7E}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("func type: got %x, want %x", w.Bytes(), want)
	}
}

func TestWriteImport(t *testing.T) {
	var w binary.Writer
	wasm.WriteImport(&w, wasm.Import{
		Module: "env",
		Name:   "log",
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: 3},
	})

	want := []byte{0x03, 'e', 'n', 'v', 0x03, 'l', 'o', 'g', wasm.KindFunc, 0x03}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("import: got %x, want %x", w.Bytes(), want)
	}
}

func TestWriteMemoryType(t *testing.T) {
	maxPages := uint64(4)
	tests := []struct {
		name string
		mem  wasm.MemoryType
		want []byte
	}{
		{"min only", wasm.MemoryType{Limits: wasm.Limits{Min: 1}}, []byte{wasm.LimitsNoMax, 0x01}},
		{"min and max", wasm.MemoryType{Limits: wasm.Limits{Min: 1, Max: &maxPages}}, []byte{wasm.LimitsHasMax, 0x01, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w binary.Writer
			wasm.WriteMemoryType(&w, tt.mem)
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("memory: got %x, want %x", w.Bytes(), tt.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	var w binary.Writer
	wasm.WriteExport(&w, wasm.Export{Name: "run", Kind: wasm.KindFunc, Idx: 2})

	want := []byte{0x03, 'r', 'u', 'n', wasm.KindFunc, 0x02}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("export: got %x, want %x", w.Bytes(), want)
	}
}
