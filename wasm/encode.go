package wasm

import (
	"github.com/wippyai/wasm-synth/wasm/internal/binary"
)

// WriteCustomSection writes a complete custom section, header included.
func WriteCustomSection(w *binary.Writer, cs CustomSection) {
	sec := binary.NewWriter()
	sec.WriteName(cs.Name)
	sec.WriteBytes(cs.Data)
	w.WriteSection(SectionCustom, sec.Bytes())
}

// WriteFuncType writes a type section entry, including the 0x60 prefix.
func WriteFuncType(w *binary.Writer, ft FuncType) {
	w.Byte(FuncTypeByte)
	writeValTypes(w, ft.Params)
	writeValTypes(w, ft.Results)
}

// WriteImport writes an import section entry.
func WriteImport(w *binary.Writer, imp Import) {
	w.WriteName(imp.Module)
	w.WriteName(imp.Name)
	w.Byte(imp.Desc.Kind)
	switch imp.Desc.Kind {
	case KindFunc:
		w.WriteU32(imp.Desc.TypeIdx)
	case KindMemory:
		if imp.Desc.Memory != nil {
			WriteMemoryType(w, *imp.Desc.Memory)
		}
	}
}

// WriteMemoryType writes a memory section entry.
func WriteMemoryType(w *binary.Writer, m MemoryType) {
	writeLimits(w, m.Limits)
}

// WriteExport writes an export section entry.
func WriteExport(w *binary.Writer, exp Export) {
	w.WriteName(exp.Name)
	w.Byte(exp.Kind)
	w.WriteU32(exp.Idx)
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteLen(len(types))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *binary.Writer, l Limits) {
	var flags byte
	if l.Max != nil {
		flags |= LimitsHasMax
	}
	if l.Shared {
		flags |= LimitsShared
	}
	if l.Memory64 {
		flags |= LimitsMemory64
	}
	w.Byte(flags)

	if l.Memory64 {
		w.WriteU64(l.Min)
		if l.Max != nil {
			w.WriteU64(*l.Max)
		}
	} else {
		w.WriteU32(uint32(l.Min))
		if l.Max != nil {
			w.WriteU32(uint32(*l.Max))
		}
	}
}
