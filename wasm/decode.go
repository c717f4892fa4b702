package wasm

import (
	"errors"
	"fmt"

	"github.com/wippyai/wasm-synth/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic       = errors.New("invalid wasm magic number")
	ErrInvalidVersion     = errors.New("invalid wasm version")
	ErrUnsupportedSection = errors.New("unsupported section")
)

// ParseModule parses a WebAssembly binary module.
// Sections outside the synthesized subset fail with ErrUnsupportedSection.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}

	// Known sections must appear at most once and in increasing ID order
	// (DataCount sits between Element and Code).
	var lastSectionOrder int

	for r.Len() > 0 {
		offset := r.Position()
		sectionID, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("section header", err)
		}

		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order <= lastSectionOrder {
				return nil, fmt.Errorf("section %s appears out of order", SectionName(sectionID))
			}
			lastSectionOrder = order
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}

		sr, err := r.Sub(int(sectionSize))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}

		info := SectionInfo{ID: sectionID, Offset: offset, Size: int(sectionSize)}
		name := SectionName(sectionID)

		switch sectionID {
		case SectionCustom:
			err = parseCustomSection(sr, m)
			if err == nil {
				info.Name = m.CustomSections[len(m.CustomSections)-1].Name
			}
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionImport:
			err = parseImportSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionCode:
			err = parseCodeSection(sr, m)
		case SectionTable, SectionGlobal, SectionStart, SectionElement, SectionData, SectionDataCount:
			return nil, fmt.Errorf("%s section: %w", name, ErrUnsupportedSection)
		default:
			return nil, fmt.Errorf("unknown section ID: 0x%02x", sectionID)
		}
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", name, err)
		}
		if sr.Len() != 0 {
			return nil, sr.WrapError(name, fmt.Errorf("%d trailing bytes", sr.Len()))
		}

		m.Layout = append(m.Layout, info)
	}

	return m, nil
}

// sectionOrder returns the canonical ordering for a section ID.
func sectionOrder(id byte) int {
	if id == SectionDataCount {
		return int(SectionElement)*2 + 1
	}
	return int(id) * 2
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: r.ReadRemaining(),
	})
	return nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return fmt.Errorf("type %d: unsupported type form 0x%02x", i, form)
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadBytes(int(count))
	if err != nil {
		return nil, err
	}
	types := make([]ValType, count)
	for i, b := range raw {
		vt, err := readValType(b)
		if err != nil {
			return nil, err
		}
		types[i] = vt
	}
	return types, nil
}

func readValType(b byte) (ValType, error) {
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64:
		return ValType(b), nil
	default:
		return 0, fmt.Errorf("unsupported value type 0x%02x", b)
	}
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Imports = make([]Import, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}

		imp := Import{Module: module, Name: name, Desc: ImportDesc{Kind: kind}}

		switch kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		case KindMemory:
			memory, err := readMemoryType(r)
			if err != nil {
				return err
			}
			imp.Desc.Memory = &memory
		case KindTable, KindGlobal:
			return fmt.Errorf("import %s.%s: kind %d: %w", module, name, kind, ErrUnsupportedSection)
		default:
			return fmt.Errorf("unknown import kind: %d", kind)
		}

		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Funcs = append(m.Funcs, idx)
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Memories = make([]MemoryType, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		mem, err := readMemoryType(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, mem)
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Exports = make([]Export, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, 0, min(count, uint32(r.Len())))
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.ReadU32()
		if err != nil {
			return err
		}
		br, err := r.Sub(int(bodySize))
		if err != nil {
			return err
		}

		groups, err := br.ReadU32()
		if err != nil {
			return err
		}
		var locals []LocalEntry
		for j := uint32(0); j < groups; j++ {
			n, err := br.ReadU32()
			if err != nil {
				return err
			}
			b, err := br.ReadByte()
			if err != nil {
				return err
			}
			vt, err := readValType(b)
			if err != nil {
				return fmt.Errorf("function %d local group %d: %w", i, j, err)
			}
			locals = append(locals, LocalEntry{Count: n, ValType: vt})
		}

		m.Code = append(m.Code, FuncBody{Locals: locals, Code: br.ReadRemaining()})
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	if flags&^(LimitsHasMax|LimitsShared|LimitsMemory64) != 0 {
		return Limits{}, fmt.Errorf("invalid limits flags 0x%02x", flags)
	}

	l := Limits{
		Shared:   flags&LimitsShared != 0,
		Memory64: flags&LimitsMemory64 != 0,
	}

	read := r.ReadU64
	if !l.Memory64 {
		read = func() (uint64, error) {
			v, err := r.ReadU32()
			return uint64(v), err
		}
	}

	if l.Min, err = read(); err != nil {
		return Limits{}, err
	}
	if flags&LimitsHasMax != 0 {
		maxVal, err := read()
		if err != nil {
			return Limits{}, err
		}
		l.Max = &maxVal
	}

	if l.Max != nil && l.Min > *l.Max {
		return Limits{}, fmt.Errorf("limits min (%d) exceeds max (%d)", l.Min, *l.Max)
	}

	return l, nil
}

func readMemoryType(r *binary.Reader) (MemoryType, error) {
	limits, err := readLimits(r)
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: limits}, nil
}
