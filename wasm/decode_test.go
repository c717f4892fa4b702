package wasm_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-synth/wasm"
)

var header = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func withHeader(sections ...byte) []byte {
	return append(append([]byte{}, header...), sections...)
}

func TestParseModuleHeader(t *testing.T) {
	if _, err := wasm.ParseModule([]byte{0x00, 0x61, 0x73, 0x6E, 0x01, 0, 0, 0}); !errors.Is(err, wasm.ErrInvalidMagic) {
		t.Errorf("bad magic: got %v", err)
	}
	if _, err := wasm.ParseModule([]byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0, 0, 0}); !errors.Is(err, wasm.ErrInvalidVersion) {
		t.Errorf("bad version: got %v", err)
	}
	if _, err := wasm.ParseModule(header[:6]); err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestParseModuleSectionOrder(t *testing.T) {
	data := withHeader(
		wasm.SectionMemory, 0x03, 0x01, 0x00, 0x01,
		wasm.SectionType, 0x01, 0x00,
	)
	_, err := wasm.ParseModule(data)
	if err == nil || !strings.Contains(err.Error(), "out of order") {
		t.Errorf("expected out of order error, got %v", err)
	}
}

func TestParseModuleDuplicateSection(t *testing.T) {
	data := withHeader(
		wasm.SectionType, 0x01, 0x00,
		wasm.SectionType, 0x01, 0x00,
	)
	if _, err := wasm.ParseModule(data); err == nil {
		t.Error("expected error for duplicate type section")
	}
}

func TestParseModuleCustomSectionsAnywhere(t *testing.T) {
	data := withHeader(
		wasm.SectionCustom, 0x03, 0x01, 'a', 0x01,
		wasm.SectionType, 0x01, 0x00,
		wasm.SectionCustom, 0x02, 0x01, 'b',
	)
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if len(m.CustomSections) != 2 || m.CustomSections[0].Name != "a" || m.CustomSections[1].Name != "b" {
		t.Errorf("custom sections: got %+v", m.CustomSections)
	}
	if len(m.Layout) != 3 {
		t.Fatalf("layout: got %d entries, want 3", len(m.Layout))
	}
	if m.Layout[0].Name != "a" || m.Layout[0].Offset != 8 || m.Layout[0].Size != 3 {
		t.Errorf("layout[0]: got %+v", m.Layout[0])
	}
	if m.Layout[1].ID != wasm.SectionType || m.Layout[1].Offset != 13 {
		t.Errorf("layout[1]: got %+v", m.Layout[1])
	}
}

func TestParseModuleUnsupportedSection(t *testing.T) {
	data := withHeader(wasm.SectionGlobal, 0x01, 0x00)
	if _, err := wasm.ParseModule(data); !errors.Is(err, wasm.ErrUnsupportedSection) {
		t.Errorf("expected ErrUnsupportedSection, got %v", err)
	}
}

func TestParseModuleTrailingBytes(t *testing.T) {
	data := withHeader(wasm.SectionType, 0x02, 0x00, 0xFF)
	_, err := wasm.ParseModule(data)
	if err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Errorf("expected trailing bytes error, got %v", err)
	}
}

func TestParseModuleTruncatedSection(t *testing.T) {
	data := withHeader(wasm.SectionType, 0x05, 0x01)
	if _, err := wasm.ParseModule(data); err == nil {
		t.Error("expected error for truncated section")
	}
}

func TestParseModuleLimits(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantErr bool
		min     uint64
		hasMax  bool
	}{
		{name: "min only", payload: []byte{0x01, 0x00, 0x01}, min: 1},
		{name: "min and max", payload: []byte{0x01, 0x01, 0x01, 0x02}, min: 1, hasMax: true},
		{name: "min over max", payload: []byte{0x01, 0x01, 0x03, 0x02}, wantErr: true},
		{name: "bad flags", payload: []byte{0x01, 0x08, 0x01}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withHeader(append([]byte{wasm.SectionMemory, byte(len(tt.payload))}, tt.payload...)...)
			m, err := wasm.ParseModule(data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModule: %v", err)
			}
			lim := m.Memories[0].Limits
			if lim.Min != tt.min || (lim.Max != nil) != tt.hasMax {
				t.Errorf("limits: got %+v", lim)
			}
		})
	}
}

func TestGetFuncType(t *testing.T) {
	m := validModule()
	if ft := m.GetFuncType(0); ft == nil || len(ft.Params) != 2 {
		t.Errorf("imported func type: got %+v", ft)
	}
	if ft := m.GetFuncType(1); ft == nil || len(ft.Params) != 0 {
		t.Errorf("local func type: got %+v", ft)
	}
	if ft := m.GetFuncType(2); ft != nil {
		t.Errorf("out of range: got %+v", ft)
	}
}
