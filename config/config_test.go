package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/wasm-synth/wasm/synth"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synth.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Output != "out.wasm" {
		t.Errorf("Output = %q, want out.wasm", cfg.Output)
	}
	if cfg.Meta.InterfaceVersion != synth.DefaultInterfaceVersion {
		t.Errorf("InterfaceVersion = %d, want %d", cfg.Meta.InterfaceVersion, synth.DefaultInterfaceVersion)
	}
	if !cfg.Validate.Structural || !cfg.Validate.Wazero {
		t.Errorf("validators should be enabled by default: %+v", cfg.Validate)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
output: build/mod.wasm
meta:
  interface_version: 7
validate:
  wazero: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Output != "build/mod.wasm" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Meta.InterfaceVersion != 7 {
		t.Errorf("InterfaceVersion = %d", cfg.Meta.InterfaceVersion)
	}
	if !cfg.Validate.Structural {
		t.Error("structural should keep its default")
	}
	if cfg.Validate.Wazero {
		t.Error("wazero should be disabled")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WASM_SYNTH_OUTPUT", "env.wasm")
	t.Setenv("WASM_SYNTH_VALIDATE_STRUCTURAL", "false")

	cfg, err := Load(writeConfig(t, "output: file.wasm\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "env.wasm" {
		t.Errorf("Output = %q, want env.wasm", cfg.Output)
	}
	if cfg.Validate.Structural {
		t.Error("structural should be disabled by env")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "log_level: loud\n")); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name       string
		structural bool
		wazero     bool
		want       int
	}{
		{"both", true, true, 2},
		{"structural", true, false, 1},
		{"wazero", false, true, 1},
		{"none", false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Validate: ValidateConfig{Structural: tt.structural, Wazero: tt.wazero}}
			v := cfg.Validator()
			if tt.want == 0 {
				if v != nil {
					t.Errorf("Validator() = %v, want nil", v)
				}
				return
			}
			chain, ok := v.(synth.ChainValidator)
			if !ok {
				t.Fatalf("Validator() = %T, want ChainValidator", v)
			}
			if len(chain) != tt.want {
				t.Errorf("len = %d, want %d", len(chain), tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := &Config{LogLevel: level}
		l, err := cfg.NewLogger()
		if err != nil {
			t.Errorf("NewLogger(%s): %v", level, err)
			continue
		}
		_ = l.Sync()
	}

	if _, err := (&Config{LogLevel: "nope"}).NewLogger(); err == nil {
		t.Error("expected error for unknown level")
	}
}
