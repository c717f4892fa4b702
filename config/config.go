// Package config loads wasm-synth CLI settings.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/wasm/synth"
)

// EnvPrefix prefixes environment overrides, e.g. WASM_SYNTH_LOG_LEVEL.
const EnvPrefix = "WASM_SYNTH"

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Output   string         `mapstructure:"output"`
	Meta     MetaConfig     `mapstructure:"meta"`
	Validate ValidateConfig `mapstructure:"validate"`
}

// MetaConfig controls the metadata custom section.
type MetaConfig struct {
	// Interface version written into the default metadata payload.
	InterfaceVersion uint64 `mapstructure:"interface_version"`
}

// ValidateConfig selects the validators run on finished modules.
type ValidateConfig struct {
	Structural bool `mapstructure:"structural"`
	Wazero     bool `mapstructure:"wazero"`
}

// Load reads configuration from path, if set, over the defaults.
// Environment variables take precedence over both.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("output", "out.wasm")
	v.SetDefault("meta.interface_version", synth.DefaultInterfaceVersion)
	v.SetDefault("validate.structural", true)
	v.SetDefault("validate.wazero", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Load("read config "+path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Load("decode config", err)
	}

	if _, err := zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path("log_level").
			Value(cfg.LogLevel).
			Cause(err).
			Detail("unknown log level").
			Build()
	}

	return &cfg, nil
}

// Validator returns the validator chain selected by the config, or nil
// when every validator is disabled.
func (c *Config) Validator() synth.Validator {
	var chain synth.ChainValidator
	if c.Validate.Structural {
		chain = append(chain, synth.StructuralValidator{})
	}
	if c.Validate.Wazero {
		chain = append(chain, synth.WazeroValidator{})
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

// BuilderOptions returns the module builder options the config implies.
func (c *Config) BuilderOptions(logger *zap.Logger) []synth.Option {
	return []synth.Option{
		synth.WithMetadata(synth.EnvMetaInterfaceVersion(c.Meta.InterfaceVersion)),
		synth.WithValidator(c.Validator()),
		synth.WithLogger(logger),
	}
}

// NewLogger builds a zap logger at the configured level. Debug level uses
// the development encoder.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if level.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
