package synth

import "go.uber.org/zap"

type config struct {
	logger    *zap.Logger
	validator Validator
	meta      []byte
}

// Option configures a ModuleBuilder.
type Option func(*config)

// WithMetadata replaces the payload of the metadata custom section.
// The bytes are written verbatim.
func WithMetadata(payload []byte) Option {
	return func(c *config) {
		c.meta = append([]byte(nil), payload...)
	}
}

// WithValidator sets the validator run by Finish. A nil validator
// disables validation.
func WithValidator(v Validator) Option {
	return func(c *config) {
		c.validator = v
	}
}

// WithLogger sets the builder's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func defaultConfig() config {
	return config{
		logger:    Logger(),
		validator: DefaultValidator(),
		meta:      EnvMetaInterfaceVersion(DefaultInterfaceVersion),
	}
}
