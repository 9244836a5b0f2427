package table

import "go.uber.org/zap"

// DefaultChunkLength is the number of sample positions per chunk.
const DefaultChunkLength = 1024

type options struct {
	chunkLen int
	strict   bool
	logger   *zap.SugaredLogger
}

// Option configures Create and Open.
type Option func(*options)

// WithChunkLength sets the number of sample positions stored per chunk.
// Values below 1 select DefaultChunkLength.
func WithChunkLength(n int) Option {
	return func(o *options) { o.chunkLen = n }
}

// WithStrictNames makes Create fail with ErrAmbiguousName when a bare slot
// name is defined in more than one group.
func WithStrictNames(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{chunkLen: DefaultChunkLength}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkLen < 1 {
		o.chunkLen = DefaultChunkLength
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	return o
}
