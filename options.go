package softvk

import (
	"log/slog"

	"github.com/gogpu/softvk/internal/raster"
)

// UniformInit selects when uniform values are reloaded from bound memory.
type UniformInit = raster.UniformInit

const (
	// UniformInitEveryDraw reloads uniforms before every Draw and
	// DrawIndexed. This is the default.
	UniformInitEveryDraw = raster.UniformInitEveryDraw
	// UniformInitIndexedOnly reloads uniforms before DrawIndexed only.
	// Non-indexed draws see whatever the shader fields held before.
	UniformInitIndexedOnly = raster.UniformInitIndexedOnly
)

// Option configures a Queue or CommandBuffer during creation.
//
// Example:
//
//	q := softvk.NewQueue(softvk.WithLogger(logger))
//	cb := q.NewCommandBuffer(softvk.WithUniformInit(softvk.UniformInitIndexedOnly))
type Option func(*options)

// options holds optional configuration shared by queues and command buffers.
type options struct {
	uniformInit UniformInit
	logger      *slog.Logger
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		uniformInit: UniformInitEveryDraw,
		logger:      nil, // falls back to Logger()
	}
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// log returns the configured logger or the package logger.
func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}

// WithUniformInit sets the uniform reload policy of draws prepared by a
// command buffer. Set on a Queue, it becomes the default for command
// buffers created from that queue.
func WithUniformInit(u UniformInit) Option {
	return func(o *options) {
		o.uniformInit = u
	}
}

// WithLogger sets the logger used for command buffer and queue
// diagnostics instead of the package logger. Internal pipeline stages keep
// logging through the package logger set with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
