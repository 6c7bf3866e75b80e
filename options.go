package pgpipe

import (
	"log/slog"

	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// Option configures a Connection, following the teacher's OptionFn(*Server)
// functional-option shape (SPEC_FULL.md §1a Ambient Stack).
type Option func(*Connection)

// WithLogger overrides the connection's logger. The default is
// slog.Default(), matching the teacher's NewServer default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithTypeRegistry seeds the connection with a pre-populated OID map,
// useful for sharing discovered composite types across connections that
// were established against the same schema.
func WithTypeRegistry(reg *oidmap.Map) Option {
	return func(c *Connection) {
		c.types = reg
	}
}

// PoolOption configures a Pool, mirroring Option's shape for the pool's
// own construction-time knobs.
type PoolOption func(*Pool)

// WithPoolLogger overrides the pool's logger. The default is
// slog.Default().
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithPoolSize overrides the pool's maximum number of concurrently
// acquired connections. The default is 4.
func WithPoolSize(n int64) PoolOption {
	return func(p *Pool) {
		p.maxSize = n
	}
}

// WithConnectionOptions applies the given Connection options to every
// connection the pool establishes.
func WithConnectionOptions(opts ...Option) PoolOption {
	return func(p *Pool) {
		p.connOptions = append(p.connOptions, opts...)
	}
}
