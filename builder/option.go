package builder

import (
	"errors"
	"log/slog"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/conventions"
	"github.com/syssam/edmx/resolver"
)

// Config holds the builder configuration.
type Config struct {
	// Namespace of the conceptual model.
	Namespace string
	// DefaultSchema of tables without an explicit schema. Resolved from
	// the provider when empty.
	DefaultSchema string
	// Logger receives build progress. Resolved when nil.
	Logger *slog.Logger
	// Conventions applied by the builder. The default set when nil.
	Conventions *conventions.Set
	// Dependencies resolves the services used by the builder.
	Dependencies *resolver.Config
	// Resolvers are registered on Dependencies by New, in order.
	Resolvers []resolver.Resolver
}

// Option configures a builder.
type Option func(*Config) error

// WithNamespace sets the namespace of the conceptual model.
func WithNamespace(ns string) Option {
	return func(c *Config) error {
		if err := edmx.CheckNotEmpty("namespace", ns); err != nil {
			return err
		}
		c.Namespace = ns
		return nil
	}
}

// WithDefaultSchema sets the schema of tables without an explicit schema.
func WithDefaultSchema(schema string) Option {
	return func(c *Config) error {
		if err := edmx.CheckNotEmpty("schema", schema); err != nil {
			return err
		}
		c.DefaultSchema = schema
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return edmx.NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithConventions replaces the default convention set.
func WithConventions(s *conventions.Set) Option {
	return func(c *Config) error {
		if s == nil {
			return edmx.NewConfigError("Conventions", nil, "convention set cannot be nil")
		}
		c.Conventions = s
		return nil
	}
}

// WithDependencies sets the dependency configuration. The configuration is
// locked by the first build.
func WithDependencies(d *resolver.Config) Option {
	return func(c *Config) error {
		if d == nil {
			return edmx.NewConfigError("Dependencies", nil, "dependency configuration cannot be nil")
		}
		c.Dependencies = d
		return nil
	}
}

// WithResolver registers a dependency resolver. Resolvers registered later
// take precedence. The resolver is added to the dependency configuration
// once all options are applied, whatever the order of WithDependencies.
func WithResolver(r resolver.Resolver) Option {
	return func(c *Config) error {
		if r == nil {
			return edmx.NewConfigError("Resolver", nil, "resolver cannot be nil")
		}
		c.Resolvers = append(c.Resolvers, r)
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
