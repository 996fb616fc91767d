package resolver

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/syssam/edmx"
)

// Option configures a Config.
type Option func(*Config) error

// WithRoot replaces the root resolver of the defaults.
func WithRoot(r Resolver) Option {
	return func(c *Config) error {
		if r == nil {
			return edmx.Nil("root")
		}
		c.root = r
		return nil
	}
}

// WithResolvers adds resolvers to the primary chain in order.
func WithResolvers(rs ...Resolver) Option {
	return func(c *Config) error {
		for _, r := range rs {
			if err := c.AddDependencyResolver(r, false); err != nil {
				return err
			}
		}
		return nil
	}
}

// Config is the dependency configuration of a model builder. Resolvers are
// registered during setup; the configuration is locked by an explicit call
// to Lock or by the first resolution, after which registrations fail with an
// edmx.LockedError.
//
// Resolution consults, in order, the override chain, the primary chain, the
// secondary chain and the root defaults.
type Config struct {
	mu        sync.Mutex
	overrides *Chain
	primary   *Chain
	secondary *Chain
	root      Resolver
	snapshot  atomic.Pointer[Snapshot]
}

// NewConfig returns a new unlocked configuration backed by the root
// defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		overrides: NewChain(),
		primary:   NewChain(),
		secondary: NewChain(),
		root:      NewRoot(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddDependencyResolver registers r. Override resolvers take precedence over
// all other registrations; otherwise r is added to the primary chain. Within
// a chain the most recently added resolver wins.
func (c *Config) AddDependencyResolver(r Resolver, override bool) error {
	if r == nil {
		return edmx.Nil("resolver")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot.Load() != nil {
		return edmx.NewLockedError("AddDependencyResolver")
	}
	if override {
		c.overrides.Add(r)
	} else {
		c.primary.Add(r)
	}
	return nil
}

// AddSecondaryResolver registers r on the secondary chain, consulted after
// the primary chain and before the root defaults. Providers use it to
// register their default services.
func (c *Config) AddSecondaryResolver(r Resolver) error {
	if r == nil {
		return edmx.Nil("resolver")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot.Load() != nil {
		return edmx.NewLockedError("AddSecondaryResolver")
	}
	c.secondary.Add(r)
	return nil
}

// Lock locks the configuration and returns its snapshot. Locking is
// terminal and idempotent.
func (c *Config) Lock() *Snapshot {
	if s := c.snapshot.Load(); s != nil {
		return s
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.snapshot.Load(); s != nil {
		return s
	}
	var rs []Resolver
	rs = append(rs, c.overrides.Resolvers()...)
	rs = append(rs, c.primary.Resolvers()...)
	rs = append(rs, c.secondary.Resolvers()...)
	rs = append(rs, c.root)
	s := &Snapshot{resolvers: rs}
	c.snapshot.Store(s)
	return s
}

// Locked reports whether the configuration is locked.
func (c *Config) Locked() bool {
	return c.snapshot.Load() != nil
}

// Snapshot locks the configuration and returns its immutable snapshot.
func (c *Config) Snapshot() *Snapshot {
	return c.Lock()
}

// GetService locks the configuration and resolves from its snapshot.
func (c *Config) GetService(t reflect.Type, key any) any {
	return c.Lock().GetService(t, key)
}

// GetServices locks the configuration and resolves from its snapshot.
func (c *Config) GetServices(t reflect.Type, key any) []any {
	return c.Lock().GetServices(t, key)
}

// Snapshot is the immutable, flattened resolver list of a locked Config.
// It is safe for concurrent use.
type Snapshot struct {
	resolvers []Resolver
}

// Len returns the number of resolvers consulted, including the root.
func (s *Snapshot) Len() int { return len(s.resolvers) }

// GetService returns the first service supplied by the resolvers.
func (s *Snapshot) GetService(t reflect.Type, key any) any {
	for _, r := range s.resolvers {
		if v := r.GetService(t, key); v != nil {
			return v
		}
	}
	return nil
}

// GetServices concatenates the services of all resolvers in resolution
// order.
func (s *Snapshot) GetServices(t reflect.Type, key any) []any {
	var all []any
	for _, r := range s.resolvers {
		all = append(all, r.GetServices(t, key)...)
	}
	return all
}
