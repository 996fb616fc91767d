package resolver

import (
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/pluralization"
	"github.com/syssam/edmx/provider"
)

type greeter interface{ Greet() string }

type greeting string

func (g greeting) Greet() string { return string(g) }

func TestChain(t *testing.T) {
	a := Singleton[greeter](greeting("A"), nil)
	b := Singleton[greeter](greeting("B"), nil)
	c := NewChain(a, b)
	require.Equal(t, 2, c.Len())

	g, ok := Get[greeter](c, nil)
	require.True(t, ok)
	assert.Equal(t, "B", g.Greet(), "most recently added wins")

	all := GetAll[greeter](c, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].Greet())
	assert.Equal(t, "A", all[1].Greet())

	_, ok = Get[*slog.Logger](c, nil)
	assert.False(t, ok)
	c.Add(nil)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []Resolver{b, a}, c.Resolvers())
}

func TestKeys(t *testing.T) {
	r := NewChain(
		Singleton[greeter](greeting("any"), nil),
		Singleton[greeter](greeting("pg"), "postgres"),
	)
	g, _ := Get[greeter](r, "postgres")
	assert.Equal(t, "pg", g.Greet())
	g, _ = Get[greeter](r, "mysql")
	assert.Equal(t, "any", g.Greet())
	g, _ = Get[greeter](r, []string{"not", "comparable"})
	assert.Equal(t, "any", g.Greet())
}

func TestComposite(t *testing.T) {
	first := Singleton[greeter](greeting("first"), "k")
	second := Singleton[greeter](greeting("second"), nil)
	r := Composite(first, second)
	g, _ := Get[greeter](r, "k")
	assert.Equal(t, "first", g.Greet())
	g, _ = Get[greeter](r, "other")
	assert.Equal(t, "second", g.Greet())
	assert.Len(t, r.GetServices(reflect.TypeFor[greeter](), "k"), 2)
}

func TestTransientAndFunc(t *testing.T) {
	var n atomic.Int32
	r := Transient[greeter](func() greeter {
		n.Add(1)
		return greeting("t")
	}, nil)
	Get[greeter](r, nil)
	Get[greeter](r, nil)
	assert.Equal(t, int32(2), n.Load())

	f := Func(func(t reflect.Type, key any) any {
		if key == "x" {
			return greeting("x")
		}
		return nil
	})
	assert.Len(t, f.GetServices(reflect.TypeFor[greeter](), "x"), 1)
	assert.Empty(t, f.GetServices(reflect.TypeFor[greeter](), "y"))
}

func TestCaching(t *testing.T) {
	var n atomic.Int32
	c := Caching(Transient[greeter](func() greeter {
		n.Add(1)
		return greeting("cached")
	}, nil))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, ok := Get[greeter](c, "k")
			assert.True(t, ok)
			assert.Equal(t, "cached", g.Greet())
		}()
	}
	wg.Wait()
	Get[greeter](c, "k")
	before := n.Load()
	assert.LessOrEqual(t, before, int32(8))
	Get[greeter](c, "k")
	assert.Equal(t, before, n.Load(), "constructed once per (type, key)")
	Get[greeter](c, "other")
	assert.Equal(t, before+1, n.Load())

	// Misses are cached too.
	_, ok := Get[*slog.Logger](c, "k")
	assert.False(t, ok)
}

func TestCachingOnce(t *testing.T) {
	var n int
	c := Caching(Transient[greeter](func() greeter {
		n++
		return greeting("once")
	}, nil))
	for range 3 {
		Get[greeter](c, nil)
		GetAll[greeter](c, nil)
	}
	assert.Equal(t, 2, n, "one construction for GetService and one for GetServices")
}

func TestCachingServicesCopy(t *testing.T) {
	typ := reflect.TypeFor[greeter]()
	c := Caching(NewChain(
		Singleton[greeter](greeting("a"), nil),
		Singleton[greeter](greeting("b"), nil),
		Singleton[greeter](greeting("c"), nil),
	))
	first := c.GetServices(typ, nil)
	require.Len(t, first, 3)
	first[0] = greeting("changed")
	assert.Equal(t, []any{greeting("c"), greeting("b"), greeting("a")}, c.GetServices(typ, nil))

	x := Composite(c, Singleton[greeter](greeting("x"), nil))
	y := Composite(c, Singleton[greeter](greeting("y"), nil))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"c", "b", "a", "x"}, greets(GetAll[greeter](x, nil)))
		}()
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"c", "b", "a", "y"}, greets(GetAll[greeter](y, nil)))
		}()
	}
	wg.Wait()
}

func greets(gs []greeter) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Greet()
	}
	return out
}

func TestRoot(t *testing.T) {
	r := NewRoot()
	ps, ok := Get[pluralization.Service](r, nil)
	require.True(t, ok)
	assert.Equal(t, "Blogs", ps.Pluralize("Blog"))
	_, ok = Get[provider.ConnectionFactory](r, nil)
	require.True(t, ok)
	_, ok = Get[provider.ManifestTokenResolver](r, nil)
	require.True(t, ok)
	logger, ok := Get[*slog.Logger](r, nil)
	require.True(t, ok)
	require.NotNil(t, logger)

	svc, ok := Get[provider.Services](r, "postgres")
	require.True(t, ok)
	again, _ := Get[provider.Services](r, "postgres")
	assert.Same(t, svc, again, "provider services are cached")
	_, ok = Get[provider.Services](r, "oracle")
	assert.False(t, ok)

	for key, want := range map[any]DefaultSchema{"postgres": "public", "sqlite": "main", "mysql": "", nil: "dbo", "oracle": "dbo"} {
		s, ok := Get[DefaultSchema](r, key)
		require.True(t, ok)
		assert.Equal(t, want, s, key)
	}
}

func TestConfig(t *testing.T) {
	t.Run("Order", func(t *testing.T) {
		cfg, err := NewConfig()
		require.NoError(t, err)
		require.NoError(t, cfg.AddSecondaryResolver(Singleton[greeter](greeting("secondary"), nil)))
		g, _ := Get[greeter](cloneUnlocked(t, cfg), nil)
		assert.Equal(t, "secondary", g.Greet())

		require.NoError(t, cfg.AddDependencyResolver(Singleton[greeter](greeting("A"), nil), false))
		require.NoError(t, cfg.AddDependencyResolver(Singleton[greeter](greeting("B"), nil), false))
		require.NoError(t, cfg.AddDependencyResolver(Singleton[greeter](greeting("override"), "o"), true))
		require.False(t, cfg.Locked())

		g, _ = Get[greeter](cfg, nil)
		assert.Equal(t, "B", g.Greet(), "B was registered after A")
		g, _ = Get[greeter](cfg, "o")
		assert.Equal(t, "override", g.Greet())
		assert.True(t, cfg.Locked(), "first resolution locks")

		names := GetAll[greeter](cfg, "o")
		require.Len(t, names, 4)
		assert.Equal(t, "override", names[0].Greet())
		assert.Equal(t, "secondary", names[3].Greet())

		ps, ok := Get[pluralization.Service](cfg, nil)
		require.True(t, ok, "root defaults are consulted last")
		require.NotNil(t, ps)
	})

	t.Run("Lock", func(t *testing.T) {
		cfg, err := NewConfig(WithResolvers(Singleton[greeter](greeting("A"), nil)))
		require.NoError(t, err)
		snap := cfg.Lock()
		require.True(t, cfg.Locked())
		require.Same(t, snap, cfg.Lock())
		require.Equal(t, 2, snap.Len())

		err = cfg.AddDependencyResolver(Singleton[greeter](greeting("B"), nil), false)
		require.True(t, edmx.IsLocked(err))
		require.EqualError(t, err, "edmx: cannot AddDependencyResolver: configuration is already locked")
		require.True(t, edmx.IsLocked(cfg.AddSecondaryResolver(Singleton[greeter](greeting("C"), nil))))
		require.Equal(t, 2, cfg.Snapshot().Len(), "chain composition is unchanged")
		g, _ := Get[greeter](cfg, nil)
		assert.Equal(t, "A", g.Greet())
	})

	t.Run("Nil", func(t *testing.T) {
		cfg, err := NewConfig()
		require.NoError(t, err)
		require.True(t, edmx.IsArgumentError(cfg.AddDependencyResolver(nil, false)))
		require.True(t, edmx.IsArgumentError(cfg.AddSecondaryResolver(nil)))
		_, err = NewConfig(WithRoot(nil))
		require.True(t, edmx.IsArgumentError(err))
	})

	t.Run("ConcurrentReaders", func(t *testing.T) {
		cfg, err := NewConfig(WithResolvers(Singleton[greeter](greeting("A"), nil)))
		require.NoError(t, err)
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				g, ok := Get[greeter](cfg, nil)
				assert.True(t, ok)
				assert.Equal(t, "A", g.Greet())
			}()
		}
		wg.Wait()
	})
}

// cloneUnlocked resolves through a fresh snapshot of cfg's chains without
// locking cfg.
func cloneUnlocked(t *testing.T, cfg *Config) Resolver {
	t.Helper()
	return NewChain(cfg.root, cfg.secondary, cfg.primary, cfg.overrides)
}
