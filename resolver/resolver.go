package resolver

import (
	"reflect"
	"slices"
	"sync"
)

// Resolver resolves services by type and optional key.
//
// GetService returns nil when the resolver cannot supply the service.
// GetServices returns every instance the resolver can supply, or nil.
type Resolver interface {
	GetService(t reflect.Type, key any) any
	GetServices(t reflect.Type, key any) []any
}

// Get resolves a service of type T from r.
//
//	ps, ok := resolver.Get[pluralization.Service](cfg, nil)
func Get[T any](r Resolver, key any) (T, bool) {
	var zero T
	v := r.GetService(reflect.TypeFor[T](), key)
	if v == nil {
		return zero, false
	}
	s, ok := v.(T)
	return s, ok
}

// GetAll resolves all services of type T from r.
func GetAll[T any](r Resolver, key any) []T {
	vs := r.GetServices(reflect.TypeFor[T](), key)
	all := make([]T, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(T); ok {
			all = append(all, s)
		}
	}
	return all
}

// Func is an adapter to allow the use of ordinary functions as resolvers.
type Func func(t reflect.Type, key any) any

// GetService returns f(t, key).
func (f Func) GetService(t reflect.Type, key any) any {
	return f(t, key)
}

// GetServices returns the result of f as a single element list.
func (f Func) GetServices(t reflect.Type, key any) []any {
	return single(f(t, key))
}

func single(v any) []any {
	if v == nil {
		return nil
	}
	return []any{v}
}

// keyMatch reports whether a registration key matches a requested key.
// A nil registration key matches every request.
func keyMatch(registered, requested any) bool {
	if registered == nil {
		return true
	}
	if !isComparable(registered) || !isComparable(requested) {
		return false
	}
	return registered == requested
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// singleton resolves one instance for one service type.
type singleton struct {
	typ      reflect.Type
	instance any
	key      any
}

// Singleton returns a resolver that always supplies instance for the
// service type T and the given key. A nil key matches every key.
func Singleton[T any](instance T, key any) Resolver {
	return &singleton{typ: reflect.TypeFor[T](), instance: instance, key: key}
}

// SingletonOf is like Singleton with an explicit service type.
func SingletonOf(t reflect.Type, instance, key any) Resolver {
	return &singleton{typ: t, instance: instance, key: key}
}

func (s *singleton) GetService(t reflect.Type, key any) any {
	if t == s.typ && keyMatch(s.key, key) {
		return s.instance
	}
	return nil
}

func (s *singleton) GetServices(t reflect.Type, key any) []any {
	return single(s.GetService(t, key))
}

// transient creates a new instance on every resolution.
type transient struct {
	typ     reflect.Type
	factory func() any
	key     any
}

// Transient returns a resolver that calls factory on every resolution of
// the service type T and the given key.
func Transient[T any](factory func() T, key any) Resolver {
	return &transient{typ: reflect.TypeFor[T](), factory: func() any { return factory() }, key: key}
}

func (s *transient) GetService(t reflect.Type, key any) any {
	if t == s.typ && keyMatch(s.key, key) {
		return s.factory()
	}
	return nil
}

func (s *transient) GetServices(t reflect.Type, key any) []any {
	return single(s.GetService(t, key))
}

// Chain is an ordered list of resolvers where the most recently added
// resolver wins. It is safe for concurrent use.
type Chain struct {
	mu        sync.RWMutex
	resolvers []Resolver
}

// NewChain returns a chain of the given resolvers, added in order.
func NewChain(rs ...Resolver) *Chain {
	c := &Chain{}
	for _, r := range rs {
		c.Add(r)
	}
	return c
}

// Add adds r to the chain. Nil resolvers are ignored.
func (c *Chain) Add(r Resolver) {
	if r == nil {
		return
	}
	c.mu.Lock()
	c.resolvers = append(c.resolvers, r)
	c.mu.Unlock()
}

// Resolvers returns the resolvers of the chain, most recent first.
func (c *Chain) Resolvers() []Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rs := slices.Clone(c.resolvers)
	slices.Reverse(rs)
	return rs
}

// Len returns the number of resolvers in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resolvers)
}

// GetService returns the service of the most recently added resolver
// that can supply it.
func (c *Chain) GetService(t reflect.Type, key any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.resolvers) - 1; i >= 0; i-- {
		if v := c.resolvers[i].GetService(t, key); v != nil {
			return v
		}
	}
	return nil
}

// GetServices concatenates the services of all resolvers, most recent first.
func (c *Chain) GetServices(t reflect.Type, key any) []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var all []any
	for i := len(c.resolvers) - 1; i >= 0; i-- {
		all = append(all, c.resolvers[i].GetServices(t, key)...)
	}
	return all
}

// composite consults first, then second.
type composite struct {
	first, second Resolver
}

// Composite returns a resolver that consults first and falls back to second.
// GetServices returns the services of first followed by those of second.
func Composite(first, second Resolver) Resolver {
	return &composite{first: first, second: second}
}

func (c *composite) GetService(t reflect.Type, key any) any {
	if v := c.first.GetService(t, key); v != nil {
		return v
	}
	return c.second.GetService(t, key)
}

func (c *composite) GetServices(t reflect.Type, key any) []any {
	return slices.Concat(c.first.GetServices(t, key), c.second.GetServices(t, key))
}

// CachingResolver memoizes the services of its delegate per (type, key).
type CachingResolver struct {
	delegate Resolver
	one      sync.Map
	all      sync.Map
}

type cacheKey struct {
	typ reflect.Type
	key any
}

// Caching returns a resolver that memoizes the results of delegate.
// Requests with a non-comparable key are not cached.
func Caching(delegate Resolver) *CachingResolver {
	return &CachingResolver{delegate: delegate}
}

// GetService returns the cached service, resolving it on first use.
func (c *CachingResolver) GetService(t reflect.Type, key any) any {
	if !isComparable(key) {
		return c.delegate.GetService(t, key)
	}
	k := cacheKey{typ: t, key: key}
	if v, ok := c.one.Load(k); ok {
		return v
	}
	v, _ := c.one.LoadOrStore(k, c.delegate.GetService(t, key))
	return v
}

// GetServices returns a copy of the cached services, resolving them on
// first use.
func (c *CachingResolver) GetServices(t reflect.Type, key any) []any {
	if !isComparable(key) {
		return c.delegate.GetServices(t, key)
	}
	k := cacheKey{typ: t, key: key}
	v, ok := c.all.Load(k)
	if !ok {
		v, _ = c.all.LoadOrStore(k, c.delegate.GetServices(t, key))
	}
	return slices.Clone(v.([]any))
}
