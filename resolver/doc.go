// Package resolver implements the dependency resolution used to supply
// pluggable services (pluralization, provider services, connection
// factories, loggers, interceptors) to the model builder.
//
// Resolvers compose into chains where the most recently added resolver wins:
//
//	cfg, _ := resolver.NewConfig()
//	cfg.AddDependencyResolver(resolver.Singleton[pluralization.Service](myService, nil), false)
//	ps, _ := resolver.Get[pluralization.Service](cfg, nil)
//
// A Config is locked by the first resolution. After that it is read through
// an immutable Snapshot and further registrations fail with
// edmx.ErrLocked.
package resolver
