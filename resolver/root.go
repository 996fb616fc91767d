package resolver

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/pluralization"
	"github.com/syssam/edmx/provider"
)

// DefaultSchema is the service type of the default store schema name. It is
// resolved with the provider name as key.
type DefaultSchema string

// Service types supplied by the root resolver.
var (
	PluralizationType = reflect.TypeFor[pluralization.Service]()
	ConnectionType    = reflect.TypeFor[provider.ConnectionFactory]()
	ManifestTokenType = reflect.TypeFor[provider.ManifestTokenResolver]()
	ProviderType      = reflect.TypeFor[provider.Services]()
	DefaultSchemaType = reflect.TypeFor[DefaultSchema]()
	LoggerType        = reflect.TypeFor[*slog.Logger]()
)

// root supplies the framework defaults. It is the last resolver consulted
// by a Config.
type root struct {
	plural    pluralization.Service
	factory   provider.ConnectionFactory
	tokens    provider.ManifestTokenResolver
	providers sync.Map // provider name to provider.Services
}

// NewRoot returns a resolver of the framework defaults: the English
// pluralization service, the database/sql connection factory, the querying
// manifest token resolver, provider services keyed by provider name, the
// default schema keyed by provider name and the default logger.
func NewRoot() Resolver {
	return &root{
		plural:  pluralization.New(),
		factory: provider.NewConnectionFactory(),
		tokens:  provider.NewManifestTokenResolver(),
	}
}

func (r *root) GetService(t reflect.Type, key any) any {
	switch t {
	case PluralizationType:
		return r.plural
	case ConnectionType:
		return r.factory
	case ManifestTokenType:
		return r.tokens
	case ProviderType:
		if svc := r.provider(key); svc != nil {
			return svc
		}
	case DefaultSchemaType:
		if svc := r.provider(key); svc != nil {
			return DefaultSchema(svc.DefaultSchema())
		}
		return DefaultSchema(edm.DefaultSchema)
	case LoggerType:
		return slog.Default()
	}
	return nil
}

func (r *root) GetServices(t reflect.Type, key any) []any {
	return single(r.GetService(t, key))
}

// provider returns the cached services of the provider named by key.
func (r *root) provider(key any) provider.Services {
	name, ok := key.(string)
	if !ok || name == "" {
		return nil
	}
	if v, ok := r.providers.Load(name); ok {
		return v.(provider.Services)
	}
	svc, err := provider.Lookup(name)
	if err != nil {
		return nil
	}
	v, _ := r.providers.LoadOrStore(name, svc)
	return v.(provider.Services)
}
