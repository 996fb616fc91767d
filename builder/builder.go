// Package builder builds EDM models from entity declarations.
//
// Entity types are declared by name or reflected from Go structs. Build
// creates the conceptual model, applies the conceptual conventions, derives
// the store model and the mapping, applies the store conventions, maps the
// configured stored procedures, then validates and freezes the result.
//
//	b, err := builder.New()
//	if err != nil {
//		return err
//	}
//	builder.EntityOf[Blog](b)
//	builder.EntityOf[Post](b).HasRequired("Blog", "Blog").WithMany("Posts")
//	m, err := b.Build(ctx, "postgres")
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/conventions"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/modelstore"
	"github.com/syssam/edmx/pluralization"
	"github.com/syssam/edmx/provider"
	"github.com/syssam/edmx/resolver"
)

// Builder builds one DbModel from entity declarations. A Builder is not
// safe for concurrent use and builds at most once.
type Builder struct {
	config        Config
	entities      []*EntityConfiguration
	byName        map[string]*EntityConfiguration
	byType        map[reflect.Type]*EntityConfiguration
	relationships []*RelationshipConfiguration
	errs          []error
	built         bool
}

// New returns a builder configured by opts.
func New(opts ...Option) (*Builder, error) {
	b := &Builder{
		byName: make(map[string]*EntityConfiguration),
		byType: make(map[reflect.Type]*EntityConfiguration),
	}
	if err := b.config.Apply(opts...); err != nil {
		return nil, err
	}
	if b.config.Dependencies == nil {
		d, err := resolver.NewConfig()
		if err != nil {
			return nil, err
		}
		b.config.Dependencies = d
	}
	for _, r := range b.config.Resolvers {
		if err := b.config.Dependencies.AddDependencyResolver(r, false); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Dependencies returns the dependency configuration of the builder.
func (b *Builder) Dependencies() *resolver.Config { return b.config.Dependencies }

// Conventions returns the convention set of the builder. The default set is
// created on first use; it is locked when the model is built.
func (b *Builder) Conventions() (*conventions.Set, error) {
	if b.config.Conventions != nil {
		return b.config.Conventions, nil
	}
	p, ok := resolver.Get[pluralization.Service](b.config.Dependencies, nil)
	if !ok {
		return nil, edmx.NewConfigError("Pluralization", nil, "no pluralization service")
	}
	s, err := conventions.DefaultSet(p)
	if err != nil {
		return nil, err
	}
	b.config.Conventions = s
	return s, nil
}

// Entity declares an entity type by name, or returns the existing
// declaration.
func (b *Builder) Entity(name string) *EntityConfiguration {
	if e, ok := b.byName[name]; ok {
		return e
	}
	e := &EntityConfiguration{b: b, typ: edm.NewEntityType(name, b.config.Namespace)}
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		b.fail(err)
		return e
	}
	if b.built {
		b.fail(edmx.NewLockedError("Entity"))
		return e
	}
	b.byName[name] = e
	b.entities = append(b.entities, e)
	return e
}

// Entities returns the declared entity types in declaration order.
func (b *Builder) Entities() []*EntityConfiguration { return b.entities }

// Err returns the declaration errors recorded so far.
func (b *Builder) Err() error {
	errs := append([]error(nil), b.errs...)
	for _, e := range b.entities {
		if err := e.err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// Build builds the model for the named provider using the provider's
// default manifest token.
func (b *Builder) Build(ctx context.Context, providerName string) (*edm.DbModel, error) {
	svc, err := b.provider(providerName)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, svc, edm.ProviderInfo{Provider: svc.ProviderName(), ManifestToken: svc.DefaultManifestToken()})
}

// BuildConnection builds the model for the named provider, reading the
// manifest token from the server behind dataSource.
func (b *Builder) BuildConnection(ctx context.Context, providerName, dataSource string) (*edm.DbModel, error) {
	svc, err := b.provider(providerName)
	if err != nil {
		return nil, err
	}
	deps := b.config.Dependencies
	factory, ok := resolver.Get[provider.ConnectionFactory](deps, nil)
	if !ok {
		return nil, edmx.NewConfigError("ConnectionFactory", nil, "no connection factory")
	}
	tokens, ok := resolver.Get[provider.ManifestTokenResolver](deps, nil)
	if !ok {
		return nil, edmx.NewConfigError("ManifestTokenResolver", nil, "no manifest token resolver")
	}
	db, err := factory.Open(ctx, svc.ProviderName(), dataSource)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	token, err := tokens.ResolveManifestToken(ctx, svc.ProviderName(), dataSource, db)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, svc, edm.ProviderInfo{Provider: svc.ProviderName(), ManifestToken: token})
}

func (b *Builder) provider(name string) (provider.Services, error) {
	if err := edmx.CheckNotEmpty("providerName", name); err != nil {
		return nil, err
	}
	svc, ok := resolver.Get[provider.Services](b.config.Dependencies, name)
	if !ok {
		return nil, edmx.NewConfigError("Provider", name, "no provider services")
	}
	return svc, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.config.Logger != nil {
		return b.config.Logger
	}
	if l, ok := resolver.Get[*slog.Logger](b.config.Dependencies, nil); ok && l != nil {
		return l
	}
	return slog.Default()
}

func (b *Builder) defaultSchema(providerName string) string {
	if b.config.DefaultSchema != "" {
		return b.config.DefaultSchema
	}
	if s, ok := resolver.Get[resolver.DefaultSchema](b.config.Dependencies, providerName); ok {
		return string(s)
	}
	return edm.DefaultSchema
}

func (b *Builder) build(ctx context.Context, svc provider.Services, info edm.ProviderInfo) (*edm.DbModel, error) {
	if b.built {
		return nil, edmx.NewLockedError("Build")
	}
	b.built = true
	if err := b.Err(); err != nil {
		return nil, err
	}
	set, err := b.Conventions()
	if err != nil {
		return nil, err
	}
	set.Lock()
	log := b.logger().With("provider", info.Provider, "manifest_token", info.ManifestToken)

	m := edm.NewDbModel(info)
	if b.config.Namespace != "" {
		m.Conceptual.Namespace = b.config.Namespace
	}
	plural, ok := resolver.Get[pluralization.Service](b.config.Dependencies, nil)
	if !ok {
		return nil, edmx.NewConfigError("Pluralization", nil, "no pluralization service")
	}
	if err := b.conceptual(m, plural); err != nil {
		return nil, err
	}
	if err := set.Apply(ctx, m, edm.CSpace); err != nil {
		return nil, err
	}
	if err := b.configure(m); err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "conceptual model built",
		"entity_types", len(m.Conceptual.EntityTypes()),
		"associations", len(m.Conceptual.AssociationTypes()))

	s := &storeBuilder{model: m, services: svc, schema: b.defaultSchema(info.Provider), tables: b.tables()}
	if err := s.build(); err != nil {
		return nil, err
	}
	if err := set.Apply(ctx, m, edm.SSpace); err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "store model built",
		"tables", len(m.Store.EntitySets()),
		"foreign_keys", len(m.Store.AssociationTypes()))

	for _, e := range b.entities {
		if e.procs == nil {
			continue
		}
		if err := e.procs.Build(m); err != nil {
			return nil, err
		}
	}

	result := edm.Validate(m)
	for _, w := range result.Warnings {
		log.WarnContext(ctx, "model validation warning", "element", w.Element, "message", w.Message)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	m.Freeze()

	if store, ok := resolver.Get[modelstore.Store](b.config.Dependencies, nil); ok && store != nil {
		name := m.Conceptual.Namespace
		if err := store.Save(ctx, name, m.Snapshot(name)); err != nil {
			return nil, fmt.Errorf("builder: save model %q: %w", name, err)
		}
	}
	log.InfoContext(ctx, "model built",
		"entity_types", len(m.Conceptual.EntityTypes()),
		"tables", len(m.Store.EntitySets()),
		"procedures", len(m.Store.Functions()))
	return m, nil
}

// tables returns the explicit table configuration per entity type.
func (b *Builder) tables() map[*edm.EntityType]tableConfig {
	tables := make(map[*edm.EntityType]tableConfig)
	for _, e := range b.entities {
		if e.table != "" {
			tables[e.typ] = tableConfig{name: e.table, schema: e.schema}
		}
	}
	return tables
}
