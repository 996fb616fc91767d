package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/syssam/edmx"
)

// ManifestTokenResolver resolves the manifest token (server version) of a
// data source.
type ManifestTokenResolver interface {
	ResolveManifestToken(ctx context.Context, providerName, dataSource string, db *sql.DB) (string, error)
}

// QueryManifestTokenResolver queries the server version and caches the
// result per provider and data source.
type QueryManifestTokenResolver struct {
	mu     sync.Mutex
	tokens map[tokenKey]string
}

type tokenKey struct{ provider, dataSource string }

// NewManifestTokenResolver returns the default manifest token resolver.
func NewManifestTokenResolver() *QueryManifestTokenResolver {
	return &QueryManifestTokenResolver{tokens: make(map[tokenKey]string)}
}

// ResolveManifestToken returns the version reported by the server behind db.
func (r *QueryManifestTokenResolver) ResolveManifestToken(ctx context.Context, providerName, dataSource string, db *sql.DB) (string, error) {
	if db == nil {
		return "", edmx.Nil("db")
	}
	svc, err := Lookup(providerName)
	if err != nil {
		return "", err
	}
	key := tokenKey{provider: svc.ProviderName(), dataSource: dataSource}
	r.mu.Lock()
	token, ok := r.tokens[key]
	r.mu.Unlock()
	if ok {
		return token, nil
	}
	var version string
	if err := db.QueryRowContext(ctx, versionQueries[svc.ProviderName()]).Scan(&version); err != nil {
		return "", fmt.Errorf("provider: query %s server version: %w", svc.ProviderName(), err)
	}
	token = ManifestToken(version)
	r.mu.Lock()
	r.tokens[key] = token
	r.mu.Unlock()
	return token, nil
}

// ManifestToken reduces a server version string to its major.minor form,
// e.g. "16.2 (Debian 16.2-1.pgdg120+2)" becomes "16.2".
func ManifestToken(version string) string {
	version = strings.TrimSpace(version)
	if i := strings.IndexAny(version, " -+("); i > 0 {
		version = version[:i]
	}
	parts := strings.SplitN(version, ".", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ".")
}
