package provider

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// storeModel returns a store model with Blogs (1) -> (*) Posts where the
// foreign key cascades on delete.
func storeModel(t *testing.T, schema string) *edm.DbModel {
	t.Helper()
	m := edm.NewDbModel(edm.ProviderInfo{})
	table := func(name string, cols ...*edm.Property) *edm.EntityType {
		et := edm.NewEntityType(name, "")
		for _, c := range cols {
			require.NoError(t, et.AddProperty(c))
		}
		require.NoError(t, et.SetKey("ID"))
		require.NoError(t, m.Store.AddEntityType(et))
		require.NoError(t, m.Store.AddEntitySet(&edm.EntitySet{Name: name, ElementType: et, Table: name, Schema: schema}))
		return et
	}
	id := func() *edm.Property {
		p := edm.NewProperty("ID", edm.KindInt64)
		p.StoreGenerated = edm.StoreGeneratedIdentity
		return p
	}
	title := edm.NewProperty("Title", edm.KindString)
	title.MaxLength = 128
	title.Nullable = true
	blogs := table("Blogs", id(), title)
	blogID := edm.NewProperty("Blog_ID", edm.KindInt64)
	posts := table("Posts", id(), blogID)

	fk := edm.NewAssociationType("FK_Posts_Blogs_Blog_ID", edm.NewEnd("Blogs", blogs, edm.One), edm.NewEnd("Posts", posts, edm.Many))
	fk.SourceEnd.DeleteBehavior = edm.Cascade
	fk.Constraint = &edm.ReferentialConstraint{Principal: fk.SourceEnd, Dependent: fk.TargetEnd, DependentProperties: []*edm.Property{blogID}}
	require.NoError(t, m.Store.AddAssociationType(fk))
	return m
}

func TestLookup(t *testing.T) {
	for name, schema := range map[string]string{"postgres": "public", "mysql": "", "sqlite3": "main"} {
		svc, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, schema, svc.DefaultSchema(), name)
		assert.NotEmpty(t, svc.DefaultManifestToken(), name)
	}
	_, err := Lookup("oracle")
	require.True(t, edmx.IsConfigError(err))
	_, err = Lookup("")
	require.True(t, edmx.IsArgumentError(err))
}

func TestStoreType(t *testing.T) {
	pg, err := Lookup("postgres")
	require.NoError(t, err)
	assert.Equal(t, "text", pg.StoreType(edm.KindString, 0))
	assert.Equal(t, "character varying", pg.StoreType(edm.KindString, 64))
	assert.Equal(t, "uuid", pg.StoreType(edm.KindGUID, 0))
	my, err := Lookup("mysql")
	require.NoError(t, err)
	assert.Equal(t, "longtext", my.StoreType(edm.KindString, 0))
	assert.Equal(t, "varchar", my.StoreType(edm.KindString, 64))
	lite, err := Lookup("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "integer", lite.StoreType(edm.KindInt32, 0))
	assert.Equal(t, "", lite.StoreType(edm.KindInvalid, 0))
}

func TestCreateDatabaseScript(t *testing.T) {
	ctx := context.Background()
	t.Run("SQLite", func(t *testing.T) {
		svc, err := Lookup("sqlite")
		require.NoError(t, err)
		script, err := svc.CreateDatabaseScript(ctx, storeModel(t, "main"))
		require.NoError(t, err)
		assert.Contains(t, script, "CREATE TABLE")
		assert.Contains(t, script, "Blogs")
		assert.Contains(t, script, "AUTOINCREMENT")
		assert.Contains(t, script, "ON DELETE CASCADE")
		assert.NotContains(t, script, "main.")
	})
	t.Run("Postgres", func(t *testing.T) {
		svc, err := Lookup("postgres")
		require.NoError(t, err)
		script, err := svc.CreateDatabaseScript(ctx, storeModel(t, "public"))
		require.NoError(t, err)
		assert.Contains(t, script, `"public"."Posts"`)
		assert.Contains(t, script, "GENERATED BY DEFAULT AS IDENTITY")
		assert.Contains(t, script, "character varying(128)")
		assert.Contains(t, script, "ON DELETE CASCADE")
	})
	t.Run("MySQL", func(t *testing.T) {
		svc, err := Lookup("mysql")
		require.NoError(t, err)
		script, err := svc.CreateDatabaseScript(ctx, storeModel(t, ""))
		require.NoError(t, err)
		assert.Contains(t, script, "AUTO_INCREMENT")
		assert.Contains(t, script, "ON DELETE CASCADE")
	})
	t.Run("NoAction", func(t *testing.T) {
		m := storeModel(t, "main")
		m.Store.AssociationTypes()[0].SourceEnd.DeleteBehavior = edm.None
		svc, err := Lookup("sqlite")
		require.NoError(t, err)
		script, err := svc.CreateDatabaseScript(ctx, m)
		require.NoError(t, err)
		assert.NotContains(t, script, "ON DELETE CASCADE")
	})
	t.Run("NilModel", func(t *testing.T) {
		svc, err := Lookup("sqlite")
		require.NoError(t, err)
		_, err = svc.CreateDatabaseScript(ctx, nil)
		require.True(t, edmx.IsArgumentError(err))
	})
}

func TestManifestTokenResolver(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SHOW server_version")).
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("16.2 (Debian 16.2-1.pgdg120+2)"))

	r := NewManifestTokenResolver()
	token, err := r.ResolveManifestToken(ctx, "postgres", "host=db", db)
	require.NoError(t, err)
	require.Equal(t, "16.2", token)

	// Cached per provider and data source.
	token, err = r.ResolveManifestToken(ctx, "postgres", "host=db", db)
	require.NoError(t, err)
	require.Equal(t, "16.2", token)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(regexp.QuoteMeta("SHOW server_version")).WillReturnError(errors.New("connection refused"))
	_, err = r.ResolveManifestToken(ctx, "postgres", "host=other", db)
	require.ErrorContains(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = r.ResolveManifestToken(ctx, "postgres", "host=db", nil)
	require.True(t, edmx.IsArgumentError(err))
}

func TestManifestToken(t *testing.T) {
	for in, want := range map[string]string{
		"8.0.36":                  "8.0",
		"3.45.1":                  "3.45",
		"16.2 (Debian)":           "16.2",
		"10.11.6-MariaDB-0+deb12": "10.11",
		"16":                      "16",
	} {
		assert.Equal(t, want, ManifestToken(in), in)
	}
}

func TestConnectionFactory(t *testing.T) {
	f := NewConnectionFactory()
	db, err := f.Open(context.Background(), "sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = f.Open(context.Background(), "sqlite", "")
	require.True(t, edmx.IsArgumentError(err))
	_, err = f.Open(context.Background(), "oracle", "x")
	require.True(t, edmx.IsConfigError(err))
}
