package edm

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/edmx"
)

func entity(t *testing.T, m *EdmModel, name string, props ...string) *EntityType {
	t.Helper()
	typ := NewEntityType(name, "")
	for _, p := range props {
		require.NoError(t, typ.AddProperty(NewProperty(p, KindInt64)))
	}
	if len(props) > 0 {
		require.NoError(t, typ.SetKey(props[0]))
	}
	require.NoError(t, m.AddEntityType(typ))
	return typ
}

func TestMultiplicity(t *testing.T) {
	assert.Equal(t, "0..1", ZeroOrOne.String())
	assert.Equal(t, "1", One.String())
	assert.Equal(t, "*", Many.String())
	for in, want := range map[string]RelationshipMultiplicity{
		"0..1": ZeroOrOne, "optional": ZeroOrOne, "1": One, "Required": One, "*": Many, "many": Many,
	} {
		got, err := ParseMultiplicity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMultiplicity("2")
	require.Error(t, err)

	a, err := ParseOperationAction("Cascade")
	require.NoError(t, err)
	assert.Equal(t, Cascade, a)
	a, err = ParseOperationAction("")
	require.NoError(t, err)
	assert.Equal(t, None, a)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		v        any
		kind     PrimitiveKind
		nullable bool
	}{
		{int(0), KindInt64, false},
		{int32(0), KindInt32, false},
		{new(int), KindInt64, true},
		{"", KindString, true},
		{false, KindBool, false},
		{1.5, KindFloat64, false},
		{time.Time{}, KindDateTime, false},
		{uuid.UUID{}, KindGUID, false},
		{&uuid.UUID{}, KindGUID, true},
		{[]byte{}, KindBinary, true},
		{struct{}{}, KindInvalid, false},
	}
	for _, tt := range tests {
		kind, nullable := KindOf(reflect.TypeOf(tt.v))
		assert.Equal(t, tt.kind, kind, "%T", tt.v)
		assert.Equal(t, tt.nullable, nullable, "%T", tt.v)
	}
	k, err := ParseKind("uuid")
	require.NoError(t, err)
	assert.Equal(t, KindGUID, k)
	_, err = ParseKind("money")
	require.Error(t, err)
}

func TestEntityType(t *testing.T) {
	require := require.New(t)
	m := NewModel(CSpace, "")
	require.Equal(DefaultConceptualNamespace, m.Namespace)

	blog := NewEntityType("Blog", "")
	id := NewProperty("ID", KindInt64)
	id.Nullable = true
	require.NoError(blog.AddProperty(id))
	require.NoError(blog.AddProperty(NewProperty("Title", KindString)))
	require.Error(blog.AddProperty(NewProperty("Title", KindString)))
	require.True(edmx.IsArgumentError(blog.AddProperty(nil)))
	require.True(edmx.IsModelError(blog.SetKey("Missing")))
	require.NoError(blog.SetKey("ID"))
	require.False(id.Nullable, "key properties are not nullable")
	require.Equal([]string{"ID"}, blog.KeyNames())
	require.True(blog.IsKey(id))
	require.Same(blog, id.DeclaringType())

	require.NoError(m.AddEntityType(blog))
	require.Equal("CodeFirstNamespace.Blog", blog.FullName())
	require.Same(m, blog.Model())
	got, ok := m.EntityType("Blog")
	require.True(ok)
	require.Same(blog, got)
	_, ok = m.EntityType("blog")
	require.False(ok, "lookups are case-sensitive")
	require.True(edmx.IsModelError(m.AddEntityType(NewEntityType("Blog", ""))))

	require.True(blog.RemoveProperty("ID"))
	require.False(blog.HasKey())
	require.False(blog.RemoveProperty("ID"))
}

func TestAssociationType(t *testing.T) {
	m := NewModel(CSpace, "")
	blog := entity(t, m, "Blog", "ID")
	post := entity(t, m, "Post", "ID")

	a := NewAssociationType("Blog_Posts", NewEnd("Blog", blog, One), NewEnd("Post", post, Many))
	require.NoError(t, m.AddAssociationType(a))
	assert.True(t, a.IsRequiredToMany())
	assert.False(t, a.IsManyToMany())
	assert.False(t, a.IsSelfReferencing())
	assert.Same(t, a.SourceEnd, a.PrincipalEnd())
	assert.Same(t, a.TargetEnd, a.DependentEnd())
	assert.Same(t, a.TargetEnd, a.OtherEnd(a.SourceEnd))
	end, ok := a.End("Post")
	require.True(t, ok)
	assert.Same(t, a.TargetEnd, end)
	assert.Equal(t, "Blog(Blog 1)", a.SourceEnd.String())

	self := NewAssociationType("Blog_Parent", NewEnd("Blog", blog, Many), NewEnd("Parent", blog, ZeroOrOne))
	assert.True(t, self.IsSelfReferencing())
	assert.Same(t, self.TargetEnd, self.PrincipalEnd())

	dangling := NewAssociationType("Dangling", NewEnd("Blog", blog, One), nil)
	err := m.AddAssociationType(dangling)
	require.True(t, edmx.IsModelError(err))
	assert.Contains(t, err.Error(), "missing target end")

	require.NoError(t, m.RemoveAssociationType(a))
	_, ok = m.AssociationType("Blog_Posts")
	require.False(t, ok)
	require.Error(t, m.RemoveAssociationType(a))
}

func TestDbModelFreeze(t *testing.T) {
	require := require.New(t)
	dbm := NewDbModel(ProviderInfo{Provider: "postgres", ManifestToken: "16"})
	blog := entity(t, dbm.Conceptual, "Blog", "ID")
	require.False(dbm.Frozen())
	require.NoError(dbm.CheckMutable("AddEntityType"))

	dbm.Freeze()
	dbm.Freeze()
	require.True(dbm.Frozen())
	require.True(edmx.IsLocked(dbm.CheckMutable("AddEntityType")))
	require.True(edmx.IsLocked(dbm.Conceptual.AddEntityType(NewEntityType("Post", ""))))
	require.True(edmx.IsLocked(dbm.Store.AddFunction(&EdmFunction{Name: "Blog_Insert"})))
	require.True(edmx.IsLocked(blog.AddProperty(NewProperty("Name", KindString))))
	require.True(edmx.IsLocked(dbm.Mapping.AddFunctionMapping(&ModificationFunctionMapping{EntityType: blog})))
	require.Same(dbm.Store, dbm.Model(SSpace))
	require.Same(dbm.Conceptual, dbm.Model(CSpace))
}

// mappedModel returns a valid model with Blog (1) -> (*) Post and a
// cascading store foreign key.
func mappedModel(t *testing.T) *DbModel {
	t.Helper()
	dbm := NewDbModel(ProviderInfo{Provider: "sqlite"})
	blog := entity(t, dbm.Conceptual, "Blog", "ID")
	post := entity(t, dbm.Conceptual, "Post", "ID", "BlogID")
	a := NewAssociationType("Blog_Posts", NewEnd("Blog", blog, One), NewEnd("Post", post, Many))
	a.SourceEnd.DeleteBehavior = Cascade
	require.NoError(t, dbm.Conceptual.AddAssociationType(a))

	tables := map[string]*EntityType{}
	for _, ct := range []*EntityType{blog, post} {
		cset := &EntitySet{Name: ct.Name + "s", ElementType: ct}
		require.NoError(t, dbm.Conceptual.AddEntitySet(cset))
		st := entity(t, dbm.Store, ct.Name, ct.KeyNames()[0])
		sset := &EntitySet{Name: ct.Name + "s", ElementType: st, Table: ct.Name + "s", Schema: "main"}
		require.NoError(t, dbm.Store.AddEntitySet(sset))
		esm := &EntitySetMapping{EntitySet: cset, Table: sset}
		for _, p := range ct.Properties() {
			col, ok := st.Property(p.Name)
			if !ok {
				col = NewProperty(p.Name, p.Kind)
				require.NoError(t, st.AddProperty(col))
			}
			esm.Properties = append(esm.Properties, &PropertyMapping{Property: p, Column: col})
		}
		require.NoError(t, dbm.Mapping.AddEntitySetMapping(esm))
		tables[ct.Name] = st
	}
	fkCol, _ := tables["Post"].Property("BlogID")
	fk := NewAssociationType("FK_Posts_Blogs", NewEnd("Blog", tables["Blog"], One), NewEnd("Post", tables["Post"], Many))
	fk.SourceEnd.DeleteBehavior = Cascade
	fk.Constraint = &ReferentialConstraint{Principal: fk.SourceEnd, Dependent: fk.TargetEnd, DependentProperties: []*Property{fkCol}}
	require.NoError(t, dbm.Store.AddAssociationType(fk))
	return dbm
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		r := Validate(mappedModel(t))
		require.NoError(t, r.Err())
		require.True(t, r.Valid())
		require.Empty(t, r.Warnings, r.String())
		require.Equal(t, "valid", r.String())
	})
	t.Run("MissingKey", func(t *testing.T) {
		dbm := mappedModel(t)
		blog, _ := dbm.Conceptual.EntityType("Blog")
		blog.RemoveProperty("ID")
		r := Validate(dbm)
		require.False(t, r.Valid())
		require.True(t, strings.HasPrefix(r.String(), "error: CSpace "), r.String())
		err := r.Err()
		require.True(t, edmx.IsModelError(err))
		require.Contains(t, err.Error(), "entity type has no key")
	})
	t.Run("NullableKey", func(t *testing.T) {
		dbm := mappedModel(t)
		post, _ := dbm.Conceptual.EntityType("Post")
		post.Key()[0].Nullable = true
		r := Validate(dbm)
		require.Contains(t, r.String(), "key property is nullable")
	})
	t.Run("MissingColumn", func(t *testing.T) {
		dbm := mappedModel(t)
		table, _ := dbm.Store.EntityType("Post")
		table.RemoveProperty("BlogID")
		r := Validate(dbm)
		require.Contains(t, r.String(), "mapped column does not exist")
	})
	t.Run("DanglingEnd", func(t *testing.T) {
		dbm := mappedModel(t)
		a, _ := dbm.Conceptual.AssociationType("Blog_Posts")
		a.TargetEnd = nil
		r := Validate(dbm)
		require.Contains(t, r.String(), "missing target end")
	})
	t.Run("CascadeCycle", func(t *testing.T) {
		dbm := mappedModel(t)
		blog, _ := dbm.Store.EntityType("Blog")
		post, _ := dbm.Store.EntityType("Post")
		back := NewAssociationType("FK_Blogs_Posts", NewEnd("Post", post, One), NewEnd("Blog", blog, Many))
		back.SourceEnd.DeleteBehavior = Cascade
		require.NoError(t, dbm.Store.AddAssociationType(back))
		r := Validate(dbm)
		require.True(t, r.Valid(), r.String())
		require.NotEmpty(t, r.Warnings)
		require.Contains(t, r.Warnings[0].Message, "cascade delete cycle")
		require.True(t, strings.HasPrefix(r.String(), "warning: SSpace "), r.String())
	})
}

func TestSnapshot(t *testing.T) {
	dbm := mappedModel(t)
	s := dbm.Snapshot("blogging")
	require.Equal(t, "blogging", s.Name)
	require.Equal(t, "sqlite", s.Provider)
	require.Len(t, s.Entities, 2)
	require.Equal(t, "Blogs", s.Entities[0].Set)
	require.Len(t, s.Associations, 1)
	require.Equal(t, "Cascade", s.Associations[0].Source.OnDelete)
	require.Equal(t, "*", s.Associations[0].Target.Multiplicity)
	require.Len(t, s.Tables, 2)
	posts := s.Tables[1]
	require.Equal(t, "Posts", posts.Name)
	require.Equal(t, "Post", posts.Entity)
	require.Len(t, posts.ForeignKeys, 1)
	require.Equal(t, ForeignKeySnapshot{
		Name:       "FK_Posts_Blogs",
		Columns:    []string{"BlogID"},
		RefTable:   "Blogs",
		RefColumns: []string{"ID"},
		OnDelete:   "Cascade",
	}, posts.ForeignKeys[0])
}
