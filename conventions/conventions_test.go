package conventions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/pluralization"
)

type named string

func (n named) Name() string { return string(n) }

type recorder struct {
	name  string
	space edm.DataSpace
	calls []string
	err   error
}

func (r *recorder) Name() string        { return r.name }
func (r *recorder) Space() edm.DataSpace { return r.space }

func (r *recorder) ApplyModel(context.Context, *edm.DbModel) error {
	r.calls = append(r.calls, "model")
	return r.err
}

func (r *recorder) ApplyEntityType(_ context.Context, t *edm.EntityType, _ *edm.EdmModel) error {
	r.calls = append(r.calls, "type:"+t.Name)
	return nil
}

func (r *recorder) ApplyProperty(_ context.Context, p *edm.Property, _ *edm.EdmModel) error {
	r.calls = append(r.calls, "prop:"+p.DeclaringType().Name+"."+p.Name)
	return nil
}

func (r *recorder) ApplyAssociationType(_ context.Context, a *edm.AssociationType, _ *edm.EdmModel) error {
	r.calls = append(r.calls, "assoc:"+a.Name)
	return nil
}

func TestSet(t *testing.T) {
	require := require.New(t)
	s, err := NewSet(named("A"), named("C"))
	require.NoError(err)
	require.NoError(s.AddBefore("C", named("B")))
	require.NoError(s.AddAfter("C", named("D")))
	require.NoError(s.AddBefore("A", named("Z")))
	require.Equal([]string{"Z", "A", "B", "C", "D"}, s.Names())

	require.NoError(s.Remove("Z"))
	require.NoError(s.Replace("B", named("B2")))
	require.Equal([]string{"A", "B2", "C", "D"}, s.Names())
	c, ok := s.Get("B2")
	require.True(ok)
	require.Equal("B2", c.Name())
	_, ok = s.Get("B")
	require.False(ok)

	err = s.Add(named("A"))
	require.True(edmx.IsConfigError(err))
	err = s.AddAfter("missing", named("E"))
	require.True(edmx.IsConfigError(err))
	require.Contains(err.Error(), "unknown convention")
	require.True(edmx.IsConfigError(s.Remove("missing")))
	require.True(edmx.IsConfigError(s.Replace("A", named("C"))))
	require.True(edmx.IsArgumentError(s.Add(nil)))
	require.True(edmx.IsArgumentError(s.Add(named(""))))
	for _, err := range []error{
		s.AddBefore("", named("E")),
		s.AddAfter("", named("E")),
		s.Remove(""),
		s.Replace("", named("E")),
	} {
		require.True(edmx.IsArgumentError(err), err)
	}
	require.Equal(4, s.Len())
	require.Equal([]string{"A", "B2", "C", "D"}, s.Names())

	clone := s.Clone()
	s.Lock()
	require.True(s.Locked())
	for _, err := range []error{
		s.Add(named("E")),
		s.AddBefore("A", named("E")),
		s.AddAfter("A", named("E")),
		s.Remove("A"),
		s.Replace("A", named("E")),
	} {
		require.ErrorIs(err, edmx.ErrLocked)
	}
	require.Equal(4, s.Len())
	require.False(clone.Locked())
	require.NoError(clone.Add(named("E")))
	require.Equal(4, s.Len())
}

func TestDefaultSet(t *testing.T) {
	s, err := DefaultSet(pluralization.New())
	require.NoError(t, err)
	require.Equal(t, []string{
		"IDKeyDiscovery",
		"StoreGeneratedIdentityKey",
		"AssociationInverseDiscovery",
		"RequiredNavigationMultiplicity",
		"OneToManyCascadeDelete",
		"PluralizingTableName",
		"ManyToManyCascadeDelete",
	}, s.Names())

	_, err = DefaultSet(nil)
	require.True(t, edmx.IsArgumentError(err))
}

// blogModel returns Blog 1..* Post where each side declares a navigation
// over its own association, as the builder produces them before conventions.
func blogModel(t *testing.T) *edm.DbModel {
	t.Helper()
	require := require.New(t)
	m := edm.NewDbModel(edm.ProviderInfo{Provider: "sqlite"})
	blog, post := edm.NewEntityType("Blog", ""), edm.NewEntityType("Post", "")
	require.NoError(blog.AddProperty(edm.NewProperty("ID", edm.KindInt64)))
	require.NoError(blog.AddProperty(edm.NewProperty("Title", edm.KindString)))
	require.NoError(post.AddProperty(edm.NewProperty("PostID", edm.KindInt64)))
	require.NoError(m.Conceptual.AddEntityType(blog))
	require.NoError(m.Conceptual.AddEntityType(post))

	posts := edm.NewAssociationType("Blog_Posts", edm.NewEnd("Blog_Posts_Source", blog, edm.ZeroOrOne), edm.NewEnd("Blog_Posts_Target", post, edm.Many))
	back := edm.NewAssociationType("Post_Blog", edm.NewEnd("Post_Blog_Source", post, edm.Many), edm.NewEnd("Post_Blog_Target", blog, edm.ZeroOrOne))
	require.NoError(m.Conceptual.AddAssociationType(posts))
	require.NoError(m.Conceptual.AddAssociationType(back))
	require.NoError(blog.AddNavigationProperty(&edm.NavigationProperty{
		Name: "Posts", Association: posts, FromEnd: posts.SourceEnd, ToEnd: posts.TargetEnd, Target: post, Collection: true,
	}))
	require.NoError(post.AddNavigationProperty(&edm.NavigationProperty{
		Name: "Blog", Association: back, FromEnd: back.SourceEnd, ToEnd: back.TargetEnd, Target: blog, Required: true,
	}))
	return m
}

func TestApply(t *testing.T) {
	require := require.New(t)
	m := blogModel(t)
	s, err := DefaultSet(pluralization.New())
	require.NoError(err)
	require.NoError(s.Apply(context.Background(), m, edm.CSpace))

	blog, _ := m.Conceptual.EntityType("Blog")
	post, _ := m.Conceptual.EntityType("Post")
	require.Equal([]string{"ID"}, blog.KeyNames())
	require.Equal([]string{"PostID"}, post.KeyNames())
	require.Equal(edm.StoreGeneratedIdentity, blog.Key()[0].StoreGenerated)

	require.Len(m.Conceptual.AssociationTypes(), 1)
	a := m.Conceptual.AssociationTypes()[0]
	require.Equal("Blog_Posts", a.Name)
	require.Equal(edm.One, a.SourceEnd.Multiplicity)
	require.Equal(edm.Many, a.TargetEnd.Multiplicity)
	require.Equal(edm.Cascade, a.SourceEnd.DeleteBehavior)
	require.Equal(edm.None, a.TargetEnd.DeleteBehavior)

	nav, ok := post.NavigationProperty("Blog")
	require.True(ok)
	require.Same(a, nav.Association)
	require.Same(a.TargetEnd, nav.FromEnd)
	require.Same(a.SourceEnd, nav.ToEnd)
}

func TestApplyDispatch(t *testing.T) {
	require := require.New(t)
	m := blogModel(t)
	conceptual := &recorder{name: "conceptual"}
	store := &recorder{name: "store", space: edm.SSpace}
	s, err := NewSet(conceptual, store)
	require.NoError(err)
	require.NoError(s.Apply(context.Background(), m, edm.CSpace))
	require.Equal([]string{
		"model",
		"type:Blog", "type:Post",
		"prop:Blog.ID", "prop:Blog.Title", "prop:Post.PostID",
		"assoc:Blog_Posts", "assoc:Post_Blog",
	}, conceptual.calls)
	require.Empty(store.calls)

	require.NoError(s.Apply(context.Background(), m, edm.SSpace))
	require.Equal([]string{"model"}, store.calls)
}

func TestApplyErrors(t *testing.T) {
	t.Run("Convention", func(t *testing.T) {
		cause := errors.New("boom")
		next := &recorder{name: "next"}
		s, err := NewSet(&recorder{name: "failing", err: cause}, next)
		require.NoError(t, err)
		err = s.Apply(context.Background(), blogModel(t), edm.CSpace)
		var cerr *Error
		require.ErrorAs(t, err, &cerr)
		require.Equal(t, "failing", cerr.Convention)
		require.ErrorIs(t, err, cause)
		require.EqualError(t, err, "conventions: failing: boom")
		require.Empty(t, next.calls)
	})
	t.Run("MissingEnd", func(t *testing.T) {
		m := blogModel(t)
		m.Conceptual.AssociationTypes()[1].TargetEnd = nil
		s, err := NewSet(OneToManyCascadeDelete{})
		require.NoError(t, err)
		err = s.Apply(context.Background(), m, edm.CSpace)
		require.ErrorIs(t, err, edmx.ErrInvalidModel)
		require.Contains(t, err.Error(), "missing target end")
	})
	t.Run("Frozen", func(t *testing.T) {
		m := blogModel(t)
		m.Freeze()
		s, err := NewSet(OneToManyCascadeDelete{})
		require.NoError(t, err)
		require.ErrorIs(t, s.Apply(context.Background(), m, edm.CSpace), edmx.ErrLocked)
	})
	t.Run("Nil", func(t *testing.T) {
		s, err := NewSet()
		require.NoError(t, err)
		require.True(t, edmx.IsArgumentError(s.Apply(context.Background(), nil, edm.CSpace)))
	})
	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := &recorder{name: "r"}
		s, err := NewSet(r)
		require.NoError(t, err)
		require.ErrorIs(t, s.Apply(ctx, blogModel(t), edm.CSpace), context.Canceled)
		require.Empty(t, r.calls)
	})
}

func TestIDKeyDiscovery(t *testing.T) {
	tests := []struct {
		name  string
		props []*edm.Property
		key   []string
	}{
		{"ID", []*edm.Property{edm.NewProperty("Name", edm.KindString), edm.NewProperty("ID", edm.KindInt64)}, []string{"ID"}},
		{"TypeID", []*edm.Property{edm.NewProperty("OrderId", edm.KindGUID)}, []string{"OrderId"}},
		{"PreferID", []*edm.Property{edm.NewProperty("OrderID", edm.KindInt32), edm.NewProperty("Id", edm.KindInt32)}, []string{"Id"}},
		{"Ambiguous", []*edm.Property{edm.NewProperty("Id", edm.KindInt32), edm.NewProperty("ID", edm.KindInt32)}, []string{}},
		{"NotKeyKind", []*edm.Property{edm.NewProperty("ID", edm.KindDateTime)}, []string{}},
		{"None", []*edm.Property{edm.NewProperty("Name", edm.KindString)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := edm.NewEntityType("Order", "")
			for _, p := range tt.props {
				require.NoError(t, typ.AddProperty(p))
			}
			require.NoError(t, IDKeyDiscovery{}.ApplyEntityType(context.Background(), typ, nil))
			require.Equal(t, tt.key, typ.KeyNames())
		})
	}

	typ := edm.NewEntityType("Order", "")
	require.NoError(t, typ.AddProperty(edm.NewProperty("ID", edm.KindInt64)))
	require.NoError(t, typ.AddProperty(edm.NewProperty("Code", edm.KindString)))
	require.NoError(t, typ.SetKey("Code"))
	require.NoError(t, IDKeyDiscovery{}.ApplyEntityType(context.Background(), typ, nil))
	require.Equal(t, []string{"Code"}, typ.KeyNames(), "explicit key wins")
}

func TestStoreGeneratedIdentityKey(t *testing.T) {
	require := require.New(t)
	m := edm.NewModel(edm.CSpace, "")
	order, line := edm.NewEntityType("Order", ""), edm.NewEntityType("OrderDetail", "")
	require.NoError(order.AddProperty(edm.NewProperty("ID", edm.KindInt64)))
	require.NoError(order.SetKey("ID"))
	fk := edm.NewProperty("OrderID", edm.KindInt64)
	require.NoError(line.AddProperty(fk))
	require.NoError(line.SetKey("OrderID"))
	require.NoError(m.AddEntityType(order))
	require.NoError(m.AddEntityType(line))
	a := edm.NewAssociationType("Order_Detail", edm.NewEnd("Order", order, edm.One), edm.NewEnd("Detail", line, edm.ZeroOrOne))
	a.Constraint = &edm.ReferentialConstraint{Principal: a.SourceEnd, Dependent: a.TargetEnd, DependentProperties: []*edm.Property{fk}}
	require.NoError(m.AddAssociationType(a))

	c := StoreGeneratedIdentityKey{}
	require.NoError(c.ApplyEntityType(context.Background(), order, m))
	require.NoError(c.ApplyEntityType(context.Background(), line, m))
	require.Equal(edm.StoreGeneratedIdentity, order.Key()[0].StoreGenerated)
	require.Equal(edm.StoreGeneratedUnspecified, fk.StoreGenerated)

	code := edm.NewEntityType("Code", "")
	require.NoError(code.AddProperty(edm.NewProperty("Value", edm.KindString)))
	require.NoError(code.SetKey("Value"))
	require.NoError(c.ApplyEntityType(context.Background(), code, m))
	require.Equal(edm.StoreGeneratedUnspecified, code.Key()[0].StoreGenerated)
}

func TestAssociationInverseDiscovery(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		m := blogModel(t)
		m.Conceptual.AssociationTypes()[0].Configured = true
		require.NoError(t, AssociationInverseDiscovery{}.ApplyModel(context.Background(), m))
		require.Len(t, m.Conceptual.AssociationTypes(), 2)
	})
	t.Run("Ambiguous", func(t *testing.T) {
		require := require.New(t)
		m := blogModel(t)
		blog, _ := m.Conceptual.EntityType("Blog")
		post, _ := m.Conceptual.EntityType("Post")
		extra := edm.NewAssociationType("Blog_Drafts", edm.NewEnd("s", blog, edm.ZeroOrOne), edm.NewEnd("t", post, edm.Many))
		require.NoError(m.Conceptual.AddAssociationType(extra))
		require.NoError(blog.AddNavigationProperty(&edm.NavigationProperty{
			Name: "Drafts", Association: extra, FromEnd: extra.SourceEnd, ToEnd: extra.TargetEnd, Target: post, Collection: true,
		}))
		require.NoError(AssociationInverseDiscovery{}.ApplyModel(context.Background(), m))
		require.Len(m.Conceptual.AssociationTypes(), 3)
	})
	t.Run("SelfReference", func(t *testing.T) {
		require := require.New(t)
		m := edm.NewDbModel(edm.ProviderInfo{})
		emp := edm.NewEntityType("Employee", "")
		require.NoError(m.Conceptual.AddEntityType(emp))
		mgr := edm.NewAssociationType("Employee_Manager", edm.NewEnd("s", emp, edm.Many), edm.NewEnd("t", emp, edm.ZeroOrOne))
		reports := edm.NewAssociationType("Employee_Reports", edm.NewEnd("s", emp, edm.ZeroOrOne), edm.NewEnd("t", emp, edm.Many))
		require.NoError(m.Conceptual.AddAssociationType(mgr))
		require.NoError(m.Conceptual.AddAssociationType(reports))
		require.NoError(emp.AddNavigationProperty(&edm.NavigationProperty{Name: "Manager", Association: mgr, FromEnd: mgr.SourceEnd, ToEnd: mgr.TargetEnd, Target: emp}))
		require.NoError(emp.AddNavigationProperty(&edm.NavigationProperty{Name: "Reports", Association: reports, FromEnd: reports.SourceEnd, ToEnd: reports.TargetEnd, Target: emp, Collection: true}))

		require.NoError(AssociationInverseDiscovery{}.ApplyModel(context.Background(), m))
		require.Equal([]*edm.AssociationType{mgr}, m.Conceptual.AssociationTypes())
		require.Equal(edm.Many, mgr.SourceEnd.Multiplicity)
		require.Equal(edm.ZeroOrOne, mgr.TargetEnd.Multiplicity)

		// Cascade never applies to self references.
		require.NoError(OneToManyCascadeDelete{}.ApplyAssociationType(context.Background(), mgr, m.Conceptual))
		require.Equal(edm.None, mgr.SourceEnd.DeleteBehavior)
		require.Equal(edm.None, mgr.TargetEnd.DeleteBehavior)
	})
}

func TestRequiredNavigationMultiplicity(t *testing.T) {
	m := blogModel(t)
	post, _ := m.Conceptual.EntityType("Post")
	back, _ := m.Conceptual.AssociationType("Post_Blog")
	require.NoError(t, RequiredNavigationMultiplicity{}.ApplyEntityType(context.Background(), post, m.Conceptual))
	assert.Equal(t, edm.One, back.TargetEnd.Multiplicity)
	assert.Equal(t, edm.Many, back.SourceEnd.Multiplicity)

	back.TargetEnd.Multiplicity = edm.ZeroOrOne
	back.Configured = true
	require.NoError(t, RequiredNavigationMultiplicity{}.ApplyEntityType(context.Background(), post, m.Conceptual))
	assert.Equal(t, edm.ZeroOrOne, back.TargetEnd.Multiplicity)
}

func TestPluralizingTableName(t *testing.T) {
	require := require.New(t)
	m := edm.NewDbModel(edm.ProviderInfo{})
	category, person := edm.NewEntityType("Category", ""), edm.NewEntityType("Person", "")
	require.NoError(m.Store.AddEntityType(category))
	require.NoError(m.Store.AddEntityType(person))
	require.NoError(m.Store.AddEntitySet(&edm.EntitySet{Name: "Category", ElementType: category, Table: "Category"}))
	require.NoError(m.Store.AddEntitySet(&edm.EntitySet{Name: "Person", ElementType: person, Table: "tbl_person", TableConfigured: true}))

	c, err := NewPluralizingTableName(pluralization.New())
	require.NoError(err)
	s, err := NewSet(c)
	require.NoError(err)
	require.NoError(s.Apply(context.Background(), m, edm.SSpace))

	set, _ := m.Store.EntitySetFor(category)
	require.Equal("Categories", set.Table)
	set, _ = m.Store.EntitySetFor(person)
	require.Equal("tbl_person", set.Table)
}
