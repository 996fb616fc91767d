package gen

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/load"
)

const blogging = `
namespace: Blogging
entities:
  - name: Blog
    key: [ID]
    properties:
      - {name: ID, kind: int64}
      - {name: Name, kind: string, required: true, column: name}
    procedures: {}
  - name: Post
    properties:
      - {name: ID, kind: int64}
      - {name: BlogID, kind: int64}
    relationships:
      - {navigation: Blog, target: Blog, multiplicity: required, inverse: Posts, inverseMultiplicity: many, foreignKey: [BlogID]}
      - {navigation: Tags, target: Tag, multiplicity: many, inverse: Posts, inverseMultiplicity: many}
  - name: Tag
    properties:
      - {name: ID, kind: int32}
`

func build(t *testing.T) *edm.DbModel {
	t.Helper()
	s, err := load.Parse([]byte(blogging))
	require.NoError(t, err)
	b, err := s.Builder()
	require.NoError(t, err)
	m, err := b.Build(context.Background(), "mysql")
	require.NoError(t, err)
	return m
}

func TestGenerate(t *testing.T) {
	require := require.New(t)
	m := build(t)
	dir := filepath.Join(t.TempDir(), "blogging")
	w, err := NewWriter(m, dir, "blogging", WithWorkers(2))
	require.NoError(err)
	require.NoError(w.Write(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(err)
	var names []string
	fset := token.NewFileSet()
	for _, e := range entries {
		names = append(names, e.Name())
		f, err := parser.ParseFile(fset, filepath.Join(dir, e.Name()), nil, parser.PackageClauseOnly)
		require.NoError(err)
		require.Equal("blogging", f.Name.Name)
	}
	require.ElementsMatch([]string{"blog.go", "post.go", "tag.go", "model.go"}, names)
	metrics := w.Metrics()
	require.Equal(4, metrics.Files)
	require.Positive(metrics.Bytes)

	blog := read(t, dir, "blog.go")
	assert.Contains(t, blog, "// Code generated by edmx, DO NOT EDIT.")
	constant(t, blog, "BlogTable", "Blogs")
	constant(t, blog, "BlogColumnName", "name")
	assert.Contains(t, blog, `BlogColumns = []string{BlogColumnID, BlogColumnName}`)
	constant(t, blog, "BlogInsertProcedure", "Blog_Insert")
	constant(t, blog, "BlogDeleteProcedure", "Blog_Delete")
	assert.NotContains(t, blog, "BlogSchema")

	post := read(t, dir, "post.go")
	constant(t, post, "PostColumnBlogID", "BlogID")
	assert.Contains(t, post, `PostKey = []string{"ID"}`)
	assert.NotContains(t, post, "Procedure")

	model := read(t, dir, "model.go")
	assert.Contains(t, model, "// Package blogging holds the store names of the Blogging model.")
	constant(t, model, "Provider", "mysql")
	constant(t, model, "PostTagTable", "PostTags")
}

func TestGenerateSchema(t *testing.T) {
	s, err := load.Parse([]byte(`
entities:
  - name: Item
    table: items
    schema: catalog
    properties:
      - {name: Code, kind: string, required: true, maxLength: 8}
    key: [Code]
    procedures:
      insert: {name: add_item}
`))
	require.NoError(t, err)
	b, err := s.Builder()
	require.NoError(t, err)
	m, err := b.Build(context.Background(), "postgres")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Generate(context.Background(), m, dir, "catalog", WithHeader("Code generated by tests. DO NOT EDIT.")))
	item := read(t, dir, "item.go")
	assert.Contains(t, item, "// Code generated by tests. DO NOT EDIT.")
	constant(t, item, "ItemSchema", "catalog")
	constant(t, item, "ItemColumnCode", "Code")
	constant(t, item, "ItemInsertProcedure", "catalog.add_item")
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Generate(ctx, build(t), t.TempDir(), "blogging", WithWorkers(1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriterErrors(t *testing.T) {
	m := build(t)
	_, err := NewWriter(nil, "out", "x")
	require.True(t, edmx.IsArgumentError(err))
	_, err = NewWriter(m, "", "x")
	require.True(t, edmx.IsArgumentError(err))
	for _, pkg := range []string{"", "1st", "my-pkg"} {
		_, err = NewWriter(m, "out", pkg)
		require.True(t, edmx.IsArgumentError(err), pkg)
	}
	_, err = NewWriter(m, "out", "x", WithWorkers(0))
	require.True(t, edmx.IsConfigError(err))
	_, err = NewWriter(m, "out", "x", WithHeader(""))
	require.True(t, edmx.IsConfigError(err))
}

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"blog":       "Blog",
		"blog_id":    "BlogID",
		"Blog_ID":    "BlogID",
		"post-tags":  "PostTags",
		"created at": "CreatedAt",
		"OrderLine":  "OrderLine",
		"2":          "X2",
		"":           "X",
	}
	for in, want := range tests {
		assert.Equal(t, want, Pascal(in), in)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"Blog":        "blog.go",
		"OrderLine":   "order_line.go",
		"HTTPRequest": "http_request.go",
		"Model":       "model_entity.go",
		"Unit_Test":   "unit_test_entity.go",
	}
	for in, want := range tests {
		assert.Equal(t, want, fileName(in), in)
	}
}

// constant asserts src declares the string constant name with value.
func constant(t *testing.T, src, name, value string) {
	t.Helper()
	assert.Regexp(t, `(?m)^\s*`+name+`\s+= `+regexp.QuoteMeta(strconv.Quote(value))+`$`, src)
}

func read(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}
