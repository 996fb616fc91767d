// Package gen generates Go constants naming the tables, columns and stored
// procedures of a built model, so queries written by hand stay in sync with
// the store model.
package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// DefaultHeader is the header comment of generated files.
const DefaultHeader = "Code generated by edmx, DO NOT EDIT."

// Config configures code generation.
type Config struct {
	// Header is added at the top of each generated file.
	Header string
	// Workers is the number of files formatted and written in parallel.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		if header == "" {
			return edmx.NewConfigError("Header", header, "header cannot be empty")
		}
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return edmx.NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// Metrics tracks generation output.
type Metrics struct {
	Files int
	Bytes int64
}

// Writer writes the constants of a model into a package directory.
type Writer struct {
	model  *edm.DbModel
	dir    string
	pkg    string
	config Config

	mu      sync.Mutex
	metrics Metrics
}

// NewWriter returns a writer generating package pkg into dir.
func NewWriter(m *edm.DbModel, dir, pkg string, opts ...Option) (*Writer, error) {
	if m == nil {
		return nil, edmx.Nil("model")
	}
	if err := edmx.CheckNotEmpty("dir", dir); err != nil {
		return nil, err
	}
	if !token(pkg) {
		return nil, edmx.NewArgumentError("pkg", fmt.Sprintf("%q is not a valid package name", pkg))
	}
	w := &Writer{
		model:  m,
		dir:    dir,
		pkg:    pkg,
		config: Config{Header: DefaultHeader, Workers: runtime.GOMAXPROCS(0)},
	}
	for _, opt := range opts {
		if err := opt(&w.config); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Generate writes one file per entity set of m, plus a model file, into dir.
func Generate(ctx context.Context, m *edm.DbModel, dir, pkg string, opts ...Option) error {
	w, err := NewWriter(m, dir, pkg, opts...)
	if err != nil {
		return err
	}
	return w.Write(ctx)
}

// Metrics returns the generation metrics.
func (w *Writer) Metrics() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Files returns the files the writer generates, keyed by file name.
func (w *Writer) Files() map[string]*jen.File {
	files := make(map[string]*jen.File)
	for _, esm := range w.model.Mapping.EntitySetMappings() {
		t := esm.EntitySet.ElementType
		files[fileName(t.Name)] = w.entityFile(esm)
	}
	files["model.go"] = w.modelFile()
	return files
}

// Write generates all files in parallel.
func (w *Writer) Write(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.config.Workers)
	for name, f := range w.Files() {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(name, f)
			}
		})
	}
	return eg.Wait()
}

func (w *Writer) write(name string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debug := path + ".error"
		_ = os.WriteFile(debug, buf.Bytes(), 0o644)
		return fmt.Errorf("format %s: %w (unformatted written to %s)", name, err, debug)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.mu.Lock()
	w.metrics.Files++
	w.metrics.Bytes += int64(len(formatted))
	w.mu.Unlock()
	return nil
}

func (w *Writer) newFile() *jen.File {
	f := jen.NewFile(w.pkg)
	f.HeaderComment(w.config.Header)
	return f
}

// entityFile generates the table, column and procedure names of one entity
// set.
func (w *Writer) entityFile(esm *edm.EntitySetMapping) *jen.File {
	f := w.newFile()
	t := esm.EntitySet.ElementType
	prefix := Pascal(t.Name)
	table := esm.Table

	defs := []jen.Code{
		jen.Comment(fmt.Sprintf("%sTable is the table of the %s entity set.", prefix, esm.EntitySet.Name)),
		jen.Id(prefix + "Table").Op("=").Lit(table.Table),
	}
	if table.Schema != "" {
		defs = append(defs, jen.Id(prefix+"Schema").Op("=").Lit(table.Schema))
	}
	seen := map[string]bool{prefix + "Table": true, prefix + "Schema": true}
	var columns []jen.Code
	for _, c := range table.ElementType.Properties() {
		id := unique(seen, prefix+"Column"+Pascal(c.Name))
		defs = append(defs, jen.Id(id).Op("=").Lit(c.Name))
		columns = append(columns, jen.Id(id))
	}
	f.Commentf("Names of the %s table.", table.Table)
	f.Const().Defs(defs...)

	f.Commentf("%sColumns holds the columns of the %s table.", prefix, table.Table)
	f.Var().Id(prefix + "Columns").Op("=").Index().String().Values(columns...)

	f.Commentf("%sKey holds the primary key columns of the %s table.", prefix, table.Table)
	var key []jen.Code
	for _, k := range table.ElementType.KeyNames() {
		key = append(key, jen.Lit(k))
	}
	f.Var().Id(prefix + "Key").Op("=").Index().String().Values(key...)

	if fm, ok := w.model.Mapping.FunctionMappingFor(t); ok {
		var procs []jen.Code
		for _, op := range []struct {
			name string
			fm   *edm.FunctionMapping
		}{{"Insert", fm.Insert}, {"Update", fm.Update}, {"Delete", fm.Delete}} {
			if op.fm == nil {
				continue
			}
			procs = append(procs, jen.Id(prefix+op.name+"Procedure").Op("=").Lit(op.fm.Function.FullName()))
		}
		if len(procs) > 0 {
			f.Commentf("Stored procedures modifying %s.", esm.EntitySet.Name)
			f.Const().Defs(procs...)
		}
	}
	return f
}

// modelFile generates the provider information and the link tables of
// many-to-many associations.
func (w *Writer) modelFile() *jen.File {
	f := w.newFile()
	if ns := w.model.Conceptual.Namespace; ns != "" {
		f.PackageComment(fmt.Sprintf("Package %s holds the store names of the %s model.", w.pkg, ns))
	}
	f.Const().Defs(
		jen.Comment("Namespace of the conceptual model."),
		jen.Id("Namespace").Op("=").Lit(w.model.Conceptual.Namespace),
		jen.Comment("Provider the model was built for."),
		jen.Id("Provider").Op("=").Lit(w.model.ProviderInfo.Provider),
		jen.Comment("ManifestToken is the provider version the model was built for."),
		jen.Id("ManifestToken").Op("=").Lit(w.model.ProviderInfo.ManifestToken),
	)
	mapped := make(map[*edm.EntitySet]bool)
	for _, esm := range w.model.Mapping.EntitySetMappings() {
		mapped[esm.Table] = true
	}
	var links []jen.Code
	for _, set := range w.model.Store.EntitySets() {
		if mapped[set] {
			continue
		}
		links = append(links, jen.Id(Pascal(set.Name)+"Table").Op("=").Lit(set.Table))
	}
	if len(links) > 0 {
		f.Comment("Link tables of many-to-many associations.")
		f.Const().Defs(links...)
	}
	return f
}

// Pascal returns name as an exported Go identifier. Underscores, dashes,
// dots and spaces separate words.
//
//	Pascal("blog_id")   // BlogID
//	Pascal("post-tags") // PostTags
func Pascal(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	title := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		switch lw := strings.ToLower(w); lw {
		case "id", "url", "sql", "uuid":
			b.WriteString(strings.ToUpper(lw))
		default:
			b.WriteString(title.String(w))
		}
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "X" + s
	}
	return s
}

// fileName returns the snake case file name of an entity type.
func fileName(name string) string {
	var b strings.Builder
	rs := []rune(name)
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || i+1 < len(rs) && unicode.IsLower(rs[i+1])) && rs[i-1] != '_' {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	s := b.String()
	// model.go is taken and _test files are skipped by the compiler.
	if strings.HasSuffix(s, "_test") || s == "model" {
		s += "_entity"
	}
	return s + ".go"
}

func unique(seen map[string]bool, id string) string {
	name := id
	for i := 2; seen[name]; i++ {
		name = fmt.Sprintf("%s%d", id, i)
	}
	seen[name] = true
	return name
}

// token reports whether s is a valid package name.
func token(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !unicode.IsLetter(r) && r != '_' && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
