// Package load reads model declarations from YAML files and replays them on
// a builder.
//
//	namespace: Blogging
//	entities:
//	  - name: Blog
//	    key: [ID]
//	    properties:
//	      - {name: ID, kind: int64}
//	      - {name: Name, kind: string, required: true, maxLength: 100}
//	  - name: Post
//	    properties:
//	      - {name: ID, kind: int64}
//	      - {name: BlogID, kind: int64}
//	    relationships:
//	      - {navigation: Blog, target: Blog, multiplicity: required, inverse: Posts, inverseMultiplicity: many, foreignKey: [BlogID]}
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/builder"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/mapping"
)

// Schema is a set of model declarations loaded from a file.
type Schema struct {
	// Path of the file the schema was loaded from, if any.
	Path          string    `yaml:"-"`
	Namespace     string    `yaml:"namespace,omitempty"`
	DefaultSchema string    `yaml:"defaultSchema,omitempty"`
	Entities      []*Entity `yaml:"entities"`
}

// Entity declares an entity type.
type Entity struct {
	Name          string          `yaml:"name"`
	Table         string          `yaml:"table,omitempty"`
	Schema        string          `yaml:"schema,omitempty"`
	Key           []string        `yaml:"key,omitempty"`
	Properties    []*Property     `yaml:"properties,omitempty"`
	Ignore        []string        `yaml:"ignore,omitempty"`
	Relationships []*Relationship `yaml:"relationships,omitempty"`
	Procedures    *Procedures     `yaml:"procedures,omitempty"`
}

// Property declares a primitive property.
type Property struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Required    bool   `yaml:"required,omitempty"`
	Optional    bool   `yaml:"optional,omitempty"`
	MaxLength   int    `yaml:"maxLength,omitempty"`
	Column      string `yaml:"column,omitempty"`
	Concurrency bool   `yaml:"concurrency,omitempty"`
	// Generated is one of identity, computed or none.
	Generated string `yaml:"generated,omitempty"`
}

// Relationship declares a navigation of the entity and its association.
type Relationship struct {
	Navigation string `yaml:"navigation"`
	Target     string `yaml:"target"`
	// Multiplicity of the target end: required, optional or many.
	Multiplicity string `yaml:"multiplicity"`
	Inverse      string `yaml:"inverse,omitempty"`
	// InverseMultiplicity of the declaring end: required, optional or many.
	InverseMultiplicity string   `yaml:"inverseMultiplicity,omitempty"`
	CascadeOnDelete     *bool    `yaml:"cascadeOnDelete,omitempty"`
	ForeignKey          []string `yaml:"foreignKey,omitempty"`
}

// Procedures maps the modification operations of an entity to stored
// procedures. An empty Procedures value maps them with the defaults.
type Procedures struct {
	Insert *Procedure `yaml:"insert,omitempty"`
	Update *Procedure `yaml:"update,omitempty"`
	Delete *Procedure `yaml:"delete,omitempty"`
}

// Procedure configures one stored procedure.
type Procedure struct {
	Name         string       `yaml:"name,omitempty"`
	Schema       string       `yaml:"schema,omitempty"`
	Parameters   []*Parameter `yaml:"parameters,omitempty"`
	Results      []*Result    `yaml:"results,omitempty"`
	RowsAffected string       `yaml:"rowsAffected,omitempty"`
}

// Parameter binds a property path to a parameter name. Original names the
// parameter receiving the original value of an update.
type Parameter struct {
	Property string `yaml:"property"`
	Name     string `yaml:"name,omitempty"`
	Original string `yaml:"original,omitempty"`
}

// Result binds a result column to a property.
type Result struct {
	Property string `yaml:"property"`
	Column   string `yaml:"column"`
}

// File loads the schema declared in the YAML file at path.
func File(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Parse parses a YAML schema.
func Parse(data []byte) (*Schema, error) {
	return Decode(bytes.NewReader(data))
}

// Decode decodes a YAML schema from r. Unknown fields are rejected.
func Decode(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	s := &Schema{}
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) check() error {
	seen := make(map[string]bool, len(s.Entities))
	for i, e := range s.Entities {
		if e == nil || e.Name == "" {
			return edmx.NewArgumentError("entities", fmt.Sprintf("entity #%d has no name", i))
		}
		if seen[e.Name] {
			return edmx.NewModelError(e.Name, "entity declared twice", nil)
		}
		seen[e.Name] = true
		for _, p := range e.Properties {
			if _, err := edm.ParseKind(p.Kind); err != nil {
				return edmx.NewModelError(e.Name, fmt.Sprintf("property %q", p.Name), err)
			}
		}
		for _, r := range e.Relationships {
			if _, err := multiplicity(r.Multiplicity); err != nil {
				return edmx.NewModelError(e.Name, fmt.Sprintf("relationship %q", r.Navigation), err)
			}
			if r.InverseMultiplicity != "" {
				if _, err := multiplicity(r.InverseMultiplicity); err != nil {
					return edmx.NewModelError(e.Name, fmt.Sprintf("relationship %q", r.Navigation), err)
				}
			}
		}
	}
	return nil
}

// Options returns the builder options declared by the schema.
func (s *Schema) Options() []builder.Option {
	var opts []builder.Option
	if s.Namespace != "" {
		opts = append(opts, builder.WithNamespace(s.Namespace))
	}
	if s.DefaultSchema != "" {
		opts = append(opts, builder.WithDefaultSchema(s.DefaultSchema))
	}
	return opts
}

// Builder returns a builder with the schema options and opts, with the
// schema declarations applied.
func (s *Schema) Builder(opts ...builder.Option) (*builder.Builder, error) {
	b, err := builder.New(append(s.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Apply replays the schema declarations on b and returns the declaration
// errors recorded by b.
func (s *Schema) Apply(b *builder.Builder) error {
	for _, e := range s.Entities {
		ec := b.Entity(e.Name)
		for _, p := range e.Properties {
			kind, _ := edm.ParseKind(p.Kind)
			pc := ec.Property(p.Name, kind)
			if p.Required {
				pc.IsRequired()
			}
			if p.Optional {
				pc.IsOptional()
			}
			if p.MaxLength != 0 {
				pc.HasMaxLength(p.MaxLength)
			}
			if p.Column != "" {
				pc.HasColumnName(p.Column)
			}
			if p.Concurrency {
				pc.IsConcurrencyToken()
			}
			if p.Generated != "" {
				g, err := generated(p.Generated)
				if err != nil {
					return edmx.NewModelError(e.Name, fmt.Sprintf("property %q", p.Name), err)
				}
				pc.HasStoreGeneratedPattern(g)
			}
		}
		if len(e.Key) > 0 {
			ec.HasKey(e.Key...)
		}
		if e.Table != "" {
			if e.Schema != "" {
				ec.ToTable(e.Table, e.Schema)
			} else {
				ec.ToTable(e.Table)
			}
		}
		for _, name := range e.Ignore {
			ec.Ignore(name)
		}
		if e.Procedures != nil {
			ec.MapToStoredProcedures(e.Procedures.apply)
		}
	}
	// Relationships are declared once every entity exists.
	for _, e := range s.Entities {
		ec := b.Entity(e.Name)
		for _, r := range e.Relationships {
			if err := relationship(ec, r); err != nil {
				return edmx.NewModelError(e.Name, fmt.Sprintf("relationship %q", r.Navigation), err)
			}
		}
	}
	return b.Err()
}

func relationship(ec *builder.EntityConfiguration, r *Relationship) error {
	m, err := multiplicity(r.Multiplicity)
	if err != nil {
		return err
	}
	var rc *builder.RelationshipConfiguration
	switch m {
	case edm.One:
		rc = ec.HasRequired(r.Navigation, r.Target)
	case edm.ZeroOrOne:
		rc = ec.HasOptional(r.Navigation, r.Target)
	default:
		rc = ec.HasMany(r.Navigation, r.Target)
	}
	if r.InverseMultiplicity != "" {
		inv, err := multiplicity(r.InverseMultiplicity)
		if err != nil {
			return err
		}
		switch inv {
		case edm.One:
			rc.WithRequired(r.Inverse)
		case edm.ZeroOrOne:
			rc.WithOptional(r.Inverse)
		default:
			rc.WithMany(r.Inverse)
		}
	} else if r.Inverse != "" {
		return errors.New("inverse navigation without inverseMultiplicity")
	}
	if r.CascadeOnDelete != nil {
		rc.WillCascadeOnDelete(*r.CascadeOnDelete)
	}
	if len(r.ForeignKey) > 0 {
		rc.HasForeignKey(r.ForeignKey...)
	}
	return nil
}

func (p *Procedures) apply(s *mapping.ModificationStoredProcedures) {
	if pr := p.Insert; pr != nil {
		s.Insert(func(b *mapping.InsertBuilder) {
			if pr.Name != "" {
				b.HasName(pr.Name)
			}
			if pr.Schema != "" {
				b.HasSchema(pr.Schema)
			}
			for _, param := range pr.Parameters {
				b.Parameter(param.Property, param.Name)
			}
			for _, r := range pr.Results {
				b.Result(r.Property, r.Column)
			}
			if pr.RowsAffected != "" {
				b.RowsAffectedParameter(pr.RowsAffected)
			}
		})
	}
	if pr := p.Update; pr != nil {
		s.Update(func(b *mapping.UpdateBuilder) {
			if pr.Name != "" {
				b.HasName(pr.Name)
			}
			if pr.Schema != "" {
				b.HasSchema(pr.Schema)
			}
			for _, param := range pr.Parameters {
				if param.Original != "" {
					b.ParameterOriginal(param.Property, param.Name, param.Original)
					continue
				}
				b.Parameter(param.Property, param.Name)
			}
			for _, r := range pr.Results {
				b.Result(r.Property, r.Column)
			}
			if pr.RowsAffected != "" {
				b.RowsAffectedParameter(pr.RowsAffected)
			}
		})
	}
	if pr := p.Delete; pr != nil {
		s.Delete(func(b *mapping.DeleteBuilder) {
			if pr.Name != "" {
				b.HasName(pr.Name)
			}
			if pr.Schema != "" {
				b.HasSchema(pr.Schema)
			}
			for _, param := range pr.Parameters {
				b.Parameter(param.Property, param.Name)
			}
			if pr.RowsAffected != "" {
				b.RowsAffectedParameter(pr.RowsAffected)
			}
		})
	}
}

func multiplicity(s string) (edm.RelationshipMultiplicity, error) {
	switch s {
	case "required", "one":
		return edm.One, nil
	case "optional", "zeroOrOne":
		return edm.ZeroOrOne, nil
	case "many":
		return edm.Many, nil
	}
	return 0, fmt.Errorf("invalid multiplicity %q", s)
}

func generated(s string) (edm.StoreGeneratedPattern, error) {
	switch s {
	case "identity":
		return edm.StoreGeneratedIdentity, nil
	case "computed":
		return edm.StoreGeneratedComputed, nil
	case "none":
		return edm.StoreGeneratedNone, nil
	}
	return 0, fmt.Errorf("invalid generated pattern %q", s)
}
