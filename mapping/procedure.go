// Package mapping configures the stored procedures that insert, update and
// delete the entities of one entity type.
//
// A ModificationStoredProcedures value accumulates one StoredProcedure record
// per operation. The fluent builders passed to Insert, Update and Delete
// validate names and property paths as they are called; failures are kept
// and reported by Err and by Build.
//
//	sp, _ := mapping.New(blog)
//	sp.Insert(func(b *mapping.InsertBuilder) {
//		b.HasName("blog_insert").Parameter("Title", "title").Result("ID", "blog_id")
//	})
package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// Op is a modification operation.
type Op int

// Modification operations.
const (
	OpInsert Op = iota
	OpUpdate
	OpDelete
)

// String returns the operation name.
func (op Op) String() string {
	switch op {
	case OpInsert:
		return "Insert"
	case OpUpdate:
		return "Update"
	case OpDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Parameter configures the parameters bound to one property.
type Parameter struct {
	// Property is the property path, a property name or
	// "<Navigation>.<Key>" for an independent foreign key.
	Property string
	// Name of the current value parameter.
	Name string
	// Original is the name of the original value parameter. Updates only.
	Original string
}

// Result binds a result column of the procedure to a property.
type Result struct {
	Property string
	Column   string
}

// StoredProcedure is the accumulated configuration of one operation. Empty
// fields take their defaults at build time.
type StoredProcedure struct {
	Op           Op
	Name         string
	Schema       string
	Parameters   []Parameter
	Results      []Result
	RowsAffected string
}

func (sp StoredProcedure) clone() StoredProcedure {
	sp.Parameters = slices.Clone(sp.Parameters)
	sp.Results = slices.Clone(sp.Results)
	return sp
}

// ModificationStoredProcedures maps the modification operations of an
// entity type to stored procedures.
type ModificationStoredProcedures struct {
	entity *edm.EntityType
	procs  [3]*procedure
}

// New returns the stored procedure configuration of t. All three operations
// are mapped, with default names and parameters until configured.
func New(t *edm.EntityType) (*ModificationStoredProcedures, error) {
	if t == nil {
		return nil, edmx.Nil("entityType")
	}
	s := &ModificationStoredProcedures{entity: t}
	for _, op := range []Op{OpInsert, OpUpdate, OpDelete} {
		s.procs[op] = &procedure{entity: t, record: StoredProcedure{Op: op}}
	}
	return s, nil
}

// EntityType returns the configured entity type.
func (s *ModificationStoredProcedures) EntityType() *edm.EntityType { return s.entity }

// Insert configures the insert procedure. A nil fn keeps the defaults.
func (s *ModificationStoredProcedures) Insert(fn func(*InsertBuilder)) *ModificationStoredProcedures {
	if fn != nil {
		fn(&InsertBuilder{p: s.procs[OpInsert]})
	}
	return s
}

// Update configures the update procedure. A nil fn keeps the defaults.
func (s *ModificationStoredProcedures) Update(fn func(*UpdateBuilder)) *ModificationStoredProcedures {
	if fn != nil {
		fn(&UpdateBuilder{p: s.procs[OpUpdate]})
	}
	return s
}

// Delete configures the delete procedure. A nil fn keeps the defaults.
func (s *ModificationStoredProcedures) Delete(fn func(*DeleteBuilder)) *ModificationStoredProcedures {
	if fn != nil {
		fn(&DeleteBuilder{p: s.procs[OpDelete]})
	}
	return s
}

// Procedure returns a copy of the record of the given operation.
func (s *ModificationStoredProcedures) Procedure(op Op) StoredProcedure {
	return s.procs[op].record.clone()
}

// Err returns the configuration errors of all operations, or nil.
func (s *ModificationStoredProcedures) Err() error {
	var errs []error
	for _, p := range s.procs {
		errs = append(errs, p.errs...)
	}
	return errors.Join(errs...)
}

// procedure is the state shared by the builders of one operation.
type procedure struct {
	entity *edm.EntityType
	record StoredProcedure
	errs   []error
}

func (p *procedure) fail(err error) {
	p.errs = append(p.errs, err)
}

func (p *procedure) err() error {
	return errors.Join(p.errs...)
}

func (p *procedure) hasName(name string) {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		p.fail(err)
		return
	}
	p.record.Name = name
}

func (p *procedure) hasSchema(schema string) {
	if err := edmx.CheckNotEmpty("schema", schema); err != nil {
		p.fail(err)
		return
	}
	p.record.Schema = schema
}

// parameter records the parameter names of a property. Empty names leave
// the previous value untouched.
func (p *procedure) parameter(path, current, original string) {
	if !p.resolve(path) {
		return
	}
	i := slices.IndexFunc(p.record.Parameters, func(x Parameter) bool { return x.Property == path })
	if i < 0 {
		p.record.Parameters = append(p.record.Parameters, Parameter{Property: path})
		i = len(p.record.Parameters) - 1
	}
	if current != "" {
		p.record.Parameters[i].Name = current
	}
	if original != "" {
		p.record.Parameters[i].Original = original
	}
}

func (p *procedure) result(path, column string) {
	if err := edmx.CheckNotEmpty("column", column); err != nil {
		p.fail(err)
		return
	}
	if !p.resolve(path) {
		return
	}
	i := slices.IndexFunc(p.record.Results, func(x Result) bool { return x.Property == path })
	if i < 0 {
		p.record.Results = append(p.record.Results, Result{Property: path, Column: column})
		return
	}
	p.record.Results[i].Column = column
}

func (p *procedure) rowsAffected(name string) {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		p.fail(err)
		return
	}
	p.record.RowsAffected = name
}

// resolve checks that path names a property of the entity type. Navigation
// paths are checked at build time, once relationships are known.
func (p *procedure) resolve(path string) bool {
	if err := edmx.CheckNotEmpty("property", path); err != nil {
		p.fail(err)
		return false
	}
	if nav, key, ok := strings.Cut(path, "."); ok {
		if nav == "" || key == "" || strings.Contains(key, ".") {
			p.fail(edmx.NewModelError(p.entity.FullName(), fmt.Sprintf("invalid property path %q", path), nil))
			return false
		}
		return true
	}
	if _, ok := p.entity.Property(path); !ok {
		p.fail(edmx.NewModelError(p.entity.FullName(), fmt.Sprintf("property %q was not found", path), nil))
		return false
	}
	return true
}

// field returns the name of the property reflected from f.
func (p *procedure) field(f *reflect.StructField) (string, bool) {
	prop, ok := p.entity.PropertyByIndex(f.Index)
	if !ok {
		p.fail(edmx.NewModelError(p.entity.FullName(), fmt.Sprintf("field %q is not a mapped property", f.Name), nil))
		return "", false
	}
	return prop.Name, true
}
