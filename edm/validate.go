package edm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/edmx"
)

// ValidationError represents a model validation issue.
type ValidationError struct {
	// Space of the offending element.
	Space DataSpace
	// Element is the qualified name of the offending element.
	Element string
	// Member is the offending member of the element, if any.
	Member  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("%s %s.%s: %s", e.Space, e.Element, e.Member, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Space, e.Element, e.Message)
}

// ValidationResult holds the results of model validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// Valid reports whether the model has no validation errors. Warnings do
// not make a model invalid.
func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Err returns a ModelError for the first validation error, or nil.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	first := r.Errors[0]
	msg := first.Message
	if first.Member != "" {
		msg = first.Member + ": " + msg
	}
	if n := len(r.Errors) - 1; n > 0 {
		msg = fmt.Sprintf("%s (and %d more)", msg, n)
	}
	return edmx.NewModelError(first.Element, msg, nil)
}

// String lists the issues one per line, errors first, each prefixed with
// its severity.
func (r *ValidationResult) String() string {
	if len(r.Errors)+len(r.Warnings) == 0 {
		return "valid"
	}
	lines := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		lines = append(lines, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		lines = append(lines, "warning: "+w.Error())
	}
	return strings.Join(lines, "\n")
}

func (r *ValidationResult) errorf(space DataSpace, elem, member, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Space: space, Element: elem, Member: member, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(space DataSpace, elem, member, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Space: space, Element: elem, Member: member, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the structural consistency of a DbModel. Errors cover
// missing keys, nullable keys, dangling association ends, unmapped or
// missing columns and duplicate column names. Cascade delete cycles in the
// store model are reported as warnings.
//
// Example:
//
//	result := edm.Validate(model)
//	if err := result.Err(); err != nil {
//	    return err
//	}
func Validate(m *DbModel) *ValidationResult {
	r := &ValidationResult{}
	if m == nil {
		r.errorf(CSpace, "", "", "model is nil")
		return r
	}
	for _, em := range []*EdmModel{m.Conceptual, m.Store} {
		if em == nil {
			continue
		}
		validateModel(r, em)
	}
	if m.Store != nil && m.Mapping != nil {
		validateMapping(r, m)
		validateCascadeCycles(r, m.Store)
	}
	return r
}

func validateModel(r *ValidationResult, m *EdmModel) {
	for _, t := range m.entityTypes {
		if !t.HasKey() {
			r.errorf(m.Space, t.FullName(), "", "entity type has no key")
		}
		for _, k := range t.keys {
			if k.Nullable {
				r.errorf(m.Space, t.FullName(), k.Name, "key property is nullable")
			}
		}
		seen := make(map[string]bool, len(t.properties))
		for _, p := range t.properties {
			col := p.Name
			if m.Space == CSpace {
				col = p.Column()
			}
			if seen[col] {
				r.errorf(m.Space, t.FullName(), p.Name, "duplicate column name %q", col)
			}
			seen[col] = true
		}
	}
	for _, a := range m.associations {
		if err := a.Check(); err != nil {
			var me *edmx.ModelError
			if errors.As(err, &me) {
				r.errorf(m.Space, a.FullName(), "", "%s", me.Message)
			}
			continue
		}
		for _, e := range []*AssociationEndMember{a.SourceEnd, a.TargetEnd} {
			if e.EntityType.model != m {
				r.errorf(m.Space, a.FullName(), e.Name, "end type %q is not part of the model", e.EntityType.Name)
			}
		}
		if c := a.Constraint; c != nil {
			if c.Dependent == nil || c.Dependent.EntityType == nil {
				r.errorf(m.Space, a.FullName(), "", "referential constraint has no dependent end")
				continue
			}
			for _, p := range c.DependentProperties {
				if p.declaring != c.Dependent.EntityType {
					r.errorf(m.Space, a.FullName(), p.Name, "dependent property is not declared by %q", c.Dependent.EntityType.Name)
				}
			}
		}
	}
}

func validateMapping(r *ValidationResult, m *DbModel) {
	for _, t := range m.Conceptual.entityTypes {
		esm, ok := m.Mapping.EntitySetMappingFor(t)
		if !ok {
			r.errorf(CSpace, t.FullName(), "", "entity type is not mapped to a table")
			continue
		}
		table := esm.Table.ElementType
		for _, pm := range esm.Properties {
			if pm.Column == nil {
				r.errorf(CSpace, t.FullName(), pm.Property.Name, "property is not mapped to a column")
				continue
			}
			if c, ok := table.Property(pm.Column.Name); !ok || c != pm.Column {
				r.errorf(SSpace, table.FullName(), pm.Column.Name, "mapped column does not exist in table %q", esm.Table.Table)
			}
		}
	}
	for _, fm := range m.Mapping.functions {
		for _, f := range []*FunctionMapping{fm.Insert, fm.Update, fm.Delete} {
			if f == nil {
				continue
			}
			if _, ok := m.Store.Function(f.Function.Schema, f.Function.Name); !ok {
				r.errorf(SSpace, f.Function.FullName(), "", "mapped function does not exist in the store model")
			}
		}
	}
}

// validateCascadeCycles warns when cascading foreign keys form a cycle
// between tables.
func validateCascadeCycles(r *ValidationResult, store *EdmModel) {
	edges := make(map[*EntityType][]*EntityType)
	for _, a := range store.associations {
		if a.Check() != nil || a.IsSelfReferencing() {
			continue
		}
		for _, e := range []*AssociationEndMember{a.SourceEnd, a.TargetEnd} {
			if e.DeleteBehavior == Cascade {
				other := a.OtherEnd(e)
				edges[e.EntityType] = append(edges[e.EntityType], other.EntityType)
			}
		}
	}
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*EntityType]int)
	var visit func(t *EntityType, path []string) bool
	visit = func(t *EntityType, path []string) bool {
		switch state[t] {
		case visiting:
			r.warnf(SSpace, t.FullName(), "", "cascade delete cycle: %s", strings.Join(append(path, t.Name), " -> "))
			return true
		case done:
			return false
		}
		state[t] = visiting
		for _, next := range edges[t] {
			if visit(next, append(path, t.Name)) {
				state[t] = done
				return true
			}
		}
		state[t] = done
		return false
	}
	for _, t := range store.entityTypes {
		if state[t] == 0 {
			visit(t, nil)
		}
	}
}
