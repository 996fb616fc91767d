package edm

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PrimitiveKind is the primitive type of a property.
type PrimitiveKind int

// Primitive kinds.
const (
	KindInvalid PrimitiveKind = iota
	KindBool
	KindInt32
	KindInt64
	KindDecimal
	KindFloat64
	KindString
	KindDateTime
	KindGUID
	KindBinary
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "bool",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindDecimal:  "decimal",
	KindFloat64:  "float64",
	KindString:   "string",
	KindDateTime: "datetime",
	KindGUID:     "guid",
	KindBinary:   "binary",
}

// String returns the kind name.
func (k PrimitiveKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Integer reports whether the kind is an integer kind.
func (k PrimitiveKind) Integer() bool {
	return k == KindInt32 || k == KindInt64
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (PrimitiveKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if k != int(KindInvalid) && name == s {
			return PrimitiveKind(k), nil
		}
	}
	switch s {
	case "int":
		return KindInt64, nil
	case "uuid":
		return KindGUID, nil
	case "time":
		return KindDateTime, nil
	case "bytes":
		return KindBinary, nil
	}
	return KindInvalid, fmt.Errorf("unknown primitive kind %q", s)
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// KindOf returns the primitive kind for a Go type and whether values of the
// type are nullable. Pointer types are nullable. The zero kind is returned
// for types that cannot be mapped.
func KindOf(t reflect.Type) (PrimitiveKind, bool) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return KindDateTime, nullable
	case t == uuidType:
		return KindGUID, nullable
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, nullable
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return KindInt32, nullable
	case reflect.Int, reflect.Int64, reflect.Uint32, reflect.Uint, reflect.Uint64:
		return KindInt64, nullable
	case reflect.Float32, reflect.Float64:
		return KindFloat64, nullable
	case reflect.String:
		// Strings are reference-like in the conceptual model.
		return KindString, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindBinary, true
		}
	}
	return KindInvalid, nullable
}

// StoreGeneratedPattern describes how the store generates a property value.
type StoreGeneratedPattern int

// Store generated patterns. Unspecified means no explicit configuration and
// no convention has decided yet; it is treated as None by the store.
const (
	StoreGeneratedUnspecified StoreGeneratedPattern = iota
	StoreGeneratedNone
	StoreGeneratedIdentity
	StoreGeneratedComputed
)

// String returns the pattern name.
func (p StoreGeneratedPattern) String() string {
	switch p {
	case StoreGeneratedNone:
		return "None"
	case StoreGeneratedIdentity:
		return "Identity"
	case StoreGeneratedComputed:
		return "Computed"
	default:
		return "Unspecified"
	}
}

// Generated reports whether the store produces the value.
func (p StoreGeneratedPattern) Generated() bool {
	return p == StoreGeneratedIdentity || p == StoreGeneratedComputed
}

// Property is a primitive property of an entity type. In the store space a
// property is a table column.
type Property struct {
	// Name of the property. For store properties this is the column name.
	Name string
	// Kind holds the primitive type.
	Kind PrimitiveKind
	// Nullable indicates the property accepts null values.
	Nullable bool
	// MaxLength bounds string and binary values. Zero means unbounded.
	MaxLength int
	// StoreGenerated holds the store generation pattern.
	StoreGenerated StoreGeneratedPattern
	// ConcurrencyToken marks a property whose original value is checked by
	// updates and deletes.
	ConcurrencyToken bool
	// ColumnName overrides the store column name of a conceptual property.
	ColumnName string
	// StoreType holds the provider type name of a store property.
	StoreType string
	// Index is the Go struct field index path of a reflected property.
	Index []int

	declaring *EntityType
}

// NewProperty returns a new property.
func NewProperty(name string, kind PrimitiveKind) *Property {
	return &Property{Name: name, Kind: kind}
}

// DeclaringType returns the entity type that owns the property.
func (p *Property) DeclaringType() *EntityType { return p.declaring }

// Column returns the store column name of a conceptual property.
func (p *Property) Column() string {
	if p.ColumnName != "" {
		return p.ColumnName
	}
	return p.Name
}

// Clone returns a copy of the property that is not attached to any type.
func (p *Property) Clone() *Property {
	c := *p
	c.declaring = nil
	c.Index = append([]int(nil), p.Index...)
	return &c
}

// NavigationProperty traverses an association from one end to the other.
type NavigationProperty struct {
	// Name of the navigation property.
	Name string
	// Association traversed by this navigation.
	Association *AssociationType
	// FromEnd is the end of the declaring type.
	FromEnd *AssociationEndMember
	// ToEnd is the end of the target type.
	ToEnd *AssociationEndMember
	// Target is the entity type the navigation points to.
	Target *EntityType
	// Collection indicates the navigation yields many entities.
	Collection bool
	// Required indicates the navigation was declared as required.
	Required bool
	// Index is the Go struct field index path of a reflected navigation.
	Index []int

	declaring *EntityType
}

// DeclaringType returns the entity type that owns the navigation property.
func (n *NavigationProperty) DeclaringType() *EntityType { return n.declaring }
