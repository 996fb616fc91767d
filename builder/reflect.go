package builder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// TagName is the struct tag read by EntityOf.
const TagName = "edmx"

// EntityOf declares the entity type of the struct type T. Exported fields
// of primitive types become properties, pointers to structs become reference
// navigations and slices of structs or pointers to structs become collection
// navigations. Struct types reached by navigations are declared as well.
//
// Fields are configured with the edmx tag:
//
//	type Post struct {
//		ID     int64  `edmx:"key"`
//		Title  string `edmx:"required,maxlen=200,column=title"`
//		Blog   *Blog  `edmx:"required"`
//		Cached string `edmx:"-"`
//	}
func EntityOf[T any](b *Builder) *EntityConfiguration {
	return b.entityOf(reflect.TypeFor[T]())
}

// entityOf returns the configuration of the struct type t, declaring it on
// first use.
func (b *Builder) entityOf(t reflect.Type) *EntityConfiguration {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if e, ok := b.byType[t]; ok {
		return e
	}
	if t.Kind() != reflect.Struct || t.Name() == "" {
		b.fail(edmx.NewArgumentError("T", fmt.Sprintf("%s is not a named struct type", t)))
		return &EntityConfiguration{b: b, typ: edm.NewEntityType(t.Name(), b.config.Namespace)}
	}
	e := b.Entity(t.Name())
	if e.typ.GoType != nil {
		b.fail(edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("entity name used by %s and %s", e.typ.GoType, t), nil))
		return e
	}
	e.typ.GoType = t
	b.byType[t] = e
	if err := e.reflectFields(t, nil); err != nil {
		b.fail(err)
	}
	return e
}

func (e *EntityConfiguration) reflectFields(t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := append(append([]int(nil), index...), i)
		if !f.IsExported() && !f.Anonymous {
			continue
		}
		tag, err := parseTag(f.Tag.Get(TagName))
		if err != nil {
			return edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("field %q", f.Name), err)
		}
		if tag.skip {
			continue
		}
		if kind, nullable := edm.KindOf(f.Type); kind != edm.KindInvalid {
			if !f.IsExported() {
				continue
			}
			if err := e.reflectProperty(f, idx, kind, nullable, tag); err != nil {
				return err
			}
			continue
		}
		ft := f.Type
		if f.Anonymous {
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := e.reflectFields(ft, idx); err != nil {
					return err
				}
			}
			continue
		}
		nav := &navField{name: f.Name, index: idx, required: tag.required}
		switch {
		case ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct:
			nav.target = ft.Elem()
		case ft.Kind() == reflect.Slice && structElem(ft.Elem()) != nil:
			nav.target, nav.collection = structElem(ft.Elem()), true
		default:
			return edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("field %q has unsupported type %s", f.Name, f.Type), nil)
		}
		e.navs = append(e.navs, nav)
		e.b.entityOf(nav.target)
	}
	return nil
}

func (e *EntityConfiguration) reflectProperty(f reflect.StructField, idx []int, kind edm.PrimitiveKind, nullable bool, tag fieldTag) error {
	p := &edm.Property{
		Name:             f.Name,
		Kind:             kind,
		Nullable:         nullable && !tag.required && !tag.key,
		MaxLength:        tag.maxLength,
		ColumnName:       tag.column,
		ConcurrencyToken: tag.concurrency,
		StoreGenerated:   tag.generated,
		Index:            idx,
	}
	if err := e.typ.AddProperty(p); err != nil {
		return err
	}
	if tag.key {
		e.keys = append(e.keys, p.Name)
	}
	return nil
}

func structElem(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if k, _ := edm.KindOf(t); k == edm.KindInvalid {
			return t
		}
	}
	return nil
}

// fieldTag is a parsed edmx struct tag.
type fieldTag struct {
	skip        bool
	key         bool
	required    bool
	concurrency bool
	maxLength   int
	column      string
	generated   edm.StoreGeneratedPattern
}

func parseTag(s string) (fieldTag, error) {
	var tag fieldTag
	if s == "-" {
		tag.skip = true
		return tag, nil
	}
	for _, opt := range strings.Split(s, ",") {
		name, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch name {
		case "":
		case "key":
			tag.key = true
		case "required":
			tag.required = true
		case "concurrency":
			tag.concurrency = true
		case "maxlen":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return tag, fmt.Errorf("invalid maxlen %q", value)
			}
			tag.maxLength = n
		case "column":
			if value == "" {
				return tag, fmt.Errorf("empty column name")
			}
			tag.column = value
		case "generated":
			switch strings.ToLower(value) {
			case "identity":
				tag.generated = edm.StoreGeneratedIdentity
			case "computed":
				tag.generated = edm.StoreGeneratedComputed
			case "none":
				tag.generated = edm.StoreGeneratedNone
			default:
				return tag, fmt.Errorf("invalid generated pattern %q", value)
			}
		default:
			return tag, fmt.Errorf("unknown option %q", name)
		}
	}
	return tag, nil
}
