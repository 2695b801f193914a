package binding

import (
	"context"
	"fmt"
	"slices"

	"github.com/jacentio/tether/store"
)

// FieldDescriptor declares one field exposed by a binding type.
type FieldDescriptor struct {
	// Name is the record field name.
	Name string

	// ReadOnly rejects writes through SetField.
	ReadOnly bool
}

// Type is a binding type: a fixed store plus a field-descriptor table.
type Type struct {
	store  store.Store
	fields []FieldDescriptor
	index  map[string]int
}

// NewType declares a binding type over s exposing fields as read/write
// accessors. The store's primary key is always exposed, read-only.
func NewType(s store.Store, fields ...string) (*Type, error) {
	t := &Type{
		store: s,
		index: make(map[string]int, len(fields)+1),
	}
	t.add(FieldDescriptor{Name: s.PrimaryKey(), ReadOnly: true})
	if err := t.addFields(fields); err != nil {
		return nil, err
	}
	return t, nil
}

// Extend returns a new type with the descriptors of t plus fields, bound
// to the same store. t itself is unchanged.
func (t *Type) Extend(fields ...string) (*Type, error) {
	ext := &Type{
		store:  t.store,
		fields: slices.Clone(t.fields),
		index:  make(map[string]int, len(t.fields)+len(fields)),
	}
	for name, i := range t.index {
		ext.index[name] = i
	}
	if err := ext.addFields(fields); err != nil {
		return nil, err
	}
	return ext, nil
}

// Store returns the store instances of this type bind to.
func (t *Type) Store() store.Store {
	return t.store
}

// Fields returns the descriptor table, primary key first.
func (t *Type) Fields() []FieldDescriptor {
	return slices.Clone(t.fields)
}

// Field returns the descriptor for name.
func (t *Type) Field(name string) (FieldDescriptor, bool) {
	i, ok := t.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return t.fields[i], true
}

// New creates a binding of this type.
func (t *Type) New(ctx context.Context, props store.Record, opts ...Option) (*Typed, error) {
	b, err := New(ctx, t.store, props, opts...)
	if err != nil {
		return nil, err
	}
	return &Typed{Binding: b, typ: t}, nil
}

func (t *Type) addFields(fields []string) error {
	for _, name := range fields {
		if name == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidField)
		}
		if _, dup := t.index[name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidField, name)
		}
		t.add(FieldDescriptor{Name: name})
	}
	return nil
}

func (t *Type) add(d FieldDescriptor) {
	t.index[d.Name] = len(t.fields)
	t.fields = append(t.fields, d)
}

// Typed is a Binding with declared field accessors. All Binding methods
// remain available.
type Typed struct {
	*Binding
	typ *Type
}

// Type returns the binding type v was created from.
func (v *Typed) Type() *Type {
	return v.typ
}

// ID returns the primary-key value.
func (v *Typed) ID() string {
	return v.Key()
}

// Field reads a declared field. Absent records or fields read as nil.
func (v *Typed) Field(ctx context.Context, name string) (any, error) {
	if _, ok := v.typ.Field(name); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if name == v.PrimaryKey() {
		return v.Key(), nil
	}
	return v.Get(ctx, name)
}

// SetField writes a declared read/write field.
func (v *Typed) SetField(ctx context.Context, name string, value any) error {
	d, ok := v.typ.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if d.ReadOnly {
		return fmt.Errorf("%w: field %q", ErrImmutableField, name)
	}
	return v.Set(ctx, name, value)
}

// FieldAs reads a declared field as T. An absent field yields the zero
// value of T.
func FieldAs[T any](ctx context.Context, v *Typed, name string) (T, error) {
	var zero T
	raw, err := v.Field(ctx, name)
	if err != nil || raw == nil {
		return zero, err
	}
	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: field %q is %T, not %T", ErrFieldType, name, raw, zero)
	}
	return val, nil
}
