// Package binding provides live objects that mirror one record of a store.
//
// A [Binding] is identified by an immutable key. It never caches field
// values: every read goes back to the store. Writes are sent to the store as
// partial patches, and the store's "modified" event is re-published as the
// binding's own "changed" event:
//
//	s := store.NewMemory(store.DefaultConfig())
//	b, err := binding.New(ctx, s, store.Record{"id": "A", "color": "red"})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	b.On(binding.EventChanged, func(patch store.Record) {
//	    fmt.Println("changed:", patch)
//	})
//	b.Set(ctx, "color", "blue") // prints changed: map[color:blue]
//
// # Lifecycle
//
// A binding moves through Constructing, Attached and Detached. Construction
// is all-or-nothing: on failure no subscription is left behind. While
// Attached the binding listens to the store's "modified" and "removed"
// events for its key only. When its record is removed, or when [Binding.Close]
// is called, both store subscriptions are released exactly once and the
// binding is Detached for good. Removal does not emit "changed".
//
// # Typed bindings
//
// [NewType] builds a binding type from a fixed store and a list of field
// names. The resulting field-descriptor table is evaluated once; [Typed]
// values dispatch [Typed.Field] and [Typed.SetField] through it. The primary
// key is always read-only:
//
//	todo, _ := binding.NewType(s, "title", "isDone")
//	v, _ := todo.New(ctx, store.Record{"id": "A", "title": "Clean room", "isDone": false})
//	title, _ := binding.FieldAs[string](ctx, v, "title")
//	err := v.SetField(ctx, "id", "HACKED") // ErrImmutableField
//
// # Errors
//
//   - [ErrMissingPrimaryKey] - properties lack the store's primary-key field
//   - [ErrInvalidPrimaryKey] - primary-key value is not a non-empty string
//   - [ErrImmutableField] - write to the primary key
//   - [ErrUnknownField] - field not declared on the binding type
//   - [ErrInvalidField] - empty or duplicate field name in a type declaration
//   - [ErrFieldType] - field value does not have the requested Go type
package binding
