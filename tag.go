package pumped

import (
	"errors"
	"fmt"

	"github.com/pumped-fn/pumped-go/schema"
)

// tagKey is the symbol backing a Tag's identity. Two tags built from the
// same label are distinct keys — equality is pointer identity, never the
// label string.
type tagKey struct {
	label string
}

// Tagged is a validated key/value pair, the unit DataStore and
// MetaContainer sources are built from.
type Tagged struct {
	Key   any
	Value any
}

// DataStore is the substrate for flow context and scope metadata: a
// mapping from tag symbols to values. ExecutionCtx implements this shape.
type DataStore interface {
	Get(key any) (any, bool)
	Set(key any, value any)
}

// MetaContainer is anything that carries its own tagged metadata —
// executors and flows. Scope also implements this shape for its
// scope-level metadata store.
type MetaContainer interface {
	GetTag(key any) (any, bool)
	SetTag(key any, value any)
}

// Tag is a type-safe, schema-validated metadata accessor. Its identity is
// its symbol (tagKey), not its label.
type Tag[T any] struct {
	key    *tagKey
	schema schema.Schema
	def    *T
	label  string
}

// TagOption configures a Tag at construction.
type TagOption[T any] func(*Tag[T])

// WithDefault sets the value returned by Find/Get when no match exists.
func WithDefault[T any](v T) TagOption[T] {
	return func(t *Tag[T]) { t.def = &v }
}

// WithTagSchema attaches a validator run on every Make/Set.
func WithTagSchema[T any](s schema.Schema) TagOption[T] {
	return func(t *Tag[T]) { t.schema = s }
}

// NewTag creates a new tag. label is for debugging only; identity comes
// from the freshly allocated key, so two tags sharing a label never collide.
func NewTag[T any](label string, opts ...TagOption[T]) Tag[T] {
	t := Tag[T]{key: &tagKey{label: label}, label: label}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Key returns the tag's label, for debugging.
func (t Tag[T]) Key() string {
	return t.label
}

func (t Tag[T]) validate(v T) (T, error) {
	if t.schema == nil {
		return v, nil
	}
	validated, err := t.schema.Validate(v)
	if err != nil {
		if errors.Is(err, schema.ErrValidationAsyncNotSupported) {
			return v, ValidationAsyncNotSupportedError(t.label)
		}
		return v, SchemaValidationError(t.label, err, []string{err.Error()})
	}
	if tv, ok := validated.(T); ok {
		return tv, nil
	}
	return v, nil
}

// Make validates v against the tag's schema and returns a Tagged value,
// the callable-construction form from spec.md §4.1 (`tag(v)`).
func (t Tag[T]) Make(v T) (Tagged, error) {
	validated, err := t.validate(v)
	if err != nil {
		return Tagged{}, err
	}
	return Tagged{Key: t.key, Value: validated}, nil
}

// Find returns the first match in src, the tag's default if none, or
// !ok if neither exists. src is one of: DataStore, []Tagged, MetaContainer.
func (t Tag[T]) Find(src any) (T, bool) {
	switch s := src.(type) {
	case []Tagged:
		for _, tg := range s {
			if tg.Key == t.key {
				if v, ok := tg.Value.(T); ok {
					return v, true
				}
			}
		}
	case DataStore:
		if v, ok := s.Get(t.key); ok {
			if tv, ok := v.(T); ok {
				return tv, true
			}
		}
	case MetaContainer:
		if v, ok := s.GetTag(t.key); ok {
			if tv, ok := v.(T); ok {
				return tv, true
			}
		}
	}
	if t.def != nil {
		return *t.def, true
	}
	var zero T
	return zero, false
}

// Get returns the value or the default; fails with TagNotFound if neither
// exists.
func (t Tag[T]) Get(src any) (T, error) {
	if v, ok := t.Find(src); ok {
		return v, nil
	}
	var zero T
	return zero, TagNotFoundError(t.label)
}

// MustGet panics if the tag is absent. For wiring code, not hot paths.
func (t Tag[T]) MustGet(src any) T {
	v, err := t.Get(src)
	if err != nil {
		panic(err)
	}
	return v
}

// GetOrDefault returns the value, or defaultVal if no match and no tag default.
func (t Tag[T]) GetOrDefault(src any, defaultVal T) T {
	if v, ok := t.Find(src); ok {
		return v
	}
	return defaultVal
}

// Some returns every match in src, in insertion order.
func (t Tag[T]) Some(src any) []T {
	var out []T
	switch s := src.(type) {
	case []Tagged:
		for _, tg := range s {
			if tg.Key == t.key {
				if v, ok := tg.Value.(T); ok {
					out = append(out, v)
				}
			}
		}
	case DataStore:
		if v, ok := s.Get(t.key); ok {
			if tv, ok := v.(T); ok {
				out = append(out, tv)
			}
		}
	case MetaContainer:
		if v, ok := s.GetTag(t.key); ok {
			if tv, ok := v.(T); ok {
				out = append(out, tv)
			}
		}
	}
	return out
}

// Set validates v and writes it into store, which must be a DataStore or
// MetaContainer.
func (t Tag[T]) Set(store any, v T) error {
	validated, err := t.validate(v)
	if err != nil {
		return err
	}
	switch s := store.(type) {
	case DataStore:
		s.Set(t.key, validated)
		return nil
	case MetaContainer:
		s.SetTag(t.key, validated)
		return nil
	default:
		return fmt.Errorf("tag: unsupported store type %T", store)
	}
}

// Entry returns a (key, value) pair suitable for seeding a map literal
// DataStore, e.g. initial flow context data.
func (t Tag[T]) Entry(v T) (any, any) {
	return t.key, v
}

// Preset is an alias for Entry, used at scope/flow construction time.
func (t Tag[T]) Preset(v T) (any, any) {
	return t.Entry(v)
}

// GetFromScope reads the tag's value from a scope's metadata store.
func (t Tag[T]) GetFromScope(scope *Scope) (T, bool) {
	return t.Find(scope)
}

// SetOnScope writes the tag's value into a scope's metadata store.
func (t Tag[T]) SetOnScope(scope *Scope, v T) error {
	return t.Set(scope, v)
}
