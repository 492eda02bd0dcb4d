package simstore

import (
	"fmt"

	"github.com/google/uuid"
)

// typeKeyNamespace seeds name-derived keys so the same name always yields the same key.
var typeKeyNamespace = uuid.MustParse("5f0c1b9e-2a47-4d0b-9e43-7d8a6c1e3f21")

// TypeKey identifies a component or singleton type. It must stay stable across process
// runs, since snapshots are keyed by it.
type TypeKey uuid.UUID

// NewTypeKey derives a deterministic key from a name.
func NewTypeKey(name string) TypeKey {
	return TypeKey(uuid.NewSHA1(typeKeyNamespace, []byte(name)))
}

// MustParseTypeKey parses a UUID literal and panics when it is malformed.
func MustParseTypeKey(s string) TypeKey {
	return TypeKey(uuid.MustParse(s))
}

// ParseTypeKey parses a UUID literal.
func ParseTypeKey(s string) (TypeKey, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TypeKey{}, err
	}
	return TypeKey(id), nil
}

// String renders the key in canonical UUID form.
func (k TypeKey) String() string {
	return uuid.UUID(k).String()
}

// IsZero reports whether the key is unset.
func (k TypeKey) IsZero() bool {
	return uuid.UUID(k) == uuid.Nil
}

// Keyed is implemented by every type stored in a registry, whether attached to entities
// as a component or held as a singleton. TypeKey must use a value receiver.
type Keyed interface {
	TypeKey() TypeKey
}

// Defaulter lets a singleton type supply a default other than its zero value.
type Defaulter[T any] interface {
	Default() T
}

// Cloner lets a type deep-copy itself when a registry is cloned. Types without it are
// copied by assignment.
type Cloner[T any] interface {
	Clone() T
}

// KeyOf returns the type key of T.
func KeyOf[T Keyed]() TypeKey {
	var zero T
	return zero.TypeKey()
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

func fmtType(v any) string {
	return fmt.Sprintf("%T", v)
}

func defaultValue[T any]() T {
	var zero T
	if d, ok := any(zero).(Defaulter[T]); ok {
		return d.Default()
	}
	return zero
}

func cloneValue[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}
