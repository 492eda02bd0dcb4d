package simstore

import (
	"errors"

	"github.com/rotisserie/eris"
)

var (
	// ErrAlreadyRegistered indicates an attempt to register the same type key twice.
	ErrAlreadyRegistered = eris.New("simstore: type already registered")
	// ErrNotRegistered signals access to a component or singleton type that was never registered.
	ErrNotRegistered = eris.New("simstore: type not registered")
	// ErrTypeMismatch is returned when an erased value does not match the store's concrete type.
	ErrTypeMismatch = eris.New("simstore: value type does not match store")
	// ErrBorrowed reports that a mutation was refused because the value is currently borrowed.
	ErrBorrowed = eris.New("simstore: value is borrowed")
	// ErrReleasedBorrow indicates use of a borrow after Release.
	ErrReleasedBorrow = eris.New("simstore: use of released borrow")
	// ErrRegistryClosed indicates use of a registry after Close.
	ErrRegistryClosed = eris.New("simstore: registry closed")
	// ErrSchemaMismatch reports that a snapshot was produced by a different shape of a type.
	ErrSchemaMismatch = eris.New("simstore: snapshot schema does not match registered type")
)

func isBorrowed(err error) bool {
	return errors.Is(err, ErrBorrowed)
}
