package storage

import (
	"errors"
)

// Returned (wrapped) whenever the backing store can't be reached or
// refuses an operation. Callers are expected to degrade rather than
// fail.
var ErrUnavailable = errors.New("storage unavailable")

// Durable key-value slots, modelled after browser local storage. Every
// Set is a full overwrite of the slot and is committed before Set
// returns.
type Storage interface {
	// Reads the value stored under key. If no value has been
	// stored, found is false and err is nil.
	Get(key string) (value []byte, found bool, err error)

	// Overwrites the value stored under key.
	Set(key string, value []byte) error

	// Deletes the value stored under key. Deleting a missing key
	// is not an error.
	Delete(key string) error

	// Keys currently holding a value, in lexical order.
	Keys() ([]string, error)

	Close() error
}
