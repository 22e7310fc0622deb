// Package db is the key/value store abstraction backing the persistent
// exclusion source.
package db

import "errors"

var ErrNotFound = errors.New("not found")

type Database interface {
	// Get retrieves the value for the given key. If the key does not
	// exist, returns the error ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Set stores the value under the given key, overwriting any previous
	// value.
	Set(key, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// All returns every key with the given prefix, in ascending key order,
	// with the prefix stripped.
	All(prefix []byte) ([][]byte, error)

	Close() error
}
