// Package store defines the key/value storage used to persist plugin data along with its
// implementations. Values are strings and every storer is namespaced by a name given at creation
package store

import (
	"io"
)

// StringStorer is implemented by any value that can get, put, delete and scan string entries
type StringStorer interface {
	// GetString returns the value associated to a key or an error if it isn't found
	GetString(key string) (value string, err error)

	// PutString adds or updates the value associated to a key
	PutString(key string, value string) (err error)

	// DeleteString deletes the entry for a key
	DeleteString(key string) (err error)

	// Scan returns all entries
	Scan() (entries map[string]string, err error)

	io.Closer
}
