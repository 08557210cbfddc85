package store

import "errors"

var ErrInvalidValue = errors.New("store value must be valid JSON")

// Store is a durable key-value backend holding opaque JSON blobs.
type Store interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, value []byte) error
}
