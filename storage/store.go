// Package storage defines the key-value persistence the client keeps its
// session artifacts in.
package storage

// Store is a string key-value store. Get reports ok=false for a missing key;
// Remove of a missing key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}
