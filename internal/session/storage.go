package session

import "context"

// Storage is the persisted string key-value store backing the Token Store
// and the Redirect Coordinator. Get reports a missing key with ok == false
// and a nil error.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Readier is implemented by storages that can tell whether they are safe to
// access yet. The provider does not touch storage until Ready returns nil.
type Readier interface {
	Ready(ctx context.Context) error
}
