// Package storage provides the persisted key-value backends the session
// component keeps its credential and pending redirect in.
package storage

import (
	"fmt"

	"github.com/postboard-dev/postboard/internal/session"
)

// Backend names accepted by Open
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendMemory  = "memory"
)

// Open returns the storage backend named kind. scope separates keyring
// entries per API host; statePath is used by the file backend.
func Open(kind, scope, statePath string) (session.Storage, error) {
	switch kind {
	case BackendKeyring, "":
		return NewKeyring(scope), nil
	case BackendFile:
		if statePath == "" {
			return nil, fmt.Errorf("file storage requires a state path")
		}
		return NewFile(statePath), nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (use keyring, file or memory)", kind)
	}
}
