package session

import (
	"context"
	"errors"
	"sync"
)

// memStorage is an in-memory Storage for tests
type memStorage struct {
	mu       sync.Mutex
	values   map[string]string
	failSet  bool
	failDel  bool
	notReady error
}

func newMemStorage() *memStorage {
	return &memStorage{values: make(map[string]string)}
}

func (m *memStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("storage is read-only")
	}
	m.values[key] = value
	return nil
}

func (m *memStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("storage is read-only")
	}
	delete(m.values, key)
	return nil
}

func (m *memStorage) Ready(ctx context.Context) error {
	return m.notReady
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

// fakeFetcher returns a canned profile and counts calls
type fakeFetcher struct {
	mu    sync.Mutex
	users map[string]*User
	err   error
	calls []string

	// when set, FetchProfile signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, credential string) (*User, error) {
	f.mu.Lock()
	f.calls = append(f.calls, credential)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}

	if f.err != nil {
		return nil, f.err
	}
	return f.users[credential], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordingNavigator keeps every path it was asked to visit
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (n *recordingNavigator) Navigate(ctx context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return n.err
}

func (n *recordingNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

func adminUser() *User {
	return &User{
		ID:       "1",
		Username: "ana",
		Role:     &Role{Key: "ADMIN", Permissions: []string{"C", "R", "U", "D"}},
	}
}
