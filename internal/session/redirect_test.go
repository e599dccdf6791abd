package session

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirects_RememberConsume(t *testing.T) {
	r := NewRedirects(newMemStorage(), zerolog.Nop())

	require.NoError(t, r.Remember("/posts/42"))

	path, ok := r.Consume()
	require.True(t, ok)
	assert.Equal(t, "/posts/42", path)

	_, ok = r.Consume()
	assert.False(t, ok, "a remembered path is consumed only once")
}

func TestRedirects_RememberOverwrites(t *testing.T) {
	r := NewRedirects(newMemStorage(), zerolog.Nop())

	require.NoError(t, r.Remember("/create-post"))
	require.NoError(t, r.Remember("/create-theme"))

	path, ok := r.Consume()
	require.True(t, ok)
	assert.Equal(t, "/create-theme", path)
}

func TestRedirects_ClearWithoutPending(t *testing.T) {
	storage := newMemStorage()
	r := NewRedirects(storage, zerolog.Nop())

	require.NoError(t, r.Clear())
	require.NoError(t, r.Clear())
	assert.False(t, storage.has(RedirectKey))
}

func TestRedirects_ConsumeKeepsPathWhenDeleteFails(t *testing.T) {
	storage := newMemStorage()
	r := NewRedirects(storage, zerolog.Nop())
	require.NoError(t, r.Remember("/posts/1"))

	storage.failDel = true
	_, ok := r.Consume()
	assert.False(t, ok)
}

func TestRedirects_ConcurrentConsume(t *testing.T) {
	r := NewRedirects(newMemStorage(), zerolog.Nop())
	require.NoError(t, r.Remember("/posts/7"))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		hits int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.Consume(); ok {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, hits)
}

func TestTokenStore(t *testing.T) {
	storage := newMemStorage()
	tokens := NewTokenStore(storage, zerolog.Nop())

	_, ok := tokens.Get()
	assert.False(t, ok)

	require.NoError(t, tokens.Set("tok123"))
	token, ok := tokens.Get()
	require.True(t, ok)
	assert.Equal(t, "tok123", token)
	assert.Equal(t, "tok123", storage.values[AccessTokenKey])

	require.NoError(t, tokens.Clear())
	_, ok = tokens.Get()
	assert.False(t, ok)

	require.NoError(t, tokens.Clear(), "clearing twice is fine")
}
