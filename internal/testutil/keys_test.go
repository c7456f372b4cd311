package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialKeys(t *testing.T) {
	gen := NewSequentialKeys("user")

	assert.Equal(t, "user-0001", gen.NextKey())
	assert.Equal(t, "user-0002", gen.NextKey())
	assert.Equal(t, 2, gen.Current())

	gen.Reset()
	assert.Equal(t, 0, gen.Current())
	assert.Equal(t, "user-0001", gen.NextKey())
}

func TestSequentialKeys_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "key-0001", NewSequentialKeys("").NextKey())
}

func TestSequentialKeys_ThreadSafe(t *testing.T) {
	gen := NewSequentialKeys("k")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := gen.NextKey()
				mu.Lock()
				seen[k] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every key must be unique")
	assert.Equal(t, 1000, gen.Current())
}

func TestFixedKeys(t *testing.T) {
	gen := NewFixedKeys("same")
	assert.Equal(t, "same", gen.NextKey())
	assert.Equal(t, "same", gen.NextKey())

	assert.Equal(t, "fixed-key", NewFixedKeys("").NextKey())
}
