// Package testutil provides deterministic key generators for tests.
//
// Both generators satisfy store.KeyGenerator.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialKeys generates "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike a UUIDv7 generator, SequentialKeys can be reset, so the same test
// produces the same keys on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialKeys struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialKeys creates a generator starting at 1.
// If prefix is empty, "key" is used.
func NewSequentialKeys(prefix string) *SequentialKeys {
	if prefix == "" {
		prefix = "key"
	}
	return &SequentialKeys{prefix: prefix}
}

// NextKey returns the next key.
func (g *SequentialKeys) NextKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Current returns the number of keys generated so far.
func (g *SequentialKeys) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next key is "<prefix>-0001".
func (g *SequentialKeys) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedKeys returns the same key every time. A second insert through a
// FixedKeys generator collides with the first, which is how tests provoke
// primary key violations.
//
// Thread-safety: FixedKeys is stateless and safe for concurrent use.
type FixedKeys struct {
	key string
}

// NewFixedKeys creates a fixed key generator. If key is empty,
// "fixed-key" is used.
func NewFixedKeys(key string) *FixedKeys {
	if key == "" {
		key = "fixed-key"
	}
	return &FixedKeys{key: key}
}

// NextKey returns the fixed key.
func (g *FixedKeys) NextKey() string {
	return g.key
}
