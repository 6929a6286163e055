package id

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_MonotonicWithinMillisecond(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 7, 1, 14, 30, 0, 0, time.UTC)
	g := NewGenerator(rand.New(rand.NewSource(1)), func() time.Time { return at })

	prev := g.New()
	for range 100 {
		next := g.New()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestGenerator_Concurrent(t *testing.T) {
	t.Parallel()

	g := NewGenerator(rand.New(rand.NewSource(2)), nil)

	var (
		mu   sync.Mutex
		seen = map[string]struct{}{}
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				s := g.New()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}

func TestTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 7, 1, 14, 30, 0, 123_000_000, time.UTC)
	g := NewGenerator(bytes.NewReader(bytes.Repeat([]byte{7}, 64)), func() time.Time { return at })

	got, err := Time(g.New())
	require.NoError(t, err)
	assert.True(t, got.Equal(at), "got %s", got)

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
	assert.Len(t, New(), 26)
}
