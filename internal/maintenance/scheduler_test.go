package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datecalc/internal/calc"
	"datecalc/internal/notes"
)

func newEngine(t *testing.T, cache *calc.Cache) *calc.Engine {
	t.Helper()
	return calc.NewEngine(calc.NewZoneDB(t.TempDir()), calc.WithCache(cache))
}

func TestNewValidatesSchedule(t *testing.T) {
	e := newEngine(t, calc.NewCache(8, time.Minute))

	s, err := New("*/5 * * * *", e, nil)
	require.NoError(t, err)
	assert.True(t, s.Enabled())

	s, err = New("", e, nil)
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	_, err = New("every five minutes", e, nil)
	assert.Error(t, err)
}

func TestRunOnceSweepsExpiredEntries(t *testing.T) {
	cache := calc.NewCache(8, time.Nanosecond)
	cache.Set("a", 1)
	cache.Set("b", 2)
	time.Sleep(time.Millisecond)

	store := notes.NewMemoryStore(notes.Limits{})
	_, err := store.Put(context.Background(), "n", "body")
	require.NoError(t, err)

	s, err := New("", newEngine(t, cache), store)
	require.NoError(t, err)

	snap := s.RunOnce(context.Background())
	assert.Equal(t, 2, snap.Expired)
	assert.Equal(t, 0, snap.CacheSize)
	assert.Equal(t, 1, snap.Notes)
	assert.Positive(t, snap.Goroutines)
	assert.Positive(t, snap.HeapAlloc)
}

func TestRunStopsOnCancel(t *testing.T) {
	for _, spec := range []string{"", "* * * * *"} {
		t.Run("spec="+spec, func(t *testing.T) {
			s, err := New(spec, newEngine(t, nil), nil)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- s.Run(ctx) }()
			cancel()

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not return")
			}
		})
	}
}
