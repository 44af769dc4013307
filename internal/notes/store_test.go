package notes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T, l Limits) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, l Limits) Store {
			return NewMemoryStore(l)
		},
		"sqlite": func(t *testing.T, l Limits) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "notes.db"), l)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	for driver, open := range stores() {
		t.Run(driver, func(t *testing.T) {
			t.Run("put get update delete", func(t *testing.T) {
				s := open(t, Limits{})

				res, err := s.Put(ctx, "  groceries ", "milk")
				require.NoError(t, err)
				assert.False(t, res.Updated)
				assert.Equal(t, "groceries", res.Note.Name)

				res, err = s.Put(ctx, "groceries", "milk, eggs")
				require.NoError(t, err)
				assert.True(t, res.Updated)

				n, err := s.Get(ctx, "groceries")
				require.NoError(t, err)
				assert.Equal(t, "milk, eggs", n.Content)

				count, err := s.Len(ctx)
				require.NoError(t, err)
				assert.Equal(t, 1, count)

				require.NoError(t, s.Delete(ctx, "groceries"))
				_, err = s.Get(ctx, "groceries")
				assert.True(t, errors.Is(err, ErrNotFound))
				assert.True(t, errors.Is(s.Delete(ctx, "groceries"), ErrNotFound))
			})

			t.Run("list is ordered by name", func(t *testing.T) {
				s := open(t, Limits{})
				for _, name := range []string{"c", "a", "b"} {
					_, err := s.Put(ctx, name, "x")
					require.NoError(t, err)
				}
				list, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 3)
				assert.Equal(t, "a", list[0].Name)
				assert.Equal(t, "c", list[2].Name)
			})

			t.Run("validation", func(t *testing.T) {
				s := open(t, Limits{MaxNoteBytes: 8})
				cases := []struct{ name, content string }{
					{"   ", "x"},
					{strings.Repeat("n", MaxNameLength+1), "x"},
					{"ok", ""},
					{"ok", "123456789"},
				}
				for _, c := range cases {
					_, err := s.Put(ctx, c.name, c.content)
					assert.True(t, errors.Is(err, ErrInvalidNote), "%q/%q: %v", c.name, c.content, err)
				}
				_, err := s.Put(ctx, strings.Repeat("é", MaxNameLength), "12345678")
				assert.NoError(t, err)
			})

			t.Run("evicts least recently used at capacity", func(t *testing.T) {
				s := open(t, Limits{MaxNotes: 3})
				for i := 1; i <= 3; i++ {
					_, err := s.Put(ctx, fmt.Sprintf("n%d", i), "x")
					require.NoError(t, err)
				}
				_, err := s.Get(ctx, "n1")
				require.NoError(t, err)

				res, err := s.Put(ctx, "n4", "x")
				require.NoError(t, err)
				assert.Equal(t, "n2", res.Evicted)

				_, err = s.Get(ctx, "n2")
				assert.True(t, errors.Is(err, ErrNotFound))
				count, err := s.Len(ctx)
				require.NoError(t, err)
				assert.Equal(t, 3, count)

				res, err = s.Put(ctx, "n1", "updated")
				require.NoError(t, err)
				assert.True(t, res.Updated)
				assert.Empty(t, res.Evicted)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "", "", Limits{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.Equal(t, DefaultMaxNotes, s.Limits().MaxNotes)

	s, err = Open(context.Background(), "sqlite", ":memory:", Limits{})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), "redis", "", Limits{})
	assert.Error(t, err)
}
