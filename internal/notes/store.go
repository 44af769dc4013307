// Package notes is a small named-note store with a bounded capacity. When
// the store is full, adding a new name evicts the least recently written or
// read note.
package notes

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"datecalc/internal/model"
)

const (
	DefaultMaxNotes     = 1000
	DefaultMaxNoteBytes = 10 * 1024
	MaxNameLength       = 255
)

var (
	ErrNotFound    = errors.New("note not found")
	ErrInvalidNote = errors.New("invalid note")
)

// Limits bounds a store. Zero fields take the defaults.
type Limits struct {
	MaxNotes     int
	MaxNoteBytes int
}

func (l Limits) normalize() Limits {
	if l.MaxNotes <= 0 {
		l.MaxNotes = DefaultMaxNotes
	}
	if l.MaxNoteBytes <= 0 {
		l.MaxNoteBytes = DefaultMaxNoteBytes
	}
	return l
}

// PutResult reports what a Put did.
type PutResult struct {
	Note    model.Note
	Updated bool   // the name already existed
	Evicted string // name removed to make room, if any
}

// Store is implemented by the memory and sqlite drivers.
type Store interface {
	Put(ctx context.Context, name, content string) (PutResult, error)
	Get(ctx context.Context, name string) (model.Note, error)
	// List returns every note ordered by name.
	List(ctx context.Context) ([]model.Note, error)
	Delete(ctx context.Context, name string) error
	Len(ctx context.Context) (int, error)
	Limits() Limits
	Close() error
}

// NormalizeName trims name and enforces the naming rules.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Wrap(ErrInvalidNote, "name is empty")
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", errors.Wrapf(ErrInvalidNote, "name is %d characters, maximum is %d", n, MaxNameLength)
	}
	return name, nil
}

func validate(name, content string, l Limits) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", errors.Wrap(ErrInvalidNote, "content is empty")
	}
	if len(content) > l.MaxNoteBytes {
		return "", errors.Wrapf(ErrInvalidNote, "content is %d bytes, maximum is %d", len(content), l.MaxNoteBytes)
	}
	return name, nil
}

// Open returns a store for driver ("memory" or "sqlite").
func Open(ctx context.Context, driver, dsn string, l Limits) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(l), nil
	case "sqlite":
		return OpenSQLite(ctx, dsn, l)
	}
	return nil, errors.Errorf("unknown notes driver %q", driver)
}
