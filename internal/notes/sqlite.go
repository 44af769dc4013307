package notes

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	appLog "datecalc/internal/log"
	"datecalc/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS note (
	name       TEXT    NOT NULL PRIMARY KEY,
	content    TEXT    NOT NULL,
	updated_ts INTEGER NOT NULL,
	used_seq   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_note_used_seq ON note (used_seq);
`

// SQLiteStore persists notes in a SQLite database. Recency is tracked with a
// monotonically increasing used_seq column.
type SQLiteStore struct {
	db     *sql.DB
	limits Limits
	now    func() time.Time
}

// OpenSQLite opens (and creates if needed) the database at dsn. ":memory:"
// gives a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string, l Limits) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database %q", dsn)
	}
	// One connection: ":memory:" is per connection, and writes serialize anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create note schema")
	}
	appLog.Info("sqlite note store opened", "dsn", dsn)
	return &SQLiteStore{db: db, limits: l.normalize(), now: time.Now}, nil
}

func (s *SQLiteStore) Limits() Limits { return s.limits }

func nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(used_seq), 0) + 1 FROM note`).Scan(&seq)
	return seq, errors.Wrap(err, "failed to read note sequence")
}

func (s *SQLiteStore) Put(ctx context.Context, name, content string) (res PutResult, err error) {
	name, err = validate(name, content, s.limits)
	if err != nil {
		return PutResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PutResult{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return PutResult{}, err
	}
	now := s.now().UTC().Truncate(time.Second)

	upd, err := tx.ExecContext(ctx,
		`UPDATE note SET content = ?, updated_ts = ?, used_seq = ? WHERE name = ?`,
		content, now.Unix(), seq, name)
	if err != nil {
		return PutResult{}, errors.Wrap(err, "failed to update note")
	}
	if n, _ := upd.RowsAffected(); n > 0 {
		res.Updated = true
	} else {
		var count int
		if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM note`).Scan(&count); err != nil {
			return PutResult{}, errors.Wrap(err, "failed to count notes")
		}
		if count >= s.limits.MaxNotes {
			var oldest string
			err = tx.QueryRowContext(ctx, `SELECT name FROM note ORDER BY used_seq ASC LIMIT 1`).Scan(&oldest)
			if err != nil {
				return PutResult{}, errors.Wrap(err, "failed to find note to evict")
			}
			if _, err = tx.ExecContext(ctx, `DELETE FROM note WHERE name = ?`, oldest); err != nil {
				return PutResult{}, errors.Wrap(err, "failed to evict note")
			}
			res.Evicted = oldest
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO note (name, content, updated_ts, used_seq) VALUES (?, ?, ?, ?)`,
			name, content, now.Unix(), seq)
		if err != nil {
			return PutResult{}, errors.Wrap(err, "failed to insert note")
		}
	}

	if err = tx.Commit(); err != nil {
		return PutResult{}, errors.Wrap(err, "failed to commit note")
	}
	if res.Evicted != "" {
		appLog.Warn("note store full, evicted least recently used note", "evicted", res.Evicted, "max_notes", s.limits.MaxNotes)
	}
	res.Note = model.Note{Name: name, Content: content, UpdatedAt: now}
	return res, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (note model.Note, err error) {
	name, err = NormalizeName(name)
	if err != nil {
		return model.Note{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Note{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var ts int64
	err = tx.QueryRowContext(ctx, `SELECT content, updated_ts FROM note WHERE name = ?`, name).Scan(&note.Content, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		return model.Note{}, errors.Wrap(err, "failed to read note")
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return model.Note{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE note SET used_seq = ? WHERE name = ?`, seq, name); err != nil {
		return model.Note{}, errors.Wrap(err, "failed to touch note")
	}
	if err = tx.Commit(); err != nil {
		return model.Note{}, errors.Wrap(err, "failed to commit note read")
	}

	note.Name = name
	note.UpdatedAt = time.Unix(ts, 0).UTC()
	return note, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, content, updated_ts FROM note ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	out := []model.Note{}
	for rows.Next() {
		var n model.Note
		var ts int64
		if err := rows.Scan(&n.Name, &n.Content, &ts); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		n.UpdatedAt = time.Unix(ts, 0).UTC()
		out = append(out, n)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate notes")
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM note WHERE name = ?`, name)
	if err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM note`).Scan(&n)
	return n, errors.Wrap(err, "failed to count notes")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
