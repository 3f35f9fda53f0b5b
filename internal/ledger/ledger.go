package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

type Ledger struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	l := &Ledger{readDB: readDB, writeDB: writeDB}
	if err := l.init(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) init() error {
	_, err := l.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			date       TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			research   INTEGER NOT NULL DEFAULT 0,
			docs       INTEGER NOT NULL DEFAULT 0,
			github     INTEGER NOT NULL DEFAULT 0,
			errors     INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

		CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			category   TEXT NOT NULL,
			title      TEXT NOT NULL,
			url        TEXT NOT NULL,
			first_seen DATETIME NOT NULL,
			last_seen  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return l.setMeta("schema_version", schemaVersion)
}

func (l *Ledger) Close() error {
	var errs []error
	if l.readDB != nil {
		errs = append(errs, l.readDB.Close())
	}
	if l.writeDB != nil {
		errs = append(errs, l.writeDB.Close())
	}
	return errors.Join(errs...)
}

// RecordRun stores a run, assigning an ID when r.ID is empty, and returns the ID.
func (l *Ledger) RecordRun(r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := l.writeDB.Exec(`
		INSERT INTO runs (id, date, started_at, research, docs, github, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			research = excluded.research,
			docs = excluded.docs,
			github = excluded.github,
			errors = excluded.errors
	`, r.ID, r.Date, r.StartedAt.UTC(), r.Research, r.Docs, r.GitHub, r.Errors)
	if err != nil {
		return "", fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	if err := l.setMeta("last_run", r.ID); err != nil {
		return "", err
	}
	return r.ID, nil
}

// ItemID derives a stable identifier from an item URL.
func ItemID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// UpsertItems records rendered items. First sighting is kept on conflict.
// Entries without a URL are ignored.
func (l *Ledger) UpsertItems(items []Item, seen time.Time) (int, error) {
	tx, err := l.writeDB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO items (id, category, title, url, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	seen = seen.UTC()
	n := 0
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		if _, err := stmt.Exec(ItemID(it.URL), it.Category, it.Title, it.URL, seen, seen); err != nil {
			return 0, fmt.Errorf("upserting item %s: %w", it.URL, err)
		}
		n++
	}
	return n, tx.Commit()
}

// Items lists stored items of a category, most recently seen first.
func (l *Ledger) Items(category string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := l.readDB.Query(`
		SELECT id, category, title, url, first_seen, last_seen FROM items
		WHERE category = ? ORDER BY last_seen DESC, url LIMIT ?
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Category, &it.Title, &it.URL, &it.FirstSeen, &it.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Runs returns the most recent runs, newest first.
func (l *Ledger) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := l.readDB.Query(`
		SELECT id, date, started_at, research, docs, github, errors FROM runs
		ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Date, &r.StartedAt, &r.Research, &r.Docs, &r.GitHub, &r.Errors); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastRun returns the newest run; ok is false when none was recorded.
func (l *Ledger) LastRun() (Run, bool, error) {
	runs, err := l.Runs(1)
	if err != nil {
		return Run{}, false, err
	}
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

// Prune deletes runs started and items last seen before now minus retention.
func (l *Ledger) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	tx, err := l.writeDB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, q := range []string{
		"DELETE FROM runs WHERE started_at < ?",
		"DELETE FROM items WHERE last_seen < ?",
	} {
		res, err := tx.Exec(q, cutoff)
		if err != nil {
			return 0, fmt.Errorf("pruning: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if total > 0 {
		if _, err := l.writeDB.Exec("VACUUM"); err != nil {
			return total, fmt.Errorf("vacuum: %w", err)
		}
	}
	return total, nil
}

// Stats reports row counts and the size of the database file at dbPath.
func (l *Ledger) Stats(dbPath string) (Stats, error) {
	var s Stats
	if err := l.readDB.QueryRow("SELECT COUNT(*) FROM runs").Scan(&s.Runs); err != nil {
		return s, fmt.Errorf("counting runs: %w", err)
	}
	if err := l.readDB.QueryRow("SELECT COUNT(*) FROM items").Scan(&s.Items); err != nil {
		return s, fmt.Errorf("counting items: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return s, fmt.Errorf("stat ledger: %w", err)
	}
	s.Size = info.Size()
	return s, nil
}

func (l *Ledger) Meta(key string) (string, error) {
	var value string
	err := l.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (l *Ledger) setMeta(key, value string) error {
	_, err := l.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
