package profile

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rraild/vuzbot/internal/storeutil"
)

// Store persists user profiles in SQLite. Writes are last-writer-wins per
// user id; no cross-user transactions exist.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and creates if needed) the profile database.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			tg_id TEXT PRIMARY KEY,
			city TEXT NOT NULL DEFAULT '',
			mean_value REAL
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			tg_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (tg_id, subject)
		)`,
		`CREATE TABLE IF NOT EXISTS specializations (
			tg_id TEXT NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (tg_id, category)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init profile schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get loads the full profile for userID. Returns (nil, nil) when the store
// holds nothing at all for that user.
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	var p *Profile
	err := storeutil.Retry(ctx, func() error {
		loaded, err := s.get(ctx, userID)
		if err != nil {
			return err
		}
		p = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) get(ctx context.Context, userID string) (*Profile, error) {
	p := New(userID)
	found := false

	row := s.db.QueryRowContext(ctx,
		`SELECT city, mean_value FROM users WHERE tg_id = ?`, userID)
	var mean sql.NullFloat64
	switch err := row.Scan(&p.City, &mean); err {
	case nil:
		found = true
		if mean.Valid {
			v := mean.Float64
			p.Aggregate = &v
		}
	case sql.ErrNoRows:
	default:
		return nil, fmt.Errorf("load user row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, score FROM scores WHERE tg_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var score int
		if err := rows.Scan(&key, &score); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		if sub, ok := ParseSubject(key); ok {
			p.Scores[sub] = score
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}

	specRows, err := s.db.QueryContext(ctx,
		`SELECT category FROM specializations WHERE tg_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("load specializations: %w", err)
	}
	defer specRows.Close()
	for specRows.Next() {
		var key string
		if err := specRows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan specialization row: %w", err)
		}
		if spec, ok := ParseSpecialization(key); ok {
			p.Specializations[spec] = true
			found = true
		}
	}
	if err := specRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specializations: %w", err)
	}

	if !found {
		return nil, nil
	}
	return p, nil
}

// UpsertCity stores the user's city, creating the user row if needed.
func (s *Store) UpsertCity(ctx context.Context, userID, city string) error {
	return storeutil.Retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users (tg_id, city) VALUES (?, ?)
			 ON CONFLICT(tg_id) DO UPDATE SET city = excluded.city`,
			userID, city)
		if err != nil {
			return fmt.Errorf("upsert city: %w", err)
		}
		return nil
	})
}

// UpsertScore validates and stores one subject score, then recomputes the
// stored aggregate from all present scores inside the same transaction.
// Validation failures leave the store untouched and are not retried.
func (s *Store) UpsertScore(ctx context.Context, userID string, subject Subject, value int) error {
	if _, ok := ParseSubject(string(subject)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}
	if err := ValidateScore(value); err != nil {
		return err
	}

	return storeutil.Retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin score tx: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores (tg_id, subject, score) VALUES (?, ?, ?)
			 ON CONFLICT(tg_id, subject) DO UPDATE SET score = excluded.score`,
			userID, string(subject), value); err != nil {
			return fmt.Errorf("upsert score: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT subject, score FROM scores WHERE tg_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("reload scores: %w", err)
		}
		scores := make(map[Subject]int)
		for rows.Next() {
			var key string
			var score int
			if err := rows.Scan(&key, &score); err != nil {
				rows.Close()
				return fmt.Errorf("scan score row: %w", err)
			}
			if sub, ok := ParseSubject(key); ok {
				scores[sub] = score
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate scores: %w", err)
		}
		rows.Close()

		var mean any
		if agg := Recompute(scores); agg != nil {
			mean = *agg
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (tg_id, mean_value) VALUES (?, ?)
			 ON CONFLICT(tg_id) DO UPDATE SET mean_value = excluded.mean_value`,
			userID, mean); err != nil {
			return fmt.Errorf("store aggregate: %w", err)
		}

		return tx.Commit()
	})
}

// UpsertSpecialization marks a category as selected. Idempotent: selecting an
// already-selected category changes nothing.
func (s *Store) UpsertSpecialization(ctx context.Context, userID string, category Specialization) error {
	if _, ok := ParseSpecialization(string(category)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return storeutil.Retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO specializations (tg_id, category) VALUES (?, ?)`,
			userID, string(category))
		if err != nil {
			return fmt.Errorf("upsert specialization: %w", err)
		}
		return nil
	})
}

// Delete removes everything stored for userID: city, scores, aggregate and
// specialization flags.
func (s *Store) Delete(ctx context.Context, userID string) error {
	return storeutil.Retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM scores WHERE tg_id = ?`,
			`DELETE FROM specializations WHERE tg_id = ?`,
			`DELETE FROM users WHERE tg_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return fmt.Errorf("delete profile: %w", err)
			}
		}
		return tx.Commit()
	})
}
