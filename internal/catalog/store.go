package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rraild/vuzbot/internal/profile"
	"github.com/rraild/vuzbot/internal/storeutil"
)

// Store reads institution records from the catalog database produced by the
// scraper. One table with a city column replaces the scraper's historical
// per-city tables; specialization flags are fixed columns matching the
// compile-time enumeration.
type Store struct {
	db *sql.DB
}

const tableName = "universities"

// baseColumns precede the specialization flag columns in every query.
var baseColumns = []string{
	"id", "name", "city", "coast", "bud_places", "pay_places",
	"bud_score", "pay_score", "url",
}

// OpenStore opens the catalog database.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog pragma: %w", err)
	}
	return &Store{db: db}, nil
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

func selectColumns() string {
	cols := make([]string, 0, len(baseColumns)+len(profile.Specializations()))
	cols = append(cols, baseColumns...)
	for _, spec := range profile.Specializations() {
		cols = append(cols, string(spec))
	}
	return strings.Join(cols, ", ")
}

func scanInstitution(scan func(dest ...any) error) (Institution, error) {
	var rec Institution
	specs := profile.Specializations()
	flags := make([]sql.NullInt64, len(specs))

	dest := make([]any, 0, len(baseColumns)+len(specs))
	var name, city, coast, budPlaces, payPlaces, budScore, payScore, url sql.NullString
	dest = append(dest, &rec.ID, &name, &city, &coast,
		&budPlaces, &payPlaces, &budScore, &payScore, &url)
	for i := range flags {
		dest = append(dest, &flags[i])
	}

	if err := scan(dest...); err != nil {
		return rec, err
	}

	rec.Name = name.String
	rec.City = city.String
	rec.Cost = coast.String
	rec.BudgetPlaces = budPlaces.String
	rec.PaidPlaces = payPlaces.String
	rec.BudgetScore = budScore.String
	rec.PaidScore = payScore.String
	rec.URL = url.String

	rec.Specializations = make(map[profile.Specialization]bool, len(specs))
	for i, spec := range specs {
		if flags[i].Valid && flags[i].Int64 != 0 {
			rec.Specializations[spec] = true
		}
	}
	return rec, nil
}

// ListAll returns every catalog record in ingestion order. Ordering is part
// of the matching contract: match output preserves it.
func (s *Store) ListAll(ctx context.Context) ([]Institution, error) {
	var records []Institution
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, selectColumns(), tableName)

	err := storeutil.Retry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("list catalog: %w", err)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			rec, err := scanInstitution(rows.Scan)
			if err != nil {
				return fmt.Errorf("scan catalog row: %w", err)
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetByID returns one record, or (nil, nil) when the id is unknown.
func (s *Store) GetByID(ctx context.Context, id int64) (*Institution, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, selectColumns(), tableName)

	var rec *Institution
	err := storeutil.Retry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, query, id)
		found, err := scanInstitution(row.Scan)
		if err == sql.ErrNoRows {
			rec = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("load catalog record %d: %w", id, err)
		}
		rec = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
