// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/medscan/pkg/types"
)

const defaultDBPath = "catalog/medscan.db"

// Entry is one catalog row: a canonical medication triple and where it lives.
type Entry struct {
	Name     string
	Dose     string
	Form     string
	Location types.Location
}

// Store manages the reference catalog SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the catalog database at cfg.DBPath, creating the
// schema if it does not exist.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS medications (
			name TEXT NOT NULL,
			dose TEXT NOT NULL,
			form TEXT NOT NULL,
			general TEXT NOT NULL,
			specific TEXT,
			notes TEXT,
			PRIMARY KEY (name, dose, form)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_name ON medications(name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from a catalog load run.
type IngestSummary struct {
	Loaded  int
	Updated int
	Failed  int
}

// Total returns the number of CSV rows processed.
func (s IngestSummary) Total() int {
	return s.Loaded + s.Updated + s.Failed
}

// Ingest reads the medication-locations CSV and upserts its rows into the
// catalog. Expected columns: name, dose, form, general, specific, notes
// (notes optional); a header row is detected and skipped. Row failures are
// written to w and counted, they never abort the load.
func (s *Store) Ingest(ctx context.Context, csvPath string, w io.Writer) (IngestSummary, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("opening catalog CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var summary IngestSummary
	for rowNum := 0; ; rowNum++ {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(w, "failed  row %d: %v\n", rowNum+1, err)
			summary.Failed++
			continue
		}

		if rowNum == 0 && isHeaderRow(row) {
			continue
		}
		if len(row) < 4 {
			fmt.Fprintf(w, "failed  row %d: want at least 4 columns, got %d\n", rowNum+1, len(row))
			summary.Failed++
			continue
		}

		e := entryFromRow(row)
		if e.Name == "" {
			fmt.Fprintf(w, "failed  row %d: empty medication name\n", rowNum+1)
			summary.Failed++
			continue
		}

		updated, err := s.upsert(ctx, e)
		if err != nil {
			fmt.Fprintf(w, "failed  row %d (%s): %v\n", rowNum+1, e.Name, err)
			summary.Failed++
			continue
		}
		if updated {
			summary.Updated++
		} else {
			summary.Loaded++
		}
	}

	fmt.Fprintf(w, "\nloaded: %d, updated: %d, failed: %d\n",
		summary.Loaded, summary.Updated, summary.Failed)
	return summary, nil
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "name" || first == "medication" || first == "med"
}

func entryFromRow(row []string) Entry {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return Entry{
		Name: NormalizeName(get(0)),
		Dose: NormalizeDose(get(1)),
		Form: NormalizeForm(get(2)),
		Location: types.Location{
			General:  strings.ToUpper(get(3)),
			Specific: strings.ToUpper(get(4)),
			Notes:    get(5),
		},
	}
}

func (s *Store) upsert(ctx context.Context, e Entry) (updated bool, err error) {
	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM medications WHERE name = ? AND dose = ? AND form = ?`,
		e.Name, e.Dose, e.Form,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking existing entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO medications (name, dose, form, general, specific, notes)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name, dose, form) DO UPDATE SET
			general = excluded.general,
			specific = excluded.specific,
			notes = excluded.notes`,
		e.Name, e.Dose, e.Form,
		e.Location.General, e.Location.Specific, e.Location.Notes,
	)
	if err != nil {
		return false, fmt.Errorf("upserting entry: %w", err)
	}
	return exists > 0, nil
}

// Entries returns every catalog row, ordered by name for deterministic
// iteration.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, dose, form, general, specific, notes
		 FROM medications ORDER BY name, dose, form`)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var specific, notes sql.NullString
		if err := rows.Scan(&e.Name, &e.Dose, &e.Form,
			&e.Location.General, &specific, &notes); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		e.Location.Specific = specific.String
		e.Location.Notes = notes.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return entries, nil
}
