// Package db loads heat dataset snapshots into an in-memory DuckDB
// database for ad-hoc analytics. Nothing is written to disk.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-uhi/internal/heat"
)

const schema = `CREATE OR REPLACE TABLE points (
	idx INTEGER,
	lon DOUBLE,
	lat DOUBLE,
	lst DOUBLE,
	uhi_intensity DOUBLE,
	ndvi DOUBLE,
	severity VARCHAR,
	zone INTEGER,
	vegetation VARCHAR,
	recommendation VARCHAR,
	color VARCHAR
)`

// Store is an in-memory DuckDB holding the current snapshot.
type Store struct {
	db *sql.DB
}

// Open creates an in-memory database and its points table.
func Open() (*Store, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// serialize access to the single in-memory database
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create points table: %w", err)
	}
	return &Store{db: conn}, nil
}

// DB exposes the underlying handle for read queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ErrReadOnly is returned by Query for anything but a read statement.
var ErrReadOnly = errors.New("db: only read queries are allowed")

// readVerbs are the statements Query accepts.
var readVerbs = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "SUMMARIZE", "EXPLAIN", "FROM"}

// Load replaces the table with d in one transaction. The table is
// recreated each time, so a nil d leaves it empty.
func (s *Store) Load(ctx context.Context, d *heat.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create points table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO points VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range d.All {
		if _, err := stmt.ExecContext(ctx, i, p.Lon, p.Lat, p.LST, p.UHIIntensity, p.NDVI,
			p.Severity, int(p.Zone), p.Vegetation, p.Recommendation, p.Color); err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ZoneSummary aggregates one zone of the snapshot.
type ZoneSummary struct {
	Zone    int     `json:"zone" doc:"Zone id"`
	Label   string  `json:"label" doc:"Zone label"`
	Count   int     `json:"count" doc:"Points in the zone"`
	AvgLST  float64 `json:"avg_lst" doc:"Mean land surface temperature (°C)"`
	MaxLST  float64 `json:"max_lst" doc:"Max land surface temperature (°C)"`
	AvgNDVI float64 `json:"avg_ndvi" doc:"Mean NDVI"`
	AvgUHI  float64 `json:"avg_uhi" doc:"Mean UHI intensity (°C)"`
}

// Zones returns per-zone aggregates ordered by zone id.
func (s *Store) Zones(ctx context.Context) ([]ZoneSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT zone, count(*),
		round(avg(lst), 2), round(max(lst), 2), round(avg(ndvi), 3), round(avg(uhi_intensity), 2)
		FROM points GROUP BY zone ORDER BY zone`)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var out []ZoneSummary
	for rows.Next() {
		var z ZoneSummary
		if err := rows.Scan(&z.Zone, &z.Count, &z.AvgLST, &z.MaxLST, &z.AvgNDVI, &z.AvgUHI); err != nil {
			return nil, err
		}
		z.Label = heat.Zone(z.Zone).Label()
		out = append(out, z)
	}
	return out, rows.Err()
}

// Query runs a single read statement and returns column names and rows.
func (s *Store) Query(ctx context.Context, query string) ([]string, []map[string]any, error) {
	if !isRead(query) {
		return nil, nil, ErrReadOnly
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return columns, results, rows.Err()
}

// Tables lists the tables in the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func isRead(query string) bool {
	q := strings.TrimRight(strings.TrimSpace(query), "; \t\n")
	if q == "" || strings.Contains(q, ";") {
		return false
	}
	verb := strings.Fields(q)[0]
	for _, v := range readVerbs {
		if strings.EqualFold(verb, v) {
			return true
		}
	}
	return false
}
