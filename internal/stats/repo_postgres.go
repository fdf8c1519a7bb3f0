package stats

import (
	"context"
	"database/sql"
	"fmt"

	"mapdata-api/pkg/utils"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS district (
	id   BIGINT PRIMARY KEY,
	name TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS daily_data (
	id          BIGINT PRIMARY KEY,
	district_id BIGINT REFERENCES district (id),
	date        TEXT NOT NULL,
	cases       BIGINT,
	death       BIGINT,
	recovered   BIGINT
)`,
	`CREATE TABLE IF NOT EXISTS state_cumulative (
	id        BIGINT PRIMARY KEY,
	date      TEXT NOT NULL,
	cases     BIGINT,
	death     BIGINT,
	recovered BIGINT
)`,
	`CREATE INDEX IF NOT EXISTS daily_data_district_idx ON daily_data (district_id, id DESC)`,
}

// PostgresRepo reads case data through database/sql on the pgx driver.
// Rows are loaded by an external import job.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// EnsureSchema creates the case data tables if missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create stats schema: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepo) StateSeries(ctx context.Context, limit int) ([]Day, error) {
	return r.series(ctx, `
SELECT id, date, cases, death, recovered FROM (
	SELECT id, date, COALESCE(cases, 0) AS cases, COALESCE(death, 0) AS death, COALESCE(recovered, 0) AS recovered
	FROM state_cumulative
	ORDER BY id DESC
	LIMIT $1
) s ORDER BY id`, limit)
}

func (r *PostgresRepo) DistrictSeries(ctx context.Context, district string, limit int) ([]Day, error) {
	return r.series(ctx, `
SELECT id, date, cases, death, recovered FROM (
	SELECT dd.id, dd.date, COALESCE(dd.cases, 0) AS cases, COALESCE(dd.death, 0) AS death, COALESCE(dd.recovered, 0) AS recovered
	FROM daily_data dd
	JOIN district d ON d.id = dd.district_id
	WHERE d.name = $2
	ORDER BY dd.id DESC
	LIMIT $1
) s ORDER BY id`, limit, district)
}

func (r *PostgresRepo) series(ctx context.Context, query string, args ...any) ([]Day, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.ID, &d.Date, &d.Cases, &d.Death, &d.Recovered); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) StateTotals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cases), 0), COALESCE(SUM(death), 0), COALESCE(SUM(recovered), 0) FROM state_cumulative`,
	).Scan(&t.TotalCases, &t.TotalDeath, &t.Recovered)
	if err != nil {
		return Totals{}, fmt.Errorf("state totals: %w", err)
	}
	return t, nil
}

func (r *PostgresRepo) DistrictTotals(ctx context.Context) ([]GridRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT d.name, COALESCE(SUM(dd.cases), 0), COALESCE(SUM(dd.death), 0), COALESCE(SUM(dd.recovered), 0)
FROM district d
LEFT JOIN daily_data dd ON dd.district_id = d.id
GROUP BY d.name
ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("district totals: %w", err)
	}
	defer rows.Close()

	var out []GridRow
	for rows.Next() {
		var g GridRow
		if err := rows.Scan(&g.Name, &g.TotalCases, &g.Death, &g.Recovered); err != nil {
			return nil, fmt.Errorf("scan district totals: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DistrictSummaries(ctx context.Context, today string) (map[string]DistrictSummary, error) {
	// DISTINCT ON keeps the lowest id per name.
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT ON (d.name) d.id, d.name,
	COALESCE(SUM(dd.cases), 0),
	COALESCE(SUM(dd.death), 0),
	COALESCE(SUM(dd.recovered), 0),
	COALESCE(SUM(dd.cases) FILTER (WHERE dd.date = $1), 0)
FROM district d
LEFT JOIN daily_data dd ON dd.district_id = d.id
GROUP BY d.id, d.name
ORDER BY d.name, d.id`, today)
	if err != nil {
		return nil, fmt.Errorf("district summaries: %w", err)
	}
	defer rows.Close()

	out := map[string]DistrictSummary{}
	for rows.Next() {
		var s DistrictSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.TotalCases, &s.Death, &s.Recovered, &s.TodayCases); err != nil {
			return nil, fmt.Errorf("scan district summary: %w", err)
		}
		out[s.Name] = s
	}
	return out, rows.Err()
}
