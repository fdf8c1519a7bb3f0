package stats

import "context"

// Repository reads the reported case data. Series are returned oldest first.
type Repository interface {
	StateSeries(ctx context.Context, limit int) ([]Day, error)
	DistrictSeries(ctx context.Context, district string, limit int) ([]Day, error)
	StateTotals(ctx context.Context) (Totals, error)
	// DistrictTotals returns one row per district name, ordered by name.
	// Districts without daily rows report zeros.
	DistrictTotals(ctx context.Context) ([]GridRow, error)
	// DistrictSummaries is keyed by district name. today selects TodayCases.
	DistrictSummaries(ctx context.Context, today string) (map[string]DistrictSummary, error)
}
