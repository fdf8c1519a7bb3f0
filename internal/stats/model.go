package stats

// Day is one reported day of counts, either state-wide or for a district.
// Date is stored as reported ("dd/MM").
type Day struct {
	ID        int64
	Date      string
	Cases     int64
	Death     int64
	Recovered int64
}

// Totals are state-wide cumulative counts.
type Totals struct {
	TotalCases int64 `json:"totalCases"`
	TotalDeath int64 `json:"totalDeath"`
	Recovered  int64 `json:"recovered"`
}

// GridRow is one line of the summary grid.
type GridRow struct {
	Name       string `json:"name"`
	TotalCases int64  `json:"totalCases"`
	Death      int64  `json:"death"`
	Recovered  int64  `json:"recovered"`
}

// DistrictSummary aggregates a district's daily rows. TodayCases is the
// count reported for the current day, zero when nothing was reported.
type DistrictSummary struct {
	ID         int64
	Name       string
	TotalCases int64
	Death      int64
	Recovered  int64
	TodayCases int64
}
