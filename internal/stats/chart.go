package stats

// Chart is a spline chart definition rendered directly by the map front end.
type Chart struct {
	Legend      Toggle      `json:"legend"`
	Credits     Toggle      `json:"credits"`
	Chart       ChartType   `json:"chart"`
	Title       Text        `json:"title"`
	Subtitle    Subtitle    `json:"subtitle"`
	XAxis       XAxis       `json:"xAxis"`
	YAxis       YAxis       `json:"yAxis"`
	Tooltip     Tooltip     `json:"tooltip"`
	Series      []Series    `json:"series"`
	PlotOptions PlotOptions `json:"plotOptions"`
}

type Toggle struct {
	Enabled bool `json:"enabled"`
}

type ChartType struct {
	Type string `json:"type"`
}

type Text struct {
	Text string `json:"text"`
}

type Subtitle struct {
	UseHTML bool   `json:"useHTML"`
	Text    string `json:"text"`
}

type XAxis struct {
	Categories []string `json:"categories"`
}

type YAxis struct {
	AllowDecimals bool `json:"allowDecimals"`
	Title         Text `json:"title"`
}

type Tooltip struct {
	ValueSuffix string `json:"valueSuffix"`
}

type Series struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Data  []int64 `json:"data"`
}

type PlotOptions struct {
	Spline struct {
		DataLabels Toggle `json:"dataLabels"`
	} `json:"spline"`
}

const sourceSubtitle = `<span>Source: <a target="_blank" href="https://stopcorona.tn.gov.in/daily-bulletin/"><u>Govt. of Tamil Nadu, Health & Family Welfare Department</u></a></span>`

func newSplineChart(title string, days []Day, series Series, value func(Day) int64) Chart {
	c := Chart{
		Chart:    ChartType{Type: "spline"},
		Title:    Text{Text: title},
		Subtitle: Subtitle{UseHTML: true, Text: sourceSubtitle},
		YAxis:    YAxis{Title: Text{Text: "Count"}},
		Tooltip:  Tooltip{ValueSuffix: " count(s)"},
	}
	c.PlotOptions.Spline.DataLabels.Enabled = true

	c.XAxis.Categories = make([]string, 0, len(days))
	series.Data = make([]int64, 0, len(days))
	for _, d := range days {
		c.XAxis.Categories = append(c.XAxis.Categories, d.Date)
		series.Data = append(series.Data, value(d))
	}
	// The chart widget needs at least one point.
	if len(series.Data) == 0 {
		series.Data = []int64{0}
	}
	c.Series = []Series{series}
	return c
}
