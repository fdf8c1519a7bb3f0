package stats

import (
	"context"
	"encoding/json"
	"io/fs"
	"strings"
	"time"
)

const (
	// StateName labels state-wide charts and the overall grid row.
	StateName = "Tamil Nadu"

	// SeriesWindow is the number of most recent days charted.
	SeriesWindow = 30

	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheSize        = 256
	DefaultDistrictProperty = "district"

	todayLayout = "02/01"
)

type Options struct {
	CacheTTL  time.Duration
	CacheSize int

	// MapFS and MapPath locate the district boundary GeoJSON.
	MapFS   fs.FS
	MapPath string
	// DistrictProperty is the feature property holding the district name.
	DistrictProperty string

	Now func() time.Time
}

// Service serves chart, grid and map data. Results are cached for CacheTTL.
type Service struct {
	repo  Repository
	opts  Options
	cache *cache
}

func NewService(repo Repository, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.DistrictProperty == "" {
		opts.DistrictProperty = DefaultDistrictProperty
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, opts: opts, cache: newCache(opts.CacheSize, opts.CacheTTL)}
}

// Invalidate drops every cached result, used after a data import.
func (s *Service) Invalidate() { s.cache.purge() }

// CasesChart charts daily cases for the state, or for district when set.
func (s *Service) CasesChart(ctx context.Context, district string) (Chart, error) {
	district = strings.TrimSpace(district)
	return cached(ctx, s.cache, "cases:"+district, func(ctx context.Context) (Chart, error) {
		days, err := s.series(ctx, district)
		if err != nil {
			return Chart{}, err
		}
		title := StateName + " - Daily cases"
		if district != "" {
			title = district + " - Total cases"
		}
		return newSplineChart(title, days, Series{Name: "Cases", Color: "Orange"}, func(d Day) int64 { return d.Cases }), nil
	})
}

// DeathChart charts reported deaths for the state, or for district when set.
func (s *Service) DeathChart(ctx context.Context, district string) (Chart, error) {
	district = strings.TrimSpace(district)
	return cached(ctx, s.cache, "death:"+district, func(ctx context.Context) (Chart, error) {
		days, err := s.series(ctx, district)
		if err != nil {
			return Chart{}, err
		}
		title, name := StateName+" - Reported Death cases", "Death cases"
		if district != "" {
			title, name = district+" - Total cases", "Death Cases"
		}
		return newSplineChart(title, days, Series{Name: name, Color: "#E10000"}, func(d Day) int64 { return d.Death }), nil
	})
}

func (s *Service) series(ctx context.Context, district string) ([]Day, error) {
	if district == "" {
		return s.repo.StateSeries(ctx, SeriesWindow)
	}
	return s.repo.DistrictSeries(ctx, district, SeriesWindow)
}

// StateWide returns cumulative state totals.
func (s *Service) StateWide(ctx context.Context) (Totals, error) {
	return cached(ctx, s.cache, "statewide", s.repo.StateTotals)
}

// Grid returns the overall state row followed by every district by name.
func (s *Service) Grid(ctx context.Context) ([]GridRow, error) {
	return cached(ctx, s.cache, "grid", func(ctx context.Context) ([]GridRow, error) {
		t, err := s.repo.StateTotals(ctx)
		if err != nil {
			return nil, err
		}
		districts, err := s.repo.DistrictTotals(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]GridRow, 0, len(districts)+1)
		out = append(out, GridRow{
			Name:       StateName + " (Overall)",
			TotalCases: t.TotalCases,
			Death:      t.TotalDeath,
			Recovered:  t.Recovered,
		})
		return append(out, districts...), nil
	})
}

// GeoJSON returns the district map with per-district counts attached.
// The cache key includes the current day so newCases rolls over.
func (s *Service) GeoJSON(ctx context.Context) (json.RawMessage, error) {
	today := s.opts.Now().Format(todayLayout)
	return cached(ctx, s.cache, "geojson:"+today, func(ctx context.Context) (json.RawMessage, error) {
		raw, err := s.readMap(ctx)
		if err != nil {
			return nil, err
		}
		summaries, err := s.repo.DistrictSummaries(ctx, today)
		if err != nil {
			return nil, err
		}
		out, err := enrichMap(raw, s.opts.DistrictProperty, summaries)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(out), nil
	})
}
