package stats

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// ErrNoMap is returned when no district map is configured or it cannot be found.
var ErrNoMap = errors.New("stats: district map not available")

const noData = "--"

// enrichMap decorates every feature that has properties with colorCode,
// totalCases and newCases for the district named by prop.
func enrichMap(raw []byte, prop string, summaries map[string]DistrictSummary) ([]byte, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse district map: %w", err)
	}
	for _, f := range fc.Features {
		if f.Properties == nil {
			continue
		}
		s, ok := summaries[f.Properties.MustString(prop, "")]

		f.Properties["colorCode"] = "Blue"
		f.Properties["totalCases"] = countOrDash(ok, s.TotalCases)
		f.Properties["newCases"] = countOrDash(ok, s.TodayCases)
	}
	return fc.MarshalJSON()
}

func countOrDash(ok bool, n int64) string {
	if !ok || n <= 0 {
		return noData
	}
	return strconv.FormatInt(n, 10)
}

func (s *Service) readMap(_ context.Context) ([]byte, error) {
	if s.opts.MapFS == nil || s.opts.MapPath == "" {
		return nil, ErrNoMap
	}
	raw, err := fs.ReadFile(s.opts.MapFS, s.opts.MapPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoMap, s.opts.MapPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read district map: %w", err)
	}
	return raw, nil
}
