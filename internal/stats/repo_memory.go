package stats

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo holds case data in process. Used by tests and local runs
// without a database.
type MemoryRepo struct {
	mu        sync.RWMutex
	districts map[int64]string
	state     []Day
	daily     map[int64][]Day // district id -> days
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{districts: map[int64]string{}, daily: map[int64][]Day{}}
}

func (r *MemoryRepo) AddDistrict(id int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.districts[id] = name
}

func (r *MemoryRepo) AddStateDay(d Day) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = append(r.state, d)
}

func (r *MemoryRepo) AddDistrictDay(districtID int64, d Day) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.daily[districtID] = append(r.daily[districtID], d)
}

func (r *MemoryRepo) StateSeries(_ context.Context, limit int) ([]Day, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lastByID(r.state, limit), nil
}

func (r *MemoryRepo) DistrictSeries(_ context.Context, district string, limit int) ([]Day, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var days []Day
	for id, name := range r.districts {
		if name == district {
			days = append(days, r.daily[id]...)
		}
	}
	return lastByID(days, limit), nil
}

func (r *MemoryRepo) StateTotals(_ context.Context) (Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var t Totals
	for _, d := range r.state {
		t.TotalCases += d.Cases
		t.TotalDeath += d.Death
		t.Recovered += d.Recovered
	}
	return t, nil
}

func (r *MemoryRepo) DistrictTotals(_ context.Context) ([]GridRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName := map[string]*GridRow{}
	for id, name := range r.districts {
		row, ok := byName[name]
		if !ok {
			row = &GridRow{Name: name}
			byName[name] = row
		}
		for _, d := range r.daily[id] {
			row.TotalCases += d.Cases
			row.Death += d.Death
			row.Recovered += d.Recovered
		}
	}

	out := make([]GridRow, 0, len(byName))
	for _, row := range byName {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) DistrictSummaries(_ context.Context, today string) (map[string]DistrictSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]DistrictSummary, len(r.districts))
	for id, name := range r.districts {
		if prev, ok := out[name]; ok && prev.ID < id {
			continue
		}
		s := DistrictSummary{ID: id, Name: name}
		for _, d := range r.daily[id] {
			s.TotalCases += d.Cases
			s.Death += d.Death
			s.Recovered += d.Recovered
			if d.Date == today {
				s.TodayCases += d.Cases
			}
		}
		out[name] = s
	}
	return out, nil
}

func lastByID(days []Day, limit int) []Day {
	out := make([]Day, len(days))
	copy(out, days)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
