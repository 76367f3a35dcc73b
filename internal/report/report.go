package report

import (
	"context"
	"sort"

	"printwatch/internal/store"
)

// DeviceEvents is one row of the ranking report.
type DeviceEvents struct {
	DeviceID   string `json:"PrinterId"`
	EventCount int    `json:"eventCount"`
}

// Rank scans every stored profile and returns devices ordered by descending
// event count, ties broken by ascending device identifier so the report is
// deterministic across runs. Read-only; not on the ingestion hot path.
func Rank(ctx context.Context, profiles store.ProfileStore) ([]DeviceEvents, error) {
	all, err := profiles.Profiles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DeviceEvents, 0, len(all))
	for _, p := range all {
		out = append(out, DeviceEvents{
			DeviceID:   p.DeviceID,
			EventCount: p.EventCount,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EventCount != out[j].EventCount {
			return out[i].EventCount > out[j].EventCount
		}
		return out[i].DeviceID < out[j].DeviceID
	})

	return out, nil
}
