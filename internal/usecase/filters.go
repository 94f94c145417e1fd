package usecase

import (
	"strings"

	"adsight/internal/domain"
)

// sentinel the UI sends for "no constraint"
const filterAll = "all"

// city-like keys are coerced to integers before hitting the upstream API
var cityKeys = map[string]bool{
	"city_id": true,
	"id_city": true,
}

// ResolveFilters merges per-widget local overrides over the global dashboard
// filters into the final request-filter map. Keys holding nil, "" or the
// "all" sentinel are dropped; meaningful zero values survive. Pure function,
// inputs are never mutated.
func ResolveFilters(global domain.Filters, local map[string]any) map[string]any {
	merged := make(map[string]any, 3+len(local))
	putFilter(merged, "start_date", global.StartDate)
	putFilter(merged, "end_date", global.EndDate)
	putFilter(merged, "city_id", global.CityID)

	for key, value := range local {
		putFilter(merged, key, value)
	}
	return merged
}

// putFilter stores one key after dropping empty/sentinel values and coercing
// city identifiers. Non-numeric city values are discarded silently.
func putFilter(dst map[string]any, key string, value any) {
	if value == nil {
		delete(dst, key)
		return
	}
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, filterAll) {
			delete(dst, key)
			return
		}
		value = s
	}
	if cityKeys[key] {
		id, ok := domain.CoerceInt(value)
		if !ok {
			delete(dst, key)
			return
		}
		value = id
	}
	dst[key] = value
}
