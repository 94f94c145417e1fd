package usecase

import (
	"fmt"
	"time"

	"adsight/internal/domain"
)

const isoDate = "2006-01-02"

// period offsets applied to both ends of the date range
const (
	weekShiftDays  = -7
	monthShiftDays = -30
)

// ShiftWindow derives the previous-period window for a compare mode by
// shifting both ends of the applied range. Custom windows are supplied by
// the caller and never pass through here.
func ShiftWindow(mode domain.CompareMode, applied domain.Window) (domain.Window, error) {
	var days int
	switch mode {
	case domain.CompareWoW:
		days = weekShiftDays
	case domain.CompareMoM:
		days = monthShiftDays
	default:
		return domain.Window{}, fmt.Errorf("compare mode %q has no derived window", mode)
	}

	if !applied.Complete() {
		return domain.Window{}, fmt.Errorf("incomplete date range %q..%q", applied.Start, applied.End)
	}

	start, err := time.Parse(isoDate, applied.Start)
	if err != nil {
		return domain.Window{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(isoDate, applied.End)
	if err != nil {
		return domain.Window{}, fmt.Errorf("parse end date: %w", err)
	}

	return domain.Window{
		Start: start.AddDate(0, 0, days).Format(isoDate),
		End:   end.AddDate(0, 0, days).Format(isoDate),
	}, nil
}

// CompareTotals computes the per-metric delta map between the current and
// previous period. A nil previous period, and any metric whose previous
// value is zero, yields nil delta fields: the change is unavailable, not
// infinite. Positive values mean current exceeds previous; presentation owns
// any up/down styling.
func CompareTotals(current domain.Totals, previous *domain.Totals) map[string]domain.Delta {
	deltas := make(map[string]domain.Delta, len(domain.TotalMetricNames))
	for _, name := range domain.TotalMetricNames {
		cur, _ := current.Metric(name)
		if previous == nil {
			deltas[name] = domain.Delta{}
			continue
		}
		prev, _ := previous.Metric(name)
		deltas[name] = compareValue(cur, prev)
	}
	return deltas
}

func compareValue(current, previous float64) domain.Delta {
	if previous == 0 {
		return domain.Delta{}
	}
	diff := current - previous
	pct := diff / previous
	return domain.Delta{Delta: &diff, DeltaPct: &pct}
}
