// Package delta computes per-metric period-over-period changes between
// two metric snapshots. It is pure computation: no I/O, no shared state,
// and no error returns — every input in the documented domain, including
// a missing previous snapshot, produces a result.
package delta

import (
	"math"

	"github.com/prepairo/adpulse/internal/models"
)

// Compute compares the current snapshot against the previous one and
// returns a delta per metric key present in either snapshot.
//
// Semantics:
//   - previous == nil is the first-run condition, not an error: every
//     delta carries only the current value, with Previous, Absolute and
//     Percent all nil.
//   - A key absent from the previous snapshot means "no prior data";
//     zero is never substituted, so Absolute and Percent stay nil.
//   - A key present only in the previous snapshot is treated as having
//     dropped to zero in the current period.
//   - A zero baseline makes the relative change undefined: Percent stays
//     nil and, when the current value is non-zero, FromZero is set. A
//     0-to-0 metric is "no change", so neither Percent nor FromZero is set.
func Compute(current, previous *models.MetricSnapshot) map[string]models.Delta {
	deltas := make(map[string]models.Delta, len(current.Metrics))

	for name, value := range current.Metrics {
		deltas[name] = compare(name, value, previous)
	}

	if previous != nil {
		for name := range previous.Metrics {
			if _, ok := deltas[name]; !ok {
				deltas[name] = compare(name, 0, previous)
			}
		}
	}

	return deltas
}

func compare(name string, value float64, previous *models.MetricSnapshot) models.Delta {
	d := models.Delta{
		Metric:  name,
		Current: value,
	}

	if previous == nil {
		return d
	}
	prev, ok := previous.Metrics[name]
	if !ok {
		return d
	}

	d.Previous = floatPtr(prev)
	d.Absolute = floatPtr(value - prev)

	if prev == 0 {
		d.FromZero = value != 0
		return d
	}

	exact := (value - prev) / prev * 100
	d.PercentExact = floatPtr(exact)
	d.Percent = floatPtr(round2(exact))
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatPtr(v float64) *float64 {
	return &v
}
