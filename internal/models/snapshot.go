package models

import (
	"time"
)

// MetricSnapshot is a timestamped capture of a set of numeric metrics for
// one advertising account. Metric keys are expected to stay stable across
// snapshots of the same account so that period-over-period comparison is
// meaningful, but nothing at this layer enforces that.
type MetricSnapshot struct {
	ID         string             `json:"id"`
	AccountID  string             `json:"account_id"`
	CapturedAt time.Time          `json:"captured_at"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Clone returns a deep copy of the snapshot. Stores hand out copies so
// callers cannot mutate persisted state through the metrics map.
func (s *MetricSnapshot) Clone() *MetricSnapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Metrics = make(map[string]float64, len(s.Metrics))
	for k, v := range s.Metrics {
		cp.Metrics[k] = v
	}
	return &cp
}

// Delta describes the change of a single metric between a current snapshot
// and the previous one. Pointer fields are nil when there is no prior data
// for the metric, which is distinct from a prior value of zero.
type Delta struct {
	Metric   string   `json:"metric"`
	Current  float64  `json:"current"`
	Previous *float64 `json:"previous,omitempty"`
	Absolute *float64 `json:"absolute,omitempty"`

	// Percent is the relative change in percent, rounded to two decimals
	// for display stability. PercentExact carries the unrounded value.
	Percent      *float64 `json:"percent,omitempty"`
	PercentExact *float64 `json:"percent_exact,omitempty"`

	// FromZero marks growth from a zero baseline. The relative change is
	// undefined there, so Percent stays nil and this flag is the sentinel.
	FromZero bool `json:"from_zero,omitempty"`
}
