// Package progress derives target progress from completed installation facts.
package progress

import (
	"context"
	"math"
	"time"

	"meterinstall-backend/internal/application/facts"
	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/metrics"
)

// FactSource is the read side of installation facts.
type FactSource interface {
	QueryCompletedFacts(ctx context.Context, key domain.PeriodKey) ([]facts.Fact, error)
}

// Progress is never persisted. Nil pointers mean "no data", not zero.
type Progress struct {
	CompletedCount        int64    `json:"completed_count"`
	CompletionPercentage  float64  `json:"completion_percentage"`
	RemainingCount        int64    `json:"remaining_count"`
	AverageDaysToComplete *float64 `json:"average_days_to_complete"`
	OnTimePercentage      *float64 `json:"on_time_percentage"`
}

type Engine struct {
	Facts FactSource
}

// Compute reads the target's matched facts once and derives every metric from that read.
func (e *Engine) Compute(ctx context.Context, t domain.Target) (Progress, error) {
	start := time.Now()
	defer func() { metrics.ProgressComputeDuration.Observe(time.Since(start).Seconds()) }()

	matched, err := e.Facts.QueryCompletedFacts(ctx, t.Key())
	if err != nil {
		metrics.ProgressComputeErrors.Inc()
		return Progress{}, apperrors.Wrap("progress.Compute", err, "Progress unavailable for target %s", t.ID)
	}
	return Derive(t, matched), nil
}

// Derive computes every metric from the matched facts. The on-time numerator
// and the completed count come from the same slice, so on-time never exceeds 100%.
func Derive(t domain.Target, matched []facts.Fact) Progress {
	completed := int64(len(matched))
	p := Progress{
		CompletedCount: completed,
		RemainingCount: max(0, int64(t.TargetCount)-completed),
	}
	if t.TargetCount > 0 {
		p.CompletionPercentage = round2(float64(completed) / float64(t.TargetCount) * 100)
	}

	var sum, n int
	for _, f := range matched {
		if d, ok := f.ElapsedDays(); ok {
			sum += d
			n++
		}
	}
	if n > 0 {
		avg := round2(float64(sum) / float64(n))
		p.AverageDaysToComplete = &avg
	}

	if t.TargetDays != nil && completed > 0 {
		p.OnTimePercentage = percentage(facts.CountWithin(matched, *t.TargetDays), completed)
	}
	return p
}

func percentage(part, whole int64) *float64 {
	v := round2(float64(part) / float64(whole) * 100)
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
