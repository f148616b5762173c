package reporting

import (
	"context"
	"sort"
	"time"

	"meterinstall-backend/internal/application/facts"
	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

// rankedBranches is the length of the top and bottom lists.
const rankedBranches = 5

type BranchPerformanceQuery struct {
	Year  int  `json:"year" validate:"gte=2020,lte=2100"`
	Month *int `json:"month" validate:"omitempty,gte=1,lte=12"`
}

// BranchPerformance covers the requests a branch received in the period.
type BranchPerformance struct {
	BranchID          uuid.UUID `json:"branch_id"`
	BranchCode        string    `json:"branch_code"`
	BranchName        string    `json:"branch_name"`
	TotalRequests     int64     `json:"total_requests"`
	Completed         int64     `json:"completed"`
	Open              int64     `json:"open"`
	CompletionRate    float64   `json:"completion_rate"`
	SLAPerformance    *float64  `json:"sla_performance"`
	AvgCompletionDays *float64  `json:"avg_completion_days"`
}

type BranchPerformanceReport struct {
	Year             int                 `json:"year"`
	Month            *int                `json:"month"`
	SLADays          int                 `json:"sla_days"`
	Branches         []BranchPerformance `json:"branches"`
	TopPerforming    []BranchPerformance `json:"top_performing"`
	NeedsImprovement []BranchPerformance `json:"needs_improvement"`
}

// period returns the month, or the whole year when month is nil, in loc.
func (q BranchPerformanceQuery) period(loc *time.Location) (time.Time, time.Time) {
	if q.Month != nil {
		return facts.MonthRange(q.Year, *q.Month, loc)
	}
	start := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(1, 0, 0).UTC()
}

// BranchPerformance ranks branches by completion rate, then SLA performance, over the
// requests received in the period. Branches without requests are omitted.
func (s *Service) BranchPerformance(ctx context.Context, q BranchPerformanceQuery) (*BranchPerformanceReport, error) {
	const op = "reporting.BranchPerformance"
	if err := validation.Struct(op, "Invalid report query", q); err != nil {
		return nil, err
	}
	start, end := q.period(s.location())
	reqs, err := s.Requests.QueryRequestedInRange(ctx, facts.RangeQuery{Start: &start, End: &end})
	if err != nil {
		return nil, apperrors.Wrap(op, err, "Branch performance for %d", q.Year)
	}

	type acc struct {
		row   BranchPerformance
		tally slaTally
	}
	threshold := s.slaDays()
	byBranch := map[uuid.UUID]*acc{}
	for _, r := range reqs {
		if r.BranchID == nil {
			continue
		}
		a, ok := byBranch[*r.BranchID]
		if !ok {
			a = &acc{row: BranchPerformance{BranchID: *r.BranchID, BranchCode: r.BranchCode, BranchName: r.BranchName}}
			byBranch[*r.BranchID] = a
		}
		a.row.TotalRequests++
		if f, done := r.Fact(); done {
			a.row.Completed++
			a.tally.add(f, threshold)
		}
	}

	branches := make([]BranchPerformance, 0, len(byBranch))
	for _, a := range byBranch {
		row := a.row
		row.Open = row.TotalRequests - row.Completed
		row.CompletionRate = achievement(row.Completed, row.TotalRequests)
		row.SLAPerformance = a.tally.performance()
		row.AvgCompletionDays = a.tally.avgDays()
		branches = append(branches, row)
	}
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].BranchName != branches[j].BranchName {
			return branches[i].BranchName < branches[j].BranchName
		}
		return branches[i].BranchID.String() < branches[j].BranchID.String()
	})

	return &BranchPerformanceReport{
		Year:             q.Year,
		Month:            q.Month,
		SLADays:          threshold,
		Branches:         branches,
		TopPerforming:    rank(branches, true),
		NeedsImprovement: rank(branches, false),
	}, nil
}

// rank orders by (completion rate, SLA performance) and keeps the first rankedBranches.
// A branch with no measurable SLA sorts below one with 0%. Ties keep name order.
func rank(branches []BranchPerformance, best bool) []BranchPerformance {
	out := append([]BranchPerformance(nil), branches...)
	sla := func(b BranchPerformance) float64 {
		if b.SLAPerformance == nil {
			return -1
		}
		return *b.SLAPerformance
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CompletionRate != b.CompletionRate {
			return (a.CompletionRate > b.CompletionRate) == best
		}
		if sla(a) != sla(b) {
			return (sla(a) > sla(b)) == best
		}
		return false
	})
	if len(out) > rankedBranches {
		out = out[:rankedBranches]
	}
	return out
}
