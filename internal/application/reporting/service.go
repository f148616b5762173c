// Package reporting combines stored targets with their computed progress.
package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"meterinstall-backend/internal/application/facts"
	"meterinstall-backend/internal/application/progress"
	"meterinstall-backend/internal/application/targets"
	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

// TargetReader is the read side of the target store.
type TargetReader interface {
	Get(ctx context.Context, id uuid.UUID) (*targets.TargetDetail, error)
	List(ctx context.Context, f targets.Filters, skip, limit int) ([]targets.TargetDetail, int64, int, int, error)
	ListAll(ctx context.Context, f targets.Filters) ([]targets.TargetDetail, error)
}

type ProgressComputer interface {
	Compute(ctx context.Context, t domain.Target) (progress.Progress, error)
}

// RequestReader is the range side of the installation fact accessor.
type RequestReader interface {
	QueryCompletedInRange(ctx context.Context, q facts.RangeQuery) ([]facts.Request, error)
	QueryRequestedInRange(ctx context.Context, q facts.RangeQuery) ([]facts.Request, error)
}

type Service struct {
	Targets  TargetReader
	Progress ProgressComputer
	Requests RequestReader
	// SLADays is the completion threshold for the SLA reports; zero means DefaultSLADays.
	SLADays int
	// Location anchors report dates and periods; nil means UTC.
	Location *time.Location
}

// TargetWithProgress flattens target fields and progress fields into one JSON object.
type TargetWithProgress struct {
	targets.TargetDetail
	progress.Progress
}

func (s *Service) GetTargetWithProgress(ctx context.Context, id uuid.UUID) (*TargetWithProgress, error) {
	t, err := s.Targets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.Progress.Compute(ctx, t.Target)
	if err != nil {
		return nil, apperrors.Wrap("reporting.GetTargetWithProgress", err, "Target %s", id)
	}
	return &TargetWithProgress{TargetDetail: *t, Progress: p}, nil
}

func (s *Service) ListTargetsWithProgress(ctx context.Context, f targets.Filters, skip, limit int) ([]TargetWithProgress, int64, int, int, error) {
	items, total, page, pageSize, err := s.Targets.List(ctx, f, skip, limit)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	out, err := s.withProgress(ctx, "reporting.ListTargetsWithProgress", items)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return out, total, page, pageSize, nil
}

// withProgress computes each target independently; the first failure aborts the page.
func (s *Service) withProgress(ctx context.Context, op string, items []targets.TargetDetail) ([]TargetWithProgress, error) {
	out := make([]TargetWithProgress, 0, len(items))
	for _, t := range items {
		p, err := s.Progress.Compute(ctx, t.Target)
		if err != nil {
			return nil, apperrors.Wrap(op, err, "Target %s (%d-%02d %s)", t.ID, t.Year, t.Month, t.BranchName)
		}
		out = append(out, TargetWithProgress{TargetDetail: t, Progress: p})
	}
	return out, nil
}

type SummaryQuery struct {
	Year     int        `json:"year" validate:"gte=2020,lte=2100"`
	Month    *int       `json:"month" validate:"omitempty,gte=1,lte=12"`
	BranchID *uuid.UUID `json:"branch_id"`
}

// SummaryItem is one aggregated group in the target-vs-actual report.
type SummaryItem struct {
	Name       string  `json:"name"`
	Target     int64   `json:"target"`
	Actual     int64   `json:"actual"`
	Percentage float64 `json:"percentage"`
	Remaining  int64   `json:"remaining"`
}

type Summary struct {
	Year               int           `json:"year"`
	Month              *int          `json:"month"`
	BranchID           *uuid.UUID    `json:"branch_id"`
	OverallAchievement float64       `json:"overall_achievement"`
	TotalTarget        int64         `json:"total_target"`
	TotalActual        int64         `json:"total_actual"`
	TotalRemaining     int64         `json:"total_remaining"`
	ByMonth            []SummaryItem `json:"by_month"`
	ByBranch           []SummaryItem `json:"by_branch"`
	ByType             []SummaryItem `json:"by_type"`
}

type group struct {
	item SummaryItem
}

// TargetVsActual aggregates every matching target's progress by month, branch and installation type.
func (s *Service) TargetVsActual(ctx context.Context, q SummaryQuery) (*Summary, error) {
	if err := validation.Struct("reporting.TargetVsActual", "Invalid report query", q); err != nil {
		return nil, err
	}
	items, err := s.Targets.ListAll(ctx, targets.Filters{Year: &q.Year, Month: q.Month, BranchID: q.BranchID})
	if err != nil {
		return nil, err
	}
	rows, err := s.withProgress(ctx, "reporting.TargetVsActual", items)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Year: q.Year, Month: q.Month, BranchID: q.BranchID}
	byMonth := map[string]*group{}
	byBranch := map[string]*group{}
	byType := map[string]*group{}
	for _, r := range rows {
		target := int64(r.TargetCount)
		sum.TotalTarget += target
		sum.TotalActual += r.CompletedCount
		sum.TotalRemaining += r.RemainingCount

		add(byMonth, fmt.Sprintf("%02d", r.Month), time.Month(r.Month).String(), target, r.Progress)
		add(byBranch, r.BranchName+"\x00"+r.BranchID.String(), r.BranchName, target, r.Progress)
		add(byType, r.InstallationTypeName+"\x00"+r.InstallationTypeID.String(), r.InstallationTypeName, target, r.Progress)
	}
	sum.OverallAchievement = achievement(sum.TotalActual, sum.TotalTarget)
	sum.ByMonth = flatten(byMonth)
	sum.ByBranch = flatten(byBranch)
	sum.ByType = flatten(byType)
	return sum, nil
}

func add(groups map[string]*group, key, name string, target int64, p progress.Progress) {
	g, ok := groups[key]
	if !ok {
		g = &group{item: SummaryItem{Name: name}}
		groups[key] = g
	}
	g.item.Target += target
	g.item.Actual += p.CompletedCount
	g.item.Remaining += p.RemainingCount
}

func flatten(groups map[string]*group) []SummaryItem {
	out := make([]SummaryItem, 0, len(groups))
	for _, key := range sortedKeys(groups) {
		g := groups[key]
		g.item.Percentage = achievement(g.item.Actual, g.item.Target)
		out = append(out, g.item)
	}
	return out
}

func achievement(actual, target int64) float64 {
	if target == 0 {
		return 0
	}
	return round2(float64(actual) / float64(target) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
