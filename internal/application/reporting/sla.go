package reporting

import (
	"context"
	"time"

	"meterinstall-backend/internal/application/facts"
	"meterinstall-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultSLADays applies when no threshold is configured.
const DefaultSLADays = 22

// DateRange is an inclusive calendar-date range. Only the date part of each bound is used;
// days are anchored in the service's Location. Nil bounds are open.
type DateRange struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (r DateRange) check(op string) error {
	if r.StartDate != nil && r.EndDate != nil && civil(*r.EndDate).Before(civil(*r.StartDate)) {
		return apperrors.Validation(op, "end_date is before start_date", map[string]string{"end_date": "gtefield=StartDate"})
	}
	return nil
}

// bounds converts the range to the half-open instant interval [start, day after end).
func (r DateRange) bounds(loc *time.Location) (start, end *time.Time) {
	if r.StartDate != nil {
		s := anchor(*r.StartDate, loc)
		start = &s
	}
	if r.EndDate != nil {
		e := anchor(*r.EndDate, loc).AddDate(0, 0, 1)
		end = &e
	}
	return start, end
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func anchor(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

type SLAQuery struct {
	DateRange
	BranchID           *uuid.UUID `json:"branch_id"`
	InstallationTypeID *uuid.UUID `json:"installation_type_id"`
}

// SLAStat is the SLA outcome of one group of completed installations.
// Total counts every completion; the other figures cover only completions with a request date.
type SLAStat struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Total          int64     `json:"total"`
	WithinSLA      int64     `json:"within_sla"`
	ExceededSLA    int64     `json:"exceeded_sla"`
	SLAPerformance *float64  `json:"sla_performance"`
	AvgDays        *float64  `json:"avg_days"`
}

type SLAReport struct {
	SLADays            int        `json:"sla_days"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	TotalRequests      int64      `json:"total_requests"`
	WithinSLA          int64      `json:"within_sla"`
	ExceededSLA        int64      `json:"exceeded_sla"`
	OverallPerformance *float64   `json:"overall_performance"`
	AvgCompletionDays  *float64   `json:"avg_completion_days"`
	ByBranch           []SLAStat  `json:"by_branch"`
	ByType             []SLAStat  `json:"by_type"`
}

// slaTally accumulates completions against the SLA threshold.
type slaTally struct {
	total, within, exceeded, timed int64
	days                           int64
}

func (t *slaTally) add(f facts.Fact, threshold int) {
	t.total++
	d, ok := f.ElapsedDays()
	if !ok {
		return
	}
	t.timed++
	t.days += int64(d)
	if d <= threshold {
		t.within++
	} else {
		t.exceeded++
	}
}

func (t *slaTally) performance() *float64 {
	if t.timed == 0 {
		return nil
	}
	v := round2(float64(t.within) / float64(t.timed) * 100)
	return &v
}

func (t *slaTally) avgDays() *float64 {
	if t.timed == 0 {
		return nil
	}
	v := round2(float64(t.days) / float64(t.timed))
	return &v
}

func (s *Service) slaDays() int {
	if s.SLADays > 0 {
		return s.SLADays
	}
	return DefaultSLADays
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// SLAPerformance measures completions in the date range against the SLA threshold,
// overall and per branch and installation type.
func (s *Service) SLAPerformance(ctx context.Context, q SLAQuery) (*SLAReport, error) {
	const op = "reporting.SLAPerformance"
	if err := q.check(op); err != nil {
		return nil, err
	}
	start, end := q.bounds(s.location())
	reqs, err := s.Requests.QueryCompletedInRange(ctx, facts.RangeQuery{
		Start: start, End: end, BranchID: q.BranchID, InstallationTypeID: q.InstallationTypeID,
	})
	if err != nil {
		return nil, apperrors.Wrap(op, err, "SLA report")
	}

	threshold := s.slaDays()
	var overall slaTally
	byBranch := map[string]*slaGroup{}
	byType := map[string]*slaGroup{}
	for _, r := range reqs {
		f, ok := r.Fact()
		if !ok {
			continue
		}
		overall.add(f, threshold)
		slaGroupFor(byBranch, r.BranchID, r.BranchName).tally.add(f, threshold)
		slaGroupFor(byType, r.InstallationTypeID, r.InstallationTypeName).tally.add(f, threshold)
	}
	if overall.total > 0 && overall.timed == 0 {
		log.Warn().Int64("completed", overall.total).Msg("SLA report: no completion has a request date")
	}

	return &SLAReport{
		SLADays:            threshold,
		StartDate:          q.StartDate,
		EndDate:            q.EndDate,
		TotalRequests:      overall.total,
		WithinSLA:          overall.within,
		ExceededSLA:        overall.exceeded,
		OverallPerformance: overall.performance(),
		AvgCompletionDays:  overall.avgDays(),
		ByBranch:           flattenSLA(byBranch),
		ByType:             flattenSLA(byType),
	}, nil
}

type slaGroup struct {
	id    uuid.UUID
	name  string
	tally slaTally
}

func slaGroupFor(groups map[string]*slaGroup, id *uuid.UUID, name string) *slaGroup {
	var gid uuid.UUID
	if id != nil {
		gid = *id
	}
	if name == "" {
		name = "Unknown"
	}
	key := name + "\x00" + gid.String()
	g, ok := groups[key]
	if !ok {
		g = &slaGroup{id: gid, name: name}
		groups[key] = g
	}
	return g
}

func flattenSLA(groups map[string]*slaGroup) []SLAStat {
	out := make([]SLAStat, 0, len(groups))
	for _, key := range sortedKeys(groups) {
		g := groups[key]
		out = append(out, SLAStat{
			ID:             g.id,
			Name:           g.name,
			Total:          g.tally.total,
			WithinSLA:      g.tally.within,
			ExceededSLA:    g.tally.exceeded,
			SLAPerformance: g.tally.performance(),
			AvgDays:        g.tally.avgDays(),
		})
	}
	return out
}
