package facts

import (
	"context"
	"time"

	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const day = 24 * time.Hour

// Fact is one completed installation request.
type Fact struct {
	RequestID   uuid.UUID
	RequestedAt *time.Time
	CompletedAt time.Time
}

// ElapsedDays is whole days from request to completion, truncated toward zero.
// A completion recorded before its request yields a negative value; it is not corrected here.
// ok is false when the request timestamp is missing.
func (f Fact) ElapsedDays() (days int, ok bool) {
	if f.RequestedAt == nil {
		return 0, false
	}
	return int(f.CompletedAt.Sub(*f.RequestedAt) / day), true
}

// Store reads completed installation facts from the installation_requests table.
type Store struct {
	DB *gorm.DB
	// Location defines month boundaries; nil means UTC.
	Location *time.Location
}

// MonthRange returns the half-open UTC interval [start, end) covering year/month in loc.
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

// QueryCompletedFacts returns every completed request for the branch/type whose completion falls in the key's month.
func (s *Store) QueryCompletedFacts(ctx context.Context, key domain.PeriodKey) ([]Fact, error) {
	start, end := MonthRange(key.Year, key.Month, s.Location)
	var rows []domain.InstallationRequest
	err := s.DB.WithContext(ctx).
		Select("id", "request_date", "completion_date").
		Where("branch_id = ? AND installation_type_id = ?", key.BranchID, key.InstallationTypeID).
		Where("completion_date IS NOT NULL").
		Where("completion_date >= ? AND completion_date < ?", start, end).
		Order("completion_date ASC").
		Find(&rows).Error
	if err != nil {
		log.Error().Err(err).
			Str("branch_id", key.BranchID.String()).
			Str("installation_type_id", key.InstallationTypeID.String()).
			Int("year", key.Year).Int("month", key.Month).
			Msg("completed facts query failed")
		return nil, apperrors.Dependency("facts.QueryCompletedFacts", err,
			"Installation facts unavailable for %d-%02d branch %s type %s", key.Year, key.Month, key.BranchID, key.InstallationTypeID)
	}
	out := make([]Fact, 0, len(rows))
	for _, r := range rows {
		if r.CompletionDate == nil {
			continue
		}
		out = append(out, Fact{RequestID: r.ID, RequestedAt: r.RequestDate, CompletedAt: *r.CompletionDate})
	}
	return out, nil
}

// CountWithin counts facts completed within thresholdDays (inclusive).
func CountWithin(facts []Fact, thresholdDays int) int64 {
	var n int64
	for _, f := range facts {
		if d, ok := f.ElapsedDays(); ok && d <= thresholdDays {
			n++
		}
	}
	return n
}

// Request is an installation request with its reference names resolved.
// CompletedAt is nil while the request is open.
type Request struct {
	ID                   uuid.UUID
	BranchID             *uuid.UUID
	BranchCode           string
	BranchName           string
	InstallationTypeID   *uuid.UUID
	InstallationTypeName string
	RequestedAt          *time.Time
	CompletedAt          *time.Time
}

// Fact returns the request as a fact; ok is false for open requests.
func (r Request) Fact() (Fact, bool) {
	if r.CompletedAt == nil {
		return Fact{}, false
	}
	return Fact{RequestID: r.ID, RequestedAt: r.RequestedAt, CompletedAt: *r.CompletedAt}, true
}

// RangeQuery bounds a request query to [Start, End). Nil fields are unconstrained.
type RangeQuery struct {
	Start              *time.Time
	End                *time.Time
	BranchID           *uuid.UUID
	InstallationTypeID *uuid.UUID
}

type requestRow struct {
	ID                   uuid.UUID  `gorm:"column:id"`
	BranchID             *uuid.UUID `gorm:"column:branch_id"`
	BranchCode           string     `gorm:"column:branch_code"`
	BranchName           string     `gorm:"column:branch_name"`
	InstallationTypeID   *uuid.UUID `gorm:"column:installation_type_id"`
	InstallationTypeName string     `gorm:"column:installation_type_name"`
	RequestDate          *time.Time `gorm:"column:request_date"`
	CompletionDate       *time.Time `gorm:"column:completion_date"`
}

// QueryCompletedInRange returns completed requests whose completion falls in q.
func (s *Store) QueryCompletedInRange(ctx context.Context, q RangeQuery) ([]Request, error) {
	return s.queryRange(ctx, "facts.QueryCompletedInRange", "installation_requests.completion_date", q, true)
}

// QueryRequestedInRange returns open and completed requests whose request date falls in q.
func (s *Store) QueryRequestedInRange(ctx context.Context, q RangeQuery) ([]Request, error) {
	return s.queryRange(ctx, "facts.QueryRequestedInRange", "installation_requests.request_date", q, false)
}

func (s *Store) queryRange(ctx context.Context, op, column string, q RangeQuery, completedOnly bool) ([]Request, error) {
	db := s.DB.WithContext(ctx).Table("installation_requests").
		Select("installation_requests.id, installation_requests.branch_id, " +
			"COALESCE(branches.branch_code, '') AS branch_code, COALESCE(branches.name, '') AS branch_name, " +
			"installation_requests.installation_type_id, COALESCE(installation_types.name, '') AS installation_type_name, " +
			"installation_requests.request_date, installation_requests.completion_date").
		Joins("LEFT JOIN branches ON branches.id = installation_requests.branch_id").
		Joins("LEFT JOIN installation_types ON installation_types.id = installation_requests.installation_type_id").
		Where(column + " IS NOT NULL").
		Order(column + " ASC")
	if completedOnly {
		db = db.Where("installation_requests.completion_date IS NOT NULL")
	}
	if q.Start != nil {
		db = db.Where(column+" >= ?", q.Start.UTC())
	}
	if q.End != nil {
		db = db.Where(column+" < ?", q.End.UTC())
	}
	if q.BranchID != nil {
		db = db.Where("installation_requests.branch_id = ?", *q.BranchID)
	}
	if q.InstallationTypeID != nil {
		db = db.Where("installation_requests.installation_type_id = ?", *q.InstallationTypeID)
	}

	var rows []requestRow
	if err := db.Scan(&rows).Error; err != nil {
		log.Error().Err(err).Str("op", op).Msg("installation request range query failed")
		return nil, apperrors.Dependency(op, err, "Installation requests unavailable")
	}
	out := make([]Request, 0, len(rows))
	for _, r := range rows {
		out = append(out, Request{
			ID:                   r.ID,
			BranchID:             r.BranchID,
			BranchCode:           r.BranchCode,
			BranchName:           r.BranchName,
			InstallationTypeID:   r.InstallationTypeID,
			InstallationTypeName: r.InstallationTypeName,
			RequestedAt:          r.RequestDate,
			CompletedAt:          r.CompletionDate,
		})
	}
	return out, nil
}
