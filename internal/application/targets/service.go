package targets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/infrastructure/database"
	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/metrics"
	"meterinstall-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// ReferenceResolver checks branch and installation type existence and resolves the creator's name on create.
// Reads take display names from joins instead.
type ReferenceResolver interface {
	ResolveBranch(ctx context.Context, id uuid.UUID) (*domain.Branch, error)
	ResolveInstallationType(ctx context.Context, id uuid.UUID) (*domain.InstallationType, error)
	ResolveUserDisplayName(ctx context.Context, id uuid.UUID) (string, error)
}

type Service struct {
	DB   *gorm.DB
	Refs ReferenceResolver
	// Now defaults to time.Now.
	Now func() time.Time
}

type CreateTargetInput struct {
	Year               int       `json:"year" validate:"gte=2020,lte=2100"`
	Month              int       `json:"month" validate:"gte=1,lte=12"`
	BranchID           uuid.UUID `json:"branch_id" validate:"required"`
	InstallationTypeID uuid.UUID `json:"installation_type_id" validate:"required"`
	TargetCount        int       `json:"target_count" validate:"gte=0"`
	TargetDays         *int      `json:"target_days" validate:"omitempty,gte=1"`
	Description        *string   `json:"description" validate:"omitempty,max=1000"`
}

// UpdateTargetInput is a partial update; nil fields are left unchanged.
type UpdateTargetInput struct {
	Year               *int       `json:"year" validate:"omitempty,gte=2020,lte=2100"`
	Month              *int       `json:"month" validate:"omitempty,gte=1,lte=12"`
	BranchID           *uuid.UUID `json:"branch_id"`
	InstallationTypeID *uuid.UUID `json:"installation_type_id"`
	TargetCount        *int       `json:"target_count" validate:"omitempty,gte=0"`
	TargetDays         *int       `json:"target_days" validate:"omitempty,gte=1"`
	Description        *string    `json:"description" validate:"omitempty,max=1000"`
}

func (in UpdateTargetInput) touchesKey() bool {
	return in.Year != nil || in.Month != nil || in.BranchID != nil || in.InstallationTypeID != nil
}

// Filters are optional; nil means no constraint.
type Filters struct {
	Year               *int       `json:"year" validate:"omitempty,gte=2020,lte=2100"`
	Month              *int       `json:"month" validate:"omitempty,gte=1,lte=12"`
	BranchID           *uuid.UUID `json:"branch_id"`
	InstallationTypeID *uuid.UUID `json:"installation_type_id"`
}

type pagination struct {
	Skip  int `json:"skip" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// TargetDetail is a target with its display names resolved at read time.
type TargetDetail struct {
	domain.Target
	BranchName           string `gorm:"column:branch_name" json:"branch_name"`
	InstallationTypeName string `gorm:"column:installation_type_name" json:"installation_type_name"`
	CreatedByName        string `gorm:"column:created_by_name" json:"created_by_name"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) Create(ctx context.Context, in CreateTargetInput, creatorID uuid.UUID) (detail *TargetDetail, err error) {
	const op = "targets.Create"
	defer func() { recordMutation("create", err) }()

	if err := validation.Struct(op, "Invalid target", in); err != nil {
		return nil, err
	}
	key := domain.PeriodKey{Year: in.Year, Month: in.Month, BranchID: in.BranchID, InstallationTypeID: in.InstallationTypeID}
	branch, itype, err := s.validateKey(ctx, op, key, uuid.Nil)
	if err != nil {
		return nil, err
	}
	creatorName, err := s.Refs.ResolveUserDisplayName(ctx, creatorID)
	if err != nil {
		return nil, apperrors.Wrap(op, err, "%s", describe(key, uuid.Nil))
	}

	t := &domain.Target{
		Year:               in.Year,
		Month:              in.Month,
		BranchID:           in.BranchID,
		InstallationTypeID: in.InstallationTypeID,
		TargetCount:        in.TargetCount,
		TargetDays:         in.TargetDays,
		Description:        in.Description,
		CreatedBy:          creatorID,
		CreatedAt:          s.now(),
	}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		if database.IsUniqueViolation(err) {
			log.Warn().Err(err).Int("year", key.Year).Int("month", key.Month).
				Str("branch_id", key.BranchID.String()).Str("installation_type_id", key.InstallationTypeID.String()).
				Msg("target insert lost uniqueness race")
			return nil, conflict(op, key)
		}
		log.Error().Err(err).Msg("target insert failed")
		return nil, apperrors.Dependency(op, err, "Failed to create target for %d-%02d", key.Year, key.Month)
	}
	log.Info().Str("target_id", t.ID.String()).Str("created_by", creatorID.String()).Msg("target created")
	return &TargetDetail{
		Target:               *t,
		BranchName:           branch.Name,
		InstallationTypeName: itype.Name,
		CreatedByName:        creatorName,
	}, nil
}

func (s *Service) List(ctx context.Context, f Filters, skip, limit int) (items []TargetDetail, total int64, page, pageSize int, err error) {
	const op = "targets.List"
	if err := validation.Struct(op, "Invalid filters", f); err != nil {
		return nil, 0, 0, 0, err
	}
	if err := validation.Struct(op, "Invalid pagination", pagination{Skip: skip, Limit: limit}); err != nil {
		return nil, 0, 0, 0, err
	}

	if err := applyFilters(s.DB.WithContext(ctx).Model(&domain.Target{}), f).Count(&total).Error; err != nil {
		log.Error().Err(err).Msg("target count failed")
		return nil, 0, 0, 0, apperrors.Dependency(op, err, "Failed to count targets")
	}
	items = []TargetDetail{}
	if err := s.detailQuery(ctx, f).Offset(skip).Limit(limit).Scan(&items).Error; err != nil {
		log.Error().Err(err).Msg("target list failed")
		return nil, 0, 0, 0, apperrors.Dependency(op, err, "Failed to fetch targets")
	}
	return items, total, skip/limit + 1, limit, nil
}

// ListAll returns every target matching f in list order, without pagination.
func (s *Service) ListAll(ctx context.Context, f Filters) ([]TargetDetail, error) {
	const op = "targets.ListAll"
	if err := validation.Struct(op, "Invalid filters", f); err != nil {
		return nil, err
	}
	items := []TargetDetail{}
	if err := s.detailQuery(ctx, f).Scan(&items).Error; err != nil {
		return nil, apperrors.Dependency(op, err, "Failed to fetch targets")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TargetDetail, error) {
	const op = "targets.Get"
	var rows []TargetDetail
	if err := s.detailQuery(ctx, Filters{}).Where("targets.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		log.Error().Err(err).Str("target_id", id.String()).Msg("target lookup failed")
		return nil, apperrors.Dependency(op, err, "Failed to fetch target %s", id)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound(op, "Target not found: %s", id)
	}
	return &rows[0], nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateTargetInput) (detail *TargetDetail, err error) {
	const op = "targets.Update"
	defer func() { recordMutation("update", err) }()

	if err := validation.Struct(op, "Invalid target", in); err != nil {
		return nil, err
	}
	var current domain.Target
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, "Target not found: %s", id)
		}
		return nil, apperrors.Dependency(op, err, "Failed to fetch target %s", id)
	}

	key := current.Key()
	if in.touchesKey() {
		key = mergeKey(key, in)
		if _, _, err := s.validateKey(ctx, op, key, id); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{"updated_at": s.now()}
	if in.Year != nil {
		updates["year"] = *in.Year
	}
	if in.Month != nil {
		updates["month"] = *in.Month
	}
	if in.BranchID != nil {
		updates["branch_id"] = *in.BranchID
	}
	if in.InstallationTypeID != nil {
		updates["installation_type_id"] = *in.InstallationTypeID
	}
	if in.TargetCount != nil {
		updates["target_count"] = *in.TargetCount
	}
	if in.TargetDays != nil {
		updates["target_days"] = *in.TargetDays
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	res := s.DB.WithContext(ctx).Model(&domain.Target{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			log.Warn().Err(res.Error).Str("target_id", id.String()).Msg("target update lost uniqueness race")
			return nil, conflict(op, key)
		}
		log.Error().Err(res.Error).Str("target_id", id.String()).Msg("target update failed")
		return nil, apperrors.Dependency(op, res.Error, "Failed to update target %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(op, "Target not found: %s", id)
	}
	return s.Get(ctx, id)
}

// Delete removes the target permanently. Installation facts are untouched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	const op = "targets.Delete"
	defer func() { recordMutation("delete", err) }()

	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Target{})
	if res.Error != nil {
		log.Error().Err(res.Error).Str("target_id", id.String()).Msg("target delete failed")
		return apperrors.Dependency(op, res.Error, "Failed to delete target %s", id)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(op, "Target not found: %s", id)
	}
	log.Info().Str("target_id", id.String()).Msg("target deleted")
	return nil
}

// validateKey resolves the key's references and checks its uniqueness, ignoring the target excludeID.
// Create and Update share it so a key-changing update is validated like a fresh create.
func (s *Service) validateKey(ctx context.Context, op string, key domain.PeriodKey, excludeID uuid.UUID) (*domain.Branch, *domain.InstallationType, error) {
	branch, err := s.Refs.ResolveBranch(ctx, key.BranchID)
	if err != nil {
		return nil, nil, apperrors.Wrap(op, err, "%s", describe(key, excludeID))
	}
	itype, err := s.Refs.ResolveInstallationType(ctx, key.InstallationTypeID)
	if err != nil {
		return nil, nil, apperrors.Wrap(op, err, "%s", describe(key, excludeID))
	}
	q := s.DB.WithContext(ctx).Model(&domain.Target{}).
		Where("year = ? AND month = ? AND branch_id = ? AND installation_type_id = ?",
			key.Year, key.Month, key.BranchID, key.InstallationTypeID)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return nil, nil, apperrors.Dependency(op, err, "Failed to check uniqueness of %s", describe(key, excludeID))
	}
	if n > 0 {
		return nil, nil, conflict(op, key)
	}
	return branch, itype, nil
}

func (s *Service) detailQuery(ctx context.Context, f Filters) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&domain.Target{}).
		Select("targets.*, " +
			"COALESCE(branches.name, '') AS branch_name, " +
			"COALESCE(installation_types.name, '') AS installation_type_name, " +
			"TRIM(COALESCE(users.first_name, '') || ' ' || COALESCE(users.last_name, '')) AS created_by_name").
		Joins("LEFT JOIN branches ON branches.id = targets.branch_id").
		Joins("LEFT JOIN installation_types ON installation_types.id = targets.installation_type_id").
		Joins("LEFT JOIN users ON users.id = targets.created_by").
		Order("targets.year DESC").
		Order("targets.month DESC").
		Order("branches.name ASC").
		Order("installation_types.name ASC").
		Order("targets.id ASC")
	return applyFilters(q, f)
}

func applyFilters(q *gorm.DB, f Filters) *gorm.DB {
	if f.Year != nil {
		q = q.Where("targets.year = ?", *f.Year)
	}
	if f.Month != nil {
		q = q.Where("targets.month = ?", *f.Month)
	}
	if f.BranchID != nil {
		q = q.Where("targets.branch_id = ?", *f.BranchID)
	}
	if f.InstallationTypeID != nil {
		q = q.Where("targets.installation_type_id = ?", *f.InstallationTypeID)
	}
	return q
}

func mergeKey(key domain.PeriodKey, in UpdateTargetInput) domain.PeriodKey {
	if in.Year != nil {
		key.Year = *in.Year
	}
	if in.Month != nil {
		key.Month = *in.Month
	}
	if in.BranchID != nil {
		key.BranchID = *in.BranchID
	}
	if in.InstallationTypeID != nil {
		key.InstallationTypeID = *in.InstallationTypeID
	}
	return key
}

// describe names the target being written: its id on update, its key on create.
func describe(key domain.PeriodKey, id uuid.UUID) string {
	if id != uuid.Nil {
		return "Target " + id.String()
	}
	return fmt.Sprintf("Target %d-%02d", key.Year, key.Month)
}

func conflict(op string, key domain.PeriodKey) error {
	return apperrors.Conflict(op, "Target already exists for %d-%02d, branch %s, installation type %s",
		key.Year, key.Month, key.BranchID, key.InstallationTypeID)
}

func recordMutation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = apperrors.KindOf(err).String()
	}
	metrics.TargetMutationsTotal.WithLabelValues(operation, outcome).Inc()
}
