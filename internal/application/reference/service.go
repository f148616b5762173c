package reference

import (
	"context"
	"errors"

	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service is the read-only accessor for branches, installation types and user display names.
type Service struct {
	DB *gorm.DB
}

func (s *Service) ResolveBranch(ctx context.Context, id uuid.UUID) (*domain.Branch, error) {
	const op = "reference.ResolveBranch"
	var b domain.Branch
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, "Branch not found: %s", id)
		}
		log.Error().Err(err).Str("branch_id", id.String()).Msg("branch lookup failed")
		return nil, apperrors.Dependency(op, err, "Branch lookup failed for %s", id)
	}
	return &b, nil
}

func (s *Service) ResolveInstallationType(ctx context.Context, id uuid.UUID) (*domain.InstallationType, error) {
	const op = "reference.ResolveInstallationType"
	var it domain.InstallationType
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, "Installation type not found: %s", id)
		}
		log.Error().Err(err).Str("installation_type_id", id.String()).Msg("installation type lookup failed")
		return nil, apperrors.Dependency(op, err, "Installation type lookup failed for %s", id)
	}
	return &it, nil
}

// ResolveUserDisplayName returns "" for unknown users; only storage failures are errors.
func (s *Service) ResolveUserDisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Select("id", "first_name", "last_name").Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Dependency("reference.ResolveUserDisplayName", err, "User lookup failed for %s", id)
	}
	return u.DisplayName(), nil
}

func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	var out []domain.Branch
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, apperrors.Dependency("reference.ListBranches", err, "Failed to fetch branches")
	}
	return out, nil
}

func (s *Service) ListInstallationTypes(ctx context.Context) ([]domain.InstallationType, error) {
	var out []domain.InstallationType
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, apperrors.Dependency("reference.ListInstallationTypes", err, "Failed to fetch installation types")
	}
	return out, nil
}
