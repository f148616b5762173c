package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Target is an installation-count commitment for one branch, one installation type
// and one (year, month) period. (year, month, branch_id, installation_type_id) is unique.
type Target struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Year               int        `gorm:"column:year;not null;uniqueIndex:idx_targets_period,priority:1" json:"year"`
	Month              int        `gorm:"column:month;not null;uniqueIndex:idx_targets_period,priority:2" json:"month"`
	BranchID           uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:idx_targets_period,priority:3" json:"branch_id"`
	InstallationTypeID uuid.UUID  `gorm:"column:installation_type_id;type:uuid;not null;uniqueIndex:idx_targets_period,priority:4" json:"installation_type_id"`
	TargetCount        int        `gorm:"column:target_count;not null" json:"target_count"`
	TargetDays         *int       `gorm:"column:target_days" json:"target_days"`
	Description        *string    `gorm:"column:description" json:"description"`
	CreatedBy          uuid.UUID  `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt          *time.Time `gorm:"column:updated_at;autoCreateTime:false;autoUpdateTime:false" json:"updated_at"`
}

func (Target) TableName() string {
	return "targets"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (t *Target) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// PeriodKey is the composite identity of a target.
type PeriodKey struct {
	Year               int
	Month              int
	BranchID           uuid.UUID
	InstallationTypeID uuid.UUID
}

// Key returns the target's composite key.
func (t *Target) Key() PeriodKey {
	return PeriodKey{
		Year:               t.Year,
		Month:              t.Month,
		BranchID:           t.BranchID,
		InstallationTypeID: t.InstallationTypeID,
	}
}
