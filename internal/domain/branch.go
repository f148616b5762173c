package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a service branch. Read-only reference data for this service.
type Branch struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BranchCode string    `gorm:"column:branch_code;type:varchar(20);not null;uniqueIndex" json:"branch_code"`
	Name       string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	RegionCode *string   `gorm:"column:region_code;type:varchar(20)" json:"region_code"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Branch) TableName() string {
	return "branches"
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
