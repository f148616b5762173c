package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstallationType is a kind of installation (e.g. permanent, temporary).
type InstallationType struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;type:varchar(20);not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (InstallationType) TableName() string {
	return "installation_types"
}

func (it *InstallationType) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}
