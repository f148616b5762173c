package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstallationRequest is a meter installation request. Rows with a completion date
// are the installation facts that progress is measured against.
type InstallationRequest struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequestNo          string     `gorm:"column:request_no;type:varchar(50);not null;uniqueIndex" json:"request_no"`
	BranchID           *uuid.UUID `gorm:"column:branch_id;type:uuid;index:idx_requests_completion,priority:1" json:"branch_id"`
	InstallationTypeID *uuid.UUID `gorm:"column:installation_type_id;type:uuid;index:idx_requests_completion,priority:2" json:"installation_type_id"`
	RequestDate        *time.Time `gorm:"column:request_date;index" json:"request_date"`
	CompletionDate     *time.Time `gorm:"column:completion_date;index:idx_requests_completion,priority:3" json:"completion_date"`
	CreatedAt          time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (InstallationRequest) TableName() string {
	return "installation_requests"
}

func (r *InstallationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
