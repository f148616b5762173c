package domain

import (
	"strings"
	"time"

	"meterinstall-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an authenticated principal. Roles holds the user's role set as a JSON array.
type User struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string                      `gorm:"column:username;type:varchar(50);not null;uniqueIndex" json:"username"`
	FirstName    string                      `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName     string                      `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`
	Email        *string                     `gorm:"column:email;type:varchar(100);index" json:"email"`
	PasswordHash string                      `gorm:"column:password_hash" json:"-"`
	Roles        datatypes.JSONSlice[string] `gorm:"column:roles" json:"roles"`
	IsActive     bool                        `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt    time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if len(u.Roles) == 0 {
		u.Roles = append([]string(nil), constants.DefaultRoles...)
	}
	return nil
}

// DisplayName is "First Last", trimmed when either part is empty.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
