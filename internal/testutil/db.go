// Package testutil holds SQLite-backed fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory database private to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func SeedBranch(t *testing.T, db *gorm.DB, code, name string) domain.Branch {
	t.Helper()
	b := domain.Branch{BranchCode: code, Name: name}
	require.NoError(t, db.Create(&b).Error)
	return b
}

func SeedInstallationType(t *testing.T, db *gorm.DB, code, name string) domain.InstallationType {
	t.Helper()
	it := domain.InstallationType{Code: code, Name: name}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func SeedUser(t *testing.T, db *gorm.DB, username, first, last string, roles ...string) domain.User {
	t.Helper()
	u := domain.User{Username: username, FirstName: first, LastName: last, Roles: roles, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// SeedFact inserts a completed installation request. delay is completion minus request.
func SeedFact(t *testing.T, db *gorm.DB, branchID, typeID uuid.UUID, completedAt time.Time, delay time.Duration) domain.InstallationRequest {
	t.Helper()
	requested := completedAt.Add(-delay)
	r := domain.InstallationRequest{
		RequestNo:          uuid.NewString(),
		BranchID:           &branchID,
		InstallationTypeID: &typeID,
		RequestDate:        &requested,
		CompletionDate:     &completedAt,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

// SeedOpenRequest inserts a request that has not been completed.
func SeedOpenRequest(t *testing.T, db *gorm.DB, branchID, typeID uuid.UUID, requestedAt time.Time) domain.InstallationRequest {
	t.Helper()
	r := domain.InstallationRequest{
		RequestNo:          uuid.NewString(),
		BranchID:           &branchID,
		InstallationTypeID: &typeID,
		RequestDate:        &requestedAt,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

// Days is a convenience for whole-day durations.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
