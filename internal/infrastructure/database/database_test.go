package database

import (
	"errors"
	"fmt"
	"testing"

	"meterinstall-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAutoMigrate_EnforcesTargetPeriodUniqueness(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	branchID, typeID, userID := uuid.New(), uuid.New(), uuid.New()
	first := &domain.Target{Year: 2024, Month: 3, BranchID: branchID, InstallationTypeID: typeID, TargetCount: 10, CreatedBy: userID}
	require.NoError(t, db.Create(first).Error)

	dup := &domain.Target{Year: 2024, Month: 3, BranchID: branchID, InstallationTypeID: typeID, TargetCount: 5, CreatedBy: userID}
	err = db.Create(dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	other := &domain.Target{Year: 2024, Month: 4, BranchID: branchID, InstallationTypeID: typeID, TargetCount: 5, CreatedBy: userID}
	require.NoError(t, db.Create(other).Error)
	assert.Nil(t, other.UpdatedAt)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_targets_period" (SQLSTATE 23505)`)))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}
