package reference

import (
	"context"
	"testing"

	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBranch(t *testing.T) {
	db := testutil.OpenDB(t)
	b := testutil.SeedBranch(t, db, "B1", "Bang Na")
	svc := &Service{DB: db}

	got, err := svc.ResolveBranch(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bang Na", got.Name)

	_, err = svc.ResolveBranch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolveInstallationType_NotFound(t *testing.T) {
	svc := &Service{DB: testutil.OpenDB(t)}
	_, err := svc.ResolveInstallationType(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestResolveUserDisplayName(t *testing.T) {
	db := testutil.OpenDB(t)
	u := testutil.SeedUser(t, db, "somchai", "Somchai", "Jaidee", "admin")
	svc := &Service{DB: db}

	name, err := svc.ResolveUserDisplayName(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Somchai Jaidee", name)

	name, err = svc.ResolveUserDisplayName(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestResolveBranch_StorageFailureIsDependency(t *testing.T) {
	db := testutil.OpenDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = (&Service{DB: db}).ResolveBranch(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindDependency, apperrors.KindOf(err))
}

func TestListBranches_OrderedByName(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.SeedBranch(t, db, "B2", "Chiang Mai")
	testutil.SeedBranch(t, db, "B1", "Ayutthaya")
	branches, err := (&Service{DB: db}).ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "Ayutthaya", branches[0].Name)
}
