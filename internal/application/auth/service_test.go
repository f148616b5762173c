package auth

import (
	"context"
	"testing"
	"time"

	"meterinstall-backend/internal/domain"
	"meterinstall-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedLoginUser(t *testing.T, active bool) (domain.User, *GormUserFinder) {
	t.Helper()
	db := testutil.OpenDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{Username: "somchai", FirstName: "Somchai", LastName: "Jaidee", PasswordHash: string(hash), Roles: []string{"manager"}, IsActive: active}
	require.NoError(t, db.Create(&u).Error)
	return u, &GormUserFinder{DB: db}
}

func TestLoginUser(t *testing.T) {
	u, finder := seedLoginUser(t, true)
	ctx := context.Background()

	got, err := finder.FindByUsernameAndPassword(ctx, "somchai", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = finder.FindByUsernameAndPassword(ctx, "somchai", "wrong")
	assert.Equal(t, ErrIncorrectPassword, err)

	_, err = finder.FindByUsernameAndPassword(ctx, "nobody", "password123")
	assert.Equal(t, ErrInvalidUsername, err)

	_, err = finder.FindByUsernameAndPassword(ctx, "", "")
	assert.Equal(t, ErrUsernamePasswordRequired, err)
}

func TestLoginUser_Inactive(t *testing.T) {
	_, finder := seedLoginUser(t, false)
	_, err := finder.FindByUsernameAndPassword(context.Background(), "somchai", "password123")
	assert.Equal(t, ErrInactiveUser, err)
}

func TestVerifyUser_Nil(t *testing.T) {
	u, err := VerifyUser(nil)
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_NoUserID(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{"fullname": "Test"})
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_DecodedJSONRoles(t *testing.T) {
	p, err := VerifyUser(map[string]interface{}{
		"user_id":  "550e8400-e29b-41d4-a716-446655440000",
		"username": "somchai",
		"fullname": "Somchai Jaidee",
		"roles":    []interface{}{"admin", "manager"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "manager"}, p.Roles)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", p.ID().String())
}

func TestVerifyUser_MissingRolesIsEmptySet(t *testing.T) {
	p, err := VerifyUser(map[string]interface{}{"user_id": "x"})
	require.NoError(t, err)
	assert.Empty(t, p.Roles)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", p.ID().String())
}

func TestToken_RoundTrip(t *testing.T) {
	p := Principal{UserID: "550e8400-e29b-41d4-a716-446655440000", Username: "ada", Fullname: "Ada Admin", Roles: []string{"admin"}}
	tok, err := IssueToken("secret", time.Hour, p, time.Now())
	require.NoError(t, err)

	got, err := ParseToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, p, *got)

	_, err = ParseToken("other-secret", tok)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestToken_Expired(t *testing.T) {
	p := Principal{UserID: "550e8400-e29b-41d4-a716-446655440000"}
	tok, err := IssueToken("secret", time.Minute, p, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken("secret", tok)
	assert.Equal(t, ErrInvalidToken, err)
}
