package auth

import (
	"context"
	"errors"

	"meterinstall-backend/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Principal is the authenticated caller: stored in the session under "user",
// carried in bearer tokens and returned by /me.
type Principal struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Fullname string   `json:"fullname"`
	Roles    []string `json:"roles"`
}

// ID parses UserID; uuid.Nil when malformed.
func (p *Principal) ID() uuid.UUID {
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// PrincipalFromUser builds the principal for a freshly authenticated user.
func PrincipalFromUser(u *domain.User) Principal {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return Principal{
		UserID:   u.ID.String(),
		Username: u.Username,
		Fullname: u.DisplayName(),
		Roles:    roles,
	}
}

// UserFinder abstracts credential lookup (GORM in production, fakes in tests).
type UserFinder interface {
	FindByUsernameAndPassword(ctx context.Context, username, password string) (*domain.User, error)
}

type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByUsernameAndPassword(ctx context.Context, username, password string) (*domain.User, error) {
	return LoginUser(ctx, g.DB, LoginInput{Username: username, Password: password})
}

// LoginUser finds an active user by username and verifies the bcrypt password hash.
func LoginUser(ctx context.Context, db *gorm.DB, input LoginInput) (*domain.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrUsernamePasswordRequired
	}
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", input.Username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidUsername
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidUsername
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return &u, nil
}

// VerifyUser validates the session user value (decoded JSON) and returns the principal.
func VerifyUser(sessionUser interface{}) (*Principal, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	if p, ok := sessionUser.(*Principal); ok {
		if p.UserID == "" {
			return nil, ErrNotAuthenticated
		}
		return p, nil
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return &Principal{
		UserID:   userID,
		Username: str(m["username"]),
		Fullname: str(m["fullname"]),
		Roles:    strs(m["roles"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// strs accepts both []string (set in-process) and []interface{} (decoded from JSON).
func strs(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
