package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Username string   `json:"username"`
	Fullname string   `json:"fullname"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for p valid for ttl.
func IssueToken(secret string, ttl time.Duration, p Principal, now time.Time) (string, error) {
	claims := Claims{
		Username: p.Username,
		Fullname: p.Fullname,
		Roles:    p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns its principal.
func ParseToken(secret, tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return &Principal{
		UserID:   claims.Subject,
		Username: claims.Username,
		Fullname: claims.Fullname,
		Roles:    roles,
	}, nil
}
