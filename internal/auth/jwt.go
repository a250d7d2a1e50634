package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leaveportal/internal/leave"
)

// Session is what the signed cookie carries between requests.
type Session struct {
	Username string
	Role     leave.Role
}

// Authorized is true iff the session belongs to a logged-in user of role.
func Authorized(s Session, role leave.Role) bool {
	return s.Username != "" && s.Role == role
}

// Claims represents the JWT payload of a session cookie.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a session token valid for ttl.
func Issue(s Session, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Role: string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.Username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a session token and returns the session it carries.
func Parse(tokenStr, key, issuer string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Session{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Session{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Session{}, errors.New("issuer mismatch")
	}
	role, err := leave.ParseRole(claims.Role)
	if err != nil {
		return Session{}, err
	}
	if claims.Subject == "" {
		return Session{}, errors.New("empty subject")
	}
	return Session{Username: claims.Subject, Role: role}, nil
}
