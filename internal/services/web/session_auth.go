package web

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTokenTTL bounds how long a console cookie stays valid.
const sessionTokenTTL = 12 * time.Hour

// sessionManager signs and verifies console session tokens. The token is a
// compact JWT whose subject is the registry session ID.
type sessionManager struct {
	key []byte
	now func() time.Time
}

func newSessionManager(key string) (*sessionManager, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("session key is required")
	}
	return &sessionManager{key: []byte(key), now: time.Now}, nil
}

// Issue mints a signed token for a console session ID.
func (m *sessionManager) Issue(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Verify checks a token and returns the console session ID it carries.
func (m *sessionManager) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("session token is required")
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}
