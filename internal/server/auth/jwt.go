// Package auth issues and verifies the HS256 bearer tokens that bind a
// connection to a user identity.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Identity is what a verified token resolves to.
type Identity struct {
	UserID    string
	ExpiresAt time.Time
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generateToken(userID, secretKey, time.Now().Add(validityDuration))
}

func generateToken(userID string, secretKey []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromToken verifies tokenString and returns the embedded user id.
// Expired tokens yield common.ErrTokenExpired; every other failure yields
// common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	id, err := parse(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

func parse(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Authenticator binds a secret and token lifetime.
type Authenticator struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewAuthenticator(secret string, validity time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), validity: validity, now: time.Now}
}

// Issue signs a fresh token for userID.
func (a *Authenticator) Issue(userID string) (string, error) {
	return generateToken(userID, a.secret, a.now().Add(a.validity))
}

// Authenticate verifies a bearer credential. A missing credential is
// reported as common.ErrInvalidToken.
func (a *Authenticator) Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, common.ErrInvalidToken
	}
	return parse(token, a.secret)
}

// BearerToken extracts the credential from an "Authorization: Bearer x"
// header value. It returns "" when the header has another shape.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
