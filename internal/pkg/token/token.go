package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrExpired          = errors.New("token has expired")
	ErrSignatureInvalid = errors.New("token signature is invalid")
)

const (
	// AccessTokenSeconds is the fixed access token lifetime
	AccessTokenSeconds = 86400

	// Issuer identifies tokens minted by this service
	Issuer = "knowhub-backend"
)

// AccessClaims represents the access token claims
type AccessClaims struct {
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Department string   `json:"department,omitempty"`
	Roles      []string `json:"roles"`
	jwt.RegisteredClaims
}

// RefreshClaims represents the refresh token claims (subject only)
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// IssueAccess generates an access token for a verified identity. The
// subject is the username; the TTL is fixed at AccessTokenSeconds.
func IssueAccess(username, fullName, email, department string, roles []string, secret string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		FullName:   fullName,
		Email:      email,
		Department: department,
		Roles:      roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenSeconds * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   username,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// IssueRefresh generates a refresh token carrying only the subject and a
// unique token ID.
func IssueRefresh(username, tokenID, secret string, expiryDays int) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryDays) * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   username,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseAccess validates an access token and returns its claims
func ParseAccess(tokenString, secret string) (*AccessClaims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, keyFunc(secret))
	if err != nil {
		return nil, mapError(err)
	}

	if claims, ok := t.Claims.(*AccessClaims); ok && t.Valid {
		return claims, nil
	}

	return nil, ErrMalformed
}

// ExtractSubject returns the subject of a token. Extraction alone does not
// certify validity against an expected subject; callers pair it with
// Validate.
func ExtractSubject(tokenString, secret string) (string, error) {
	t, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, keyFunc(secret))
	if err != nil {
		return "", mapError(err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok || !t.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}

	return claims.Subject, nil
}

// Validate reports whether a token is structurally valid, correctly signed,
// unexpired, and carries the expected subject. It fails closed: any problem
// yields false, never an error.
func Validate(tokenString, expectedSubject, secret string) bool {
	subject, err := ExtractSubject(tokenString, secret)
	if err != nil {
		return false
	}
	return subject == expectedSubject
}

// keyFunc rejects any signing method other than HMAC before releasing the key
func keyFunc(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignatureInvalid
		}
		return []byte(secret), nil
	}
}

// mapError collapses parser errors into the token error taxonomy
func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}
