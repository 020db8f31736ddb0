package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT access token along with its
// expiry.  Access tokens gate the operator admin API and are carried in
// the Authorization header; customer self-service uses opaque session
// cookies instead and never touches JWTs.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for an operator.  The JWT
// carries the standard subject (sub), expiration (exp) and issued-at
// (iat) claims plus the operator's email for display.
func NewAccessToken(secret string, operatorID uint64, email string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   operatorID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
