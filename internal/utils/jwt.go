package utils // package utils provides helpers for tokens, hashing and slugs

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or
// claim checks. Callers must not distinguish further.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT along with its expiry and unique id.
type AccessToken struct {
	Token string
	Exp   time.Time
	JTI   string
}

// TokenClaims is what a verified token says about its bearer.
type TokenClaims struct {
	UserID uint64
	Role   string
	JTI    string
	Exp    time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims are
// subject (sub), role, expiration (exp), issued at (iat) and a random token
// id (jti) used for revocation.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
		"jti":  jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp, JTI: jti}, nil
}

// ParseAccessToken verifies the signature and expiry of raw and extracts
// its claims.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	uid, err := cast.ToUint64E(claims["sub"])
	if err != nil || uid == 0 {
		return TokenClaims{}, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return TokenClaims{}, ErrInvalidToken
	}
	return TokenClaims{
		UserID: uid,
		Role:   cast.ToString(claims["role"]),
		JTI:    cast.ToString(claims["jti"]),
		Exp:    exp.Time,
	}, nil
}
