package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SubjectType discriminates what kind of principal a token was minted for so
// a user token can never be replayed against an admin surface.
type SubjectType string

const (
	SubjectUser  SubjectType = "user"
	SubjectAdmin SubjectType = "admin"
)

// signingKeyID is embedded in the token header so a multi-key verify path can
// be added later without changing the claims shape.
const signingKeyID = "v1"

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// Claims is the fixed session token payload.
type Claims struct {
	AppID       uuid.UUID   `json:"tid"`
	SubjectID   uuid.UUID   `json:"sub_id"`
	SubjectType SubjectType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates HS256 session tokens.
type TokenIssuer struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret string, userTTL, adminTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
		now:      time.Now,
	}
}

// Issue returns a signed token and its expiry as unix seconds.
func (ti *TokenIssuer) Issue(appID, subjectID uuid.UUID, subjectType SubjectType) (string, int64, error) {
	now := ti.now()

	ttl := ti.userTTL
	if subjectType == SubjectAdmin {
		ttl = ti.adminTTL
	}
	expiresAt := now.Add(ttl)

	claims := Claims{
		AppID:       appID,
		SubjectID:   subjectID,
		SubjectType: subjectType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = signingKeyID

	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", 0, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt.Unix(), nil
}

// Validate parses and verifies a token, returning its claims.
func (ti *TokenIssuer) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return ti.now() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.SubjectType != SubjectUser && claims.SubjectType != SubjectAdmin {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
