package auth

import (
	"errors"
	"photo-relay/internal/admission"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "photo-relay"

var ErrInvalidClaims = errors.New("upload token carries no session")

// UploadClaims is what a phone proves after validating a pairing code: it may
// upload into SessionID until the token expires.
type UploadClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	Code      string    `json:"code"`
	jwt.RegisteredClaims
}

func (c *UploadClaims) Ref() admission.SessionRef {
	return admission.SessionRef{SessionID: c.SessionID, Code: c.Code}
}

func GenerateUploadToken(ref admission.SessionRef, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &UploadClaims{
		SessionID: ref.SessionID,
		Code:      ref.Code,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ref.SessionID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func VerifyUploadToken(tokenString, secret string) (*UploadClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UploadClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UploadClaims); ok && token.Valid {
		if claims.SessionID == uuid.Nil {
			return nil, ErrInvalidClaims
		}
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
