package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/five82/harmonic/internal/model"
)

const (
	demoIssuer   = "harmonic-demo"
	demoTokenTTL = time.Hour
	// DemoUserID is the fixed id demo users are shown with.
	DemoUserID int64 = -1
)

// demoSecret signs local demo tokens, used when the backend has no demo
// endpoint. Nothing verifies them against the backend;
// the signature only lets the client recognise its own tokens.
var demoSecret = []byte("harmonic-demo-session")

type demoClaims struct {
	Demo     bool   `json:"demo"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// NewDemoSession mints a demo session without contacting the backend.
func NewDemoSession(now time.Time) (model.AuthResult, error) {
	subject := uuid.NewString()
	user := model.User{
		ID:       DemoUserID,
		Username: "demo-" + subject[:8],
		Email:    "demo@example.com",
		IsDemo:   true,
	}
	access, err := mintDemoToken(subject, user.Username, "access", now, demoTokenTTL)
	if err != nil {
		return model.AuthResult{}, err
	}
	refresh, err := mintDemoToken(subject, user.Username, "refresh", now, 24*demoTokenTTL)
	if err != nil {
		return model.AuthResult{}, err
	}
	return model.AuthResult{Token: access, RefreshToken: refresh, User: user}, nil
}

// RefreshDemoSession mints a new access token for the subject of a demo
// refresh token.
func RefreshDemoSession(refreshToken string, now time.Time) (string, error) {
	claims, err := parseDemoClaims(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Kind != "refresh" {
		return "", fmt.Errorf("refresh demo session: not a refresh token")
	}
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
		return "", fmt.Errorf("refresh demo session: refresh token expired")
	}
	return mintDemoToken(claims.Subject, claims.Username, "access", now, demoTokenTTL)
}

func mintDemoToken(subject, username, kind string, now time.Time, ttl time.Duration) (string, error) {
	claims := demoClaims{
		Demo:     true,
		Username: username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    demoIssuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(demoSecret)
	if err != nil {
		return "", fmt.Errorf("sign demo token: %w", err)
	}
	return signed, nil
}

func parseDemoClaims(token string) (*demoClaims, error) {
	claims := &demoClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return demoSecret, nil
	}, jwt.WithoutClaimsValidation(), jwt.WithIssuer(demoIssuer))
	if err != nil {
		return nil, fmt.Errorf("parse demo token: %w", err)
	}
	if !parsed.Valid || !claims.Demo {
		return nil, fmt.Errorf("parse demo token: invalid token")
	}
	return claims, nil
}

// IsDemoToken reports whether token was minted by NewDemoSession.
func IsDemoToken(token string) bool {
	_, err := parseDemoClaims(token)
	return err == nil
}

// TokenExpiry returns the exp claim of a JWT without verifying its
// signature. ok is false for opaque or malformed tokens.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiresWithin reports whether token is a JWT expiring within d of now.
func ExpiresWithin(token string, now time.Time, d time.Duration) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return exp.Sub(now) <= d
}
