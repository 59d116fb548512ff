package tube_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-tube"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testUser() *tube.User {
	return &tube.User{
		ID:           uuid.New(),
		Username:     "pepe",
		Email:        "pepe@example.com",
		FullName:     "Pepe Rone",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}
}

func TestTokenServiceIssueAccessToken(t *testing.T) {
	cfg := newTestConfig()
	ts := tube.NewTokenService(cfg, quietLogger{})

	user := testUser()

	raw, err := ts.IssueAccessToken(tube.NewIdentityFromUser(user))
	assert.NoError(t, err)
	assert.NotEmpty(t, raw)

	claims, err := ts.ValidateAccessToken(raw)
	assert.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.FullName, claims.DisplayName)
	assert.Equal(t, cfg.issuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings(cfg.audience), claims.Audience)

	assert.False(t, claims.IssuedAt().IsZero())
	assert.WithinDuration(t, time.Now(), claims.IssuedAt(), 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(cfg.accessTTL), claims.Expires(), 5*time.Second)
}

func TestTokenServiceIssueRefreshToken(t *testing.T) {
	cfg := newTestConfig()
	ts := tube.NewTokenService(cfg, quietLogger{})

	userID := uuid.New().String()

	raw, err := ts.IssueRefreshToken(userID)
	assert.NoError(t, err)
	assert.NotEmpty(t, raw)

	claims, err := ts.ValidateRefreshToken(raw)
	assert.NoError(t, err)

	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, userID, claims.Subject)
	assert.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, time.Now().Add(cfg.refreshTTL), claims.Expires(), 5*time.Second)
}

func TestTokenServiceMissingSecret(t *testing.T) {
	cfg := newTestConfig()
	cfg.accessSecret = ""
	cfg.refreshSecret = ""
	ts := tube.NewTokenService(cfg, quietLogger{})

	_, err := ts.IssueAccessToken(tube.NewIdentityFromUser(testUser()))
	assert.ErrorIs(t, err, tube.ErrMissingSigningSecret)

	_, err = ts.IssueRefreshToken(uuid.New().String())
	assert.ErrorIs(t, err, tube.ErrMissingSigningSecret)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	cfg := newTestConfig()
	cfg.accessTTL = -time.Minute
	cfg.refreshTTL = -time.Minute
	ts := tube.NewTokenService(cfg, quietLogger{})

	access, err := ts.IssueAccessToken(tube.NewIdentityFromUser(testUser()))
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(access)
	assert.ErrorIs(t, err, tube.ErrTokenExpired)
	assert.True(t, tube.IsTokenExpiredError(err))
	assert.False(t, tube.IsMalformedError(err))

	refresh, err := ts.IssueRefreshToken(uuid.New().String())
	assert.NoError(t, err)

	_, err = ts.ValidateRefreshToken(refresh)
	assert.ErrorIs(t, err, tube.ErrTokenExpired)
}

func TestTokenServiceMalformedToken(t *testing.T) {
	ts := tube.NewTokenService(newTestConfig(), quietLogger{})

	tests := []struct {
		name string
		raw  string
	}{
		{name: "garbage", raw: "not.a.jwt"},
		{name: "empty segments", raw: ".."},
		{name: "random string", raw: "deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.ValidateAccessToken(tt.raw)
			assert.Error(t, err)
			assert.True(t, tube.IsMalformedError(err))
			assert.False(t, tube.IsTokenExpiredError(err))
		})
	}
}

func TestTokenServiceWrongSigningKey(t *testing.T) {
	cfg := newTestConfig()
	ts := tube.NewTokenService(cfg, quietLogger{})

	other := newTestConfig()
	other.accessSecret = "a-completely-different-secret"
	impostor := tube.NewTokenService(other, quietLogger{})

	raw, err := impostor.IssueAccessToken(tube.NewIdentityFromUser(testUser()))
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(raw)
	assert.Error(t, err)
	assert.True(t, tube.IsMalformedError(err))
}

func TestTokenServiceSecretsAreNotInterchangeable(t *testing.T) {
	ts := tube.NewTokenService(newTestConfig(), quietLogger{})

	access, err := ts.IssueAccessToken(tube.NewIdentityFromUser(testUser()))
	assert.NoError(t, err)

	refresh, err := ts.IssueRefreshToken(uuid.New().String())
	assert.NoError(t, err)

	_, err = ts.ValidateRefreshToken(access)
	assert.Error(t, err, "access token must not verify against the refresh secret")

	_, err = ts.ValidateAccessToken(refresh)
	assert.Error(t, err, "refresh token must not verify against the access secret")
}

func TestTokenServiceRejectsUnsignedToken(t *testing.T) {
	cfg := newTestConfig()
	ts := tube.NewTokenService(cfg, quietLogger{})

	claims := jwt.RegisteredClaims{
		Issuer:    cfg.issuer,
		Subject:   uuid.New().String(),
		Audience:  jwt.ClaimStrings(cfg.audience),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(raw)
	assert.Error(t, err)
	assert.True(t, tube.IsMalformedError(err))
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	cfg := newTestConfig()
	ts := tube.NewTokenService(cfg, quietLogger{})

	other := newTestConfig()
	other.issuer = "someone-else"
	impostor := tube.NewTokenService(other, quietLogger{})

	raw, err := impostor.IssueAccessToken(tube.NewIdentityFromUser(testUser()))
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(raw)
	assert.Error(t, err)
}
