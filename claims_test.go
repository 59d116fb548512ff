package tube_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-tube"
	"github.com/stretchr/testify/assert"
)

func TestAccessClaimsUserID(t *testing.T) {
	t.Run("prefers uid", func(t *testing.T) {
		claims := &tube.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
			UID:              "uid-id",
		}
		assert.Equal(t, "uid-id", claims.UserID())
	})

	t.Run("falls back to subject", func(t *testing.T) {
		claims := &tube.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
		}
		assert.Equal(t, "subject-id", claims.UserID())
	})
}

func TestRefreshClaimsUserID(t *testing.T) {
	claims := &tube.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
	}
	assert.Equal(t, "subject-id", claims.UserID())

	claims.UID = "uid-id"
	assert.Equal(t, "uid-id", claims.UserID())
}

func TestClaimsTimesDefaultToZero(t *testing.T) {
	access := &tube.AccessClaims{}
	assert.True(t, access.Expires().IsZero())
	assert.True(t, access.IssuedAt().IsZero())

	refresh := &tube.RefreshClaims{}
	assert.True(t, refresh.Expires().IsZero())
}

func TestClaimsTimesRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	access := &tube.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	assert.Equal(t, now, access.IssuedAt())
	assert.Equal(t, now.Add(time.Hour), access.Expires())
}
