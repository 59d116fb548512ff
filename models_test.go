package tube_test

import (
	"encoding/json"
	"testing"

	"github.com/goliatone/go-tube"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserSanitized(t *testing.T) {
	user := &tube.User{
		ID:           uuid.New(),
		Username:     "pepe",
		Email:        "pepe@example.com",
		FullName:     "Pepe Rone",
		PasswordHash: "$2a$12$secret",
		RefreshToken: "stored-refresh-token",
	}

	clean := user.Sanitized()

	assert.Empty(t, clean.PasswordHash)
	assert.Empty(t, clean.RefreshToken)
	assert.Equal(t, user.ID, clean.ID)
	assert.Equal(t, user.Username, clean.Username)

	// the original stays intact
	assert.Equal(t, "$2a$12$secret", user.PasswordHash)
	assert.Equal(t, "stored-refresh-token", user.RefreshToken)

	var nilUser *tube.User
	assert.Nil(t, nilUser.Sanitized())
}

func TestUserSecretsNeverSerialize(t *testing.T) {
	user := &tube.User{
		ID:           uuid.New(),
		Username:     "pepe",
		Email:        "pepe@example.com",
		PasswordHash: "$2a$12$secret",
		RefreshToken: "stored-refresh-token",
	}

	raw, err := json.Marshal(user)
	assert.NoError(t, err)

	assert.NotContains(t, string(raw), "$2a$12$secret")
	assert.NotContains(t, string(raw), "stored-refresh-token")
	assert.NotContains(t, string(raw), "password_hash")
	assert.NotContains(t, string(raw), "refresh_token")
}

func TestUserNormalizeIdentifiers(t *testing.T) {
	user := &tube.User{
		Username: "  PePe ",
		Email:    " Pepe@Example.COM ",
	}

	user.NormalizeIdentifiers()

	assert.Equal(t, "pepe", user.Username)
	assert.Equal(t, "pepe@example.com", user.Email)
}
