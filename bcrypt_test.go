package tube_test

import (
	"testing"

	"github.com/goliatone/go-tube"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "super-secret-1",
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  tube.ErrNoEmptyString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := tube.HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, tube.ComparePasswordAndHash(tt.password, hash))
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := tube.HashPassword("correct horse battery staple")
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "matching password",
			password: "correct horse battery staple",
			hash:     hash,
		},
		{
			name:     "wrong password",
			password: "incorrect horse",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "invalid hash",
			password: "correct horse battery staple",
			hash:     "not-a-bcrypt-digest",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tube.ComparePasswordAndHash(tt.password, tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorContains(t, err, tube.ErrMismatchedHashAndPassword.Message)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	a := tube.RandomPasswordHash()
	b := tube.RandomPasswordHash()

	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}
