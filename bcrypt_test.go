package pathwise_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pathwise "github.com/pathwise-edu/pathwise"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := pathwise.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = pathwise.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := pathwise.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "not-a-bcrypt-hash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pathwise.ComparePasswordAndHash(tt.password, tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	password := "samePassword"

	first, err := pathwise.HashPassword(password)
	assert.NoError(t, err)

	second, err := pathwise.HashPassword(password)
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestRandomPasswordHash(t *testing.T) {
	hash := pathwise.RandomPasswordHash()
	assert.NotEmpty(t, hash)

	// Nothing should compare successfully against a random hash.
	assert.Error(t, pathwise.ComparePasswordAndHash("", hash))
	assert.Error(t, pathwise.ComparePasswordAndHash("guess", hash))
}
