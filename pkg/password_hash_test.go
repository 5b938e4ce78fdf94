package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	passwordHash, err := HashPassword("sr")
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.True(t, CheckPasswordHash("sr", "$2a$14$z8cd4yJpzP40Qh2F2BhiMO.sOm4YAIaf30pmUKLOaISojD9HnXgaG"))
	assert.True(t, CheckPasswordHash("sr", passwordHash))
	assert.False(t, CheckPasswordHash("rs", passwordHash))
}

func TestHashPasswordWithCost(t *testing.T) {
	passwordHash, err := HashPasswordWithCost("run-secret", bcrypt.MinCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(passwordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.True(t, CheckPasswordHash("run-secret", passwordHash))
	assert.False(t, CheckPasswordHash("", passwordHash))
	assert.False(t, CheckPasswordHash("run-secret", ""))
}
