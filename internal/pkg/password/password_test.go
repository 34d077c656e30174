package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, Verify("s3cret-password", hash))
	assert.False(t, Verify("wrong-password", hash))
	assert.False(t, Verify("", hash))
}

func TestVerifyRejectsGarbageHash(t *testing.T) {
	assert.False(t, Verify("anything", "not-a-bcrypt-hash"))
}
