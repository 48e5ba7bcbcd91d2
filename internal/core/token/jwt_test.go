package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	assert.NoError(t, IsActive(0), "absent iat is accepted")
	assert.NoError(t, IsActive(time.Now().Add(-time.Minute).Unix()))
	assert.Error(t, IsActive(time.Now().Add(time.Hour).Unix()))
}

func TestHasExpired(t *testing.T) {
	assert.NoError(t, HasExpired(0), "absent exp is accepted")
	assert.NoError(t, HasExpired(time.Now().Add(time.Hour).Unix()))
	assert.Error(t, HasExpired(time.Now().Add(-time.Minute).Unix()))
}

func TestCheckValidFrom(t *testing.T) {
	assert.NoError(t, CheckValidFrom(""))
	assert.NoError(t, CheckValidFrom(time.Now().Add(-time.Hour).Format(time.RFC3339)))
	assert.Error(t, CheckValidFrom(time.Now().Add(time.Hour).Format(time.RFC3339)))
	assert.Error(t, CheckValidFrom("not-a-date"))
}

func TestCheckValidUntil(t *testing.T) {
	assert.NoError(t, CheckValidUntil(""))
	assert.NoError(t, CheckValidUntil(time.Now().Add(time.Hour).Format(time.RFC3339)))
	assert.Error(t, CheckValidUntil(time.Now().Add(-time.Second).Format(time.RFC3339)), "an already-expired validUntil must fail")
}

func TestDecodeKid(t *testing.T) {
	assert.Equal(t, "did:jwk:abc123", DecodeKid("did:jwk:abc123#key-1"))
	assert.Equal(t, "did:jwk:abc123", DecodeKid("did:jwk:abc123"))
}
