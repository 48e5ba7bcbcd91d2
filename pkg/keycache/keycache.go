// Package keycache caches the authority's signing key in memory so the
// issuer does not re-read and re-parse PEM material from disk on every
// issuance call (spec §5 "Shared resources": "implementers SHOULD cache
// it; cache invalidation is not required").
package keycache

import (
	"crypto/rsa"
	"os"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

const keyEntry = "signing_key"

// Cache holds at most one RSA private key, loaded lazily from a PEM file on
// first use and retained for the process lifetime (no expiration, no
// invalidation, per spec).
type Cache struct {
	path string
	c    *gocache.Cache
}

// New creates a cache that will lazily load the PEM private key at path.
func New(path string) *Cache {
	return &Cache{path: path, c: gocache.New(gocache.NoExpiration, gocache.NoExpiration)}
}

// Get returns the cached key, loading and parsing it from disk on first
// call.
func (c *Cache) Get() (*rsa.PrivateKey, error) {
	if v, ok := c.c.Get(keyEntry); ok {
		return v.(*rsa.PrivateKey), nil
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, model.WrapError(model.KindRead, "could not read signing key file", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, model.WrapError(model.KindRead, "could not parse RSA signing key", err)
	}

	c.c.Set(keyEntry, key, gocache.NoExpiration)
	return key, nil
}
