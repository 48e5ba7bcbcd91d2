// Package token implements the ceremony engine's token primitives (spec
// §4.1): JWT encode/decode, did:jwk resolution, signature validation and
// time-window checks. It is deliberately the only package in the core that
// parses, verifies or signs JWTs, or decodes JWKs, through the
// golang-jwt/go-jose libraries; other core packages use golang-jwt only for
// its jwt.MapClaims type.
package token

import (
	"crypto/rsa"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/pkg/jose"
)

// ValidateResult is what a successful JWT validation yields to its caller.
type ValidateResult struct {
	Claims  jwt.MapClaims
	BaseDID string
	KeyID   string
}

// ValidateJWT decodes a JWT whose kid is a did:jwk identifier, resolves the
// signing key from that identifier, and verifies the signature. Default
// required-claims and expiry enforcement are disabled — VC and ceremony
// callers apply their own validFrom/validUntil and iat/exp windows via
// IsActive/HasExpired — but nbf is always enforced, and audience is checked
// only when expectedAudience is non-nil.
func ValidateJWT(tokenString string, expectedAudience *string) (*ValidateResult, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, model.WrapError(model.KindSecurity, "malformed JWT", err)
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, model.NewError(model.KindSecurity, "JWT header has no kid")
	}

	resolved, err := ResolveDIDJwk(kid)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return resolved.Key, nil
	})
	if err != nil || !token.Valid {
		return nil, model.WrapError(model.KindSecurity, "JWT signature verification failed", err)
	}

	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil {
		if time.Now().Before(nbf.Time) {
			return nil, model.NewError(model.KindSecurity, "JWT not yet valid (nbf)")
		}
	}

	if expectedAudience != nil {
		aud, _ := claims.GetAudience()
		if !containsString(aud, *expectedAudience) {
			return nil, model.NewErrorDetail(model.KindSecurity, "JWT audience mismatch", *expectedAudience)
		}
	}

	return &ValidateResult{Claims: claims, BaseDID: resolved.Base, KeyID: kid}, nil
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// SignJWT signs claims with RS256 under the given private key, placing
// issuerDID in the kid header field (spec §4.1 "Sign a JWT with RS256...").
// The token is assembled and signed through jose.MakeJWT.
func SignJWT(claims jwt.MapClaims, key *rsa.PrivateKey, issuerDID string) (string, error) {
	header := jwt.MapClaims{"kid": issuerDID}
	signed, err := jose.MakeJWT(header, claims, jwt.SigningMethodRS256, key)
	if err != nil {
		return "", model.WrapError(model.KindRead, "failed to sign JWT", err)
	}
	return signed, nil
}

// IsActive requires now >= iat (spec §4.1). iat of zero is treated as absent
// and passes, matching the "absent bounds are accepted" rule used for VC
// validFrom/validUntil.
func IsActive(iat int64) error {
	if iat == 0 {
		return nil
	}
	if time.Now().Unix() < iat {
		return model.NewError(model.KindForbidden, "token is not yet active (iat in the future)")
	}
	return nil
}

// HasExpired requires now <= exp (spec §4.1).
func HasExpired(exp int64) error {
	if exp == 0 {
		return nil
	}
	if time.Now().Unix() > exp {
		return model.NewError(model.KindForbidden, "token has expired")
	}
	return nil
}

// CheckValidFrom parses an RFC-3339 valid_from claim and requires it be
// <= now. An empty string is accepted (spec §4.1: "absent bounds are
// accepted").
func CheckValidFrom(validFrom string) error {
	if validFrom == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, validFrom)
	if err != nil {
		return model.WrapError(model.KindBadFormat, "validFrom is not RFC-3339", err)
	}
	if t.After(time.Now()) {
		return model.NewError(model.KindSecurity, "credential is not yet valid (validFrom in the future)")
	}
	return nil
}

// CheckValidUntil parses an RFC-3339 valid_until claim and requires it be
// >= now.
func CheckValidUntil(validUntil string) error {
	if validUntil == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, validUntil)
	if err != nil {
		return model.WrapError(model.KindBadFormat, "validUntil is not RFC-3339", err)
	}
	if t.Before(time.Now()) {
		return model.NewError(model.KindSecurity, "credential has expired (validUntil in the past)")
	}
	return nil
}

// DecodeKid extracts the DID portion (without fragment) of a string like
// "did:jwk:<...>#<fragment>".
func DecodeKid(kid string) string {
	if idx := strings.Index(kid, "#"); idx >= 0 {
		return kid[:idx]
	}
	return kid
}
