package token

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

// ResolvedDID is a did:jwk identifier split into its addressable parts.
type ResolvedDID struct {
	// Base is the DID without any "#fragment" key id, e.g. "did:jwk:<b64url>".
	Base string
	// Fragment is the optional verification-method id after "#", empty if absent.
	Fragment string
	// Key is the decoded public key material.
	Key crypto.PublicKey
}

const didJwkPrefix = "did:jwk:"

// ResolveDIDJwk splits a did:jwk identifier into base DID and optional key
// id, URL-safe-base64-decodes the embedded JWK, and returns the public key
// it encodes (spec §4.1 "Validate a JWT by... ").
func ResolveDIDJwk(did string) (*ResolvedDID, error) {
	if !strings.HasPrefix(did, didJwkPrefix) {
		return nil, FormatErr(did, errors.New("not a did:jwk identifier"))
	}

	rest := strings.TrimPrefix(did, didJwkPrefix)
	base := did
	fragment := ""
	if idx := strings.Index(rest, "#"); idx >= 0 {
		fragment = rest[idx+1:]
		rest = rest[:idx]
		base = didJwkPrefix + rest
	}

	raw, err := base64.RawURLEncoding.DecodeString(rest)
	if err != nil {
		// Some producers pad the encoding; fall back before failing.
		raw, err = base64.URLEncoding.DecodeString(rest)
		if err != nil {
			return nil, FormatErr(did, err)
		}
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, FormatErr(did, err)
	}
	if !jwk.Valid() {
		return nil, FormatErr(did, errors.New("did:jwk JWK failed validation"))
	}

	return &ResolvedDID{Base: base, Fragment: fragment, Key: jwk.Key}, nil
}

// FormatErr builds a descriptive security error around a did:jwk
// resolution failure.
func FormatErr(did string, err error) error {
	return model.WrapError(model.KindSecurity, fmt.Sprintf("failed to resolve %s", did), err)
}
