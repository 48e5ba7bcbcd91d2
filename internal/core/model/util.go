package model

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// NewOpaqueToken returns a 32-byte, URL-safe, unpadded base64 opaque token
// (spec §3 "Interaction.continue_token").
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", WrapError(KindRead, "failed to generate opaque token", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TrimToBase cuts a URL down to scheme://host[:port], e.g.
// "http://127.0.0.1:1500/api/v1/gate/continue" -> "http://127.0.0.1:1500".
// Used to derive a Minion's base_url from the interaction's callback uri.
func TrimToBase(input string) string {
	idx, count := -1, 0
	for i, r := range input {
		if r == '/' {
			count++
			if count == 3 {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return input
	}
	return input[:idx]
}

// SplitDID splits "did:jwk:...#fragment" into the base DID and optional
// fragment.
func SplitDID(did string) (base string, fragment string) {
	if i := strings.Index(did, "#"); i >= 0 {
		return did[:i], did[i+1:]
	}
	return did, ""
}

// RewriteLocalhost substitutes 127.0.0.1 with host.docker.internal so
// containerised wallets can reach the authority running on the host (spec
// §9 "Local-mode URL rewriting"). Only applied when running in local mode.
func RewriteLocalhost(url string, isLocal bool) string {
	if !isLocal {
		return url
	}
	return strings.ReplaceAll(url, "127.0.0.1", "host.docker.internal")
}
