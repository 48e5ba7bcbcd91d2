package model

import "testing"

func TestNewOpaqueTokenUniqueAndLength(t *testing.T) {
	a, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatalf("expected two distinct opaque tokens, got %q twice", a)
	}
	if len(a) != 43 {
		t.Fatalf("expected a 43-character token (32 bytes, unpadded base64), got %d", len(a))
	}
}

func TestRewriteLocalhost(t *testing.T) {
	in := "http://127.0.0.1:1500/verifier/verify/abc"

	if got := RewriteLocalhost(in, false); got != in {
		t.Fatalf("expected no rewrite when isLocal=false, got %q", got)
	}

	want := "http://host.docker.internal:1500/verifier/verify/abc"
	if got := RewriteLocalhost(in, true); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplitDID(t *testing.T) {
	base, frag := SplitDID("did:jwk:abc123#key-1")
	if base != "did:jwk:abc123" || frag != "key-1" {
		t.Fatalf("got base=%q frag=%q", base, frag)
	}

	base, frag = SplitDID("did:jwk:abc123")
	if base != "did:jwk:abc123" || frag != "" {
		t.Fatalf("got base=%q frag=%q", base, frag)
	}
}

func TestParseVcType(t *testing.T) {
	if _, err := ParseVcType("NotARealType"); err == nil {
		t.Fatal("expected error for unknown vc_type")
	}
	vt, err := ParseVcType("IdentityCredential")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vt != VcIdentity {
		t.Fatalf("got %v, want VcIdentity", vt)
	}
}
