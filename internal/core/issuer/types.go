// Package issuer implements the OIDC4VCI pre-authorized-code flow (spec
// §4.4): credential offer, token exchange, proof-of-possession check, and
// VC signing.
package issuer

import "github.com/rainbow-dataspace/authority/internal/core/model"

// Grant is the pre-authorized_code grant block of a CredentialOffer.
type Grant struct {
	PreAuthorizedCode string `json:"pre-authorized_code"`
	TxCode            *struct {
		InputMode   string `json:"input_mode"`
		Description string `json:"description"`
	} `json:"tx_code,omitempty"`
}

// Grants wraps the pre-authorized_code grant type key.
type Grants struct {
	PreAuthorizedCode Grant `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code"`
}

// VCCredOffer is the credential offer document returned from
// GET /issuer/credentialOffer?id=<id>.
type VCCredOffer struct {
	CredentialIssuer           string   `json:"credential_issuer"`
	CredentialConfigurationIDs []string `json:"credential_configuration_ids"`
	Grants                     Grants   `json:"grants"`
}

// NewVCCredOffer builds a VCCredOffer carrying code as the
// pre-authorized_code (spec §4.4: code is tx_code on first fetch,
// pre_auth_code thereafter).
func NewVCCredOffer(issuer, code string, vcType model.VcType) VCCredOffer {
	return VCCredOffer{
		CredentialIssuer:           issuer,
		CredentialConfigurationIDs: []string{string(vcType) + "_jwt_vc_json"},
		Grants:                     Grants{PreAuthorizedCode: Grant{PreAuthorizedCode: code}},
	}
}

// CredentialDefinition names the VC types a CredentialConfiguration issues.
type CredentialDefinition struct {
	Type []string `json:"type"`
}

// CredentialConfiguration describes one issuable credential shape.
type CredentialConfiguration struct {
	Format                              string                `json:"format"`
	CryptographicBindingMethodsSupported []string              `json:"cryptographic_binding_methods_supported"`
	CredentialSigningAlgValuesSupported  []string              `json:"credential_signing_alg_values_supported"`
	CredentialDefinition                 CredentialDefinition  `json:"credential_definition"`
}

// BasicCredentialConfigurations returns the two credential configurations
// this authority supports (spec §1: the two credential profiles).
func BasicCredentialConfigurations() map[string]CredentialConfiguration {
	mk := func(vcType string) CredentialConfiguration {
		return CredentialConfiguration{
			Format:                                "jwt_vc_json",
			CryptographicBindingMethodsSupported: []string{"did"},
			CredentialSigningAlgValuesSupported:  []string{"RSA"},
			CredentialDefinition:                  CredentialDefinition{Type: []string{"VerifiableCredential", vcType}},
		}
	}
	return map[string]CredentialConfiguration{
		"DataspaceParticipantCredential_jwt_vc_json": mk("DataspaceParticipantCredential"),
		"IdentityCredential_jwt_vc_json":              mk("IdentityCredential"),
	}
}

// IssuerMetadata is served at GET /issuer/.well-known/openid-credential-issuer.
type IssuerMetadata struct {
	CredentialIssuer                 string                              `json:"credential_issuer"`
	CredentialEndpoint               string                              `json:"credential_endpoint"`
	CredentialConfigurationsSupported map[string]CredentialConfiguration `json:"credential_configurations_supported"`
}

// NewIssuerMetadata builds the issuer metadata document for host (the
// issuer's absolute base URL).
func NewIssuerMetadata(host string) IssuerMetadata {
	return IssuerMetadata{
		CredentialIssuer:                  host,
		CredentialEndpoint:                host + "/credential",
		CredentialConfigurationsSupported: BasicCredentialConfigurations(),
	}
}

// AuthServerMetadata is served at
// GET /issuer/.well-known/oauth-authorization-server.
type AuthServerMetadata struct {
	Issuer                        string   `json:"issuer"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	PreAuthorizedGrantAnonymousAccessSupported bool `json:"pre-authorized_grant_anonymous_access_supported"`
}

// NewAuthServerMetadata builds the OAuth authorization server metadata
// document for host.
func NewAuthServerMetadata(host string) AuthServerMetadata {
	return AuthServerMetadata{
		Issuer:                        host,
		TokenEndpoint:                 host + "/token",
		GrantTypesSupported:           []string{"urn:ietf:params:oauth:grant-type:pre-authorized_code"},
		PreAuthorizedGrantAnonymousAccessSupported: true,
	}
}

// TokenRequest is the form-encoded body of POST /issuer/token.
type TokenRequest struct {
	TxCode            string `form:"tx_code" json:"tx_code"`
	PreAuthorizedCode string `form:"pre_authorized_code" json:"pre_authorized_code"`
}

// IssuingToken is the response to POST /issuer/token.
type IssuingToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NewIssuingToken wraps a bearer token.
func NewIssuingToken(accessToken string) IssuingToken {
	return IssuingToken{AccessToken: accessToken, TokenType: "Bearer"}
}

// Proof is the proof-of-possession block of a CredentialRequest.
type Proof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt"`
}

// CredentialRequest is the body of POST /issuer/credential.
type CredentialRequest struct {
	Format string `json:"format"`
	Proof  Proof  `json:"proof"`
}

// GiveVC is the response to POST /issuer/credential.
type GiveVC struct {
	Format     string `json:"format"`
	Credential string `json:"credential"`
}

// DidPossessionClaims is the proof JWT's claim set (spec §4.4: "iss == sub
// and sub == kid asserted").
type DidPossessionClaims struct {
	Iss string `json:"iss"`
	Sub string `json:"sub"`
	Aud string `json:"aud"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

// WellKnownJwks is the JWKS document served at GET /issuer/jwks — it is
// simply the wallet gateway's published key set republished verbatim.
type WellKnownJwks = []byte
