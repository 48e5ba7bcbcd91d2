package issuer

// VCIssuer identifies the authority inside a minted VC.
type VCIssuer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VerifiableCredential is the nested "vc" claim of a signed VC JWT (spec
// §4.4 "Build the VC claims"). CredentialSubject keeps the original
// source's exact casing, which internal/core/verifier's validation
// pipeline depends on.
type VerifiableCredential struct {
	Context           []string    `json:"@context"`
	Type              []string    `json:"type"`
	ID                string      `json:"id"`
	CredentialSubject interface{} `json:"CredentialSubject"`
	Issuer            VCIssuer    `json:"issuer"`
	ValidFrom         string      `json:"validFrom"`
	ValidUntil        string      `json:"validUntil"`
}

// CredentialSubject4DataSpace is the DataspaceParticipantCredential
// subject shape.
type CredentialSubject4DataSpace struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DataspaceID string `json:"DataspaceId"`
	LegalName   string `json:"LegalName"`
}

// NewCredentialSubject4DataSpace builds the DataspaceParticipantCredential
// subject for holder id.
func NewCredentialSubject4DataSpace(id, legalName string) CredentialSubject4DataSpace {
	return CredentialSubject4DataSpace{
		ID:          id,
		Type:        "DataspaceParticipant",
		DataspaceID: "RainbowDataSpace",
		LegalName:   legalName,
	}
}

// CredentialSubject4Identity is the IdentityCredential subject shape.
type CredentialSubject4Identity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	LegalName string `json:"LegalName"`
}

// NewCredentialSubject4Identity builds the IdentityCredential subject for
// holder id.
func NewCredentialSubject4Identity(id, legalName string) CredentialSubject4Identity {
	return CredentialSubject4Identity{ID: id, Type: "IdentityCredential", LegalName: legalName}
}
