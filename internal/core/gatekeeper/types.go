// Package gatekeeper implements the GNAP half of the ceremony engine (spec
// §4.2): validating grant requests, minting continuation state, and
// dispatching the operator/client callbacks that end a ceremony.
package gatekeeper

// Key is the client's embedded proof-of-possession key.
type Key struct {
	// Cert is base64-encoded DER of an X.509 certificate, when the client
	// authenticates with one.
	Cert *string `json:"cert,omitempty"`
}

// Client describes the GNAP client instance making the grant request.
type Client struct {
	Key     Key     `json:"key"`
	ClassID *string `json:"class_id,omitempty"`
}

// Access describes the access being requested — here, always a VC type.
type Access struct {
	Type string `json:"type"`
}

// AccessToken is the requested access token descriptor.
type AccessToken struct {
	Access Access `json:"access"`
}

// Finish is how the client wants to be notified once interaction ends.
type Finish struct {
	Method     string  `json:"method"`
	URI        *string `json:"uri"`
	Nonce      string  `json:"nonce"`
	HashMethod string  `json:"hash_method"`
}

// Interact is the GNAP interaction block of a grant request.
type Interact struct {
	Start  []string `json:"start"`
	Finish Finish   `json:"finish"`
	Hints  string   `json:"hints,omitempty"`
}

// GrantRequest is the inbound GNAP grant request (POST /gate/access).
type GrantRequest struct {
	Client      Client       `json:"client"`
	AccessToken AccessToken  `json:"access_token"`
	Interact    *Interact    `json:"interact,omitempty"`
}

// RefBody is the continuation request body (POST /gate/continue/{cont_id}).
type RefBody struct {
	InteractRef string `json:"interact_ref"`
}

// InteractResponse is the interact block of a GrantResponse.
type InteractResponse struct {
	UserCodeURI *string `json:"user_code_uri,omitempty"`
	Finish      string  `json:"finish,omitempty"`
}

// ContinueResponse is the continue block of a GrantResponse.
type ContinueResponse struct {
	URI         string `json:"uri"`
	AccessToken string `json:"access_token"`
}

// GrantResponse is the response to a GNAP grant request. Exactly one of
// the two shapes applies depending on which interaction mode the ceremony
// took (spec §4.2 "Ceremony branching").
type GrantResponse struct {
	Interact InteractResponse `json:"interact"`
	Continue ContinueResponse `json:"continue"`
	ASNonce  string           `json:"as_nonce"`
}

// Default4OIDC4VP builds the GrantResponse for the oidc4vp branch: the
// client is handed the OIDC4VP authorization URI as its user_code_uri.
func Default4OIDC4VP(id, continueEndpoint, continueToken, asNonce, verificationURI string) GrantResponse {
	return GrantResponse{
		Interact: InteractResponse{UserCodeURI: &verificationURI},
		Continue: ContinueResponse{URI: continueEndpoint, AccessToken: continueToken},
		ASNonce:  asNonce,
	}
}

// Default4CrossUser builds the GrantResponse for the cross-user branch: no
// OIDC4VP URI, the ceremony awaits an out-of-band operator decision.
func Default4CrossUser(id, continueEndpoint, continueToken, asNonce string) GrantResponse {
	return GrantResponse{
		Continue: ContinueResponse{URI: continueEndpoint, AccessToken: continueToken},
		ASNonce:  asNonce,
	}
}

// CallbackBody is POSTed to the client's push/operator endpoint on a
// successful approval or verification.
type CallbackBody struct {
	InteractRef string `json:"interact_ref"`
	Hash        string `json:"hash"`
}

// RejectedCallbackBody is POSTed when an operator denies a request.
type RejectedCallbackBody struct {
	Rejected string `json:"rejected"`
}

// VcDecisionApproval is the operator's approve/deny decision body (POST
// /vc-request/{id}).
type VcDecisionApproval struct {
	Approve bool `json:"approve"`
}
