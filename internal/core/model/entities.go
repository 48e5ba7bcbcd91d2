package model

import "time"

// RequestStatus is the lifecycle state of a Request.
type RequestStatus string

const (
	StatusPending        RequestStatus = "Pending"
	StatusApproved       RequestStatus = "Approved"
	StatusFinalized      RequestStatus = "Finalized"
	StatusMinionFailure  RequestStatus = "Minion_failure"
)

// InteractMethod is the GNAP finish method negotiated with the client.
type InteractMethod string

const (
	MethodRedirect InteractMethod = "redirect"
	MethodPush     InteractMethod = "push"
)

// InteractStart enumerates the interaction modes a client may request.
type InteractStart string

const (
	StartOIDC4VP    InteractStart = "oidc4vp"
	StartCrossUser  InteractStart = "cross-user"
)

// Request is the participant-facing ceremony state. See spec §3 "Request".
type Request struct {
	ID              string `gorm:"column:id;primaryKey"`
	ParticipantSlug string `gorm:"column:participant_slug"`
	// Cert is base64-encoded DER of the X.509 certificate presented by the
	// requester, when one was supplied.
	Cert      *string       `gorm:"column:cert"`
	VcType    VcType        `gorm:"column:vc_type"`
	Status    RequestStatus `gorm:"column:status"`
	VcURI     *string       `gorm:"column:vc_uri"`
	CreatedAt time.Time     `gorm:"column:created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at"`
}

func (Request) TableName() string { return "request" }

// Interaction is the GNAP state attached to a ceremony. See spec §3
// "Interaction".
type Interaction struct {
	ID               string         `gorm:"column:id;primaryKey"`
	Start            []string       `gorm:"column:start;serializer:json"`
	Method           InteractMethod `gorm:"column:method"`
	URI              string         `gorm:"column:uri"`
	ClientNonce      string         `gorm:"column:client_nonce"`
	HashMethod       string         `gorm:"column:hash_method"`
	ContinueEndpoint string         `gorm:"column:continue_endpoint"`
	ContinueToken    string         `gorm:"column:continue_token"`
	ContinueID       string         `gorm:"column:continue_id"`
	AsNonce          string         `gorm:"column:as_nonce"`
	InteractRef      string         `gorm:"column:interact_ref"`
	Hash             string         `gorm:"column:hash"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
}

func (Interaction) TableName() string { return "interaction" }

// ContainsStart reports whether mode is among the client's declared start
// modes.
func (i *Interaction) ContainsStart(mode InteractStart) bool {
	for _, s := range i.Start {
		if s == string(mode) {
			return true
		}
	}
	return false
}

// Verification is the OIDC4VP state attached to a ceremony. See spec §3
// "Verification". Only created on the oidc4vp branch.
type Verification struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Audience  string    `gorm:"column:audience"`
	VcType    VcType    `gorm:"column:vc_type"`
	State     string    `gorm:"column:state"`
	Nonce     string    `gorm:"column:nonce"`
	Holder    *string   `gorm:"column:holder"`
	Vpt       *string   `gorm:"column:vpt"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Verification) TableName() string { return "verification" }

// Issuing is the OIDC4VCI state attached to a ceremony. See spec §3
// "Issuing".
type Issuing struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	VcType       VcType    `gorm:"column:vc_type"`
	URI          string    `gorm:"column:uri"`
	Aud          string    `gorm:"column:aud"`
	TxCode       string    `gorm:"column:tx_code"`
	PreAuthCode  string    `gorm:"column:pre_auth_code"`
	Token        string    `gorm:"column:token"`
	Did          *string   `gorm:"column:did"`
	CredentialID string    `gorm:"column:credential_id"`
	Credential   *string   `gorm:"column:credential"`
	Step         bool      `gorm:"column:step"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (Issuing) TableName() string { return "issuing" }

// Minion is the long-term participant identity persisted once a ceremony
// issues a credential. Keyed by holder DID (ParticipantID). See spec §3
// "Minion".
type Minion struct {
	ParticipantID   string    `gorm:"column:participant_id;primaryKey"`
	ParticipantSlug string    `gorm:"column:participant_slug"`
	ParticipantType string    `gorm:"column:participant_type"`
	BaseURL         *string   `gorm:"column:base_url"`
	VcURI           *string   `gorm:"column:vc_uri"`
	LastInteraction time.Time `gorm:"column:last_interaction"`
	IsVCIssued      bool      `gorm:"column:is_vc_issued"`
	IsMe            bool      `gorm:"column:is_me"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (Minion) TableName() string { return "minions" }
