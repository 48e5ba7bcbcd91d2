package model

// VcType identifies which credential profile a ceremony was started for.
type VcType string

const (
	// VcDataspaceParticipant is the DataspaceParticipantCredential profile.
	VcDataspaceParticipant VcType = "DataspaceParticipantCredential"
	// VcIdentity is the IdentityCredential profile.
	VcIdentity VcType = "IdentityCredential"
)

// ParseVcType validates a raw access_token.access.type string against the
// known credential profiles.
func ParseVcType(raw string) (VcType, error) {
	switch VcType(raw) {
	case VcDataspaceParticipant:
		return VcDataspaceParticipant, nil
	case VcIdentity:
		return VcIdentity, nil
	default:
		return "", NewError(KindBadFormat, "unknown vc_type: "+raw)
	}
}

// String implements fmt.Stringer.
func (t VcType) String() string {
	return string(t)
}
