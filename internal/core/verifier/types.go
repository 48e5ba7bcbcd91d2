// Package verifier implements the OIDC4VP half of the ceremony engine
// (spec §4.3): building the presentation-exchange artifacts and validating
// the VP token (and the VCs nested inside it) that the wallet returns.
package verifier

import "github.com/rainbow-dataspace/authority/internal/core/model"

// Field is a PEX field constraint selecting a claim by JSON path.
type Field struct {
	Path   []string `json:"path"`
	Filter Filter   `json:"filter"`
}

// Filter constrains a Field's value.
type Filter struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// Constraints is a PEX input descriptor's constraint set.
type Constraints struct {
	Fields []Field `json:"fields"`
}

// InputDescriptor selects one credential type the presentation must supply.
type InputDescriptor struct {
	ID          string      `json:"id"`
	Constraints Constraints `json:"constraints"`
}

// VPDef is the presentation-definition document served at
// GET /verifier/pd/{state}, parameterised by the ceremony's vc_type.
type VPDef struct {
	ID               string            `json:"id"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

// NewVPDef builds a VPDef requiring the given credential type.
func NewVPDef(id string, vcType model.VcType) VPDef {
	return VPDef{
		ID: id,
		InputDescriptors: []InputDescriptor{
			{
				ID: "authority-" + string(vcType),
				Constraints: Constraints{
					Fields: []Field{
						{
							Path:   []string{"$.vc.type"},
							Filter: Filter{Type: "string", Pattern: string(vcType)},
						},
					},
				},
			},
		},
	}
}
