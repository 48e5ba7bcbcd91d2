package issuer

import (
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

type explodingKeySource struct{}

func (explodingKeySource) Get() (*rsa.PrivateKey, error) {
	return nil, errors.New("signing key must not be fetched when a cached credential exists")
}

func newTestService() *Service {
	return New(Config{Host: "http://127.0.0.1:1500", APIPath: "/api/v1"}, explodingKeySource{}, logger.NewSimple("test"))
}

func TestIssueCredDoesNotResign(t *testing.T) {
	s := newTestService()
	cached := "already-signed.jwt.value"
	did := "did:jwk:holder"
	m := &model.Issuing{
		ID:         "ceremony-1",
		VcType:     model.VcIdentity,
		Did:        &did,
		Credential: &cached,
	}

	out, err := s.IssueCred(m, "did:jwk:authority")
	require.NoError(t, err)
	assert.Equal(t, cached, out.Credential)
	assert.Equal(t, "jwt_vc_json", out.Format)
}

func TestValidateTokenReqMismatch(t *testing.T) {
	s := newTestService()
	m := &model.Issuing{TxCode: "tx-1", PreAuthCode: "pre-1"}

	assert.Error(t, s.ValidateTokenReq(m, "tx-1", "wrong"))
	assert.NoError(t, s.ValidateTokenReq(m, "tx-1", "pre-1"))
}

func TestGetCredOfferDataStepFlag(t *testing.T) {
	s := newTestService()
	m := &model.Issuing{TxCode: "tx-1", PreAuthCode: "pre-1", VcType: model.VcIdentity, Step: true}

	offer, err := s.GetCredOfferData(m)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", offer.Grants.PreAuthorizedCode.PreAuthorizedCode)

	m.Step = false
	offer, err = s.GetCredOfferData(m)
	require.NoError(t, err)
	assert.Equal(t, "pre-1", offer.Grants.PreAuthorizedCode.PreAuthorizedCode)
}

func TestEndRequiresDID(t *testing.T) {
	s := newTestService()
	_, err := s.End(&model.Request{}, &model.Interaction{}, &model.Issuing{})
	assert.Error(t, err)
}

func TestEndSetsIsVCIssuedTrue(t *testing.T) {
	s := newTestService()
	did := "did:jwk:holder"
	minion, err := s.End(
		&model.Request{ParticipantSlug: "acme"},
		&model.Interaction{URI: "https://client.example/cb"},
		&model.Issuing{Did: &did},
	)
	require.NoError(t, err)
	assert.True(t, minion.IsVCIssued, "End() runs immediately after a successful issuance, so the minted minion must record the VC as issued")
}
