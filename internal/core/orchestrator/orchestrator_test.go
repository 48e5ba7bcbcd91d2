package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbow-dataspace/authority/internal/core/gatekeeper"
	"github.com/rainbow-dataspace/authority/internal/core/issuer"
	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/internal/core/verifier"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// --- in-memory store.Store fake, keyed the way postgres does (by id / secondary index) ---

type memRequests struct{ byID map[string]*model.Request }
type memInteractions struct{ byID map[string]*model.Interaction }
type memVerifications struct {
	byID    map[string]*model.Verification
	updates int
}
type memIssuings struct{ byID map[string]*model.Issuing }
type memMinions struct{ byID map[string]*model.Minion }

func (m *memRequests) GetByID(_ context.Context, id string) (*model.Request, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, model.NewError(model.KindMissingResource, "request not found")
	}
	return r, nil
}
func (m *memRequests) GetAll(_ context.Context, _, _ int) ([]*model.Request, error) {
	out := make([]*model.Request, 0, len(m.byID))
	for _, r := range m.byID {
		out = append(out, r)
	}
	return out, nil
}
func (m *memRequests) Create(_ context.Context, r *model.Request) error { m.byID[r.ID] = r; return nil }
func (m *memRequests) Update(_ context.Context, r *model.Request) error { m.byID[r.ID] = r; return nil }
func (m *memRequests) Delete(_ context.Context, id string) error       { delete(m.byID, id); return nil }

func (m *memInteractions) GetByID(_ context.Context, id string) (*model.Interaction, error) {
	i, ok := m.byID[id]
	if !ok {
		return nil, model.NewError(model.KindMissingResource, "interaction not found")
	}
	return i, nil
}
func (m *memInteractions) Create(_ context.Context, i *model.Interaction) error {
	m.byID[i.ID] = i
	return nil
}
func (m *memInteractions) Update(_ context.Context, i *model.Interaction) error {
	m.byID[i.ID] = i
	return nil
}
func (m *memInteractions) Delete(_ context.Context, id string) error { delete(m.byID, id); return nil }
func (m *memInteractions) ByContinueID(_ context.Context, continueID string) (*model.Interaction, error) {
	for _, i := range m.byID {
		if i.ContinueID == continueID {
			return i, nil
		}
	}
	return nil, model.NewError(model.KindMissingResource, "interaction not found")
}
func (m *memInteractions) ByReference(_ context.Context, interactRef string) (*model.Interaction, error) {
	for _, i := range m.byID {
		if i.InteractRef == interactRef {
			return i, nil
		}
	}
	return nil, model.NewError(model.KindMissingResource, "interaction not found")
}

func (m *memVerifications) GetByID(_ context.Context, id string) (*model.Verification, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, model.NewError(model.KindMissingResource, "verification not found")
	}
	return v, nil
}
func (m *memVerifications) Create(_ context.Context, v *model.Verification) error {
	m.byID[v.ID] = v
	return nil
}
func (m *memVerifications) Update(_ context.Context, v *model.Verification) error {
	m.updates++
	m.byID[v.ID] = v
	return nil
}
func (m *memVerifications) Delete(_ context.Context, id string) error { delete(m.byID, id); return nil }
func (m *memVerifications) ByState(_ context.Context, state string) (*model.Verification, error) {
	for _, v := range m.byID {
		if v.State == state {
			return v, nil
		}
	}
	return nil, model.NewError(model.KindMissingResource, "verification not found")
}

func (m *memIssuings) GetByID(_ context.Context, id string) (*model.Issuing, error) {
	i, ok := m.byID[id]
	if !ok {
		return nil, model.NewError(model.KindMissingResource, "issuing not found")
	}
	return i, nil
}
func (m *memIssuings) Create(_ context.Context, i *model.Issuing) error { m.byID[i.ID] = i; return nil }
func (m *memIssuings) Update(_ context.Context, i *model.Issuing) error { m.byID[i.ID] = i; return nil }
func (m *memIssuings) Delete(_ context.Context, id string) error       { delete(m.byID, id); return nil }
func (m *memIssuings) ByTxCode(_ context.Context, txCode string) (*model.Issuing, error) {
	for _, i := range m.byID {
		if i.TxCode == txCode {
			return i, nil
		}
	}
	return nil, model.NewError(model.KindMissingResource, "issuing not found")
}
func (m *memIssuings) ByToken(_ context.Context, token string) (*model.Issuing, error) {
	for _, i := range m.byID {
		if i.Token == token {
			return i, nil
		}
	}
	return nil, model.NewError(model.KindMissingResource, "issuing not found")
}

func (m *memMinions) GetMe(_ context.Context) (*model.Minion, error) {
	for _, mi := range m.byID {
		if mi.IsMe {
			return mi, nil
		}
	}
	return nil, model.NewError(model.KindMissingResource, "minion not found")
}
func (m *memMinions) ForceCreate(_ context.Context, mi *model.Minion) error {
	m.byID[mi.ParticipantID] = mi
	return nil
}

type memStore struct {
	requests     *memRequests
	interactions *memInteractions
	verifications *memVerifications
	issuings     *memIssuings
	minions      *memMinions
}

func newMemStore() *memStore {
	return &memStore{
		requests:      &memRequests{byID: map[string]*model.Request{}},
		interactions:  &memInteractions{byID: map[string]*model.Interaction{}},
		verifications: &memVerifications{byID: map[string]*model.Verification{}},
		issuings:      &memIssuings{byID: map[string]*model.Issuing{}},
		minions:       &memMinions{byID: map[string]*model.Minion{}},
	}
}

func (s *memStore) Requests() store.Requests         { return s.requests }
func (s *memStore) Interactions() store.Interactions { return s.interactions }
func (s *memStore) Verifications() store.Verifications { return s.verifications }
func (s *memStore) Issuings() store.Issuings         { return s.issuings }
func (s *memStore) Minions() store.Minions           { return s.minions }
func (s *memStore) Close(_ context.Context) error    { return nil }

var _ store.Store = (*memStore)(nil)

// --- fake collaborators implementing the orchestrator's own narrow interfaces ---

type fakeGateKeeper struct {
	startReq   *model.Request
	startInter *model.Interaction
	startErr   error
	endRedirect *string
	endErr     error
	approveErr error
}

func (f *fakeGateKeeper) Start(_ gatekeeper.GrantRequest) (*model.Request, *model.Interaction, error) {
	return f.startReq, f.startInter, f.startErr
}
func (f *fakeGateKeeper) ValidateContReq(_ *model.Interaction, _, _ string) error { return nil }
func (f *fakeGateKeeper) EndVerification(_ context.Context, _ *model.Interaction) (*string, error) {
	return f.endRedirect, f.endErr
}
func (f *fakeGateKeeper) ApprvDnyReq(_ context.Context, approve bool, req *model.Request, _ *model.Interaction) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	if approve {
		req.Status = model.StatusApproved
	}
	return nil
}

type fakeVerifier struct {
	verifyErr error
}

func (f *fakeVerifier) StartVP(id string, vcType model.VcType) (*model.Verification, error) {
	return &model.Verification{ID: id, VcType: vcType}, nil
}
func (f *fakeVerifier) GenerateVerificationURI(_ *model.Verification) string { return "openid4vp://authorize?x=1" }
func (f *fakeVerifier) GenerateVPD(v *model.Verification) verifier.VPDef {
	return verifier.NewVPDef(v.ID, v.VcType)
}
func (f *fakeVerifier) VerifyAll(_ *model.Verification, _ string) error { return f.verifyErr }

type fakeIssuer struct{}

func (fakeIssuer) StartVCI(req *model.Request) (*model.Issuing, error) {
	return &model.Issuing{ID: req.ID, TxCode: "tx-1", PreAuthCode: "pre-1"}, nil
}
func (fakeIssuer) GenerateIssuingURI(id string) string { return "openid-credential-offer://?id=" + id }
func (fakeIssuer) GetCredOfferData(m *model.Issuing) (issuer.VCCredOffer, error) {
	return issuer.NewVCCredOffer("https://authority.example", m.TxCode, m.VcType), nil
}
func (fakeIssuer) GetIssuerData() issuer.IssuerMetadata { return issuer.NewIssuerMetadata("https://authority.example") }
func (fakeIssuer) GetOAuthServerData() issuer.AuthServerMetadata {
	return issuer.NewAuthServerMetadata("https://authority.example")
}
func (fakeIssuer) GetToken(_ *model.Issuing) issuer.IssuingToken { return issuer.NewIssuingToken("bearer-1") }
func (fakeIssuer) ValidateTokenReq(_ *model.Issuing, _, _ string) error { return nil }
func (fakeIssuer) ValidateCredReq(_ *model.Issuing, _ *issuer.CredentialRequest, _ string) error {
	return nil
}
func (fakeIssuer) IssueCred(_ *model.Issuing, _ string) (issuer.GiveVC, error) {
	return issuer.GiveVC{Format: "jwt_vc_json", Credential: "signed.jwt.value"}, nil
}
func (fakeIssuer) End(_ *model.Request, _ *model.Interaction, iss *model.Issuing) (*model.Minion, error) {
	if iss.Did == nil {
		return nil, model.NewError(model.KindBadFormat, "issuing has no bound did")
	}
	return &model.Minion{ParticipantID: *iss.Did, IsVCIssued: true}, nil
}

type fakeWallet struct {
	did  string
	jwks json.RawMessage
}

func (f fakeWallet) DID(_ context.Context) (string, error)             { return f.did, nil }
func (f fakeWallet) JWKS(_ context.Context) (json.RawMessage, error) { return f.jwks, nil }

func newTestOrchestrator() (*Orchestrator, *memStore, *fakeGateKeeper, *fakeVerifier) {
	st := newMemStore()
	gk := &fakeGateKeeper{}
	vf := &fakeVerifier{}
	o := New(gk, vf, fakeIssuer{}, fakeWallet{did: "did:jwk:authority"}, st, logger.NewSimple("test"))
	return o, st, gk, vf
}

func TestManageContReqIsIdempotentOnReplay(t *testing.T) {
	o, st, _, _ := newTestOrchestrator()
	ctx := context.Background()

	inter := &model.Interaction{ID: "ceremony-1", ContinueID: "cont-1", ContinueToken: "tok-1", InteractRef: "ref-1"}
	req := &model.Request{ID: "ceremony-1", Status: model.StatusPending}
	require.NoError(t, st.interactions.Create(ctx, inter))
	require.NoError(t, st.requests.Create(ctx, req))

	uri1, err := o.ManageContReq(ctx, "cont-1", gatekeeper.RefBody{InteractRef: "ref-1"}, "tok-1")
	require.NoError(t, err)
	assert.NotEmpty(t, uri1)
	assert.Equal(t, model.StatusApproved, req.Status)
	_, issuingCreated := st.issuings.byID["ceremony-1"]
	assert.True(t, issuingCreated)

	// simulate a second, replayed continuation call for the same request
	uri2, err := o.ManageContReq(ctx, "cont-1", gatekeeper.RefBody{InteractRef: "ref-1"}, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, uri1, uri2, "a replayed continuation must return the same vc_uri")

	// the issuing record created on the first call must be untouched by the replay
	assert.Equal(t, "tx-1", st.issuings.byID["ceremony-1"].TxCode)
}

func TestVerifyPersistsVerificationEvenOnFailure(t *testing.T) {
	o, st, _, vf := newTestOrchestrator()
	ctx := context.Background()
	vf.verifyErr = model.NewError(model.KindSecurity, "invalid nonce, it does not match")

	ver := &model.Verification{ID: "ceremony-1", State: "state-1"}
	require.NoError(t, st.verifications.Create(ctx, ver))
	require.NoError(t, st.interactions.Create(ctx, &model.Interaction{ID: "ceremony-1"}))

	_, err := o.Verify(ctx, "state-1", "bad.vp.token")
	require.Error(t, err)

	// the verification record must still have been written back, win or lose
	// (spec §9 "acyclic composition": the verifier never calls the
	// gatekeeper directly, and a failed verification is still recorded).
	_, ok := st.verifications.byID["ceremony-1"]
	assert.True(t, ok)
	assert.Equal(t, 1, st.verifications.updates, "Verify must write the verification back after a failed attempt")
}

func TestVerifySuccessDelegatesToGateKeeperEndVerification(t *testing.T) {
	o, st, gk, _ := newTestOrchestrator()
	ctx := context.Background()
	redirect := "https://client.example/cb?hash=h1&interact_ref=ref-1"
	gk.endRedirect = &redirect

	ver := &model.Verification{ID: "ceremony-1", State: "state-1"}
	require.NoError(t, st.verifications.Create(ctx, ver))
	require.NoError(t, st.interactions.Create(ctx, &model.Interaction{ID: "ceremony-1"}))

	out, err := o.Verify(ctx, "state-1", "good.vp.token")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, redirect, *out)
}

func TestManageReqOIDC4VPBranch(t *testing.T) {
	o, st, gk, _ := newTestOrchestrator()
	ctx := context.Background()
	gk.startReq = &model.Request{ID: "ceremony-1", Status: model.StatusPending}
	gk.startInter = &model.Interaction{ID: "ceremony-1", Start: []string{string(model.StartOIDC4VP)}, ContinueEndpoint: "/gate/continue/cont-1", ContinueToken: "tok-1", AsNonce: "as-nonce-1"}

	resp, err := o.ManageReq(ctx, gatekeeper.GrantRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Interact.UserCodeURI)
	assert.Equal(t, "openid4vp://authorize?x=1", *resp.Interact.UserCodeURI)

	_, verCreated := st.verifications.byID["ceremony-1"]
	assert.True(t, verCreated, "the oidc4vp branch must persist a Verification record")
}

func TestManageReqCrossUserBranch(t *testing.T) {
	o, st, gk, _ := newTestOrchestrator()
	ctx := context.Background()
	gk.startReq = &model.Request{ID: "ceremony-2", Status: model.StatusPending}
	gk.startInter = &model.Interaction{ID: "ceremony-2", Start: []string{string(model.StartCrossUser)}, ContinueEndpoint: "/gate/continue/cont-2", ContinueToken: "tok-2", AsNonce: "as-nonce-2"}

	resp, err := o.ManageReq(ctx, gatekeeper.GrantRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.Interact.UserCodeURI, "the cross-user branch never starts an oidc4vp exchange")

	_, verCreated := st.verifications.byID["ceremony-2"]
	assert.False(t, verCreated, "the cross-user branch must not persist a Verification record")
}

func TestGetCredentialUpsertsMinion(t *testing.T) {
	o, st, _, _ := newTestOrchestrator()
	ctx := context.Background()
	did := "did:jwk:holder"

	require.NoError(t, st.issuings.Create(ctx, &model.Issuing{ID: "ceremony-1", Token: "bearer-tok", Did: &did}))
	require.NoError(t, st.requests.Create(ctx, &model.Request{ID: "ceremony-1"}))
	require.NoError(t, st.interactions.Create(ctx, &model.Interaction{ID: "ceremony-1"}))

	out, err := o.GetCredential(ctx, issuer.CredentialRequest{}, "bearer-tok")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.value", out.Credential)

	minion, ok := st.minions.byID[did]
	require.True(t, ok)
	assert.True(t, minion.IsVCIssued)
}
