// Package orchestrator composes the GateKeeper, Verifier and Issuer
// services into the ceremony state machine (spec §4.5, §9 "Acyclic
// composition"). It owns no state of its own beyond references to its
// collaborators.
package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/rainbow-dataspace/authority/internal/core/gatekeeper"
	"github.com/rainbow-dataspace/authority/internal/core/issuer"
	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/internal/core/verifier"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// GateKeeper is the narrow capability set the orchestrator depends on
// (spec §9 "Polymorphism without inheritance").
type GateKeeper interface {
	Start(payload gatekeeper.GrantRequest) (*model.Request, *model.Interaction, error)
	ValidateContReq(inter *model.Interaction, interactRef, token string) error
	EndVerification(ctx context.Context, inter *model.Interaction) (*string, error)
	ApprvDnyReq(ctx context.Context, approve bool, req *model.Request, inter *model.Interaction) error
}

// Verifier is the narrow capability set the orchestrator depends on for
// OIDC4VP.
type Verifier interface {
	StartVP(id string, vcType model.VcType) (*model.Verification, error)
	GenerateVerificationURI(v *model.Verification) string
	GenerateVPD(v *model.Verification) verifier.VPDef
	VerifyAll(v *model.Verification, vpToken string) error
}

// Issuer is the narrow capability set the orchestrator depends on for
// OIDC4VCI.
type Issuer interface {
	StartVCI(req *model.Request) (*model.Issuing, error)
	GenerateIssuingURI(id string) string
	GetCredOfferData(m *model.Issuing) (issuer.VCCredOffer, error)
	GetIssuerData() issuer.IssuerMetadata
	GetOAuthServerData() issuer.AuthServerMetadata
	GetToken(m *model.Issuing) issuer.IssuingToken
	ValidateTokenReq(m *model.Issuing, txCode, preAuthCode string) error
	ValidateCredReq(m *model.Issuing, reqBody *issuer.CredentialRequest, bearerToken string) error
	IssueCred(m *model.Issuing, authorityDID string) (issuer.GiveVC, error)
	End(req *model.Request, inter *model.Interaction, iss *model.Issuing) (*model.Minion, error)
}

// Wallet is the remote-wallet capability the orchestrator depends on
// (spec §2, §4 "Wallet Gateway").
type Wallet interface {
	DID(ctx context.Context) (string, error)
	JWKS(ctx context.Context) (json.RawMessage, error)
}

// Orchestrator is the Ceremony Orchestrator (spec §4.5).
type Orchestrator struct {
	gatekeeper GateKeeper
	verifier   Verifier
	issuer     Issuer
	wallet     Wallet
	store      store.Store
	log        *logger.Log
}

// New composes an Orchestrator from its collaborators.
func New(gk GateKeeper, vf Verifier, is Issuer, wallet Wallet, st store.Store, log *logger.Log) *Orchestrator {
	return &Orchestrator{gatekeeper: gk, verifier: vf, issuer: is, wallet: wallet, store: st, log: log}
}

// ManageReq runs the GNAP grant-request branch (spec §4.5 / §4.2 "Ceremony
// branching"): the GateKeeper mints Request+Interaction, persists them,
// then either starts an OIDC4VP exchange or parks for an operator decision.
func (o *Orchestrator) ManageReq(ctx context.Context, payload gatekeeper.GrantRequest) (gatekeeper.GrantResponse, error) {
	req, inter, err := o.gatekeeper.Start(payload)
	if err != nil {
		return gatekeeper.GrantResponse{}, err
	}

	if err := o.store.Requests().Create(ctx, req); err != nil {
		return gatekeeper.GrantResponse{}, model.WrapError(model.KindDatabase, "failed to persist request", err)
	}
	if err := o.store.Interactions().Create(ctx, inter); err != nil {
		return gatekeeper.GrantResponse{}, model.WrapError(model.KindDatabase, "failed to persist interaction", err)
	}

	if inter.ContainsStart(model.StartOIDC4VP) {
		ver, err := o.verifier.StartVP(inter.ID, model.VcIdentity)
		if err != nil {
			return gatekeeper.GrantResponse{}, err
		}
		if err := o.store.Verifications().Create(ctx, ver); err != nil {
			return gatekeeper.GrantResponse{}, model.WrapError(model.KindDatabase, "failed to persist verification", err)
		}

		uri := o.verifier.GenerateVerificationURI(ver)
		return gatekeeper.Default4OIDC4VP(inter.ID, inter.ContinueEndpoint, inter.ContinueToken, inter.AsNonce, uri), nil
	}

	if inter.ContainsStart(model.StartCrossUser) {
		return gatekeeper.Default4CrossUser(inter.ID, inter.ContinueEndpoint, inter.ContinueToken, inter.AsNonce), nil
	}

	return gatekeeper.GrantResponse{}, model.NewError(model.KindBadFormat, "interact method not supported")
}

// ManageContReq runs the GNAP continuation branch (spec §4.2 "Continuation
// request"): validates the caller's tokens, mints the Issuer URI, and
// starts OIDC4VCI. A second continuation for an already-Approved request
// is treated as idempotent and returns the existing vc_uri without
// mutating state further (spec §5 "Ordering guarantees").
func (o *Orchestrator) ManageContReq(ctx context.Context, contID string, payload gatekeeper.RefBody, bearerToken string) (string, error) {
	inter, err := o.store.Interactions().ByContinueID(ctx, contID)
	if err != nil {
		return "", err
	}
	if err := o.gatekeeper.ValidateContReq(inter, payload.InteractRef, bearerToken); err != nil {
		return "", err
	}

	req, err := o.store.Requests().GetByID(ctx, inter.ID)
	if err != nil {
		return "", err
	}

	if req.Status == model.StatusApproved && req.VcURI != nil {
		return *req.VcURI, nil
	}

	vcURI := o.issuer.GenerateIssuingURI(inter.ID)

	req.Status = model.StatusApproved
	req.VcURI = &vcURI
	if err := o.store.Requests().Update(ctx, req); err != nil {
		return "", model.WrapError(model.KindDatabase, "failed to update request", err)
	}

	issModel, err := o.issuer.StartVCI(req)
	if err != nil {
		return "", err
	}
	if err := o.store.Issuings().Create(ctx, issModel); err != nil {
		return "", model.WrapError(model.KindDatabase, "failed to persist issuing", err)
	}

	o.log.Info("vc uri minted", "vc_uri", vcURI)
	return vcURI, nil
}

// ManageVcDecision runs the operator approve/deny branch for a cross-user
// ceremony (spec §4.2 "Operator decision").
func (o *Orchestrator) ManageVcDecision(ctx context.Context, id string, payload gatekeeper.VcDecisionApproval) error {
	req, err := o.store.Requests().GetByID(ctx, id)
	if err != nil {
		return err
	}
	inter, err := o.store.Interactions().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := o.gatekeeper.ApprvDnyReq(ctx, payload.Approve, req, inter); err != nil {
		_ = o.store.Requests().Update(ctx, req)
		return err
	}
	return o.store.Requests().Update(ctx, req)
}

// GetAllRequests lists ceremonies (GET /vc-request/all).
func (o *Orchestrator) GetAllRequests(ctx context.Context, limit, offset int) ([]*model.Request, error) {
	return o.store.Requests().GetAll(ctx, limit, offset)
}

// GetRequestByID fetches one ceremony (GET /vc-request/{id}).
func (o *Orchestrator) GetRequestByID(ctx context.Context, id string) (*model.Request, error) {
	return o.store.Requests().GetByID(ctx, id)
}

// GetVPDef serves the presentation definition for a verification state
// (GET /verifier/pd/{state}).
func (o *Orchestrator) GetVPDef(ctx context.Context, state string) (verifier.VPDef, error) {
	ver, err := o.store.Verifications().ByState(ctx, state)
	if err != nil {
		return verifier.VPDef{}, err
	}
	return o.verifier.GenerateVPD(ver), nil
}

// Verify accepts a VP token for a verification state, runs the full
// validation pipeline, persists the result, and hands control back to the
// GateKeeper's end-of-verification handler (spec §4.3, §9 "Acyclic
// composition": the verifier never calls the gatekeeper directly).
func (o *Orchestrator) Verify(ctx context.Context, state, vpToken string) (*string, error) {
	ver, err := o.store.Verifications().ByState(ctx, state)
	if err != nil {
		return nil, err
	}

	verifyErr := o.verifier.VerifyAll(ver, vpToken)

	inter, interErr := o.store.Interactions().GetByID(ctx, ver.ID)

	if updateErr := o.store.Verifications().Update(ctx, ver); updateErr != nil {
		o.log.Info("failed to persist verification after verify attempt", "error", updateErr.Error())
	}

	if verifyErr != nil {
		return nil, verifyErr
	}
	if interErr != nil {
		return nil, interErr
	}

	return o.gatekeeper.EndVerification(ctx, inter)
}

// GetCredOfferData serves the credential offer (GET /issuer/credentialOffer).
func (o *Orchestrator) GetCredOfferData(ctx context.Context, id string) (issuer.VCCredOffer, error) {
	m, err := o.store.Issuings().GetByID(ctx, id)
	if err != nil {
		return issuer.VCCredOffer{}, err
	}
	offer, err := o.issuer.GetCredOfferData(m)
	if err != nil {
		return issuer.VCCredOffer{}, err
	}
	if m.Step {
		m.Step = false
		if err := o.store.Issuings().Update(ctx, m); err != nil {
			return issuer.VCCredOffer{}, model.WrapError(model.KindDatabase, "failed to update issuing", err)
		}
	}
	return offer, nil
}

// IssuerMetadata serves GET /issuer/.well-known/openid-credential-issuer.
func (o *Orchestrator) IssuerMetadata() issuer.IssuerMetadata {
	return o.issuer.GetIssuerData()
}

// OAuthServerMetadata serves GET /issuer/.well-known/oauth-authorization-server.
func (o *Orchestrator) OAuthServerMetadata() issuer.AuthServerMetadata {
	return o.issuer.GetOAuthServerData()
}

// JWKS republishes the wallet gateway's key set at GET /issuer/jwks.
func (o *Orchestrator) JWKS(ctx context.Context) (json.RawMessage, error) {
	return o.wallet.JWKS(ctx)
}

// GetToken serves POST /issuer/token.
func (o *Orchestrator) GetToken(ctx context.Context, payload issuer.TokenRequest) (issuer.IssuingToken, error) {
	m, err := o.store.Issuings().ByTxCode(ctx, payload.TxCode)
	if err != nil {
		return issuer.IssuingToken{}, err
	}
	if err := o.issuer.ValidateTokenReq(m, payload.TxCode, payload.PreAuthorizedCode); err != nil {
		return issuer.IssuingToken{}, err
	}
	return o.issuer.GetToken(m), nil
}

// GetCredential serves POST /issuer/credential: validates the
// proof-of-possession, signs (or replays) the VC, and upserts the Minion
// that represents the now-proven participant (spec §4.4 "Credential").
func (o *Orchestrator) GetCredential(ctx context.Context, payload issuer.CredentialRequest, bearerToken string) (issuer.GiveVC, error) {
	issModel, err := o.store.Issuings().ByToken(ctx, bearerToken)
	if err != nil {
		return issuer.GiveVC{}, err
	}

	if err := o.issuer.ValidateCredReq(issModel, &payload, bearerToken); err != nil {
		return issuer.GiveVC{}, err
	}

	authorityDID, err := o.wallet.DID(ctx)
	if err != nil {
		return issuer.GiveVC{}, err
	}

	data, err := o.issuer.IssueCred(issModel, authorityDID)
	if err != nil {
		return issuer.GiveVC{}, err
	}

	req, err := o.store.Requests().GetByID(ctx, issModel.ID)
	if err != nil {
		return issuer.GiveVC{}, err
	}
	inter, err := o.store.Interactions().GetByID(ctx, issModel.ID)
	if err != nil {
		return issuer.GiveVC{}, err
	}

	if err := o.store.Issuings().Update(ctx, issModel); err != nil {
		return issuer.GiveVC{}, model.WrapError(model.KindDatabase, "failed to update issuing", err)
	}

	minion, err := o.issuer.End(req, inter, issModel)
	if err != nil {
		return issuer.GiveVC{}, err
	}
	if err := o.store.Minions().ForceCreate(ctx, minion); err != nil {
		return issuer.GiveVC{}, model.WrapError(model.KindDatabase, "failed to upsert minion", err)
	}

	return data, nil
}
