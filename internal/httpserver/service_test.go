package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbow-dataspace/authority/internal/core/gatekeeper"
	"github.com/rainbow-dataspace/authority/internal/core/issuer"
	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/verifier"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// fakeOrchestrator implements the httpserver.Orchestrator surface for
// routing/error-mapping tests, without pulling in the real ceremony engine.
type fakeOrchestrator struct {
	contReqErr error
	vcURI      string
}

func (f *fakeOrchestrator) ManageReq(context.Context, gatekeeper.GrantRequest) (gatekeeper.GrantResponse, error) {
	return gatekeeper.GrantResponse{}, nil
}
func (f *fakeOrchestrator) ManageContReq(context.Context, string, gatekeeper.RefBody, string) (string, error) {
	return f.vcURI, f.contReqErr
}
func (f *fakeOrchestrator) ManageVcDecision(context.Context, string, gatekeeper.VcDecisionApproval) error {
	return nil
}
func (f *fakeOrchestrator) GetAllRequests(context.Context, int, int) ([]*model.Request, error) {
	return nil, nil
}
func (f *fakeOrchestrator) GetRequestByID(_ context.Context, id string) (*model.Request, error) {
	if id == "missing" {
		return nil, model.NewError(model.KindMissingResource, "request not found")
	}
	return &model.Request{ID: id}, nil
}
func (f *fakeOrchestrator) GetVPDef(context.Context, string) (verifier.VPDef, error) {
	return verifier.VPDef{}, nil
}
func (f *fakeOrchestrator) Verify(context.Context, string, string) (*string, error) { return nil, nil }
func (f *fakeOrchestrator) GetCredOfferData(context.Context, string) (issuer.VCCredOffer, error) {
	return issuer.VCCredOffer{}, nil
}
func (f *fakeOrchestrator) IssuerMetadata() issuer.IssuerMetadata         { return issuer.IssuerMetadata{} }
func (f *fakeOrchestrator) OAuthServerMetadata() issuer.AuthServerMetadata { return issuer.AuthServerMetadata{} }
func (f *fakeOrchestrator) JWKS(context.Context) (json.RawMessage, error) { return json.RawMessage(`{}`), nil }
func (f *fakeOrchestrator) GetToken(context.Context, issuer.TokenRequest) (issuer.IssuingToken, error) {
	return issuer.IssuingToken{}, nil
}
func (f *fakeOrchestrator) GetCredential(context.Context, issuer.CredentialRequest, string) (issuer.GiveVC, error) {
	return issuer.GiveVC{}, nil
}

// newTestService builds a Service with routes registered against a fake
// orchestrator, without binding a listening socket (spec §6 endpoints are
// exercised directly through gin's own request/response plumbing).
func newTestService(orch Orchestrator) *Service {
	gin.SetMode(gin.TestMode)
	s := &Service{log: logger.NewSimple("test"), orch: orch, gin: gin.New()}
	ctx := context.Background()

	apiGroup := s.gin.Group("/api/v1")
	s.regEndpoint(ctx, apiGroup, http.MethodGet, "/status", s.endpointStatus)
	rgGate := apiGroup.Group("/gate")
	s.regEndpoint(ctx, rgGate, http.MethodPost, "/continue/:cont_id", s.endpointGateContinue)
	rgReq := apiGroup.Group("/vc-request")
	s.regEndpoint(ctx, rgReq, http.MethodGet, "/:id", s.endpointRequestByID)
	s.regEndpoint(ctx, rgReq, http.MethodPost, "/:id", s.endpointGateDecision)
	s.gin.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, "not found")
	})
	return s
}

func TestEndpointStatusOK(t *testing.T) {
	s := newTestService(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)

	s.gin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestEndpointGateContinueReturnsVcURI(t *testing.T) {
	s := newTestService(&fakeOrchestrator{vcURI: "openid-credential-offer://?id=ceremony-1"})
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"interact_ref":"ref-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gate/continue/cont-1", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "GNAP tok-1")

	s.gin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openid-credential-offer")
}

func TestEndpointGateContinueErrorMapsToProblemDocument(t *testing.T) {
	s := newTestService(&fakeOrchestrator{contReqErr: model.NewError(model.KindSecurity, "interact_ref mismatch")})
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"interact_ref":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gate/continue/cont-1", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "GNAP tok-1")

	s.gin.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "interact_ref mismatch")
}

func TestEndpointGateContinueRejectsBearerScheme(t *testing.T) {
	s := newTestService(&fakeOrchestrator{vcURI: "openid-credential-offer://?id=ceremony-1"})
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"interact_ref":"ref-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gate/continue/cont-1", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok-1")

	s.gin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "continuation must be authenticated with the GNAP scheme, not Bearer")
}

func TestEndpointGateDecisionRegisteredUnderVcRequest(t *testing.T) {
	s := newTestService(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"approve":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vc-request/ceremony-1", body)
	req.Header.Set("Content-Type", "application/json")

	s.gin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEndpointRequestByIDMissingIsNotFound(t *testing.T) {
	s := newTestService(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vc-request/missing", nil)

	s.gin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
