package httpserver

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rainbow-dataspace/authority/internal/core/gatekeeper"
	"github.com/rainbow-dataspace/authority/internal/core/issuer"
	"github.com/rainbow-dataspace/authority/internal/core/model"
)

func (s *Service) endpointStatus(_ context.Context, c *gin.Context) (any, error) {
	return gin.H{"status": "ok"}, nil
}

func (s *Service) endpointGateAccess(ctx context.Context, c *gin.Context) (any, error) {
	var payload gatekeeper.GrantRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, model.WrapError(model.KindBadFormat, "invalid grant request", err)
	}
	return s.orch.ManageReq(ctx, payload)
}

func (s *Service) endpointGateContinue(ctx context.Context, c *gin.Context) (any, error) {
	var payload gatekeeper.RefBody
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, model.WrapError(model.KindBadFormat, "invalid continuation body", err)
	}
	contID := c.Param("cont_id")
	token, err := gnapToken(c)
	if err != nil {
		return nil, err
	}
	vcURI, err := s.orch.ManageContReq(ctx, contID, payload, token)
	if err != nil {
		return nil, err
	}
	return gin.H{"vc_uri": vcURI}, nil
}

func (s *Service) endpointGateDecision(ctx context.Context, c *gin.Context) (any, error) {
	var payload gatekeeper.VcDecisionApproval
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, model.WrapError(model.KindBadFormat, "invalid decision body", err)
	}
	id := c.Param("id")
	if err := s.orch.ManageVcDecision(ctx, id, payload); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Service) endpointRequestsAll(ctx context.Context, c *gin.Context) (any, error) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return s.orch.GetAllRequests(ctx, limit, offset)
}

func (s *Service) endpointRequestByID(ctx context.Context, c *gin.Context) (any, error) {
	return s.orch.GetRequestByID(ctx, c.Param("id"))
}

func (s *Service) endpointVerifierPD(ctx context.Context, c *gin.Context) (any, error) {
	return s.orch.GetVPDef(ctx, c.Param("state"))
}

func (s *Service) endpointVerifierVerify(ctx context.Context, c *gin.Context) (any, error) {
	vpToken := c.PostForm("vp_token")
	if vpToken == "" {
		return nil, model.NewError(model.KindBadFormat, "vp_token is required")
	}
	redirectURI, err := s.orch.Verify(ctx, c.Param("state"), vpToken)
	if err != nil {
		return nil, err
	}
	if redirectURI != nil {
		return gin.H{"redirect_uri": *redirectURI}, nil
	}
	return nil, nil
}

func (s *Service) endpointCredentialOffer(ctx context.Context, c *gin.Context) (any, error) {
	id := c.Query("id")
	if id == "" {
		return nil, model.NewError(model.KindBadFormat, "id is required")
	}
	return s.orch.GetCredOfferData(ctx, id)
}

func (s *Service) endpointIssuerMetadata(_ context.Context, c *gin.Context) (any, error) {
	return s.orch.IssuerMetadata(), nil
}

func (s *Service) endpointOAuthMetadata(_ context.Context, c *gin.Context) (any, error) {
	return s.orch.OAuthServerMetadata(), nil
}

func (s *Service) endpointJWKS(ctx context.Context, c *gin.Context) (any, error) {
	return s.orch.JWKS(ctx)
}

func (s *Service) endpointToken(ctx context.Context, c *gin.Context) (any, error) {
	var payload issuer.TokenRequest
	if err := c.ShouldBind(&payload); err != nil {
		return nil, model.WrapError(model.KindBadFormat, "invalid token request", err)
	}
	return s.orch.GetToken(ctx, payload)
}

func (s *Service) endpointCredential(ctx context.Context, c *gin.Context) (any, error) {
	var payload issuer.CredentialRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, model.WrapError(model.KindBadFormat, "invalid credential request", err)
	}
	token := bearerToken(c)
	if token == "" {
		return nil, model.NewError(model.KindUnauthorized, "missing bearer token")
	}
	return s.orch.GetCredential(ctx, payload, token)
}

// bearerToken extracts the token from "Authorization: Bearer <token>",
// returning "" if the header is absent or malformed.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// gnapToken extracts the token from "Authorization: GNAP <token>", the
// scheme GNAP continuation requests use (spec §6; ground truth
// extract_gnap_token, distinct from the Bearer scheme /credential uses).
func gnapToken(c *gin.Context) (string, error) {
	h := c.GetHeader("Authorization")
	const prefix = "GNAP "
	if !strings.HasPrefix(h, prefix) {
		return "", model.NewError(model.KindUnauthorized, "missing token")
	}
	return strings.TrimPrefix(h, prefix), nil
}
