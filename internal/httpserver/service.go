// Package httpserver exposes the ceremony orchestrator over the external
// interfaces table (spec §6), in the teacher's gin idiom: one Service owns
// the *gin.Engine and *http.Server, endpoints are thin (context, *gin.Context)
// -> (any, error) functions registered through regEndpoint, and every
// returned error is mapped to an RFC 7807 problem document at the boundary
// rather than inside the core.
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rainbow-dataspace/authority/internal/core/gatekeeper"
	"github.com/rainbow-dataspace/authority/internal/core/issuer"
	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/verifier"
	"github.com/rainbow-dataspace/authority/pkg/configuration"
	"github.com/rainbow-dataspace/authority/pkg/httphelpers"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// Orchestrator is the narrow capability set the HTTP layer depends on.
type Orchestrator interface {
	ManageReq(ctx context.Context, payload gatekeeper.GrantRequest) (gatekeeper.GrantResponse, error)
	ManageContReq(ctx context.Context, contID string, payload gatekeeper.RefBody, bearerToken string) (string, error)
	ManageVcDecision(ctx context.Context, id string, payload gatekeeper.VcDecisionApproval) error
	GetAllRequests(ctx context.Context, limit, offset int) ([]*model.Request, error)
	GetRequestByID(ctx context.Context, id string) (*model.Request, error)
	GetVPDef(ctx context.Context, state string) (verifier.VPDef, error)
	Verify(ctx context.Context, state, vpToken string) (*string, error)
	GetCredOfferData(ctx context.Context, id string) (issuer.VCCredOffer, error)
	IssuerMetadata() issuer.IssuerMetadata
	OAuthServerMetadata() issuer.AuthServerMetadata
	JWKS(ctx context.Context) (json.RawMessage, error)
	GetToken(ctx context.Context, payload issuer.TokenRequest) (issuer.IssuingToken, error)
	GetCredential(ctx context.Context, payload issuer.CredentialRequest, bearerToken string) (issuer.GiveVC, error)
}

// Service is the service object for httpserver.
type Service struct {
	cfg    *configuration.Cfg
	log    *logger.Log
	server *http.Server
	orch   Orchestrator
	gin    *gin.Engine
}

// New wires the gin engine and starts the HTTP server in the background.
func New(ctx context.Context, cfg *configuration.Cfg, orch Orchestrator, log *logger.Log) (*Service, error) {
	s := &Service{
		cfg:  cfg,
		log:  log,
		orch: orch,
		server: &http.Server{
			ReadHeaderTimeout: 2 * time.Second,
		},
	}

	switch cfg.Production {
	case true:
		gin.SetMode(gin.ReleaseMode)
	case false:
		gin.SetMode(gin.DebugMode)
	}

	s.gin = gin.New()
	s.server.Handler = s.gin
	s.server.Addr = ":" + strconv.Itoa(cfg.HostPort)
	s.server.ReadTimeout = 5 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.IdleTimeout = 90 * time.Second

	s.gin.Use(s.middlewareLogger(ctx))
	s.gin.Use(gin.Recovery())
	s.gin.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httphelpers.Problem(model.NewError(model.KindMissingResource, "no such route")))
	})

	apiGroup := s.gin.Group("/api/" + cfg.APIVersion)

	s.regEndpoint(ctx, apiGroup, http.MethodGet, "/status", s.endpointStatus)

	rgGate := apiGroup.Group("/gate")
	s.regEndpoint(ctx, rgGate, http.MethodPost, "/access", s.endpointGateAccess)
	s.regEndpoint(ctx, rgGate, http.MethodPost, "/continue/:cont_id", s.endpointGateContinue)

	rgReq := apiGroup.Group("/vc-request")
	s.regEndpoint(ctx, rgReq, http.MethodGet, "/all", s.endpointRequestsAll)
	s.regEndpoint(ctx, rgReq, http.MethodGet, "/:id", s.endpointRequestByID)
	s.regEndpoint(ctx, rgReq, http.MethodPost, "/:id", s.endpointGateDecision)

	rgVerifier := apiGroup.Group("/verifier")
	s.regEndpoint(ctx, rgVerifier, http.MethodGet, "/pd/:state", s.endpointVerifierPD)
	s.regEndpoint(ctx, rgVerifier, http.MethodPost, "/verify/:state", s.endpointVerifierVerify)

	rgIssuer := apiGroup.Group("/issuer")
	s.regEndpoint(ctx, rgIssuer, http.MethodGet, "/credentialOffer", s.endpointCredentialOffer)
	s.regEndpoint(ctx, rgIssuer, http.MethodGet, "/.well-known/openid-credential-issuer", s.endpointIssuerMetadata)
	s.regEndpoint(ctx, rgIssuer, http.MethodGet, "/.well-known/oauth-authorization-server", s.endpointOAuthMetadata)
	s.regEndpoint(ctx, rgIssuer, http.MethodGet, "/jwks", s.endpointJWKS)
	s.regEndpoint(ctx, rgIssuer, http.MethodPost, "/token", s.endpointToken)
	s.regEndpoint(ctx, rgIssuer, http.MethodPost, "/credential", s.endpointCredential)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Info("server stopped", "error", err.Error())
		}
	}()

	s.log.Info("started", "addr", s.server.Addr)

	return s, nil
}

// regEndpoint adapts a (context, *gin.Context) -> (any, error) handler into
// a gin.HandlerFunc, rendering core errors as RFC 7807 documents.
func (s *Service) regEndpoint(ctx context.Context, rg *gin.RouterGroup, method, path string, handler func(context.Context, *gin.Context) (any, error)) {
	rg.Handle(method, path, func(c *gin.Context) {
		res, err := handler(ctx, c)
		if err != nil {
			c.JSON(httphelpers.StatusFor(err), httphelpers.Problem(err))
			return
		}
		if res == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func (s *Service) middlewareLogger(_ context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// Close shuts the HTTP server down.
func (s *Service) Close(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.server.Shutdown(ctx)
}
