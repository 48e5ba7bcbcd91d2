package gatekeeper

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// Poster is the outbound collaborator used to fire GNAP callbacks (spec
// §1 "Out of scope": the outbound HTTP client").
type Poster interface {
	PostJSON(ctx context.Context, url string, body any) (*http.Response, error)
}

// Config is the GateKeeper's own view of host configuration, kept narrow so
// this package never depends on pkg/configuration directly (spec §9
// "Acyclic composition": services depend only on their configs").
type Config struct {
	Host    string // e.g. "http://127.0.0.1:1500"
	APIPath string // e.g. "/api/v1"
}

func (c Config) gateHost() string {
	return fmt.Sprintf("%s%s/gate", c.Host, c.APIPath)
}

// Service is the GNAP protocol state machine (spec §4.2).
type Service struct {
	cfg    Config
	poster Poster
	log    *logger.Log
}

// New constructs a GateKeeper service.
func New(cfg Config, poster Poster, log *logger.Log) *Service {
	return &Service{cfg: cfg, poster: poster, log: log}
}

// ValidateAccReq validates the interact block of a grant request and
// returns it. Errors: NotImplemented when interact is absent or declares
// no supported start mode; BadFormat when finish.uri is missing (spec
// §4.2 "Inbound grant request").
func (s *Service) ValidateAccReq(payload *GrantRequest) (*Interact, error) {
	s.log.Info("validating vc access request")

	if payload.Interact == nil {
		cause := "only petitions with an 'interact' field are supported right now"
		return nil, model.NewError(model.KindNotImplemented, cause)
	}
	interact := payload.Interact

	if !containsString(interact.Start, "cross-user") && !containsString(interact.Start, "oidc4vp") {
		return nil, model.NewError(model.KindNotImplemented, "interact method not supported yet")
	}

	if interact.Finish.URI == nil || *interact.Finish.URI == "" {
		return nil, model.NewError(model.KindBadFormat, "interact method does not have a uri")
	}

	return interact, nil
}

// Start validates a grant request and builds the fresh Request and
// Interaction records the orchestrator will persist (spec §4.2 "Inbound
// grant request"). It does not persist them itself.
func (s *Service) Start(payload GrantRequest) (*model.Request, *model.Interaction, error) {
	s.log.Info("managing vc request")

	interact, err := s.ValidateAccReq(&payload)
	if err != nil {
		return nil, nil, err
	}

	vcType, err := model.ParseVcType(payload.AccessToken.Access.Type)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.NewString()
	participantSlug := "Slug"
	if payload.Client.ClassID != nil {
		participantSlug = *payload.Client.ClassID
	}

	req := &model.Request{
		ID:              id,
		ParticipantSlug: participantSlug,
		Cert:            payload.Client.Key.Cert,
		VcType:          vcType,
		Status:          model.StatusPending,
	}

	continueToken, err := model.NewOpaqueToken()
	if err != nil {
		return nil, nil, err
	}

	gateHost := s.cfg.gateHost()
	inter := &model.Interaction{
		ID:               id,
		Start:            interact.Start,
		Method:           model.InteractMethod(interact.Finish.Method),
		URI:              *interact.Finish.URI,
		ClientNonce:      interact.Finish.Nonce,
		HashMethod:       interact.Finish.HashMethod,
		ContinueEndpoint: gateHost + "/continue",
		ContinueID:       id,
		ContinueToken:    continueToken,
	}

	return req, inter, nil
}

// ValidateContReq authenticates a continuation request: the bearer token
// must match the stored continue_token AND the body's interact_ref must
// match the stored one, both compared in constant time (spec §4.2
// "Continuation request", and spec §9 Open Questions: "this spec mandates"
// constant-time comparison even though the original used ordinary
// equality).
func (s *Service) ValidateContReq(inter *model.Interaction, interactRef, token string) error {
	s.log.Info("validating continue request")

	if subtle.ConstantTimeCompare([]byte(interactRef), []byte(inter.InteractRef)) != 1 {
		return model.NewErrorDetail(model.KindSecurity, "interact reference does not match", interactRef)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(inter.ContinueToken)) != 1 {
		return model.NewErrorDetail(model.KindSecurity, "continue token does not match", token)
	}
	return nil
}

// EndVerification resolves the post-verification handoff: a redirect URL
// for the "redirect" method, or a fire-and-forget push for "push" (spec
// §4.2 "End-of-verification").
func (s *Service) EndVerification(ctx context.Context, inter *model.Interaction) (*string, error) {
	s.log.Info("ending verification")

	switch inter.Method {
	case model.MethodRedirect:
		redirect := fmt.Sprintf("%s?hash=%s&interact_ref=%s", inter.URI, inter.Hash, inter.InteractRef)
		return &redirect, nil
	case model.MethodPush:
		body := CallbackBody{InteractRef: inter.InteractRef, Hash: inter.Hash}
		if _, err := s.poster.PostJSON(ctx, inter.URI, body); err != nil {
			return nil, model.WrapError(model.KindConsumer, "minion did not receive callback", err)
		}
		return nil, nil
	default:
		return nil, model.NewErrorDetail(model.KindNotImplemented, "interact method not supported", string(inter.Method))
	}
}

// ApprvDnyReq builds and dispatches the operator's approve/deny decision to
// the client's push endpoint (spec §4.2 "Operator decision"). A non-200
// response marks the request Minion_failure and returns a Consumer error.
func (s *Service) ApprvDnyReq(ctx context.Context, approve bool, req *model.Request, inter *model.Interaction) error {
	var body any
	if approve {
		s.log.Info("approving petition to obtain a VC")
		req.Status = model.StatusApproved
		body = CallbackBody{InteractRef: inter.InteractRef, Hash: inter.Hash}
	} else {
		s.log.Info("rejecting petition to obtain a VC")
		req.Status = model.StatusFinalized
		body = RejectedCallbackBody{Rejected: "petition was rejected"}
	}

	resp, err := s.poster.PostJSON(ctx, inter.URI, body)
	if err != nil {
		req.Status = model.StatusMinionFailure
		return model.WrapError(model.KindConsumer, "minion callback unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		req.Status = model.StatusMinionFailure
		return model.NewConsumerError(inter.URI, "POST", resp.StatusCode, "minion did not receive callback successfully")
	}

	s.log.Info("minion received callback successfully")
	return nil
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
