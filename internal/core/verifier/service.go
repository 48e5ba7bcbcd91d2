package verifier

import (
	"fmt"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/token"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// Config is the Verifier's own view of host configuration (spec §9
// "Acyclic composition").
type Config struct {
	Host    string
	APIPath string
	IsLocal bool
}

func (c Config) verifierHost() string {
	host := fmt.Sprintf("%s%s/verifier", c.Host, c.APIPath)
	return model.RewriteLocalhost(host, c.IsLocal)
}

// Service is the OIDC4VP pipeline (spec §4.3).
type Service struct {
	cfg Config
	log *logger.Log
}

// New constructs a Verifier service.
func New(cfg Config, log *logger.Log) *Service {
	return &Service{cfg: cfg, log: log}
}

// StartVP builds a fresh Verification record for a ceremony (spec §4.3
// "Creates a Verification record whose audience is the server's absolute
// /verifier/verify URL"). The response_uri doubles as the OIDC4VP
// client_id, which the redirect_uri client_id scheme requires to be
// identical to the endpoint receiving the VP token.
func (s *Service) StartVP(id string, vcType model.VcType) (*model.Verification, error) {
	s.log.Info("starting OIDC4VP")

	state, err := model.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	nonce, err := model.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	audience := fmt.Sprintf("%s/verify/%s", s.cfg.verifierHost(), state)

	return &model.Verification{
		ID:       id,
		Audience: audience,
		VcType:   vcType,
		State:    state,
		Nonce:    nonce,
	}, nil
}

// GenerateVerificationURI builds the openid4vp://authorize URI handed to
// the client as its interact.user_code_uri (spec §4.3 "verification URI").
func (s *Service) GenerateVerificationURI(v *model.Verification) string {
	s.log.Info("generating verification exchange uri")

	host := s.cfg.verifierHost()
	pdURI := fmt.Sprintf("%s/pd/%s", host, v.State)

	uri := fmt.Sprintf(
		"openid4vp://authorize?response_type=%s&client_id=%s&response_mode=%s&presentation_definition_uri=%s&client_id_scheme=%s&nonce=%s&response_uri=%s",
		"vp_token",
		urlEncode(v.Audience),
		"direct_post",
		urlEncode(pdURI),
		"redirect_uri",
		v.Nonce,
		urlEncode(v.Audience),
	)
	return uri
}

// GenerateVPD builds the presentation-definition document for a ceremony.
func (s *Service) GenerateVPD(v *model.Verification) VPDef {
	s.log.Info("generating a vp definition")
	return NewVPDef(v.ID, v.VcType)
}

// VerifyAll runs the full VP+VC validation pipeline in the strict order
// spec §4.3 mandates, stopping at the first failure.
func (s *Service) VerifyAll(v *model.Verification, vpToken string) error {
	s.log.Info("verifying all")

	vcs, holder, err := s.verifyVP(v, vpToken)
	if err != nil {
		return err
	}
	for _, vc := range vcs {
		if err := s.verifyVC(vc, holder); err != nil {
			return err
		}
	}
	s.log.Info("vp & vc validated successfully")
	return nil
}

func (s *Service) verifyVP(v *model.Verification, vpToken string) ([]string, string, error) {
	s.log.Info("verifying vp")

	v.Vpt = &vpToken

	result, err := token.ValidateJWT(vpToken, &v.Audience)
	if err != nil {
		return nil, "", err
	}
	claims := result.Claims
	kid := result.BaseDID

	nonce, err := getClaim(claims, "nonce")
	if err != nil {
		return nil, "", err
	}
	if nonce != v.Nonce {
		return nil, "", model.NewError(model.KindSecurity, "invalid nonce, it does not match")
	}

	if sub, ok, err := getOptClaim(claims, "sub"); err != nil {
		return nil, "", err
	} else if ok && sub != kid {
		return nil, "", model.NewError(model.KindSecurity, "vpt token subject & kid does not match")
	}
	if iss, ok, err := getOptClaim(claims, "iss"); err != nil {
		return nil, "", err
	} else if ok && iss != kid {
		return nil, "", model.NewError(model.KindSecurity, "vpt token issuer & kid does not match")
	}
	v.Holder = &kid

	vpID, err := getClaim(claims, "vp", "id")
	if err != nil {
		return nil, "", err
	}
	if vpID != v.ID {
		return nil, "", model.NewError(model.KindSecurity, "invalid id, it does not match")
	}

	vpHolder, err := getClaim(claims, "vp", "holder")
	if err != nil {
		return nil, "", err
	}
	if vpHolder != kid {
		return nil, "", model.NewError(model.KindSecurity, "invalid holder, it does not match")
	}

	vcs, err := retrieveVCs(claims)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("vp verification successful")
	return vcs, kid, nil
}

func (s *Service) verifyVC(vcToken, holder string) error {
	s.log.Info("verifying vc")

	result, err := token.ValidateJWT(vcToken, nil)
	if err != nil {
		return err
	}
	claims := result.Claims
	kid := result.BaseDID

	if iss, ok, err := getOptClaim(claims, "iss"); err != nil {
		return err
	} else if ok && iss != kid {
		return model.NewError(model.KindSecurity, "vc token issuer & kid does not match")
	}
	vcIssID, err := getClaim(claims, "vc", "issuer", "id")
	if err != nil {
		return err
	}
	if vcIssID != kid {
		return model.NewError(model.KindSecurity, "vc issuer & kid does not match")
	}

	vcID, err := getClaim(claims, "vc", "id")
	if err != nil {
		return err
	}
	if jti, ok, err := getOptClaim(claims, "jti"); err != nil {
		return err
	} else if ok && jti != vcID {
		return model.NewError(model.KindSecurity, "invalid id, jti does not match vc id")
	}

	if sub, ok, err := getOptClaim(claims, "sub"); err != nil {
		return err
	} else if ok && sub != holder {
		return model.NewError(model.KindSecurity, "vc sub, credential subject & vp holder do not match")
	}
	credSubID, err := getClaim(claims, "vc", "CredentialSubject", "id")
	if err != nil {
		return err
	}
	if credSubID != holder {
		return model.NewError(model.KindSecurity, "vc sub, credential subject & vp holder do not match")
	}

	if validFrom, ok, err := getOptClaim(claims, "vc", "validFrom"); err != nil {
		return err
	} else if ok {
		if err := token.CheckValidFrom(validFrom); err != nil {
			return err
		}
	}
	if validUntil, ok, err := getOptClaim(claims, "vc", "validUntil"); err != nil {
		return err
	} else if ok {
		if err := token.CheckValidUntil(validUntil); err != nil {
			return err
		}
	}

	s.log.Info("vc verification successful")
	return nil
}
