package issuer

import (
	"crypto/rsa"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/token"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// KeySource lazily resolves the authority's RSA signing key (spec §5
// "Shared resources": PEM key material SHOULD be cached).
type KeySource interface {
	Get() (*rsa.PrivateKey, error)
}

// Config is the Issuer's own view of host configuration (spec §9
// "Acyclic composition").
type Config struct {
	Host    string
	APIPath string
	IsLocal bool
}

func (c Config) issuerHost() string {
	host := fmt.Sprintf("%s%s/issuer", c.Host, c.APIPath)
	return model.RewriteLocalhost(host, c.IsLocal)
}

func (c Config) issuerHostWithoutProtocol() string {
	host := c.issuerHost()
	if i := indexAfterScheme(host); i >= 0 {
		return host[i:]
	}
	return host
}

func indexAfterScheme(s string) int {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == ':' && s[i+1] == '/' && s[i+2] == '/' {
			return i + 3
		}
	}
	return -1
}

// Service is the OIDC4VCI pre-authorized-code flow (spec §4.4).
type Service struct {
	cfg  Config
	keys KeySource
	log  *logger.Log
}

// New constructs an Issuer service.
func New(cfg Config, keys KeySource, log *logger.Log) *Service {
	return &Service{cfg: cfg, keys: keys, log: log}
}

// StartVCI builds the Issuing record for a ceremony whose request has
// already been approved and given a vc_uri (spec §4.2 "Continuation
// request" / §4.4).
func (s *Service) StartVCI(req *model.Request) (*model.Issuing, error) {
	s.log.Info("starting OIDC4VCI")

	txCode, err := model.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	preAuthCode, err := model.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	bearerToken, err := model.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	credentialID, err := model.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	uri := ""
	if req.VcURI != nil {
		uri = *req.VcURI
	}

	return &model.Issuing{
		ID:           req.ID,
		Name:         req.ParticipantSlug,
		VcType:       req.VcType,
		URI:          uri,
		Aud:          s.cfg.issuerHost(),
		TxCode:       txCode,
		PreAuthCode:  preAuthCode,
		Token:        bearerToken,
		CredentialID: credentialID,
		Step:         true,
	}, nil
}

// GenerateIssuingURI mints the openid-credential-offer:// URI for a
// ceremony id (spec §4.2 "mint the Issuer URI").
func (s *Service) GenerateIssuingURI(id string) string {
	semiHost := s.cfg.issuerHostWithoutProtocol()
	host := s.cfg.issuerHost()

	hHost := fmt.Sprintf("%s/credentialOffer?id=%s", host, id)
	encodedHost := url.QueryEscape(hHost)
	uri := fmt.Sprintf("openid-credential-offer://%s/?credential_offer_uri=%s", semiHost, encodedHost)
	s.log.Info("issuing uri generated", "uri", uri)
	return uri
}

// GetCredOfferData builds the credential offer for GET /credentialOffer.
// The model's step flag (true until first fetch) selects tx_code vs
// pre_auth_code (spec §4.4 "Credential offer").
func (s *Service) GetCredOfferData(m *model.Issuing) (VCCredOffer, error) {
	s.log.Info("retrieving credential offer data")

	code := m.PreAuthCode
	if m.Step {
		code = m.TxCode
	}
	return NewVCCredOffer(s.cfg.issuerHost(), code, m.VcType), nil
}

// GetIssuerData returns the issuer metadata document.
func (s *Service) GetIssuerData() IssuerMetadata {
	return NewIssuerMetadata(s.cfg.issuerHost())
}

// GetOAuthServerData returns the OAuth authorization server metadata document.
func (s *Service) GetOAuthServerData() AuthServerMetadata {
	return NewAuthServerMetadata(s.cfg.issuerHost())
}

// GetToken builds the token response for a validated token request.
func (s *Service) GetToken(m *model.Issuing) IssuingToken {
	return NewIssuingToken(m.Token)
}

// ValidateTokenReq checks the caller's tx_code and pre_auth_code against
// the stored record, both in constant time (spec §4.4 "Token").
func (s *Service) ValidateTokenReq(m *model.Issuing, txCode, preAuthCode string) error {
	s.log.Info("validating token request")

	if subtle.ConstantTimeCompare([]byte(m.TxCode), []byte(txCode)) != 1 {
		return model.NewError(model.KindForbidden, "tx_code does not match")
	}
	if subtle.ConstantTimeCompare([]byte(m.PreAuthCode), []byte(preAuthCode)) != 1 {
		return model.NewError(model.KindForbidden, "pre_auth_code does not match")
	}
	return nil
}

// ValidateCredReq validates a credential request end to end: bearer token,
// format, proof type, and proof-of-possession (spec §4.4 "Credential").
// On success it records the proven holder DID on m.
func (s *Service) ValidateCredReq(m *model.Issuing, reqBody *CredentialRequest, bearerToken string) error {
	s.log.Info("validating credential request")

	if subtle.ConstantTimeCompare([]byte(m.Token), []byte(bearerToken)) != 1 {
		return model.NewError(model.KindForbidden, "bearer token does not match")
	}
	if reqBody.Format != "jwt_vc_json" {
		return model.NewErrorDetail(model.KindBadFormat, "cannot issue a credential with this format", reqBody.Format)
	}
	if reqBody.Proof.ProofType != "jwt" {
		return model.NewErrorDetail(model.KindBadFormat, "cannot validate proof with this type", reqBody.Proof.ProofType)
	}

	aud := m.Aud
	result, err := token.ValidateJWT(reqBody.Proof.JWT, &aud)
	if err != nil {
		return err
	}

	if err := s.validateDidPossession(result); err != nil {
		return err
	}
	m.Did = &result.BaseDID

	iat, _ := result.Claims["iat"].(float64)
	exp, _ := result.Claims["exp"].(float64)
	if err := token.IsActive(int64(iat)); err != nil {
		return err
	}
	if err := token.HasExpired(int64(exp)); err != nil {
		return err
	}
	return nil
}

// validateDidPossession asserts iss == sub and sub == kid, proving the
// caller holds the private key behind the DID it claims (spec §4.4).
func (s *Service) validateDidPossession(result *token.ValidateResult) error {
	s.log.Info("validating did possession")

	iss, _ := result.Claims["iss"].(string)
	sub, _ := result.Claims["sub"].(string)
	if iss != sub || sub != result.BaseDID {
		return model.NewError(model.KindForbidden, "invalid proof of did possession")
	}
	return nil
}

// IssueCred signs and returns the VC JWT for a proven Issuing record (spec
// §4.4 "Build the VC claims" / "Sign RS256"). The signed JWT is cached on
// m.Credential; a repeated call for the same record must reuse it rather
// than re-sign (spec §5 "No re-signing", spec §8 invariant).
func (s *Service) IssueCred(m *model.Issuing, authorityDID string) (GiveVC, error) {
	s.log.Info("issuing cred")

	if m.Credential != nil {
		return GiveVC{Format: "jwt_vc_json", Credential: *m.Credential}, nil
	}

	holderDID := ""
	if m.Did != nil {
		holderDID = *m.Did
	}
	if holderDID == "" {
		return GiveVC{}, model.NewError(model.KindBadFormat, "missing field: did")
	}

	var subject interface{}
	switch m.VcType {
	case model.VcDataspaceParticipant:
		subject = NewCredentialSubject4DataSpace(holderDID, m.Name)
	case model.VcIdentity:
		subject = NewCredentialSubject4Identity(holderDID, m.Name)
	default:
		return GiveVC{}, model.NewErrorDetail(model.KindBadFormat, "unknown vc_type", string(m.VcType))
	}

	now := time.Now().UTC()
	vc := VerifiableCredential{
		Context:           []string{"https://www.w3.org/ns/credentials/v2"},
		Type:              []string{"VerifiableCredential", string(m.VcType)},
		ID:                m.CredentialID,
		CredentialSubject: subject,
		Issuer:            VCIssuer{ID: authorityDID, Name: "RainbowAuthority"},
		ValidFrom:         now.Format(time.RFC3339),
		ValidUntil:        now.AddDate(0, 0, 365).Format(time.RFC3339),
	}

	vcMap, err := toMapClaim(vc)
	if err != nil {
		return GiveVC{}, model.WrapError(model.KindBadFormat, "failed to encode vc claims", err)
	}
	claims := jwt.MapClaims{"vc": vcMap}

	key, err := s.keys.Get()
	if err != nil {
		return GiveVC{}, err
	}
	vcJWT, err := token.SignJWT(claims, key, authorityDID)
	if err != nil {
		return GiveVC{}, err
	}

	m.Credential = &vcJWT
	return GiveVC{Format: "jwt_vc_json", Credential: vcJWT}, nil
}

// End builds the Minion upsert recorded once a ceremony completes (spec
// §4.4 "Emit a Minion upsert").
func (s *Service) End(req *model.Request, inter *model.Interaction, iss *model.Issuing) (*model.Minion, error) {
	if iss.Did == nil || *iss.Did == "" {
		return nil, model.NewError(model.KindBadFormat, "missing field: did")
	}
	baseURL := model.TrimToBase(inter.URI)
	return &model.Minion{
		ParticipantID:   *iss.Did,
		ParticipantSlug: req.ParticipantSlug,
		ParticipantType: "Minion",
		BaseURL:         &baseURL,
		VcURI:           req.VcURI,
		IsVCIssued:      true,
		IsMe:            false,
	}, nil
}

func toMapClaim(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
