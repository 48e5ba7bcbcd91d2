package verifier

import (
	"net/url"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

func urlEncode(s string) string {
	return url.QueryEscape(s)
}

// getClaim walks path into claims, requiring every segment to be present
// and the final value to be a string.
func getClaim(claims jwt.MapClaims, path ...string) (string, error) {
	v, ok, err := getOptClaim(claims, path...)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", model.NewErrorDetail(model.KindBadFormat, "missing claim", joinPath(path))
	}
	return v, nil
}

// getOptClaim walks path into claims, returning ok=false when any segment
// is absent, and an error only when a present value is not a string.
func getOptClaim(claims jwt.MapClaims, path ...string) (string, bool, error) {
	var node interface{} = map[string]interface{}(claims)
	field := "unknown"
	if len(path) > 0 {
		field = path[len(path)-1]
	}
	for _, key := range path {
		m, ok := node.(map[string]interface{})
		if !ok {
			return "", false, nil
		}
		node, ok = m[key]
		if !ok {
			return "", false, nil
		}
	}
	s, ok := node.(string)
	if !ok {
		return "", false, model.NewErrorDetail(model.KindBadFormat, "field is not a string", field)
	}
	return s, true, nil
}

func retrieveVCs(claims jwt.MapClaims) ([]string, error) {
	vp, ok := claims["vp"].(map[string]interface{})
	if !ok {
		return nil, model.NewError(model.KindBadFormat, "vpt does not contain the 'vp' field")
	}
	raw, ok := vp["verifiableCredential"]
	if !ok {
		return nil, model.NewError(model.KindBadFormat, "vpt does not contain the 'verifiableCredential' field")
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, model.NewError(model.KindBadFormat, "verifiableCredential is not a list")
	}
	vcs := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, model.NewError(model.KindBadFormat, "verifiableCredential entry is not a string")
		}
		vcs = append(vcs, s)
	}
	return vcs, nil
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
