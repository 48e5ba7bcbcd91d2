// Package httphelpers maps core errors onto the transport boundary (spec
// §7 "Error Handling Design"). HTTP status codes and RFC 7807 problem
// documents are formed here from an error's Kind (the document's title is
// the Kind name), so the core stays transport-agnostic.
package httphelpers

import (
	"errors"
	"net/http"

	"github.com/moogar0880/problems"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

// StatusFor maps a core error Kind to the HTTP status it should surface as.
func StatusFor(err error) int {
	var e *model.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	if e.StatusHint != 0 {
		return e.StatusHint
	}
	switch e.Kind {
	case model.KindBadFormat:
		return http.StatusBadRequest
	case model.KindNotImplemented:
		return http.StatusNotImplemented
	case model.KindSecurity:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindMissingResource:
		return http.StatusNotFound
	case model.KindDatabase:
		return http.StatusInternalServerError
	case model.KindConsumer:
		return http.StatusBadGateway
	case model.KindRead:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Problem converts a core error into an RFC 7807 problem document for the
// HTTP response body.
func Problem(err error) *problems.Problem {
	status := StatusFor(err)
	p := problems.NewStatusProblem(status)

	var e *model.Error
	if errors.As(err, &e) {
		p.Title = string(e.Kind)
		p.Detail = e.Message
		if e.Detail != "" {
			p.Detail = e.Message + ": " + e.Detail
		}
	} else {
		p.Detail = err.Error()
	}

	return p
}
