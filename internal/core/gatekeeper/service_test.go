package gatekeeper

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

type fakePoster struct {
	calls  int
	status int
	lastURL  string
	lastBody any
}

func (f *fakePoster) PostJSON(_ context.Context, url string, body any) (*http.Response, error) {
	f.calls++
	f.lastURL = url
	f.lastBody = body
	return &http.Response{StatusCode: f.status, Body: http.NoBody}, nil
}

func newService(poster Poster) *Service {
	return New(Config{Host: "http://127.0.0.1:1500", APIPath: "/api/v1"}, poster, logger.NewSimple("test"))
}

func TestValidateContReqMatches(t *testing.T) {
	s := newService(&fakePoster{})
	inter := &model.Interaction{InteractRef: "ref-1", ContinueToken: "tok-1"}

	require.NoError(t, s.ValidateContReq(inter, "ref-1", "tok-1"))
}

func TestValidateContReqMismatchIsSecurityError(t *testing.T) {
	s := newService(&fakePoster{})
	inter := &model.Interaction{InteractRef: "ref-1", ContinueToken: "tok-1"}

	err := s.ValidateContReq(inter, "ref-1", "wrong-token")
	require.Error(t, err)
	e, ok := model.AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindSecurity, e.Kind)
}

func TestEndVerificationRedirect(t *testing.T) {
	s := newService(&fakePoster{})
	inter := &model.Interaction{
		Method:      model.MethodRedirect,
		URI:         "https://client.example/cb",
		Hash:        "h1",
		InteractRef: "ref-1",
	}

	redirect, err := s.EndVerification(context.Background(), inter)
	require.NoError(t, err)
	require.NotNil(t, redirect)
	assert.Equal(t, "https://client.example/cb?hash=h1&interact_ref=ref-1", *redirect)
}

func TestEndVerificationPush(t *testing.T) {
	poster := &fakePoster{status: http.StatusOK}
	s := newService(poster)
	inter := &model.Interaction{
		Method:      model.MethodPush,
		URI:         "https://client.example/push",
		Hash:        "h1",
		InteractRef: "ref-1",
	}

	redirect, err := s.EndVerification(context.Background(), inter)
	require.NoError(t, err)
	assert.Nil(t, redirect)
	assert.Equal(t, 1, poster.calls)
	assert.Equal(t, "https://client.example/push", poster.lastURL)
}

func TestApprvDnyReqMarksMinionFailureOnBadStatus(t *testing.T) {
	poster := &fakePoster{status: http.StatusInternalServerError}
	s := newService(poster)
	req := &model.Request{Status: model.StatusPending}
	inter := &model.Interaction{URI: "https://client.example/push"}

	err := s.ApprvDnyReq(context.Background(), true, req, inter)
	require.Error(t, err)
	assert.Equal(t, model.StatusMinionFailure, req.Status)
}

func TestApprvDnyReqApprove(t *testing.T) {
	poster := &fakePoster{status: http.StatusOK}
	s := newService(poster)
	req := &model.Request{Status: model.StatusPending}
	inter := &model.Interaction{URI: "https://client.example/push", InteractRef: "ref-1"}

	require.NoError(t, s.ApprvDnyReq(context.Background(), true, req, inter))
	assert.Equal(t, model.StatusApproved, req.Status)
}
