// Package walletclient is the Wallet Gateway (spec §2, §4): a remote-wallet
// RPC client treated as a fixed-surface key/DID custodian. Login, DID
// retrieval and JWKS publication are the only capabilities the core
// depends on; everything else about the wallet daemon is opaque.
package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// Config configures the remote wallet endpoint and credentials used to
// authenticate against it.
type Config struct {
	BaseURL string
	Type    string
	Name    string
	Email    string
	Password string
}

// session is the mutex-guarded wallet session state (spec §5 "The wallet
// gateway holds a mutex-guarded session (token, DID); only one task
// mutates it at a time.").
type session struct {
	mu    sync.Mutex
	token string
	did   string
}

// Client is the Wallet Gateway.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Log
	sess       session
}

// New creates a wallet gateway client.
func New(cfg Config, log *logger.Log) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type loginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	DID   string `json:"did"`
}

// Login authenticates against the wallet daemon and caches the session
// token and DID it returns.
func (c *Client) Login(ctx context.Context) error {
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()

	body := loginRequest{Name: c.cfg.Name, Email: c.cfg.Email, Password: c.cfg.Password}
	var reply loginResponse
	if err := c.call(ctx, http.MethodPost, "/api/login", body, &reply, ""); err != nil {
		return err
	}

	c.sess.token = reply.Token
	c.sess.did = reply.DID
	c.log.Info("wallet session established", "did", reply.DID)
	return nil
}

// DID returns the wallet's bound DID, logging in first if no session exists
// yet.
func (c *Client) DID(ctx context.Context) (string, error) {
	c.sess.mu.Lock()
	did := c.sess.did
	c.sess.mu.Unlock()
	if did != "" {
		return did, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	return c.sess.did, nil
}

// JWKS fetches the wallet's published JWK set, used to publish the
// authority's own /issuer/jwks endpoint.
func (c *Client) JWKS(ctx context.Context) (json.RawMessage, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/api/jwks", nil, &raw, token); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) authToken(ctx context.Context) (string, error) {
	c.sess.mu.Lock()
	token := c.sess.token
	c.sess.mu.Unlock()
	if token != "" {
		return token, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	return c.sess.token, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, reply any, bearer string) error {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return model.WrapError(model.KindConsumer, "invalid wallet base url", err)
	}
	rel, err := url.Parse(path)
	if err != nil {
		return model.WrapError(model.KindConsumer, "invalid wallet path", err)
	}
	full := u.ResolveReference(rel)

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return model.WrapError(model.KindConsumer, "failed to encode wallet request", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, full.String(), buf)
	if err != nil {
		return model.WrapError(model.KindConsumer, "failed to build wallet request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.WrapError(model.KindConsumer, "wallet gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.NewConsumerError(full.String(), method, resp.StatusCode, fmt.Sprintf("wallet gateway returned %d", resp.StatusCode))
	}

	if reply == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return model.WrapError(model.KindConsumer, "failed to decode wallet response", err)
	}
	return nil
}
