package rediscache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

type cachedIssuings struct {
	store.Issuings
	rc  *redis.Client
	log *logger.Log
}

func txCodeKey(txCode string) string { return fmt.Sprintf("issuing:tx:%s", txCode) }
func tokenKey(token string) string   { return fmt.Sprintf("issuing:token:%s", token) }

func (c *cachedIssuings) ByTxCode(ctx context.Context, txCode string) (*model.Issuing, error) {
	var m model.Issuing
	if get(ctx, c.rc, c.log, txCodeKey(txCode), &m) {
		return &m, nil
	}
	found, err := c.Issuings.ByTxCode(ctx, txCode)
	if err != nil {
		return nil, err
	}
	set(ctx, c.rc, c.log, txCodeKey(txCode), found)
	return found, nil
}

func (c *cachedIssuings) ByToken(ctx context.Context, token string) (*model.Issuing, error) {
	var m model.Issuing
	if get(ctx, c.rc, c.log, tokenKey(token), &m) {
		return &m, nil
	}
	found, err := c.Issuings.ByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	set(ctx, c.rc, c.log, tokenKey(token), found)
	return found, nil
}

// Update invalidates rather than refreshes: ValidateCredReq, IssueCred and
// the first credential-offer fetch mutate Did, Credential and Step on the
// same record that ByTxCode/ByToken index, and a stale cached copy without
// the stored Credential would let the VC be signed a second time (spec §8
// "No re-signing").
func (c *cachedIssuings) Update(ctx context.Context, m *model.Issuing) error {
	if err := c.Issuings.Update(ctx, m); err != nil {
		return err
	}
	del(ctx, c.rc, c.log, txCodeKey(m.TxCode), tokenKey(m.Token))
	return nil
}

func (c *cachedIssuings) Delete(ctx context.Context, id string) error {
	m, lookupErr := c.Issuings.GetByID(ctx, id)
	if err := c.Issuings.Delete(ctx, id); err != nil {
		return err
	}
	if lookupErr == nil {
		del(ctx, c.rc, c.log, txCodeKey(m.TxCode), tokenKey(m.Token))
	}
	return nil
}
