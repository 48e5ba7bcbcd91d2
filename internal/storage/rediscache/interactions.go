package rediscache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

type cachedInteractions struct {
	store.Interactions
	rc  *redis.Client
	log *logger.Log
}

func continueKey(continueID string) string { return fmt.Sprintf("interaction:cont:%s", continueID) }
func referenceKey(ref string) string        { return fmt.Sprintf("interaction:ref:%s", ref) }

func (c *cachedInteractions) ByContinueID(ctx context.Context, continueID string) (*model.Interaction, error) {
	var m model.Interaction
	if get(ctx, c.rc, c.log, continueKey(continueID), &m) {
		return &m, nil
	}
	found, err := c.Interactions.ByContinueID(ctx, continueID)
	if err != nil {
		return nil, err
	}
	set(ctx, c.rc, c.log, continueKey(continueID), found)
	return found, nil
}

func (c *cachedInteractions) ByReference(ctx context.Context, interactRef string) (*model.Interaction, error) {
	var m model.Interaction
	if get(ctx, c.rc, c.log, referenceKey(interactRef), &m) {
		return &m, nil
	}
	found, err := c.Interactions.ByReference(ctx, interactRef)
	if err != nil {
		return nil, err
	}
	set(ctx, c.rc, c.log, referenceKey(interactRef), found)
	return found, nil
}

// Update invalidates both secondary-index entries (keyed by the record's
// current continue_id and interact_ref) rather than refreshing them in
// place, so the next lookup re-reads the updated record from the backing
// store instead of serving a stale cached copy.
func (c *cachedInteractions) Update(ctx context.Context, m *model.Interaction) error {
	if err := c.Interactions.Update(ctx, m); err != nil {
		return err
	}
	del(ctx, c.rc, c.log, continueKey(m.ContinueID), referenceKey(m.InteractRef))
	return nil
}

func (c *cachedInteractions) Delete(ctx context.Context, id string) error {
	m, lookupErr := c.Interactions.GetByID(ctx, id)
	if err := c.Interactions.Delete(ctx, id); err != nil {
		return err
	}
	if lookupErr == nil {
		del(ctx, c.rc, c.log, continueKey(m.ContinueID), referenceKey(m.InteractRef))
	}
	return nil
}
