// Package store declares the persistence contract the ceremony engine is
// built against (spec §4.5, §5 "Ordering guarantees"). It owns no storage
// itself; internal/storage/postgres provides the production implementation
// and tests may substitute an in-memory one.
package store

import (
	"context"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

// Requests is the CRUD + lookup surface for Request.
type Requests interface {
	GetByID(ctx context.Context, id string) (*model.Request, error)
	GetAll(ctx context.Context, limit, offset int) ([]*model.Request, error)
	Create(ctx context.Context, r *model.Request) error
	Update(ctx context.Context, r *model.Request) error
	Delete(ctx context.Context, id string) error
}

// Interactions is the CRUD + secondary-index surface for Interaction.
type Interactions interface {
	GetByID(ctx context.Context, id string) (*model.Interaction, error)
	Create(ctx context.Context, i *model.Interaction) error
	Update(ctx context.Context, i *model.Interaction) error
	Delete(ctx context.Context, id string) error
	// ByContinueID looks up the interaction continuation is addressed to.
	ByContinueID(ctx context.Context, continueID string) (*model.Interaction, error)
	// ByReference looks up an interaction by its bound interact_ref.
	ByReference(ctx context.Context, interactRef string) (*model.Interaction, error)
}

// Verifications is the CRUD + secondary-index surface for Verification.
type Verifications interface {
	GetByID(ctx context.Context, id string) (*model.Verification, error)
	Create(ctx context.Context, v *model.Verification) error
	Update(ctx context.Context, v *model.Verification) error
	Delete(ctx context.Context, id string) error
	// ByState looks up a verification by the presentation-exchange state the
	// wallet was handed.
	ByState(ctx context.Context, state string) (*model.Verification, error)
}

// Issuings is the CRUD + secondary-index surface for Issuing.
type Issuings interface {
	GetByID(ctx context.Context, id string) (*model.Issuing, error)
	Create(ctx context.Context, i *model.Issuing) error
	Update(ctx context.Context, i *model.Issuing) error
	Delete(ctx context.Context, id string) error
	ByTxCode(ctx context.Context, txCode string) (*model.Issuing, error)
	ByToken(ctx context.Context, token string) (*model.Issuing, error)
}

// Minions is the upsert surface for the long-term participant identity.
type Minions interface {
	GetMe(ctx context.Context) (*model.Minion, error)
	// ForceCreate upserts on participant_id: base_url, last_interaction,
	// vc_uri and participant_slug are refreshed; other fields are preserved
	// on conflict (spec §3 "Minion").
	ForceCreate(ctx context.Context, m *model.Minion) error
}

// Store aggregates the five entity repositories behind one handle, shared
// immutably by the services that depend on it (spec §9 "Acyclic
// composition").
type Store interface {
	Requests() Requests
	Interactions() Interactions
	Verifications() Verifications
	Issuings() Issuings
	Minions() Minions
	Close(ctx context.Context) error
}
