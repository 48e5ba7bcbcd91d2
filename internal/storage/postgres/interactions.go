package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

type interactionsRepo struct {
	db *gorm.DB
}

func (r *interactionsRepo) GetByID(ctx context.Context, id string) (*model.Interaction, error) {
	var m model.Interaction
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormErr(err, id)
	}
	return &m, nil
}

func (r *interactionsRepo) Create(ctx context.Context, m *model.Interaction) error {
	return wrapGormErr(r.db.WithContext(ctx).Create(m).Error, m.ID)
}

func (r *interactionsRepo) Update(ctx context.Context, m *model.Interaction) error {
	return wrapGormErr(r.db.WithContext(ctx).Save(m).Error, m.ID)
}

func (r *interactionsRepo) Delete(ctx context.Context, id string) error {
	return wrapGormErr(r.db.WithContext(ctx).Delete(&model.Interaction{}, "id = ?", id).Error, id)
}

func (r *interactionsRepo) ByContinueID(ctx context.Context, continueID string) (*model.Interaction, error) {
	var m model.Interaction
	err := r.db.WithContext(ctx).First(&m, "continue_id = ?", continueID).Error
	if err != nil {
		return nil, wrapGormErr(err, continueID)
	}
	return &m, nil
}

func (r *interactionsRepo) ByReference(ctx context.Context, interactRef string) (*model.Interaction, error) {
	var m model.Interaction
	err := r.db.WithContext(ctx).First(&m, "interact_ref = ?", interactRef).Error
	if err != nil {
		return nil, wrapGormErr(err, interactRef)
	}
	return &m, nil
}
