package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

type verificationsRepo struct {
	db *gorm.DB
}

func (r *verificationsRepo) GetByID(ctx context.Context, id string) (*model.Verification, error) {
	var m model.Verification
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormErr(err, id)
	}
	return &m, nil
}

func (r *verificationsRepo) Create(ctx context.Context, m *model.Verification) error {
	return wrapGormErr(r.db.WithContext(ctx).Create(m).Error, m.ID)
}

func (r *verificationsRepo) Update(ctx context.Context, m *model.Verification) error {
	return wrapGormErr(r.db.WithContext(ctx).Save(m).Error, m.ID)
}

func (r *verificationsRepo) Delete(ctx context.Context, id string) error {
	return wrapGormErr(r.db.WithContext(ctx).Delete(&model.Verification{}, "id = ?", id).Error, id)
}

func (r *verificationsRepo) ByState(ctx context.Context, state string) (*model.Verification, error) {
	var m model.Verification
	err := r.db.WithContext(ctx).First(&m, "state = ?", state).Error
	if err != nil {
		return nil, wrapGormErr(err, state)
	}
	return &m, nil
}
