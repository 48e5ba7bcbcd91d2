package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

type issuingsRepo struct {
	db *gorm.DB
}

func (r *issuingsRepo) GetByID(ctx context.Context, id string) (*model.Issuing, error) {
	var m model.Issuing
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormErr(err, id)
	}
	return &m, nil
}

func (r *issuingsRepo) Create(ctx context.Context, m *model.Issuing) error {
	return wrapGormErr(r.db.WithContext(ctx).Create(m).Error, m.ID)
}

func (r *issuingsRepo) Update(ctx context.Context, m *model.Issuing) error {
	return wrapGormErr(r.db.WithContext(ctx).Save(m).Error, m.ID)
}

func (r *issuingsRepo) Delete(ctx context.Context, id string) error {
	return wrapGormErr(r.db.WithContext(ctx).Delete(&model.Issuing{}, "id = ?", id).Error, id)
}

func (r *issuingsRepo) ByTxCode(ctx context.Context, txCode string) (*model.Issuing, error) {
	var m model.Issuing
	err := r.db.WithContext(ctx).First(&m, "tx_code = ?", txCode).Error
	if err != nil {
		return nil, wrapGormErr(err, txCode)
	}
	return &m, nil
}

func (r *issuingsRepo) ByToken(ctx context.Context, token string) (*model.Issuing, error) {
	var m model.Issuing
	err := r.db.WithContext(ctx).First(&m, "token = ?", token).Error
	if err != nil {
		return nil, wrapGormErr(err, token)
	}
	return &m, nil
}
