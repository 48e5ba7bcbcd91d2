package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

type requestsRepo struct {
	db *gorm.DB
}

func (r *requestsRepo) GetByID(ctx context.Context, id string) (*model.Request, error) {
	var m model.Request
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormErr(err, id)
	}
	return &m, nil
}

func (r *requestsRepo) GetAll(ctx context.Context, limit, offset int) ([]*model.Request, error) {
	var ms []*model.Request
	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, wrapGormErr(err, "")
	}
	return ms, nil
}

func (r *requestsRepo) Create(ctx context.Context, m *model.Request) error {
	return wrapGormErr(r.db.WithContext(ctx).Create(m).Error, m.ID)
}

func (r *requestsRepo) Update(ctx context.Context, m *model.Request) error {
	return wrapGormErr(r.db.WithContext(ctx).Save(m).Error, m.ID)
}

func (r *requestsRepo) Delete(ctx context.Context, id string) error {
	return wrapGormErr(r.db.WithContext(ctx).Delete(&model.Request{}, "id = ?", id).Error, id)
}
