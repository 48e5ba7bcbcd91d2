package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rainbow-dataspace/authority/internal/core/model"
)

type minionsRepo struct {
	db *gorm.DB
}

func (r *minionsRepo) GetMe(ctx context.Context) (*model.Minion, error) {
	var m model.Minion
	err := r.db.WithContext(ctx).First(&m, "is_me = ?", true).Error
	if err != nil {
		return nil, wrapGormErr(err, "me")
	}
	return &m, nil
}

// ForceCreate upserts on participant_id: base_url, vc_uri,
// participant_slug and last_interaction are refreshed on conflict, other
// fields preserved (spec §3 "Minion").
func (r *minionsRepo) ForceCreate(ctx context.Context, m *model.Minion) error {
	m.LastInteraction = time.Now().UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"base_url", "vc_uri", "participant_slug", "last_interaction",
		}),
	}).Create(m).Error
	return wrapGormErr(err, m.ParticipantID)
}
