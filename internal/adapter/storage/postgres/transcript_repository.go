package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

type TranscriptRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTranscriptRepository(db *gorm.DB, log *zap.Logger) ports.TranscriptRepository {
	return &TranscriptRepository{
		db:  db,
		log: log,
	}
}

// Save inserts a turn. Redelivered events with a known ID are ignored.
func (r *TranscriptRepository) Save(ctx context.Context, turn *domain.Turn) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(turn).Error
}

// FindByUserID returns the user's most recent turns, newest first.
func (r *TranscriptRepository) FindByUserID(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	var turns []domain.Turn
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc, turn_number desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&turns).Error
	return turns, err
}
