package repositories

import (
	"context"
	"time"

	"knowhub-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loginAuditRepository implements LoginAuditRepository interface
type loginAuditRepository struct {
	db *gorm.DB
}

// NewLoginAuditRepository creates a new login audit repository
func NewLoginAuditRepository(db *gorm.DB) LoginAuditRepository {
	return &loginAuditRepository{db: db}
}

// Create records one login attempt outcome
func (r *loginAuditRepository) Create(ctx context.Context, audit *models.LoginAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

// ListByUsername lists the most recent attempts for a username
func (r *loginAuditRepository) ListByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAudit, error) {
	var audits []*models.LoginAudit
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}

// DeleteOlderThan deletes audit rows past the retention window (cleanup job)
func (r *loginAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.LoginAudit{})
	return result.RowsAffected, result.Error
}
