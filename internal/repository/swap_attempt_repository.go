package repository

import (
	"context"

	"gorm.io/gorm"

	"swap-backend/internal/models"
)

// SwapAttemptRepository defines the interface for attempt log data access
type SwapAttemptRepository interface {
	Create(ctx context.Context, attempt *models.SwapAttemptLog) error
	List(ctx context.Context, state string, limit int) ([]models.SwapAttemptLog, error)
}

// swapAttemptRepository implements SwapAttemptRepository
type swapAttemptRepository struct {
	db *gorm.DB
}

// NewSwapAttemptRepository creates a new SwapAttemptRepository instance
func NewSwapAttemptRepository(db *gorm.DB) SwapAttemptRepository {
	return &swapAttemptRepository{db: db}
}

func (r *swapAttemptRepository) Create(ctx context.Context, attempt *models.SwapAttemptLog) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// List returns the most recent attempts, optionally filtered by state.
func (r *swapAttemptRepository) List(ctx context.Context, state string, limit int) ([]models.SwapAttemptLog, error) {
	query := r.db.WithContext(ctx).Model(&models.SwapAttemptLog{})
	if state != "" {
		query = query.Where("state = ?", state)
	}

	var attempts []models.SwapAttemptLog
	if err := query.Order("id DESC").Limit(limit).Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
