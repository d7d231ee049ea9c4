// Package repository provides data access interfaces and implementations
package repository

import (
	"context"

	"gorm.io/gorm"

	"swap-backend/internal/models"
)

// QuoteArchiveRepository defines the interface for quote archive data access
type QuoteArchiveRepository interface {
	Create(ctx context.Context, quote *models.QuoteArchive) error
	GetByQuoteID(ctx context.Context, quoteID string) (*models.QuoteArchive, error)
	List(ctx context.Context, sender string, limit, offset int) ([]models.QuoteArchive, int64, error)
}

// quoteArchiveRepository implements QuoteArchiveRepository
type quoteArchiveRepository struct {
	db *gorm.DB
}

// NewQuoteArchiveRepository creates a new QuoteArchiveRepository instance
func NewQuoteArchiveRepository(db *gorm.DB) QuoteArchiveRepository {
	return &quoteArchiveRepository{db: db}
}

func (r *quoteArchiveRepository) Create(ctx context.Context, quote *models.QuoteArchive) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteArchiveRepository) GetByQuoteID(ctx context.Context, quoteID string) (*models.QuoteArchive, error) {
	var quote models.QuoteArchive
	err := r.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns a page of archived quotes, newest first, optionally filtered
// by sender.
func (r *quoteArchiveRepository) List(ctx context.Context, sender string, limit, offset int) ([]models.QuoteArchive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.QuoteArchive{})
	if sender != "" {
		query = query.Where("sender = ?", sender)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quotes []models.QuoteArchive
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}
