package quotestore

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"swap-backend/internal/models"
	"swap-backend/internal/repository"
)

// ArchiveStore wraps a Store and mirrors every created quote into the archive
// table. Archiving is best effort: a database failure is logged but never
// blocks quote issuance, and reads always come from the wrapped store.
type ArchiveStore struct {
	inner   Store
	archive repository.QuoteArchiveRepository
}

// NewArchiveStore wraps the inner store with database archiving.
func NewArchiveStore(inner Store, archive repository.QuoteArchiveRepository) *ArchiveStore {
	return &ArchiveStore{inner: inner, archive: archive}
}

func (s *ArchiveStore) Create(record *QuoteRecord) (string, error) {
	id, err := s.inner.Create(record)
	if err != nil {
		return "", err
	}

	if s.archive != nil {
		row := &models.QuoteArchive{
			QuoteID:   id,
			ChainID:   record.ChainID,
			TokenIn:   record.TokenIn.Hex(),
			TokenOut:  record.TokenOut.Hex(),
			Sender:    record.Sender.Hex(),
			AmountIn:  record.AmountIn.String(),
			AmountOut: record.AmountOut.String(),
			MinOut:    record.MinOut.String(),
			Router:    record.Route.Router.Hex(),
			Calldata:  hexutil.Encode(record.Route.Calldata),
			IssuedAt:  record.CreatedAt,
			Deadline:  record.ExpiresAt,
		}
		if err := s.archive.Create(context.Background(), row); err != nil {
			log.Printf("⚠️ [QuoteStore] Failed to archive quote %s: %v", id, err)
		}
	}

	return id, nil
}

func (s *ArchiveStore) Get(quoteID string) (*QuoteRecord, error) {
	return s.inner.Get(quoteID)
}
