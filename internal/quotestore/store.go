// Package quotestore holds quote records keyed by identifier with lazy
// time-based expiry. The store is the only shared mutable resource between
// concurrent swap attempts.
package quotestore

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"swap-backend/internal/swaperr"
)

// Route is the exact on-chain call the resulting UserOperation must invoke.
type Route struct {
	Router   common.Address `json:"router"`
	Calldata []byte         `json:"calldata"`
}

// QuoteRecord is immutable once created. ExpiresAt doubles as the on-chain
// swap deadline: the instant the quote dies off-chain is the instant the
// router call would revert on-chain.
type QuoteRecord struct {
	QuoteID   string         `json:"quoteId"`
	ChainID   uint64         `json:"chainId"`
	CreatedAt int64          `json:"createdAt"` // unix seconds
	ExpiresAt int64          `json:"expiresAt"` // unix seconds, == on-chain deadline
	TokenIn   common.Address `json:"tokenIn"`
	TokenOut  common.Address `json:"tokenOut"`
	Sender    common.Address `json:"sender"`
	AmountIn  *big.Int       `json:"amountIn"`
	AmountOut *big.Int       `json:"amountOut"` // expected gross output
	MinOut    *big.Int       `json:"minOut"`    // guaranteed minimum
	Route     Route          `json:"route"`
}

// clone returns a deep copy so callers can never mutate the stored record.
func (r *QuoteRecord) clone() *QuoteRecord {
	cp := *r
	if r.AmountIn != nil {
		cp.AmountIn = new(big.Int).Set(r.AmountIn)
	}
	if r.AmountOut != nil {
		cp.AmountOut = new(big.Int).Set(r.AmountOut)
	}
	if r.MinOut != nil {
		cp.MinOut = new(big.Int).Set(r.MinOut)
	}
	cp.Route.Calldata = append([]byte(nil), r.Route.Calldata...)
	return &cp
}

// Clock abstracts the wall clock so expiry is deterministically testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Store is the quote persistence abstraction.
type Store interface {
	// Create generates an unguessable identifier, persists the record under
	// it and returns the id. Creating a record that already carries an id of
	// an existing record is rejected.
	Create(record *QuoteRecord) (string, error)
	// Get returns a copy of the record, swaperr.NotFound for an unknown id,
	// or swaperr.Expired once now >= ExpiresAt.
	Get(quoteID string) (*QuoteRecord, error)
}

// MemoryStore is the in-process Store used on the hot path. Expiry is
// evaluated lazily at read time; nothing sweeps in the background.
type MemoryStore struct {
	mu     sync.RWMutex
	quotes map[string]*QuoteRecord
	clock  Clock
}

// NewMemoryStore creates a store reading time from the given clock.
func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryStore{
		quotes: make(map[string]*QuoteRecord),
		clock:  clock,
	}
}

// Create assigns a fresh UUID when the record has none. A pre-set id that
// collides with an existing record is rejected rather than overwritten.
func (s *MemoryStore) Create(record *QuoteRecord) (string, error) {
	if record == nil {
		return "", swaperr.MissingFieldErr("record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := record.QuoteID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.quotes[id]; exists {
		return "", swaperr.Validationf("quote_id_collision", "quote id %s already exists", id)
	}

	stored := record.clone()
	stored.QuoteID = id
	s.quotes[id] = stored
	record.QuoteID = id
	return id, nil
}

// Get returns a copy of the live record. The expiry comparison uses the clock
// read at call time, so a record logically dies the instant now >= ExpiresAt
// whether or not it is ever read again.
func (s *MemoryStore) Get(quoteID string) (*QuoteRecord, error) {
	s.mu.RLock()
	record, ok := s.quotes[quoteID]
	s.mu.RUnlock()

	if !ok {
		return nil, swaperr.NotFoundf("quote %s not found", quoteID)
	}
	if s.clock.Now().Unix() >= record.ExpiresAt {
		return nil, swaperr.Expiredf("quote %s expired at %d", quoteID, record.ExpiresAt)
	}
	return record.clone(), nil
}
