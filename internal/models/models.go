package models

import (
	"time"
)

// QuoteArchive is the durable copy of every quote the service hands out. The
// hot read path stays in memory; this table feeds the admin surface and
// audit.
type QuoteArchive struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	QuoteID   string `gorm:"uniqueIndex;size:64;not null" json:"quote_id"`
	ChainID   uint64 `gorm:"not null" json:"chain_id"`
	TokenIn   string `gorm:"size:42;not null" json:"token_in"`
	TokenOut  string `gorm:"size:42;not null" json:"token_out"`
	Sender    string `gorm:"size:42;not null;index" json:"sender"`
	AmountIn  string `gorm:"size:80;not null" json:"amount_in"`
	AmountOut string `gorm:"size:80;not null" json:"amount_out"`
	MinOut    string `gorm:"size:80;not null" json:"min_out"`
	Router    string `gorm:"size:42;not null" json:"router"`
	Calldata  string `gorm:"type:text" json:"calldata"` // hex
	IssuedAt  int64  `gorm:"not null" json:"issued_at"`
	Deadline  int64  `gorm:"not null;index" json:"deadline"`

	CreatedAt time.Time `json:"created_at"`
}

// SwapAttemptLog records each pipeline attempt's terminal outcome.
type SwapAttemptLog struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	AttemptID string `gorm:"uniqueIndex;size:64;not null" json:"attempt_id"`
	QuoteID   string `gorm:"size:64;index" json:"quote_id"`
	Sender    string `gorm:"size:42;index" json:"sender"`
	State     string `gorm:"size:32;not null" json:"state"`
	Reason    string `gorm:"size:64" json:"reason"`
	OpHash    string `gorm:"size:66" json:"op_hash"`
	FeeAmount string `gorm:"size:80" json:"fee_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
