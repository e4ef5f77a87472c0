package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one settled bet outcome as stored in the master ledger.
// Rows are immutable once created; the ledger only ever grows.
type Transaction struct {
	MarketDescription string          `json:"market_description" csv:"Market"`
	SettledAt         time.Time       `json:"settled_at" csv:"SettledAt"`
	OutcomeAmount     decimal.Decimal `json:"outcome_amount" csv:"OutcomeAmount"`
}

// NaturalKey returns the composite dedup key for a transaction:
// market description, settlement time truncated to seconds, and the outcome
// amount. Two rows with the same key are always the same transaction.
// The key is derived, never stored.
func (t Transaction) NaturalKey() string {
	return fmt.Sprintf("%s|%d|%s",
		t.MarketDescription,
		t.SettledAt.Truncate(time.Second).Unix(),
		t.OutcomeAmount.String())
}

// EnrichedRecord is a Transaction plus the categorical attributes derived
// from the market description. It is a read-only view recomputed every run
// and never persisted.
type EnrichedRecord struct {
	Transaction

	Category    string `json:"category"`
	EntityRaw   string `json:"entity_raw,omitempty"`
	EntityName  string `json:"entity_name,omitempty"`
	EventDetail string `json:"event_detail,omitempty"`
	Region      string `json:"region"`
	TrackBased  bool   `json:"track_based"`
}
