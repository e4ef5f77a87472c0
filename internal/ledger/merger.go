// Package ledger implements the idempotent incremental merge of normalized
// transaction batches into the master ledger.
package ledger

import (
	"betpulse/pkg/contracts/domain"
)

// Merge merges new batches into the existing ledger, deduplicating by the
// natural key. Existing rows are never mutated or overwritten, even when a
// new row with the same key differs in other respects. Accepted new rows are
// appended after all existing rows in batch arrival order, then row order
// within each batch, so ledger order is append-history order rather than
// chronological order.
//
// Membership is a set test over derived keys, O(n+m) in the sizes of the
// ledger and the batches. An empty existing ledger is valid: every unique
// batch row becomes an insertion.
func Merge(existing []domain.Transaction, batches [][]domain.Transaction) (updated []domain.Transaction, inserted int) {
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		seen[row.NaturalKey()] = struct{}{}
	}

	updated = existing
	for _, batch := range batches {
		for _, row := range batch {
			key := row.NaturalKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			updated = append(updated, row)
			inserted++
		}
	}

	return updated, inserted
}
