// Package sink publishes a computed report set to its output surfaces:
// CSV report files and a Google Sheets workbook.
package sink

import (
	"context"

	"betpulse/pkg/contracts/domain"
)

// Sink publishes one full report set. Publishing is replace-semantics: a
// sink always writes the complete current state, never a delta.
type Sink interface {
	Publish(ctx context.Context, set domain.ReportSet) error
	Name() string
}
