package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Sequence names for document numbering
const (
	sequenceInvoice = "invoice"
	sequenceBill    = "bill"
)

// nextSequenceValue atomically increments and returns the named sequence.
// The upsert-increment executes as a single statement, so concurrent callers
// can never observe the same value and numbers are never derived from row
// counts.
func nextSequenceValue(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	var value int64
	err := db.WithContext(ctx).Raw(`
		INSERT INTO number_sequences (name, value)
		VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = number_sequences.value + 1
		RETURNING value`, name).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

// formatDocumentNumber renders a sequence value as a zero-padded document
// number, e.g. INV-00042
func formatDocumentNumber(prefix string, value int64) string {
	return fmt.Sprintf("%s-%05d", prefix, value)
}
