package transfer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tphakala/bonsai-go/internal/datastore"
)

// Mismatch is a table whose row counts differ after a copy.
type Mismatch struct {
	Table  string
	Source int64
	Target int64
}

// Verify compares the row count of every table. The target may hold more
// rows than the source when it was not cleaned.
func Verify(ctx context.Context, src, dst datastore.Interface) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, t := range tables {
		var srcCount, dstCount int64
		if err := src.DB().WithContext(ctx).Model(t.model).Count(&srcCount).Error; err != nil {
			return nil, fmt.Errorf("counting source %s: %w", t.name, err)
		}
		if err := dst.DB().WithContext(ctx).Model(t.model).Count(&dstCount).Error; err != nil {
			return nil, fmt.Errorf("counting target %s: %w", t.name, err)
		}
		if dstCount < srcCount {
			mismatches = append(mismatches, Mismatch{Table: t.name, Source: srcCount, Target: dstCount})
		}
	}
	return mismatches, nil
}

// FormatMismatches renders mismatches for an error message.
func FormatMismatches(mismatches []Mismatch) string {
	parts := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		parts = append(parts, fmt.Sprintf("%s: source %d, target %d", m.Table, m.Source, m.Target))
	}
	return strings.Join(parts, "; ")
}
