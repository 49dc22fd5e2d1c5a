package domain

import "time"

// SourceCursor is the per-source watermark bounding what counts as new.
type SourceCursor struct {
	Key                 string
	SourceID            string
	LastProcessed       *time.Time
	TotalItemsProcessed int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsNew classifies an entry against the watermark. Entries without a
// usable date are always new.
func (c SourceCursor) IsNew(published *time.Time) bool {
	if published == nil || c.LastProcessed == nil {
		return true
	}
	return published.After(*c.LastProcessed)
}

// LaterOf returns the later of two optional timestamps.
func LaterOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
