package model

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// CheckUnique returns an *ErrDuplicateID for the first identifier that
// appears more than once in records.
func CheckUnique(records []Record) error {
	seen := roaring64.New()
	for _, r := range records {
		if !seen.CheckedAdd(uint64(r.id)) {
			return &ErrDuplicateID{ID: r.id}
		}
	}
	return nil
}
