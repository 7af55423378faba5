package transfer

import (
	"github.com/google/uuid"

	"finboard/internal/core"
)

// Merge appends incoming to existing without deduplication. An incoming
// transaction whose ID is empty or already taken is given a new one, so IDs
// stay unique. Neither input slice is modified.
func Merge(existing, incoming []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(existing)+len(incoming))
	out = append(out, existing...)

	seen := make(map[string]struct{}, cap(out))
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}
	for _, t := range incoming {
		if _, dup := seen[t.ID]; dup || t.ID == "" {
			t.ID = uuid.NewString()
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
