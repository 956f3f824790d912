package shared

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// RecomputeProductStock re-sums variant stock for each product and writes the
// product cache. It must run on the same repositories as the stock change.
func RecomputeProductStock(ctx context.Context, repos TransactionalRepositories, productIDs ...uuid.UUID) error {
	for _, id := range SortedIDs(productIDs) {
		total, err := repos.Variants().SumStockByProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("sum stock of product %s: %w", id, err)
		}
		if err := repos.Products().UpdateStockQuantity(ctx, id, total); err != nil {
			return fmt.Errorf("update stock of product %s: %w", id, err)
		}
	}
	return nil
}

// SortedIDs returns the distinct ids in ascending order. Locking rows in this
// order keeps concurrent transactions from deadlocking each other.
func SortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
