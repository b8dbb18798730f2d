package domain

import "github.com/google/uuid"

// SellerIDs returns the distinct seller ids implicated by the order's items.
// Items without a seller reference are ignored. The repository layer
// guarantees items arrive in one canonical shape, so this is a plain
// de-duplication over item.SellerID.
func SellerIDs(items []OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	var out []uuid.UUID
	for _, it := range items {
		if it.SellerID == nil {
			continue
		}
		if _, ok := seen[*it.SellerID]; ok {
			continue
		}
		seen[*it.SellerID] = struct{}{}
		out = append(out, *it.SellerID)
	}
	return out
}

// SoleSellerID returns the seller id when every seller-owned item in the
// order resolves to exactly one distinct seller, nil otherwise.
func SoleSellerID(items []OrderItem) *uuid.UUID {
	ids := SellerIDs(items)
	if len(ids) == 1 {
		id := ids[0]
		return &id
	}
	return nil
}
