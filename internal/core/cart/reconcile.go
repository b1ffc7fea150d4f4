package cart

import "github.com/niksmo/storefront/internal/core/domain"

// A MergeResult is the outcome of merging a server snapshot.
//
// Dropped holds local items the server no longer has, Added holds ids
// of server items that were unknown locally.
type MergeResult struct {
	Items   []domain.CartItem
	Dropped []domain.CartItem
	Added   []string
}

// DroppedSelected returns dropped items which were selected.
func (r MergeResult) DroppedSelected() []domain.CartItem {
	var out []domain.CartItem
	for _, it := range r.Dropped {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// Merge combines server records with local client-only state.
//
// The result holds every server record once, in server order, with
// server price, quantity and product data. A record matching a local item
// by id inherits its Selected flag and, when the model is unchanged, its
// Variant. Local items absent on the server are dropped. Records with
// quantity below 1 or without id are ignored.
func Merge(local []domain.CartItem, server []domain.ItemRecord) MergeResult {
	byID := make(map[string]domain.CartItem, len(local))
	for _, it := range local {
		if it.ItemID == "" {
			continue
		}
		if _, ok := byID[it.ItemID]; !ok {
			byID[it.ItemID] = it
		}
	}

	var res MergeResult
	res.Items = make([]domain.CartItem, 0, len(server))
	seen := make(map[string]struct{}, len(server))

	for _, rec := range server {
		if rec.ItemID == "" || rec.Quantity < 1 {
			continue
		}
		if _, dup := seen[rec.ItemID]; dup {
			continue
		}
		seen[rec.ItemID] = struct{}{}

		merged := fromRecord(rec)
		if prev, ok := byID[rec.ItemID]; ok {
			merged.Selected = prev.Selected
			if prev.ModelID == rec.ModelID {
				merged.Variant = prev.Clone().Variant
			}
		} else {
			res.Added = append(res.Added, rec.ItemID)
		}
		res.Items = append(res.Items, merged)
	}

	for _, it := range local {
		if _, ok := seen[it.ItemID]; !ok {
			res.Dropped = append(res.Dropped, it.Clone())
		}
	}

	return res
}

func fromRecord(rec domain.ItemRecord) domain.CartItem {
	return domain.CartItem{
		ItemID:    rec.ItemID,
		ProductID: rec.ProductID,
		ModelID:   rec.ModelID,
		Product:   rec.Product,
		Quantity:  rec.Quantity,
		Price:     rec.Price,
	}
}
