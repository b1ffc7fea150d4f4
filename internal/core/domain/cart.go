package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// A CartItem is one line of the working cart.
	//
	// Selected and Variant are client-only and never come from the server.
	CartItem struct {
		ItemID    string
		ProductID string
		ModelID   string
		Product   ProductSnapshot
		Variant   *VariantInfo
		Quantity  int
		Price     Price
		Selected  bool
	}

	ProductSnapshot struct {
		ProductID string
		Name      string
		Image     string
	}

	// A VariantInfo holds resolved display fields of the chosen model.
	VariantInfo struct {
		Description string
		Image       string
	}

	// An ItemRecord is a server-authoritative cart row.
	ItemRecord struct {
		ItemID    string
		ProductID string
		ModelID   string
		Quantity  int
		Price     Price
		Product   ProductSnapshot
	}
)

// SameLine reports whether both items address the same cart line:
// equal item id or equal product and model.
func (it CartItem) SameLine(other CartItem) bool {
	if it.ItemID != "" && it.ItemID == other.ItemID {
		return true
	}
	return it.ProductID == other.ProductID && it.ModelID == other.ModelID
}

// Clone returns a copy which does not share the Variant pointer.
func (it CartItem) Clone() CartItem {
	if it.Variant != nil {
		v := *it.Variant
		it.Variant = &v
	}
	return it
}

func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

// A CheckoutIntent is the value submitted to order placement.
type CheckoutIntent struct {
	IntentID          string
	SessionID         string
	Items             []CartItem
	Subtotal          decimal.Decimal
	DiscountCode      string
	DiscountAmount    decimal.Decimal
	FinalTotal        decimal.Decimal
	DiscountRejection RejectionReason
	CreatedAt         time.Time
}

func (ci CheckoutIntent) ItemIDs() []string {
	ids := make([]string, len(ci.Items))
	for i, it := range ci.Items {
		ids[i] = it.ItemID
	}
	return ids
}

// ProductIDs returns distinct product ids in item order.
func (ci CheckoutIntent) ProductIDs() []string {
	seen := make(map[string]struct{}, len(ci.Items))
	var ids []string
	for _, it := range ci.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// ApplyDiscount sets the discount result. Subtotal is never changed.
func (ci *CheckoutIntent) ApplyDiscount(code string, res DiscountResult) {
	ci.DiscountCode = code
	ci.DiscountAmount = res.DiscountAmount
	ci.FinalTotal = res.FinalTotal
	ci.DiscountRejection = ""
}

// RejectDiscount records the reason and keeps totals untouched.
func (ci *CheckoutIntent) RejectDiscount(code string, reason RejectionReason) {
	ci.DiscountCode = code
	ci.DiscountRejection = reason
}
