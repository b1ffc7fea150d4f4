// Package cart keeps the working cart of one shopper session consistent.
//
// Items, the selected-items view and the checkout total are always derived
// from the same items list: every mutation recomputes both views from
// scratch. Operations never fail: unknown ids and invalid quantities are
// silent no-ops, compare state before and after to tell them apart.
package cart

import (
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

// A State is not safe for concurrent use. The owner serializes access.
type State struct {
	items         []domain.CartItem
	selected      []domain.CartItem
	checkoutTotal decimal.Decimal
}

func New() *State {
	return &State{checkoutTotal: decimal.Zero}
}

// Items returns a copy of all items in cart order.
func (s *State) Items() []domain.CartItem {
	return domain.CloneItems(s.items)
}

// SelectedItems returns a copy of items with Selected set, in cart order.
func (s *State) SelectedItems() []domain.CartItem {
	return domain.CloneItems(s.selected)
}

func (s *State) CheckoutTotal() decimal.Decimal {
	return s.checkoutTotal
}

// TotalAmount is the sum of line totals over all items.
func (s *State) TotalAmount() decimal.Decimal {
	return domain.SumLineTotals(s.items)
}

func (s *State) Len() int {
	return len(s.items)
}

// Item returns the item with id.
func (s *State) Item(id string) (domain.CartItem, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.CartItem{}, false
	}
	return s.items[i].Clone(), true
}

// AddItem merges newItem into the line with the same identity or appends it.
//
// Appended items start unselected. A merged line keeps its selection.
func (s *State) AddItem(newItem domain.CartItem) {
	if newItem.Quantity < 1 {
		return
	}

	for i := range s.items {
		if !s.items[i].SameLine(newItem) {
			continue
		}
		s.items[i].Quantity += newItem.Quantity
		if s.items[i].ItemID == "" {
			s.items[i].ItemID = newItem.ItemID
		}
		if newItem.Variant != nil {
			s.items[i].Variant = newItem.Clone().Variant
		}
		s.recompute()
		return
	}

	item := newItem.Clone()
	item.Selected = false
	s.items = append(s.items, item)
	s.recompute()
}

func (s *State) RemoveItem(id string) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.recompute()
}

// UpdateQuantity sets quantity of item id. Quantity below 1 is ignored.
func (s *State) UpdateQuantity(id string, quantity int) {
	if quantity < 1 {
		return
	}
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.items[i].Quantity = quantity
	s.recompute()
}

func (s *State) ToggleSelect(id string) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.items[i].Selected = !s.items[i].Selected
	s.recompute()
}

func (s *State) SelectAll() {
	s.setAll(true)
}

func (s *State) UnselectAll() {
	s.setAll(false)
}

// PrepareForCheckout returns the selected items and their total as a
// checkout intent. The working cart is left untouched.
func (s *State) PrepareForCheckout() domain.CheckoutIntent {
	return domain.CheckoutIntent{
		Items:          domain.CloneItems(s.selected),
		Subtotal:       s.checkoutTotal,
		DiscountAmount: decimal.Zero,
		FinalTotal:     s.checkoutTotal,
	}
}

func (s *State) Clear() {
	s.items = nil
	s.recompute()
}

// Reconcile merges a server snapshot into the working cart.
// See [Merge] for the rules.
func (s *State) Reconcile(server []domain.ItemRecord) MergeResult {
	res := Merge(s.items, server)
	s.items = domain.CloneItems(res.Items)
	s.recompute()
	return res
}

func (s *State) setAll(selected bool) {
	for i := range s.items {
		s.items[i].Selected = selected
	}
	s.recompute()
}

func (s *State) recompute() {
	s.selected = s.selected[:0:0]
	for _, it := range s.items {
		if it.Selected {
			s.selected = append(s.selected, it.Clone())
		}
	}
	s.checkoutTotal = domain.SumLineTotals(s.selected)
}

func (s *State) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.items {
		if s.items[i].ItemID == id {
			return i
		}
	}
	return -1
}
