package domain

import "github.com/shopspring/decimal"

type (
	// A VariantResolution answers a shopper's tier picks on a product page.
	VariantResolution struct {
		ProductID   string
		Selection   []int
		Model       *Model
		Price       Price
		PriceRange  PriceRange
		Description string
		Image       string
	}

	// An AddItemRequest addresses a model either by tier selection or by id.
	AddItemRequest struct {
		ProductID string
		ModelID   string
		Selection []int
		Quantity  int
	}

	CartView struct {
		SessionID     string
		Items         []CartItem
		SelectedItems []CartItem
		TotalAmount   decimal.Decimal
		CheckoutTotal decimal.Decimal
	}

	// A RefreshResult reports how a server fetch changed the cart.
	//
	// Applied is false when a newer fetch had already been merged.
	RefreshResult struct {
		Applied         bool
		Dropped         []string
		DroppedSelected []string
		Added           []string
		Cart            CartView
	}
)
