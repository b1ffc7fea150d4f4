package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Amounts are encoded as decimal strings.
type (
	Price struct {
		Current  decimal.Decimal  `json:"current"`
		Discount *decimal.Decimal `json:"discount,omitempty"`
		Currency string           `json:"currency"`
	}

	PriceRange struct {
		Min      decimal.Decimal `json:"min"`
		Max      decimal.Decimal `json:"max"`
		Currency string          `json:"currency"`
	}

	Category struct {
		CategoryID string `json:"category_id"`
		Name       string `json:"name,omitempty"`
		Slug       string `json:"slug,omitempty"`
	}

	Tier struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
		Images  []string `json:"images,omitempty"`
	}

	Model struct {
		ModelID   string          `json:"model_id"`
		TierIndex []int           `json:"tier_index"`
		Price     decimal.Decimal `json:"price"`
		Stock     int             `json:"stock"`
		SoldCount int             `json:"sold_count"`
		SKU       string          `json:"sku,omitempty"`
	}

	Product struct {
		ProductID  string     `json:"product_id"`
		Name       string     `json:"name"`
		Category   Category   `json:"category"`
		Price      Price      `json:"price"`
		PriceRange PriceRange `json:"price_range"`
		Images     []string   `json:"images"`
		Tiers      []Tier     `json:"tiers"`
		Models     []Model    `json:"models"`
	}

	Variant struct {
		ProductID   string     `json:"product_id"`
		Selection   []int      `json:"selection"`
		Model       *Model     `json:"model,omitempty"`
		Price       Price      `json:"price"`
		PriceRange  PriceRange `json:"price_range"`
		Description string     `json:"description"`
		Image       string     `json:"image,omitempty"`
	}
)

type (
	ProductSnapshot struct {
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Image     string `json:"image,omitempty"`
	}

	VariantInfo struct {
		Description string `json:"description"`
		Image       string `json:"image,omitempty"`
	}

	CartItem struct {
		ItemID             string          `json:"item_id"`
		ProductID          string          `json:"product_id"`
		ModelID            string          `json:"model_id,omitempty"`
		Product            ProductSnapshot `json:"product"`
		Variant            *VariantInfo    `json:"variant,omitempty"`
		Quantity           int             `json:"quantity"`
		Price              Price           `json:"price"`
		EffectiveUnitPrice decimal.Decimal `json:"effective_unit_price"`
		LineTotal          decimal.Decimal `json:"line_total"`
		Selected           bool            `json:"selected"`
	}

	Cart struct {
		SessionID       string          `json:"session_id"`
		Items           []CartItem      `json:"items"`
		SelectedItemIDs []string        `json:"selected_item_ids"`
		TotalAmount     decimal.Decimal `json:"total_amount"`
		CheckoutTotal   decimal.Decimal `json:"checkout_total"`
	}

	Refresh struct {
		Applied         bool     `json:"applied"`
		Dropped         []string `json:"dropped"`
		DroppedSelected []string `json:"dropped_selected"`
		Added           []string `json:"added"`
		Cart            Cart     `json:"cart"`
	}

	CheckoutIntent struct {
		IntentID          string          `json:"intent_id"`
		Items             []CartItem      `json:"items"`
		Subtotal          decimal.Decimal `json:"subtotal"`
		DiscountCode      string          `json:"discount_code,omitempty"`
		DiscountAmount    decimal.Decimal `json:"discount_amount"`
		FinalTotal        decimal.Decimal `json:"final_total"`
		DiscountRejection string          `json:"discount_rejection,omitempty"`
		CreatedAt         time.Time       `json:"created_at"`
	}
)

type (
	AddItemRequest struct {
		ProductID string `json:"product_id"`
		ModelID   string `json:"model_id"`
		Selection []int  `json:"selection"`
		Quantity  int    `json:"quantity"`
	}

	UpdateQuantityRequest struct {
		Quantity int `json:"quantity"`
	}

	CheckoutRequest struct {
		DiscountCode string `json:"discount_code"`
	}
)

func toPrice(p domain.Price) Price {
	v := Price{Current: p.Current, Currency: p.Currency}
	if p.Discount.Valid {
		d := p.Discount.Decimal
		v.Discount = &d
	}
	return v
}

func toPriceRange(r domain.PriceRange) PriceRange {
	return PriceRange{Min: r.Min, Max: r.Max, Currency: r.Currency}
}

func toModel(m domain.Model) Model {
	return Model{
		ModelID:   m.ModelID,
		TierIndex: m.TierIndex,
		Price:     m.Price,
		Stock:     m.Stock,
		SoldCount: m.SoldCount,
		SKU:       m.SKU,
	}
}

func toProduct(p domain.Product, r domain.PriceRange) Product {
	v := Product{
		ProductID:  p.ProductID,
		Name:       p.Name,
		Price:      toPrice(p.Price),
		PriceRange: toPriceRange(r),
		Images:     p.Images,
		Tiers:      make([]Tier, len(p.Tiers)),
		Models:     make([]Model, len(p.Models)),
	}
	if v.Images == nil {
		v.Images = []string{}
	}

	info, _ := p.Category.Info()
	v.Category = Category{
		CategoryID: info.CategoryID,
		Name:       info.Name,
		Slug:       info.Slug,
	}

	for i, t := range p.Tiers {
		v.Tiers[i] = Tier{Name: t.Name, Options: t.Options, Images: t.Images}
	}
	for i, m := range p.Models {
		v.Models[i] = toModel(m)
	}
	return v
}

func toVariant(res domain.VariantResolution) Variant {
	v := Variant{
		ProductID:   res.ProductID,
		Selection:   res.Selection,
		Price:       toPrice(res.Price),
		PriceRange:  toPriceRange(res.PriceRange),
		Description: res.Description,
		Image:       res.Image,
	}
	if v.Selection == nil {
		v.Selection = []int{}
	}
	if res.Model != nil {
		m := toModel(*res.Model)
		v.Model = &m
	}
	return v
}

func toCartItem(it domain.CartItem) CartItem {
	v := CartItem{
		ItemID:    it.ItemID,
		ProductID: it.ProductID,
		ModelID:   it.ModelID,
		Product: ProductSnapshot{
			ProductID: it.Product.ProductID,
			Name:      it.Product.Name,
			Image:     it.Product.Image,
		},
		Quantity:           it.Quantity,
		Price:              toPrice(it.Price),
		EffectiveUnitPrice: domain.EffectiveUnitPrice(it.Price),
		LineTotal:          domain.LineTotal(it),
		Selected:           it.Selected,
	}
	if it.Variant != nil {
		v.Variant = &VariantInfo{
			Description: it.Variant.Description,
			Image:       it.Variant.Image,
		}
	}
	return v
}

func toCartItems(items []domain.CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, it := range items {
		out[i] = toCartItem(it)
	}
	return out
}

func toCart(c domain.CartView) Cart {
	v := Cart{
		SessionID:       c.SessionID,
		Items:           toCartItems(c.Items),
		SelectedItemIDs: make([]string, len(c.SelectedItems)),
		TotalAmount:     c.TotalAmount,
		CheckoutTotal:   c.CheckoutTotal,
	}
	for i, it := range c.SelectedItems {
		v.SelectedItemIDs[i] = it.ItemID
	}
	return v
}

func toRefresh(r domain.RefreshResult) Refresh {
	return Refresh{
		Applied:         r.Applied,
		Dropped:         nonNil(r.Dropped),
		DroppedSelected: nonNil(r.DroppedSelected),
		Added:           nonNil(r.Added),
		Cart:            toCart(r.Cart),
	}
}

func toCheckoutIntent(ci domain.CheckoutIntent) CheckoutIntent {
	return CheckoutIntent{
		IntentID:          ci.IntentID,
		Items:             toCartItems(ci.Items),
		Subtotal:          ci.Subtotal,
		DiscountCode:      ci.DiscountCode,
		DiscountAmount:    ci.DiscountAmount,
		FinalTotal:        ci.FinalTotal,
		DiscountRejection: string(ci.DiscountRejection),
		CreatedAt:         ci.CreatedAt,
	}
}

func (r AddItemRequest) toDomain() domain.AddItemRequest {
	return domain.AddItemRequest{
		ProductID: r.ProductID,
		ModelID:   r.ModelID,
		Selection: r.Selection,
		Quantity:  r.Quantity,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
