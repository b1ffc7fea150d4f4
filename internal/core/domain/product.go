package domain

import "github.com/shopspring/decimal"

type (
	Product struct {
		ProductID string
		Name      string
		Category  Category
		Price     Price
		Images    []string
		Tiers     []TierVariation
		Models    []Model
	}

	// A TierVariation is a named axis of choice, e.g. "Color".
	//
	// Images is index-aligned with Options and meaningful only on the first tier.
	TierVariation struct {
		Name    string
		Options []string
		Images  []string
	}

	// A Model is a concrete purchasable unit (SKU), one tier index per tier.
	Model struct {
		ModelID   string
		TierIndex []int
		Price     decimal.Decimal
		Stock     int
		SoldCount int
		SKU       string
	}

	PriceRange struct {
		Min      decimal.Decimal
		Max      decimal.Decimal
		Currency string
	}
)

// ModelPrice returns the model price as a [Price] without discount.
func (p Product) ModelPrice(m Model) Price {
	return FlatPrice(m.Price, p.Price.Currency)
}

// CoverImage returns the first product image or empty string.
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type CategoryInfo struct {
	CategoryID string
	Name       string
	Slug       string
}

// A Category is either a reference by id or an embedded category object.
//
// Use [CategoryReference] or [CategoryEmbedded] to construct it.
type Category struct {
	id       string
	embedded *CategoryInfo
}

func CategoryReference(id string) Category {
	return Category{id: id}
}

func CategoryEmbedded(info CategoryInfo) Category {
	return Category{id: info.CategoryID, embedded: &info}
}

func (c Category) ID() string {
	return c.id
}

func (c Category) IsEmbedded() bool {
	return c.embedded != nil
}

// Info returns the embedded category, ok is false for references.
func (c Category) Info() (info CategoryInfo, ok bool) {
	if c.embedded == nil {
		return CategoryInfo{CategoryID: c.id}, false
	}
	return *c.embedded, true
}
