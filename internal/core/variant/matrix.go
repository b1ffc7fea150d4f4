// Package variant resolves tier selections of a product into models.
//
// All functions are total: an incomplete or out-of-range selection yields
// "no value" instead of an error.
package variant

import (
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// DescriptionSeparator joins "<tier>: <option>" fragments.
const DescriptionSeparator = ", "

const keySeparator = ","

// A Matrix is an index from tier-index tuple to model of one product.
//
// Build it once per product with [NewMatrix] and reuse it.
type Matrix struct {
	product domain.Product
	index   map[string]int
}

func NewMatrix(p domain.Product) Matrix {
	index := make(map[string]int, len(p.Models))
	for i, m := range p.Models {
		if !ValidSelection(p.Tiers, m.TierIndex) {
			continue
		}
		k := key(m.TierIndex)
		if _, ok := index[k]; ok {
			continue // first wins, same as the linear scan
		}
		index[k] = i
	}
	return Matrix{product: p, index: index}
}

func (m Matrix) Product() domain.Product {
	return m.product
}

// Resolve returns the model addressed by selection.
func (m Matrix) Resolve(selection []int) (domain.Model, bool) {
	if !ValidSelection(m.product.Tiers, selection) {
		return domain.Model{}, false
	}
	i, ok := m.index[key(selection)]
	if !ok {
		return domain.Model{}, false
	}
	return m.product.Models[i], true
}

// ModelByID returns the model with id.
func (m Matrix) ModelByID(id string) (domain.Model, bool) {
	for _, model := range m.product.Models {
		if model.ModelID == id {
			return model, true
		}
	}
	return domain.Model{}, false
}

func (m Matrix) PriceRange() domain.PriceRange {
	return PriceRange(m.product)
}

func (m Matrix) Describe(selection []int) string {
	return DescribeSelection(m.product.Tiers, selection)
}

func (m Matrix) DisplayImage(selection []int) (string, bool) {
	return ResolveDisplayImage(m.product.Tiers, selection)
}

// ResolveModel scans models for the entry whose tier index equals selection.
//
// Behaves exactly as [Matrix.Resolve] without building an index.
func ResolveModel(
	tiers []domain.TierVariation, models []domain.Model, selection []int,
) (domain.Model, bool) {
	if !ValidSelection(tiers, selection) {
		return domain.Model{}, false
	}
	for _, m := range models {
		if equalIndex(m.TierIndex, selection) {
			return m, true
		}
	}
	return domain.Model{}, false
}

// ValidSelection reports whether selection has one in-bounds index per tier.
func ValidSelection(tiers []domain.TierVariation, selection []int) bool {
	if len(selection) != len(tiers) {
		return false
	}
	for i, idx := range selection {
		if idx < 0 || idx >= len(tiers[i].Options) {
			return false
		}
	}
	return true
}

// PriceRange returns min and max effective price over the product models.
//
// Model prices carry no discount. Without models both bounds are the
// effective product price.
func PriceRange(p domain.Product) domain.PriceRange {
	if len(p.Models) == 0 {
		v := domain.EffectiveUnitPrice(p.Price)
		return domain.PriceRange{Min: v, Max: v, Currency: p.Price.Currency}
	}

	first := domain.EffectiveUnitPrice(p.ModelPrice(p.Models[0]))
	r := domain.PriceRange{Min: first, Max: first, Currency: p.Price.Currency}
	for _, m := range p.Models[1:] {
		v := domain.EffectiveUnitPrice(p.ModelPrice(m))
		if v.LessThan(r.Min) {
			r.Min = v
		}
		if v.GreaterThan(r.Max) {
			r.Max = v
		}
	}
	return r
}

// DescribeSelection renders "<tier>: <option>" for every resolvable tier.
//
// Incomplete selections give partial output, never an error.
func DescribeSelection(tiers []domain.TierVariation, selection []int) string {
	var fragments []string
	for i, tier := range tiers {
		if i >= len(selection) {
			break
		}
		idx := selection[i]
		if idx < 0 || idx >= len(tier.Options) {
			continue
		}
		fragments = append(fragments, tier.Name+": "+tier.Options[idx])
	}
	return strings.Join(fragments, DescriptionSeparator)
}

// ResolveDisplayImage returns the first tier image for the selected option.
func ResolveDisplayImage(
	tiers []domain.TierVariation, selection []int,
) (string, bool) {
	if len(tiers) == 0 || len(selection) == 0 {
		return "", false
	}
	images := tiers[0].Images
	idx := selection[0]
	if idx < 0 || idx >= len(images) || images[idx] == "" {
		return "", false
	}
	return images[idx], true
}

func key(selection []int) string {
	var b strings.Builder
	for i, idx := range selection {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

func equalIndex(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
