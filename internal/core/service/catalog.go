package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/variant"
)

func (s Service) Product(
	ctx context.Context, productID string,
) (domain.Product, domain.PriceRange, error) {
	const op = "Service.Product"

	m, err := s.matrix(ctx, productID)
	if err != nil {
		return domain.Product{}, domain.PriceRange{}, fmt.Errorf("%s: %w", op, err)
	}
	return m.Product(), m.PriceRange(), nil
}

// ResolveVariant answers the shopper's current tier picks.
//
// An incomplete selection is not an error: Model stays nil and the
// description covers the resolvable tiers only.
func (s Service) ResolveVariant(
	ctx context.Context, productID string, selection []int,
) (domain.VariantResolution, error) {
	const op = "Service.ResolveVariant"

	m, err := s.matrix(ctx, productID)
	if err != nil {
		return domain.VariantResolution{}, fmt.Errorf("%s: %w", op, err)
	}

	p := m.Product()
	res := domain.VariantResolution{
		ProductID:   p.ProductID,
		Selection:   selection,
		Price:       p.Price,
		PriceRange:  m.PriceRange(),
		Description: m.Describe(selection),
	}
	if img, ok := m.DisplayImage(selection); ok {
		res.Image = img
	}
	if model, ok := m.Resolve(selection); ok {
		res.Model = &model
		res.Price = p.ModelPrice(model)
	}
	return res, nil
}

// matrix returns the cached variant matrix of a product, reading the
// catalog on miss.
func (s Service) matrix(ctx context.Context, productID string) (variant.Matrix, error) {
	const op = "Service.matrix"

	if err := ctx.Err(); err != nil {
		return variant.Matrix{}, fmt.Errorf("%s: %w", op, err)
	}

	if m, ok := s.matrices.Get(productID); ok {
		return m, nil
	}

	p, err := s.catalog.ReadProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return variant.Matrix{}, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return variant.Matrix{}, fmt.Errorf("%s: %w", op, err)
	}

	m := variant.NewMatrix(p)
	s.matrices.Add(productID, m)
	return m, nil
}

// resolveLine builds the cart line for an add request.
func (s Service) resolveLine(
	ctx context.Context, req domain.AddItemRequest,
) (domain.CartItem, error) {
	const op = "Service.resolveLine"

	m, err := s.matrix(ctx, req.ProductID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	p := m.Product()
	item := domain.CartItem{
		ProductID: p.ProductID,
		Product: domain.ProductSnapshot{
			ProductID: p.ProductID,
			Name:      p.Name,
			Image:     p.CoverImage(),
		},
		Quantity: req.Quantity,
		Price:    p.Price,
	}

	if len(p.Models) == 0 {
		// tiered products are sold by model only
		if len(p.Tiers) != 0 {
			return domain.CartItem{}, fmt.Errorf("%s: %w", op, ErrVariantNotResolved)
		}
		return item, nil
	}

	var (
		model domain.Model
		ok    bool
	)
	if req.ModelID != "" {
		model, ok = m.ModelByID(req.ModelID)
	} else {
		model, ok = m.Resolve(req.Selection)
	}
	if !ok {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, ErrVariantNotResolved)
	}

	item.ModelID = model.ModelID
	item.Price = p.ModelPrice(model)
	item.Variant = &domain.VariantInfo{
		Description: m.Describe(model.TierIndex),
	}
	if img, ok := m.DisplayImage(model.TierIndex); ok {
		item.Variant.Image = img
	}
	return item, nil
}
