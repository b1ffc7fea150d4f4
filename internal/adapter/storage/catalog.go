package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CatalogReader = (*CatalogRepository)(nil)

type (
	tierRow struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
		Images  []string `json:"images"`
	}

	categoryRow struct {
		CategoryID string `json:"category_id"`
		Name       string `json:"name"`
		Slug       string `json:"slug"`
	}
)

type CatalogRepository struct {
	sqldb sqldb
}

func NewCatalogRepository(sqldb sqldb) CatalogRepository {
	return CatalogRepository{sqldb}
}

// ReadProduct loads the product with its tiers and models.
// Models are ordered by their tier indices.
func (r CatalogRepository) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "CatalogRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	v, err := r.readProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	v.Models, err = r.readModels(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r CatalogRepository) readProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	query := `
		SELECT
			product_id, name, category, price_current, price_discount,
			currency, images, tiers
		FROM products
		WHERE product_id = $1;`

	var (
		v         domain.Product
		categoryB []byte
		imagesB   []byte
		tiersB    []byte
	)
	err := r.sqldb.QueryRowContext(ctx, query, productID).Scan(
		&v.ProductID, &v.Name, &categoryB, &v.Price.Current, &v.Price.Discount,
		&v.Price.Currency, &imagesB, &tiersB,
	)
	if err != nil {
		return domain.Product{}, err
	}

	v.Category, err = parseCategory(categoryB)
	if err != nil {
		return domain.Product{}, err
	}

	if err := json.Unmarshal(imagesB, &v.Images); err != nil {
		return domain.Product{}, fmt.Errorf("images: %w", err)
	}

	v.Tiers, err = parseTiers(tiersB)
	if err != nil {
		return domain.Product{}, err
	}
	return v, nil
}

func (r CatalogRepository) readModels(
	ctx context.Context, productID string,
) (models []domain.Model, err error) {
	query := `
		SELECT
			model_id, array_to_string(tier_index, ','), price,
			stock, sold_count, sku
		FROM product_models
		WHERE product_id = $1
		ORDER BY tier_index;`

	rows, err := r.sqldb.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		var (
			m      domain.Model
			indexS string
		)
		err := rows.Scan(
			&m.ModelID, &indexS, &m.Price, &m.Stock, &m.SoldCount, &m.SKU,
		)
		if err != nil {
			return nil, err
		}
		m.TierIndex, err = parseTierIndex(indexS)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.ModelID, err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// parseCategory accepts either a JSON string holding the category id
// or an embedded category object.
func parseCategory(b []byte) (domain.Category, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return domain.CategoryReference(""), nil
	}

	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return domain.Category{}, fmt.Errorf("category: %w", err)
		}
		return domain.CategoryReference(id), nil
	}

	var row categoryRow
	if err := json.Unmarshal(b, &row); err != nil {
		return domain.Category{}, fmt.Errorf("category: %w", err)
	}
	return domain.CategoryEmbedded(domain.CategoryInfo{
		CategoryID: row.CategoryID,
		Name:       row.Name,
		Slug:       row.Slug,
	}), nil
}

func parseTiers(b []byte) ([]domain.TierVariation, error) {
	var rows []tierRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("tiers: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	tiers := make([]domain.TierVariation, len(rows))
	for i, row := range rows {
		tiers[i] = domain.TierVariation{
			Name:    row.Name,
			Options: row.Options,
			Images:  row.Images,
		}
	}
	return tiers, nil
}

// parseTierIndex parses "0,2,1" into tier indices.
func parseTierIndex(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	parts := strings.Split(s, ",")
	index := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("tier index: %w", err)
		}
		index[i] = n
	}
	return index, nil
}
