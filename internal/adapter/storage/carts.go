package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CartStorage = (*CartsRepository)(nil)

// A CartsRepository keeps the authoritative cart of every session.
//
// An empty model id addresses a product without models.
type CartsRepository struct {
	sqldb sqldb
	newID func() string
}

func NewCartsRepository(sqldb sqldb) CartsRepository {
	return CartsRepository{sqldb: sqldb, newID: uuid.NewString}
}

// FetchCart returns session lines in insertion order. The price comes
// from the model when set, otherwise from the product with its discount.
func (r CartsRepository) FetchCart(
	ctx context.Context, sessionID string,
) (records []domain.ItemRecord, err error) {
	const op = "CartsRepository.FetchCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			ci.item_id, ci.product_id, ci.model_id, ci.quantity,
			p.name, COALESCE(p.images->>0, ''),
			COALESCE(m.price, p.price_current),
			CASE WHEN ci.model_id = '' THEN p.price_discount END,
			p.currency
		FROM cart_items ci
		JOIN products p ON p.product_id = ci.product_id
		LEFT JOIN product_models m
			ON m.product_id = ci.product_id AND m.model_id = ci.model_id
		WHERE ci.session_id = $1
		ORDER BY ci.created_at, ci.item_id;`

	rows, err := r.sqldb.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s: %w", op, closeErr)
		}
	}()

	for rows.Next() {
		var v domain.ItemRecord
		err := rows.Scan(
			&v.ItemID, &v.ProductID, &v.ModelID, &v.Quantity,
			&v.Product.Name, &v.Product.Image,
			&v.Price.Current, &v.Price.Discount, &v.Price.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		v.Product.ProductID = v.ProductID
		records = append(records, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// AddItem inserts the line or adds the quantity to an existing line of
// the same product and model. It returns the line item id.
func (r CartsRepository) AddItem(
	ctx context.Context, sessionID string, rec domain.ItemRecord,
) (string, error) {
	const op = "CartsRepository.AddItem"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO cart_items (item_id, session_id, product_id, model_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, product_id, model_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING item_id;`

	var itemID string
	err := r.sqldb.QueryRowContext(ctx, query,
		r.newID(), sessionID, rec.ProductID, rec.ModelID, rec.Quantity,
	).Scan(&itemID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return itemID, nil
}

func (r CartsRepository) UpdateQuantity(
	ctx context.Context, sessionID, itemID string, quantity int,
) error {
	const op = "CartsRepository.UpdateQuantity"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE cart_items SET quantity = $3
		WHERE session_id = $1 AND item_id = $2;`

	res, err := r.sqldb.ExecContext(ctx, query, sessionID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: item %s: %w", op, itemID, ErrNotFound)
	}
	return nil
}

// RemoveItem deletes the line. Removing a missing line is not an error.
func (r CartsRepository) RemoveItem(
	ctx context.Context, sessionID, itemID string,
) error {
	const op = "CartsRepository.RemoveItem"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM cart_items WHERE session_id = $1 AND item_id = $2;`
	if _, err := r.sqldb.ExecContext(ctx, query, sessionID, itemID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r CartsRepository) ClearCart(ctx context.Context, sessionID string) error {
	const op = "CartsRepository.ClearCart"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM cart_items WHERE session_id = $1;`
	res, err := r.sqldb.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Debug("cart cleared", "session", sessionID, "nItems", n)
	}
	return nil
}
