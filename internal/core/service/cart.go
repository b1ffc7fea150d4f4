package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
)

func (s Service) Cart(ctx context.Context, sessionID string) (domain.CartView, error) {
	const op = "Service.Cart"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.do(nil), nil
}

// AddItem resolves the requested model, persists the line and merges it
// into the working cart under the server issued item id.
func (s Service) AddItem(
	ctx context.Context, sessionID string, req domain.AddItemRequest,
) (domain.CartView, error) {
	const op = "Service.AddItem"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	if req.Quantity < 1 {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	item, err := s.resolveLine(ctx, req)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	itemID, err := s.carts.AddItem(ctx, sess.id, domain.ItemRecord{
		ProductID: item.ProductID,
		ModelID:   item.ModelID,
		Quantity:  item.Quantity,
		Price:     item.Price,
		Product:   item.Product,
	})
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	item.ItemID = itemID

	view := sess.written(func(st *cart.State) { st.AddItem(item) })

	slog.Debug("item added", "op", op,
		"session", sess.id, "itemID", itemID, "qty", item.Quantity)
	return view, nil
}

// UpdateQuantity persists and applies a new quantity.
// Quantity below 1 and unknown items are no-ops. A line already deleted
// from storage is dropped from the working cart.
func (s Service) UpdateQuantity(
	ctx context.Context, sessionID, itemID string, quantity int,
) (domain.CartView, error) {
	const op = "Service.UpdateQuantity"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := sess.item(itemID); !ok || quantity < 1 {
		return sess.do(nil), nil
	}

	err = s.carts.UpdateQuantity(ctx, sess.id, itemID, quantity)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Info("item removed by server", "op", op,
			"session", sess.id, "itemID", itemID)
		return sess.written(func(st *cart.State) { st.RemoveItem(itemID) }), nil
	}
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.written(func(st *cart.State) {
		st.UpdateQuantity(itemID, quantity)
	}), nil
}

func (s Service) RemoveItem(
	ctx context.Context, sessionID, itemID string,
) (domain.CartView, error) {
	const op = "Service.RemoveItem"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := sess.item(itemID); !ok {
		return sess.do(nil), nil
	}

	if err := s.carts.RemoveItem(ctx, sess.id, itemID); err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.written(func(st *cart.State) { st.RemoveItem(itemID) }), nil
}

func (s Service) Clear(ctx context.Context, sessionID string) (domain.CartView, error) {
	const op = "Service.Clear"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.carts.ClearCart(ctx, sess.id); err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.written(func(st *cart.State) { st.Clear() }), nil
}

func (s Service) ToggleSelect(
	ctx context.Context, sessionID, itemID string,
) (domain.CartView, error) {
	const op = "Service.ToggleSelect"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.do(func(st *cart.State) { st.ToggleSelect(itemID) }), nil
}

func (s Service) SelectAll(ctx context.Context, sessionID string) (domain.CartView, error) {
	const op = "Service.SelectAll"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.do(func(st *cart.State) { st.SelectAll() }), nil
}

func (s Service) UnselectAll(ctx context.Context, sessionID string) (domain.CartView, error) {
	const op = "Service.UnselectAll"

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess.do(func(st *cart.State) { st.UnselectAll() }), nil
}

// Refresh fetches the server cart and merges it into the working cart.
//
// The merge runs against the state current when the fetch resolves. A
// fetch overtaken by a newer merge or a persisted write is discarded and
// reported with Applied set to false.
func (s Service) Refresh(ctx context.Context, sessionID string) (domain.RefreshResult, error) {
	const op = "Service.Refresh"
	log := slog.With("op", op)

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	seq := sess.beginFetch()

	records, err := s.carts.FetchCart(ctx, sess.id)
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, applied := sess.applyFetch(seq, records)
	if !applied {
		log.Debug("stale fetch discarded", "session", sess.id, "seq", seq)
		return res, nil
	}

	if len(res.DroppedSelected) != 0 {
		log.Info("selected items removed by server",
			"session", sess.id, "items", res.DroppedSelected)
	}
	return res, nil
}

// sessionCtx returns the session loaded from persistence.
func (s Service) sessionCtx(ctx context.Context, sessionID string) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.load(ctx, s.carts.FetchCart); err != nil {
		return nil, fmt.Errorf("load session %s: %w", sess.id, err)
	}
	return sess, nil
}
