package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// Checkout snapshots the selected items, applies an optional discount
// code and hands the intent to order placement. The working cart keeps
// all items, so an abandoned checkout loses nothing.
func (s Service) Checkout(
	ctx context.Context, sessionID, discountCode string,
) (domain.CheckoutIntent, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op)

	sess, err := s.sessionCtx(ctx, sessionID)
	if err != nil {
		return domain.CheckoutIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	intent := sess.prepareCheckout()
	if len(intent.Items) == 0 {
		return domain.CheckoutIntent{}, fmt.Errorf("%s: %w", op, ErrNothingSelected)
	}
	intent.IntentID = s.newID()
	intent.SessionID = sess.id
	intent.CreatedAt = s.now()

	if code := strings.TrimSpace(discountCode); code != "" {
		s.applyDiscount(ctx, &intent, code)
	}

	if err := s.orders.ProduceCheckoutIntent(ctx, intent); err != nil {
		return domain.CheckoutIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("checkout intent placed",
		"session", sess.id,
		"intentID", intent.IntentID,
		"nItems", len(intent.Items),
		"finalTotal", intent.FinalTotal.String(),
	)
	return intent, nil
}

// applyDiscount never fails: any rejection leaves totals untouched.
func (s Service) applyDiscount(
	ctx context.Context, intent *domain.CheckoutIntent, code string,
) {
	const op = "Service.applyDiscount"
	log := slog.With("op", op, "code", code)

	res, err := s.discounts.ApplyDiscount(ctx, domain.DiscountRequest{
		Code:               code,
		SelectedItemIDs:    intent.ItemIDs(),
		SelectedProductIDs: intent.ProductIDs(),
		OrderTotal:         intent.Subtotal,
	})
	if err != nil {
		reason, ok := domain.AsDiscountRejection(err)
		if !ok {
			log.Warn("discount collaborator failed", "err", err)
			reason = domain.RejectCollaboratorError
		}
		intent.RejectDiscount(code, reason)
		return
	}

	intent.ApplyDiscount(code, res)
}
