package kafka

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
)

const (
	RuleKindPercent = "percent"
	RuleKindFixed   = "fixed"
)

var ErrInvalidRule = errors.New("invalid discount rule")

type discountRule struct {
	code       string
	kind       string
	value      decimal.Decimal
	minOrder   decimal.Decimal
	expiresAt  time.Time
	productIDs []string
}

func parseRule(s schema.DiscountRuleV1) (discountRule, error) {
	const op = "parseRule"

	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if kind != RuleKindPercent && kind != RuleKindFixed {
		return discountRule{}, opErr(
			fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, s.Kind), op,
		)
	}

	value, err := decimal.NewFromString(s.Value)
	if err != nil {
		return discountRule{}, opErr(
			fmt.Errorf("%w: value: %w", ErrInvalidRule, err), op,
		)
	}
	if value.IsNegative() {
		return discountRule{}, opErr(
			fmt.Errorf("%w: negative value", ErrInvalidRule), op,
		)
	}

	minOrder := decimal.Zero
	if s.MinOrder != "" {
		minOrder, err = decimal.NewFromString(s.MinOrder)
		if err != nil {
			return discountRule{}, opErr(
				fmt.Errorf("%w: min order: %w", ErrInvalidRule, err), op,
			)
		}
	}

	var expiresAt time.Time
	if s.ExpiresAt > 0 {
		expiresAt = time.UnixMilli(s.ExpiresAt)
	}

	return discountRule{
		code:       s.Code,
		kind:       kind,
		value:      value,
		minOrder:   minOrder,
		expiresAt:  expiresAt,
		productIDs: s.ProductIDs,
	}, nil
}

var hundred = decimal.NewFromInt(100)

// evaluate checks the rule against the request in a fixed order:
// expiry, minimum order, applicability.
func (r discountRule) evaluate(
	req domain.DiscountRequest, now time.Time,
) (domain.DiscountResult, error) {
	if !r.expiresAt.IsZero() && !now.Before(r.expiresAt) {
		return domain.DiscountResult{}, domain.NewDiscountRejected(domain.RejectCodeExpired)
	}

	if req.OrderTotal.LessThan(r.minOrder) {
		return domain.DiscountResult{}, domain.NewDiscountRejected(domain.RejectMinimumOrder)
	}

	if len(r.productIDs) != 0 && !r.appliesTo(req.SelectedProductIDs) {
		return domain.DiscountResult{}, domain.NewDiscountRejected(domain.RejectNotApplicable)
	}

	var amount decimal.Decimal
	switch r.kind {
	case RuleKindPercent:
		pct := decimal.Min(r.value, hundred)
		amount = req.OrderTotal.Mul(pct).Div(hundred).Round(2)
	default:
		amount = decimal.Min(r.value, req.OrderTotal)
	}

	return domain.DiscountResult{
		DiscountAmount: amount,
		FinalTotal:     req.OrderTotal.Sub(amount),
	}, nil
}

func (r discountRule) appliesTo(productIDs []string) bool {
	for _, id := range productIDs {
		if slices.Contains(r.productIDs, id) {
			return true
		}
	}
	return false
}
