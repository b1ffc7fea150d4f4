package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.DiscountApplier = (*DiscountRulesView)(nil)

type tableGetter interface {
	Get(key string) (any, error)
	Recovered() bool
}

type ViewOpt func(*DiscountRulesView)

// ViewClockOpt replaces the clock used for expiry checks.
func ViewClockOpt(now func() time.Time) ViewOpt {
	return func(v *DiscountRulesView) {
		v.now = now
	}
}

// A DiscountRulesView serves discount codes from the table kept by
// [DiscountRulesProcessor].
type DiscountRulesView struct {
	gv    *goka.View
	table tableGetter
	now   func() time.Time
}

func NewDiscountRulesView(
	config DiscountRulesConfig, opts ...ViewOpt,
) (*DiscountRulesView, error) {
	const op = "NewDiscountRulesView"

	applySASLTLS(config.Security)

	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.GroupTable(goka.Group(config.Group)),
		newDiscountRuleCodec(config.Serde),
		withNonlogViewOpt(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	v := newDiscountRulesView(gv, opts...)
	v.gv = gv
	return v, nil
}

func newDiscountRulesView(t tableGetter, opts ...ViewOpt) *DiscountRulesView {
	v := &DiscountRulesView{table: t, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *DiscountRulesView) Run(ctx context.Context) {
	const op = "DiscountRulesView.Run"
	log := slog.With("op", op)

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

func (v *DiscountRulesView) ApplyDiscount(
	ctx context.Context, req domain.DiscountRequest,
) (domain.DiscountResult, error) {
	const op = "DiscountRulesView.ApplyDiscount"
	log := slog.With("op", op, "code", req.Code)

	if err := ctx.Err(); err != nil {
		return domain.DiscountResult{}, opErr(err, op)
	}

	if !v.table.Recovered() {
		return domain.DiscountResult{}, opErr(ErrRulesNotReady, op)
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.DiscountResult{}, domain.NewDiscountRejected(domain.RejectCodeNotFound)
	}

	value, err := v.table.Get(code)
	if err != nil {
		return domain.DiscountResult{}, opErr(err, op)
	}
	if value == nil {
		return domain.DiscountResult{}, domain.NewDiscountRejected(domain.RejectCodeNotFound)
	}

	s, ok := value.(schema.DiscountRuleV1)
	if !ok {
		return domain.DiscountResult{}, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}

	rule, err := parseRule(s)
	if err != nil {
		log.Warn("stored rule is malformed", "err", err)
		return domain.DiscountResult{}, opErr(err, op)
	}

	res, err := rule.evaluate(req, v.now())
	if err != nil {
		log.Info("discount rejected", "err", err)
		return domain.DiscountResult{}, err
	}

	log.Info("discount applied", "amount", res.DiscountAmount.String())
	return res, nil
}
