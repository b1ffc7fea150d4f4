package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeTable struct {
	rules     map[string]any
	recovered bool
	err       error
}

func (t fakeTable) Get(key string) (any, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.rules[key], nil
}

func (t fakeTable) Recovered() bool { return t.recovered }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestView(rules ...schema.DiscountRuleV1) *DiscountRulesView {
	m := make(map[string]any, len(rules))
	for _, r := range rules {
		m[r.Code] = r
	}
	return newDiscountRulesView(
		fakeTable{rules: m, recovered: true},
		ViewClockOpt(func() time.Time { return testNow }),
	)
}

func requireRejected(t *testing.T, err error, want domain.RejectionReason) {
	t.Helper()
	reason, ok := domain.AsDiscountRejection(err)
	require.True(t, ok, "expected rejection, got %v", err)
	assert.Equal(t, want, reason)
}

func TestDiscountRulesView(t *testing.T) {
	rules := []schema.DiscountRuleV1{
		{Code: "TEN", Kind: "percent", Value: "10"},
		{Code: "THIRD", Kind: "percent", Value: "33.333"},
		{Code: "FLAT50", Kind: "fixed", Value: "50000"},
		{Code: "BIG", Kind: "fixed", Value: "1000000"},
		{Code: "OLD", Kind: "percent", Value: "10",
			ExpiresAt: testNow.Add(-time.Hour).UnixMilli()},
		{Code: "MIN", Kind: "fixed", Value: "10", MinOrder: "500000"},
		{Code: "MUGS", Kind: "percent", Value: "20", ProductIDs: []string{"mug"}},
		{Code: "OLDMIN", Kind: "fixed", Value: "10", MinOrder: "500000",
			ExpiresAt: testNow.Add(-time.Minute).UnixMilli()},
	}
	v := newTestView(rules...)
	ctx := context.Background()

	req := func(code, total string, products ...string) domain.DiscountRequest {
		return domain.DiscountRequest{
			Code:               code,
			SelectedItemIDs:    []string{"i1"},
			SelectedProductIDs: products,
			OrderTotal:         dec(total),
		}
	}

	t.Run("Percent", func(t *testing.T) {
		res, err := v.ApplyDiscount(ctx, req("TEN", "150000", "shirt"))
		require.NoError(t, err)
		assert.True(t, dec("15000").Equal(res.DiscountAmount))
		assert.True(t, dec("135000").Equal(res.FinalTotal))
	})

	t.Run("PercentRounded", func(t *testing.T) {
		res, err := v.ApplyDiscount(ctx, req("THIRD", "10", "shirt"))
		require.NoError(t, err)
		assert.True(t, dec("3.33").Equal(res.DiscountAmount))
		assert.True(t, dec("6.67").Equal(res.FinalTotal))
	})

	t.Run("Fixed", func(t *testing.T) {
		res, err := v.ApplyDiscount(ctx, req("FLAT50", "150000", "shirt"))
		require.NoError(t, err)
		assert.True(t, dec("50000").Equal(res.DiscountAmount))
		assert.True(t, dec("100000").Equal(res.FinalTotal))
	})

	t.Run("FixedCappedAtSubtotal", func(t *testing.T) {
		res, err := v.ApplyDiscount(ctx, req("BIG", "150000", "shirt"))
		require.NoError(t, err)
		assert.True(t, dec("150000").Equal(res.DiscountAmount))
		assert.True(t, res.FinalTotal.IsZero())
	})

	t.Run("CodeNotFound", func(t *testing.T) {
		_, err := v.ApplyDiscount(ctx, req("NOPE", "150000", "shirt"))
		requireRejected(t, err, domain.RejectCodeNotFound)
	})

	t.Run("BlankCode", func(t *testing.T) {
		_, err := v.ApplyDiscount(ctx, req("  ", "150000", "shirt"))
		requireRejected(t, err, domain.RejectCodeNotFound)
	})

	t.Run("Expired", func(t *testing.T) {
		_, err := v.ApplyDiscount(ctx, req("OLD", "150000", "shirt"))
		requireRejected(t, err, domain.RejectCodeExpired)
	})

	t.Run("ExpiryCheckedBeforeMinimum", func(t *testing.T) {
		_, err := v.ApplyDiscount(ctx, req("OLDMIN", "1", "shirt"))
		requireRejected(t, err, domain.RejectCodeExpired)
	})

	t.Run("MinimumOrder", func(t *testing.T) {
		_, err := v.ApplyDiscount(ctx, req("MIN", "150000", "shirt"))
		requireRejected(t, err, domain.RejectMinimumOrder)

		_, err = v.ApplyDiscount(ctx, req("MIN", "500000", "shirt"))
		require.NoError(t, err)
	})

	t.Run("NotApplicable", func(t *testing.T) {
		_, err := v.ApplyDiscount(ctx, req("MUGS", "150000", "shirt"))
		requireRejected(t, err, domain.RejectNotApplicable)

		res, err := v.ApplyDiscount(ctx, req("MUGS", "100", "shirt", "mug"))
		require.NoError(t, err)
		assert.True(t, dec("20").Equal(res.DiscountAmount))
	})
}

func TestDiscountRulesViewFailures(t *testing.T) {
	ctx := context.Background()
	req := domain.DiscountRequest{Code: "TEN", OrderTotal: dec("10")}

	t.Run("NotRecovered", func(t *testing.T) {
		v := newDiscountRulesView(fakeTable{})
		_, err := v.ApplyDiscount(ctx, req)
		require.ErrorIs(t, err, ErrRulesNotReady)
		_, ok := domain.AsDiscountRejection(err)
		assert.False(t, ok)
	})

	t.Run("TableError", func(t *testing.T) {
		boom := errors.New("boom")
		v := newDiscountRulesView(fakeTable{recovered: true, err: boom})
		_, err := v.ApplyDiscount(ctx, req)
		require.ErrorIs(t, err, boom)
	})

	t.Run("UnexpectedValue", func(t *testing.T) {
		v := newDiscountRulesView(fakeTable{
			recovered: true, rules: map[string]any{"TEN": "oops"},
		})
		_, err := v.ApplyDiscount(ctx, req)
		require.ErrorIs(t, err, ErrInvalidValueType)
	})

	t.Run("MalformedRule", func(t *testing.T) {
		v := newTestView(schema.DiscountRuleV1{Code: "TEN", Kind: "bogo", Value: "1"})
		_, err := v.ApplyDiscount(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		v := newTestView()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := v.ApplyDiscount(cctx, req)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name    string
		rule    schema.DiscountRuleV1
		wantErr bool
	}{
		{"Percent", schema.DiscountRuleV1{Kind: "Percent", Value: "5"}, false},
		{"FixedWithMin", schema.DiscountRuleV1{Kind: "fixed", Value: "5", MinOrder: "10"}, false},
		{"UnknownKind", schema.DiscountRuleV1{Kind: "bogo", Value: "5"}, true},
		{"BadValue", schema.DiscountRuleV1{Kind: "fixed", Value: "five"}, true},
		{"NegativeValue", schema.DiscountRuleV1{Kind: "fixed", Value: "-1"}, true},
		{"BadMinOrder", schema.DiscountRuleV1{Kind: "fixed", Value: "1", MinOrder: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRule(tt.rule)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRule)
				return
			}
			require.NoError(t, err)
		})
	}
}

type fakeSerde struct {
	encoded any
}

func (s *fakeSerde) Encode(v any) ([]byte, error) {
	s.encoded = v
	return []byte("payload"), nil
}

func (s *fakeSerde) Decode(b []byte, v any) error {
	r, ok := v.(*schema.DiscountRuleV1)
	if !ok {
		return ErrInvalidValueType
	}
	*r = schema.DiscountRuleV1{Code: string(b), Kind: "fixed", Value: "1"}
	return nil
}

func TestDiscountRuleCodec(t *testing.T) {
	codec := newDiscountRuleCodec(&fakeSerde{})

	_, err := codec.Encode("not a rule")
	require.ErrorIs(t, err, ErrInvalidValueType)

	b, err := codec.Encode(schema.DiscountRuleV1{Code: "TEN"})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), b)

	v, err := codec.Decode([]byte("TEN"))
	require.NoError(t, err)
	assert.Equal(t, "TEN", v.(schema.DiscountRuleV1).Code)
}

type fakeProducerClient struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (c *fakeProducerClient) ProduceSync(
	_ context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	c.records = append(c.records, rs...)
	res := make(kgo.ProduceResults, len(rs))
	for i, r := range rs {
		res[i] = kgo.ProduceResult{Record: r, Err: c.err}
	}
	return res
}

func (c *fakeProducerClient) Close() { c.closed = true }

func TestCheckoutIntentProducer(t *testing.T) {
	intent := domain.CheckoutIntent{
		IntentID:  "intent-1",
		SessionID: "sess-1",
		Items: []domain.CartItem{{
			ItemID:    "i1",
			ProductID: "shirt",
			ModelID:   "m-red-m",
			Product:   domain.ProductSnapshot{ProductID: "shirt", Name: "Shirt"},
			Variant:   &domain.VariantInfo{Description: "Red, M"},
			Quantity:  2,
			Price:     domain.FlatPrice(dec("150000"), "VND"),
			Selected:  true,
		}},
		Subtotal:       dec("300000"),
		DiscountCode:   "TEN",
		DiscountAmount: dec("30000"),
		FinalTotal:     dec("270000"),
		CreatedAt:      testNow,
	}

	t.Run("Produce", func(t *testing.T) {
		cl := &fakeProducerClient{}
		serde := &fakeSerde{}
		p, err := NewCheckoutIntentProducer(
			ProducerCustomClientOpt(cl), ProducerEncoderOpt(serde),
		)
		require.NoError(t, err)

		require.NoError(t, p.ProduceCheckoutIntent(context.Background(), intent))
		require.Len(t, cl.records, 1)
		assert.Equal(t, []byte("sess-1"), cl.records[0].Key)

		s, ok := serde.encoded.(schema.CheckoutIntentV1)
		require.True(t, ok)
		assert.Equal(t, "VND", s.Currency)
		assert.Equal(t, "300000", s.Subtotal)
		assert.Equal(t, "270000", s.FinalTotal)
		require.Len(t, s.Items, 1)
		assert.Equal(t, "Red, M", s.Items[0].Variant)
		assert.Equal(t, "300000", s.Items[0].LineTotal)

		p.Close()
		assert.True(t, cl.closed)
	})

	t.Run("BrokerError", func(t *testing.T) {
		boom := errors.New("not enough replicas")
		p, err := NewCheckoutIntentProducer(
			ProducerCustomClientOpt(&fakeProducerClient{err: boom}),
			ProducerEncoderOpt(&fakeSerde{}),
		)
		require.NoError(t, err)
		require.ErrorIs(t, p.ProduceCheckoutIntent(context.Background(), intent), boom)
	})

	t.Run("NilEncoder", func(t *testing.T) {
		_, err := NewCheckoutIntentProducer(
			ProducerCustomClientOpt(&fakeProducerClient{}), ProducerEncoderOpt(nil),
		)
		require.Error(t, err)
	})
}

type fakeRuleTable struct {
	key     string
	value   any
	stored  bool
	deleted bool
}

func (t *fakeRuleTable) Key() string { return t.key }

func (t *fakeRuleTable) SetValue(value any, options ...goka.ContextOption) {
	t.value = value
	t.stored = true
}

func (t *fakeRuleTable) Delete(options ...goka.ContextOption) { t.deleted = true }

func TestStoreRule(t *testing.T) {
	rule := schema.DiscountRuleV1{Code: "SALE", Kind: "percentage", Value: "10"}

	t.Run("Stored", func(t *testing.T) {
		tbl := &fakeRuleTable{key: "SALE"}
		storeRule(tbl, rule)
		assert.True(t, tbl.stored)
		assert.Equal(t, rule, tbl.value)
		assert.False(t, tbl.deleted)
	})

	t.Run("Deleted", func(t *testing.T) {
		tbl := &fakeRuleTable{key: "SALE"}
		deleted := rule
		deleted.Deleted = true
		storeRule(tbl, deleted)
		assert.True(t, tbl.deleted)
		assert.False(t, tbl.stored)
	})

	t.Run("KeyMismatch", func(t *testing.T) {
		tbl := &fakeRuleTable{key: "sale-2024"}
		storeRule(tbl, rule)
		assert.False(t, tbl.stored)
		assert.False(t, tbl.deleted)
	})

	t.Run("DeleteWithKeyMismatch", func(t *testing.T) {
		tbl := &fakeRuleTable{key: "OTHER"}
		deleted := rule
		deleted.Deleted = true
		storeRule(tbl, deleted)
		assert.False(t, tbl.deleted)
	})

	t.Run("UnexpectedType", func(t *testing.T) {
		tbl := &fakeRuleTable{key: "SALE"}
		storeRule(tbl, "not a rule")
		assert.False(t, tbl.stored)
		assert.False(t, tbl.deleted)
	})
}
