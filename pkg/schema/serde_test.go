package schema_test

import (
	"context"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeCheckoutIntentV1(t *testing.T) {

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeCheckoutIntentV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeCheckoutIntentV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeCheckoutIntentV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		subject := "checkout-intents-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CheckoutIntentSchemaTextV1,
		).Return(1, nil)

		serde, err := schema.NewSerdeCheckoutIntentV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		intent1 := schema.CheckoutIntentV1{
			IntentID:  "testIntentID",
			SessionID: "testSessionID",
			Items: []schema.CheckoutItemV1{
				{ItemID: "i1", ProductID: "p1", Quantity: 2, UnitPrice: "150000", LineTotal: "300000"},
			},
			Currency:   "VND",
			Subtotal:   "300000",
			FinalTotal: "300000",
			CreatedAt:  time.UnixMilli(1700000000000).UTC(),
		}

		encodedData, err := serde.Encode(intent1)
		require.NoError(t, err)

		var intent2 schema.CheckoutIntentV1
		err = serde.Decode(encodedData, &intent2)
		require.NoError(t, err)

		assert.Equal(t, intent1.IntentID, intent2.IntentID)
		assert.Equal(t, intent1.SessionID, intent2.SessionID)
		assert.Equal(t, intent1.Items, intent2.Items)
		assert.Equal(t, intent1.Subtotal, intent2.Subtotal)
		schemaIdentifier.AssertExpectations(t)
	})
}

func TestSerdeDiscountRuleV1(t *testing.T) {
	schemaIdentifier := new(MockSchemaIdentifier)
	subject := "discount-rules-value"

	schemaIdentifier.On(
		"DetermineID", t.Context(), subject, schema.DiscountRuleSchemaTextV1,
	).Return(2, nil)

	serde, err := schema.NewSerdeDiscountRuleV1(
		t.Context(),
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schemaIdentifier),
	)
	require.NoError(t, err)

	rule := schema.DiscountRuleV1{Code: "SALE", Kind: "percent", Value: "10", ProductIDs: []string{"p1"}}
	data, err := serde.Encode(rule)
	require.NoError(t, err)

	var got schema.DiscountRuleV1
	require.NoError(t, serde.Decode(data, &got))
	assert.Equal(t, rule.Code, got.Code)
	assert.Equal(t, rule.ProductIDs, got.ProductIDs)
}
