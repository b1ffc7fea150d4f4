package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const CheckoutIntentSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "checkout_intent",
	"fields": [
		{"name": "intent_id", "type": "string"},
		{"name": "session_id", "type": "string"},
		{"name": "items", "type": {"type": "array", "items": {
			"type": "record",
			"name": "checkout_item",
			"fields": [
				{"name": "item_id", "type": "string"},
				{"name": "product_id", "type": "string"},
				{"name": "model_id", "type": "string"},
				{"name": "product_name", "type": "string"},
				{"name": "variant", "type": "string"},
				{"name": "quantity", "type": "long"},
				{"name": "unit_price", "type": "string"},
				{"name": "line_total", "type": "string"}
			]
		}}},
		{"name": "currency", "type": "string"},
		{"name": "subtotal", "type": "string"},
		{"name": "discount_code", "type": "string"},
		{"name": "discount_amount", "type": "string"},
		{"name": "final_total", "type": "string"},
		{"name": "discount_rejection", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const DiscountRuleSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "discount_rule",
	"fields": [
		{"name": "code", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "value", "type": "string"},
		{"name": "min_order", "type": "string"},
		{"name": "expires_at", "type": "long", "default": 0},
		{"name": "product_ids", "type": {"type": "array", "items": "string"}},
		{"name": "deleted", "type": "boolean"}
	]
}`

// Amounts are decimal strings, e.g. "150000" or "19.99".
type (
	CheckoutIntentV1 struct {
		IntentID          string           `avro:"intent_id"`
		SessionID         string           `avro:"session_id"`
		Items             []CheckoutItemV1 `avro:"items"`
		Currency          string           `avro:"currency"`
		Subtotal          string           `avro:"subtotal"`
		DiscountCode      string           `avro:"discount_code"`
		DiscountAmount    string           `avro:"discount_amount"`
		FinalTotal        string           `avro:"final_total"`
		DiscountRejection string           `avro:"discount_rejection"`
		CreatedAt         time.Time        `avro:"created_at"`
	}

	CheckoutItemV1 struct {
		ItemID      string `avro:"item_id"`
		ProductID   string `avro:"product_id"`
		ModelID     string `avro:"model_id"`
		ProductName string `avro:"product_name"`
		Variant     string `avro:"variant"`
		Quantity    int    `avro:"quantity"`
		UnitPrice   string `avro:"unit_price"`
		LineTotal   string `avro:"line_total"`
	}
)

// ExpiresAt is unix milliseconds, zero means the rule never expires.
type DiscountRuleV1 struct {
	Code       string   `avro:"code"`
	Kind       string   `avro:"kind"`
	Value      string   `avro:"value"`
	MinOrder   string   `avro:"min_order"`
	ExpiresAt  int64    `avro:"expires_at"`
	ProductIDs []string `avro:"product_ids"`
	Deleted    bool     `avro:"deleted"`
}

func CheckoutIntentV1Avro() avro.Schema {
	return avro.MustParse(CheckoutIntentSchemaTextV1)
}

func DiscountRuleV1Avro() avro.Schema {
	return avro.MustParse(DiscountRuleSchemaTextV1)
}

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}
