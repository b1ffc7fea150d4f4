package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CheckoutIntentProducer = (*CheckoutIntentProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CheckoutIntentProducer hands [domain.CheckoutIntent] to order placement.
//
// Records are keyed by session id, so intents of one shopper stay ordered.
type CheckoutIntentProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCheckoutIntentProducer(
	opts ...ProducerOpt,
) (CheckoutIntentProducer, error) {
	const op = "NewCheckoutIntentProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CheckoutIntentProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CheckoutIntentProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CheckoutIntentProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CheckoutIntentProducer) Close() {
	p.producer.close()
}

func (p CheckoutIntentProducer) ProduceCheckoutIntent(
	ctx context.Context, v domain.CheckoutIntent,
) error {
	const op = "ProduceCheckoutIntent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(v)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p CheckoutIntentProducer) createRecord(
	v domain.CheckoutIntent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.SessionID), Value: b}, nil
}

func (CheckoutIntentProducer) toSchema(v domain.CheckoutIntent) schema.CheckoutIntentV1 {
	return checkoutIntentToSchemaV1(v)
}
