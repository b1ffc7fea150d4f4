package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/IBM/sarama"
	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
	ErrRulesNotReady    = errors.New("discount rules table is not recovered yet")
)

// A Security holds optional TLS and SASL/PLAIN settings for brokers.
type Security struct {
	TLSConfig *tls.Config
	User      string
	Pass      string
}

// ClientOpts returns franz-go options for the configured security.
func (s Security) ClientOpts() []kgo.Opt {
	var opts []kgo.Opt
	if s.TLSConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(s.TLSConfig))
	}
	if s.User != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: s.User,
			Pass: s.Pass,
		}.AsMechanism()))
	}
	return opts
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, sec Security,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		kopts = append(kopts, sec.ClientOpts()...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerCustomClientOpt sets an already built client.
func ProducerCustomClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// applySASLTLS configures the sarama client used under goka.
func applySASLTLS(sec Security) {
	cfg := goka.DefaultConfig()
	if sec.TLSConfig != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = sec.TLSConfig
	}
	if sec.User != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		cfg.Net.SASL.User = sec.User
		cfg.Net.SASL.Password = sec.Pass
	}
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func withNonlogViewOpt() goka.ViewOption {
	return goka.WithViewLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func checkoutIntentToSchemaV1(v domain.CheckoutIntent) (s schema.CheckoutIntentV1) {
	s.IntentID = v.IntentID
	s.SessionID = v.SessionID
	s.Subtotal = v.Subtotal.String()
	s.DiscountCode = v.DiscountCode
	s.DiscountAmount = v.DiscountAmount.String()
	s.FinalTotal = v.FinalTotal.String()
	s.DiscountRejection = string(v.DiscountRejection)
	s.CreatedAt = v.CreatedAt

	s.Items = make([]schema.CheckoutItemV1, len(v.Items))
	for i, it := range v.Items {
		if s.Currency == "" {
			s.Currency = it.Price.Currency
		}
		s.Items[i] = schema.CheckoutItemV1{
			ItemID:      it.ItemID,
			ProductID:   it.ProductID,
			ModelID:     it.ModelID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   domain.EffectiveUnitPrice(it.Price).String(),
			LineTotal:   domain.LineTotal(it).String(),
		}
		if it.Variant != nil {
			s.Items[i].Variant = it.Variant.Description
		}
	}
	return
}
