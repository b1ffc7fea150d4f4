package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.DiscountRulesProcessor = (*DiscountRulesProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A discountRuleCodec used for serde [schema.DiscountRuleV1]
type discountRuleCodec struct {
	serde Serde
}

func newDiscountRuleCodec(s Serde) discountRuleCodec {
	return discountRuleCodec{s}
}

func (c discountRuleCodec) Encode(v any) ([]byte, error) {
	const op = "discountRuleCodec.Encode"
	if _, ok := v.(schema.DiscountRuleV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c discountRuleCodec) Decode(data []byte) (any, error) {
	const op = "discountRuleCodec.Decode"
	var s schema.DiscountRuleV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A DiscountRulesProcessor keeps the latest rule per discount code in
// its group table. Rules flagged as deleted are removed.
type DiscountRulesProcessor struct {
	processor *processor
}

// A DiscountRulesConfig used for setup [DiscountRulesProcessor] and
// [DiscountRulesView].
//
// All fields except Security are required.
type DiscountRulesConfig struct {
	SeedBrokers []string
	Stream      string
	Group       string
	Serde       Serde
	Security    Security
}

func NewDiscountRulesProcessor(
	config DiscountRulesConfig,
) (DiscountRulesProcessor, error) {
	const op = "NewDiscountRulesProcessor"

	applySASLTLS(config.Security)

	codec := newDiscountRuleCodec(config.Serde)

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(goka.Stream(config.Stream), codec, processRuleFn),
		goka.Persist(codec),
	)

	gp, err := goka.NewProcessor(config.SeedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return DiscountRulesProcessor{}, opErr(err, op)
	}

	return DiscountRulesProcessor{
		processor: &processor{opPrefix: "DiscountRulesProcessor", gp: gp},
	}, nil
}

// Run runs the processor and blocks until it is ready.
func (p DiscountRulesProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.processor.run(ctx, stopFn, wg)
}

func (p DiscountRulesProcessor) Close() {
	p.processor.close()
}

func processRuleFn(ctx goka.Context, msg any) {
	storeRule(ctx, msg)
}

// ruleTable is the part of goka.Context that writes the group table.
type ruleTable interface {
	Key() string
	SetValue(value any, options ...goka.ContextOption)
	Delete(options ...goka.ContextOption)
}

// storeRule keeps the table keyed by rule code. Messages keyed by
// anything else could never be looked up and are skipped.
func storeRule(t ruleTable, msg any) {
	const op = "DiscountRulesProcessor.processFn"

	rule, ok := msg.(schema.DiscountRuleV1)
	log := slog.With("op", op, "code", t.Key())
	if !ok {
		log.Error("unexpected message type")
		return
	}

	if t.Key() != rule.Code {
		log.Warn("rule key does not match code, skipped", "ruleCode", rule.Code)
		return
	}

	if rule.Deleted {
		t.Delete()
		log.Info("rule deleted")
		return
	}
	t.SetValue(rule)
	log.Info("rule stored", "kind", rule.Kind)
}
