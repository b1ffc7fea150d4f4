package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	checkoutIntent schema.Serde
	discountRule   schema.Serde
}

type outbound struct {
	sqldb          storage.SQLDB
	catalog        storage.CatalogRepository
	carts          storage.CartsRepository
	intentProducer kafka.CheckoutIntentProducer
	rulesProcessor kafka.DiscountRulesProcessor
	rulesView      *kafka.DiscountRulesView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	security   kafka.Security
	serdes     serdes
	outbound   outbound
	service    service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initSecurity()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initSecurity() {
	const op = "App.initSecurity"
	b := app.cfg.Broker

	app.security = kafka.Security{User: b.User, Pass: b.Pass}
	if !b.TLS.Enabled() {
		return
	}

	tlsConfig, err := adapter.LoadTLSConfig(b.TLS.CA, b.TLS.Cert, b.TLS.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	app.security.TLSConfig = tlsConfig
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	ctx := app.ctx
	b := app.cfg.Broker

	srOpts := []sr.ClientOpt{sr.URLs(b.SchemaRegistryURLs...)}
	if app.security.TLSConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.security.TLSConfig))
	}
	if b.User != "" {
		srOpts = append(srOpts, sr.BasicAuth(b.User, b.Pass))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	intentSerde, err := schema.NewSerdeCheckoutIntentV1(
		ctx,
		schema.SubjectOpt(b.Topics.CheckoutIntents+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	ruleSerde, err := schema.NewSerdeDiscountRuleV1(
		ctx,
		schema.SubjectOpt(b.Topics.DiscountRules+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.checkoutIntent = intentSerde
	app.serdes.discountRule = ruleSerde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"
	ctx := app.ctx
	b := app.cfg.Broker

	sqldb, err := storage.NewSQLDB(ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqldb = sqldb
	app.outbound.catalog = storage.NewCatalogRepository(sqldb)
	app.outbound.carts = storage.NewCartsRepository(sqldb)

	intentProducer, err := kafka.NewCheckoutIntentProducer(
		kafka.ProducerClientOpt(ctx, b.SeedBrokers, b.Topics.CheckoutIntents, app.security),
		kafka.ProducerEncoderOpt(app.serdes.checkoutIntent),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.intentProducer = intentProducer

	rulesConfig := kafka.DiscountRulesConfig{
		SeedBrokers: b.SeedBrokers,
		Stream:      b.Topics.DiscountRules,
		Group:       b.Consumers.DiscountRulesGroup,
		Serde:       app.serdes.discountRule,
		Security:    app.security,
	}

	rulesProcessor, err := kafka.NewDiscountRulesProcessor(rulesConfig)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.rulesProcessor = rulesProcessor

	rulesView, err := kafka.NewDiscountRulesView(rulesConfig)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.rulesView = rulesView
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"
	c := app.cfg.Cache

	s, err := service.New(
		app.outbound.catalog,
		app.outbound.carts,
		app.outbound.rulesView,
		app.outbound.intentProducer,
		service.CatalogCacheOpt(c.CatalogSize, c.CatalogTTL),
		service.SessionCacheOpt(c.Sessions),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.service = s
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, app.service)
	httphandler.RegisterCart(mux, app.service, app.service)

	handler := httphandler.AllowJSON(mux)
	app.httpServer = httphandler.NewHTTPServer(addr, handler)
}

// Run waits for the discount rules processor to become ready, then
// serves the view and http traffic. stopFn is called when any of them
// stops unexpectedly.
func (app *App) Run(stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(1)
	go app.outbound.rulesProcessor.Run(app.ctx, stopFn, &wg)
	wg.Wait()

	go app.outbound.rulesView.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.outbound.rulesProcessor.Close()
	app.outbound.intentProducer.Close()
	app.outbound.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
