package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

type cache struct {
	CatalogSize int           `mapstructure:"catalog_size"`
	CatalogTTL  time.Duration `mapstructure:"catalog_ttl"`
	Sessions    int           `mapstructure:"sessions"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

// Enabled reports whether all certificate paths are set.
func (t tlsFiles) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type topics struct {
	CheckoutIntents string `mapstructure:"checkout_intents"`
	DiscountRules   string `mapstructure:"discount_rules"`
}

type consumers struct {
	DiscountRulesGroup string `mapstructure:"discount_rules_group"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	User               string    `mapstructure:"user"`
	Pass               string    `mapstructure:"pass"`
	TLS                tlsFiles  `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	Cache          cache      `mapstructure:"cache"`
	Broker         broker     `mapstructure:"broker"`
}

// Load reads the config file named by the flag or env and exits with
// code 2 on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the yaml file at path. STOREFRONT_ prefixed env vars
// override file values, e.g. STOREFRONT_BROKER_PASS.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	required := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s: required", key))
		}
	}

	required("http_server_addr", c.HTTPServerAddr)
	required("sql_db", c.SQLDB)
	required("broker.topics.checkout_intents", c.Broker.Topics.CheckoutIntents)
	required("broker.topics.discount_rules", c.Broker.Topics.DiscountRules)
	required("broker.consumers.discount_rules_group", c.Broker.Consumers.DiscountRulesGroup)

	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers: required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required"))
	}
	if c.Cache.CatalogSize < 0 || c.Cache.Sessions < 0 || c.Cache.CatalogTTL < 0 {
		errs = append(errs, errors.New("cache: negative value"))
	}
	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q

	Cache:
	CatalogSize=%d
	CatalogTTL=%q
	Sessions=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	User=%q
	Pass=%q
	TLS=%t
	Topics:
		CheckoutIntents=%q
		DiscountRules=%q
	Consumers:
		DiscountRulesGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.SQLDB,
		c.Cache.CatalogSize,
		c.Cache.CatalogTTL,
		c.Cache.Sessions,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.User,
		mask(c.Broker.Pass),
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.CheckoutIntents,
		c.Broker.Topics.DiscountRules,
		c.Broker.Consumers.DiscountRulesGroup,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
