// Package config provides helper functionality to read the scanner configuration from YAML or JSON config files and OS
// ENV variables. The default configuration can be overriden first by:
//
// - a valid YAML or JSON config file (see cmd/conf.yaml for a sample) and then by
//
// - OS ENV variables: prefixed with SCAN_ (ie. SCAN_INTERVAL, SCAN_DBCONN, ...). All OS ENV variables should be valid
// strings, except for SCAN_CHAINS which should be a string with a valid JSON format. For example:
// # export SCAN_CHAINS='[{"symbol":"BTC","addresses":["bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"]}]'
package config

import (
	"encoding/json"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Default configuration variables
var (
	QuoteCurrencyDefault   = "USD"
	PriceSourceDefault     = "coingecko"
	PriceURLDefault        = "https://api.coingecko.com/api/v3"
	PriceTTLDefault        = 60 * time.Second
	IntervalDefault        = 3 * time.Second
	ThresholdDefault       = decimal.RequireFromString("0.01")
	RenderIntervalDefault  = 500 * time.Millisecond
	RecentWindowDefault    = 10
	ShutdownTimeoutDefault = 1 * time.Second
	HTTPTimeoutDefault     = 20 * time.Second
	PortDefault            = ""
	MetricsDefault         = ":9100"
	LogLevelDefault        = "info"
	ChainsDefault          = []ChainConfig{
		{Symbol: "BTC"}, {Symbol: "ETH"}, {Symbol: "BNB"}, {Symbol: "SOL"}, {Symbol: "AVAX"},
		{Symbol: "LTC"}, {Symbol: "OP"}, {Symbol: "MATIC"}, {Symbol: "TON"}, {Symbol: "TRX"},
	}
)

// EnvPrefix is the prefix of the OS ENV variables that override the configuration.
const EnvPrefix = "SCAN"

// DeriveConfig asks for Count addresses of an HD wallet to be appended to the chain's address list. Seed is the hex
// encoded wallet seed and Wallet the account index to derive from.
type DeriveConfig struct {
	Seed   string `json:"seed" mapstructure:"seed"`
	Wallet uint32 `json:"wallet" mapstructure:"wallet"`
	Count  int    `json:"count" mapstructure:"count"`
}

// ChainConfig defines one chain to scan. Node is an optional JSON-RPC node url (Secret is used when Basic
// Authentication is required by the node) and Explorer optionally overrides the default explorer base url.
type ChainConfig struct {
	Symbol    string        `json:"symbol" mapstructure:"symbol"`
	Addresses []string      `json:"addresses" mapstructure:"addresses"`
	Node      string        `json:"node,omitempty" mapstructure:"node"`
	Secret    string        `json:"secret,omitempty" mapstructure:"secret"`
	Explorer  string        `json:"explorer,omitempty" mapstructure:"explorer"`
	Derive    *DeriveConfig `json:"derive,omitempty" mapstructure:"derive"`
}

// ScanConfig contains the fields required by the scanner: the ordered chains to scan, pricing, polling and stop
// policy, and the optional database, message broker, API, metrics and export settings.
type ScanConfig struct {
	Chains          []ChainConfig
	QuoteCurrency   string
	PriceSource     string
	PriceURL        string
	PriceTTL        time.Duration
	Interval        time.Duration
	StopOnValue     bool
	ValueThreshold  decimal.Decimal
	RenderInterval  time.Duration
	RecentWindow    int
	ShutdownTimeout time.Duration
	HTTPTimeout     time.Duration
	Proxy           string
	DbType          string
	DbConn          string
	MbType          string
	MbConn          string
	Endpoint        string
	Port            string
	Metrics         string
	Clipboard       bool
	ExportDir       string
	S3Bucket        string
	AwsRegion       string
	LogLevel        string
}

// ErrBadValue is returned when a configuration value cannot be parsed.
var ErrBadValue = errors.New("bad configuration value")

// ExtractConfiguration reads from the given YAML or JSON filename and returns the ScanConfig or an error otherwise.
// An empty filename, or one that does not exist, returns the defaults overriden by the OS ENV variables.
func ExtractConfiguration(filename string) (ScanConfig, error) {
	v := viper.New()
	setDefaults(v)

	// read from config file first
	if filename != "" {
		v.SetConfigFile(filename)

		switch err := v.ReadInConfig(); {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn().Str("file", filename).Msg("Configuration file not found. Using defaults")
		case err != nil:
			return defaults(), errors.Wrapf(err, "cannot read config file %s", filename)
		}
	}
	// then override config values with OS ENV variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	return decode(v)
}

func defaults() ScanConfig {
	return ScanConfig{
		Chains:          append([]ChainConfig(nil), ChainsDefault...),
		QuoteCurrency:   QuoteCurrencyDefault,
		PriceSource:     PriceSourceDefault,
		PriceURL:        PriceURLDefault,
		PriceTTL:        PriceTTLDefault,
		Interval:        IntervalDefault,
		ValueThreshold:  ThresholdDefault,
		RenderInterval:  RenderIntervalDefault,
		RecentWindow:    RecentWindowDefault,
		ShutdownTimeout: ShutdownTimeoutDefault,
		HTTPTimeout:     HTTPTimeoutDefault,
		Port:            PortDefault,
		Metrics:         MetricsDefault,
		LogLevel:        LogLevelDefault,
	}
}

func setDefaults(v *viper.Viper) {
	d := defaults()
	v.SetDefault("quote_currency", d.QuoteCurrency)
	v.SetDefault("price_source", d.PriceSource)
	v.SetDefault("price_url", d.PriceURL)
	v.SetDefault("price_ttl", d.PriceTTL.String())
	v.SetDefault("interval", d.Interval.String())
	v.SetDefault("stop_on_profit", false)
	v.SetDefault("profit_min_usd", d.ValueThreshold.String())
	v.SetDefault("render_interval", d.RenderInterval.String())
	v.SetDefault("recent_window", d.RecentWindow)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout.String())
	v.SetDefault("http_timeout", d.HTTPTimeout.String())
	v.SetDefault("proxy", "")
	v.SetDefault("dbtype", "")
	v.SetDefault("dbconn", "")
	v.SetDefault("mbtype", "")
	v.SetDefault("mbconn", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("port", d.Port)
	v.SetDefault("metrics", d.Metrics)
	v.SetDefault("clipboard", false)
	v.SetDefault("export_dir", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("aws_region", "")
	v.SetDefault("log_level", d.LogLevel)
}

func decode(v *viper.Viper) (conf ScanConfig, err error) {
	conf = defaults()

	if conf.Chains, err = chains(v); err != nil {
		return conf, err
	}

	conf.QuoteCurrency = strings.ToUpper(v.GetString("quote_currency"))
	conf.PriceSource = strings.ToLower(v.GetString("price_source"))
	conf.PriceURL = v.GetString("price_url")
	conf.StopOnValue = v.GetBool("stop_on_profit")
	conf.RecentWindow = v.GetInt("recent_window")
	conf.Proxy = v.GetString("proxy")
	conf.DbType = v.GetString("dbtype")
	conf.DbConn = v.GetString("dbconn")
	conf.MbType = v.GetString("mbtype")
	conf.MbConn = v.GetString("mbconn")
	conf.Endpoint = v.GetString("endpoint")
	conf.Port = v.GetString("port")
	conf.Metrics = v.GetString("metrics")
	conf.Clipboard = v.GetBool("clipboard")
	conf.ExportDir = v.GetString("export_dir")
	conf.S3Bucket = v.GetString("s3_bucket")
	conf.AwsRegion = v.GetString("aws_region")
	conf.LogLevel = v.GetString("log_level")

	if conf.ValueThreshold, err = decimal.NewFromString(v.GetString("profit_min_usd")); err != nil {
		return conf, errors.Wrapf(ErrBadValue, "profit_min_usd %q", v.GetString("profit_min_usd"))
	}

	for key, d := range map[string]*time.Duration{
		"price_ttl":        &conf.PriceTTL,
		"interval":         &conf.Interval,
		"render_interval":  &conf.RenderInterval,
		"shutdown_timeout": &conf.ShutdownTimeout,
		"http_timeout":     &conf.HTTPTimeout,
	} {
		if *d, err = Seconds(v.GetString(key)); err != nil {
			return conf, errors.Wrapf(err, "%s", key)
		}
	}

	return conf, nil
}

// Seconds parses a duration either in Go notation ("1m30s") or as a plain number of seconds ("3.0").
func Seconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 {
			return 0, errors.Wrapf(ErrBadValue, "negative duration %q", s)
		}

		return time.Duration(f * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.Wrapf(ErrBadValue, "duration %q", s)
	}

	return d, nil
}

// chains reads the chain list. It accepts an ordered list of chains, a mapping keyed by symbol (sorted by symbol as
// mappings carry no order) or, from SCAN_CHAINS, a JSON list.
func chains(v *viper.Viper) ([]ChainConfig, error) {
	var cc []ChainConfig

	switch raw := v.Get("chains").(type) {
	case nil:
		return append([]ChainConfig(nil), ChainsDefault...), nil
	case string:
		if err := json.Unmarshal([]byte(raw), &cc); err != nil {
			log.Warn().Msg("Error reading chains from OS ENV SCAN_CHAINS.")

			return nil, errors.Wrap(err, "chains")
		}
	case map[string]interface{}:
		m := make(map[string]ChainConfig, len(raw))
		if err := v.UnmarshalKey("chains", &m); err != nil {
			return nil, errors.Wrap(err, "chains")
		}

		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			c := m[k]
			if strings.TrimSpace(c.Symbol) == "" {
				c.Symbol = k
			}

			cc = append(cc, c)
		}
	default:
		if err := v.UnmarshalKey("chains", &cc); err != nil {
			return nil, errors.Wrap(err, "chains")
		}
	}

	return Normalize(cc), nil
}

// Normalize upper-cases symbols, trims addresses and drops the empty ones. Entries without a symbol are ignored and
// repeated symbols are merged into the first entry so there is one poller per chain.
func Normalize(cc []ChainConfig) []ChainConfig {
	out := make([]ChainConfig, 0, len(cc))
	idx := make(map[string]int, len(cc))

	for _, c := range cc {
		c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
		if c.Symbol == "" {
			log.Warn().Msg("Chain without symbol in configuration. Ignoring...")

			continue
		}

		addrs := make([]string, 0, len(c.Addresses))

		for _, a := range c.Addresses {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, a)
			}
		}

		c.Addresses = addrs

		if i, ok := idx[c.Symbol]; ok {
			log.Warn().Str("chain", c.Symbol).Msg("Chain configured twice, merging addresses")
			out[i].Addresses = append(out[i].Addresses, c.Addresses...)

			continue
		}

		idx[c.Symbol] = len(out)
		out = append(out, c)
	}

	return out
}
