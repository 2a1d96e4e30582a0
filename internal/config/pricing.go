package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/pricing"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingConfig is the on-disk shape of the pricing section.
type PricingConfig struct {
	ProtocolTiers      []ProtocolTierConfig `mapstructure:"protocolTiers"`
	VisitDiscountTiers []DiscountTierConfig `mapstructure:"visitDiscountTiers"`
	OnsiteVisitPrice   string               `mapstructure:"onsiteVisitPrice"`
	RemoteVisitPrice   string               `mapstructure:"remoteVisitPrice"`
	ImplementationFee  string               `mapstructure:"implementationFee"`
}

type ProtocolTierConfig struct {
	Min   int    `mapstructure:"min"`
	Max   *int   `mapstructure:"max"`
	Price string `mapstructure:"price"`
}

type DiscountTierConfig struct {
	Min      int    `mapstructure:"min"`
	Max      *int   `mapstructure:"max"`
	Discount string `mapstructure:"discount"`
}

// CompanyConfig describes the invoice issuer printed on rendered invoices.
type CompanyConfig struct {
	Name      string     `mapstructure:"name" json:"name"`
	Trade     string     `mapstructure:"trade" json:"trade"`
	LegalName string     `mapstructure:"legalName" json:"legal_name"`
	Address   string     `mapstructure:"address" json:"address"`
	City      string     `mapstructure:"city" json:"city"`
	Bank      BankConfig `mapstructure:"bank" json:"bank"`
}

type BankConfig struct {
	Name        string   `mapstructure:"name" json:"name"`
	ABA         string   `mapstructure:"aba" json:"aba"`
	SWIFT       string   `mapstructure:"swift" json:"swift"`
	Beneficiary string   `mapstructure:"beneficiary" json:"beneficiary"`
	Account     string   `mapstructure:"account" json:"account"`
	Address     string   `mapstructure:"address" json:"address"`
	Notes       []string `mapstructure:"notes" json:"notes"`
}

func DefaultCompanyConfig() CompanyConfig {
	return CompanyConfig{
		Name:      "ICHTYS TECHNOLOGY",
		Trade:     "ADB: ICHTYS TECHNOLOGY",
		LegalName: "Veritas Lux Capital LLC",
		Address:   "104 Crandon Blvd. Suite 312",
		City:      "Key Biscayne, FL 33149",
		Bank: BankConfig{
			Name:        "CITI BANK",
			ABA:         "266086554",
			SWIFT:       "CITIUS33",
			Beneficiary: "VERITAS LUX TECH CAPITAL LLC",
			Account:     "9154428841",
			Address:     "104 Crandon Blvd, Key Biscayne, FL 33149",
			Notes: []string{
				"Include invoice number as reference in bank transfer",
				"Amount must be NET and free of transfer fees",
			},
		},
	}
}

type invoicingSnapshot struct {
	schedule pricing.Schedule
	company  CompanyConfig
}

// PricingConfigHolder serves the current pricing schedule and company details.
// A reload swaps the whole snapshot, so a reader never sees a mix of old and
// new tables.
type PricingConfigHolder struct {
	current atomic.Value // holds invoicingSnapshot
}

// NewStaticPricingConfigHolder returns a holder that never reloads.
func NewStaticPricingConfigHolder(schedule pricing.Schedule, company CompanyConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(invoicingSnapshot{schedule: schedule, company: company})
	return holder
}

// NewPricingConfigHolder reads invoicing.yml and watches it for changes.
// Without a config file the default schedule and company details are used.
func NewPricingConfigHolder(log *zap.Logger) (*PricingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.pricing")

	v := viper.New()
	if path := strings.TrimSpace(getenv("INVOICER_CONFIG_FILE", "")); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("invoicing")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/invoicer")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Info("no invoicing config file found, using default pricing")
		return NewStaticPricingConfigHolder(pricing.DefaultSchedule(), DefaultCompanyConfig()), nil
	}

	snapshot, err := readSnapshot(v, false)
	if err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(snapshot)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := readSnapshot(v, true)
		if err != nil {
			log.Warn("invalid invoicing config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("invoicing config reloaded", zap.String("file", e.Name))
	})

	log.Info("invoicing config loaded", zap.String("file", v.ConfigFileUsed()))
	return holder, nil
}

// Schedule returns the active pricing schedule.
func (h *PricingConfigHolder) Schedule() pricing.Schedule {
	return h.current.Load().(invoicingSnapshot).schedule
}

// Company returns the active issuer details.
func (h *PricingConfigHolder) Company() CompanyConfig {
	return h.current.Load().(invoicingSnapshot).company
}

// errMissingPricing rejects a reload of an empty or truncated file.
var errMissingPricing = errors.New("pricing section is missing")

// readSnapshot builds a snapshot from the loaded file. Only the initial load
// may fall back to the default schedule.
func readSnapshot(v *viper.Viper, reload bool) (invoicingSnapshot, error) {
	if reload && !v.IsSet("pricing") {
		return invoicingSnapshot{}, errMissingPricing
	}

	schedule := pricing.DefaultSchedule()
	if v.IsSet("pricing") {
		var cfg PricingConfig
		if err := v.UnmarshalKey("pricing", &cfg); err != nil {
			return invoicingSnapshot{}, err
		}
		built, err := cfg.Schedule()
		if err != nil {
			return invoicingSnapshot{}, err
		}
		schedule = built
	}

	company := DefaultCompanyConfig()
	if v.IsSet("company") {
		if err := v.UnmarshalKey("company", &company); err != nil {
			return invoicingSnapshot{}, err
		}
	}

	return invoicingSnapshot{schedule: schedule, company: company}, nil
}

// Schedule converts the config into a validated pricing schedule. Missing
// tables or rates fall back to the defaults.
func (c PricingConfig) Schedule() (pricing.Schedule, error) {
	protocolTiers := pricing.DefaultProtocolTiers()
	if len(c.ProtocolTiers) > 0 {
		protocolTiers = make([]pricing.PriceTier, 0, len(c.ProtocolTiers))
		for i, t := range c.ProtocolTiers {
			price, err := parseAmount(t.Price)
			if err != nil {
				return pricing.Schedule{}, fmt.Errorf("pricing.protocolTiers[%d].price: %w", i, err)
			}
			protocolTiers = append(protocolTiers, pricing.PriceTier{MinCount: t.Min, MaxCount: t.Max, UnitPrice: price})
		}
	}

	discountTiers := pricing.DefaultVisitDiscountTiers()
	if len(c.VisitDiscountTiers) > 0 {
		discountTiers = make([]pricing.DiscountTier, 0, len(c.VisitDiscountTiers))
		for i, t := range c.VisitDiscountTiers {
			percent, err := parseAmount(t.Discount)
			if err != nil {
				return pricing.Schedule{}, fmt.Errorf("pricing.visitDiscountTiers[%d].discount: %w", i, err)
			}
			discountTiers = append(discountTiers, pricing.DiscountTier{MinVisits: t.Min, MaxVisits: t.Max, DiscountPercent: percent})
		}
	}

	rates := pricing.DefaultRates()
	for _, field := range []struct {
		name  string
		raw   string
		value *decimal.Decimal
	}{
		{"onsiteVisitPrice", c.OnsiteVisitPrice, &rates.OnsiteVisitPrice},
		{"remoteVisitPrice", c.RemoteVisitPrice, &rates.RemoteVisitPrice},
		{"implementationFee", c.ImplementationFee, &rates.ImplementationFee},
	} {
		if strings.TrimSpace(field.raw) == "" {
			continue
		}
		parsed, err := parseAmount(field.raw)
		if err != nil {
			return pricing.Schedule{}, fmt.Errorf("pricing.%s: %w", field.name, err)
		}
		*field.value = parsed
	}

	return pricing.NewSchedule(protocolTiers, discountTiers, rates)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.New("value is required")
	}
	return decimal.NewFromString(raw)
}
