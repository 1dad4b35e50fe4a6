package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface (spec §6): credentials,
// operational tunables, and one sub-struct per strategy/subsystem.
type Config struct {
	PrivateKey    string `yaml:"private_key"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	APIPassphrase string `yaml:"api_passphrase"`

	DryRun              bool          `yaml:"dry_run"`
	ScanInterval        time.Duration `yaml:"scan_interval"`
	ChainID             int64         `yaml:"chain_id"`
	ActivePhaseOverride int           `yaml:"active_phase_override"`
	LogLevel            string        `yaml:"log_level"`

	Phase2Threshold float64 `yaml:"phase2_threshold"`
	Phase3Threshold float64 `yaml:"phase3_threshold"`

	SumToOne    SumToOneConfig        `yaml:"sum_to_one"`
	Resolution  ResolutionConfig      `yaml:"resolution"`
	Sniper      SniperConfigYAML      `yaml:"sniper"`
	Directional DirectionalConfigYAML `yaml:"directional"`
	Risk        RiskConfigYAML        `yaml:"risk"`
	Execution   ExecutionConfig       `yaml:"execution"`
	Telegram    TelegramConfig        `yaml:"telegram"`
	Journal     JournalConfig         `yaml:"journal"`
	API         APIConfig             `yaml:"api"`
}

type SumToOneConfig struct {
	ArbThreshold      float64 `yaml:"arb_threshold"`
	SlippageBuffer    float64 `yaml:"slippage_buffer"`
	MinArbProfitPct   float64 `yaml:"min_arb_profit_pct"`
	MinDailyVolumeArb float64 `yaml:"min_daily_volume_arb"`
}

type ResolutionConfig struct {
	MinResolutionEdge        float64  `yaml:"min_resolution_edge"`
	PriceBufferPct           float64  `yaml:"price_buffer_pct"`
	MaxResolutionPositionPct float64  `yaml:"max_resolution_position_pct"`
	Asset                    string   `yaml:"asset"`
	AssetKeywords            []string `yaml:"asset_keywords"`
}

type SniperConfigYAML struct {
	NewMarketScanInterval   time.Duration `yaml:"new_market_scan_interval"`
	NewMarketAgeLimit       time.Duration `yaml:"new_market_age_limit"`
	HighPriorityThreshold   float64       `yaml:"high_priority_threshold"`
	MaxNewMarketExposurePct float64       `yaml:"max_new_market_exposure_pct"`
}

type DirectionalConfigYAML struct {
	MinEdgeDirectional            float64  `yaml:"min_edge_directional"`
	MaxDirectionalPositionPct     float64  `yaml:"max_directional_position_pct"`
	MaxConcurrentDirectional      int      `yaml:"max_concurrent_directional"`
	MaxTotalDirectionalPct        float64  `yaml:"max_total_directional_pct"`
	DirectionalAutoDisableWinrate float64  `yaml:"directional_auto_disable_winrate"`
	DirectionalMinSample          int      `yaml:"directional_min_sample"`
	Asset                         string   `yaml:"asset"`
	AssetKeywords                 []string `yaml:"asset_keywords"`
}

type RiskConfigYAML struct {
	MaxTradeCash               float64 `yaml:"max_trade_cash"`
	MinTradeCash               float64 `yaml:"min_trade_cash"`
	MaxPositionPct             float64 `yaml:"max_position_pct"`
	MaxTotalExposurePct        float64 `yaml:"max_total_exposure_pct"`
	MaxStrategyExposurePct     float64 `yaml:"max_strategy_exposure_pct"`
	MaxConsecutiveLosses       int     `yaml:"max_consecutive_losses"`
	MaxDailyDrawdownPct        float64 `yaml:"max_daily_drawdown_pct"`
	MaxSingleLossPct           float64 `yaml:"max_single_loss_pct"`
	CooldownMinutes            float64 `yaml:"cooldown_minutes"`
	RecoveryPositionMultiplier float64 `yaml:"recovery_position_multiplier"`
	RecoveryTradeCount         int     `yaml:"recovery_trade_count"`
}

type ExecutionConfig struct {
	OrderTimeoutSeconds int     `yaml:"order_timeout_seconds"`
	MaxRetries          int     `yaml:"max_retries"`
	RetryBackoffBase    float64 `yaml:"retry_backoff_base"`
	EstimatedFeeRate    float64 `yaml:"estimated_fee_rate"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type JournalConfig struct {
	CSVPath    string `yaml:"csv_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration surface's documented defaults
// (spec §6).
func Default() Config {
	return Config{
		DryRun:              true,
		ScanInterval:        10 * time.Second,
		ChainID:             137,
		ActivePhaseOverride: 0,
		LogLevel:            "info",

		Phase2Threshold: 250,
		Phase3Threshold: 500,

		SumToOne: SumToOneConfig{
			ArbThreshold:      0.985,
			SlippageBuffer:    0.005,
			MinArbProfitPct:   0.005,
			MinDailyVolumeArb: 500,
		},
		Resolution: ResolutionConfig{
			MinResolutionEdge:        0.03,
			PriceBufferPct:           0.005,
			MaxResolutionPositionPct: 0.20,
			Asset:                    "BTC",
			AssetKeywords:            []string{"btc", "bitcoin"},
		},
		Sniper: SniperConfigYAML{
			NewMarketScanInterval:   30 * time.Second,
			NewMarketAgeLimit:       900 * time.Second,
			HighPriorityThreshold:   0.94,
			MaxNewMarketExposurePct: 0.25,
		},
		Directional: DirectionalConfigYAML{
			MinEdgeDirectional:            0.10,
			MaxDirectionalPositionPct:     0.10,
			MaxConcurrentDirectional:      3,
			MaxTotalDirectionalPct:        0.25,
			DirectionalAutoDisableWinrate: 0.50,
			DirectionalMinSample:          20,
			Asset:                         "BTC",
			AssetKeywords:                 []string{"btc", "bitcoin"},
		},
		Risk: RiskConfigYAML{
			MaxTradeCash:               100,
			MinTradeCash:               2,
			MaxPositionPct:             0.20,
			MaxTotalExposurePct:        0.40,
			MaxStrategyExposurePct:     0.30,
			MaxConsecutiveLosses:       3,
			MaxDailyDrawdownPct:        0.05,
			MaxSingleLossPct:           0.03,
			CooldownMinutes:            30,
			RecoveryPositionMultiplier: 0.5,
			RecoveryTradeCount:         5,
		},
		Execution: ExecutionConfig{
			OrderTimeoutSeconds: 15,
			MaxRetries:          3,
			RetryBackoffBase:    2,
			EstimatedFeeRate:    0.01,
		},
		Journal: JournalConfig{
			CSVPath:    "data/trades.csv",
			SQLitePath: "data/trades.db",
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}

// LoadFile reads a YAML config file over the documented defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides credential and operational fields from the
// process environment (populated from .env via godotenv in
// cmd/trader/main.go).
func (c *Config) ApplyEnv() {
	if v := os.Getenv("POLYMARKET_PK"); v != "" {
		c.PrivateKey = v
	}
	if v := os.Getenv("POLYMARKET_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("POLYMARKET_API_SECRET"); v != "" {
		c.APISecret = v
	}
	if v := os.Getenv("POLYMARKET_API_PASSPHRASE"); v != "" {
		c.APIPassphrase = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
		c.Telegram.Enabled = true
	}
	if v := os.Getenv("TRADER_DRY_RUN"); v != "" {
		c.DryRun = strings.EqualFold(v, "true") || v == "1"
	}
	if v := strings.TrimSpace(os.Getenv("TRADER_PHASE_OVERRIDE")); v != "" {
		switch v {
		case "1", "2", "3":
			c.ActivePhaseOverride = int(v[0] - '0')
		}
	}
}
