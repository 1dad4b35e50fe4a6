package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/GoPolymarket/polymarket-trader/internal/api"
	"github.com/GoPolymarket/polymarket-trader/internal/config"
	"github.com/GoPolymarket/polymarket-trader/internal/engine"
	"github.com/GoPolymarket/polymarket-trader/internal/execution"
	"github.com/GoPolymarket/polymarket-trader/internal/journal"
	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
	"github.com/GoPolymarket/polymarket-trader/internal/logging"
	"github.com/GoPolymarket/polymarket-trader/internal/notify"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
	"github.com/GoPolymarket/polymarket-trader/internal/strategy"
	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

// minStartupBalanceUSD is the self-test gate: below this, the process
// refuses to start live trading (spec §9, avoids a cold-start account too
// thin to clear a single sum-to-one trade).
const minStartupBalanceUSD = 10.0

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		log.Printf("warning: config file: %v, using defaults", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logFile, err := logging.Setup("data/trader.log")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logFile.Close()

	log.Printf("polymarket-trader starting (dry_run=%t)", cfg.DryRun)

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
	v, catalog, oracle, err := buildVenue(cfg)
	if err != nil {
		return fmt.Errorf("venue wiring: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	balance, err := v.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("startup self-test: get balance: %w", err)
	}
	if !cfg.DryRun && balance < minStartupBalanceUSD {
		return fmt.Errorf("startup self-test: balance %.2f below minimum %.2f", balance, minStartupBalanceUSD)
	}
	log.Printf("startup self-test passed: balance=%.2f", balance)

	l := ledger.New()
	riskMgr := risk.New(risk.Config{
		MaxTradeCashUSD:            cfg.Risk.MaxTradeCash,
		MinTradeCashUSD:            cfg.Risk.MinTradeCash,
		MaxPositionPct:             cfg.Risk.MaxPositionPct,
		MaxTotalExposurePct:        cfg.Risk.MaxTotalExposurePct,
		MaxStrategyExposurePct:     cfg.Risk.MaxStrategyExposurePct,
		MaxConsecutiveLosses:       cfg.Risk.MaxConsecutiveLosses,
		MaxDailyDrawdownPct:        cfg.Risk.MaxDailyDrawdownPct,
		MaxSingleLossPct:           cfg.Risk.MaxSingleLossPct,
		CooldownMinutes:            cfg.Risk.CooldownMinutes,
		RecoveryPositionMultiplier: cfg.Risk.RecoveryPositionMultiplier,
		RecoveryTradeCount:         cfg.Risk.RecoveryTradeCount,
	}, l)

	orders := execution.New(execution.Config{
		MaxRetries:       cfg.Execution.MaxRetries,
		RetryBackoffBase: cfg.Execution.RetryBackoffBase,
		OrderTimeout:     time.Duration(cfg.Execution.OrderTimeoutSeconds) * time.Second,
		DryRun:           cfg.DryRun,
	}, v)

	j, err := journal.Open(cfg.Journal.CSVPath, cfg.Journal.SQLitePath)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer j.Close()

	var notifier *notify.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("telegram notifier disabled: %v", err)
			notifier = nil
		}
	}

	deps := strategy.Deps{Catalog: catalog, Venue: v, Orders: orders, Ledger: l, Risk: riskMgr, Journal: j}

	build := func(phase int) []strategy.Strategy {
		phaseFn := func() int { return phase }
		active := []strategy.Strategy{
			strategy.NewSumToOne(deps, strategy.SumToOneConfig{
				ArbThreshold:      cfg.SumToOne.ArbThreshold,
				SlippageBuffer:    cfg.SumToOne.SlippageBuffer,
				MinArbProfitPct:   cfg.SumToOne.MinArbProfitPct,
				MinDailyVolumeArb: cfg.SumToOne.MinDailyVolumeArb,
				EstimatedFeeRate:  cfg.Execution.EstimatedFeeRate,
				MaxPositionPct:    cfg.Risk.MaxPositionPct,
			}, phaseFn),
		}
		if oracle == nil {
			log.Printf("engine: resolution arb requires a price oracle, skipping at phase %d", phase)
		} else {
			active = append(active, strategy.NewResolutionArb(deps, strategy.ResolutionArbConfig{
				MinResolutionEdge:        cfg.Resolution.MinResolutionEdge,
				PriceBufferPct:           cfg.Resolution.PriceBufferPct,
				MaxResolutionPositionPct: cfg.Resolution.MaxResolutionPositionPct,
				AssetKeywords:            cfg.Resolution.AssetKeywords,
				Asset:                    cfg.Resolution.Asset,
			}, oracle, phaseFn))
		}
		if phase >= 2 {
			active = append(active, strategy.NewSniper(deps, strategy.SniperConfig{
				NewMarketAgeLimit:       cfg.Sniper.NewMarketAgeLimit,
				HighPriorityThreshold:   cfg.Sniper.HighPriorityThreshold,
				ArbThreshold:            cfg.SumToOne.ArbThreshold,
				MaxNewMarketExposurePct: cfg.Sniper.MaxNewMarketExposurePct,
				EstimatedFeeRate:        cfg.Execution.EstimatedFeeRate,
				MinArbProfitPct:         cfg.SumToOne.MinArbProfitPct,
			}, phaseFn))
		}
		if phase >= 3 {
			if oracle == nil {
				log.Printf("engine: directional engine requires a price oracle, skipping at phase %d", phase)
			} else {
				active = append(active, strategy.NewDirectional(deps, strategy.DirectionalConfig{
					MinEdgeDirectional:            cfg.Directional.MinEdgeDirectional,
					MaxDirectionalPositionPct:     cfg.Directional.MaxDirectionalPositionPct,
					MaxConcurrentDirectional:      cfg.Directional.MaxConcurrentDirectional,
					MaxTotalDirectionalPct:        cfg.Directional.MaxTotalDirectionalPct,
					DirectionalAutoDisableWinrate: cfg.Directional.DirectionalAutoDisableWinrate,
					DirectionalMinSample:          cfg.Directional.DirectionalMinSample,
					Asset:                         cfg.Directional.Asset,
					AssetKeywords:                 cfg.Directional.AssetKeywords,
				}, oracle, phaseFn))
			}
		}
		return active
	}

	var engineNotifier engine.Notifier
	if notifier != nil {
		engineNotifier = notifier
	}
	sched := engine.New(cfg, v, orders, l, riskMgr, j, engineNotifier, build)

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg.API.Addr, sched, l, riskMgr)
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	err = sched.Run(ctx)

	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ScanInterval)
		defer shutdownCancel()
		if sErr := apiServer.Shutdown(shutdownCtx); sErr != nil {
			log.Printf("api server shutdown: %v", sErr)
		}
	}
	return err
}

// buildVenue constructs the engine's external collaborators. Per
// spec.md §1 these are deliberately opaque interfaces with no
// concrete on-chain signing or HTTP client implementation inside this
// module; a deployment wires a real venue.OrderVenue,
// venue.MarketCatalog, and (optionally, for resolution arb and the
// directional engine) a venue.PriceOracle here before building a
// release binary.
func buildVenue(cfg config.Config) (venue.OrderVenue, venue.MarketCatalog, venue.PriceOracle, error) {
	return nil, nil, nil, errors.New("no venue adapter wired: provide a venue.OrderVenue and venue.MarketCatalog implementation in buildVenue")
}
