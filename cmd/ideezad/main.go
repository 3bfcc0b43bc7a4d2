package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/config"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/core/events"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/gateway"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/gateway/middleware"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/auction"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/market"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/native/token"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/observability/logging"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/rpc"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/state"
	"github.com/violetfocus0618/Ideezacoin-nft-smartcontract/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("IDEEZA_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env == "" {
		env = cfg.Environment
	}

	logger := logging.Setup("ideezad", env, logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := seedParams(cfg, manager); err != nil {
		logger.Error("Failed to seed chain parameters", slog.Any("error", err))
		os.Exit(1)
	}

	operator, hasOperator, err := manager.Operator()
	if err != nil {
		logger.Error("Failed to read operator", slog.Any("error", err))
		os.Exit(1)
	}
	if !hasOperator {
		logger.Warn("No operator configured; fee administration is disabled until one is set")
	}

	recorder := events.NewRecorder(events.DefaultRecorderCapacity)

	registry := token.NewRegistry(cfg.Collection)
	registry.SetState(manager)
	registry.SetEmitter(recorder)

	marketEngine := market.NewEngine()
	marketEngine.SetState(manager)
	marketEngine.SetRegistry(registry)
	marketEngine.SetVault(state.MarketVaultAddress())
	marketEngine.SetOperator(operator)
	marketEngine.SetPauses(manager)
	marketEngine.SetEmitter(recorder)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(manager)
	auctionEngine.SetRegistry(registry)
	auctionEngine.SetVault(state.AuctionVaultAddress())
	auctionEngine.SetPauses(manager)
	auctionEngine.SetEmitter(recorder)

	rpcServer := rpc.NewServer(marketEngine, auctionEngine, registry, recorder)

	authenticator := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    strings.TrimSpace(cfg.JWTSecret) != "",
		HMACSecret: cfg.JWTSecret,
	}, logger)
	observability := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName: "ideeza-gateway",
		LogRequests: env == "local",
	}, logger)

	gatewayHandler, err := gateway.New(gateway.Config{
		Market:        marketEngine,
		Auction:       auctionEngine,
		Tokens:        registry,
		RPCHandler:    rpcServer.Handler(),
		Authenticator: authenticator,
		Observability: observability,
	})
	if err != nil {
		logger.Error("Failed to assemble gateway", slog.Any("error", err))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("RPC listening", slog.String("address", cfg.RPCAddress))
		errCh <- rpcServer.Start(cfg.RPCAddress)
	}()
	go func() {
		logger.Info("Gateway listening", slog.String("address", cfg.GatewayAddress))
		errCh <- http.ListenAndServe(cfg.GatewayAddress, gatewayHandler)
	}()

	if err := <-errCh; err != nil {
		logger.Error("Listener terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "ledger.bolt"))
	default:
		return storage.NewLevelDB(cfg.DataDir)
	}
}

// seedParams copies the bootstrap parameters from the config file into the
// params store. The stored operator and fee win over the config on restart so
// runtime fee updates survive.
func seedParams(cfg *config.Config, manager *state.Manager) error {
	operator, configured, err := cfg.OperatorAddress()
	if err != nil {
		return err
	}
	if configured {
		if _, stored, err := manager.Operator(); err != nil {
			return err
		} else if !stored {
			if err := manager.SetOperator(operator); err != nil {
				return err
			}
		}
	}

	fee, err := cfg.ListingFeeAmount()
	if err != nil {
		return err
	}
	if fee.Sign() > 0 {
		stored, err := manager.ListingFee()
		if err != nil {
			return err
		}
		if stored.Sign() == 0 {
			if err := manager.SetListingFee(fee); err != nil {
				return err
			}
		}
	}

	for _, module := range cfg.PausedModules {
		if err := manager.SetPaused(strings.TrimSpace(module), true); err != nil {
			return err
		}
	}
	return nil
}
