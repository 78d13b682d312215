package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokenstats/internal/domain/entity"
	"tokenstats/internal/infrastructure/configloader"
	networkdefinition "tokenstats/internal/infrastructure/network/definition"
	"tokenstats/internal/infrastructure/tokenloader"
	"tokenstats/internal/infrastructure/wiring"
	"tokenstats/internal/pkg/logger"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
	"go.uber.org/zap/exp/zapslog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type tokenReport struct {
	Token   entity.TokenAddress `json:"token"`
	Network string              `json:"network"`
	Label   string              `json:"label,omitempty"`
	Results []entity.StatResult `json:"results,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func main() {
	var (
		configPath = pflag.StringP("config", "c", "config/config.yml", "path to the YAML config file")
		envFile    = pflag.String("env-file", ".env", "optional .env file loaded before the config")
		network    = pflag.StringP("network", "n", "", "network identifier (default: first configured network)")
		tokens     = pflag.StringSliceP("token", "t", nil, "token address; repeatable")
		statIDs    = pflag.StringSliceP("stat", "s", nil, "stat id to compute; repeatable (default: all)")
		watchlist  = pflag.StringP("watchlist", "w", "", "watchlist file (.json array or one address per line)")
		listStats  = pflag.Bool("list", false, "print the registered stats and exit")
		logLevel   = pflag.String("log-level", "", "override the configured log level")
		timeout    = pflag.Duration("timeout", 5*time.Minute, "overall deadline")
		pretty     = pflag.Bool("pretty", true, "indent JSON output")
	)
	pflag.Parse()

	if err := configloader.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		os.Exit(1)
	}
	cfg, err := configloader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	zapLogger, err := logger.NewZapLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger.SetDefault(slog.New(zapslog.NewHandler(zapLogger.Core(), zapslog.WithName("checker"))))

	appLogger := logger.NewSlogAdapter()
	netDefProvider := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg.Networks)
	built := wiring.BuildNetworkStats(cfg, netDefProvider, zapLogger)

	defaultNetwork := netDefProvider.Default().Identifier
	if *network != "" {
		def, ok := netDefProvider.GetNetworkDefinitionByName(*network)
		if !ok {
			logger.Fatal("Unknown network", "network", *network)
		}
		defaultNetwork = def.Identifier
	}

	if *listStats {
		writeJSON(built[defaultNetwork].Stats.List(), *pretty)
		return
	}

	entries := make([]entity.WatchlistEntry, 0, len(*tokens))
	for _, t := range *tokens {
		entries = append(entries, entity.WatchlistEntry{Address: entity.TokenAddress(t)})
	}
	if *watchlist != "" {
		loaded, err := tokenloader.NewWatchlistLoader(appLogger.Info, appLogger.Warn).Load(*watchlist)
		if err != nil {
			logger.Fatal("Failed to load watchlist", "path", *watchlist, "error", err)
		}
		entries = append(entries, loaded...)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no tokens given: use --token or --watchlist")
		pflag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports := make([]tokenReport, 0, len(entries))
	for _, e := range entries {
		report := tokenReport{Label: e.Label, Network: defaultNetwork}
		if e.Network != "" {
			if def, ok := netDefProvider.GetNetworkDefinitionByName(e.Network); ok {
				report.Network = def.Identifier
			} else {
				report.Error = "unknown network: " + e.Network
				reports = append(reports, report)
				continue
			}
		}
		token, err := entity.ParseTokenAddress(string(e.Address))
		if err != nil {
			report.Token = e.Address
			report.Error = err.Error()
			reports = append(reports, report)
			continue
		}
		report.Token = token

		ns := built[report.Network]
		if len(*statIDs) == 0 {
			report.Results = ns.Stats.ComputeAll(ctx, token)
		} else {
			for _, id := range *statIDs {
				result, err := ns.Stats.Compute(ctx, id, token)
				if err != nil {
					report.Error = err.Error()
					break
				}
				report.Results = append(report.Results, result)
			}
		}
		reports = append(reports, report)
	}

	writeJSON(reports, *pretty)
}

func writeJSON(v any, pretty bool) {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		logger.Fatal("Failed to encode output", "error", err)
	}
	fmt.Println(string(out))
}
