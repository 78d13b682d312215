// Package wiring assembles the per-network stat services from configuration.
package wiring

import (
	"net/url"

	"tokenstats/internal/app/port"
	"tokenstats/internal/app/provider"
	"tokenstats/internal/app/service"
	"tokenstats/internal/client"
	"tokenstats/internal/domain/entity"
	"tokenstats/internal/infrastructure/configloader"
	"tokenstats/internal/infrastructure/httpclient"
	"tokenstats/internal/pkg/logger"

	"go.uber.org/zap"
)

const userAgent = "tokenstats/1.0"

// NetworkStats is the stack serving one network.
type NetworkStats struct {
	Network entity.NetworkDefinition
	Cache   *provider.TokenDataCache
	Stats   port.StatService
}

// BuildNetworkStats creates one explorer client, cache and stat registry per
// active network. All networks share one DEX Screener fetcher so its rate
// limit and breaker are global.
func BuildNetworkStats(cfg *configloader.Config, networks port.NetworkDefinitionProvider, zapLogger *zap.Logger) map[string]*NetworkStats {
	dexFetcher := httpclient.NewFetcher(httpOptions(cfg, "dexscreener", cfg.DEXScreener.RequestTimeoutMillis), zapLogger)
	dexClient := client.NewDEXScreenerClient(cfg.DEXScreener.BaseURL, dexFetcher, zapLogger)

	out := make(map[string]*NetworkStats)
	for _, netDef := range networks.GetAllNetworkDefinitions() {
		explorerFetcher := httpclient.NewFetcher(
			httpOptions(cfg, "explorer_"+netDef.Identifier, cfg.Explorer.RequestTimeoutMillis), zapLogger)
		explorer := client.NewExplorerClient(client.ExplorerClientConfig{
			BaseURL:  netDef.ExplorerAPIURL,
			APIKey:   cfg.Explorer.APIKey,
			PageSize: cfg.Explorer.PageSize,
		}, explorerFetcher, zapLogger.With(zap.String("network", netDef.Identifier)))

		appLogger := logger.NewSlogAdapter("network", netDef.Identifier)
		cache := provider.NewTokenDataCache(explorer, dexClient, provider.CacheConfig{
			TTL:                 cfg.CacheTTL(),
			LoadTimeout:         cfg.CacheLoadTimeout(),
			HolderMaxPages:      cfg.Pager.HolderMaxPages,
			TransferMaxPages:    cfg.Pager.TransferMaxPages,
			WalletMaxPages:      cfg.Pager.WalletMaxPages,
			TransactionMaxPages: cfg.Pager.TransactionMaxPages,
			DEXScreenerChainID:  netDef.DEXScreenerChainID,
		}, appLogger)

		stats := service.NewStatService(cache, service.DefaultStatDefinitions(), service.StatServiceConfig{
			Source:        sourceLabel(netDef),
			MaxConcurrent: cfg.Stats.MaxConcurrent,
			Timeout:       cfg.StatTimeout(),
		}, appLogger)

		out[netDef.Identifier] = &NetworkStats{Network: netDef, Cache: cache, Stats: stats}
		zapLogger.Info("Network stats initialized",
			zap.String("network", netDef.Identifier),
			zap.String("explorer", netDef.ExplorerAPIURL),
			zap.String("dexScreenerChainID", netDef.DEXScreenerChainID))
	}
	return out
}

func httpOptions(cfg *configloader.Config, name string, timeoutMillis int64) httpclient.Options {
	return httpclient.Options{
		Name:             name,
		Timeout:          configloader.Millis(timeoutMillis),
		RateLimit:        cfg.HTTPClient.RateLimit,
		Burst:            cfg.HTTPClient.BurstLimit,
		MaxRetries:       cfg.HTTPClient.MaxRetries,
		RetryBaseDelay:   configloader.Millis(cfg.HTTPClient.RetryBaseDelayMs),
		RetryMaxDelay:    configloader.Millis(cfg.HTTPClient.RetryMaxDelayMs),
		BreakerFailures:  cfg.HTTPClient.BreakerFailures,
		BreakerCooldown:  configloader.Millis(cfg.HTTPClient.BreakerCooldownMs),
		MaxResponseBytes: cfg.HTTPClient.MaxResponseBodyBytes,
		UserAgent:        userAgent,
	}
}

func sourceLabel(netDef entity.NetworkDefinition) string {
	host := netDef.ExplorerAPIURL
	if u, err := url.Parse(netDef.ExplorerAPIURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return host + " + dexscreener"
}
