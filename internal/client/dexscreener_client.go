package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tokenstats/internal/app/port"
	domain "tokenstats/internal/domain/entity"
	"tokenstats/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// DefaultDEXScreenerBaseURL is the public DEX Screener API root.
const DefaultDEXScreenerBaseURL = "https://api.dexscreener.com"

// dexScreenerClientImpl is the implementation of port.DEXScreenerClient.
type dexScreenerClientImpl struct {
	fetcher JSONFetcher
	baseURL string
	logger  *zap.Logger
}

// NewDEXScreenerClient creates a new instance of dexScreenerClientImpl.
func NewDEXScreenerClient(baseURL string, fetcher JSONFetcher, logger *zap.Logger) port.DEXScreenerClient {
	if baseURL == "" {
		baseURL = DefaultDEXScreenerBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &dexScreenerClientImpl{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("DEXScreenerClient"),
	}
}

// GetTokenPairs implements the port.DEXScreenerClient interface. Pairs on other
// chains are dropped and the rest are oriented so token is the base side.
func (c *dexScreenerClientImpl) GetTokenPairs(ctx context.Context, dexscreenerChainID string, token domain.TokenAddress) ([]domain.LiquidityPair, error) {
	if token == "" {
		return nil, fmt.Errorf("token address cannot be empty")
	}
	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, dexscreenerChainID, token)

	c.logger.Debug("Requesting token pairs from DEX Screener", zap.String("url", requestURL))

	var rawBody jsoniter.RawMessage
	if err := c.fetcher.FetchJSON(ctx, requestURL, &rawBody); err != nil {
		return nil, fmt.Errorf("dex pairs for %s: %w", token, err)
	}

	rawPairs, err := decodePairs(rawBody)
	if err != nil {
		c.logger.Error("Failed to unmarshal DEX Screener response as wrapped object or array",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal DEX Screener response from %s: %w", requestURL, err)
	}

	pairs := make([]domain.LiquidityPair, 0, len(rawPairs))
	for _, raw := range rawPairs {
		if dexscreenerChainID != "" && raw.ChainID != "" && raw.ChainID != dexscreenerChainID {
			continue
		}
		pair, ok := toLiquidityPair(raw).Oriented(token)
		if !ok {
			continue
		}
		pairs = append(pairs, pair)
	}

	if len(pairs) == 0 {
		c.logger.Warn("DEX Screener returned no pairs for token",
			zap.String("token", token.String()),
			zap.String("dexscreenerChainID", dexscreenerChainID))
	} else {
		c.logger.Debug("Fetched DEX Screener pairs",
			zap.String("token", token.String()),
			zap.Int("pairCount", len(pairs)))
	}
	return pairs, nil
}

// decodePairs accepts both the wrapped {"pairs": [...]} shape and a bare array.
// A wrapper with "pairs": null is an unknown token and yields no pairs.
func decodePairs(body []byte) ([]entity.PairData, error) {
	var wrapper entity.DEXTokenPair
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if wrapper.Pair != nil && wrapper.Pairs == nil {
			return []entity.PairData{*wrapper.Pair}, nil
		}
		return wrapper.Pairs, nil
	}

	var direct []entity.PairData
	if err := json.Unmarshal(body, &direct); err != nil {
		return nil, err
	}
	return direct, nil
}

func toLiquidityPair(p entity.PairData) domain.LiquidityPair {
	pair := domain.LiquidityPair{
		ChainID:     p.ChainID,
		DexID:       p.DexID,
		PairAddress: strings.ToLower(p.PairAddress),
		BaseToken: domain.PairToken{
			Address: domain.NormalizeAddress(p.BaseToken.Address),
			Symbol:  p.BaseToken.Symbol,
		},
		QuoteToken: domain.PairToken{
			Address: domain.NormalizeAddress(p.QuoteToken.Address),
			Symbol:  p.QuoteToken.Symbol,
		},
		PriceUSD:      parseFloat(p.PriceUsd),
		PriceNative:   parseFloat(p.PriceNative),
		Volume24hUSD:  p.Volume.H24,
		BuyCount24h:   p.Txns.H24.Buys,
		SellCount24h:  p.Txns.H24.Sells,
		PriceChangeH6: p.PriceChange.H6,
		PriceChange24: p.PriceChange.H24,
		MarketCap:     p.MarketCap,
		FDV:           p.Fdv,
	}
	if p.Liquidity != nil {
		pair.LiquidityUSD = p.Liquidity.Usd
		pair.BaseReserve = p.Liquidity.Base
		pair.QuoteReserve = p.Liquidity.Quote
	}
	return pair
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
