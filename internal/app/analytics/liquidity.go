package analytics

import (
	"math"
	"sort"
	"strings"

	"tokenstats/internal/domain/entity"
)

// DefaultTradeSizesUSD are the hypothetical trade sizes of the depth table.
var DefaultTradeSizesUSD = []float64{1_000, 10_000, 100_000}

// stablecoinSymbols are quote tokens whose pairs are preferred for pricing.
var stablecoinSymbols = map[string]struct{}{
	"USDC": {},
	"USDT": {},
	"DAI":  {},
	"BUSD": {},
}

// DexReserves are the virtual reserves of one DEX: every pair of the DEX
// summed, token side in token units and counter side valued in USD.
type DexReserves struct {
	DexID        string  `json:"dexId"`
	Pairs        int     `json:"pairs"`
	TokenReserve float64 `json:"tokenReserve"`
	USDReserve   float64 `json:"usdReserve"`
	LiquidityUSD float64 `json:"liquidityUsd"`
}

// Price is the USD price implied by the virtual reserves, 0 when undefined.
func (r DexReserves) Price() float64 {
	if r.TokenReserve <= 0 || r.USDReserve <= 0 {
		return 0
	}
	return r.USDReserve / r.TokenReserve
}

// AggregateByDex groups pairs (oriented so token is the base) by DEX. The USD
// side of a pair is its USD liquidity minus the value of the token reserve;
// pairs without a usable price fall back to half the USD liquidity.
func AggregateByDex(pairs []entity.LiquidityPair) []DexReserves {
	byDex := make(map[string]*DexReserves)
	for _, p := range pairs {
		r, ok := byDex[p.DexID]
		if !ok {
			r = &DexReserves{DexID: p.DexID}
			byDex[p.DexID] = r
		}
		r.Pairs++
		r.TokenReserve += nonNegative(p.BaseReserve)
		r.LiquidityUSD += nonNegative(p.LiquidityUSD)

		usdSide := p.LiquidityUSD - p.BaseReserve*p.PriceUSD
		if p.PriceUSD <= 0 || usdSide <= 0 {
			usdSide = p.LiquidityUSD / 2
		}
		r.USDReserve += nonNegative(usdSide)
	}

	out := make([]DexReserves, 0, len(byDex))
	for _, r := range byDex {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LiquidityUSD != out[j].LiquidityUSD {
			return out[i].LiquidityUSD > out[j].LiquidityUSD
		}
		return out[i].DexID < out[j].DexID
	})
	return out
}

func nonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

// Slippage estimates the price impact, in percent, of selling tradeUSD worth of
// the token into a constant-product pool with the given reserves:
//
//	k = A * B, A' = A + trade/price, B' = k / A', impact = 1 - (B'/A') / (B/A)
//
// Zero or negative reserves, or a zero implied price, yield InfiniteFloat.
func Slippage(tokenReserve, usdReserve, tradeUSD float64) entity.SafeFloat {
	if tokenReserve <= 0 || usdReserve <= 0 {
		return entity.InfiniteFloat
	}
	price := usdReserve / tokenReserve
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return entity.InfiniteFloat
	}
	if tradeUSD <= 0 {
		return 0
	}

	k := tokenReserve * usdReserve
	newToken := tokenReserve + tradeUSD/price
	newUSD := k / newToken
	newPrice := newUSD / newToken
	impact := (price - newPrice) / price * 100
	if math.IsNaN(impact) || math.IsInf(impact, 0) {
		return entity.InfiniteFloat
	}
	return entity.SafeFloat(math.Abs(impact))
}

// SlippagePoint is one row of a depth table.
type SlippagePoint struct {
	TradeUSD        float64          `json:"tradeUsd"`
	SlippagePercent entity.SafeFloat `json:"slippagePercent"`
}

// DexDepth is one DEX's virtual reserves and its depth table.
type DexDepth struct {
	DexReserves
	PriceUSD float64         `json:"priceUsd"`
	Table    []SlippagePoint `json:"slippage"`
}

// LiquidityDepth is the per-DEX depth report.
type LiquidityDepth struct {
	TotalLiquidityUSD float64    `json:"totalLiquidityUsd"`
	Dexes             []DexDepth `json:"dexes"`
}

// Depth builds the depth table of every DEX for the given trade sizes.
func Depth(pairs []entity.LiquidityPair, tradeSizesUSD []float64) LiquidityDepth {
	res := LiquidityDepth{}
	for _, r := range AggregateByDex(pairs) {
		res.TotalLiquidityUSD += r.LiquidityUSD
		d := DexDepth{DexReserves: r, PriceUSD: r.Price()}
		for _, size := range tradeSizesUSD {
			d.Table = append(d.Table, SlippagePoint{
				TradeUSD:        size,
				SlippagePercent: Slippage(r.TokenReserve, r.USDReserve, size),
			})
		}
		res.Dexes = append(res.Dexes, d)
	}
	return res
}

// LiquidityShare reports how concentrated USD liquidity is.
type LiquidityShare struct {
	TotalUSD       float64 `json:"totalUsd"`
	Pairs          int     `json:"pairs"`
	TopPair        string  `json:"topPair,omitempty"`
	TopPairPercent float64 `json:"topPairPercent"`
	TopDex         string  `json:"topDex,omitempty"`
	TopDexPercent  float64 `json:"topDexPercent"`
	DexCount       int     `json:"dexCount"`
}

// Concentrated computes the largest pair's and largest DEX's share of USD
// liquidity. Zero total liquidity yields zero shares.
func Concentrated(pairs []entity.LiquidityPair) LiquidityShare {
	res := LiquidityShare{Pairs: len(pairs)}
	var topPairUSD float64
	for _, p := range pairs {
		usd := nonNegative(p.LiquidityUSD)
		res.TotalUSD += usd
		if usd > topPairUSD || (usd == topPairUSD && res.TopPair == "") {
			topPairUSD = usd
			res.TopPair = p.PairAddress
		}
	}
	dexes := AggregateByDex(pairs)
	res.DexCount = len(dexes)
	if res.TotalUSD <= 0 {
		return res
	}
	res.TopPairPercent = topPairUSD / res.TotalUSD * 100
	if len(dexes) > 0 {
		res.TopDex = dexes[0].DexID
		res.TopDexPercent = dexes[0].LiquidityUSD / res.TotalUSD * 100
	}
	return res
}

// BuySell is the 24h buy/sell transaction balance across pairs.
type BuySell struct {
	Buys  int              `json:"buys"`
	Sells int              `json:"sells"`
	Ratio entity.SafeFloat `json:"ratio"`
}

// BuySellRatio sums 24h buys and sells. Buys with no sells is infinite; no
// trades at all is 0.
func BuySellRatio(pairs []entity.LiquidityPair) BuySell {
	res := BuySell{}
	for _, p := range pairs {
		res.Buys += p.BuyCount24h
		res.Sells += p.SellCount24h
	}
	switch {
	case res.Sells > 0:
		res.Ratio = entity.SafeFloat(float64(res.Buys) / float64(res.Sells))
	case res.Buys > 0:
		res.Ratio = entity.InfiniteFloat
	}
	return res
}

// PriceQuote is the price picked from the pair list.
type PriceQuote struct {
	PriceUSD     float64 `json:"priceUsd"`
	PairAddress  string  `json:"pairAddress"`
	DexID        string  `json:"dexId"`
	QuoteSymbol  string  `json:"quoteSymbol"`
	LiquidityUSD float64 `json:"liquidityUsd"`
	Stablecoin   bool    `json:"stablecoin"`
}

// BestPrice selects the price from the most liquid stablecoin-quoted pair,
// falling back to the most liquid pair overall. ok is false when no pair has
// a positive price.
func BestPrice(pairs []entity.LiquidityPair) (PriceQuote, bool) {
	var bestStable, bestAny *entity.LiquidityPair
	for i := range pairs {
		pair := &pairs[i]
		if pair.PriceUSD <= 0 {
			continue
		}
		if _, isStablecoin := stablecoinSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; isStablecoin {
			if bestStable == nil || pair.LiquidityUSD > bestStable.LiquidityUSD {
				bestStable = pair
			}
		}
		if bestAny == nil || pair.LiquidityUSD > bestAny.LiquidityUSD {
			bestAny = pair
		}
	}

	chosen := bestStable
	if chosen == nil {
		chosen = bestAny
	}
	if chosen == nil {
		return PriceQuote{}, false
	}
	return PriceQuote{
		PriceUSD:     chosen.PriceUSD,
		PairAddress:  chosen.PairAddress,
		DexID:        chosen.DexID,
		QuoteSymbol:  chosen.QuoteToken.Symbol,
		LiquidityUSD: chosen.LiquidityUSD,
		Stablecoin:   chosen == bestStable,
	}, true
}
