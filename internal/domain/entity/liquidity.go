package entity

// PairToken is one side of a liquidity pair.
type PairToken struct {
	Address TokenAddress `json:"address"`
	Symbol  string       `json:"symbol"`
}

// LiquidityPair is a DEX pool snapshot from the DEX aggregator. Reserves are
// in human units of the respective token.
type LiquidityPair struct {
	ChainID       string    `json:"chainId"`
	DexID         string    `json:"dexId"`
	PairAddress   string    `json:"pairAddress"`
	BaseToken     PairToken `json:"baseToken"`
	QuoteToken    PairToken `json:"quoteToken"`
	BaseReserve   float64   `json:"baseReserve"`
	QuoteReserve  float64   `json:"quoteReserve"`
	LiquidityUSD  float64   `json:"liquidityUsd"`
	PriceUSD      float64   `json:"priceUsd"`
	PriceNative   float64   `json:"priceNative"`
	Volume24hUSD  float64   `json:"volume24hUsd"`
	BuyCount24h   int       `json:"buyCount24h"`
	SellCount24h  int       `json:"sellCount24h"`
	PriceChangeH6 float64   `json:"priceChangeH6"`
	PriceChange24 float64   `json:"priceChangeH24"`
	MarketCap     float64   `json:"marketCap"`
	FDV           float64   `json:"fdv"`
}

// Oriented returns the pair with token on the base side. ok is false when token
// is on neither side.
func (p LiquidityPair) Oriented(token TokenAddress) (LiquidityPair, bool) {
	switch token {
	case p.BaseToken.Address:
		return p, true
	case p.QuoteToken.Address:
		flipped := p
		flipped.BaseToken, flipped.QuoteToken = p.QuoteToken, p.BaseToken
		flipped.BaseReserve, flipped.QuoteReserve = p.QuoteReserve, p.BaseReserve
		if p.PriceNative > 0 {
			flipped.PriceNative = 1 / p.PriceNative
		}
		if p.PriceUSD > 0 && p.BaseReserve > 0 && p.QuoteReserve > 0 {
			// priceUsd is quoted for the base token; derive the quote token price
			// from the pool ratio.
			flipped.PriceUSD = p.PriceUSD * p.BaseReserve / p.QuoteReserve
		} else {
			flipped.PriceUSD = 0
		}
		return flipped, true
	default:
		return LiquidityPair{}, false
	}
}
