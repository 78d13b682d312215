package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "tokenstats/internal/domain/entity"
	"tokenstats/internal/infrastructure/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const quoteToken = "0x15d38573d2feeb82e7ad5187ab8c1d52810b1f07"

func dexClientFor(t *testing.T, body string, status int) (*dexScreenerClientImpl, chan string) {
	t.Helper()
	paths := make(chan string, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	fetcher := httpclient.NewFetcher(httpclient.Options{Name: "dex_test", Timeout: 2 * time.Second}, zap.NewNop())
	return NewDEXScreenerClient(srv.URL, fetcher, zap.NewNop()).(*dexScreenerClientImpl), paths
}

const pairsArray = `[
	{"chainId":"pulsechain","dexId":"pulsex","pairAddress":"0xPAIR1",
	 "baseToken":{"address":"0xA1077a294dDE1B09bB078844df40758a5D0f9a27","symbol":"WPLS"},
	 "quoteToken":{"address":"0x15D38573d2feeb82e7ad5187aB8c1D52810B1f07","symbol":"USDC"},
	 "priceNative":"0.00005","priceUsd":"0.00005",
	 "txns":{"h24":{"buys":10,"sells":5}},
	 "liquidity":{"usd":200000,"base":2000000000,"quote":100000}},
	{"chainId":"pulsechain","dexId":"pulsex","pairAddress":"0xPAIR2",
	 "baseToken":{"address":"0x15D38573d2feeb82e7ad5187aB8c1D52810B1f07","symbol":"USDC"},
	 "quoteToken":{"address":"0xA1077a294dDE1B09bB078844df40758a5D0f9a27","symbol":"WPLS"},
	 "priceNative":"20000","priceUsd":"1.0",
	 "liquidity":{"usd":1000,"base":500,"quote":10000000}},
	{"chainId":"ethereum","dexId":"uniswap","pairAddress":"0xPAIR3",
	 "baseToken":{"address":"0xA1077a294dDE1B09bB078844df40758a5D0f9a27","symbol":"WPLS"},
	 "quoteToken":{"address":"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2","symbol":"WETH"},
	 "priceUsd":"0.00006","liquidity":null}
]`

func TestGetTokenPairs_ArrayShape(t *testing.T) {
	c, paths := dexClientFor(t, pairsArray, http.StatusOK)

	pairs, err := c.GetTokenPairs(context.Background(), "pulsechain", testToken)

	require.NoError(t, err)
	assert.Equal(t, "/tokens/v1/pulsechain/"+testToken.String(), <-paths)
	require.Len(t, pairs, 2, "pairs on other chains are dropped")

	first := pairs[0]
	assert.Equal(t, "0xpair1", first.PairAddress)
	assert.Equal(t, testToken, first.BaseToken.Address)
	assert.InDelta(t, 2_000_000_000, first.BaseReserve, 1e-6)
	assert.Equal(t, 10, first.BuyCount24h)

	flipped := pairs[1]
	assert.Equal(t, testToken, flipped.BaseToken.Address, "token is oriented onto the base side")
	assert.Equal(t, domain.TokenAddress(quoteToken), flipped.QuoteToken.Address)
	assert.InDelta(t, 10_000_000, flipped.BaseReserve, 1e-6)
	assert.InDelta(t, 500, flipped.QuoteReserve, 1e-6)
	assert.InDelta(t, 0.00005, flipped.PriceUSD, 1e-12)
}

func TestGetTokenPairs_WrappedShape(t *testing.T) {
	c, _ := dexClientFor(t, `{"schemaVersion":"1.0.0","pairs":`+pairsArray+`}`, http.StatusOK)

	pairs, err := c.GetTokenPairs(context.Background(), "", testToken)

	require.NoError(t, err)
	assert.Len(t, pairs, 3, "no chain filter keeps every pair")
}

func TestGetTokenPairs_NullPairs(t *testing.T) {
	c, _ := dexClientFor(t, `{"schemaVersion":"1.0.0","pairs":null}`, http.StatusOK)

	pairs, err := c.GetTokenPairs(context.Background(), "pulsechain", testToken)

	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestGetTokenPairs_UpstreamError(t *testing.T) {
	c, _ := dexClientFor(t, `rate limited`, http.StatusTooManyRequests)

	_, err := c.GetTokenPairs(context.Background(), "pulsechain", testToken)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestGetTokenPairs_EmptyToken(t *testing.T) {
	c, _ := dexClientFor(t, `[]`, http.StatusOK)

	_, err := c.GetTokenPairs(context.Background(), "pulsechain", "")

	assert.Error(t, err)
}

func TestDecodePairs_SinglePair(t *testing.T) {
	pairs, err := decodePairs([]byte(`{"pair":{"chainId":"pulsechain","dexId":"pulsex"}}`))

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "pulsex", pairs[0].DexID)
}

func TestDecodePairs_Garbage(t *testing.T) {
	_, err := decodePairs([]byte(`"nope"`))
	assert.Error(t, err)
}
