package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"tokenstats/internal/app/analytics"
	"tokenstats/internal/domain/entity"
	"tokenstats/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	holderA entity.TokenAddress = "0x00000000000000000000000000000000000000a1"
	holderB entity.TokenAddress = "0x00000000000000000000000000000000000000b2"
	holderC entity.TokenAddress = "0x00000000000000000000000000000000000000c3"
	creator entity.TokenAddress = "0x2222222222222222222222222222222222222222"
)

// fakeProvider serves canned data. Zero-valued fields yield empty results.
type fakeProvider struct {
	meta        entity.TokenMetadata
	metaErr     error
	holders     []entity.Holder
	holdersErr  error
	transfers   map[time.Duration][]entity.TransferEvent
	pairs       []entity.LiquidityPair
	creatorTxs  []entity.Transaction
	creation    []entity.TransferEvent
	wallet      []entity.TransferEvent
	contract    *entity.SmartContract
	contractErr error
	holderLoads int
}

func (f *fakeProvider) EnsureCoreMetadata(context.Context, entity.TokenAddress) (entity.CoreMetadata, error) {
	return entity.CoreMetadata{}, f.metaErr
}

func (f *fakeProvider) EnsureTokenMetadata(context.Context, entity.TokenAddress) (entity.TokenMetadata, error) {
	return f.meta, f.metaErr
}

func (f *fakeProvider) EnsureHolders(context.Context, entity.TokenAddress) ([]entity.Holder, error) {
	f.holderLoads++
	return f.holders, f.holdersErr
}

func (f *fakeProvider) EnsureTransfers24h(ctx context.Context, token entity.TokenAddress) ([]entity.TransferEvent, error) {
	return f.EnsureTransfers(ctx, token, 24*time.Hour)
}

func (f *fakeProvider) EnsureTransfers(_ context.Context, _ entity.TokenAddress, window time.Duration) ([]entity.TransferEvent, error) {
	return f.transfers[window], nil
}

func (f *fakeProvider) EnsureDexPairs(context.Context, entity.TokenAddress) ([]entity.LiquidityPair, error) {
	return f.pairs, nil
}

func (f *fakeProvider) EnsureWalletTransfers(context.Context, entity.TokenAddress, entity.TokenAddress) ([]entity.TransferEvent, error) {
	return f.wallet, nil
}

func (f *fakeProvider) EnsureCreatorTransactions(context.Context, entity.TokenAddress) ([]entity.Transaction, error) {
	return f.creatorTxs, nil
}

func (f *fakeProvider) EnsureCreationTransfers(context.Context, string) ([]entity.TransferEvent, error) {
	return f.creation, nil
}

func (f *fakeProvider) EnsureSmartContract(context.Context, entity.TokenAddress) (*entity.SmartContract, error) {
	return f.contract, f.contractErr
}

func scenarioProvider() *fakeProvider {
	return &fakeProvider{
		meta: entity.TokenMetadata{
			Address:              testToken,
			Symbol:               "TKN",
			Decimals:             0,
			TotalSupply:          big.NewInt(100),
			HoldersCountReported: 3,
			CreatorAddress:       creator,
			CreationTxHash:       "0xcreate",
		},
		holders: []entity.Holder{
			{Address: holderA, Balance: big.NewInt(70)},
			{Address: holderB, Balance: big.NewInt(20)},
			{Address: holderC, Balance: big.NewInt(10)},
		},
	}
}

func computeWith(t *testing.T, data *fakeProvider, id string) entity.StatResult {
	t.Helper()
	s := NewStatService(data, DefaultStatDefinitions(), StatServiceConfig{}, logger.NewNop())
	r, err := s.Compute(context.Background(), id, testToken)
	require.NoError(t, err)
	return r
}

func TestTopHolders(t *testing.T) {
	data := scenarioProvider()

	top1 := computeWith(t, data, "top1_holders_pct")
	top10 := computeWith(t, data, "top10_holders_pct")

	require.False(t, top1.Failed(), top1.Error)
	assert.Equal(t, "70.00%", top1.Display)
	assert.Equal(t, "100.00%", top10.Display)
	assert.Equal(t, 3, top10.Value.(analytics.Concentration).Holders)
}

func TestGiniStat(t *testing.T) {
	r := computeWith(t, scenarioProvider(), "gini_coefficient")

	assert.Equal(t, "0.4000", r.Display)
	assert.InDelta(t, 0.4, r.Value.(float64), 1e-12)
}

func TestHoldersStat_FailsClosedWithoutDecimals(t *testing.T) {
	data := scenarioProvider()
	data.metaErr = entity.ErrDecimalsUnknown

	r := computeWith(t, data, "top1_holders_pct")

	assert.True(t, r.Failed())
	assert.Equal(t, entity.ErrDecimalsUnknown.Error(), r.Error)
	assert.Equal(t, 0, data.holderLoads)
}

func TestBurned24h(t *testing.T) {
	data := scenarioProvider()
	data.meta.TotalSupply = big.NewInt(10_000)
	data.meta.Decimals = 2
	data.transfers = map[time.Duration][]entity.TransferEvent{
		24 * time.Hour: {{From: holderA, To: entity.DeadAddress, Value: big.NewInt(500)}},
	}

	r := computeWith(t, data, "burned_24h")

	require.False(t, r.Failed(), r.Error)
	amount := r.Value.(analytics.Amount)
	assert.Equal(t, "500", amount.Raw.String())
	assert.InDelta(t, 5.0, amount.Percent, 1e-9)
	assert.Equal(t, "5 TKN (5.00%)", r.Display)
}

func TestNewVsLost7d(t *testing.T) {
	data := scenarioProvider()
	data.transfers = map[time.Duration][]entity.TransferEvent{
		7 * 24 * time.Hour: {{From: holderA, To: holderB, Value: big.NewInt(1)}},
	}

	r := computeWith(t, data, "new_vs_lost_holders_7d")

	assert.Equal(t, "+1 / -1 (net +0)", r.Display)
}

func TestLiquidityStats_NoPairs(t *testing.T) {
	for _, id := range []string{"token_price_usd", "liquidity_depth", "liquidity_concentration", "buy_sell_ratio_24h"} {
		r := computeWith(t, scenarioProvider(), id)
		assert.True(t, r.Failed(), id)
		assert.Contains(t, r.Error, entity.ErrNoLiquidity.Error(), id)
	}
}

func TestLiquidityDepthStat(t *testing.T) {
	data := scenarioProvider()
	data.pairs = []entity.LiquidityPair{{
		DexID:        "pulsex",
		PairAddress:  "0xpair",
		BaseToken:    entity.PairToken{Address: testToken, Symbol: "TKN"},
		QuoteToken:   entity.PairToken{Symbol: "USDC"},
		BaseReserve:  1000,
		LiquidityUSD: 2000,
		PriceUSD:     1,
	}}

	r := computeWith(t, data, "liquidity_depth")

	require.False(t, r.Failed(), r.Error)
	assert.Equal(t, "$2000 liquidity; pulsex: 75.00% @ $1000", r.Display)

	price := computeWith(t, data, "token_price_usd")
	assert.Equal(t, "$1 (pulsex/USDC)", price.Display)
}

func TestBuySellRatioStat(t *testing.T) {
	data := scenarioProvider()
	data.pairs = []entity.LiquidityPair{
		{DexID: "pulsex", BaseToken: entity.PairToken{Address: testToken}, BuyCount24h: 6, SellCount24h: 3},
		{DexID: "9mm", BaseToken: entity.PairToken{Address: testToken}, BuyCount24h: 2, SellCount24h: 1},
	}

	r := computeWith(t, data, "buy_sell_ratio_24h")
	require.False(t, r.Failed(), r.Error)
	assert.Equal(t, "2.00 (8 buys / 4 sells)", r.Display)

	data.pairs = []entity.LiquidityPair{{DexID: "pulsex", BaseToken: entity.PairToken{Address: testToken}, BuyCount24h: 5}}
	r = computeWith(t, data, "buy_sell_ratio_24h")
	require.False(t, r.Failed(), r.Error)
	assert.Equal(t, "buys only (5 buys / 0 sells)", r.Display)
}

func TestOwnershipStat(t *testing.T) {
	data := scenarioProvider()
	data.creatorTxs = []entity.Transaction{{Hash: "0xrenounce", To: testToken, Method: "renounceOwnership", Success: true}}
	data.contractErr = errors.New("smart contract lookup failed")

	r := computeWith(t, data, "ownership_status")

	require.False(t, r.Failed(), r.Error)
	assert.Equal(t, analytics.OwnershipRenounced, r.Value.(analytics.Ownership).Status)
	assert.Equal(t, "renounced via renounceOwnership in 0xrenounce", r.Display)
}

func TestCreatorStats_NoCreator(t *testing.T) {
	data := scenarioProvider()
	data.meta.CreatorAddress = ""

	for _, id := range []string{"creator_initial_mint", "ownership_status", "creator_activity"} {
		r := computeWith(t, data, id)
		assert.Equal(t, entity.ErrNoCreator.Error(), r.Error, id)
	}
}

func TestCreatorInitialMint(t *testing.T) {
	data := scenarioProvider()
	data.creation = []entity.TransferEvent{{From: entity.ZeroAddress, To: creator, Value: big.NewInt(40), TokenAddress: testToken}}

	r := computeWith(t, data, "creator_initial_mint")

	assert.Equal(t, "40.00%", r.Display)
}

func TestCreatorActivity(t *testing.T) {
	data := scenarioProvider()
	data.wallet = []entity.TransferEvent{
		{From: creator, To: holderA, Value: big.NewInt(30)},
		{From: holderB, To: creator, Value: big.NewInt(5)},
	}

	r := computeWith(t, data, "creator_activity")

	assert.Equal(t, "sent 30, received 5, net -25 TKN", r.Display)
}
