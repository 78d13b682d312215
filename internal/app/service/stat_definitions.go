package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"tokenstats/internal/app/analytics"
	"tokenstats/internal/app/port"
	"tokenstats/internal/domain/entity"
	"tokenstats/internal/pkg/utils"
)

const day = 24 * time.Hour

// DefaultStatDefinitions returns every built-in stat.
func DefaultStatDefinitions() []StatDefinition {
	defs := make([]StatDefinition, 0, 24)
	for _, n := range analytics.DefaultTopN {
		defs = append(defs, topHoldersStat(n))
	}
	defs = append(defs,
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "whale_count",
				Label:       "Whales",
				Description: fmt.Sprintf("Holders with at least %d%% of total supply, from the holder snapshot.", analytics.WhaleThresholdPercent),
				Format:      entity.FormatNumber,
			},
			Fetch: whaleCount,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "gini_coefficient",
				Label:       "Gini coefficient",
				Description: "Inequality of holder balances: 0 is perfectly equal, 1 is one holder owning everything.",
				Format:      entity.FormatRatio,
			},
			Fetch: gini,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "holders_count",
				Label:       "Holders",
				Description: "Holder count reported by the explorer next to the size of the walked holder snapshot.",
				Format:      entity.FormatNumber,
			},
			Fetch: holdersCount,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "burn_address_balance",
				Label:       "Held by burn addresses",
				Description: "Current balance of the zero, 0x...dead and 0x...0369 addresses.",
				Format:      entity.FormatAmount,
			},
			Fetch: burnAddressBalance,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "burned_24h",
				Label:       "Burned (24h)",
				Description: "Sum of transfers into a burn address over the last 24 hours.",
				Format:      entity.FormatAmount,
			},
			Fetch: burned24h,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "minted_24h",
				Label:       "Minted (24h)",
				Description: "Heuristic: sum of transfers sent by the token contract or the zero address over the last 24 hours. Mint event logs are not consulted.",
				Format:      entity.FormatAmount,
			},
			Fetch: minted24h,
		},
		newVsLostStat(7),
		newVsLostStat(30),
		diamondHandsStat(90),
		diamondHandsStat(180),
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "token_price_usd",
				Label:       "Price (USD)",
				Description: "Price from the most liquid stablecoin-quoted pair, else the most liquid pair.",
				Format:      entity.FormatNumber,
			},
			Fetch: tokenPrice,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "liquidity_depth",
				Label:       "Liquidity depth",
				Description: "Per DEX, pairs are summed into virtual reserves and constant-product slippage is estimated for selling fixed USD amounts of the token. Unbounded slippage is reported as Infinity.",
				Format:      entity.FormatTable,
			},
			Fetch: liquidityDepth,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "liquidity_concentration",
				Label:       "Liquidity concentration",
				Description: "Share of USD liquidity in the largest pair and the largest DEX.",
				Format:      entity.FormatPercent,
			},
			Fetch: liquidityConcentration,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "buy_sell_ratio_24h",
				Label:       "Buy/sell ratio (24h)",
				Description: "24h buy transactions divided by sell transactions across all pairs.",
				Format:      entity.FormatRatio,
			},
			Fetch: buySellRatio,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "creator_initial_mint",
				Label:       "Minted to creator",
				Description: "Share of supply minted from the zero address to the creator inside the contract creation transaction.",
				Format:      entity.FormatPercent,
			},
			Fetch: creatorInitialMint,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:    "ownership_status",
				Label: "Ownership",
				Description: "Heuristic: scans the creator's transactions for renounceOwnership() or transferOwnership(0x0) " +
					"sent to the token. A verified ABI without owner functions reports not_ownable. Renounces by a later owner are missed.",
				Format: entity.FormatObject,
			},
			Fetch: ownershipStatus,
		},
		StatDefinition{
			StatConfig: entity.StatConfig{
				ID:          "creator_activity",
				Label:       "Creator activity",
				Description: "Amounts of this token the creator wallet sent and received, within the wallet page budget.",
				Format:      entity.FormatObject,
			},
			Fetch: creatorActivity,
		},
	)
	return defs
}

func topHoldersStat(n int) StatDefinition {
	return StatDefinition{
		StatConfig: entity.StatConfig{
			ID:          fmt.Sprintf("top%d_holders_pct", n),
			Label:       fmt.Sprintf("Top %d holders", n),
			Description: fmt.Sprintf("Share of total supply held by the %d largest holders.", n),
			Format:      entity.FormatPercent,
		},
		Fetch: func(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
			meta, holders, err := metaAndHolders(ctx, data, token)
			if err != nil {
				return nil, "", err
			}
			c := analytics.TopN(holders, meta.TotalSupply, n)
			return c, utils.FormatPercent(c.Percent), nil
		},
	}
}

func newVsLostStat(days int) StatDefinition {
	return StatDefinition{
		StatConfig: entity.StatConfig{
			ID:    fmt.Sprintf("new_vs_lost_holders_%dd", days),
			Label: fmt.Sprintf("New vs lost holders (%dd)", days),
			Description: fmt.Sprintf("Heuristic over %d days of transfers: receive-only addresses count as new, send-only as lost. "+
				"Partial sells and earlier balances are ignored.", days),
			Format: entity.FormatObject,
		},
		Fetch: func(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
			transfers, err := data.EnsureTransfers(ctx, token, time.Duration(days)*day)
			if err != nil {
				return nil, "", err
			}
			d := analytics.NewVsLost(transfers, token)
			return d, fmt.Sprintf("+%d / -%d (net %+d)", d.New, d.Lost, d.Net), nil
		},
	}
}

func diamondHandsStat(days int) StatDefinition {
	return StatDefinition{
		StatConfig: entity.StatConfig{
			ID:    fmt.Sprintf("diamond_hands_%dd", days),
			Label: fmt.Sprintf("Diamond hands (%dd)", days),
			Description: fmt.Sprintf("Heuristic: share of supply held by addresses with no outgoing transfer in %d days. "+
				"Recent buyers that only received also count.", days),
			Format: entity.FormatPercent,
		},
		Fetch: func(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
			meta, holders, err := metaAndHolders(ctx, data, token)
			if err != nil {
				return nil, "", err
			}
			transfers, err := data.EnsureTransfers(ctx, token, time.Duration(days)*day)
			if err != nil {
				return nil, "", err
			}
			d := analytics.DiamondHandsScore(holders, transfers, meta.TotalSupply)
			return d, fmt.Sprintf("%s (%d of %d holders)", utils.FormatPercent(d.Percent), d.Diamond, d.Holders), nil
		},
	}
}

func metaAndHolders(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (entity.TokenMetadata, []entity.Holder, error) {
	meta, err := data.EnsureTokenMetadata(ctx, token)
	if err != nil {
		return entity.TokenMetadata{}, nil, err
	}
	holders, err := data.EnsureHolders(ctx, token)
	if err != nil {
		return entity.TokenMetadata{}, nil, err
	}
	return meta, holders, nil
}

func formatAmount(a analytics.Amount, meta entity.TokenMetadata) string {
	return fmt.Sprintf("%s %s (%s)", utils.FormatUnits(a.Raw, meta.Decimals, 2), meta.Symbol, utils.FormatPercent(a.Percent))
}

func whaleCount(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	meta, holders, err := metaAndHolders(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	w := analytics.WhaleCount(holders, meta.TotalSupply)
	return w, fmt.Sprintf("%d whales holding %s", w.Count, utils.FormatPercent(w.HeldPercent)), nil
}

func gini(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	holders, err := data.EnsureHolders(ctx, token)
	if err != nil {
		return nil, "", err
	}
	g := analytics.HolderGini(holders)
	return g, fmt.Sprintf("%.4f", g), nil
}

func holdersCount(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	meta, holders, err := metaAndHolders(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	c := analytics.CountHolders(holders, meta.HoldersCountReported)
	display := fmt.Sprintf("%d", c.Reported)
	if !c.Complete {
		display = fmt.Sprintf("%d (snapshot %d)", c.Reported, c.Snapshot)
	}
	return c, display, nil
}

func burnAddressBalance(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	meta, holders, err := metaAndHolders(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	a := analytics.BurnBalance(holders, meta.TotalSupply)
	return a, formatAmount(a, meta), nil
}

func flow24h(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (analytics.Flow, entity.TokenMetadata, error) {
	meta, err := data.EnsureTokenMetadata(ctx, token)
	if err != nil {
		return analytics.Flow{}, entity.TokenMetadata{}, err
	}
	transfers, err := data.EnsureTransfers24h(ctx, token)
	if err != nil {
		return analytics.Flow{}, entity.TokenMetadata{}, err
	}
	return analytics.BurnMint(transfers, token, meta.TotalSupply), meta, nil
}

func burned24h(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	f, meta, err := flow24h(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	return f.Burned, formatAmount(f.Burned, meta), nil
}

func minted24h(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	f, meta, err := flow24h(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	return f.Minted, formatAmount(f.Minted, meta), nil
}

func dexPairs(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) ([]entity.LiquidityPair, error) {
	pairs, err := data.EnsureDexPairs(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, entity.ErrNoLiquidity
	}
	return pairs, nil
}

func tokenPrice(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	pairs, err := dexPairs(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	q, ok := analytics.BestPrice(pairs)
	if !ok {
		return nil, "", fmt.Errorf("%w: no pair with a USD price", entity.ErrNoLiquidity)
	}
	return q, fmt.Sprintf("$%g (%s/%s)", q.PriceUSD, q.DexID, q.QuoteSymbol), nil
}

func liquidityDepth(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	pairs, err := dexPairs(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	d := analytics.Depth(pairs, analytics.DefaultTradeSizesUSD)
	parts := make([]string, 0, len(d.Dexes))
	for _, dex := range d.Dexes {
		if len(dex.Table) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s%% @ $%.0f", dex.DexID, dex.Table[0].SlippagePercent.Format(2), dex.Table[0].TradeUSD))
	}
	return d, fmt.Sprintf("$%.0f liquidity; %s", d.TotalLiquidityUSD, strings.Join(parts, ", ")), nil
}

func liquidityConcentration(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	pairs, err := dexPairs(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	c := analytics.Concentrated(pairs)
	return c, fmt.Sprintf("top pair %s, top DEX %s %s", utils.FormatPercent(c.TopPairPercent), c.TopDex, utils.FormatPercent(c.TopDexPercent)), nil
}

func buySellRatio(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	pairs, err := dexPairs(ctx, data, token)
	if err != nil {
		return nil, "", err
	}
	b := analytics.BuySellRatio(pairs)
	if b.Ratio.IsInf() {
		return b, fmt.Sprintf("buys only (%d buys / 0 sells)", b.Buys), nil
	}
	return b, fmt.Sprintf("%s (%d buys / %d sells)", b.Ratio.Format(2), b.Buys, b.Sells), nil
}

func creatorOf(meta entity.TokenMetadata) (entity.TokenAddress, error) {
	if meta.CreatorAddress == "" {
		return "", entity.ErrNoCreator
	}
	return meta.CreatorAddress, nil
}

func creatorInitialMint(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	meta, err := data.EnsureTokenMetadata(ctx, token)
	if err != nil {
		return nil, "", err
	}
	creator, err := creatorOf(meta)
	if err != nil {
		return nil, "", err
	}
	if meta.CreationTxHash == "" {
		return nil, "", fmt.Errorf("%w: creation transaction unknown", entity.ErrNoCreator)
	}
	transfers, err := data.EnsureCreationTransfers(ctx, meta.CreationTxHash)
	if err != nil {
		return nil, "", err
	}
	m := analytics.CreatorMintShare(transfers, token, creator, meta.CreationTxHash, meta.TotalSupply)
	if !m.Found {
		return m, "no mint to creator in creation tx", nil
	}
	return m, utils.FormatPercent(m.Percent), nil
}

func ownershipStatus(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	meta, err := data.EnsureTokenMetadata(ctx, token)
	if err != nil {
		return nil, "", err
	}
	creator, err := creatorOf(meta)
	if err != nil {
		return nil, "", err
	}
	txs, err := data.EnsureCreatorTransactions(ctx, creator)
	if err != nil {
		return nil, "", err
	}
	// The ABI only refines the result; a failed lookup is not fatal.
	contract, err := data.EnsureSmartContract(ctx, token)
	if err != nil && ctx.Err() != nil {
		return nil, "", err
	}
	o := analytics.DetectOwnership(txs, token, contract)
	display := string(o.Status)
	if o.TxHash != "" {
		display = fmt.Sprintf("%s via %s in %s", o.Status, o.Method, o.TxHash)
	}
	return o, display, nil
}

func creatorActivity(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error) {
	meta, err := data.EnsureTokenMetadata(ctx, token)
	if err != nil {
		return nil, "", err
	}
	creator, err := creatorOf(meta)
	if err != nil {
		return nil, "", err
	}
	transfers, err := data.EnsureWalletTransfers(ctx, creator, token)
	if err != nil {
		return nil, "", err
	}
	a := analytics.Activity(creator, transfers)
	net := new(big.Int).Abs(a.NetRaw)
	sign := ""
	if a.NetRaw.Sign() < 0 {
		sign = "-"
	}
	return a, fmt.Sprintf("sent %s, received %s, net %s%s %s",
		utils.FormatUnits(a.SentRaw, meta.Decimals, 2),
		utils.FormatUnits(a.ReceivedRaw, meta.Decimals, 2),
		sign, utils.FormatUnits(net, meta.Decimals, 2), meta.Symbol), nil
}
