package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tokenstats/internal/app/pager"
	"tokenstats/internal/app/port"
	"tokenstats/internal/domain/entity"
	"tokenstats/internal/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Window used by EnsureTransfers24h.
const Window24h = 24 * time.Hour

// Page budgets used when CacheConfig leaves them at zero.
const (
	DefaultHolderMaxPages      = pager.DefaultMaxPages
	DefaultTransferMaxPages    = pager.DefaultMaxPages
	DefaultWalletMaxPages      = 20
	DefaultTransactionMaxPages = 20
)

// DefaultLoadTimeout bounds one slot load when CacheConfig.LoadTimeout is zero.
const DefaultLoadTimeout = 2 * time.Minute

// CacheConfig tunes a TokenDataCache.
type CacheConfig struct {
	// TTL of every slot. Zero keeps slots for the lifetime of the cache.
	TTL                 time.Duration
	HolderMaxPages      int
	TransferMaxPages    int
	WalletMaxPages      int
	TransactionMaxPages int
	// LoadTimeout bounds a slot load. Loads run detached from the callers'
	// contexts so one caller giving up does not fail the others.
	LoadTimeout time.Duration
	// DEXScreenerChainID scopes EnsureDexPairs to one chain.
	DEXScreenerChainID string
	// Clock returns the current time; time.Now when nil.
	Clock func() time.Time
}

// TokenDataCache memoizes explorer and DEX data per token. Each slot is
// loaded at most once per TTL period; concurrent loads of the same slot share
// one upstream fetch. Returned slices are shared between callers and must not
// be modified.
type TokenDataCache struct {
	explorer port.ExplorerClient
	dex      port.DEXScreenerClient
	cfg      CacheConfig
	store    *cache.Cache
	group    singleflight.Group
	logger   port.Logger
}

// NewTokenDataCache creates an empty cache over the given clients.
func NewTokenDataCache(explorer port.ExplorerClient, dex port.DEXScreenerClient, cfg CacheConfig, logger port.Logger) *TokenDataCache {
	if cfg.HolderMaxPages <= 0 {
		cfg.HolderMaxPages = DefaultHolderMaxPages
	}
	if cfg.TransferMaxPages <= 0 {
		cfg.TransferMaxPages = DefaultTransferMaxPages
	}
	if cfg.WalletMaxPages <= 0 {
		cfg.WalletMaxPages = DefaultWalletMaxPages
	}
	if cfg.TransactionMaxPages <= 0 {
		cfg.TransactionMaxPages = DefaultTransactionMaxPages
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	ttl := cache.NoExpiration
	cleanup := time.Duration(0)
	if cfg.TTL > 0 {
		ttl = cfg.TTL
		cleanup = 2 * cfg.TTL
	}

	return &TokenDataCache{
		explorer: explorer,
		dex:      dex,
		cfg:      cfg,
		store:    cache.New(ttl, cleanup),
		logger:   logger,
	}
}

// ensure returns the value cached under key, loading it once on a miss.
// label is the low-cardinality slot name reported to metrics.
//
// The load runs on a context detached from ctx and bounded by LoadTimeout, so
// it completes and fills the slot even if the caller that started it leaves.
// Each caller stops waiting when its own ctx ends.
func ensure[T any](ctx context.Context, c *TokenDataCache, key, label string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.store.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(label, "hit").Inc()
		return v.(T), nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A load that finished between the Get above and DoChan already filled the slot.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.LoadTimeout)
		defer cancel()
		res, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, res, cache.DefaultExpiration)
		return res, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.CacheLookups.WithLabelValues(label, "error").Inc()
		return zero, fmt.Errorf("waiting for %s: %w", key, ctx.Err())
	}
	if res.Err != nil {
		metrics.CacheLookups.WithLabelValues(label, "error").Inc()
		c.logger.Warn("Cache slot load failed", "key", key, "error", res.Err)
		return zero, res.Err
	}
	metrics.CacheLookups.WithLabelValues(label, "load").Inc()
	if res.Shared {
		c.logger.Debug("Cache slot load shared with concurrent caller", "key", key)
	}
	return res.Val.(T), nil
}

func slotKey(owner entity.TokenAddress, slot string) string {
	return owner.String() + "|" + slot
}

// EnsureCoreMetadata loads the four core slots concurrently, skipping slots
// already cached. Slots that load are cached even when others fail; in that
// case the partial set is returned together with a *entity.CoreMetadataError.
func (c *TokenDataCache) EnsureCoreMetadata(ctx context.Context, token entity.TokenAddress) (entity.CoreMetadata, error) {
	var (
		md     entity.CoreMetadata
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed = make(map[entity.CoreSlot]error)
	)

	record := func(slot entity.CoreSlot, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed[slot] = err
	}

	wg.Add(len(entity.CoreSlots))
	go func() {
		defer wg.Done()
		v, err := ensure(ctx, c, slotKey(token, string(entity.SlotTokenInfo)), string(entity.SlotTokenInfo),
			func(ctx context.Context) (*entity.TokenInfo, error) { return c.explorer.TokenInfo(ctx, token) })
		if err != nil {
			record(entity.SlotTokenInfo, err)
			return
		}
		mu.Lock()
		md.TokenInfo = v
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		v, err := ensure(ctx, c, slotKey(token, string(entity.SlotTokenCounters)), string(entity.SlotTokenCounters),
			func(ctx context.Context) (*entity.TokenCounters, error) { return c.explorer.TokenCounters(ctx, token) })
		if err != nil {
			record(entity.SlotTokenCounters, err)
			return
		}
		mu.Lock()
		md.TokenCounters = v
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		v, err := ensure(ctx, c, slotKey(token, string(entity.SlotAddressInfo)), string(entity.SlotAddressInfo),
			func(ctx context.Context) (*entity.AddressInfo, error) { return c.explorer.AddressInfo(ctx, token) })
		if err != nil {
			record(entity.SlotAddressInfo, err)
			return
		}
		mu.Lock()
		md.AddressInfo = v
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		v, err := ensure(ctx, c, slotKey(token, string(entity.SlotAddressCounters)), string(entity.SlotAddressCounters),
			func(ctx context.Context) (*entity.AddressCounters, error) { return c.explorer.AddressCounters(ctx, token) })
		if err != nil {
			record(entity.SlotAddressCounters, err)
			return
		}
		mu.Lock()
		md.AddressCounters = v
		mu.Unlock()
	}()
	wg.Wait()

	if len(failed) > 0 {
		return md, &entity.CoreMetadataError{Token: token, Failed: failed}
	}
	return md, nil
}

// EnsureTokenMetadata is EnsureCoreMetadata reduced to the unit-conversion
// subset. It fails only when token info itself is unusable.
func (c *TokenDataCache) EnsureTokenMetadata(ctx context.Context, token entity.TokenAddress) (entity.TokenMetadata, error) {
	md, err := c.EnsureCoreMetadata(ctx, token)
	var partial *entity.CoreMetadataError
	if err != nil && (!errors.As(err, &partial) || partial.SlotFailed(entity.SlotTokenInfo)) {
		return entity.TokenMetadata{}, err
	}
	return md.TokenMetadata()
}

// EnsureHolders walks the full holder list once.
func (c *TokenDataCache) EnsureHolders(ctx context.Context, token entity.TokenAddress) ([]entity.Holder, error) {
	return ensure(ctx, c, slotKey(token, "holders"), "holders", func(ctx context.Context) ([]entity.Holder, error) {
		fetch := func(ctx context.Context, cursor pager.Cursor) (pager.Page[entity.Holder], error) {
			return c.explorer.TokenHolders(ctx, token, cursor)
		}
		holders, err := pager.Paginate(ctx, fetch, pager.Options[entity.Holder]{
			Resource: "holders",
			MaxPages: c.cfg.HolderMaxPages,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Debug("Holders loaded", "token", token, "count", len(holders))
		return holders, nil
	})
}

// EnsureTransfers24h returns the transfers of the last 24 hours.
func (c *TokenDataCache) EnsureTransfers24h(ctx context.Context, token entity.TokenAddress) ([]entity.TransferEvent, error) {
	return c.EnsureTransfers(ctx, token, Window24h)
}

// EnsureTransfers returns the token's transfers inside [now-window, now],
// cached per window length. now is taken when the slot is first loaded.
func (c *TokenDataCache) EnsureTransfers(ctx context.Context, token entity.TokenAddress, window time.Duration) ([]entity.TransferEvent, error) {
	if window <= 0 {
		return nil, fmt.Errorf("transfer window must be positive, got %s", window)
	}
	key := slotKey(token, "transfers:"+window.String())
	return ensure(ctx, c, key, "transfers", func(ctx context.Context) ([]entity.TransferEvent, error) {
		w := pager.NewWindow(c.cfg.Clock(), window)
		fetch := func(ctx context.Context, cursor pager.Cursor) (pager.Page[entity.TransferEvent], error) {
			return c.explorer.TokenTransfers(ctx, token, cursor)
		}
		transfers, err := pager.Paginate(ctx, fetch,
			pager.WindowOptions("transfers", c.cfg.TransferMaxPages, w, transferTime))
		if err != nil {
			return nil, err
		}
		c.logger.Debug("Transfers loaded", "token", token, "window", window.String(), "count", len(transfers))
		return transfers, nil
	})
}

// EnsureWalletTransfers walks wallet's transfers of token, unfiltered.
func (c *TokenDataCache) EnsureWalletTransfers(ctx context.Context, wallet, token entity.TokenAddress) ([]entity.TransferEvent, error) {
	key := slotKey(token, "walletTransfers:"+wallet.String())
	return ensure(ctx, c, key, "wallet_transfers", func(ctx context.Context) ([]entity.TransferEvent, error) {
		fetch := func(ctx context.Context, cursor pager.Cursor) (pager.Page[entity.TransferEvent], error) {
			return c.explorer.AddressTokenTransfers(ctx, wallet, token, cursor)
		}
		return pager.Paginate(ctx, fetch, pager.Options[entity.TransferEvent]{
			Resource: "wallet_transfers",
			MaxPages: c.cfg.WalletMaxPages,
		})
	})
}

// EnsureCreatorTransactions walks the transaction history of creator.
func (c *TokenDataCache) EnsureCreatorTransactions(ctx context.Context, creator entity.TokenAddress) ([]entity.Transaction, error) {
	return ensure(ctx, c, slotKey(creator, "transactions"), "transactions", func(ctx context.Context) ([]entity.Transaction, error) {
		fetch := func(ctx context.Context, cursor pager.Cursor) (pager.Page[entity.Transaction], error) {
			return c.explorer.AddressTransactions(ctx, creator, cursor)
		}
		return pager.Paginate(ctx, fetch, pager.Options[entity.Transaction]{
			Resource: "transactions",
			MaxPages: c.cfg.TransactionMaxPages,
		})
	})
}

// EnsureCreationTransfers returns the token transfer log of txHash.
func (c *TokenDataCache) EnsureCreationTransfers(ctx context.Context, txHash string) ([]entity.TransferEvent, error) {
	txHash = strings.ToLower(txHash)
	return ensure(ctx, c, "tx:"+txHash+"|transfers", "tx_transfers", func(ctx context.Context) ([]entity.TransferEvent, error) {
		return c.explorer.TransactionTokenTransfers(ctx, txHash)
	})
}

// EnsureSmartContract returns the verified contract record, or nil when the
// explorer has none.
func (c *TokenDataCache) EnsureSmartContract(ctx context.Context, address entity.TokenAddress) (*entity.SmartContract, error) {
	return ensure(ctx, c, slotKey(address, "smartContract"), "smart_contract", func(ctx context.Context) (*entity.SmartContract, error) {
		return c.explorer.SmartContract(ctx, address)
	})
}

// EnsureDexPairs returns the token's DEX pairs on the configured chain.
func (c *TokenDataCache) EnsureDexPairs(ctx context.Context, token entity.TokenAddress) ([]entity.LiquidityPair, error) {
	if c.dex == nil {
		return nil, errors.New("dex screener client not configured")
	}
	return ensure(ctx, c, slotKey(token, "dexPairs"), "dex_pairs", func(ctx context.Context) ([]entity.LiquidityPair, error) {
		return c.dex.GetTokenPairs(ctx, c.cfg.DEXScreenerChainID, token)
	})
}

// Invalidate drops every slot owned by token, including wallet transfer slots
// scoped to it.
func (c *TokenDataCache) Invalidate(token entity.TokenAddress) int {
	prefix := token.String() + "|"
	removed := 0
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
			removed++
		}
	}
	c.logger.Info("Token cache invalidated", "token", token, "slots", removed)
	return removed
}

// Flush drops every cached slot of every token and returns how many there were.
func (c *TokenDataCache) Flush() int {
	removed := c.store.ItemCount()
	c.store.Flush()
	c.logger.Info("Token cache flushed", "slots", removed)
	return removed
}

func transferTime(t entity.TransferEvent) time.Time {
	return t.Timestamp
}

var _ port.TokenDataProvider = (*TokenDataCache)(nil)
