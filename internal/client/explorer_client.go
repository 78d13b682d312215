package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tokenstats/internal/app/pager"
	"tokenstats/internal/app/port"
	domain "tokenstats/internal/domain/entity"
	"tokenstats/internal/entity"
	"tokenstats/internal/infrastructure/httpclient"
	"tokenstats/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// txTransfersMaxPages bounds the transfer log walk of a single transaction.
const txTransfersMaxPages = 10

// JSONFetcher is the GET primitive the clients are built on.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, out interface{}) error
}

// ExplorerClientConfig configures the explorer REST client.
type ExplorerClientConfig struct {
	BaseURL string
	APIKey  string
	// PageSize is sent as items_count on the first page of a walk. Zero leaves
	// the server default.
	PageSize int
}

type explorerClientImpl struct {
	fetcher  JSONFetcher
	baseURL  string
	apiKey   string
	pageSize int
	logger   *zap.Logger
}

// NewExplorerClient creates a Blockscout v2 REST client rooted at cfg.BaseURL
// (for example https://api.scan.pulsechain.com/api/v2).
func NewExplorerClient(cfg ExplorerClientConfig, fetcher JSONFetcher, logger *zap.Logger) port.ExplorerClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &explorerClientImpl{
		fetcher:  fetcher,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		logger:   logger.Named("ExplorerClient"),
	}
}

func (c *explorerClientImpl) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}
	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (c *explorerClientImpl) pageURL(path string, base url.Values, cursor pager.Cursor) string {
	q := url.Values{}
	for k, v := range base {
		q[k] = v
	}
	if cursor.Empty() {
		if c.pageSize > 0 {
			q.Set("items_count", strconv.Itoa(c.pageSize))
		}
	} else {
		cursor.Apply(q)
	}
	return c.buildURL(path, q)
}

// fetchPage fetches one page and converts every item with convert. Items that
// fail to decode are skipped; a missing or non-array items field is an empty
// page.
func fetchPage[R any, T any](ctx context.Context, c *explorerClientImpl, requestURL string, convert func(R) (T, bool)) (pager.Page[T], error) {
	var envelope entity.ExplorerPage
	if err := c.fetcher.FetchJSON(ctx, requestURL, &envelope); err != nil {
		return pager.Page[T]{}, err
	}

	next := pager.CursorFromParams(envelope.NextPageParams)

	var raws []jsoniter.RawMessage
	if len(envelope.Items) > 0 {
		if err := json.Unmarshal(envelope.Items, &raws); err != nil {
			c.logger.Warn("Explorer page items is not an array, treating as empty",
				zap.String("url", httpclient.RedactURL(requestURL)), zap.Error(err))
			return pager.Page[T]{Next: next}, nil
		}
	}

	items := make([]T, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		var r R
		if err := json.Unmarshal(raw, &r); err != nil {
			skipped++
			continue
		}
		item, ok := convert(r)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	if skipped > 0 {
		c.logger.Debug("Skipped malformed explorer items",
			zap.String("url", httpclient.RedactURL(requestURL)),
			zap.Int("skipped", skipped),
			zap.Int("kept", len(items)))
	}
	return pager.Page[T]{Items: items, Next: next, Fetched: len(raws)}, nil
}

// TokenInfo implements port.ExplorerClient.
func (c *explorerClientImpl) TokenInfo(ctx context.Context, token domain.TokenAddress) (*domain.TokenInfo, error) {
	var raw entity.ExplorerToken
	if err := c.fetcher.FetchJSON(ctx, c.buildURL("/tokens/"+token.String(), nil), &raw); err != nil {
		return nil, fmt.Errorf("token info for %s: %w", token, err)
	}

	info := &domain.TokenInfo{
		Address: token,
		Name:    raw.Name,
		Symbol:  raw.Symbol,
		Type:    raw.Type,
	}
	if d, err := strconv.ParseUint(string(raw.Decimals), 10, 8); err == nil {
		decimals := uint8(d)
		info.Decimals = &decimals
	}
	if supply, ok := utils.ParseBigInt(string(raw.TotalSupply)); ok {
		info.TotalSupply = supply
	}
	info.HoldersCount = raw.HoldersCount.Int64()
	if info.HoldersCount == 0 {
		info.HoldersCount = raw.Holders.Int64()
	}
	if rate, err := strconv.ParseFloat(string(raw.ExchangeRate), 64); err == nil {
		info.ExchangeRate = rate
	}
	return info, nil
}

// TokenCounters implements port.ExplorerClient.
func (c *explorerClientImpl) TokenCounters(ctx context.Context, token domain.TokenAddress) (*domain.TokenCounters, error) {
	var raw entity.ExplorerTokenCounters
	if err := c.fetcher.FetchJSON(ctx, c.buildURL("/tokens/"+token.String()+"/counters", nil), &raw); err != nil {
		return nil, fmt.Errorf("token counters for %s: %w", token, err)
	}
	return &domain.TokenCounters{
		HoldersCount:   raw.TokenHoldersCount.Int64(),
		TransfersCount: raw.TransfersCount.Int64(),
	}, nil
}

// AddressInfo implements port.ExplorerClient.
func (c *explorerClientImpl) AddressInfo(ctx context.Context, address domain.TokenAddress) (*domain.AddressInfo, error) {
	var raw entity.ExplorerAddress
	if err := c.fetcher.FetchJSON(ctx, c.buildURL("/addresses/"+address.String(), nil), &raw); err != nil {
		return nil, fmt.Errorf("address info for %s: %w", address, err)
	}
	creationTx := raw.CreationTxHash
	if creationTx == "" {
		creationTx = raw.CreationTransactionHash
	}
	return &domain.AddressInfo{
		Hash:           address,
		Name:           raw.Name,
		IsContract:     raw.IsContract,
		IsVerified:     raw.IsVerified,
		CreatorAddress: domain.NormalizeAddress(raw.CreatorAddressHash),
		CreationTxHash: strings.ToLower(creationTx),
	}, nil
}

// AddressCounters implements port.ExplorerClient.
func (c *explorerClientImpl) AddressCounters(ctx context.Context, address domain.TokenAddress) (*domain.AddressCounters, error) {
	var raw entity.ExplorerAddressCounters
	if err := c.fetcher.FetchJSON(ctx, c.buildURL("/addresses/"+address.String()+"/counters", nil), &raw); err != nil {
		return nil, fmt.Errorf("address counters for %s: %w", address, err)
	}
	return &domain.AddressCounters{
		TransactionsCount:   raw.TransactionsCount.Int64(),
		TokenTransfersCount: raw.TokenTransfersCount.Int64(),
	}, nil
}

// TokenHolders implements port.ExplorerClient.
func (c *explorerClientImpl) TokenHolders(ctx context.Context, token domain.TokenAddress, cursor pager.Cursor) (pager.Page[domain.Holder], error) {
	u := c.pageURL("/tokens/"+token.String()+"/holders", nil, cursor)
	page, err := fetchPage(ctx, c, u, convertHolder)
	if err != nil {
		return page, fmt.Errorf("token holders for %s: %w", token, err)
	}
	return page, nil
}

// TokenTransfers implements port.ExplorerClient.
func (c *explorerClientImpl) TokenTransfers(ctx context.Context, token domain.TokenAddress, cursor pager.Cursor) (pager.Page[domain.TransferEvent], error) {
	u := c.pageURL("/tokens/"+token.String()+"/transfers", nil, cursor)
	page, err := fetchPage(ctx, c, u, transferConverter(token))
	if err != nil {
		return page, fmt.Errorf("token transfers for %s: %w", token, err)
	}
	return page, nil
}

// AddressTokenTransfers implements port.ExplorerClient.
func (c *explorerClientImpl) AddressTokenTransfers(ctx context.Context, wallet, token domain.TokenAddress, cursor pager.Cursor) (pager.Page[domain.TransferEvent], error) {
	base := url.Values{}
	base.Set("type", "ERC-20")
	base.Set("token", token.String())
	u := c.pageURL("/addresses/"+wallet.String()+"/token-transfers", base, cursor)
	page, err := fetchPage(ctx, c, u, transferConverter(token))
	if err != nil {
		return page, fmt.Errorf("token transfers of %s for wallet %s: %w", token, wallet, err)
	}
	return page, nil
}

// AddressTransactions implements port.ExplorerClient.
func (c *explorerClientImpl) AddressTransactions(ctx context.Context, address domain.TokenAddress, cursor pager.Cursor) (pager.Page[domain.Transaction], error) {
	u := c.pageURL("/addresses/"+address.String()+"/transactions", nil, cursor)
	page, err := fetchPage(ctx, c, u, convertTransaction)
	if err != nil {
		return page, fmt.Errorf("transactions of %s: %w", address, err)
	}
	return page, nil
}

// TransactionTokenTransfers implements port.ExplorerClient. It walks the
// transfer log of one transaction, which is rarely more than a page.
func (c *explorerClientImpl) TransactionTokenTransfers(ctx context.Context, txHash string) ([]domain.TransferEvent, error) {
	txHash = strings.ToLower(txHash)
	fetch := func(ctx context.Context, cursor pager.Cursor) (pager.Page[domain.TransferEvent], error) {
		u := c.pageURL("/transactions/"+txHash+"/token-transfers", nil, cursor)
		return fetchPage(ctx, c, u, transferConverter(""))
	}
	transfers, err := pager.Paginate(ctx, fetch, pager.Options[domain.TransferEvent]{
		Resource: "tx_token_transfers",
		MaxPages: txTransfersMaxPages,
	})
	if err != nil {
		return transfers, fmt.Errorf("token transfers of tx %s: %w", txHash, err)
	}
	return transfers, nil
}

// SmartContract implements port.ExplorerClient. An address the explorer has
// no contract record for yields (nil, nil).
func (c *explorerClientImpl) SmartContract(ctx context.Context, address domain.TokenAddress) (*domain.SmartContract, error) {
	var raw entity.ExplorerSmartContract
	if err := c.fetcher.FetchJSON(ctx, c.buildURL("/smart-contracts/"+address.String(), nil), &raw); err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == 404 {
			c.logger.Debug("No smart contract record", zap.String("address", address.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("smart contract %s: %w", address, err)
	}
	contract := &domain.SmartContract{
		Address:    address,
		Name:       raw.Name,
		IsVerified: raw.IsVerified,
	}
	if abi := []byte(raw.ABI); len(abi) > 0 && string(abi) != "null" {
		contract.ABI = append([]byte(nil), abi...)
	}
	return contract, nil
}

func convertHolder(r entity.ExplorerHolderItem) (domain.Holder, bool) {
	addr := domain.NormalizeAddress(r.Address.Hash)
	if addr == "" {
		return domain.Holder{}, false
	}
	balance, ok := utils.ParseBigInt(string(r.Value))
	if !ok {
		return domain.Holder{}, false
	}
	return domain.Holder{Address: addr, Balance: balance}, true
}

// transferConverter maps transfer items. fallbackToken is used when an item
// does not name its token.
func transferConverter(fallbackToken domain.TokenAddress) func(entity.ExplorerTransferItem) (domain.TransferEvent, bool) {
	return func(r entity.ExplorerTransferItem) (domain.TransferEvent, bool) {
		ts, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return domain.TransferEvent{}, false
		}
		value, ok := utils.ParseBigInt(string(r.Total.Value))
		if !ok {
			return domain.TransferEvent{}, false
		}
		token := r.Token.Address
		if token == "" {
			token = r.Token.AddressHash
		}
		tokenAddr := domain.NormalizeAddress(token)
		if tokenAddr == "" {
			tokenAddr = fallbackToken
		}
		txHash := r.TxHash
		if txHash == "" {
			txHash = r.TransactionHash
		}
		return domain.TransferEvent{
			Timestamp:    ts,
			From:         domain.NormalizeAddress(r.From.Hash),
			To:           domain.NormalizeAddress(r.To.Hash),
			Value:        value,
			TokenAddress: tokenAddr,
			TxHash:       strings.ToLower(txHash),
			Method:       r.Method,
		}, true
	}
}

func convertTransaction(r entity.ExplorerTransactionItem) (domain.Transaction, bool) {
	if r.Hash == "" {
		return domain.Transaction{}, false
	}
	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return domain.Transaction{}, false
	}
	tx := domain.Transaction{
		Hash:      strings.ToLower(r.Hash),
		Timestamp: ts,
		From:      domain.NormalizeAddress(r.From.Hash),
		Method:    r.Method,
		RawInput:  r.RawInput,
		Success:   r.Status == "ok" || r.Result == "success",
	}
	if r.To != nil {
		tx.To = domain.NormalizeAddress(r.To.Hash)
	}
	return tx, true
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
