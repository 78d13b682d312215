package port

import (
	"context"

	"tokenstats/internal/app/pager"
	"tokenstats/internal/domain/entity"
)

// ExplorerClient reads token, address and transfer data from a block explorer
// REST API. Page methods take the cursor returned by the previous page.
type ExplorerClient interface {
	TokenInfo(ctx context.Context, token entity.TokenAddress) (*entity.TokenInfo, error)
	TokenCounters(ctx context.Context, token entity.TokenAddress) (*entity.TokenCounters, error)
	AddressInfo(ctx context.Context, address entity.TokenAddress) (*entity.AddressInfo, error)
	AddressCounters(ctx context.Context, address entity.TokenAddress) (*entity.AddressCounters, error)

	TokenHolders(ctx context.Context, token entity.TokenAddress, cursor pager.Cursor) (pager.Page[entity.Holder], error)
	TokenTransfers(ctx context.Context, token entity.TokenAddress, cursor pager.Cursor) (pager.Page[entity.TransferEvent], error)
	AddressTokenTransfers(ctx context.Context, wallet, token entity.TokenAddress, cursor pager.Cursor) (pager.Page[entity.TransferEvent], error)
	AddressTransactions(ctx context.Context, address entity.TokenAddress, cursor pager.Cursor) (pager.Page[entity.Transaction], error)

	TransactionTokenTransfers(ctx context.Context, txHash string) ([]entity.TransferEvent, error)
	SmartContract(ctx context.Context, address entity.TokenAddress) (*entity.SmartContract, error)
}

// DEXScreenerClient looks up liquidity pairs on the DEX aggregator.
type DEXScreenerClient interface {
	GetTokenPairs(ctx context.Context, dexscreenerChainID string, token entity.TokenAddress) ([]entity.LiquidityPair, error)
}
