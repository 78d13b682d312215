package port

import (
	"context"
	"time"

	"tokenstats/internal/domain/entity"
)

// TokenDataProvider is the per-token memoizing data layer the metrics read from.
type TokenDataProvider interface {
	EnsureCoreMetadata(ctx context.Context, token entity.TokenAddress) (entity.CoreMetadata, error)
	EnsureTokenMetadata(ctx context.Context, token entity.TokenAddress) (entity.TokenMetadata, error)
	EnsureHolders(ctx context.Context, token entity.TokenAddress) ([]entity.Holder, error)
	EnsureTransfers24h(ctx context.Context, token entity.TokenAddress) ([]entity.TransferEvent, error)
	EnsureTransfers(ctx context.Context, token entity.TokenAddress, window time.Duration) ([]entity.TransferEvent, error)
	EnsureDexPairs(ctx context.Context, token entity.TokenAddress) ([]entity.LiquidityPair, error)
	EnsureWalletTransfers(ctx context.Context, wallet, token entity.TokenAddress) ([]entity.TransferEvent, error)
	EnsureCreatorTransactions(ctx context.Context, creator entity.TokenAddress) ([]entity.Transaction, error)
	EnsureCreationTransfers(ctx context.Context, txHash string) ([]entity.TransferEvent, error)
	EnsureSmartContract(ctx context.Context, address entity.TokenAddress) (*entity.SmartContract, error)
}

// StatService lists and computes registered stats.
type StatService interface {
	List() []entity.StatConfig
	Compute(ctx context.Context, id string, token entity.TokenAddress) (entity.StatResult, error)
	ComputeAll(ctx context.Context, token entity.TokenAddress) []entity.StatResult
}
