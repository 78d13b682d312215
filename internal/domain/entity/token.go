package entity

import (
	"math/big"
)

// TokenInfo is the explorer's token record.
type TokenInfo struct {
	Address      TokenAddress `json:"address"`
	Name         string       `json:"name"`
	Symbol       string       `json:"symbol"`
	Type         string       `json:"type"`
	Decimals     *uint8       `json:"decimals,omitempty"`
	TotalSupply  *big.Int     `json:"totalSupply,omitempty"`
	HoldersCount int64        `json:"holdersCount"`
	ExchangeRate float64      `json:"exchangeRate,omitempty"`
}

// TokenCounters holds explorer-side aggregate counters for a token.
type TokenCounters struct {
	HoldersCount   int64 `json:"holdersCount"`
	TransfersCount int64 `json:"transfersCount"`
}

// AddressInfo is the explorer's address record for the token contract.
type AddressInfo struct {
	Hash           TokenAddress `json:"hash"`
	Name           string       `json:"name,omitempty"`
	IsContract     bool         `json:"isContract"`
	IsVerified     bool         `json:"isVerified"`
	CreatorAddress TokenAddress `json:"creatorAddress,omitempty"`
	CreationTxHash string       `json:"creationTxHash,omitempty"`
}

// AddressCounters holds explorer-side counters for the token contract address.
type AddressCounters struct {
	TransactionsCount   int64 `json:"transactionsCount"`
	TokenTransfersCount int64 `json:"tokenTransfersCount"`
}

// CoreSlot names one of the four core metadata cache slots.
type CoreSlot string

const (
	SlotTokenInfo       CoreSlot = "tokenInfo"
	SlotTokenCounters   CoreSlot = "tokenCounters"
	SlotAddressInfo     CoreSlot = "addressInfo"
	SlotAddressCounters CoreSlot = "addressCounters"
)

// CoreSlots lists the core metadata slots in a fixed order.
var CoreSlots = []CoreSlot{SlotTokenInfo, SlotTokenCounters, SlotAddressInfo, SlotAddressCounters}

// CoreMetadata is the merged set of the four core slots. A nil field means the
// slot could not be loaded.
type CoreMetadata struct {
	TokenInfo       *TokenInfo       `json:"tokenInfo,omitempty"`
	TokenCounters   *TokenCounters   `json:"tokenCounters,omitempty"`
	AddressInfo     *AddressInfo     `json:"addressInfo,omitempty"`
	AddressCounters *AddressCounters `json:"addressCounters,omitempty"`
}

// TokenMetadata is the subset of core metadata every unit conversion needs.
type TokenMetadata struct {
	Address              TokenAddress
	Symbol               string
	Name                 string
	Decimals             uint8
	TotalSupply          *big.Int
	HoldersCountReported int64
	CreatorAddress       TokenAddress
	CreationTxHash       string
}

// TokenMetadata derives the unit-conversion metadata. It fails closed: missing
// token info, decimals or total supply is an error, never a default.
func (m CoreMetadata) TokenMetadata() (TokenMetadata, error) {
	if m.TokenInfo == nil {
		return TokenMetadata{}, ErrDecimalsUnknown
	}
	if m.TokenInfo.Decimals == nil {
		return TokenMetadata{}, ErrDecimalsUnknown
	}
	if m.TokenInfo.TotalSupply == nil {
		return TokenMetadata{}, ErrTotalSupplyUnknown
	}

	meta := TokenMetadata{
		Address:              m.TokenInfo.Address,
		Symbol:               m.TokenInfo.Symbol,
		Name:                 m.TokenInfo.Name,
		Decimals:             *m.TokenInfo.Decimals,
		TotalSupply:          new(big.Int).Set(m.TokenInfo.TotalSupply),
		HoldersCountReported: m.TokenInfo.HoldersCount,
	}
	if m.TokenCounters != nil && m.TokenCounters.HoldersCount > 0 {
		meta.HoldersCountReported = m.TokenCounters.HoldersCount
	}
	if m.AddressInfo != nil {
		meta.CreatorAddress = m.AddressInfo.CreatorAddress
		meta.CreationTxHash = m.AddressInfo.CreationTxHash
	}
	return meta, nil
}
