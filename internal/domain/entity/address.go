package entity

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenAddress is a lowercased, 0x-prefixed 20-byte hex address. It is the
// key for every per-token cache slot and every address comparison.
type TokenAddress string

const (
	// ZeroAddress represents the Ethereum zero address.
	ZeroAddress TokenAddress = "0x0000000000000000000000000000000000000000"
	// DeadAddress is the conventional "dead" burn sink.
	DeadAddress TokenAddress = "0x000000000000000000000000000000000000dead"
	// PulseBurnAddress is the 0x...0369 burn sink used on PulseChain.
	PulseBurnAddress TokenAddress = "0x0000000000000000000000000000000000000369"
)

var burnAddresses = map[TokenAddress]struct{}{
	ZeroAddress:      {},
	DeadAddress:      {},
	PulseBurnAddress: {},
}

// ParseTokenAddress validates s as a hex address and returns its normalized form.
func ParseTokenAddress(s string) (TokenAddress, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return TokenAddress(strings.ToLower(common.HexToAddress(s).Hex())), nil
}

// NormalizeAddress lowercases an address taken from upstream data without
// validating it. Empty input stays empty.
func NormalizeAddress(s string) TokenAddress {
	return TokenAddress(strings.ToLower(strings.TrimSpace(s)))
}

// String implements fmt.Stringer.
func (a TokenAddress) String() string {
	return string(a)
}

// IsBurn reports whether a is one of the distinguished burn addresses.
func (a TokenAddress) IsBurn() bool {
	_, ok := burnAddresses[a]
	return ok
}

// IsZero reports whether a is the zero address.
func (a TokenAddress) IsZero() bool {
	return a == ZeroAddress
}
