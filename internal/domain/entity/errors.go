package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidAddress is returned when a string is not a 20-byte hex address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrDecimalsUnknown is returned when token metadata has no decimals. Metrics
	// that need unit conversion fail instead of assuming 18.
	ErrDecimalsUnknown = errors.New("token decimals unavailable")

	// ErrTotalSupplyUnknown is returned when token metadata has no total supply.
	ErrTotalSupplyUnknown = errors.New("token total supply unavailable")

	// ErrNoCreator is returned when the explorer reports no creator for a contract.
	ErrNoCreator = errors.New("contract creator unavailable")

	// ErrNoLiquidity is returned when the DEX aggregator lists no pairs for a token.
	ErrNoLiquidity = errors.New("no liquidity pairs")
)

// UnknownStatError is returned by the registry for an id it does not know.
type UnknownStatError struct {
	ID string
}

func (e *UnknownStatError) Error() string {
	return fmt.Sprintf("unknown stat id %q", e.ID)
}

// CoreMetadataError reports which core metadata slots failed to load. The
// slots that did load are still returned alongside it.
type CoreMetadataError struct {
	Token  TokenAddress
	Failed map[CoreSlot]error
}

func (e *CoreMetadataError) Error() string {
	slots := make([]string, 0, len(e.Failed))
	for slot := range e.Failed {
		slots = append(slots, string(slot))
	}
	sort.Strings(slots)
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		parts = append(parts, fmt.Sprintf("%s: %v", slot, e.Failed[CoreSlot(slot)]))
	}
	return fmt.Sprintf("core metadata for %s partially failed (%s)", e.Token, strings.Join(parts, "; "))
}

// Unwrap exposes the per-slot errors to errors.Is / errors.As.
func (e *CoreMetadataError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// SlotFailed reports whether slot failed to load.
func (e *CoreMetadataError) SlotFailed(slot CoreSlot) bool {
	_, ok := e.Failed[slot]
	return ok
}
