package analytics

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"tokenstats/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Ownable ABI minimal part for renounce detection
const ownableABI = `[{"inputs":[],"name":"renounceOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address","name":"newOwner","type":"address"}],"name":"transferOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

var (
	parsedOwnableABI  abi.ABI
	parsedOwnableOnce sync.Once
	renounceMethodID  []byte
	transferMethodID  []byte
)

func initParsedOwnableABI() {
	parsedOwnableOnce.Do(func() {
		var err error
		parsedOwnableABI, err = abi.JSON(strings.NewReader(ownableABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse Ownable ABI: %v", err))
		}
		renounceMethodID = parsedOwnableABI.Methods["renounceOwnership"].ID
		transferMethodID = parsedOwnableABI.Methods["transferOwnership"].ID
	})
}

// RenounceSelector is the 4-byte selector of renounceOwnership(), 0x-prefixed.
// Explorers report it as the method name of calls they cannot decode.
func RenounceSelector() string {
	initParsedOwnableABI()
	return hexutil.Encode(renounceMethodID)
}

// CreatorMint is the share of supply minted straight to the creator in the
// contract creation transaction.
type CreatorMint struct {
	Creator        entity.TokenAddress `json:"creator"`
	CreationTxHash string              `json:"creationTxHash"`
	Found          bool                `json:"found"`
	Amount
}

// CreatorMintShare sums transfers from the zero address to creator of token
// inside the creation transaction's transfer log.
func CreatorMintShare(transfers []entity.TransferEvent, token, creator entity.TokenAddress, creationTxHash string, totalSupply *big.Int) CreatorMint {
	sum := new(big.Int)
	found := false
	for _, t := range transfers {
		if t.Value == nil || !t.From.IsZero() || t.To != creator {
			continue
		}
		if t.TokenAddress != "" && t.TokenAddress != token {
			continue
		}
		sum.Add(sum, t.Value)
		found = true
	}
	return CreatorMint{
		Creator:        creator,
		CreationTxHash: creationTxHash,
		Found:          found,
		Amount:         newAmount(sum, totalSupply),
	}
}

// OwnershipStatus classifies the token's ownership.
type OwnershipStatus string

const (
	OwnershipRenounced    OwnershipStatus = "renounced"
	OwnershipNotRenounced OwnershipStatus = "not_renounced"
	OwnershipNotOwnable   OwnershipStatus = "not_ownable"
	OwnershipUnknown      OwnershipStatus = "unknown"
)

// Ownership is the result of the renounce scan.
type Ownership struct {
	Status  OwnershipStatus `json:"status"`
	TxHash  string          `json:"txHash,omitempty"`
	Method  string          `json:"method,omitempty"`
	Scanned int             `json:"scanned"`
}

// DetectOwnership scans the creator's transactions for a successful call to
// token that renounces ownership: renounceOwnership() or
// transferOwnership(0x0), matched by decoded method name or by selector.
// When no renounce is found, a verified ABI without owner functions marks the
// token not_ownable. Renounces sent by a later owner other than the creator
// are not seen.
func DetectOwnership(txs []entity.Transaction, token entity.TokenAddress, contract *entity.SmartContract) Ownership {
	initParsedOwnableABI()

	res := Ownership{Status: OwnershipUnknown}
	for _, tx := range txs {
		if tx.To != token || !tx.Success {
			continue
		}
		res.Scanned++
		if method, ok := isRenounce(tx); ok {
			res.Status = OwnershipRenounced
			res.TxHash = tx.Hash
			res.Method = method
			return res
		}
	}

	if ownable, known := contractIsOwnable(contract); known && !ownable {
		res.Status = OwnershipNotOwnable
		return res
	}
	if len(txs) > 0 {
		res.Status = OwnershipNotRenounced
	}
	return res
}

func isRenounce(tx entity.Transaction) (string, bool) {
	input, err := hexutil.Decode(tx.RawInput)
	if err != nil {
		input = nil
	}
	method := tx.Method

	switch {
	case strings.EqualFold(method, "renounceOwnership"):
		return "renounceOwnership", true
	case len(input) >= 4 && bytes.Equal(input[:4], renounceMethodID):
		return "renounceOwnership", true
	case strings.EqualFold(method, RenounceSelector()):
		return "renounceOwnership", true
	}

	if len(input) < 4 || !bytes.Equal(input[:4], transferMethodID) {
		return "", false
	}
	args, err := parsedOwnableABI.Methods["transferOwnership"].Inputs.Unpack(input[4:])
	if err != nil || len(args) != 1 {
		return "", false
	}
	newOwner, ok := args[0].(common.Address)
	if !ok || newOwner != (common.Address{}) {
		return "", false
	}
	return "transferOwnership", true
}

// contractIsOwnable reports whether the verified ABI exposes owner functions.
// known is false when there is no parsable ABI.
func contractIsOwnable(contract *entity.SmartContract) (ownable, known bool) {
	if contract == nil || len(contract.ABI) == 0 {
		return false, false
	}
	parsed, err := abi.JSON(bytes.NewReader(contract.ABI))
	if err != nil {
		return false, false
	}
	for _, name := range []string{"owner", "getOwner", "renounceOwnership", "transferOwnership"} {
		if _, ok := parsed.Methods[name]; ok {
			return true, true
		}
	}
	return false, true
}
