package analytics

import (
	"math/big"
	"testing"

	"tokenstats/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func transferOwnershipInput(newOwner common.Address) string {
	selector := crypto.Keccak256([]byte("transferOwnership(address)"))[:4]
	return hexutil.Encode(append(append([]byte{}, selector...), common.LeftPadBytes(newOwner.Bytes(), 32)...))
}

func TestRenounceSelector(t *testing.T) {
	assert.Equal(t, "0x715018a6", RenounceSelector())
}

func TestDetectOwnership_ByMethodName(t *testing.T) {
	txs := []entity.Transaction{
		{Hash: "0x01", To: token, Method: "approve", Success: true},
		{Hash: "0x02", To: token, Method: "renounceOwnership", Success: true},
	}

	o := DetectOwnership(txs, token, nil)

	assert.Equal(t, OwnershipRenounced, o.Status)
	assert.Equal(t, "0x02", o.TxHash)
	assert.Equal(t, 2, o.Scanned)
}

func TestDetectOwnership_BySelector(t *testing.T) {
	txs := []entity.Transaction{{Hash: "0x03", To: token, RawInput: "0x715018a6", Success: true}}

	o := DetectOwnership(txs, token, nil)

	assert.Equal(t, OwnershipRenounced, o.Status)
	assert.Equal(t, "renounceOwnership", o.Method)
}

func TestDetectOwnership_TransferToZero(t *testing.T) {
	txs := []entity.Transaction{
		{Hash: "0x04", To: token, RawInput: transferOwnershipInput(common.HexToAddress("0x1234")), Success: true},
		{Hash: "0x05", To: token, RawInput: transferOwnershipInput(common.Address{}), Success: true},
	}

	o := DetectOwnership(txs, token, nil)

	assert.Equal(t, OwnershipRenounced, o.Status)
	assert.Equal(t, "0x05", o.TxHash)
	assert.Equal(t, "transferOwnership", o.Method)
}

func TestDetectOwnership_IgnoresFailedAndOtherTargets(t *testing.T) {
	txs := []entity.Transaction{
		{Hash: "0x06", To: token, Method: "renounceOwnership", Success: false},
		{Hash: "0x07", To: addrB, Method: "renounceOwnership", Success: true},
	}

	o := DetectOwnership(txs, token, nil)

	assert.Equal(t, OwnershipNotRenounced, o.Status)
	assert.Equal(t, 0, o.Scanned)
}

func TestDetectOwnership_NotOwnable(t *testing.T) {
	contract := &entity.SmartContract{
		Address:    token,
		IsVerified: true,
		ABI:        []byte(`[{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`),
	}
	txs := []entity.Transaction{{Hash: "0x08", To: token, Method: "transfer", Success: true}}

	assert.Equal(t, OwnershipNotOwnable, DetectOwnership(txs, token, contract).Status)
}

func TestDetectOwnership_OwnableABIStaysNotRenounced(t *testing.T) {
	contract := &entity.SmartContract{Address: token, ABI: []byte(ownableABI)}
	txs := []entity.Transaction{{Hash: "0x09", To: token, Method: "transfer", Success: true}}

	assert.Equal(t, OwnershipNotRenounced, DetectOwnership(txs, token, contract).Status)
}

func TestDetectOwnership_NoHistory(t *testing.T) {
	assert.Equal(t, OwnershipUnknown, DetectOwnership(nil, token, nil).Status)
}

func TestCreatorMintShare(t *testing.T) {
	creator := addrA
	transfers := []entity.TransferEvent{
		{From: entity.ZeroAddress, To: creator, Value: big.NewInt(600), TokenAddress: token},
		{From: entity.ZeroAddress, To: addrB, Value: big.NewInt(400), TokenAddress: token},
		{From: entity.ZeroAddress, To: creator, Value: big.NewInt(50), TokenAddress: addrC},
	}

	m := CreatorMintShare(transfers, token, creator, "0xcreate", big.NewInt(1000))

	assert.True(t, m.Found)
	assert.Equal(t, "600", m.Raw.String())
	assert.InDelta(t, 60.0, m.Percent, 1e-9)
	assert.Equal(t, "0xcreate", m.CreationTxHash)
}

func TestCreatorMintShare_NotFound(t *testing.T) {
	m := CreatorMintShare(nil, token, addrA, "", big.NewInt(1000))

	assert.False(t, m.Found)
	assert.Equal(t, 0.0, m.Percent)
}
