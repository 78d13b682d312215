package entity

import (
	"math/big"
	"time"
)

// Holder is one row of a token holder snapshot. Balance is the raw on-chain
// integer amount.
type Holder struct {
	Address TokenAddress `json:"address"`
	Balance *big.Int     `json:"balance"`
}

// TransferEvent is one token transfer as reported by the explorer.
type TransferEvent struct {
	Timestamp    time.Time    `json:"timestamp"`
	From         TokenAddress `json:"from"`
	To           TokenAddress `json:"to"`
	Value        *big.Int     `json:"value"`
	TokenAddress TokenAddress `json:"tokenAddress,omitempty"`
	TxHash       string       `json:"txHash,omitempty"`
	Method       string       `json:"method,omitempty"`
}

// Transaction is one entry of an address's transaction history.
type Transaction struct {
	Hash      string       `json:"hash"`
	Timestamp time.Time    `json:"timestamp"`
	From      TokenAddress `json:"from"`
	To        TokenAddress `json:"to"`
	Method    string       `json:"method,omitempty"`
	RawInput  string       `json:"rawInput,omitempty"`
	Success   bool         `json:"success"`
}

// SmartContract is the explorer's verified-contract record.
type SmartContract struct {
	Address    TokenAddress `json:"address"`
	Name       string       `json:"name,omitempty"`
	IsVerified bool         `json:"isVerified"`
	ABI        []byte       `json:"-"`
}
