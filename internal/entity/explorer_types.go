package entity

import (
	"bytes"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// FlexString accepts a JSON string, number or null. The explorer encodes most
// counters and amounts as strings but some deployments emit bare numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*s = FlexString(unquoted)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// Int64 parses s as a base-10 integer, returning 0 when empty or malformed.
func (s FlexString) Int64() int64 {
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ExplorerPage is the envelope of every paginated explorer endpoint. Items is
// kept raw so a missing or non-array field can be treated as an empty page.
type ExplorerPage struct {
	Items          jsoniter.RawMessage    `json:"items"`
	NextPageParams map[string]interface{} `json:"next_page_params"`
}

// AddressRef is the nested {hash: ...} object the explorer uses for addresses.
type AddressRef struct {
	Hash string `json:"hash"`
}

// ExplorerToken is the /tokens/{address} response.
type ExplorerToken struct {
	Address      string     `json:"address"`
	AddressHash  string     `json:"address_hash"`
	Name         string     `json:"name"`
	Symbol       string     `json:"symbol"`
	Type         string     `json:"type"`
	Decimals     FlexString `json:"decimals"`
	TotalSupply  FlexString `json:"total_supply"`
	Holders      FlexString `json:"holders"`
	HoldersCount FlexString `json:"holders_count"`
	ExchangeRate FlexString `json:"exchange_rate"`
}

// ExplorerTokenCounters is the /tokens/{address}/counters response.
type ExplorerTokenCounters struct {
	TokenHoldersCount FlexString `json:"token_holders_count"`
	TransfersCount    FlexString `json:"transfers_count"`
}

// ExplorerAddress is the /addresses/{address} response.
type ExplorerAddress struct {
	Hash                    string     `json:"hash"`
	Name                    string     `json:"name"`
	IsContract              bool       `json:"is_contract"`
	IsVerified              bool       `json:"is_verified"`
	CreatorAddressHash      string     `json:"creator_address_hash"`
	CreationTxHash          string     `json:"creation_tx_hash"`
	CreationTransactionHash string     `json:"creation_transaction_hash"`
	CoinBalance             FlexString `json:"coin_balance"`
}

// ExplorerAddressCounters is the /addresses/{address}/counters response.
type ExplorerAddressCounters struct {
	TransactionsCount   FlexString `json:"transactions_count"`
	TokenTransfersCount FlexString `json:"token_transfers_count"`
}

// ExplorerHolderItem is one element of a token holders page.
type ExplorerHolderItem struct {
	Address AddressRef `json:"address"`
	Value   FlexString `json:"value"`
}

// ExplorerTransferTotal carries the raw transferred amount.
type ExplorerTransferTotal struct {
	Value    FlexString `json:"value"`
	Decimals FlexString `json:"decimals"`
}

// ExplorerTransferToken identifies the token of a transfer.
type ExplorerTransferToken struct {
	Address     string `json:"address"`
	AddressHash string `json:"address_hash"`
}

// ExplorerTransferItem is one element of a token transfers page.
type ExplorerTransferItem struct {
	Timestamp       string                `json:"timestamp"`
	From            AddressRef            `json:"from"`
	To              AddressRef            `json:"to"`
	Total           ExplorerTransferTotal `json:"total"`
	Token           ExplorerTransferToken `json:"token"`
	TxHash          string                `json:"tx_hash"`
	TransactionHash string                `json:"transaction_hash"`
	Method          string                `json:"method"`
}

// ExplorerTransactionItem is one element of an address transactions page.
type ExplorerTransactionItem struct {
	Hash      string      `json:"hash"`
	Timestamp string      `json:"timestamp"`
	From      AddressRef  `json:"from"`
	To        *AddressRef `json:"to"`
	Method    string      `json:"method"`
	RawInput  string      `json:"raw_input"`
	Status    string      `json:"status"`
	Result    string      `json:"result"`
}

// ExplorerSmartContract is the /smart-contracts/{address} response.
type ExplorerSmartContract struct {
	Name       string              `json:"name"`
	IsVerified bool                `json:"is_verified"`
	ABI        jsoniter.RawMessage `json:"abi"`
}
