package analytics

import (
	"math/big"
	"sort"

	"tokenstats/internal/domain/entity"
)

// Flow is the burn and mint volume of a transfer window.
type Flow struct {
	Burned    Amount `json:"burned"`
	Minted    Amount `json:"minted"`
	BurnCount int    `json:"burnCount"`
	MintCount int    `json:"mintCount"`
	Transfers int    `json:"transfers"`
}

// BurnMint sums transfers into a burn address (burned) and transfers sent by
// the token contract or the zero address (minted). The mint side is a
// heuristic: no Mint event log is consulted.
func BurnMint(transfers []entity.TransferEvent, token entity.TokenAddress, totalSupply *big.Int) Flow {
	burned := new(big.Int)
	minted := new(big.Int)
	res := Flow{Transfers: len(transfers)}
	for _, t := range transfers {
		if t.Value == nil {
			continue
		}
		if t.To.IsBurn() {
			burned.Add(burned, t.Value)
			res.BurnCount++
		}
		if t.From == token || t.From.IsZero() {
			minted.Add(minted, t.Value)
			res.MintCount++
		}
	}
	res.Burned = newAmount(burned, totalSupply)
	res.Minted = newAmount(minted, totalSupply)
	return res
}

// MaxListedAddresses caps the address samples returned in HolderDelta.
const MaxListedAddresses = 25

// HolderDelta partitions window participants into receive-only (new) and
// send-only (lost) addresses.
type HolderDelta struct {
	New      int                   `json:"new"`
	Lost     int                   `json:"lost"`
	Net      int                   `json:"net"`
	NewList  []entity.TokenAddress `json:"newSample,omitempty"`
	LostList []entity.TokenAddress `json:"lostSample,omitempty"`
}

// NewVsLost is a heuristic: it ignores partial sells and balances held before
// the window. Burn addresses and the token contract are not holders and are
// skipped.
func NewVsLost(transfers []entity.TransferEvent, token entity.TokenAddress) HolderDelta {
	received := make(map[entity.TokenAddress]bool)
	sent := make(map[entity.TokenAddress]bool)
	skip := func(a entity.TokenAddress) bool {
		return a == "" || a.IsBurn() || a == token
	}
	for _, t := range transfers {
		if !skip(t.To) {
			received[t.To] = true
		}
		if !skip(t.From) {
			sent[t.From] = true
		}
	}

	var newAddrs, lostAddrs []entity.TokenAddress
	for a := range received {
		if !sent[a] {
			newAddrs = append(newAddrs, a)
		}
	}
	for a := range sent {
		if !received[a] {
			lostAddrs = append(lostAddrs, a)
		}
	}
	sort.Slice(newAddrs, func(i, j int) bool { return newAddrs[i] < newAddrs[j] })
	sort.Slice(lostAddrs, func(i, j int) bool { return lostAddrs[i] < lostAddrs[j] })

	return HolderDelta{
		New:      len(newAddrs),
		Lost:     len(lostAddrs),
		Net:      len(newAddrs) - len(lostAddrs),
		NewList:  capAddresses(newAddrs),
		LostList: capAddresses(lostAddrs),
	}
}

func capAddresses(a []entity.TokenAddress) []entity.TokenAddress {
	if len(a) > MaxListedAddresses {
		return a[:MaxListedAddresses]
	}
	return a
}

// DiamondHands is the share of supply held by addresses that sent nothing in
// the window.
type DiamondHands struct {
	Holders int      `json:"holders"`
	Diamond int      `json:"diamond"`
	Raw     *big.Int `json:"raw"`
	Percent float64  `json:"percent"`
}

// DiamondHandsScore over-approximates "has not sold": an address that only
// received during the window counts even if it is a fresh buyer. Burn
// addresses are excluded.
func DiamondHandsScore(holders []entity.Holder, transfers []entity.TransferEvent, totalSupply *big.Int) DiamondHands {
	senders := make(map[entity.TokenAddress]struct{}, len(transfers))
	for _, t := range transfers {
		senders[t.From] = struct{}{}
	}
	res := DiamondHands{Raw: new(big.Int)}
	for _, h := range holders {
		bal := balanceOf(h)
		if bal.Sign() <= 0 || h.Address.IsBurn() {
			continue
		}
		res.Holders++
		if _, moved := senders[h.Address]; moved {
			continue
		}
		res.Diamond++
		res.Raw.Add(res.Raw, bal)
	}
	res.Percent = newAmount(res.Raw, totalSupply).Percent
	return res
}

// WalletActivity summarizes one wallet's transfers of a token.
type WalletActivity struct {
	Wallet        entity.TokenAddress `json:"wallet"`
	SentRaw       *big.Int            `json:"sentRaw"`
	ReceivedRaw   *big.Int            `json:"receivedRaw"`
	NetRaw        *big.Int            `json:"netRaw"`
	SentCount     int                 `json:"sentCount"`
	ReceivedCount int                 `json:"receivedCount"`
	SentToBurnRaw *big.Int            `json:"sentToBurnRaw"`
}

// Activity sums wallet's inbound and outbound transfers.
func Activity(wallet entity.TokenAddress, transfers []entity.TransferEvent) WalletActivity {
	res := WalletActivity{
		Wallet:        wallet,
		SentRaw:       new(big.Int),
		ReceivedRaw:   new(big.Int),
		SentToBurnRaw: new(big.Int),
	}
	for _, t := range transfers {
		if t.Value == nil {
			continue
		}
		if t.From == wallet {
			res.SentRaw.Add(res.SentRaw, t.Value)
			res.SentCount++
			if t.To.IsBurn() {
				res.SentToBurnRaw.Add(res.SentToBurnRaw, t.Value)
			}
		}
		if t.To == wallet {
			res.ReceivedRaw.Add(res.ReceivedRaw, t.Value)
			res.ReceivedCount++
		}
	}
	res.NetRaw = new(big.Int).Sub(res.ReceivedRaw, res.SentRaw)
	return res
}
