package analytics

import (
	"math/big"
	"sort"

	"tokenstats/internal/domain/entity"
	"tokenstats/internal/pkg/utils"
)

// DefaultTopN are the concentration buckets reported by default.
var DefaultTopN = []int{1, 10, 20, 50}

// WhaleThresholdPercent is the share of supply at which a holder is a whale.
const WhaleThresholdPercent = 1

// Amount is a raw quantity and its share of total supply.
type Amount struct {
	Raw     *big.Int `json:"raw"`
	Percent float64  `json:"percent"`
}

func newAmount(raw, totalSupply *big.Int) Amount {
	return Amount{Raw: raw, Percent: utils.PercentOf(raw, totalSupply)}
}

// SortHoldersDesc returns a copy of holders ordered by balance descending,
// ties broken by address ascending. Holders without a balance sort last.
func SortHoldersDesc(holders []entity.Holder) []entity.Holder {
	sorted := make([]entity.Holder, len(holders))
	copy(sorted, holders)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := balanceOf(sorted[i]), balanceOf(sorted[j])
		if c := a.Cmp(b); c != 0 {
			return c > 0
		}
		return sorted[i].Address < sorted[j].Address
	})
	return sorted
}

var zero = big.NewInt(0)

func balanceOf(h entity.Holder) *big.Int {
	if h.Balance == nil {
		return zero
	}
	return h.Balance
}

// Concentration is the share of supply held by the N largest holders.
type Concentration struct {
	N       int      `json:"n"`
	Holders int      `json:"holders"`
	Raw     *big.Int `json:"raw"`
	Percent float64  `json:"percent"`
}

// TopN sums the n largest balances. When fewer than n holders exist all of them
// are counted. Percent is 0 when total supply is 0.
func TopN(holders []entity.Holder, totalSupply *big.Int, n int) Concentration {
	return topNSorted(SortHoldersDesc(holders), totalSupply, n)
}

// TopConcentrations computes TopN for every n in ns with a single sort.
func TopConcentrations(holders []entity.Holder, totalSupply *big.Int, ns []int) []Concentration {
	sorted := SortHoldersDesc(holders)
	out := make([]Concentration, 0, len(ns))
	for _, n := range ns {
		out = append(out, topNSorted(sorted, totalSupply, n))
	}
	return out
}

func topNSorted(sorted []entity.Holder, totalSupply *big.Int, n int) Concentration {
	counted := n
	if counted < 0 {
		counted = 0
	}
	if counted > len(sorted) {
		counted = len(sorted)
	}
	sum := new(big.Int)
	for _, h := range sorted[:counted] {
		sum.Add(sum, balanceOf(h))
	}
	return Concentration{
		N:       n,
		Holders: counted,
		Raw:     sum,
		Percent: utils.PercentOf(sum, totalSupply),
	}
}

// Whales counts holders whose balance is at least WhaleThresholdPercent of
// total supply.
type Whales struct {
	Count        int      `json:"count"`
	ThresholdRaw *big.Int `json:"thresholdRaw"`
	HeldRaw      *big.Int `json:"heldRaw"`
	HeldPercent  float64  `json:"heldPercent"`
}

// WhaleCount compares balance*100 >= supply*threshold in integers so the
// boundary holder is counted exactly. Zero supply yields no whales.
func WhaleCount(holders []entity.Holder, totalSupply *big.Int) Whales {
	res := Whales{ThresholdRaw: new(big.Int), HeldRaw: new(big.Int)}
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return res
	}
	res.ThresholdRaw.Mul(totalSupply, big.NewInt(WhaleThresholdPercent))
	res.ThresholdRaw.Quo(res.ThresholdRaw, big.NewInt(100))

	limit := new(big.Int).Mul(totalSupply, big.NewInt(WhaleThresholdPercent))
	scaled := new(big.Int)
	for _, h := range holders {
		bal := balanceOf(h)
		if bal.Sign() <= 0 {
			continue
		}
		scaled.Mul(bal, big.NewInt(100))
		if scaled.Cmp(limit) >= 0 {
			res.Count++
			res.HeldRaw.Add(res.HeldRaw, bal)
		}
	}
	res.HeldPercent = utils.PercentOf(res.HeldRaw, totalSupply)
	return res
}

// BurnBalance sums the snapshot balances of the burn addresses.
func BurnBalance(holders []entity.Holder, totalSupply *big.Int) Amount {
	sum := new(big.Int)
	for _, h := range holders {
		if h.Address.IsBurn() {
			sum.Add(sum, balanceOf(h))
		}
	}
	return newAmount(sum, totalSupply)
}

// HolderCounts compares the explorer's reported holder count with the size
// of the walked snapshot. The snapshot is short when the page budget ran out.
type HolderCounts struct {
	Reported int64 `json:"reported"`
	Snapshot int   `json:"snapshot"`
	NonZero  int   `json:"nonZero"`
	Complete bool  `json:"complete"`
}

// CountHolders builds HolderCounts.
func CountHolders(holders []entity.Holder, reported int64) HolderCounts {
	res := HolderCounts{Reported: reported, Snapshot: len(holders)}
	for _, h := range holders {
		if balanceOf(h).Sign() > 0 {
			res.NonZero++
		}
	}
	res.Complete = reported <= int64(len(holders))
	return res
}
