package analytics

import (
	"math/big"
	"sort"

	"tokenstats/internal/domain/entity"
)

// Gini computes the Gini coefficient of values:
//
//	G = Σ((2(i+1) - n - 1) * v[i]) / (n * Σv)   with v sorted ascending.
//
// It returns 0 for fewer than two values or a zero sum. Negative and nil
// values count as 0. The sum runs in big.Int and only the final ratio is
// converted to float64.
func Gini(values []*big.Int) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sorted := make([]*big.Int, n)
	for i, v := range values {
		if v == nil || v.Sign() < 0 {
			sorted[i] = zero
			continue
		}
		sorted[i] = v
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	sum := new(big.Int)
	num := new(big.Int)
	weight := new(big.Int)
	term := new(big.Int)
	for i, v := range sorted {
		sum.Add(sum, v)
		weight.SetInt64(int64(2*(i+1) - n - 1))
		num.Add(num, term.Mul(weight, v))
	}
	if sum.Sign() == 0 {
		return 0
	}

	den := new(big.Int).Mul(big.NewInt(int64(n)), sum)
	g, _ := new(big.Rat).SetFrac(num, den).Float64()
	switch {
	case g < 0:
		return 0
	case g > 1:
		return 1
	}
	return g
}

// HolderGini is Gini over holder balances.
func HolderGini(holders []entity.Holder) float64 {
	values := make([]*big.Int, len(holders))
	for i, h := range holders {
		values[i] = h.Balance
	}
	return Gini(values)
}
