// Package analytics holds the pure functions behind every token stat.
//
// Balances and transfer values are raw on-chain integers. Ranking and every
// comparison is done on *big.Int; conversion to float64 only happens for the
// final percentage.
package analytics
