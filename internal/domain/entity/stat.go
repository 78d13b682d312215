package entity

import (
	"math"
	"strconv"
	"time"
)

// OutputFormat tells renderers how to display a stat's value.
type OutputFormat string

const (
	FormatPercent OutputFormat = "percent"
	FormatNumber  OutputFormat = "number"
	FormatRatio   OutputFormat = "ratio"
	FormatAmount  OutputFormat = "amount"
	FormatObject  OutputFormat = "object"
	FormatTable   OutputFormat = "table"
)

// StatConfig describes a registered stat.
type StatConfig struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Format      OutputFormat `json:"format"`
}

// StatResult is the uniform output of every stat. Value is nil when Error is set.
type StatResult struct {
	ID         string    `json:"id"`
	Value      any       `json:"value"`
	Display    string    `json:"display"`
	ComputedAt time.Time `json:"computedAt"`
	Source     string    `json:"source"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the stat could not be computed.
func (r StatResult) Failed() bool {
	return r.Error != ""
}

// SafeFloat is a float64 that survives JSON encoding: infinities become the
// strings "Infinity"/"-Infinity" and NaN becomes null.
type SafeFloat float64

// InfiniteFloat is the sentinel for an unbounded ratio such as slippage
// against an empty pool.
var InfiniteFloat = SafeFloat(math.Inf(1))

// IsInf reports whether f is positive or negative infinity.
func (f SafeFloat) IsInf() bool {
	return math.IsInf(float64(f), 0)
}

// MarshalJSON implements json.Marshaler.
func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Format formats f with the given number of decimals, rendering infinities as
// "∞" for display strings.
func (f SafeFloat) Format(decimals int) string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
