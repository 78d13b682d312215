package entity

// WatchlistEntry is one token the checker computes stats for.
type WatchlistEntry struct {
	Address TokenAddress `json:"address"`
	Network string       `json:"network,omitempty"`
	Label   string       `json:"label,omitempty"`
}
