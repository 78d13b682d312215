package entity

// NetworkDefinition describes one chain served by an explorer API and the
// DEX Screener chain slug used for pair lookups.
type NetworkDefinition struct {
	ChainID            uint64 `json:"chainId" yaml:"chainId"`
	Name               string `json:"name" yaml:"name"`
	Identifier         string `json:"identifier" yaml:"identifier"` // e.g. "ethereum", "pulsechain"
	ExplorerAPIURL     string `json:"explorerApiUrl" yaml:"explorerApiUrl"`
	BlockExplorerURL   string `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	DEXScreenerChainID string `json:"dexScreenerChainId" yaml:"dexScreenerChainId"`
}
