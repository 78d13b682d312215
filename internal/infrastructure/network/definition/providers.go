package networkdefinition

import (
	"fmt"
	"strings"

	"tokenstats/internal/app/port"
	"tokenstats/internal/domain/entity"
)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger            port.Logger
	allNetworkDefs    map[string]entity.NetworkDefinition
	activeNetworkDefs []entity.NetworkDefinition
}

// Predefined network definitions. Every entry has a Blockscout v2 API.
var ( //nolint:gochecknoglobals // Global for definitions
	PulseChain = entity.NetworkDefinition{
		ChainID:            369,
		Name:               "PulseChain",
		Identifier:         "pulsechain",
		ExplorerAPIURL:     "https://api.scan.pulsechain.com/api/v2",
		BlockExplorerURL:   "https://scan.pulsechain.com",
		DEXScreenerChainID: "pulsechain",
	}
	Ethereum = entity.NetworkDefinition{
		ChainID:            1,
		Name:               "Ethereum Mainnet",
		Identifier:         "ethereum",
		ExplorerAPIURL:     "https://eth.blockscout.com/api/v2",
		BlockExplorerURL:   "https://eth.blockscout.com",
		DEXScreenerChainID: "ethereum",
	}
	Base = entity.NetworkDefinition{
		ChainID:            8453,
		Name:               "Base Mainnet",
		Identifier:         "base",
		ExplorerAPIURL:     "https://base.blockscout.com/api/v2",
		BlockExplorerURL:   "https://base.blockscout.com",
		DEXScreenerChainID: "base",
	}
	Optimism = entity.NetworkDefinition{
		ChainID:            10,
		Name:               "Optimism",
		Identifier:         "optimism",
		ExplorerAPIURL:     "https://optimism.blockscout.com/api/v2",
		BlockExplorerURL:   "https://optimism.blockscout.com",
		DEXScreenerChainID: "optimism",
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:            42161,
		Name:               "Arbitrum One",
		Identifier:         "arbitrum",
		ExplorerAPIURL:     "https://arbitrum.blockscout.com/api/v2",
		BlockExplorerURL:   "https://arbitrum.blockscout.com",
		DEXScreenerChainID: "arbitrum",
	}
	Gnosis = entity.NetworkDefinition{
		ChainID:            100,
		Name:               "Gnosis Chain",
		Identifier:         "gnosis",
		ExplorerAPIURL:     "https://gnosis.blockscout.com/api/v2",
		BlockExplorerURL:   "https://gnosis.blockscout.com",
		DEXScreenerChainID: "gnosischain",
	}
	Polygon = entity.NetworkDefinition{
		ChainID:            137,
		Name:               "Polygon PoS",
		Identifier:         "polygon",
		ExplorerAPIURL:     "https://polygon.blockscout.com/api/v2",
		BlockExplorerURL:   "https://polygon.blockscout.com",
		DEXScreenerChainID: "polygon",
	}
	Scroll = entity.NetworkDefinition{
		ChainID:            534352,
		Name:               "Scroll",
		Identifier:         "scroll",
		ExplorerAPIURL:     "https://scroll.blockscout.com/api/v2",
		BlockExplorerURL:   "https://scroll.blockscout.com",
		DEXScreenerChainID: "scroll",
	}
)

var allKnownDefinitions = map[string]entity.NetworkDefinition{ //nolint:gochecknoglobals // Global for definitions
	PulseChain.Identifier: PulseChain,
	Ethereum.Identifier:   Ethereum,
	Base.Identifier:       Base,
	Optimism.Identifier:   Optimism,
	Arbitrum.Identifier:   Arbitrum,
	Gnosis.Identifier:     Gnosis,
	Polygon.Identifier:    Polygon,
	Scroll.Identifier:     Scroll,
}

// KnownDefinition returns the built-in definition for identifier.
func KnownDefinition(identifier string) (entity.NetworkDefinition, bool) {
	def, ok := allKnownDefinitions[strings.ToLower(identifier)]
	return def, ok
}

// NewNetworkDefinitionProvider creates a provider whose active networks are
// the configured ones, in order. A configured entry that names a built-in
// identifier inherits every field it leaves empty. With nothing configured
// PulseChain is the only active network.
func NewNetworkDefinitionProvider(log port.Logger, configured []entity.NetworkDefinition) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger:            log,
		allNetworkDefs:    allKnownDefinitions,
		activeNetworkDefs: make([]entity.NetworkDefinition, 0, len(configured)),
	}

	activeIdentifiers := make(map[string]struct{})
	for _, def := range configured {
		identifier := strings.ToLower(strings.TrimSpace(def.Identifier))
		if identifier == "" {
			p.logger.Warn("Network entry without identifier. Skipping.", "name", def.Name)
			continue
		}
		if _, alreadyActive := activeIdentifiers[identifier]; alreadyActive {
			p.logger.Warn(fmt.Sprintf("Duplicate network identifier detected: %s. Skipping.", identifier))
			continue
		}

		def.Identifier = identifier
		if known, ok := p.allNetworkDefs[identifier]; ok {
			def = mergeDefinition(known, def)
		}
		if def.ExplorerAPIURL == "" {
			p.logger.Warn(fmt.Sprintf("Network '%s' has no explorer API URL and no built-in definition. Skipping.", identifier))
			continue
		}

		p.activeNetworkDefs = append(p.activeNetworkDefs, def)
		activeIdentifiers[identifier] = struct{}{}
	}

	if len(p.activeNetworkDefs) == 0 {
		p.logger.Warn("No usable networks configured, falling back to PulseChain")
		p.activeNetworkDefs = append(p.activeNetworkDefs, PulseChain)
	}

	p.logger.Info(fmt.Sprintf("NetworkDefinitionProvider initialized. Active networks: %d", len(p.activeNetworkDefs)))
	for _, netDef := range p.activeNetworkDefs {
		p.logger.Debug(fmt.Sprintf("  - Active network: %s (ID: %s, ChainID: %d, DEXScreenerID: %s)", netDef.Name, netDef.Identifier, netDef.ChainID, netDef.DEXScreenerChainID))
	}
	return p
}

func mergeDefinition(known, override entity.NetworkDefinition) entity.NetworkDefinition {
	merged := known
	if override.ChainID != 0 {
		merged.ChainID = override.ChainID
	}
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.ExplorerAPIURL != "" {
		merged.ExplorerAPIURL = override.ExplorerAPIURL
	}
	if override.BlockExplorerURL != "" {
		merged.BlockExplorerURL = override.BlockExplorerURL
	}
	if override.DEXScreenerChainID != "" {
		merged.DEXScreenerChainID = override.DEXScreenerChainID
	}
	return merged
}

// GetAllNetworkDefinitions returns the list of active network definitions.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.activeNetworkDefs))
	copy(defsCopy, p.activeNetworkDefs)
	return defsCopy
}

// GetNetworkDefinitionByName returns an active network by identifier or display name.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(nameOrIdentifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if strings.EqualFold(def.Identifier, nameOrIdentifier) || strings.EqualFold(def.Name, nameOrIdentifier) {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// GetNetworkDefinitionByChainID returns an active network by its chain ID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// Default returns the first active network.
func (p *NetworkDefinitionProvider) Default() entity.NetworkDefinition {
	if p == nil || len(p.activeNetworkDefs) == 0 {
		return PulseChain
	}
	return p.activeNetworkDefs[0]
}

var _ port.NetworkDefinitionProvider = (*NetworkDefinitionProvider)(nil)
