package port

import "tokenstats/internal/domain/entity"

// NetworkDefinitionProvider resolves the configured networks.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all configured network definitions.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByName returns a network by identifier or name.
	GetNetworkDefinitionByName(nameOrIdentifier string) (entity.NetworkDefinition, bool)

	// Default returns the network used when a request names none.
	Default() entity.NetworkDefinition
}
