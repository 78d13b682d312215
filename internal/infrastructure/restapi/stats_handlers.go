package restapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"tokenstats/internal/app/port"
	"tokenstats/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// CacheInvalidator drops cached data for one token or for all of them.
type CacheInvalidator interface {
	Invalidate(token entity.TokenAddress) int
	Flush() int
}

// Backend is the stat stack of one network.
type Backend struct {
	Network entity.NetworkDefinition
	Stats   port.StatService
	Cache   CacheInvalidator
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NetworksResponse lists the served networks.
type NetworksResponse struct {
	Default  string                     `json:"default"`
	Networks []entity.NetworkDefinition `json:"networks"`
}

// StatListResponse lists the registered stats.
type StatListResponse struct {
	Stats []entity.StatConfig `json:"stats"`
}

// TokenStatsResponse carries every stat computed for a token.
type TokenStatsResponse struct {
	Token   entity.TokenAddress `json:"token"`
	Network string              `json:"network"`
	Results []entity.StatResult `json:"results"`
}

// InvalidateResponse reports how many cache slots were dropped.
type InvalidateResponse struct {
	Token   entity.TokenAddress `json:"token"`
	Network string              `json:"network"`
	Removed int                 `json:"removed"`
}

// FlushResponse reports how many cache slots a full flush dropped.
type FlushResponse struct {
	Network string `json:"network"`
	Removed int    `json:"removed"`
}

// StatsHandler serves the stat endpoints. The network is picked with the
// optional ?network= query parameter.
type StatsHandler struct {
	backends       map[string]Backend
	defaultNetwork string
	logger         port.Logger
}

// NewStatsHandler creates a StatsHandler. defaultNetwork must be a key of backends.
func NewStatsHandler(backends map[string]Backend, defaultNetwork string, l port.Logger) *StatsHandler {
	return &StatsHandler{
		backends:       backends,
		defaultNetwork: defaultNetwork,
		logger:         l,
	}
}

func (h *StatsHandler) backend(c *gin.Context) (Backend, string, bool) {
	network := strings.ToLower(strings.TrimSpace(c.Query("network")))
	if network == "" {
		network = h.defaultNetwork
	}
	b, ok := h.backends[network]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown network: " + network})
		return Backend{}, "", false
	}
	return b, network, true
}

func tokenParam(c *gin.Context) (entity.TokenAddress, bool) {
	token, err := entity.ParseTokenAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", false
	}
	return token, true
}

// ListNetworksHandler handles GET /api/v1/networks.
func (h *StatsHandler) ListNetworksHandler(c *gin.Context) {
	ids := make([]string, 0, len(h.backends))
	for id := range h.backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resp := NetworksResponse{Default: h.defaultNetwork, Networks: make([]entity.NetworkDefinition, 0, len(ids))}
	for _, id := range ids {
		resp.Networks = append(resp.Networks, h.backends[id].Network)
	}
	c.JSON(http.StatusOK, resp)
}

// ListStatsHandler handles GET /api/v1/stats.
func (h *StatsHandler) ListStatsHandler(c *gin.Context) {
	b, _, ok := h.backend(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, StatListResponse{Stats: b.Stats.List()})
}

// ComputeAllHandler handles GET /api/v1/tokens/:address/stats.
func (h *StatsHandler) ComputeAllHandler(c *gin.Context) {
	token, ok := tokenParam(c)
	if !ok {
		return
	}
	b, network, ok := h.backend(c)
	if !ok {
		return
	}
	h.logger.Debug("Computing all stats", "token", token, "network", network)
	results := b.Stats.ComputeAll(c.Request.Context(), token)
	c.JSON(http.StatusOK, TokenStatsResponse{Token: token, Network: network, Results: results})
}

// ComputeHandler handles GET /api/v1/tokens/:address/stats/:id.
func (h *StatsHandler) ComputeHandler(c *gin.Context) {
	token, ok := tokenParam(c)
	if !ok {
		return
	}
	b, network, ok := h.backend(c)
	if !ok {
		return
	}
	id := c.Param("id")
	result, err := b.Stats.Compute(c.Request.Context(), id, token)
	if err != nil {
		var unknown *entity.UnknownStatError
		if errors.As(err, &unknown) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("Stat computation failed", "id", id, "token", token, "network", network, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// InvalidateHandler handles DELETE /api/v1/tokens/:address/cache.
func (h *StatsHandler) InvalidateHandler(c *gin.Context) {
	token, ok := tokenParam(c)
	if !ok {
		return
	}
	b, network, ok := h.backend(c)
	if !ok {
		return
	}
	removed := 0
	if b.Cache != nil {
		removed = b.Cache.Invalidate(token)
	}
	c.JSON(http.StatusOK, InvalidateResponse{Token: token, Network: network, Removed: removed})
}

// FlushHandler handles DELETE /api/v1/cache.
func (h *StatsHandler) FlushHandler(c *gin.Context) {
	b, network, ok := h.backend(c)
	if !ok {
		return
	}
	removed := 0
	if b.Cache != nil {
		removed = b.Cache.Flush()
	}
	h.logger.Info("Cache flushed", "network", network, "slots", removed)
	c.JSON(http.StatusOK, FlushResponse{Network: network, Removed: removed})
}
