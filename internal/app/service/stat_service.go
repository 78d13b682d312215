package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"tokenstats/internal/app/port"
	"tokenstats/internal/domain/entity"
	"tokenstats/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// StatFunc computes one stat. It returns the machine value and its display
// string.
type StatFunc func(ctx context.Context, data port.TokenDataProvider, token entity.TokenAddress) (any, string, error)

// StatDefinition is a registered stat.
type StatDefinition struct {
	entity.StatConfig
	Fetch StatFunc
}

// StatServiceConfig tunes a StatService.
type StatServiceConfig struct {
	// Source labels every result, e.g. the explorer host.
	Source string
	// MaxConcurrent bounds ComputeAll; 1 when <= 0.
	MaxConcurrent int
	// Timeout bounds a single stat computation; none when 0.
	Timeout time.Duration
}

// StatServiceImpl implements port.StatService.
type StatServiceImpl struct {
	defs   []StatDefinition
	byID   map[string]StatDefinition
	data   port.TokenDataProvider
	cfg    StatServiceConfig
	logger port.Logger
	now    func() time.Time
}

// NewStatService creates a registry over defs. A later definition with a
// duplicate id replaces the earlier one.
func NewStatService(data port.TokenDataProvider, defs []StatDefinition, cfg StatServiceConfig, l port.Logger) *StatServiceImpl {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	s := &StatServiceImpl{
		byID:   make(map[string]StatDefinition, len(defs)),
		data:   data,
		cfg:    cfg,
		logger: l,
		now:    time.Now,
	}
	for _, def := range defs {
		if _, dup := s.byID[def.ID]; dup {
			l.Warn("Duplicate stat id, replacing earlier definition", "id", def.ID)
			for i := range s.defs {
				if s.defs[i].ID == def.ID {
					s.defs[i] = def
				}
			}
		} else {
			s.defs = append(s.defs, def)
		}
		s.byID[def.ID] = def
	}
	return s
}

// List returns every registered stat in registration order.
func (s *StatServiceImpl) List() []entity.StatConfig {
	out := make([]entity.StatConfig, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def.StatConfig)
	}
	return out
}

// Compute runs the stat id for token. The only error is *entity.UnknownStatError;
// failures of the stat itself are reported in the result.
func (s *StatServiceImpl) Compute(ctx context.Context, id string, token entity.TokenAddress) (entity.StatResult, error) {
	def, ok := s.byID[id]
	if !ok {
		return entity.StatResult{}, &entity.UnknownStatError{ID: id}
	}
	return s.run(ctx, def, token), nil
}

// ComputeAll runs every registered stat for token, at most MaxConcurrent at a
// time. Results follow registration order.
func (s *StatServiceImpl) ComputeAll(ctx context.Context, token entity.TokenAddress) []entity.StatResult {
	results := make([]entity.StatResult, len(s.defs))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxConcurrent)
	for i, def := range s.defs {
		i, def := i, def
		g.Go(func() error {
			results[i] = s.run(ctx, def, token)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	s.logger.Info("Computed all stats", "token", token, "stats", len(results), "failed", failed)
	return results
}

func (s *StatServiceImpl) run(ctx context.Context, def StatDefinition, token entity.TokenAddress) (result entity.StatResult) {
	result = entity.StatResult{
		ID:     def.ID,
		Source: s.cfg.Source,
	}
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Stat panicked", "id", def.ID, "token", token, "panic", r, "stack", string(debug.Stack()))
			result.Value = nil
			result.Display = ""
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
		result.ComputedAt = s.now().UTC()
		outcome := "ok"
		if result.Failed() {
			outcome = "error"
		}
		metrics.StatComputations.WithLabelValues(def.ID, outcome).Inc()
		s.logger.Debug("Stat computed", "id", def.ID, "token", token, "outcome", outcome, "elapsed", time.Since(started).String())
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	value, display, err := def.Fetch(ctx, s.data, token)
	if err != nil {
		s.logger.Warn("Stat failed", "id", def.ID, "token", token, "error", err)
		result.Error = err.Error()
		return result
	}
	result.Value = value
	result.Display = display
	return result
}

var _ port.StatService = (*StatServiceImpl)(nil)
