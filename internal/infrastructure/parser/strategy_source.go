package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/scanner"
)

// StrategySource implements EntrySource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []domain.Source
	logger   *slog.Logger
}

var _ ports.EntrySource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  toDomainSources(sources),
		logger:   log,
	}
}

// Sources returns the configured sources in declaration order.
func (s *StrategySource) Sources() []domain.Source {
	out := make([]domain.Source, len(s.sources))
	copy(out, s.sources)
	return out
}

// Fetch executes the scanner registered for source.
func (s *StrategySource) Fetch(ctx context.Context, source domain.Source, limit int) ([]domain.Entry, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(source.Scanner)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name, err)
	}

	s.debug("fetch source", "source", source.Name, "scanner", source.Scanner, "limit", limit)

	entries, err := strategy.Scan(ctx, scanner.Request{Source: source, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", source.Name, err)
	}

	for i := range entries {
		if entries[i].SourceName == "" {
			entries[i].SourceName = source.Name
		}
	}
	s.debug("source produced entries", "source", source.Name, "count", len(entries))
	return entries, nil
}

func toDomainSources(cfg []config.SourceConfig) []domain.Source {
	sources := make([]domain.Source, 0, len(cfg))
	for _, src := range cfg {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			name = src.Target
		}
		sources = append(sources, domain.Source{
			Name:    name,
			Scanner: strings.ToLower(strings.TrimSpace(src.Scanner)),
			Target:  strings.TrimSpace(src.Target),
			Options: src.Options,
		})
	}
	return sources
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
