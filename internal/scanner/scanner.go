package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ContentCurator/internal/domain"
)

// ErrUnknownScanner is returned by Resolve for unregistered names.
var ErrUnknownScanner = errors.New("scanner is not registered")

// Request carries all parameters required to execute a scan.
type Request struct {
	Source domain.Source
	// Limit is the maximum number of entries to return; 0 means adapter default.
	Limit int
}

// Option returns a source option or fallback when unset.
func (r Request) Option(key, fallback string) string {
	if v, ok := r.Source.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Scanner captures a single fetch strategy (RSS, Reddit, arXiv, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Entry, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScanner, name)
}

// Names lists registered scanners in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
