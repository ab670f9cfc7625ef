// Package store defines the domain catalog shared by the storage adapters.
package store

import (
	"fmt"
	"sort"

	"go.ngs.io/forecast-api/internal/domain"
)

// DomainConfig describes where the files of one domain live.
type DomainConfig struct {
	Model     string
	Domain    domain.Domain
	Priority  int    // Lower is coarser.
	DtSeconds int    // Native time step.
	Directory string // Relative to the data directory.
}

// DomainCatalog resolves models to the domains they are mixed from.
type DomainCatalog interface {
	// Models returns the model names in alphabetical order.
	Models() []string

	// DomainsForModel returns the domains of a model ordered coarse to fine.
	DomainsForModel(model string) ([]domain.Domain, bool)

	// DomainConfig returns the configuration of a domain.
	DomainConfig(d domain.Domain) (DomainConfig, bool)
}

// Catalog is an in-memory DomainCatalog.
type Catalog struct {
	models  map[string][]domain.Domain
	domains map[domain.Domain]DomainConfig
}

// NewCatalog groups entries by model. A domain may belong to several models as
// long as every entry agrees on its time step and directory.
func NewCatalog(entries []DomainConfig) (*Catalog, error) {
	byModel := make(map[string][]DomainConfig)
	domains := make(map[domain.Domain]DomainConfig)

	for _, e := range entries {
		if e.Model == "" || e.Domain == "" {
			return nil, fmt.Errorf("catalog entry requires model and domain: %+v", e)
		}
		if e.DtSeconds <= 0 {
			return nil, fmt.Errorf("domain %s: time step must be positive, got %d", e.Domain, e.DtSeconds)
		}
		for _, other := range byModel[e.Model] {
			if other.Domain == e.Domain {
				return nil, fmt.Errorf("domain %s listed twice for model %s", e.Domain, e.Model)
			}
		}
		if prev, ok := domains[e.Domain]; ok {
			if prev.DtSeconds != e.DtSeconds || prev.Directory != e.Directory {
				return nil, fmt.Errorf("domain %s configured inconsistently for models %s and %s", e.Domain, prev.Model, e.Model)
			}
		} else {
			domains[e.Domain] = e
		}
		byModel[e.Model] = append(byModel[e.Model], e)
	}

	models := make(map[string][]domain.Domain, len(byModel))
	for model, list := range byModel {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
		ordered := make([]domain.Domain, len(list))
		for i, e := range list {
			ordered[i] = e.Domain
		}
		models[model] = ordered
	}

	return &Catalog{models: models, domains: domains}, nil
}

// Models implements DomainCatalog.
func (c *Catalog) Models() []string {
	out := make([]string, 0, len(c.models))
	for m := range c.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// DomainsForModel implements DomainCatalog.
func (c *Catalog) DomainsForModel(model string) ([]domain.Domain, bool) {
	list, ok := c.models[model]
	if !ok {
		return nil, false
	}
	out := make([]domain.Domain, len(list))
	copy(out, list)
	return out, true
}

// DomainConfig implements DomainCatalog.
func (c *Catalog) DomainConfig(d domain.Domain) (DomainConfig, bool) {
	cfg, ok := c.domains[d]
	return cfg, ok
}

// Domains returns the configuration of every distinct domain sorted by name.
func (c *Catalog) Domains() []DomainConfig {
	out := make([]DomainConfig, 0, len(c.domains))
	for _, cfg := range c.domains {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}
