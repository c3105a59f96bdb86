// Package catalog holds the fixed set of indicator definitions and their
// reporting cadence groups.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Group is the reporting cadence of an indicator.
type Group string

const (
	// GroupDaily indicators are expected every day.
	GroupDaily Group = "A"
	// GroupEvent indicators are reported when something happens.
	GroupEvent Group = "B"
	// GroupMonthly indicators are required once per calendar month.
	GroupMonthly Group = "C"
)

// Valid reports whether g is one of the known groups.
func (g Group) Valid() bool {
	switch g {
	case GroupDaily, GroupEvent, GroupMonthly:
		return true
	}
	return false
}

// Kind is the stable symbolic key of an indicator.
type Kind string

// Known indicator kinds.
const (
	KindAccessoryActivities    Kind = "atividades_acessorias"
	KindTraining               Kind = "treinamento"
	KindAeronauticalOccurrence Kind = "ocorrencia_aero"
	KindOtherOccurrence        Kind = "ocorrencia_nao_aero"
	KindFitnessTest            Kind = "taf"
	KindTheoryExam             Kind = "prova_teorica"
	KindVehicleInspection      Kind = "inspecao_viaturas"
	KindBreathingGearTime      Kind = "tempo_tp_epr"
	KindResponseTime           Kind = "tempo_resposta"
	KindStock                  Kind = "estoque"
	KindGearExchanges          Kind = "controle_trocas"
	KindGearCheck              Kind = "verificacao_tp"
	KindGearSanitization       Kind = "higienizacao_tp"
	KindPPEControl             Kind = "controle_epi"
)

var (
	// ErrUnknownKind means a kind has no catalog entry. It signals a
	// configuration bug and must never be swallowed.
	ErrUnknownKind = errors.New("unknown indicator kind")
	// ErrInvalidCatalog is returned when catalog definitions are inconsistent.
	ErrInvalidCatalog = errors.New("invalid indicator catalog")
)

// Definition describes one report type.
type Definition struct {
	ID          string `yaml:"id" json:"id"`
	Kind        Kind   `yaml:"kind" json:"kind"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Group       Group  `yaml:"group" json:"group"`
}

// Catalog is an immutable, validated set of definitions.
type Catalog struct {
	defs    []Definition
	byKind  map[Kind]Definition
	byID    map[string]Definition
	monthly []Kind
}

// New validates defs and builds a Catalog. Every definition must carry a
// unique id, a unique kind and exactly one valid group.
func New(defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no definitions", ErrInvalidCatalog)
	}
	c := &Catalog{
		defs:   make([]Definition, 0, len(defs)),
		byKind: make(map[Kind]Definition, len(defs)),
		byID:   make(map[string]Definition, len(defs)),
	}
	for i, d := range defs {
		switch {
		case d.ID == "":
			return nil, fmt.Errorf("%w: definition %d has no id", ErrInvalidCatalog, i)
		case d.Kind == "":
			return nil, fmt.Errorf("%w: definition %s has no kind", ErrInvalidCatalog, d.ID)
		case !d.Group.Valid():
			return nil, fmt.Errorf("%w: kind %s has group %q", ErrInvalidCatalog, d.Kind, d.Group)
		}
		if _, dup := c.byKind[d.Kind]; dup {
			return nil, fmt.Errorf("%w: duplicate kind %s", ErrInvalidCatalog, d.Kind)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidCatalog, d.ID)
		}
		if d.DisplayName == "" {
			d.DisplayName = string(d.Kind)
		}
		c.defs = append(c.defs, d)
		c.byKind[d.Kind] = d
		c.byID[d.ID] = d
		if d.Group == GroupMonthly {
			c.monthly = append(c.monthly, d.Kind)
		}
	}
	return c, nil
}

type document struct {
	Indicators []Definition `yaml:"indicators"`
}

// Parse reads a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Indicators)
}

//go:embed catalog.yaml
var defaultYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("built-in catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// GroupOf returns the cadence group of kind.
func (c *Catalog) GroupOf(kind Kind) (Group, error) {
	d, ok := c.byKind[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return d.Group, nil
}

// MonthlyRequiredKinds returns the group C kinds in catalog order.
func (c *Catalog) MonthlyRequiredKinds() []Kind {
	return append([]Kind(nil), c.monthly...)
}

// KindsIn returns the kinds of group g in catalog order.
func (c *Catalog) KindsIn(g Group) []Kind {
	var out []Kind
	for _, d := range c.defs {
		if d.Group == g {
			out = append(out, d.Kind)
		}
	}
	return out
}

// Lookup returns the definition of kind.
func (c *Catalog) Lookup(kind Kind) (Definition, error) {
	d, ok := c.byKind[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return d, nil
}

// DisplayName returns the human label of kind, or the kind itself when unknown.
func (c *Catalog) DisplayName(kind Kind) string {
	if d, ok := c.byKind[kind]; ok {
		return d.DisplayName
	}
	return string(kind)
}

// Definitions returns all definitions in catalog order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}
