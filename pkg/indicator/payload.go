// Package indicator defines the report body of every indicator kind.
//
// Each kind has its own payload type. Decode validates raw JSON against the
// kind's embedded JSON Schema, unmarshals it into that type and fills in the
// derived fields (grades, statuses, percentages, durations).
package indicator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// ErrInvalidPayload is returned when a report body fails validation.
var ErrInvalidPayload = errors.New("invalid indicator payload")

// Payload is the body of one report. The set of implementations is closed.
type Payload interface {
	// Kind returns the indicator kind this payload belongs to.
	Kind() catalog.Kind
	// Summary returns a short description for history listings.
	Summary() string
	isPayload()
}

// normalizer is implemented by payloads with derived fields.
type normalizer interface {
	normalize() error
}

var factories = map[catalog.Kind]func() Payload{
	catalog.KindAccessoryActivities:    func() Payload { return &AccessoryActivity{} },
	catalog.KindTraining:               func() Payload { return &Training{} },
	catalog.KindAeronauticalOccurrence: func() Payload { return &AeronauticalOccurrence{} },
	catalog.KindOtherOccurrence:        func() Payload { return &OtherOccurrence{} },
	catalog.KindFitnessTest:            func() Payload { return &FitnessTest{} },
	catalog.KindTheoryExam:             func() Payload { return &TheoryExam{} },
	catalog.KindVehicleInspection:      func() Payload { return &VehicleInspection{} },
	catalog.KindBreathingGearTime:      func() Payload { return &BreathingGearTime{} },
	catalog.KindResponseTime:           func() Payload { return &ResponseTime{} },
	catalog.KindStock:                  func() Payload { return &Stock{} },
	catalog.KindGearExchanges:          func() Payload { return &GearExchanges{} },
	catalog.KindGearCheck:              func() Payload { return &GearCheck{} },
	catalog.KindGearSanitization:       func() Payload { return &GearSanitization{} },
	catalog.KindPPEControl:             func() Payload { return &PPEControl{} },
}

// Decode validates raw against the schema of kind and returns the typed payload.
func Decode(kind catalog.Kind, raw []byte) (Payload, error) {
	factory, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownKind, kind)
	}
	if err := Validate(kind, raw); err != nil {
		return nil, err
	}
	p := factory()
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, kind, err)
	}
	if n, ok := p.(normalizer); ok {
		if err := n.normalize(); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return p, nil
}

// Encode serialises p into its stored JSON form.
func Encode(p Payload) (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return b, nil
}

// Normalize decodes raw and re-encodes it, so the stored body carries the
// derived fields and drops unknown ones.
func Normalize(kind catalog.Kind, raw []byte) (Payload, json.RawMessage, error) {
	p, err := Decode(kind, raw)
	if err != nil {
		return nil, nil, err
	}
	out, err := Encode(p)
	if err != nil {
		return nil, nil, err
	}
	return p, out, nil
}

// Supports reports whether kind has a payload type.
func Supports(kind catalog.Kind) bool {
	_, ok := factories[kind]
	return ok
}

// CheckCatalog verifies that every kind in cat has a payload type and a schema.
func CheckCatalog(cat *catalog.Catalog) error {
	for _, d := range cat.Definitions() {
		if !Supports(d.Kind) {
			return fmt.Errorf("%w: no payload type for %s", catalog.ErrInvalidCatalog, d.Kind)
		}
		if _, err := schemaFor(d.Kind); err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrInvalidCatalog, err)
		}
	}
	return nil
}

// SummaryOf decodes raw leniently for display. Bodies that no longer
// validate still get a generic summary.
func SummaryOf(kind catalog.Kind, raw []byte) string {
	factory, ok := factories[kind]
	if !ok {
		return "Lançamento registrado"
	}
	p := factory()
	if err := json.Unmarshal(raw, p); err != nil {
		return "Sem informações"
	}
	return p.Summary()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
