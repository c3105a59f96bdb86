package indicator

import (
	"fmt"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// ExamResult is one person's theory exam grade.
type ExamResult struct {
	Name   string  `json:"nome"`
	Grade  float64 `json:"nota"`
	Status string  `json:"status,omitempty"`
}

// TheoryExam is a monthly theory exam session.
type TheoryExam struct {
	Evaluated []ExamResult `json:"avaliados"`
}

func (*TheoryExam) Kind() catalog.Kind { return catalog.KindTheoryExam }
func (*TheoryExam) isPayload()         {}

func (e *TheoryExam) Summary() string {
	if len(e.Evaluated) == 0 {
		return "Prova Teórica registrada"
	}
	return plural(len(e.Evaluated), "avaliado", "avaliados")
}

func (e *TheoryExam) normalize() error {
	for i := range e.Evaluated {
		e.Evaluated[i].Status = TheoryExamStatus(e.Evaluated[i].Grade)
	}
	return nil
}

// Inspection counts the checks made on one vehicle.
type Inspection struct {
	Vehicle       string `json:"viatura"`
	Inspections   int    `json:"qtd_inspecoes"`
	NonConforming int    `json:"qtd_nao_conforme"`
}

// VehicleInspection is the monthly vehicle inspection report.
type VehicleInspection struct {
	Inspections []Inspection `json:"inspecoes"`
}

func (*VehicleInspection) Kind() catalog.Kind { return catalog.KindVehicleInspection }
func (*VehicleInspection) isPayload()         {}

func (v *VehicleInspection) Summary() string {
	if len(v.Inspections) == 0 {
		return "Inspeção registrada"
	}
	return plural(len(v.Inspections), "viatura", "viaturas")
}

func (v *VehicleInspection) normalize() error {
	for _, in := range v.Inspections {
		if in.NonConforming > in.Inspections {
			return fmt.Errorf("%w: %s has more non-conformities than inspections", ErrInvalidPayload, in.Vehicle)
		}
	}
	return nil
}

// TimedMaxMinutes bounds TP/EPR and response time measurements.
const TimedMaxMinutes = 4

// GearResult is one person's TP/EPR donning time.
type GearResult struct {
	Name   string `json:"nome"`
	Time   string `json:"tempo"`
	Status string `json:"status,omitempty"`
}

// Seconds returns the donning time in seconds.
func (r GearResult) Seconds() int {
	s, _ := ParseMMSS(r.Time, TimedMaxMinutes)
	return s
}

// BreathingGearTime is the monthly TP/EPR donning drill.
type BreathingGearTime struct {
	Evaluated []GearResult `json:"avaliados"`
}

func (*BreathingGearTime) Kind() catalog.Kind { return catalog.KindBreathingGearTime }
func (*BreathingGearTime) isPayload()         {}

func (b *BreathingGearTime) Summary() string {
	if len(b.Evaluated) == 0 {
		return "Tempo TP/EPR registrado"
	}
	return plural(len(b.Evaluated), "avaliado", "avaliados")
}

func (b *BreathingGearTime) normalize() error {
	for i := range b.Evaluated {
		secs, err := ParseMMSS(b.Evaluated[i].Time, TimedMaxMinutes)
		if err != nil {
			return err
		}
		b.Evaluated[i].Status = BreathingGearStatus(secs)
	}
	return nil
}

// ResponseMeasurement is one timed response drill.
type ResponseMeasurement struct {
	Vehicle  string `json:"viatura"`
	Driver   string `json:"motorista"`
	Location string `json:"local"`
	Time     string `json:"tempo"`
}

// Seconds returns the measured time in seconds.
func (m ResponseMeasurement) Seconds() int {
	s, _ := ParseMMSS(m.Time, TimedMaxMinutes)
	return s
}

// ResponseTime is the monthly response time report.
type ResponseTime struct {
	Measurements []ResponseMeasurement `json:"afericoes"`
}

func (*ResponseTime) Kind() catalog.Kind { return catalog.KindResponseTime }
func (*ResponseTime) isPayload()         {}

func (r *ResponseTime) Summary() string {
	if len(r.Measurements) == 0 {
		return "Tempo Resposta registrado"
	}
	return plural(len(r.Measurements), "aferição", "aferições")
}

func (r *ResponseTime) normalize() error {
	for _, m := range r.Measurements {
		if _, err := ParseMMSS(m.Time, TimedMaxMinutes); err != nil {
			return err
		}
	}
	return nil
}

// Stock is the monthly extinguishing agent stock count.
type Stock struct {
	PowderCurrent    *float64 `json:"po_quimico_atual,omitempty"`
	PowderRequired   *float64 `json:"po_quimico_exigido,omitempty"`
	FoamCurrent      *float64 `json:"lge_atual,omitempty"`
	FoamRequired     *float64 `json:"lge_exigido,omitempty"`
	NitrogenCurrent  *float64 `json:"nitrogenio_atual,omitempty"`
	NitrogenRequired *float64 `json:"nitrogenio_exigido,omitempty"`
}

func (*Stock) Kind() catalog.Kind { return catalog.KindStock }
func (*Stock) isPayload()         {}

// StockLine is one agent's current and required quantities.
type StockLine struct {
	Agent    string  `json:"agent"`
	Current  float64 `json:"current"`
	Required float64 `json:"required"`
	Coverage float64 `json:"coverage_pct"`
}

// Lines returns the agents that carry a value.
func (s *Stock) Lines() []StockLine {
	var out []StockLine
	add := func(agent string, cur, req *float64) {
		if cur == nil && req == nil {
			return
		}
		l := StockLine{Agent: agent}
		if cur != nil {
			l.Current = *cur
		}
		if req != nil {
			l.Required = *req
		}
		l.Coverage = Percent(l.Current, l.Required)
		out = append(out, l)
	}
	add("Pó Químico", s.PowderCurrent, s.PowderRequired)
	add("LGE", s.FoamCurrent, s.FoamRequired)
	add("Nitrogênio", s.NitrogenCurrent, s.NitrogenRequired)
	return out
}

func (s *Stock) Summary() string {
	lines := s.Lines()
	if len(lines) == 0 {
		return "Estoque registrado"
	}
	if len(lines) > 2 {
		lines = lines[:2]
	}
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s: %g/%g", l.Agent, l.Current, l.Required))
	}
	return strings.Join(parts, ", ")
}

// GearExchanges counts breathing gear exchanges in the month.
type GearExchanges struct {
	Exchanges *int `json:"qtd_trocas,omitempty"`
}

func (*GearExchanges) Kind() catalog.Kind { return catalog.KindGearExchanges }
func (*GearExchanges) isPayload()         {}

func (g *GearExchanges) Summary() string {
	if g.Exchanges == nil {
		return "Controle de Trocas registrado"
	}
	return plural(*g.Exchanges, "troca", "trocas")
}

// GearCheck is the monthly breathing gear verification.
type GearCheck struct {
	Conforming int `json:"qtd_conformes"`
	Checked    int `json:"qtd_verificados"`
	TeamTotal  int `json:"qtd_total_equipe"`
}

func (*GearCheck) Kind() catalog.Kind { return catalog.KindGearCheck }
func (*GearCheck) isPayload()         {}

func (g *GearCheck) Summary() string {
	return fmt.Sprintf("%d/%d conformes", g.Conforming, g.Checked)
}

func (g *GearCheck) normalize() error {
	if g.Conforming > g.Checked {
		return fmt.Errorf("%w: more conforming than verified", ErrInvalidPayload)
	}
	return nil
}

// GearSanitization is the monthly breathing gear sanitization count.
type GearSanitization struct {
	Sanitized int `json:"qtd_higienizados_mes"`
	Total     int `json:"qtd_total_sci"`
}

func (*GearSanitization) Kind() catalog.Kind { return catalog.KindGearSanitization }
func (*GearSanitization) isPayload()         {}

func (g *GearSanitization) Summary() string {
	return fmt.Sprintf("%d higienizados no mês", g.Sanitized)
}

// PPEEntry is one collaborator's PPE and uniform delivery.
type PPEEntry struct {
	Name             string  `json:"nome"`
	PPEDelivered     float64 `json:"epi_entregue"`
	PPEPlanned       float64 `json:"epi_previsto"`
	UniformDelivered float64 `json:"unif_entregue"`
	UniformPlanned   float64 `json:"unif_previsto"`
	PPEPercent       float64 `json:"total_epi_pct"`
	UniformPercent   float64 `json:"total_unif_pct"`
}

// PPEControl is the monthly PPE delivery report.
type PPEControl struct {
	Collaborators []PPEEntry `json:"colaboradores"`
}

func (*PPEControl) Kind() catalog.Kind { return catalog.KindPPEControl }
func (*PPEControl) isPayload()         {}

func (p *PPEControl) Summary() string {
	if len(p.Collaborators) == 0 {
		return "Controle EPI registrado"
	}
	return plural(len(p.Collaborators), "colaborador", "colaboradores")
}

func (p *PPEControl) normalize() error {
	for i := range p.Collaborators {
		c := &p.Collaborators[i]
		c.PPEPercent = Percent(c.PPEDelivered, c.PPEPlanned)
		c.UniformPercent = Percent(c.UniformDelivered, c.UniformPlanned)
	}
	return nil
}
