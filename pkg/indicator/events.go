package indicator

import (
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// ArrivalMaxMinutes bounds the arrival times of an aeronautical occurrence.
const ArrivalMaxMinutes = 59

// AeronauticalOccurrence logs an aircraft emergency response.
type AeronauticalOccurrence struct {
	OccurrenceType string `json:"tipo_ocorrencia"`
	Action         string `json:"acao"`
	Location       string `json:"local"`
	DispatchTime   string `json:"hora_acionamento"`
	FirstArrival   string `json:"tempo_chegada_1_cci"`
	LastArrival    string `json:"tempo_chegada_ult_cci"`
	EndTime        string `json:"termino_ocorrencia"`
}

func (*AeronauticalOccurrence) Kind() catalog.Kind { return catalog.KindAeronauticalOccurrence }
func (*AeronauticalOccurrence) isPayload()         {}

func (o *AeronauticalOccurrence) Summary() string {
	return occurrenceSummary(o.Location, o.OccurrenceType)
}

// DurationMinutes is the time from dispatch to the end of the occurrence.
func (o *AeronauticalOccurrence) DurationMinutes() int {
	m, err := Elapsed(o.DispatchTime, o.EndTime)
	if err != nil {
		return 0
	}
	return m
}

// FirstArrivalSeconds returns the first vehicle's arrival time.
func (o *AeronauticalOccurrence) FirstArrivalSeconds() int {
	s, _ := ParseMMSS(o.FirstArrival, ArrivalMaxMinutes)
	return s
}

// LastArrivalSeconds returns the last vehicle's arrival time.
func (o *AeronauticalOccurrence) LastArrivalSeconds() int {
	s, _ := ParseMMSS(o.LastArrival, ArrivalMaxMinutes)
	return s
}

func (o *AeronauticalOccurrence) normalize() error {
	if _, err := Elapsed(o.DispatchTime, o.EndTime); err != nil {
		return err
	}
	if _, err := ParseMMSS(o.FirstArrival, ArrivalMaxMinutes); err != nil {
		return err
	}
	_, err := ParseMMSS(o.LastArrival, ArrivalMaxMinutes)
	return err
}

// OtherOccurrence logs a non-aeronautical occurrence.
type OtherOccurrence struct {
	OccurrenceType string `json:"tipo_ocorrencia"`
	Location       string `json:"local"`
	DispatchTime   string `json:"hora_acionamento"`
	ArrivalTime    string `json:"hora_chegada"`
	EndTime        string `json:"hora_termino"`
	TotalDuration  string `json:"duracao_total,omitempty"`
	Notes          string `json:"observacoes,omitempty"`
}

func (*OtherOccurrence) Kind() catalog.Kind { return catalog.KindOtherOccurrence }
func (*OtherOccurrence) isPayload()         {}

func (o *OtherOccurrence) Summary() string {
	return occurrenceSummary(o.Location, o.OccurrenceType)
}

// DurationMinutes prefers the recorded total and falls back to the span
// from dispatch to end.
func (o *OtherOccurrence) DurationMinutes() int {
	if m, err := ParseDurationHHMM(o.TotalDuration); err == nil {
		return m
	}
	m, err := Elapsed(o.DispatchTime, o.EndTime)
	if err != nil {
		return 0
	}
	return m
}

func (o *OtherOccurrence) normalize() error {
	elapsed, err := Elapsed(o.DispatchTime, o.EndTime)
	if err != nil {
		return err
	}
	if _, err := ParseHHMM(o.ArrivalTime); err != nil {
		return err
	}
	if o.TotalDuration == "" {
		o.TotalDuration = FormatHHMM(elapsed)
	}
	return nil
}

func occurrenceSummary(location, kind string) string {
	switch {
	case location != "":
		return "Local: " + location
	case kind != "":
		return "Tipo: " + kind
	default:
		return "Ocorrência registrada"
	}
}

// FitnessMaxMinutes bounds a TAF run time.
const FitnessMaxMinutes = 4

// FitnessResult is one person's TAF result.
type FitnessResult struct {
	Name   string `json:"nome"`
	Age    int    `json:"idade"`
	Time   string `json:"tempo"`
	Status string `json:"status,omitempty"`
	Grade  *int   `json:"nota,omitempty"`
}

// Seconds returns the run time in seconds.
func (r FitnessResult) Seconds() int {
	s, _ := ParseMMSS(r.Time, FitnessMaxMinutes)
	return s
}

// FitnessTest is a TAF session.
type FitnessTest struct {
	Evaluated []FitnessResult `json:"avaliados"`
}

func (*FitnessTest) Kind() catalog.Kind { return catalog.KindFitnessTest }
func (*FitnessTest) isPayload()         {}

func (f *FitnessTest) Summary() string {
	if len(f.Evaluated) == 0 {
		return "TAF registrado"
	}
	return plural(len(f.Evaluated), "avaliado", "avaliados")
}

func (f *FitnessTest) normalize() error {
	for i := range f.Evaluated {
		r := &f.Evaluated[i]
		secs, err := ParseMMSS(r.Time, FitnessMaxMinutes)
		if err != nil {
			return err
		}
		grade, status := FitnessScore(r.Age, secs)
		r.Status = status
		if grade > 0 {
			g := grade
			r.Grade = &g
		} else {
			r.Grade = nil
		}
	}
	return nil
}
