// Package analytics aggregates submissions of one indicator kind into the
// KPIs shown on the manager dashboards.
package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/indicator"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

// Point is one labelled value of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Report is the analytics of one kind over a filtered set of submissions.
type Report struct {
	Kind        catalog.Kind `json:"kind"`
	DisplayName string       `json:"display_name"`
	Total       int          `json:"total"`
	Skipped     int          `json:"skipped"`
	Volume      []Point      `json:"volume"`

	Occurrences *OccurrenceStats `json:"occurrences,omitempty"`
	Drill       *DrillStats      `json:"drill,omitempty"`
	Response    *ResponseStats   `json:"response,omitempty"`
	Training    *TrainingStats   `json:"training,omitempty"`
	Stock       *StockStats      `json:"stock,omitempty"`
}

// OccurrenceStats covers aeronautical and other occurrences.
type OccurrenceStats struct {
	Count               int     `json:"count"`
	SlowestFirstArrival string  `json:"slowest_first_arrival,omitempty"`
	SlowestLastArrival  string  `json:"slowest_last_arrival,omitempty"`
	TotalHours          float64 `json:"total_hours"`
	Monthly             []Point `json:"monthly"`
	ByLocation          []Point `json:"by_location"`
	TopTypes            []Point `json:"top_types,omitempty"`
}

// DrillStats covers timed drills (TAF and TP/EPR).
type DrillStats struct {
	Evaluated   int     `json:"evaluated"`
	MinTime     string  `json:"min_time"`
	MeanTime    string  `json:"mean_time"`
	MedianTime  string  `json:"median_time"`
	MaxTime     string  `json:"max_time"`
	Approved    int     `json:"approved"`
	Failed      int     `json:"failed"`
	MonthlyMean []Point `json:"monthly_mean_seconds"`
	TeamMean    []Point `json:"team_mean_seconds"`
}

// Measurement is one response time reading.
type Measurement struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Seconds  int    `json:"seconds"`
	Vehicle  string `json:"vehicle"`
	Driver   string `json:"driver"`
	Location string `json:"location"`
}

// ResponseStats covers response time measurements.
type ResponseStats struct {
	Count    int          `json:"count"`
	Fastest  *Measurement `json:"fastest,omitempty"`
	Slowest  *Measurement `json:"slowest,omitempty"`
	MeanTime string       `json:"mean_time,omitempty"`
}

// TrainingStats covers daily training hours.
type TrainingStats struct {
	TotalHours float64 `json:"total_hours"`
	Monthly    []Point `json:"monthly_hours"`
}

// AgentCoverage is the stock coverage of one extinguishing agent.
type AgentCoverage struct {
	Agent        string  `json:"agent"`
	MeanCoverage float64 `json:"mean_coverage_pct"`
	LatestDate   string  `json:"latest_date"`
	Current      float64 `json:"current"`
	Required     float64 `json:"required"`
}

// StockStats covers stock control.
type StockStats struct {
	Agents []AgentCoverage `json:"agents"`
}

// Build computes the report of kind. Submissions of other kinds are ignored;
// undecodable payloads are counted in Skipped. teams maps team ids to names.
func Build(kind catalog.Kind, subs []store.Submission, cat *catalog.Catalog, teams map[string]string) (Report, error) {
	def, err := cat.Lookup(kind)
	if err != nil {
		return Report{}, err
	}

	r := Report{Kind: kind, DisplayName: def.DisplayName}
	volume := newSeries()
	var decoded []decodedSubmission
	for _, s := range subs {
		if s.Kind != kind {
			continue
		}
		d, err := calendar.Parse(s.ReferenceDate)
		if err != nil {
			r.Skipped++
			continue
		}
		r.Total++
		volume.add(d.MonthOf().String(), 1)
		decoded = append(decoded, decodedSubmission{sub: s, date: d})
	}
	r.Volume = volume.points()

	switch kind {
	case catalog.KindAeronauticalOccurrence:
		r.Occurrences, r.Skipped = aeronautical(decoded, r.Skipped)
	case catalog.KindOtherOccurrence:
		r.Occurrences, r.Skipped = otherOccurrences(decoded, r.Skipped)
	case catalog.KindFitnessTest, catalog.KindBreathingGearTime:
		r.Drill, r.Skipped = drills(kind, decoded, teams, r.Skipped)
	case catalog.KindResponseTime:
		r.Response, r.Skipped = responses(decoded, r.Skipped)
	case catalog.KindTraining:
		r.Training, r.Skipped = training(decoded, r.Skipped)
	case catalog.KindStock:
		r.Stock, r.Skipped = stock(decoded, r.Skipped)
	}
	return r, nil
}

type decodedSubmission struct {
	sub  store.Submission
	date calendar.Date
}

func decode[T any](d decodedSubmission) (*T, error) {
	var v T
	if err := json.Unmarshal(d.sub.Payload, &v); err != nil {
		return nil, fmt.Errorf("submission %s: %w", d.sub.ID, err)
	}
	return &v, nil
}

func aeronautical(subs []decodedSubmission, skipped int) (*OccurrenceStats, int) {
	st := &OccurrenceStats{}
	monthly, locations := newSeries(), newSeries()
	var minutes, slowestFirst, slowestLast int
	for _, d := range subs {
		o, err := decode[indicator.AeronauticalOccurrence](d)
		if err != nil {
			skipped++
			continue
		}
		st.Count++
		monthly.add(d.date.MonthOf().String(), 1)
		locations.add(o.Location, 1)
		minutes += o.DurationMinutes()
		slowestFirst = max(slowestFirst, o.FirstArrivalSeconds())
		slowestLast = max(slowestLast, o.LastArrivalSeconds())
	}
	if st.Count > 0 {
		st.SlowestFirstArrival = indicator.FormatMMSS(slowestFirst)
		st.SlowestLastArrival = indicator.FormatMMSS(slowestLast)
	}
	st.TotalHours = hours(minutes)
	st.Monthly = monthly.points()
	st.ByLocation = locations.ranked(0)
	return st, skipped
}

func otherOccurrences(subs []decodedSubmission, skipped int) (*OccurrenceStats, int) {
	st := &OccurrenceStats{}
	monthly, locations, types := newSeries(), newSeries(), newSeries()
	var minutes int
	for _, d := range subs {
		o, err := decode[indicator.OtherOccurrence](d)
		if err != nil {
			skipped++
			continue
		}
		st.Count++
		monthly.add(d.date.MonthOf().String(), 1)
		locations.add(o.Location, 1)
		types.add(o.OccurrenceType, 1)
		minutes += o.DurationMinutes()
	}
	st.TotalHours = hours(minutes)
	st.Monthly = monthly.points()
	st.ByLocation = locations.ranked(0)
	st.TopTypes = types.ranked(5)
	return st, skipped
}

type timedResult struct {
	seconds float64
	status  string
}

func drills(kind catalog.Kind, subs []decodedSubmission, teams map[string]string, skipped int) (*DrillStats, int) {
	st := &DrillStats{}
	var all []float64
	byMonth := map[string][]float64{}
	byTeam := map[string][]float64{}

	for _, d := range subs {
		results, err := timedResults(kind, d)
		if err != nil {
			skipped++
			continue
		}
		month := d.date.MonthOf().String()
		team := d.sub.TeamID
		if name, ok := teams[team]; ok {
			team = name
		}
		for _, res := range results {
			st.Evaluated++
			if res.status == indicator.StatusApproved {
				st.Approved++
			} else {
				st.Failed++
			}
			all = append(all, res.seconds)
			byMonth[month] = append(byMonth[month], res.seconds)
			byTeam[team] = append(byTeam[team], res.seconds)
		}
	}

	if len(all) > 0 {
		sorted := append([]float64(nil), all...)
		sort.Float64s(sorted)
		st.MinTime = indicator.FormatMMSS(int(floats.Min(sorted)))
		st.MaxTime = indicator.FormatMMSS(int(floats.Max(sorted)))
		st.MeanTime = indicator.FormatMMSS(int(math.Round(stat.Mean(sorted, nil))))
		st.MedianTime = indicator.FormatMMSS(int(stat.Quantile(0.5, stat.Empirical, sorted, nil)))
	}
	st.MonthlyMean = means(byMonth, false)
	st.TeamMean = means(byTeam, true)
	return st, skipped
}

func timedResults(kind catalog.Kind, d decodedSubmission) ([]timedResult, error) {
	var out []timedResult
	switch kind {
	case catalog.KindFitnessTest:
		t, err := decode[indicator.FitnessTest](d)
		if err != nil {
			return nil, err
		}
		for _, e := range t.Evaluated {
			out = append(out, timedResult{seconds: float64(e.Seconds()), status: e.Status})
		}
	default:
		t, err := decode[indicator.BreathingGearTime](d)
		if err != nil {
			return nil, err
		}
		for _, e := range t.Evaluated {
			out = append(out, timedResult{seconds: float64(e.Seconds()), status: e.Status})
		}
	}
	return out, nil
}

func responses(subs []decodedSubmission, skipped int) (*ResponseStats, int) {
	st := &ResponseStats{}
	var secs []float64
	for _, d := range subs {
		r, err := decode[indicator.ResponseTime](d)
		if err != nil {
			skipped++
			continue
		}
		for _, m := range r.Measurements {
			cur := &Measurement{
				Date:     d.date.String(),
				Time:     m.Time,
				Seconds:  m.Seconds(),
				Vehicle:  m.Vehicle,
				Driver:   m.Driver,
				Location: m.Location,
			}
			st.Count++
			secs = append(secs, float64(cur.Seconds))
			if st.Fastest == nil || cur.Seconds < st.Fastest.Seconds {
				st.Fastest = cur
			}
			if st.Slowest == nil || cur.Seconds > st.Slowest.Seconds {
				st.Slowest = cur
			}
		}
	}
	if len(secs) > 0 {
		st.MeanTime = indicator.FormatMMSS(int(math.Round(stat.Mean(secs, nil))))
	}
	return st, skipped
}

func training(subs []decodedSubmission, skipped int) (*TrainingStats, int) {
	monthly := newSeries()
	var total int
	for _, d := range subs {
		t, err := decode[indicator.Training](d)
		if err != nil {
			skipped++
			continue
		}
		m := t.TotalMinutes()
		total += m
		monthly.add(d.date.MonthOf().String(), float64(m))
	}
	points := monthly.points()
	for i := range points {
		points[i].Value = hours(int(points[i].Value))
	}
	return &TrainingStats{TotalHours: hours(total), Monthly: points}, skipped
}

func stock(subs []decodedSubmission, skipped int) (*StockStats, int) {
	coverage := map[string][]float64{}
	latest := map[string]AgentCoverage{}
	var order []string

	for _, d := range subs {
		s, err := decode[indicator.Stock](d)
		if err != nil {
			skipped++
			continue
		}
		for _, line := range s.Lines() {
			if _, ok := coverage[line.Agent]; !ok {
				order = append(order, line.Agent)
			}
			coverage[line.Agent] = append(coverage[line.Agent], line.Coverage)
			prev, ok := latest[line.Agent]
			if !ok || d.date.String() >= prev.LatestDate {
				latest[line.Agent] = AgentCoverage{
					Agent:      line.Agent,
					LatestDate: d.date.String(),
					Current:    line.Current,
					Required:   line.Required,
				}
			}
		}
	}

	sort.Strings(order)
	st := &StockStats{Agents: make([]AgentCoverage, 0, len(order))}
	for _, agent := range order {
		a := latest[agent]
		a.MeanCoverage = round1(stat.Mean(coverage[agent], nil))
		st.Agents = append(st.Agents, a)
	}
	return st, skipped
}

func hours(minutes int) float64 {
	return round1(float64(minutes) / 60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func means(groups map[string][]float64, byValue bool) []Point {
	out := make([]Point, 0, len(groups))
	for label, vals := range groups {
		out = append(out, Point{Label: label, Value: round1(stat.Mean(vals, nil))})
	}
	sort.Slice(out, func(i, j int) bool {
		if byValue && out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// series accumulates values per label.
type series struct {
	values map[string]float64
}

func newSeries() *series {
	return &series{values: map[string]float64{}}
}

func (s *series) add(label string, v float64) {
	if label == "" {
		label = "Não informado"
	}
	s.values[label] += v
}

// points returns the series ordered by label.
func (s *series) points() []Point {
	out := make([]Point, 0, len(s.values))
	for l, v := range s.values {
		out = append(out, Point{Label: l, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// ranked returns the largest n values (all when n is 0), ties by label.
func (s *series) ranked(n int) []Point {
	out := s.points()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
