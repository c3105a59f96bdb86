package analytics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

func sub(id string, kind catalog.Kind, team, date string, payload any) store.Submission {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return store.Submission{ID: id, BaseID: "b1", TeamID: team, Kind: kind, ReferenceDate: date, Payload: raw}
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := Build("nope", nil, catalog.Default(), nil)
	require.ErrorIs(t, err, catalog.ErrUnknownKind)
}

func TestBuildFitnessDrill(t *testing.T) {
	subs := []store.Submission{
		sub("1", catalog.KindFitnessTest, "t1", "2025-03-04", map[string]any{
			"avaliados": []map[string]any{
				{"nome": "Ana", "idade": 30, "tempo": "02:00", "status": "Aprovado"},
				{"nome": "Bia", "idade": 41, "tempo": "04:00", "status": "Reprovado"},
			},
		}),
		sub("2", catalog.KindFitnessTest, "t2", "2025-04-10", map[string]any{
			"avaliados": []map[string]any{
				{"nome": "Caio", "idade": 25, "tempo": "03:00", "status": "Aprovado"},
			},
		}),
		sub("3", catalog.KindTraining, "t1", "2025-03-04", map[string]any{}),
		sub("4", catalog.KindFitnessTest, "t1", "not-a-date", map[string]any{}),
	}

	r, err := Build(catalog.KindFitnessTest, subs, catalog.Default(), map[string]string{"t1": "Alfa", "t2": "Bravo"})
	require.NoError(t, err)

	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, []Point{{"2025-03", 1}, {"2025-04", 1}}, r.Volume)

	require.NotNil(t, r.Drill)
	d := r.Drill
	assert.Equal(t, 3, d.Evaluated)
	assert.Equal(t, 2, d.Approved)
	assert.Equal(t, 1, d.Failed)
	assert.Equal(t, "02:00", d.MinTime)
	assert.Equal(t, "03:00", d.MeanTime)
	assert.Equal(t, "03:00", d.MedianTime)
	assert.Equal(t, "04:00", d.MaxTime)
	assert.Equal(t, []Point{{"2025-03", 180}, {"2025-04", 180}}, d.MonthlyMean)
	assert.Equal(t, []Point{{"Alfa", 180}, {"Bravo", 180}}, d.TeamMean)
}

func TestBuildAeronauticalOccurrences(t *testing.T) {
	subs := []store.Submission{
		sub("1", catalog.KindAeronauticalOccurrence, "t1", "2025-03-01", map[string]any{
			"tipo_ocorrencia": "Pouso de emergência", "acao": "Posicionamento", "local": "Pista",
			"hora_acionamento": "10:00", "tempo_chegada_1_cci": "02:10", "tempo_chegada_ult_cci": "03:00",
			"termino_ocorrencia": "10:30",
		}),
		sub("2", catalog.KindAeronauticalOccurrence, "t1", "2025-03-09", map[string]any{
			"tipo_ocorrencia": "Pouso de emergência", "acao": "Intervenção", "local": "Pista",
			"hora_acionamento": "23:30", "tempo_chegada_1_cci": "01:50", "tempo_chegada_ult_cci": "03:40",
			"termino_ocorrencia": "00:30",
		}),
		sub("3", catalog.KindAeronauticalOccurrence, "t1", "2025-04-02", map[string]any{
			"tipo_ocorrencia": "Fumaça", "acao": "Posicionamento", "local": "Pátio",
			"hora_acionamento": "08:00", "tempo_chegada_1_cci": "01:00", "tempo_chegada_ult_cci": "01:30",
			"termino_ocorrencia": "08:00",
		}),
	}

	r, err := Build(catalog.KindAeronauticalOccurrence, subs, catalog.Default(), nil)
	require.NoError(t, err)
	require.NotNil(t, r.Occurrences)

	o := r.Occurrences
	assert.Equal(t, 3, o.Count)
	assert.Equal(t, "02:10", o.SlowestFirstArrival)
	assert.Equal(t, "03:40", o.SlowestLastArrival)
	assert.Equal(t, 1.5, o.TotalHours)
	assert.Equal(t, []Point{{"Pista", 2}, {"Pátio", 1}}, o.ByLocation)
	assert.Equal(t, []Point{{"2025-03", 2}, {"2025-04", 1}}, o.Monthly)
}

func TestBuildOtherOccurrencesTopTypes(t *testing.T) {
	var subs []store.Submission
	types := []string{"A", "B", "B", "C", "D", "E", "F", "F", "F"}
	for i, typ := range types {
		subs = append(subs, sub(string(rune('a'+i)), catalog.KindOtherOccurrence, "t1", "2025-05-02", map[string]any{
			"tipo_ocorrencia": typ, "local": "Terminal",
			"hora_acionamento": "10:00", "hora_chegada": "10:05", "hora_termino": "10:20",
		}))
	}

	r, err := Build(catalog.KindOtherOccurrence, subs, catalog.Default(), nil)
	require.NoError(t, err)
	o := r.Occurrences
	require.NotNil(t, o)
	assert.Equal(t, 9, o.Count)
	assert.Len(t, o.TopTypes, 5)
	assert.Equal(t, Point{"F", 3}, o.TopTypes[0])
	assert.Equal(t, Point{"B", 2}, o.TopTypes[1])
	assert.Equal(t, 3.0, o.TotalHours)
}

func TestBuildResponseTime(t *testing.T) {
	subs := []store.Submission{
		sub("1", catalog.KindResponseTime, "t1", "2025-06-03", map[string]any{
			"afericoes": []map[string]any{
				{"viatura": "CCI-01", "motorista": "João", "local": "Cabeceira 09", "tempo": "01:40"},
				{"viatura": "CCI-02", "motorista": "Rui", "local": "Cabeceira 27", "tempo": "02:20"},
			},
		}),
		sub("2", catalog.KindResponseTime, "t2", "2025-06-20", map[string]any{
			"afericoes": []map[string]any{
				{"viatura": "CCI-03", "motorista": "Léo", "local": "Pátio", "tempo": "01:10"},
			},
		}),
	}

	r, err := Build(catalog.KindResponseTime, subs, catalog.Default(), nil)
	require.NoError(t, err)
	require.NotNil(t, r.Response)

	want := &ResponseStats{
		Count:    3,
		Fastest:  &Measurement{Date: "2025-06-20", Time: "01:10", Seconds: 70, Vehicle: "CCI-03", Driver: "Léo", Location: "Pátio"},
		Slowest:  &Measurement{Date: "2025-06-03", Time: "02:20", Seconds: 140, Vehicle: "CCI-02", Driver: "Rui", Location: "Cabeceira 27"},
		MeanTime: "01:43",
	}
	if diff := cmp.Diff(want, r.Response); diff != "" {
		t.Errorf("response stats mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTrainingHours(t *testing.T) {
	subs := []store.Submission{
		sub("1", catalog.KindTraining, "t1", "2025-03-01", map[string]any{
			"participantes": []map[string]any{{"nome": "Ana", "horas": "01:30"}, {"nome": "Bia", "horas": "01:00"}},
		}),
		sub("2", catalog.KindTraining, "t1", "2025-04-01", map[string]any{
			"participantes": []map[string]any{{"nome": "Ana", "horas": "00:45"}},
		}),
	}
	r, err := Build(catalog.KindTraining, subs, catalog.Default(), nil)
	require.NoError(t, err)
	require.NotNil(t, r.Training)
	assert.Equal(t, 3.3, r.Training.TotalHours)
	assert.Equal(t, []Point{{"2025-03", 2.5}, {"2025-04", 0.8}}, r.Training.Monthly)
}

func TestBuildStockCoverage(t *testing.T) {
	subs := []store.Submission{
		sub("1", catalog.KindStock, "t1", "2025-03-01", map[string]any{
			"po_quimico_atual": 50, "po_quimico_exigido": 100,
		}),
		sub("2", catalog.KindStock, "t1", "2025-04-01", map[string]any{
			"po_quimico_atual": 100, "po_quimico_exigido": 100,
			"lge_atual": 30, "lge_exigido": 60,
		}),
		{ID: "bad", Kind: catalog.KindStock, ReferenceDate: "2025-04-02", Payload: json.RawMessage(`[`)},
	}
	r, err := Build(catalog.KindStock, subs, catalog.Default(), nil)
	require.NoError(t, err)
	require.NotNil(t, r.Stock)
	assert.Equal(t, 1, r.Skipped)

	require.Len(t, r.Stock.Agents, 2)
	assert.Equal(t, AgentCoverage{Agent: "LGE", MeanCoverage: 50, LatestDate: "2025-04-01", Current: 30, Required: 60}, r.Stock.Agents[0])
	assert.Equal(t, AgentCoverage{Agent: "Pó Químico", MeanCoverage: 75, LatestDate: "2025-04-01", Current: 100, Required: 100}, r.Stock.Agents[1])
}

func TestBoardChartRendersBases(t *testing.T) {
	board := compliance.Board{
		Today: calendar.MustParse("2025-03-10"),
		Month: calendar.MustParse("2025-03-01").MonthOf(),
		Bases: []compliance.BaseComplianceStatus{
			{Base: compliance.Base{ID: "b1", Name: "GOIÂNIA"}, Monthly: compliance.MonthlyResult{CompliantCount: 7, MissingKinds: []string{"Estoque", "TP/EPR"}}},
			{Base: compliance.Base{ID: "b2", Name: "BRASÍLIA"}, Monthly: compliance.MonthlyResult{CompliantCount: 9}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, BoardChart(&buf, board))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "GOIÂNIA")
	assert.Contains(t, html, "Aderência mensal 2025-03")
}

func TestReportChartRendersKindSeries(t *testing.T) {
	r := Report{
		Kind:        catalog.KindFitnessTest,
		DisplayName: "TAF",
		Volume:      []Point{{"2025-03", 2}},
		Drill:       &DrillStats{MonthlyMean: []Point{{"2025-03", 150}}, TeamMean: []Point{{"Alfa", 150}}},
	}
	var buf bytes.Buffer
	require.NoError(t, ReportChart(&buf, r))
	assert.Contains(t, buf.String(), "Tempo médio por equipe")
}
