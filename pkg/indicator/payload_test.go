package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

func TestCheckCatalog_Default(t *testing.T) {
	require.NoError(t, CheckCatalog(catalog.Default()))
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode("relatorio_x", []byte(`{}`))
	require.ErrorIs(t, err, catalog.ErrUnknownKind)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode(catalog.KindGearExchanges, []byte(`{"qtd_trocas":`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecode_AccessoryActivity(t *testing.T) {
	t.Run("planned activity requires counters", func(t *testing.T) {
		_, err := Decode(catalog.KindAccessoryActivities, []byte(`{"tipo_atividade":"Inspeção de pista"}`))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("unplanned activity may omit counters", func(t *testing.T) {
		p, err := Decode(catalog.KindAccessoryActivities, []byte(`{"tipo_atividade":"atividade não prevista"}`))
		require.NoError(t, err)
		assert.Equal(t, "Tipo: atividade não prevista", p.Summary())
	})

	t.Run("complete planned activity", func(t *testing.T) {
		raw := `{"tipo_atividade":"Inspeção de fauna","qtd_equipamentos":2,"qtd_bombeiros":3,"tempo_gasto":"01:30"}`
		p, err := Decode(catalog.KindAccessoryActivities, []byte(raw))
		require.NoError(t, err)
		a := p.(*AccessoryActivity)
		require.NotNil(t, a.Firefighters)
		assert.Equal(t, 3, *a.Firefighters)
	})

	t.Run("zero firefighters rejected", func(t *testing.T) {
		raw := `{"tipo_atividade":"Inspeção de fauna","qtd_equipamentos":2,"qtd_bombeiros":0,"tempo_gasto":"01:30"}`
		_, err := Decode(catalog.KindAccessoryActivities, []byte(raw))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("unknown activity type rejected", func(t *testing.T) {
		_, err := Decode(catalog.KindAccessoryActivities, []byte(`{"tipo_atividade":"Lavagem"}`))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestDecode_TrainingRequiresParticipants(t *testing.T) {
	_, err := Decode(catalog.KindTraining, []byte(`{"participantes":[]}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	p, err := Decode(catalog.KindTraining, []byte(`{"participantes":[{"nome":"Ana","horas":"01:30"},{"nome":"Bia","horas":"00:45"}]}`))
	require.NoError(t, err)
	tr := p.(*Training)
	assert.Equal(t, 135, tr.TotalMinutes())
	assert.Equal(t, "2 participantes - 02:15", tr.Summary())
}

func TestDecode_FitnessTestScoring(t *testing.T) {
	raw := `{"avaliados":[
		{"nome":"Ana","idade":30,"tempo":"02:00"},
		{"nome":"Bia","idade":45,"tempo":"04:30"},
		{"nome":"Caio","idade":40,"tempo":"03:20"}
	]}`
	p, err := Decode(catalog.KindFitnessTest, []byte(raw))
	require.NoError(t, err)
	f := p.(*FitnessTest)
	require.Len(t, f.Evaluated, 3)

	assert.Equal(t, StatusApproved, f.Evaluated[0].Status)
	require.NotNil(t, f.Evaluated[0].Grade)
	assert.Equal(t, 10, *f.Evaluated[0].Grade)

	assert.Equal(t, StatusFailed, f.Evaluated[1].Status)
	assert.Nil(t, f.Evaluated[1].Grade)

	assert.Equal(t, StatusApproved, f.Evaluated[2].Status)
	require.NotNil(t, f.Evaluated[2].Grade)
	assert.Equal(t, 9, *f.Evaluated[2].Grade)
}

func TestDecode_FitnessTestRejectsSlowTiming(t *testing.T) {
	_, err := Decode(catalog.KindFitnessTest, []byte(`{"avaliados":[{"nome":"Ana","idade":30,"tempo":"05:00"}]}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecode_AeronauticalOccurrence(t *testing.T) {
	raw := `{"tipo_ocorrencia":"Emergência aeronáutica","acao":"Intervenção","local":"Cabeceira 14",
		"hora_acionamento":"23:40","tempo_chegada_1_cci":"02:10","tempo_chegada_ult_cci":"03:05","termino_ocorrencia":"00:25"}`
	p, err := Decode(catalog.KindAeronauticalOccurrence, []byte(raw))
	require.NoError(t, err)
	o := p.(*AeronauticalOccurrence)
	assert.Equal(t, 45, o.DurationMinutes())
	assert.Equal(t, 130, o.FirstArrivalSeconds())
	assert.Equal(t, "Local: Cabeceira 14", o.Summary())

	_, err = Decode(catalog.KindAeronauticalOccurrence, []byte(`{"tipo_ocorrencia":"Outro","acao":"Intervenção","local":"x",
		"hora_acionamento":"10:00","tempo_chegada_1_cci":"02:10","tempo_chegada_ult_cci":"03:05","termino_ocorrencia":"11:00"}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNormalize_OtherOccurrenceFillsDuration(t *testing.T) {
	raw := `{"tipo_ocorrencia":"Incêndios Florestais","local":"Pátio","hora_acionamento":"10:00","hora_chegada":"10:05","hora_termino":"11:20"}`
	p, out, err := Normalize(catalog.KindOtherOccurrence, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "01:20", p.(*OtherOccurrence).TotalDuration)
	assert.Contains(t, string(out), `"duracao_total":"01:20"`)
}

func TestNormalize_DropsUnknownFields(t *testing.T) {
	_, out, err := Normalize(catalog.KindGearExchanges, []byte(`{"qtd_trocas":3,"extra":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"qtd_trocas":3}`, string(out))
}

func TestDecode_PPEControlPercentages(t *testing.T) {
	raw := `{"colaboradores":[{"nome":"Ana","epi_entregue":3,"epi_previsto":4,"unif_entregue":1,"unif_previsto":0}]}`
	p, err := Decode(catalog.KindPPEControl, []byte(raw))
	require.NoError(t, err)
	c := p.(*PPEControl).Collaborators[0]
	assert.Equal(t, 75.0, c.PPEPercent)
	assert.Equal(t, 0.0, c.UniformPercent)
}

func TestDecode_MonthlyCounts(t *testing.T) {
	_, err := Decode(catalog.KindGearCheck, []byte(`{"qtd_conformes":5,"qtd_verificados":4,"qtd_total_equipe":6}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode(catalog.KindGearCheck, []byte(`{"qtd_conformes":1,"qtd_verificados":4}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	p, err := Decode(catalog.KindGearSanitization, []byte(`{"qtd_higienizados_mes":12,"qtd_total_sci":20}`))
	require.NoError(t, err)
	assert.Equal(t, "12 higienizados no mês", p.Summary())

	p, err = Decode(catalog.KindStock, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Estoque registrado", p.Summary())

	_, err = Decode(catalog.KindStock, []byte(`{"lge_atual":-1}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecode_TimedDrills(t *testing.T) {
	p, err := Decode(catalog.KindBreathingGearTime, []byte(`{"avaliados":[{"nome":"Ana","tempo":"00:59"},{"nome":"Bia","tempo":"01:00"}]}`))
	require.NoError(t, err)
	b := p.(*BreathingGearTime)
	assert.Equal(t, StatusApproved, b.Evaluated[0].Status)
	assert.Equal(t, StatusFailed, b.Evaluated[1].Status)

	_, err = Decode(catalog.KindResponseTime, []byte(`{"afericoes":[{"viatura":"CCI 07","motorista":"Rui","local":"Pista","tempo":"01:10"}]}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	p, err = Decode(catalog.KindResponseTime, []byte(`{"afericoes":[{"viatura":"CCI RT 01","motorista":"Rui","local":"Pista","tempo":"01:10"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 70, p.(*ResponseTime).Measurements[0].Seconds())
}

func TestDecode_TheoryExam(t *testing.T) {
	p, err := Decode(catalog.KindTheoryExam, []byte(`{"avaliados":[{"nome":"Ana","nota":8},{"nome":"Bia","nota":7.9}]}`))
	require.NoError(t, err)
	e := p.(*TheoryExam)
	assert.Equal(t, StatusApproved, e.Evaluated[0].Status)
	assert.Equal(t, StatusFailed, e.Evaluated[1].Status)

	_, err = Decode(catalog.KindTheoryExam, []byte(`{"avaliados":[{"nome":"Ana","nota":10.5}]}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestSummaryOf_Lenient(t *testing.T) {
	assert.Equal(t, "Lançamento registrado", SummaryOf("relatorio_x", nil))
	assert.Equal(t, "Sem informações", SummaryOf(catalog.KindTraining, []byte(`not json`)))
	assert.Equal(t, "1 troca", SummaryOf(catalog.KindGearExchanges, []byte(`{"qtd_trocas":1}`)))
}

func TestHash_CanonicalForm(t *testing.T) {
	a, err := Hash([]byte(`{"b":1,"a":"x"}`))
	require.NoError(t, err)
	b, err := Hash([]byte("{ \"a\" : \"x\",\n \"b\" : 1 }"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "sha256:")

	_, err = Hash([]byte(`{`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidate_NumbersAgainstSchema(t *testing.T) {
	require.NoError(t, Validate(catalog.KindGearExchanges, []byte(`{"qtd_trocas":12}`)))

	err := Validate(catalog.KindGearExchanges, []byte(`{"qtd_trocas":1.5}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	err = Validate(catalog.KindGearExchanges, []byte(`{"qtd_trocas":-1}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	err = Validate(catalog.KindGearExchanges, []byte(`{"qtd_trocas":`))
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "malformed JSON")
}
