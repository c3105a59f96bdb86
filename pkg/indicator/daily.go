package indicator

import (
	"fmt"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// UnplannedActivity is the activity type whose counters are optional.
const UnplannedActivity = "atividade não prevista"

// AccessoryActivity is a daily log of a support activity.
type AccessoryActivity struct {
	ActivityType string `json:"tipo_atividade"`
	Equipment    *int   `json:"qtd_equipamentos,omitempty"`
	Firefighters *int   `json:"qtd_bombeiros,omitempty"`
	TimeSpent    string `json:"tempo_gasto,omitempty"`
}

func (*AccessoryActivity) Kind() catalog.Kind { return catalog.KindAccessoryActivities }
func (*AccessoryActivity) isPayload()         {}

func (a *AccessoryActivity) Summary() string {
	if a.ActivityType == "" {
		return "Atividade registrada"
	}
	return "Tipo: " + a.ActivityType
}

func (a *AccessoryActivity) normalize() error {
	if a.TimeSpent == "" {
		return nil
	}
	_, err := ParseDurationHHMM(a.TimeSpent)
	return err
}

// TrainingParticipant is one person's training time.
type TrainingParticipant struct {
	Name  string `json:"nome"`
	Hours string `json:"horas"`
}

// Training logs the daily PTR-BA training hours.
type Training struct {
	Participants []TrainingParticipant `json:"participantes"`
}

func (*Training) Kind() catalog.Kind { return catalog.KindTraining }
func (*Training) isPayload()         {}

// TotalMinutes sums the participants' hours.
func (t *Training) TotalMinutes() int {
	total := 0
	for _, p := range t.Participants {
		if m, err := ParseDurationHHMM(p.Hours); err == nil {
			total += m
		}
	}
	return total
}

func (t *Training) Summary() string {
	if len(t.Participants) == 0 {
		return "Treinamento registrado"
	}
	return fmt.Sprintf("%s - %s", plural(len(t.Participants), "participante", "participantes"), FormatHHMM(t.TotalMinutes()))
}

func (t *Training) normalize() error {
	for _, p := range t.Participants {
		if _, err := ParseDurationHHMM(p.Hours); err != nil {
			return err
		}
	}
	return nil
}
