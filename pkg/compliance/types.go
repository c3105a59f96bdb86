// Package compliance classifies how well each operating base keeps up with
// its reporting cadence.
//
// Evaluate is a pure function over its inputs. Evaluator wraps it with the
// clock, logging and tracing needed by the HTTP and CLI surfaces.
package compliance

import (
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// DailyStatus is the classification of one daily indicator.
type DailyStatus string

const (
	DailyOK      DailyStatus = "ok"
	DailyPending DailyStatus = "pending"
	DailyLate    DailyStatus = "late"
)

// MonthStatus is the derived status of the monthly group.
type MonthStatus string

const (
	MonthCompliant    MonthStatus = "compliant"
	MonthPending      MonthStatus = "pending"
	MonthNonCompliant MonthStatus = "non-compliant"
)

// PendingWindowDays is the age, in calendar days, below which a missing
// daily report is still pending rather than late.
const PendingWindowDays = 2

// Base is an operating location.
type Base struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Submission is the part of a report the classifier looks at.
// ReferenceDate is kept as received so malformed values can be reported.
type Submission struct {
	ID            string       `json:"id"`
	BaseID        string       `json:"base_id"`
	UserID        string       `json:"user_id,omitempty"`
	Kind          catalog.Kind `json:"kind"`
	ReferenceDate string       `json:"reference_date"`
}

// DailyResult is the status of one group A kind. Status is ok with a
// report for today, pending with one for yesterday, late otherwise. A kind
// whose latest report is dated after today, with none for today or
// yesterday, is pending. LastDate is the latest reference date seen, which
// may be in the future.
type DailyResult struct {
	Kind        catalog.Kind   `json:"kind"`
	DisplayName string         `json:"display_name"`
	Status      DailyStatus    `json:"status"`
	LastDate    *calendar.Date `json:"last_date,omitempty"`
}

// MonthlyResult summarises group C for the target month.
type MonthlyResult struct {
	Month          calendar.Month `json:"month"`
	Closed         bool           `json:"closed"`
	Required       int            `json:"required"`
	CompliantCount int            `json:"compliant_count"`
	MissingKinds   []string       `json:"missing_kinds"`
	Status         MonthStatus    `json:"status"`
}

// EventResult summarises group B.
type EventResult struct {
	LastOccurrence *calendar.Date `json:"last_occurrence,omitempty"`
}

// Exclusion records a submission left out of the evaluation.
type Exclusion struct {
	SubmissionID  string `json:"submission_id"`
	ReferenceDate string `json:"reference_date"`
	Reason        string `json:"reason"`
}

// BaseComplianceStatus is the derived status of one base. It is recomputed
// on every evaluation and never persisted.
type BaseComplianceStatus struct {
	Base     Base          `json:"base"`
	Today    calendar.Date `json:"today"`
	Daily    []DailyResult `json:"daily"`
	Monthly  MonthlyResult `json:"monthly"`
	Events   EventResult   `json:"events"`
	Excluded []Exclusion   `json:"excluded,omitempty"`
}

// AllDailyOK reports whether every group A kind is ok.
func (s BaseComplianceStatus) AllDailyOK() bool {
	for _, d := range s.Daily {
		if d.Status != DailyOK {
			return false
		}
	}
	return true
}
