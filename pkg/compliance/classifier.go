package compliance

import (
	"fmt"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// dailyTrack accumulates what the group A rules need for one kind.
type dailyTrack struct {
	today     bool
	yesterday bool
	latest    calendar.Date
}

// Evaluate classifies base as of today.
//
// submissions may contain records for other bases; they are ignored.
// A record whose reference date does not parse is excluded and listed in
// Excluded. A record whose kind is not in cat aborts the evaluation with an
// error wrapping catalog.ErrUnknownKind.
func Evaluate(
	today calendar.Date,
	base Base,
	submissions []Submission,
	cat *catalog.Catalog,
	target calendar.Month,
	targetClosed bool,
) (BaseComplianceStatus, error) {
	if cat == nil {
		return BaseComplianceStatus{}, fmt.Errorf("compliance: nil catalog")
	}

	yesterday := today.AddDays(-1)
	daily := make(map[catalog.Kind]*dailyTrack)
	monthly := make(map[catalog.Kind]bool)
	var lastEvent calendar.Date
	var excluded []Exclusion

	for _, s := range submissions {
		if s.BaseID != base.ID {
			continue
		}
		group, err := cat.GroupOf(s.Kind)
		if err != nil {
			return BaseComplianceStatus{}, fmt.Errorf("submission %s: %w", s.ID, err)
		}
		ref, err := calendar.Parse(s.ReferenceDate)
		if err != nil {
			excluded = append(excluded, Exclusion{
				SubmissionID:  s.ID,
				ReferenceDate: s.ReferenceDate,
				Reason:        "malformed reference date",
			})
			continue
		}

		switch group {
		case catalog.GroupDaily:
			tr := daily[s.Kind]
			if tr == nil {
				tr = &dailyTrack{}
				daily[s.Kind] = tr
			}
			switch ref {
			case today:
				tr.today = true
			case yesterday:
				tr.yesterday = true
			}
			if tr.latest.IsZero() || ref.After(tr.latest) {
				tr.latest = ref
			}
		case catalog.GroupMonthly:
			if target.Contains(ref) {
				monthly[s.Kind] = true
			}
		case catalog.GroupEvent:
			if lastEvent.IsZero() || ref.After(lastEvent) {
				lastEvent = ref
			}
		}
	}

	out := BaseComplianceStatus{
		Base:     base,
		Today:    today,
		Excluded: excluded,
	}

	for _, kind := range cat.KindsIn(catalog.GroupDaily) {
		res := DailyResult{Kind: kind, DisplayName: cat.DisplayName(kind)}
		tr := daily[kind]
		res.Status = classifyDaily(tr, today)
		if tr != nil {
			last := tr.latest
			res.LastDate = &last
		}
		out.Daily = append(out.Daily, res)
	}

	required := cat.MonthlyRequiredKinds()
	out.Monthly = MonthlyResult{
		Month:        target,
		Closed:       targetClosed,
		Required:     len(required),
		MissingKinds: []string{},
	}
	for _, kind := range required {
		if monthly[kind] {
			out.Monthly.CompliantCount++
			continue
		}
		out.Monthly.MissingKinds = append(out.Monthly.MissingKinds, cat.DisplayName(kind))
	}
	out.Monthly.Status = DeriveMonthStatus(out.Monthly.CompliantCount, out.Monthly.Required, targetClosed)

	if !lastEvent.IsZero() {
		out.Events.LastOccurrence = &lastEvent
	}
	return out, nil
}

func classifyDaily(tr *dailyTrack, today calendar.Date) DailyStatus {
	switch {
	case tr == nil:
		return DailyLate
	case tr.today:
		return DailyOK
	case tr.yesterday:
		return DailyPending
	case today.DaysSince(tr.latest) < PendingWindowDays:
		// Only reachable for reference dates after today.
		return DailyPending
	default:
		return DailyLate
	}
}

// DeriveMonthStatus maps a group C count to its presentation status.
// An incomplete month is pending while open and non-compliant once closed.
func DeriveMonthStatus(compliantCount, required int, closed bool) MonthStatus {
	switch {
	case compliantCount >= required:
		return MonthCompliant
	case closed:
		return MonthNonCompliant
	default:
		return MonthPending
	}
}
