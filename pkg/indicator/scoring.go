package indicator

import "math"

// Evaluation outcomes.
const (
	StatusApproved = "Aprovado"
	StatusFailed   = "Reprovado"
)

// TheoryExamPassMark is the minimum passing grade.
const TheoryExamPassMark = 8.0

// BreathingGearLimitSeconds is the slowest passing TP/EPR donning time.
const BreathingGearLimitSeconds = 59

// fitness thresholds in seconds for grades 10, 9, 8 and 7.
var (
	fitnessUnder40 = [4]int{120, 140, 160, 180}
	fitnessOver40  = [4]int{180, 200, 220, 240}
)

// FitnessScore grades a TAF run. It returns the grade (0 when failed) and
// the status.
func FitnessScore(age, seconds int) (int, string) {
	limits := fitnessUnder40
	if age >= 40 {
		limits = fitnessOver40
	}
	for i, limit := range limits {
		if seconds <= limit {
			return 10 - i, StatusApproved
		}
	}
	return 0, StatusFailed
}

// TheoryExamStatus returns the status of a theory exam grade.
func TheoryExamStatus(grade float64) string {
	if grade >= TheoryExamPassMark {
		return StatusApproved
	}
	return StatusFailed
}

// BreathingGearStatus returns the status of a TP/EPR donning time.
func BreathingGearStatus(seconds int) string {
	if seconds <= BreathingGearLimitSeconds {
		return StatusApproved
	}
	return StatusFailed
}

// Percent returns round(done/planned*100), or 0 when nothing was planned.
func Percent(done, planned float64) float64 {
	if planned <= 0 {
		return 0
	}
	return math.Round(done / planned * 100)
}
