package service

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/schedule"
)

// AssignmentDetails is the enriched assignment view served to both the
// therapist and the patient. Every figure is derived through the schedule
// package from the same four primitives (active days, date range,
// completion dates, window); no caller re-derives its own math.
type AssignmentDetails struct {
	domain.Assignment
	Compliance7Days    int        `json:"compliance7Days"`
	ComplianceLifetime int        `json:"complianceLifetime"`
	CompletionCount    int        `json:"completionCount"`
	ExpectedCount      int        `json:"expectedCount"`
	IsTrainingToday    bool       `json:"isTrainingToday"`
	CompletedToday     bool       `json:"completedToday"`
	NextTrainingDay    *time.Time `json:"nextTrainingDay,omitempty"`
}

// PatientSummary is the per-patient dashboard row for the therapist.
type PatientSummary struct {
	PatientID         primitive.ObjectID `json:"patientId"`
	Name              string             `json:"name"`
	ActiveAssignments int                `json:"activeAssignments"`
	TrainedToday      bool               `json:"trainedToday"`
	Compliance7Days   int                `json:"compliance7Days"`
	Streak            int                `json:"streak"`
}

// buildAssignmentDetails derives the enriched view for one assignment from
// its completion ledger, as of the given (date-normalized) today.
func buildAssignmentDetails(a domain.Assignment, completions []domain.CompletionRecord, today time.Time) AssignmentDetails {
	today = schedule.Day(today)

	dates := make([]time.Time, 0, len(completions))
	completedToday := false
	for _, c := range completions {
		dates = append(dates, c.CompletedDate)
		if schedule.Day(c.CompletedDate).Equal(today) {
			completedToday = true
		}
	}

	win7Start, win7End := schedule.RollingWindow(today)
	lifeStart, lifeEnd := schedule.LifetimeWindow(today, a.StartDate, a.EndDate)

	details := AssignmentDetails{
		Assignment:         a,
		Compliance7Days:    schedule.Compliance(a.ActiveDays, a.StartDate, a.EndDate, dates, win7Start, win7End),
		ComplianceLifetime: schedule.Compliance(a.ActiveDays, a.StartDate, a.EndDate, dates, lifeStart, lifeEnd),
		CompletionCount:    len(completions),
		ExpectedCount:      schedule.CountScheduledDays(a.ActiveDays, lifeStart, lifeEnd),
		IsTrainingToday:    a.InWindow(today) && schedule.IsScheduledDay(today, a.ActiveDays),
		CompletedToday:     completedToday,
	}

	// A not-yet-started assignment scans from its start date, so the first
	// training day is reported even when the start lies beyond the horizon.
	scanFrom := today
	if a.StartDate.After(today) {
		scanFrom = a.StartDate.AddDate(0, 0, -1)
	}
	if next, ok := schedule.NextScheduledDay(a.ActiveDays, scanFrom, a.EndDate, 0); ok {
		details.NextTrainingDay = &next
	}
	return details
}

// groupCompletions splits a mixed completion list by assignment.
func groupCompletions(records []domain.CompletionRecord) map[primitive.ObjectID][]domain.CompletionRecord {
	grouped := make(map[primitive.ObjectID][]domain.CompletionRecord)
	for _, r := range records {
		grouped[r.AssignmentID] = append(grouped[r.AssignmentID], r)
	}
	return grouped
}

// buildPatientSummary condenses a patient's assignments and completions
// into the dashboard row. The rolling compliance is the mean over active
// assignments; the streak walks the union of all completion dates.
func buildPatientSummary(patient domain.User, assignments []domain.Assignment, completions []domain.CompletionRecord, today time.Time) PatientSummary {
	today = schedule.Day(today)
	grouped := groupCompletions(completions)

	summary := PatientSummary{
		PatientID: patient.ID,
		Name:      patient.Name,
	}

	var allDates []time.Time
	complianceSum := 0
	for _, a := range assignments {
		for _, c := range grouped[a.ID] {
			allDates = append(allDates, c.CompletedDate)
			if schedule.Day(c.CompletedDate).Equal(today) {
				summary.TrainedToday = true
			}
		}
		if a.DeriveStatus(today) != domain.StatusActive {
			continue
		}
		summary.ActiveAssignments++

		dates := make([]time.Time, 0, len(grouped[a.ID]))
		for _, c := range grouped[a.ID] {
			dates = append(dates, c.CompletedDate)
		}
		winStart, winEnd := schedule.RollingWindow(today)
		complianceSum += schedule.Compliance(a.ActiveDays, a.StartDate, a.EndDate, dates, winStart, winEnd)
	}

	if summary.ActiveAssignments > 0 {
		summary.Compliance7Days = complianceSum / summary.ActiveAssignments
	}
	summary.Streak = schedule.CurrentStreak(today, schedule.NewDateSet(allDates...))
	return summary
}
