package pricing

import (
	"fmt"
	"time"
)

// SameDayLabel is shown instead of a date for plans with no lead time.
const SameDayLabel = "1時間後"

var weekdayNames = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// LeadDays returns the lead time of a plan in calendar days.
func (e *Engine) LeadDays(p Plan) int {
	if days, ok := e.table.LeadDays[p]; ok {
		return days
	}
	return e.table.LeadDays[PlanSelf]
}

// CompletionDate renders the expected completion of the plan named by
// planLabel, counted in calendar days from today, as "M/D (曜)".
func (e *Engine) CompletionDate(planLabel string, today time.Time) string {
	days := e.LeadDays(NormalizePlan(planLabel))
	if days == 0 {
		return SameDayLabel
	}
	d := today.AddDate(0, 0, days)
	return fmt.Sprintf("%d/%d (%s)", int(d.Month()), d.Day(), weekdayNames[d.Weekday()])
}
