package domain

import (
	"fmt"
	"time"
)

// ReportPeriod selects the creation window of a delivery export.
type ReportPeriod string

const (
	PeriodDaily   ReportPeriod = "daily"
	PeriodWeekly  ReportPeriod = "weekly"
	PeriodMonthly ReportPeriod = "monthly"
	PeriodYearly  ReportPeriod = "yearly"
	PeriodAll     ReportPeriod = "all"
)

// allTimeFromYear is the first year covered by the "all" window.
const allTimeFromYear = 2000

// ParseReportPeriod maps a period name to a ReportPeriod. Unknown names fall
// back to yearly.
func ParseReportPeriod(s string) ReportPeriod {
	switch p := ReportPeriod(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodAll:
		return p
	}
	return PeriodYearly
}

// Window returns the half-open interval [start, end) that contains now, in
// now's location. Weeks start on Monday.
func (p ReportPeriod) Window(now time.Time) (start, end time.Time) {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case PeriodDaily:
		return today, today.AddDate(0, 0, 1)
	case PeriodWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		start = today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	case PeriodAll:
		return time.Date(allTimeFromYear, time.January, 1, 0, 0, 0, 0, loc), today.AddDate(0, 0, 1)
	default:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	}
}

// Label is the human name of the window used in messages and the audit trail.
func (p ReportPeriod) Label() string {
	switch p {
	case PeriodDaily:
		return "today"
	case PeriodWeekly:
		return "this week"
	case PeriodMonthly:
		return "this month"
	case PeriodAll:
		return "all time"
	default:
		return "this year"
	}
}

// Filename names the CSV file for an export taken at now. Weekly files carry
// the Sunday-based week of the year.
func (p ReportPeriod) Filename(now time.Time) string {
	switch p {
	case PeriodDaily:
		return "deliveries_" + now.Format("2006-01-02") + ".csv"
	case PeriodWeekly:
		week := (now.YearDay() + 6 - int(now.Weekday())) / 7
		return fmt.Sprintf("deliveries_week_%d-%02d.csv", now.Year(), week)
	case PeriodMonthly:
		return "deliveries_" + now.Format("2006-01") + ".csv"
	case PeriodAll:
		return "deliveries_all_time_" + now.Format("2006-01-02") + ".csv"
	default:
		return "deliveries_" + now.Format("2006") + ".csv"
	}
}

// Profit is the amount less expenses.
func (d *Delivery) Profit() float64 {
	return d.Amount - d.Expenses
}
