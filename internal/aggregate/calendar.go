package aggregate

import (
	"sort"
	"time"

	"adsync/internal/domain"
)

// WeekRow is one Monday-start week bucket with its month attribution.
type WeekRow struct {
	WeekStart string `json:"week_start"`
	Month     string `json:"month"`
	Totals
}

// MonthRow is one calendar-month bucket.
type MonthRow struct {
	Month string `json:"month"`
	Totals
}

// MonthFilters are optional pre-filters applied before month bucketing.
// Rows with a blank dimension only match when the filter is unset; blank
// values are otherwise passed through, never silently excluded.
type MonthFilters struct {
	Device  string
	Channel string
}

// GroupByWeekRecent5 buckets rows into Monday-start weeks and returns at
// most the 5 most recent, newest first. Chart callers re-sort ascending.
//
// A week straddling a month boundary is attributed by where the weight of
// the business week falls: it belongs to the month of its Monday unless
// the next month's 1st lands inside the week on a Monday through
// Thursday, in which case the whole week counts toward the next month.
func GroupByWeekRecent5(rows []domain.Row) []WeekRow {
	buckets := make(map[string][]domain.Row)
	for _, r := range rows {
		monday, ok := weekStart(r.Date)
		if !ok {
			continue
		}
		buckets[monday] = append(buckets[monday], r)
	}

	out := make([]WeekRow, 0, len(buckets))
	for monday, part := range buckets {
		out = append(out, WeekRow{
			WeekStart: monday,
			Month:     attributeWeek(monday),
			Totals:    Summarize(part),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart > out[j].WeekStart })
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// GroupByMonthRecent3 buckets rows by calendar month after applying the
// device/channel pre-filters and returns at most the 3 most recent
// months, newest first.
func GroupByMonthRecent3(rows []domain.Row, filters MonthFilters) []MonthRow {
	buckets := make(map[string][]domain.Row)
	for _, r := range rows {
		if filters.Device != "" && r.Device != filters.Device {
			continue
		}
		if filters.Channel != "" && r.Channel != filters.Channel {
			continue
		}
		month := monthKey(r.Date)
		if month == "" {
			continue
		}
		buckets[month] = append(buckets[month], r)
	}

	out := make([]MonthRow, 0, len(buckets))
	for month, part := range buckets {
		out = append(out, MonthRow{Month: month, Totals: Summarize(part)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// CurrentMonthKey returns the most recent month present in the data.
// Dashboards are often reviewed after the fact, so goal tracking follows
// the data rather than the wall-clock month.
func CurrentMonthKey(rows []domain.Row) string {
	latest := ""
	for _, r := range rows {
		if month := monthKey(r.Date); month > latest {
			latest = month
		}
	}
	return latest
}

func monthKey(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// weekStart returns the Monday of the date's week in YYYY-MM-DD form.
func weekStart(date string) (string, bool) {
	d, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return "", false
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset).Format(domain.DateFormat), true
}

// attributeWeek decides which month a Monday-start week belongs to.
func attributeWeek(monday string) string {
	start, err := time.Parse(domain.DateFormat, monday)
	if err != nil {
		return monthKey(monday)
	}
	end := start.AddDate(0, 0, 6)
	if end.Month() == start.Month() {
		return start.Format("2006-01")
	}

	// The 1st of the next month falls inside this week. Mon-Thu means
	// most of the business week is in the new month.
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch first.Weekday() {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
		return first.Format("2006-01")
	}
	return start.Format("2006-01")
}
