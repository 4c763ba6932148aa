package calendar

import (
	"fmt"
	"time"

	"events-client/internal/models"
)

// Month is the anchor of a calendar view
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d
func MonthOf(d models.Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

// ParseMonth parses YYYY-MM
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("month %q is not YYYY-MM: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// AddMonths moves the anchor by n months, crossing year boundaries as needed
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Next() Month     { return m.AddMonths(1) }
func (m Month) Prev() Month     { return m.AddMonths(-1) }
func (m Month) NextYear() Month { return m.AddMonths(12) }
func (m Month) PrevYear() Month { return m.AddMonths(-12) }

// First returns the first day of the month
func (m Month) First() models.Date {
	return models.Date{Year: m.Year, Month: m.Month, Day: 1}
}

// Last returns the last day of the month
func (m Month) Last() models.Date {
	return m.Next().First().AddDays(-1)
}

// Range returns the first and last day, the startDate/endDate of a month fetch
func (m Month) Range() (models.Date, models.Date) {
	return m.First(), m.Last()
}

// Contains reports whether d falls in the month
func (m Month) Contains(d models.Date) bool {
	return d.Year == m.Year && d.Month == m.Month
}

// String renders "July 2025"
func (m Month) String() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Key renders "2025-07"
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
