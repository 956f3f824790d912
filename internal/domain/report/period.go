package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/retailpos/backend/internal/domain/shared"
)

// PeriodKind selects how a report range is derived
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodMonthly PeriodKind = "monthly"
	PeriodYearly  PeriodKind = "yearly"
	PeriodCustom  PeriodKind = "custom"
)

// DateLayout is the wire format of report dates
const DateLayout = "2006-01-02"

// monthNames is the static month lookup used for labels and named-month queries.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name of m
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// ParseMonth accepts a month number (1-12), a full name or a three-letter abbreviation.
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, shared.ErrInvalidPeriod.WithMessage(fmt.Sprintf("month %d out of range", n))
		}
		return time.Month(n), nil
	}
	lower := strings.ToLower(s)
	for i, name := range monthNames {
		full := strings.ToLower(name)
		if lower == full || (len(lower) == 3 && strings.HasPrefix(full, lower)) {
			return time.Month(i + 1), nil
		}
	}
	return 0, shared.ErrInvalidPeriod.WithMessage(fmt.Sprintf("unknown month %q", s))
}

// PeriodQuery is the caller's description of a report range
type PeriodQuery struct {
	Period    string
	StartDate string
	EndDate   string
	Month     string
	Year      int
}

// DateRange is an inclusive range of calendar days. Start and End are
// midnight in the shop's location.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// EndExclusive is the first instant after the range
func (r DateRange) EndExclusive() time.Time {
	return r.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on a day of the range
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.EndExclusive())
}

// Days is the number of calendar days covered
func (r DateRange) Days() int {
	return int(r.EndExclusive().Sub(r.Start).Hours()/24 + 0.5)
}

// Key is a stable textual form used in cache keys
func (r DateRange) Key() string {
	return r.Start.Format(DateLayout) + "_" + r.End.Format(DateLayout)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ResolvePeriod turns q into a concrete range relative to now.
// An empty period means monthly.
func ResolvePeriod(q PeriodQuery, now time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := midnight(now, loc)

	kind := PeriodKind(strings.ToLower(strings.TrimSpace(q.Period)))
	if kind == "" {
		kind = PeriodMonthly
	}
	if q.Year != 0 && (q.Year < 1970 || q.Year > 9999) {
		return DateRange{}, shared.ErrInvalidPeriod.WithMessage(fmt.Sprintf("year %d out of range", q.Year))
	}

	switch kind {
	case PeriodDaily:
		return DateRange{Start: today, End: today}, nil

	case PeriodMonthly:
		year, month := today.Year(), today.Month()
		if q.Month != "" {
			m, err := ParseMonth(q.Month)
			if err != nil {
				return DateRange{}, err
			}
			month = m
			if q.Year != 0 {
				year = q.Year
			}
		} else if q.Year != 0 {
			return DateRange{}, shared.ErrInvalidPeriod.WithMessage("year requires a month for monthly reports")
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: clampToToday(start.AddDate(0, 1, -1), start, today)}, nil

	case PeriodYearly:
		year := today.Year()
		if q.Year != 0 {
			year = q.Year
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return DateRange{Start: start, End: clampToToday(start.AddDate(1, 0, -1), start, today)}, nil

	case PeriodCustom:
		if q.StartDate == "" || q.EndDate == "" {
			return DateRange{}, shared.ErrInvalidPeriod.WithMessage("custom period requires start_date and end_date")
		}
		start, err := time.ParseInLocation(DateLayout, strings.TrimSpace(q.StartDate), loc)
		if err != nil {
			return DateRange{}, shared.ErrInvalidPeriod.WithMessage("start_date must be YYYY-MM-DD")
		}
		end, err := time.ParseInLocation(DateLayout, strings.TrimSpace(q.EndDate), loc)
		if err != nil {
			return DateRange{}, shared.ErrInvalidPeriod.WithMessage("end_date must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return DateRange{}, shared.ErrInvalidPeriod.WithMessage("start_date must not be after end_date")
		}
		return DateRange{Start: start, End: end}, nil
	}

	return DateRange{}, shared.ErrInvalidPeriod.WithMessage(fmt.Sprintf("unknown period %q", q.Period))
}

// clampToToday stops a range that contains today at today
func clampToToday(end, start, today time.Time) time.Time {
	if !today.Before(start) && today.Before(end) {
		return today
	}
	return end
}

// MonthBucket is one calendar month of the trailing comparison
type MonthBucket struct {
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time // exclusive
}

// Label renders e.g. "March 2024"
func (b MonthBucket) Label() string {
	return fmt.Sprintf("%s %d", MonthName(b.Month), b.Year)
}

// Contains reports whether t falls in the month
func (b MonthBucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// TrailingMonths returns n calendar months ending with the month of end, oldest first.
func TrailingMonths(end time.Time, n int) []MonthBucket {
	loc := end.Location()
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, loc)
	buckets := make([]MonthBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := last.AddDate(0, -i, 0)
		buckets = append(buckets, MonthBucket{
			Year:  start.Year(),
			Month: start.Month(),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	return buckets
}
