package leave

import (
	"time"

	"github.com/shopspring/decimal"

	leaveerrors "go-hrms/internal/leave/errors"
)

// MaxRangeDays caps a single request's inclusive span.
const MaxRangeDays = 365

var halfDay = decimal.NewFromFloat(0.5)

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the inclusive whole-day count of [start, end], both
// truncated to midnight UTC. daysBetween(d, d) == 1.
func DaysBetween(start, end time.Time) (int, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return 0, leaveerrors.ErrInvalidDateRange
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one calendar day. Adjacent ranges do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart, aEnd = truncateToDay(aStart), truncateToDay(aEnd)
	bStart, bEnd = truncateToDay(bStart), truncateToDay(bEnd)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// RequestedDays computes the day count of a request at half-day granularity:
// the inclusive span, minus 0.5 for each flagged boundary. The result must
// stay positive and within MaxRangeDays.
func RequestedDays(start, end time.Time, halfDayStart, halfDayEnd bool) (decimal.Decimal, error) {
	span, err := DaysBetween(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	if span > MaxRangeDays {
		return decimal.Zero, leaveerrors.ErrRangeTooLarge
	}
	days := decimal.NewFromInt(int64(span))
	if halfDayStart {
		days = days.Sub(halfDay)
	}
	if halfDayEnd {
		days = days.Sub(halfDay)
	}
	if !days.IsPositive() {
		return decimal.Zero, leaveerrors.ErrInvalidDateRange
	}
	return days, nil
}
