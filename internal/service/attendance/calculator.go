package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
)

// parseClock converts HH:MM into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse(attendance.ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", attendance.ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ComputeWorkingHours returns checkOut minus checkIn in fractional hours, both
// read as times on the same day. A check-out earlier than the check-in yields
// a negative value; overnight shifts are not supported.
func ComputeWorkingHours(checkIn, checkOut string) (float64, error) {
	in, err := parseClock(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := parseClock(checkOut)
	if err != nil {
		return 0, err
	}
	return float64(out-in) / 60, nil
}

// ComputeStatus derives the stored status of a record. A record without a
// check-in is absent. Late applies only when late detection is enabled and the
// check-in falls after WorkStart plus the threshold. Half-day applies to a
// completed day shorter than HalfDayHours and takes precedence over late.
func ComputeStatus(rec attendance.AttendanceRecord, policy attendance.StatusPolicy) attendance.Status {
	if rec.CheckIn == nil {
		return attendance.StatusAbsent
	}

	if policy.HalfDayHours > 0 && rec.CheckOut != nil && rec.WorkingHours != nil &&
		*rec.WorkingHours >= 0 && *rec.WorkingHours < policy.HalfDayHours {
		return attendance.StatusHalfDay
	}

	if policy.LateDetection {
		in, errIn := parseClock(*rec.CheckIn)
		start, errStart := parseClock(policy.WorkStart)
		if errIn == nil && errStart == nil && in > start+policy.LateThresholdMinutes {
			return attendance.StatusLate
		}
	}

	return attendance.StatusPresent
}

// eventTimestamp rebuilds the RFC3339 instant of a stored HH:MM on date.
func eventTimestamp(date, clock string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation(attendance.DateLayout+" "+attendance.ClockLayout, date+" "+clock, loc)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}
