package models

import (
	"fmt"
	"time"
)

// AttendanceDays lists the per-day presence flags an attendance record
// carries, in event order.
var AttendanceDays = []string{"day1", "day2", "day3"}

// Attendance is the per-participant attendance record. It is looked up by
// the same ID as the roster document it describes, and is never required
// to exist: a roster document with no attendance record simply has no
// recorded days.
type Attendance struct {
	Day1       bool      `bson:"day1" json:"day1"`
	Day2       bool      `bson:"day2" json:"day2"`
	Day3       bool      `bson:"day3" json:"day3"`
	UpdatedAt  time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	RecordedBy string    `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
}

// Day returns the presence flag for one of AttendanceDays.
func (a Attendance) Day(day string) (bool, error) {
	switch day {
	case "day1":
		return a.Day1, nil
	case "day2":
		return a.Day2, nil
	case "day3":
		return a.Day3, nil
	default:
		return false, fmt.Errorf("unknown attendance day %q", day)
	}
}

// SetDay sets the presence flag for one of AttendanceDays.
func (a *Attendance) SetDay(day string, present bool) error {
	switch day {
	case "day1":
		a.Day1 = present
	case "day2":
		a.Day2 = present
	case "day3":
		a.Day3 = present
	default:
		return fmt.Errorf("unknown attendance day %q", day)
	}
	return nil
}

// DaysPresent counts the days marked present.
func (a Attendance) DaysPresent() int {
	n := 0
	for _, p := range []bool{a.Day1, a.Day2, a.Day3} {
		if p {
			n++
		}
	}
	return n
}
