// Package schedule defines when scheduled actions run and how they're registered with a
// gocron scheduler
package schedule

import (
	"fmt"
	"github.com/marcsantiago/gocron"
	"strings"
	"time"
)

// Definition represents a recurring schedule: every Interval Unit, optionally on a Weekday
// and at a given time of day
type Definition struct {
	// Interval (every 1 minute would be expressed with an interval of 1). A weekday value
	// implicitly sets the interval to 1
	Interval uint64

	// Valid time units are: "weeks", "hours", "days", "minutes", "seconds". Ignored when Weekday is set
	Unit string

	// Optional day of the week (i.e. "Monday")
	Weekday string

	// Optional "at time" value (i.e. "10:30")
	AtTime string
}

// Unit values
const (
	Weeks   = "weeks"
	Hours   = "hours"
	Days    = "days"
	Minutes = "minutes"
	Seconds = "seconds"
)

// String returns a human-friendly description of the schedule
func (d Definition) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Every ")

	switch {
	case d.Weekday != "":
		fmt.Fprintf(&b, "%s", d.Weekday)
	case d.Interval == 1:
		fmt.Fprintf(&b, "%s", strings.TrimSuffix(d.Unit, "s"))
	default:
		fmt.Fprintf(&b, "%d %s", d.Interval, d.Unit)
	}

	if d.AtTime != "" {
		fmt.Fprintf(&b, " at %s", d.AtTime)
	}

	return b.String()
}

// Builder holds a Definition to build
type Builder struct {
	sd Definition
}

// New returns a Builder for a Definition running every unit by default
func New() (b *Builder) {
	b = new(Builder)
	b.sd = Definition{Interval: 1}

	return b
}

// Every sets the unit of the schedule (i.e. schedule.Minutes) or, for a weekday name, the
// day of the week
func (b *Builder) Every(unitOrWeekday string) *Builder {
	if _, ok := weekdays[unitOrWeekday]; ok {
		b.sd.Weekday = unitOrWeekday
		b.sd.Interval = 1
		return b
	}

	b.sd.Unit = unitOrWeekday
	return b
}

// EveryN sets the interval and unit of the schedule
func (b *Builder) EveryN(interval uint64, unit string) *Builder {
	b.sd.Interval = interval
	b.sd.Unit = unit
	return b
}

// AtTime sets the time of day (i.e. "10:00")
func (b *Builder) AtTime(atTime string) *Builder {
	b.sd.AtTime = atTime
	return b
}

// Build returns the Definition
func (b *Builder) Build() Definition {
	return b.sd
}

// Every returns the Definition running every interval. The interval is rounded to the largest
// unit it's a whole multiple of, down to the second
func Every(interval time.Duration) Definition {
	switch {
	case interval >= time.Hour && interval%time.Hour == 0:
		return Definition{Interval: uint64(interval / time.Hour), Unit: Hours}
	case interval >= time.Minute && interval%time.Minute == 0:
		return Definition{Interval: uint64(interval / time.Minute), Unit: Minutes}
	case interval < time.Second:
		return Definition{Interval: 1, Unit: Seconds}
	}

	return Definition{Interval: uint64(interval / time.Second), Unit: Seconds}
}

var weekdays = map[string]time.Weekday{
	time.Monday.String():    time.Monday,
	time.Tuesday.String():   time.Tuesday,
	time.Wednesday.String(): time.Wednesday,
	time.Thursday.String():  time.Thursday,
	time.Friday.String():    time.Friday,
	time.Saturday.String():  time.Saturday,
	time.Sunday.String():    time.Sunday,
}

// NewJob sets up the gocron.Job with the schedule and leaves the task undefined for the caller to set up
func NewJob(s *gocron.Scheduler, sd Definition) (j *gocron.Job, err error) {
	if sd.Weekday == "" && sd.Interval == 0 {
		return nil, fmt.Errorf("Invalid schedule [%s]: interval must be greater than 0", sd)
	}

	j = s.Every(sd.Interval, false)

	if weekday, ok := weekdays[sd.Weekday]; ok {
		switch weekday {
		case time.Monday:
			j = j.Monday()
		case time.Tuesday:
			j = j.Tuesday()
		case time.Wednesday:
			j = j.Wednesday()
		case time.Thursday:
			j = j.Thursday()
		case time.Friday:
			j = j.Friday()
		case time.Saturday:
			j = j.Saturday()
		case time.Sunday:
			j = j.Sunday()
		}
	} else {
		switch sd.Unit {
		case Weeks:
			j = j.Weeks()
		case Hours:
			j = j.Hours()
		case Days:
			j = j.Days()
		case Minutes:
			j = j.Minutes()
		case Seconds:
			j = j.Seconds()
		default:
			return nil, fmt.Errorf("Invalid schedule [%s]: unknown unit [%s]", sd, sd.Unit)
		}
	}

	if sd.AtTime != "" {
		j = j.At(sd.AtTime)
	}

	if j.Err() != nil {
		return nil, j.Err()
	}

	return j, nil
}
