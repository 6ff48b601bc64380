package schedule_test

import (
	"github.com/bugcenter/helpscot/schedule"
	"github.com/marcsantiago/gocron"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestDefinitionString(t *testing.T) {
	definitionToString := []struct {
		sd             schedule.Definition
		friendlyString string
	}{
		{schedule.Definition{Interval: 1, Weekday: time.Monday.String(), AtTime: "10:00"}, "Every Monday at 10:00"},
		{schedule.Definition{Interval: 1, Weekday: time.Sunday.String(), AtTime: "04:00"}, "Every Sunday at 04:00"},
		{schedule.Definition{Interval: 1, Unit: schedule.Seconds}, "Every second"},
		{schedule.Definition{Interval: 30, Unit: schedule.Seconds}, "Every 30 seconds"},
		{schedule.Definition{Interval: 1, Unit: schedule.Minutes}, "Every minute"},
		{schedule.Definition{Interval: 5, Unit: schedule.Minutes}, "Every 5 minutes"},
		{schedule.Definition{Interval: 1, Unit: schedule.Hours}, "Every hour"},
		{schedule.Definition{Interval: 1, Unit: schedule.Days, AtTime: "10:00"}, "Every day at 10:00"},
		{schedule.Definition{Interval: 2, Unit: schedule.Weeks}, "Every 2 weeks"},
	}

	for _, testCase := range definitionToString {
		t.Run(testCase.friendlyString, func(t *testing.T) {
			assert.Equalf(t, testCase.friendlyString, testCase.sd.String(), "Expected different string value for schedule definition: %v", testCase.sd)
		})
	}
}

func TestBuilder(t *testing.T) {
	assert.Equal(t, schedule.Definition{Interval: 1, Weekday: "Monday", AtTime: "10:00"}, schedule.New().Every(time.Monday.String()).AtTime("10:00").Build())
	assert.Equal(t, schedule.Definition{Interval: 1, Unit: schedule.Minutes}, schedule.New().Every(schedule.Minutes).Build())
	assert.Equal(t, schedule.Definition{Interval: 15, Unit: schedule.Seconds}, schedule.New().EveryN(15, schedule.Seconds).Build())
}

func TestEveryDuration(t *testing.T) {
	assert.Equal(t, schedule.Definition{Interval: 1, Unit: schedule.Minutes}, schedule.Every(time.Minute))
	assert.Equal(t, schedule.Definition{Interval: 90, Unit: schedule.Seconds}, schedule.Every(90*time.Second))
	assert.Equal(t, schedule.Definition{Interval: 2, Unit: schedule.Hours}, schedule.Every(2*time.Hour))
	assert.Equal(t, schedule.Definition{Interval: 90, Unit: schedule.Minutes}, schedule.Every(90*time.Minute))
	assert.Equal(t, schedule.Definition{Interval: 1, Unit: schedule.Seconds}, schedule.Every(10*time.Millisecond))
}

func TestNewJobFromDefinition(t *testing.T) {
	definitionToResult := []struct {
		sd           schedule.Definition
		valid        bool
		errorMessage string
	}{
		{schedule.Definition{Interval: 1, Weekday: time.Monday.String(), AtTime: "10:00"}, true, ""},
		{schedule.Definition{Interval: 1, Weekday: time.Friday.String(), AtTime: "06:00"}, true, ""},
		{schedule.Definition{Interval: 1, Unit: schedule.Seconds}, true, ""},
		{schedule.Definition{Interval: 1, Unit: schedule.Minutes}, true, ""},
		{schedule.Definition{Interval: 2, Unit: schedule.Hours}, true, ""},
		{schedule.Definition{Interval: 1, Unit: schedule.Days, AtTime: "10:00"}, true, ""},
		{schedule.Definition{Interval: 2, Unit: schedule.Weeks}, true, ""},
		{schedule.Definition{Interval: 2, Unit: schedule.Weeks, Weekday: time.Monday.String()}, true, ""}, // Units are ignored for weekdays
		{schedule.Definition{Interval: 1, Unit: "fortnights"}, false, "unknown unit [fortnights]"},
		{schedule.Definition{Interval: 0, Unit: schedule.Minutes}, false, "interval must be greater than 0"},
	}

	scheduler := gocron.NewScheduler()
	for _, testCase := range definitionToResult {
		t.Run(testCase.sd.String(), func(t *testing.T) {
			_, err := schedule.NewJob(scheduler, testCase.sd)

			if testCase.valid {
				assert.Nilf(t, err, "Expected valid job to be created for schedule definition: %v", testCase.sd)
			} else if assert.NotNil(t, err) {
				assert.Contains(t, err.Error(), testCase.errorMessage)
			}
		})
	}
}
