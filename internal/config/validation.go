package config

import (
	"fmt"
	"strings"
)

// Schedule aliases accepted in scheduler.tasks.<name>.schedule.
const (
	ScheduleDaily  = "daily"
	ScheduleHourly = "hourly"
	ScheduleNever  = "never"
)

// NormalizeSchedule turns a configured schedule into a six-field cron
// expression (seconds first). An empty result means the task is disabled.
// Five-field expressions get a leading zero seconds field.
func NormalizeSchedule(schedule string) (string, error) {
	s := strings.TrimSpace(schedule)
	switch strings.ToLower(s) {
	case "", ScheduleNever:
		return "", nil
	case ScheduleDaily:
		return "0 0 0 * * *", nil
	case ScheduleHourly:
		return "0 0 * * * *", nil
	}

	fields := strings.Fields(s)
	switch len(fields) {
	case 5:
		return "0 " + strings.Join(fields, " "), nil
	case 6:
		return strings.Join(fields, " "), nil
	default:
		return "", fmt.Errorf("invalid cron expression %q: expected 5 or 6 fields, got %d", schedule, len(fields))
	}
}
