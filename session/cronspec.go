package session

import (
	"time"
)

// cronEverySpec converts a config interval in minutes to a robfig/cron/v3
// "@every" spec string. A non-positive interval defaults to one hour rather
// than producing an invalid zero-duration spec, since a disabled job is
// filtered out by the caller before this is reached.
func cronEverySpec(minutes float64) string {
	if minutes <= 0 {
		minutes = 60
	}
	d := time.Duration(minutes * float64(time.Minute))
	return "@every " + d.String()
}
