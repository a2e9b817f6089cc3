package service

import "time"

// SystemClock reads the wall clock in a fixed location so that the daily
// display id sequence resets at local midnight.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
