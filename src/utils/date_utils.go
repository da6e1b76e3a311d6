package utils

import (
	"time"
)

const DefaultDateFormat = "2006-01-02"

// Today returns the current date in the trip-log format. Entries recorded
// without a date default to it.
func Today() string {
	return time.Now().Format(DefaultDateFormat)
}

// IsValidDate reports whether dateStr parses with the trip-log format.
func IsValidDate(dateStr string) bool {
	_, err := time.Parse(DefaultDateFormat, dateStr)
	return err == nil
}
