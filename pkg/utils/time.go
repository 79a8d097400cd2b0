package utils

import "time"

// FormatTimestamp formats a timestamp in ISO 8601 format, UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
