package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// localTimeLayouts accept the BoM's colon offset ("+11:00", or "Z") first,
// then the compact "+1100" form.
var localTimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
}

// ParseLocalTime parses an ISO-8601 local timestamp with a UTC offset. The
// returned time keeps the offset from the input so wall-clock fields read as
// local time. Failures return a *TimestampError.
func ParseLocalTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &TimestampError{Value: value, Err: errors.New("empty")}
	}

	var lastErr error
	for _, layout := range localTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &TimestampError{Value: value, Err: lastErr}
}

// PartOfDay buckets a local hour: 05–11 morning, 12–16 afternoon,
// 17–20 evening, everything else night.
func PartOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

// DescribeIssueTime renders the issue-time sentence, e.g.
// "Issued Wednesday morning at 6:30am."
func DescribeIssueTime(t time.Time) string {
	return fmt.Sprintf("Issued %s %s at %s.", t.Weekday(), PartOfDay(t.Hour()), t.Format("3:04pm"))
}
