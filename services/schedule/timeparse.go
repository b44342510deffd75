package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// UnknownMinute sorts entries without a usable manual time after every
// parseable one on the same day.
const UnknownMinute = 9999

var manualTimePattern = regexp.MustCompile(`(?i)(\d{1,2}):?(\d{2})?\s*(am|pm)?`)

// ParseManualTime converts a free-form air time such as "9:00 PM", "21:30" or
// "8pm" into minutes after midnight. Missing or unparseable input yields
// UnknownMinute.
func ParseManualTime(text *string) int {
	if text == nil {
		return UnknownMinute
	}
	m := manualTimePattern.FindStringSubmatch(strings.TrimSpace(*text))
	if m == nil {
		return UnknownMinute
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return UnknownMinute
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return UnknownMinute
		}
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return UnknownMinute
	}
	return hour*60 + minute
}
