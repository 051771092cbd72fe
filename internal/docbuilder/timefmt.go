package docbuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatClockTime converts the raw source "HH.MM.SS.ffffff" encoding into a
// 12-hour human string: "09.00.00.000000" becomes "9am", "14.30.00.000000"
// becomes "2:30pm". Unparseable input is returned unchanged.
func FormatClockTime(raw string) string {
	if raw == "" {
		return ""
	}
	fields := strings.Split(raw, ".")
	hour, err := strconv.Atoi(fields[0])
	if err != nil || hour < 0 || hour > 23 {
		return raw
	}
	minute := 0
	if len(fields) > 1 {
		minute, err = strconv.Atoi(fields[1])
		if err != nil || minute < 0 || minute > 59 {
			return raw
		}
	}

	period := "am"
	if hour >= 12 {
		period = "pm"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}

	if minute == 0 {
		return fmt.Sprintf("%d%s", hour, period)
	}
	return fmt.Sprintf("%d:%02d%s", hour, minute, period)
}
