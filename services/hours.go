package services

import (
	"strconv"
	"strings"
	"time"
)

// IsOpen evaluates a free-text business hours string at now. Accepted forms
// are "Everyday" and comma-separated "MonTue:0800-1700" entries; the first
// entry naming today decides. Malformed entries mean closed.
func IsOpen(hours string, now time.Time) bool {
	bh := strings.ToLower(strings.TrimRight(strings.TrimSpace(hours), "."))
	if bh == "" {
		return false
	}
	if bh == "everyday" {
		return true
	}

	today := strings.ToLower(now.Weekday().String()[:3])
	current := now.Hour()*100 + now.Minute()

	for _, part := range strings.Split(bh, ",") {
		days, span, ok := strings.Cut(part, ":")
		if !ok || strings.Contains(span, ":") {
			return false
		}
		openStr, closeStr, ok := strings.Cut(span, "-")
		if !ok {
			return false
		}
		open, err := strconv.Atoi(strings.TrimSpace(openStr))
		if err != nil {
			return false
		}
		closing, err := strconv.Atoi(strings.TrimSpace(closeStr))
		if err != nil {
			return false
		}

		days = strings.TrimSpace(days)
		if strings.Contains(days, "everyday") || strings.Contains(days, today) {
			return open <= current && current <= closing
		}
	}
	return false
}
