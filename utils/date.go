package utils

import (
	"fmt"
	"time"
)

// Lima runs UTC-5 all year, no daylight saving.
var LimaTZ = time.FixedZone("UTC-5", -5*60*60)

func LimaNow() time.Time {
	return time.Now().In(LimaTZ)
}

// DayWindow returns the local-midnight bounds of the calendar day containing t.
// Every "today" lookup (check-in precondition, checkout, auto-close sweep) goes
// through here so day boundaries cannot drift between call sites.
func DayWindow(t time.Time) (start, end time.Time) {
	local := t.In(LimaTZ)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, LimaTZ)
	end = start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// DaysLeft counts whole days from today's midnight until end, rounding up and
// never going negative. A nil end date means no expiry configured.
func DaysLeft(end *time.Time, now time.Time) *int {
	if end == nil {
		return nil
	}
	local := now.In(LimaTZ)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, LimaTZ)
	diff := end.Sub(today)
	days := int((diff + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return &days
}

func MustParseDate(dateStr string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", dateStr, LimaTZ)
	return t
}

func ParseISOTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return &t, nil
	}

	t, err = time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, LimaTZ); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}
