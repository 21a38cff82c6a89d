package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	// H:mm or HH:mm, 24h.
	clock24 = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	// h:mm AM/PM.
	clock12 = regexp.MustCompile(`^(0?[1-9]|1[0-2]):[0-5]\d\s?(AM|PM|am|pm)$`)
)

// Slot is a (date, start, end) triple. Two slots are the same slot only when
// all three fields are equal; there is no interval overlap logic.
type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, s.StartTime, s.EndTime)
}

// ParseSlot validates the raw fields and normalises the date to YYYY-MM-DD.
// RFC3339 timestamps are accepted and reduced to their UTC calendar date.
func ParseSlot(date, startTime, endTime string) (Slot, error) {
	d, err := normalizeDate(strings.TrimSpace(date))
	if err != nil {
		return Slot{}, fmt.Errorf("%w: date %q: %v", ErrInvalidSlot, date, err)
	}

	start, ok := normalizeTime(startTime)
	if !ok {
		return Slot{}, fmt.Errorf("%w: startTime %q must be HH:mm", ErrInvalidSlot, startTime)
	}
	end, ok := normalizeTime(endTime)
	if !ok {
		return Slot{}, fmt.Errorf("%w: endTime %q must be HH:mm", ErrInvalidSlot, endTime)
	}

	return Slot{Date: d, StartTime: start, EndTime: end}, nil
}

// normalizeTime pads a one-digit 24h hour so "9:00" and "09:00" name the
// same slot. 12h values are kept as given.
func normalizeTime(v string) (string, bool) {
	v = strings.TrimSpace(v)
	switch {
	case clock24.MatchString(v):
		if len(v) == len("9:00") {
			v = "0" + v
		}
		return v, true
	case clock12.MatchString(v):
		return v, true
	default:
		return "", false
	}
}

// NormalizeSlots parses every slot and rejects empty input and repeated slots.
func NormalizeSlots(raw []Slot) ([]Slot, error) {
	if len(raw) == 0 {
		return nil, ErrNoSlots
	}

	out := make([]Slot, 0, len(raw))
	seen := make(map[Slot]struct{}, len(raw))
	for _, r := range raw {
		s, err := ParseSlot(r.Date, r.StartTime, r.EndTime)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlot, s)
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

func normalizeDate(v string) (string, error) {
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t.Format(DateLayout), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return "", fmt.Errorf("expected YYYY-MM-DD or RFC3339")
	}
	return t.UTC().Format(DateLayout), nil
}
