package domain

import (
	"fmt"
	"time"
)

// SessionLength is the fixed length of every advising session.
const SessionLength = time.Hour

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses a zero-padded "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// Add moves t by d, wrapping around midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	m := (int(t) + int(d/time.Minute)) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return TimeOfDay(m)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// EndTimeFor derives a session's end from its start.
func EndTimeFor(start TimeOfDay) TimeOfDay {
	return start.Add(SessionLength)
}

// slotStarts are the bookable start times. Noon is the lunch block.
var slotStarts = []TimeOfDay{
	9 * 60, 10 * 60, 11 * 60,
	13 * 60, 14 * 60, 15 * 60, 16 * 60,
}

// Slot is one bookable appointment window.
type Slot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Slots lists the bookable slots of a working day in order.
func Slots() []Slot {
	slots := make([]Slot, len(slotStarts))
	for i, start := range slotStarts {
		slots[i] = Slot{Start: start, End: EndTimeFor(start)}
	}
	return slots
}

// ParseSlot resolves a start time to a bookable slot. Malformed input and
// times outside the catalogue both fail with ErrInvalidSlot.
func ParseSlot(s string) (Slot, error) {
	start, err := ParseTimeOfDay(s)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	for _, candidate := range slotStarts {
		if candidate == start {
			return Slot{Start: start, End: EndTimeFor(start)}, nil
		}
	}
	return Slot{}, fmt.Errorf("%w: %s", ErrInvalidSlot, start)
}

func (s Slot) String() string {
	return s.Start.String() + "-" + s.End.String()
}
