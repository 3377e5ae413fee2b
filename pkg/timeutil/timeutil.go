// Package timeutil provides day-slot helpers for availability windows.
// A day is divided into four slots - morning, afternoon, evening, night -
// matching the availability flags on nomad profiles. No external
// dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DaySlot names one of the four availability windows.
type DaySlot string

const (
	SlotMorning   DaySlot = "morning"   // 05:00-11:59
	SlotAfternoon DaySlot = "afternoon" // 12:00-16:59
	SlotEvening   DaySlot = "evening"   // 17:00-21:59
	SlotNight     DaySlot = "night"     // 22:00-04:59
)

// IsValid checks if the slot is one of the four known values.
func (s DaySlot) IsValid() bool {
	switch s {
	case SlotMorning, SlotAfternoon, SlotEvening, SlotNight:
		return true
	default:
		return false
	}
}

// SlotAt returns the day slot for the given time in its own location.
func SlotAt(t time.Time) DaySlot {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 12:
		return SlotMorning
	case hour >= 12 && hour < 17:
		return SlotAfternoon
	case hour >= 17 && hour < 22:
		return SlotEvening
	default:
		return SlotNight
	}
}

// SlotIn returns the current day slot in the given IANA timezone.
// Falls back to UTC if the name does not resolve.
func SlotIn(tz string, now time.Time) DaySlot {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return SlotAt(now.In(loc))
}

// NowUTC returns the current time in UTC. Exists so call sites stay
// consistent about stored timestamps always being UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}
