package availability

import (
	"fmt"
	"time"
)

// Slot is one bookable (date, time) pair.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// At combines the slot's date and time into an instant in loc. Malformed
// components are rejected at construction.
func (s Slot) At(loc *time.Location) (time.Time, error) {
	if err := ValidateDate(s.Date); err != nil {
		return time.Time{}, err
	}
	if err := ValidateTime(s.Time); err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: slot %s %s: %w", s.Date, s.Time, err)
	}
	return t, nil
}

// SlotOf projects an instant back onto its (date, time) pair.
func SlotOf(t time.Time) Slot {
	return Slot{Date: t.Format(dateLayout), Time: t.Format(timeLayout)}
}

// SlotSet is a conflict index: the (date, time) pairs already claimed by
// non-cancelled appointments for one doctor.
type SlotSet map[Slot]struct{}

// NewSlotSet builds a conflict index from appointment instants.
func NewSlotSet(instants ...time.Time) SlotSet {
	set := make(SlotSet, len(instants))
	for _, t := range instants {
		set[SlotOf(t)] = struct{}{}
	}
	return set
}

// Contains reports whether the slot is already claimed.
func (set SlotSet) Contains(s Slot) bool {
	_, ok := set[s]
	return ok
}

// Upcoming filters a schedule down to bookable slots: chronologically
// ascending, strictly after now, and not present in the booked conflict
// index. Malformed entries are skipped; they are a data-quality issue, not
// a picker concern. Duplicate slots within a date collapse to one.
func Upcoming(sched Schedule, now time.Time, booked SlotSet) []Slot {
	var out []Slot
	for _, date := range sched.Dates() {
		var prev string
		for _, tm := range sched.TimesFor(date) {
			if tm == prev {
				continue
			}
			prev = tm
			slot := Slot{Date: date, Time: tm}
			instant, err := slot.At(now.Location())
			if err != nil {
				continue
			}
			if !instant.After(now) {
				continue
			}
			if booked.Contains(slot) {
				continue
			}
			out = append(out, slot)
		}
	}
	return out
}

// Preview bounds a slot list to its first n entries, for list views.
func Preview(slots []Slot, n int) []Slot {
	if n < 0 {
		n = 0
	}
	if len(slots) <= n {
		return slots
	}
	return slots[:n]
}
