package availability

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Schedule is a doctor's published availability: a mapping from ISO calendar
// date (YYYY-MM-DD) to the ordered list of open HH:MM slots for that day.
// An empty schedule is valid (no published slots), as is a date whose slot
// list is empty. Past dates are accepted on write; the picker filters them
// at read time.
type Schedule map[string][]string

// NewSchedule returns an empty schedule.
func NewSchedule() Schedule {
	return Schedule{}
}

// ValidateDate checks the YYYY-MM-DD key format.
func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("availability: %q: %w", date, ErrInvalidDate)
	}
	return nil
}

// ValidateTime checks the HH:MM 24-hour slot format.
func ValidateTime(tm string) error {
	if len(tm) != len(timeLayout) {
		return fmt.Errorf("availability: %q: %w", tm, ErrInvalidTime)
	}
	if _, err := time.Parse(timeLayout, tm); err != nil {
		return fmt.Errorf("availability: %q: %w", tm, ErrInvalidTime)
	}
	return nil
}

// Add publishes a slot. Adding a slot that already exists is a no-op; the
// time list is kept sorted ascending and the date key is created on demand.
func (s Schedule) Add(date, tm string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if err := ValidateTime(tm); err != nil {
		return err
	}
	times := s[date]
	for _, existing := range times {
		if existing == tm {
			return nil
		}
	}
	times = append(times, tm)
	sort.Strings(times)
	s[date] = times
	return nil
}

// RemoveTime withdraws one slot. Removing a time that does not exist is a
// no-op. The date key is retained even when its list becomes empty.
func (s Schedule) RemoveTime(date, tm string) {
	times, ok := s[date]
	if !ok {
		return
	}
	out := times[:0]
	for _, existing := range times {
		if existing != tm {
			out = append(out, existing)
		}
	}
	s[date] = out
}

// RemoveDate withdraws a whole day, cascading all its slots.
func (s Schedule) RemoveDate(date string) {
	delete(s, date)
}

// Dates returns the schedule's date keys in ascending order. Lexical order
// equals chronological order for YYYY-MM-DD keys.
func (s Schedule) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// TimesFor returns the sorted slot list for a date, nil when absent.
func (s Schedule) TimesFor(date string) []string {
	times, ok := s[date]
	if !ok {
		return nil
	}
	out := make([]string, len(times))
	copy(out, times)
	sort.Strings(out)
	return out
}

// Has reports whether the schedule publishes the given (date, time) pair.
func (s Schedule) Has(date, tm string) bool {
	for _, existing := range s[date] {
		if existing == tm {
			return true
		}
	}
	return false
}

// SlotCount returns the total number of published slots.
func (s Schedule) SlotCount() int {
	n := 0
	for _, times := range s {
		n += len(times)
	}
	return n
}

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for d, times := range s {
		copied := make([]string, len(times))
		copy(copied, times)
		out[d] = copied
	}
	return out
}

// Validate checks every date key, every slot, and rejects duplicate slots
// within one date.
func (s Schedule) Validate() error {
	for _, date := range s.Dates() {
		if err := ValidateDate(date); err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(s[date]))
		for _, tm := range s[date] {
			if err := ValidateTime(tm); err != nil {
				return fmt.Errorf("availability: date %s: %w", date, err)
			}
			if _, dup := seen[tm]; dup {
				return fmt.Errorf("availability: date %s time %s: %w", date, tm, ErrDuplicateTime)
			}
			seen[tm] = struct{}{}
		}
	}
	return nil
}

// ParseSchedule parses the editor's structured-text form. A parse or
// validation failure returns an error and no schedule, so callers keep
// their current state untouched.
func ParseSchedule(data []byte) (Schedule, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("availability: parse schedule: %w", err)
	}
	sched := Schedule(raw)
	if sched == nil {
		sched = NewSchedule()
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	// Normalize ordering so parse(serialize(s)) == s holds slot-for-slot.
	for date, times := range sched {
		sort.Strings(times)
		sched[date] = times
	}
	return sched, nil
}

// Serialize renders the schedule to the editor's structured-text form.
// Keys are emitted in ascending date order.
func (s Schedule) Serialize() ([]byte, error) {
	if s == nil {
		s = NewSchedule()
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("availability: serialize schedule: %w", err)
	}
	return data, nil
}
