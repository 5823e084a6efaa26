package availability

import (
	"reflect"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

func TestUpcomingFiltersPastSlots(t *testing.T) {
	// At 09:30 the 09:00 slot on the 1st is past and the 2nd has no slots.
	sched := Schedule{
		"2025-03-01": {"09:00", "10:00"},
		"2025-03-02": {},
	}
	now := mustTime(t, "2025-03-01T09:30")

	got := Upcoming(sched, now, nil)
	want := []Slot{{Date: "2025-03-01", Time: "10:00"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Upcoming = %v, want %v", got, want)
	}
}

func TestUpcomingExcludesSlotEqualToNow(t *testing.T) {
	sched := Schedule{"2025-03-01": {"09:30"}}
	now := mustTime(t, "2025-03-01T09:30")
	if got := Upcoming(sched, now, nil); len(got) != 0 {
		t.Fatalf("slot equal to now must be excluded, got %v", got)
	}
}

func TestUpcomingExcludesBookedSlots(t *testing.T) {
	sched := Schedule{
		"2025-03-01": {"09:00", "10:00"},
		"2025-03-03": {"08:00"},
	}
	now := mustTime(t, "2025-02-28T12:00")
	booked := NewSlotSet(mustTime(t, "2025-03-01T10:00"))

	got := Upcoming(sched, now, booked)
	want := []Slot{
		{Date: "2025-03-01", Time: "09:00"},
		{Date: "2025-03-03", Time: "08:00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Upcoming = %v, want %v", got, want)
	}
}

func TestUpcomingIsChronological(t *testing.T) {
	sched := Schedule{
		"2025-03-02": {"08:00", "07:00"},
		"2025-03-01": {"23:00"},
	}
	now := mustTime(t, "2025-01-01T00:00")

	got := Upcoming(sched, now, nil)
	want := []Slot{
		{Date: "2025-03-01", Time: "23:00"},
		{Date: "2025-03-02", Time: "07:00"},
		{Date: "2025-03-02", Time: "08:00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Upcoming = %v, want %v", got, want)
	}
}

func TestUpcomingSkipsMalformedAndDuplicateEntries(t *testing.T) {
	sched := Schedule{
		"2025-03-01": {"09:00", "09:00", "quarter past"},
		"not-a-date": {"09:00"},
	}
	now := mustTime(t, "2025-01-01T00:00")

	got := Upcoming(sched, now, nil)
	want := []Slot{{Date: "2025-03-01", Time: "09:00"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Upcoming = %v, want %v", got, want)
	}
}

func TestUpcomingNeverReturnsPast(t *testing.T) {
	sched := Schedule{
		"2025-03-01": {"06:00", "09:00", "12:00", "18:00"},
		"2025-03-02": {"06:00"},
	}
	now := mustTime(t, "2025-03-01T12:00")
	for _, slot := range Upcoming(sched, now, nil) {
		instant, err := slot.At(now.Location())
		if err != nil {
			t.Fatalf("returned slot does not parse: %v", err)
		}
		if !instant.After(now) {
			t.Fatalf("slot %v is not strictly after now", slot)
		}
	}
}

func TestPreview(t *testing.T) {
	slots := []Slot{
		{Date: "2025-03-01", Time: "09:00"},
		{Date: "2025-03-01", Time: "10:00"},
		{Date: "2025-03-02", Time: "09:00"},
		{Date: "2025-03-02", Time: "10:00"},
	}
	if got := Preview(slots, 3); len(got) != 3 {
		t.Fatalf("Preview(3) returned %d slots", len(got))
	}
	if got := Preview(slots, 10); len(got) != 4 {
		t.Fatalf("Preview larger than input should return all, got %d", len(got))
	}
	if got := Preview(slots, -1); len(got) != 0 {
		t.Fatalf("negative preview should return none, got %d", len(got))
	}
}

func TestSlotAtRejectsMalformed(t *testing.T) {
	if _, err := (Slot{Date: "2025-13-40", Time: "09:00"}).At(time.UTC); err == nil {
		t.Fatal("expected error for impossible date")
	}
	if _, err := (Slot{Date: "2025-03-01", Time: "24:00"}).At(time.UTC); err == nil {
		t.Fatal("expected error for impossible time")
	}
}

func TestSlotOfRoundTrip(t *testing.T) {
	instant := mustTime(t, "2025-03-01T10:00")
	slot := SlotOf(instant)
	if slot != (Slot{Date: "2025-03-01", Time: "10:00"}) {
		t.Fatalf("SlotOf = %v", slot)
	}
	back, err := slot.At(time.UTC)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !back.Equal(instant) {
		t.Fatalf("round trip mismatch: %v != %v", back, instant)
	}
}
