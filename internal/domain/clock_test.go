package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]TimeOfDay{"00:00": 0, "09:00": 540, "9:30": 570, "23:59": 1439}
	for in, want := range valid {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q = %d, want %d", in, got, want)
		}
	}
	for _, in := range []string{"", "24:00", "12:60", "1200", "12:5", "ab:cd", "123:00"} {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	entry := ScheduleEntry{Day: time.Monday, Time: MustTimeOfDay("07:05")}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"day":1,"time":"07:05"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	var back ScheduleEntry
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != entry {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"day":1,"time":"7h"}`), &back); err == nil {
		t.Fatal("expected error for malformed time")
	}
}

func TestDateHelpers(t *testing.T) {
	at := time.Date(2024, 5, 27, 9, 45, 0, 0, time.UTC)
	d := DateOf(at)
	if d != "2024-05-27" {
		t.Fatalf("DateOf = %s", d)
	}
	if d.Weekday() != time.Monday {
		t.Fatalf("weekday = %s", d.Weekday())
	}
	if TimeOfDayOf(at) != MustTimeOfDay("09:45") {
		t.Fatalf("TimeOfDayOf = %s", TimeOfDayOf(at))
	}
	start, err := d.At(MustTimeOfDay("10:00"), time.UTC)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if !start.Equal(time.Date(2024, 5, 27, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("At = %s", start)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Fatal("expected invalid month error")
	}
}
