package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/salahplan/internal/timerange"
)

func validTask() Task {
	return Task{
		ID:       "1741600000000",
		Origin:   UserOrigin(),
		Title:    "Write report",
		Category: CategoryWork,
		Time:     timerange.ParseWindow("09:00 AM – 10:00 AM"),
		Status:   StatusPending,
		Date:     "2026-03-10",
	}
}

func TestTaskValidateSuccess(t *testing.T) {
	if err := validTask().Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateInvalidEnums(t *testing.T) {
	task := validTask()
	task.Status = Status("Snoozed")
	if err := task.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}

	task.Status = StatusDone
	task.Category = Category("Chores")
	if err := task.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got: %v", err)
	}

	task.Category = CategoryHome
	task.Recurrence = &Recurrence{Frequency: "Hourly"}
	if err := task.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got: %v", err)
	}

	task.Recurrence = nil
	task.Date = "10/03/2026"
	if err := task.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got: %v", err)
	}
}

func TestTaskValidateRequiresTitle(t *testing.T) {
	task := validTask()
	task.Title = "   "
	err := task.Validate()
	if err == nil || err.Error() != "model: task title is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatusToggled(t *testing.T) {
	if StatusPending.Toggled() != StatusDone || StatusDone.Toggled() != StatusPending {
		t.Fatal("toggle should flip Pending and Done")
	}
}

func TestTaskOriginInferredFromID(t *testing.T) {
	raw := `[
		{"id":"prayer-fajr","title":"Fajr Prayer","category":"Personal","time":"05:10 AM – 05:40 AM","status":"Pending","date":"2026-03-10"},
		{"id":"health-quran-recitation","title":"Daily Quran Recitation","category":"Health","time":"04:40 AM – 05:10 AM","status":"Done","date":"2026-03-10"},
		{"id":"1741600000000","title":"Call bank","category":"Finance","time":"11:00 AM","status":"Pending","date":"2026-03-10","reminder":10}
	]`
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if tasks[0].Origin != PrayerOrigin() {
		t.Fatalf("expected prayer origin, got %v", tasks[0].Origin)
	}
	if tasks[1].Origin != HealthOrigin(HabitQuran) || tasks[1].ID != QuranTaskID {
		t.Fatalf("expected quran origin, got %v", tasks[1].Origin)
	}
	if tasks[2].Origin != UserOrigin() || tasks[2].Reminder != 10 {
		t.Fatalf("unexpected user task: %+v", tasks[2])
	}
	if tasks[2].Time.Span {
		t.Fatal("single instant should not be a span")
	}
}

func TestTaskJSONKeepsOrigin(t *testing.T) {
	task := validTask()
	task.Origin = HealthOrigin(HabitGym)
	task.ID = HealthTaskID(HabitGym)
	b, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var back Task
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if back.Origin.String() != "health:gym" {
		t.Fatalf("unexpected origin: %q", back.Origin.String())
	}
	if back.Time.String() != "09:00 AM – 10:00 AM" {
		t.Fatalf("unexpected time: %q", back.Time.String())
	}
}

func TestTaskRangeOvernight(t *testing.T) {
	task := validTask()
	task.Time = timerange.ParseWindow("10:00 PM – 06:00 AM")
	r, ok := task.Range(time.UTC)
	if !ok {
		t.Fatal("expected a concrete range")
	}
	if r.End.Format("2006-01-02 15:04") != "2026-03-11 06:00" || r.Minutes() != 480 {
		t.Fatalf("unexpected overnight range: %v – %v", r.Start, r.End)
	}

	task.Time = timerange.Raw("after lunch")
	if _, ok := task.Range(time.UTC); ok {
		t.Fatal("raw time should not produce a range")
	}
}
