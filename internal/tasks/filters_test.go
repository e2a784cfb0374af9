package tasks

import (
	"context"
	"testing"
	"time"
)

func TestTodayFilter_Window(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.Local)
	f := TodayFilter(now)

	if f.Status != "" {
		t.Errorf("today must not constrain status, got %q", f.Status)
	}
	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
	if !f.DueFrom.Equal(wantStart) {
		t.Errorf("start = %v, want %v", f.DueFrom, wantStart)
	}
	wantEnd := time.Date(2024, 3, 16, 0, 0, 0, 0, time.Local).Add(-time.Nanosecond)
	if !f.DueTo.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", f.DueTo, wantEnd)
	}
}

func TestOverdueFilter(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.Local)
	f := OverdueFilter(now)

	if f.Status != StatusPending {
		t.Errorf("overdue must be pending-only, got %q", f.Status)
	}
	if !f.DueBefore.Equal(now) {
		t.Errorf("overdue bound = %v, want %v", f.DueBefore, now)
	}
	if f.DueFrom != nil || f.DueTo != nil {
		t.Errorf("overdue must not set inclusive bounds")
	}
}

func TestUpcomingFilter_SevenDayWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.Local)
	f := UpcomingFilter(now)

	if f.Status != StatusPending {
		t.Errorf("upcoming must be pending-only, got %q", f.Status)
	}
	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
	if !f.DueFrom.Equal(wantStart) {
		t.Errorf("start = %v, want %v", f.DueFrom, wantStart)
	}
	// Window includes today plus six more days.
	wantEnd := time.Date(2024, 3, 22, 0, 0, 0, 0, time.Local).Add(-time.Nanosecond)
	if !f.DueTo.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", f.DueTo, wantEnd)
	}
}

func TestCannedFilters_AgainstRepo(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now()

	inTwoHours := now.Add(2 * time.Hour)
	yesterday := now.AddDate(0, 0, -1)
	inThreeDays := now.AddDate(0, 0, 3)
	inTenDays := now.AddDate(0, 0, 10)

	today, _ := repo.Create(ctx, testOwner, NewTask{Title: "today", DueDate: &inTwoHours})
	overdue, _ := repo.Create(ctx, testOwner, NewTask{Title: "overdue", DueDate: &yesterday})
	repo.Create(ctx, testOwner, NewTask{Title: "overdue but done", DueDate: &yesterday, Status: StatusDone})
	soon, _ := repo.Create(ctx, testOwner, NewTask{Title: "soon", DueDate: &inThreeDays})
	repo.Create(ctx, testOwner, NewTask{Title: "far", DueDate: &inTenDays})
	repo.Create(ctx, testOwner, NewTask{Title: "undated"})

	// This test assumes "in two hours" is still the same local day; skip
	// the rare runs near midnight where that does not hold.
	if startOfDay(inTwoHours) != startOfDay(now) {
		t.Skip("too close to midnight for a stable today window")
	}

	got, err := repo.FindByFilter(ctx, testOwner, TodayFilter(now))
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(got) != 1 || got[0].ID != today.ID {
		t.Fatalf("today filter returned wrong set: %v", titles(got))
	}

	got, err = repo.FindByFilter(ctx, testOwner, OverdueFilter(now))
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(got) != 1 || got[0].ID != overdue.ID {
		t.Fatalf("overdue filter returned wrong set: %v", titles(got))
	}

	got, err = repo.FindByFilter(ctx, testOwner, UpcomingFilter(now))
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	ids := map[string]bool{}
	for _, task := range got {
		ids[task.ID] = true
	}
	if len(got) != 2 || !ids[today.ID] || !ids[soon.ID] {
		t.Fatalf("upcoming filter returned wrong set: %v", titles(got))
	}
}

func titles(list []Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Title
	}
	return out
}
