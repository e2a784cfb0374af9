package tasks

import (
	"context"
	"testing"
	"time"
)

const testOwner = "default"

func TestMemoryRepo_CreateDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	_, err := repo.Create(ctx, testOwner, NewTask{Title: "   "})
	if err != ErrTitleRequired {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}

	got, err := repo.Create(ctx, testOwner, NewTask{Title: "  pay bill  ", Description: " water "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID == "" {
		t.Errorf("expected generated id")
	}
	if got.Title != "pay bill" {
		t.Errorf("expected trimmed title, got %q", got.Title)
	}
	if got.Description != "water" {
		t.Errorf("expected trimmed description, got %q", got.Description)
	}
	if got.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %q", got.Priority)
	}
	if got.Status != StatusPending {
		t.Errorf("expected default status pending, got %q", got.Status)
	}
	if got.ReminderSent {
		t.Errorf("new tasks must not be marked reminder-sent")
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("expected empty tags slice, got %#v", got.Tags)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("expected timestamps to be set")
	}
}

func TestMemoryRepo_ListOrdering(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	clock := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	jan1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	jan2 := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	// C created before B; both due Jan 1. A due Jan 2.
	c, _ := repo.Create(ctx, testOwner, NewTask{Title: "C", DueDate: &jan1})
	b, _ := repo.Create(ctx, testOwner, NewTask{Title: "B", DueDate: &jan1})
	a, _ := repo.Create(ctx, testOwner, NewTask{Title: "A", DueDate: &jan2})

	list, err := repo.FindByFilter(ctx, testOwner, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(list))
	}
	// Same due date orders newest-created first: B, C, then A.
	if list[0].ID != b.ID || list[1].ID != c.ID || list[2].ID != a.ID {
		t.Fatalf("unexpected order: %s, %s, %s", list[0].Title, list[1].Title, list[2].Title)
	}
}

func TestMemoryRepo_UpdatePartial(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, testOwner, NewTask{
		Title:    "original",
		Priority: PriorityHigh,
		Tags:     []string{"home", "urgent"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "renamed"
	got, err := repo.Update(ctx, testOwner, created.ID, TaskPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "renamed" {
		t.Errorf("title not updated: %q", got.Title)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("unsupplied priority changed: %q", got.Priority)
	}
	if len(got.Tags) != 2 {
		t.Errorf("unsupplied tags changed: %#v", got.Tags)
	}

	empty := "   "
	if _, err := repo.Update(ctx, testOwner, created.ID, TaskPatch{Title: &empty}); err != ErrTitleRequired {
		t.Fatalf("expected ErrTitleRequired for blank title, got %v", err)
	}

	if _, err := repo.Update(ctx, testOwner, "missing", TaskPatch{Title: &newTitle}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_UpdateReminderAtClearsSent(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	created, err := repo.Create(ctx, testOwner, NewTask{Title: "call mom", ReminderAt: &past})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkReminderSent(ctx, created.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	// Supplying a new reminder time re-arms the reminder.
	later := time.Now().Add(time.Hour)
	got, err := repo.Update(ctx, testOwner, created.ID, TaskPatch{
		ReminderAt: OptionalTime{Set: true, Value: &later},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ReminderSent {
		t.Fatalf("reminderSent must reset when reminderAt is supplied")
	}

	// Explicit null also resets the flag.
	if err := repo.MarkReminderSent(ctx, created.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	got, err = repo.Update(ctx, testOwner, created.ID, TaskPatch{
		ReminderAt: OptionalTime{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ReminderAt != nil {
		t.Errorf("expected reminderAt cleared")
	}
	if got.ReminderSent {
		t.Errorf("reminderSent must reset even when reminderAt is set to null")
	}

	// A patch without reminderAt leaves the flag alone.
	if err := repo.MarkReminderSent(ctx, created.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	desc := "updated"
	got, err = repo.Update(ctx, testOwner, created.ID, TaskPatch{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.ReminderSent {
		t.Errorf("reminderSent must survive updates that do not touch reminderAt")
	}
}

func TestMemoryRepo_DeleteMissing(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if err := repo.Delete(ctx, testOwner, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, _ := repo.Create(ctx, testOwner, NewTask{Title: "mine"})
	if err := repo.Delete(ctx, "someone-else", created.ID); err != ErrNotFound {
		t.Fatalf("owner mismatch should be ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, testOwner, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, testOwner, created.ID); err != ErrNotFound {
		t.Fatalf("expected task gone, got %v", err)
	}
}

func TestMemoryRepo_FindDueReminders(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due, _ := repo.Create(ctx, testOwner, NewTask{Title: "due", ReminderAt: &past})
	repo.Create(ctx, testOwner, NewTask{Title: "future", ReminderAt: &future})
	repo.Create(ctx, testOwner, NewTask{Title: "no reminder"})
	doneTask, _ := repo.Create(ctx, testOwner, NewTask{Title: "done", ReminderAt: &past, Status: StatusDone})
	sentTask, _ := repo.Create(ctx, testOwner, NewTask{Title: "sent", ReminderAt: &past})
	repo.MarkReminderSent(ctx, sentTask.ID)

	// The sweep spans owners.
	otherDue, _ := repo.Create(ctx, "other-owner", NewTask{Title: "other", ReminderAt: &past})

	got, err := repo.FindDueReminders(ctx, now)
	if err != nil {
		t.Fatalf("find due: %v", err)
	}
	ids := map[string]bool{}
	for _, task := range got {
		ids[task.ID] = true
	}
	if len(got) != 2 || !ids[due.ID] || !ids[otherDue.ID] {
		t.Fatalf("expected exactly the due set {due, other}, got %d: %v", len(got), ids)
	}
	if ids[doneTask.ID] {
		t.Errorf("done tasks must never be due")
	}
}
