package tasks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTitleRequired = errors.New("title required")
	ErrNotFound      = errors.New("task not found")
)

// Filter is the predicate FindByFilter evaluates. Zero-value fields do not
// constrain. DueFrom/DueTo are inclusive bounds, DueBefore is exclusive.
type Filter struct {
	Status    Status
	Priority  Priority
	Tag       string
	DueFrom   *time.Time
	DueTo     *time.Time
	DueBefore *time.Time
}

type Repository interface {
	Create(ctx context.Context, ownerID string, in NewTask) (Task, error)
	FindByID(ctx context.Context, ownerID, id string) (Task, error)
	FindByFilter(ctx context.Context, ownerID string, f Filter) ([]Task, error)
	Update(ctx context.Context, ownerID, id string, patch TaskPatch) (Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	// FindDueReminders spans all owners: the reminder worker is a
	// background sweep over the whole store, not an owner-scoped view.
	FindDueReminders(ctx context.Context, now time.Time) ([]Task, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// MemoryRepo is the map-backed Repository used by handler and worker tests.
type MemoryRepo struct {
	mu    sync.Mutex
	store map[string]Task
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		store: make(map[string]Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source, for tests that need distinct
// createdAt values.
func (r *MemoryRepo) SetClock(now func() time.Time) { r.now = now }

func (r *MemoryRepo) Create(_ context.Context, ownerID string, in NewTask) (Task, error) {
	t, err := buildTask(ownerID, in, r.now())
	if err != nil {
		return Task{}, err
	}
	t.ID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) FindByID(_ context.Context, ownerID, id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok || t.OwnerID != ownerID {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) FindByFilter(_ context.Context, ownerID string, f Filter) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0)
	for _, t := range r.store {
		if t.OwnerID == ownerID && matchesFilter(t, f) {
			out = append(out, t)
		}
	}
	sortByDue(out)
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, ownerID, id string, patch TaskPatch) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok || t.OwnerID != ownerID {
		return Task{}, ErrNotFound
	}
	updated, err := applyPatch(t, patch, r.now())
	if err != nil {
		return Task{}, err
	}
	r.store[id] = updated
	return updated, nil
}

func (r *MemoryRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok || t.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.store, t.ID)
	return nil
}

func (r *MemoryRepo) FindDueReminders(_ context.Context, now time.Time) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0)
	for _, t := range r.store {
		if t.ReminderAt != nil && !t.ReminderAt.After(now) && !t.ReminderSent && t.Status != StatusDone {
			out = append(out, t)
		}
	}
	sortByDue(out)
	return out, nil
}

func (r *MemoryRepo) MarkReminderSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return ErrNotFound
	}
	t.ReminderSent = true
	t.UpdatedAt = r.now()
	r.store[id] = t
	return nil
}

// buildTask validates and defaults caller input into a persistable Task.
// Shared by both repository implementations so the rules cannot drift.
func buildTask(ownerID string, in NewTask, now time.Time) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrTitleRequired
	}

	t := Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		ReminderAt:  in.ReminderAt,
		Priority:    in.Priority,
		Tags:        trimTags(in.Tags),
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return t, nil
}

func applyPatch(t Task, patch TaskPatch, now time.Time) (Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Task{}, ErrTitleRequired
		}
		t.Title = title
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DueDate.Set {
		t.DueDate = patch.DueDate.Value
	}
	if patch.ReminderAt.Set {
		// A changed reminder time invalidates the old "sent" fact,
		// even when the new value is null.
		t.ReminderAt = patch.ReminderAt.Value
		t.ReminderSent = false
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		t.Tags = trimTags(*patch.Tags)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = now
	return t, nil
}

func trimTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = strings.TrimSpace(tag)
	}
	return out
}

func matchesFilter(t Task, f Filter) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !containsTag(t.Tags, f.Tag) {
		return false
	}
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueTo)) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	return true
}

func containsTag(tags []string, tag string) bool {
	for _, v := range tags {
		if v == tag {
			return true
		}
	}
	return false
}

// sortByDue orders dueDate ascending with unset due dates first, ties broken
// by createdAt descending (newest first). The default listing contract.
func sortByDue(list []Task) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return true
		case a.DueDate != nil && b.DueDate == nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
