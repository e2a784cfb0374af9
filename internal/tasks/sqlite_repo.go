package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is RFC3339 with fixed nanosecond width. Fixed width keeps
// lexicographic order equal to chronological order, which the range queries
// and ORDER BY clauses rely on. All values are stored in UTC.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable pragmas for an app server
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

// ApplyMigrations ensures schema exists. The compound index over
// (reminder_at, reminder_sent, owner_id) is what keeps the reminder sweep
// from scanning the whole table.
func (r *SQLiteRepo) ApplyMigrations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_date TEXT,
	reminder_at TEXT,
	reminder_sent INTEGER NOT NULL DEFAULT 0,
	priority TEXT NOT NULL DEFAULT 'medium',
	tags TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_reminder ON tasks(reminder_at, reminder_sent, owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_due ON tasks(owner_id, due_date);
	`)
	return err
}

const taskColumns = `id, owner_id, title, description, due_date, reminder_at,
	reminder_sent, priority, tags, status, created_at, updated_at`

func (r *SQLiteRepo) Create(ctx context.Context, ownerID string, in NewTask) (Task, error) {
	t, err := buildTask(ownerID, in, time.Now().UTC())
	if err != nil {
		return Task{}, err
	}
	t.ID = uuid.NewString()

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return Task{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.OwnerID, t.Title, t.Description,
		fmtNullableTime(t.DueDate), fmtNullableTime(t.ReminderAt),
		boolToInt(t.ReminderSent), string(t.Priority), string(tags),
		string(t.Status), fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
	)
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func (r *SQLiteRepo) FindByID(ctx context.Context, ownerID, id string) (Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepo) FindByFilter(ctx context.Context, ownerID string, f Filter) ([]Task, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Tag != "" {
		// tags is a JSON array column; membership via json_each
		where = append(where, "EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value = ?)")
		args = append(args, f.Tag)
	}
	if f.DueFrom != nil {
		where = append(where, "due_date >= ?")
		args = append(args, fmtTime(*f.DueFrom))
	}
	if f.DueTo != nil {
		where = append(where, "due_date <= ?")
		args = append(args, fmtTime(*f.DueTo))
	}
	if f.DueBefore != nil {
		where = append(where, "due_date < ?")
		args = append(args, fmtTime(*f.DueBefore))
	}

	// NULL due dates sort first under ASC, matching the in-memory repo.
	query := fmt.Sprintf(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE %s
		ORDER BY due_date ASC, created_at DESC
	`, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteRepo) Update(ctx context.Context, ownerID, id string, patch TaskPatch) (Task, error) {
	current, err := r.FindByID(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}
	updated, err := applyPatch(current, patch, time.Now().UTC())
	if err != nil {
		return Task{}, err
	}
	tags, err := json.Marshal(updated.Tags)
	if err != nil {
		return Task{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, reminder_at = ?,
			reminder_sent = ?, priority = ?, tags = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`,
		updated.Title, updated.Description,
		fmtNullableTime(updated.DueDate), fmtNullableTime(updated.ReminderAt),
		boolToInt(updated.ReminderSent), string(updated.Priority), string(tags),
		string(updated.Status), fmtTime(updated.UpdatedAt),
		id, ownerID,
	)
	if err != nil {
		return Task{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Task{}, err
	} else if n == 0 {
		return Task{}, ErrNotFound
	}
	return updated, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM tasks WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) FindDueReminders(ctx context.Context, now time.Time) ([]Task, error) {
	// The status filter lives in the query itself: done tasks must never
	// surface as due, even transiently.
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE reminder_at IS NOT NULL
		  AND reminder_at <= ?
		  AND reminder_sent = 0
		  AND status != 'done'
		ORDER BY reminder_at ASC
	`, fmtTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteRepo) MarkReminderSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET reminder_sent = 1, updated_at = ? WHERE id = ?
	`, fmtTime(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t        Task
		due, rem sql.NullString
		sent     int
		tags     string
		created  string
		updated  string
		priority string
		status   string
	)
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &due, &rem,
		&sent, &priority, &tags, &status, &created, &updated,
	)
	if err != nil {
		return Task{}, err
	}

	t.ReminderSent = sent != 0
	t.Priority = Priority(priority)
	t.Status = Status(status)
	if t.DueDate, err = parseNullableTime(due); err != nil {
		return Task{}, err
	}
	if t.ReminderAt, err = parseNullableTime(rem); err != nil {
		return Task{}, err
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Task{}, err
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return Task{}, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return Task{}, err
	}
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	out := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func fmtNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SQLiteFileDSN builds a DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}
