package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	ReminderAt  *time.Time `json:"reminderAt"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending done"`
}

// updateTaskRequest is a partial update: absent fields stay untouched.
// reminderSent is deliberately not accepted; only the reminder worker
// writes it.
type updateTaskRequest struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	Description *string      `json:"description"`
	DueDate     OptionalTime `json:"dueDate"`
	ReminderAt  OptionalTime `json:"reminderAt"`
	Priority    *string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        *[]string    `json:"tags"`
	Status      *string      `json:"status" validate:"omitempty,oneof=pending done"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

var validate = validator.New()

// RegisterRoutes mounts the task API under /api/tasks. The owner id is
// threaded in explicitly from configuration; every repository call is scoped
// to it except the reminder sweep, which the worker owns.
func RegisterRoutes(r chi.Router, repo Repository, ownerID string) {
	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", createTask(repo, ownerID))
		r.Get("/", listTasks(repo, ownerID))
		r.Get("/filters/today", cannedFilter(repo, ownerID, TodayFilter))
		r.Get("/filters/overdue", cannedFilter(repo, ownerID, OverdueFilter))
		r.Get("/filters/upcoming", cannedFilter(repo, ownerID, UpcomingFilter))
		r.Get("/{id}", getTask(repo, ownerID))
		r.Put("/{id}", updateTask(repo, ownerID))
		r.Delete("/{id}", deleteTask(repo, ownerID))
	})
}

func createTask(repo Repository, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}
		if vErrs := validationDetails(validate.Struct(req)); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, err := repo.Create(r.Context(), ownerID, NewTask{
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			ReminderAt:  req.ReminderAt,
			Priority:    Priority(req.Priority),
			Tags:        req.Tags,
			Status:      Status(req.Status),
		})
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func listTasks(repo Repository, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		q := r.URL.Query()
		f := Filter{
			Status:   Status(q.Get("status")),
			Priority: Priority(q.Get("priority")),
			Tag:      q.Get("tag"),
		}
		list, err := repo.FindByFilter(r.Context(), ownerID, f)
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func cannedFilter(repo Repository, ownerID string, build func(time.Time) Filter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		list, err := repo.FindByFilter(r.Context(), ownerID, build(time.Now()))
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getTask(repo Repository, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		t, err := repo.FindByID(r.Context(), ownerID, chi.URLParam(r, "id"))
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func updateTask(repo Repository, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req updateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}
		if vErrs := validationDetails(validate.Struct(req)); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		patch := TaskPatch{
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			ReminderAt:  req.ReminderAt,
			Tags:        req.Tags,
		}
		if req.Priority != nil {
			p := Priority(*req.Priority)
			patch.Priority = &p
		}
		if req.Status != nil {
			s := Status(*req.Status)
			patch.Status = &s
		}

		t, err := repo.Update(r.Context(), ownerID, chi.URLParam(r, "id"), patch)
		if err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteTask(repo Repository, ownerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := repo.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
			writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
	}
}

func writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error: "validation_error",
			Details: []fieldError{
				{Field: "title", Message: "title is required"},
			},
		})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "task_not_found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
	}
}

func validationDetails(err error) []fieldError {
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return []fieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]fieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		out = append(out, fieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
