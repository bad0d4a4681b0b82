package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"taskdeck.org/internal/audit"
	"taskdeck.org/internal/tasks"
)

func (a *API) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	in := tasks.CreateInput{
		Title:       form.value("title"),
		Description: form.value("description"),
		Status:      form.value("status"),
		Priority:    form.value("priority"),
		AssignedTo:  form.value("assignedTo"),
		Image:       form.file,
	}
	if raw := form.value("dueDate"); raw != "" {
		due, err := parseDueDate(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		in.DueDate = &due
	}

	task, err := a.tasks.Create(r.Context(), sess, in)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "task.create", map[string]any{
		"task":     task.ID,
		"assignee": task.AssignedTo.ID,
	})
	writeSuccess(w, http.StatusCreated, "Task created successfully", task, nil)
}

func (a *API) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	list, err := a.tasks.ListCreated(r.Context(), sess)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Tasks fetched successfully", list, nil)
}

func (a *API) handleAssignedTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	list, err := a.tasks.ListAssigned(r.Context(), sess)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Tasks fetched successfully", list, nil)
}

func (a *API) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	id, ok := pathSuffix(r.URL.Path, apiPrefix+"/tasks/update/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var upd tasks.UpdateInput
	if form.has("title") {
		v := form.value("title")
		upd.Title = &v
	}
	if form.has("description") {
		v := form.value("description")
		upd.Description = &v
	}
	if form.has("status") {
		v := form.value("status")
		upd.Status = &v
	}
	if form.has("priority") {
		v := form.value("priority")
		upd.Priority = &v
	}
	if form.has("assignedTo") {
		v := form.value("assignedTo")
		upd.AssignedTo = &v
	}
	if form.has("dueDate") {
		due, err := parseDueDate(form.value("dueDate"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd.DueDate = &due
	}
	upd.Image = form.file

	task, err := a.tasks.Update(r.Context(), sess, id, upd)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "task.update", map[string]any{"task": task.ID})
	writeSuccess(w, http.StatusOK, "Task updated successfully", task, nil)
}

func (a *API) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	id, ok := pathSuffix(r.URL.Path, apiPrefix+"/tasks/delete/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if err := a.tasks.Delete(r.Context(), sess, id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "task.delete", map[string]any{"task": id})
	writeSuccess(w, http.StatusOK, "Task deleted successfully", nil, nil)
}

// parseDueDate accepts RFC 3339 or a bare date.
func parseDueDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dueDate must be RFC 3339 or YYYY-MM-DD, got %q", raw)
}
