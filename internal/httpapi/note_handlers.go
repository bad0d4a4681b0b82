package httpapi

import (
	"net/http"

	"taskdeck.org/internal/audit"
	"taskdeck.org/internal/notes"
)

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateNoteRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}

func (a *API) handleNoteCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	note, err := a.notes.Create(r.Context(), sess, req.Title, req.Content)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "note.create", map[string]any{"note": note.ID})
	writeSuccess(w, http.StatusCreated, "Note created successfully", note, nil)
}

func (a *API) handleMyNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	list, err := a.notes.ListMine(r.Context(), sess)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Notes fetched successfully", list, nil)
}

func (a *API) handleNoteResource(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	id, ok := pathSuffix(r.URL.Path, apiPrefix+"/notes/note/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := a.notes.Get(r.Context(), sess, id)
		if err != nil {
			a.handleDomainError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Note fetched successfully", note, nil)

	case http.MethodPut:
		var req updateNoteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		note, err := a.notes.Update(r.Context(), sess, id, notes.Update{
			Title:     req.Title,
			Content:   req.Content,
			Completed: req.Completed,
		})
		if err != nil {
			a.handleDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "note.update", map[string]any{"note": note.ID})
		writeSuccess(w, http.StatusOK, "Note updated successfully", note, nil)

	case http.MethodDelete:
		if err := a.notes.Delete(r.Context(), sess, id); err != nil {
			a.handleDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "note.delete", map[string]any{"note": id})
		writeSuccess(w, http.StatusOK, "Note deleted successfully", nil, nil)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
