package httpapi

import (
	"net/http"
	"testing"
)

func TestNoteCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "secret123")
	cookie := env.login(t, "a@x.com", "secret123")

	rr := env.doJSON(t, http.MethodPost, "/api/v1/notes/create", map[string]string{
		"title": "Groceries", "content": "milk",
	}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	note := dataObject(t, decodeBody(t, rr))
	id, _ := note["id"].(string)
	if id == "" {
		t.Fatal("expected note id")
	}
	owner, _ := note["user"].(map[string]any)
	if owner["username"] != "alice" {
		t.Fatalf("expected owner ref, got %v", note["user"])
	}

	rr = env.doJSON(t, http.MethodGet, "/api/v1/notes/my-notes", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("my-notes: expected 200, got %d", rr.Code)
	}
	if list, _ := decodeBody(t, rr)["data"].([]any); len(list) != 1 {
		t.Fatalf("expected one note, got %v", list)
	}

	rr = env.doJSON(t, http.MethodPut, "/api/v1/notes/note/"+id, map[string]any{
		"completed": true,
	}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if updated := dataObject(t, decodeBody(t, rr)); updated["completed"] != true {
		t.Fatalf("expected completed note, got %v", updated)
	}

	rr = env.doJSON(t, http.MethodDelete, "/api/v1/notes/note/"+id, nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
	rr = env.doJSON(t, http.MethodGet, "/api/v1/notes/note/"+id, nil, cookie)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rr.Code)
	}
}

func TestNoteForbiddenForStranger(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "secret123")
	env.register(t, "bob", "b@x.com", "secret123")
	aliceCookie := env.login(t, "a@x.com", "secret123")
	bobCookie := env.login(t, "b@x.com", "secret123")

	rr := env.doJSON(t, http.MethodPost, "/api/v1/notes/create", map[string]string{
		"title": "private", "content": "secret",
	}, aliceCookie)
	id, _ := dataObject(t, decodeBody(t, rr))["id"].(string)

	rr = env.doJSON(t, http.MethodGet, "/api/v1/notes/note/"+id, nil, bobCookie)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("stranger read: expected 403, got %d", rr.Code)
	}
	rr = env.doJSON(t, http.MethodDelete, "/api/v1/notes/note/"+id, nil, bobCookie)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("stranger delete: expected 403, got %d", rr.Code)
	}

	// Bob's listing never shows it either.
	rr = env.doJSON(t, http.MethodGet, "/api/v1/notes/my-notes", nil, bobCookie)
	if list, _ := decodeBody(t, rr)["data"].([]any); len(list) != 0 {
		t.Fatalf("expected empty listing for bob, got %v", list)
	}
}

func TestNoteValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "secret123")
	cookie := env.login(t, "a@x.com", "secret123")

	rr := env.doJSON(t, http.MethodPost, "/api/v1/notes/create", map[string]string{
		"title": "no content",
	}, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	// Unknown JSON fields are rejected.
	rr = env.doJSON(t, http.MethodPost, "/api/v1/notes/create", map[string]string{
		"title": "t", "content": "c", "owner": "evil",
	}, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rr.Code)
	}
}
