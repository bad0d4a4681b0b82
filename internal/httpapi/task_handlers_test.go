package httpapi

import (
	"net/http"
	"testing"
)

func TestTaskCreateAndViews(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "secret123")
	body := env.register(t, "bob", "b@x.com", "secret123")
	bobID, _ := dataObject(t, body)["id"].(string)
	env.register(t, "carol", "c@x.com", "secret123")
	aliceCookie := env.login(t, "a@x.com", "secret123")
	bobCookie := env.login(t, "b@x.com", "secret123")
	carolCookie := env.login(t, "c@x.com", "secret123")

	rr := env.postMultipart(t, "/api/v1/tasks/create", map[string]string{
		"title":       "Ship release",
		"description": "cut the tag",
		"assignedTo":  bobID,
	}, nil, aliceCookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	task := dataObject(t, decodeBody(t, rr))
	if task["status"] != "pending" || task["priority"] != "medium" {
		t.Fatalf("unexpected defaults: %v", task)
	}
	image, _ := task["image"].(map[string]any)
	if image["url"] != "https://via.placeholder.com/150" {
		t.Fatalf("expected placeholder image, got %v", image)
	}

	// Creator sees it in my-tasks, assignee in assigned-tasks, a third
	// identity in neither.
	rr = env.doJSON(t, http.MethodGet, "/api/v1/tasks/my-tasks", nil, aliceCookie)
	if list, _ := decodeBody(t, rr)["data"].([]any); len(list) != 1 {
		t.Fatalf("creator view: expected one task, got %v", list)
	}
	rr = env.doJSON(t, http.MethodGet, "/api/v1/tasks/assigned-tasks", nil, bobCookie)
	if list, _ := decodeBody(t, rr)["data"].([]any); len(list) != 1 {
		t.Fatalf("assignee view: expected one task, got %v", list)
	}
	for _, path := range []string{"/api/v1/tasks/my-tasks", "/api/v1/tasks/assigned-tasks"} {
		rr = env.doJSON(t, http.MethodGet, path, nil, carolCookie)
		if list, _ := decodeBody(t, rr)["data"].([]any); len(list) != 0 {
			t.Fatalf("third identity %s: expected empty, got %v", path, list)
		}
	}
}

func TestTaskUpdateOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	body := env.register(t, "alice", "a@x.com", "secret123")
	aliceID, _ := dataObject(t, body)["id"].(string)
	aliceCookie := env.login(t, "a@x.com", "secret123")

	rr := env.postMultipart(t, "/api/v1/tasks/create", map[string]string{
		"title": "t", "description": "d", "assignedTo": aliceID,
	}, nil, aliceCookie)
	id, _ := dataObject(t, decodeBody(t, rr))["id"].(string)

	rr = env.doMultipart(t, http.MethodPut, "/api/v1/tasks/update/"+id, map[string]string{
		"status":   "completed",
		"priority": "high",
		"dueDate":  "2025-12-01",
	}, nil, aliceCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	task := dataObject(t, decodeBody(t, rr))
	if task["status"] != "completed" || task["priority"] != "high" {
		t.Fatalf("unexpected task after update: %v", task)
	}

	rr = env.doMultipart(t, http.MethodPut, "/api/v1/tasks/update/"+id, map[string]string{
		"status": "archived",
	}, nil, aliceCookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", rr.Code)
	}
}

func TestTaskUpdateForbiddenForAssignee(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "secret123")
	body := env.register(t, "bob", "b@x.com", "secret123")
	bobID, _ := dataObject(t, body)["id"].(string)
	aliceCookie := env.login(t, "a@x.com", "secret123")
	bobCookie := env.login(t, "b@x.com", "secret123")

	rr := env.postMultipart(t, "/api/v1/tasks/create", map[string]string{
		"title": "t", "description": "d", "assignedTo": bobID,
	}, nil, aliceCookie)
	id, _ := dataObject(t, decodeBody(t, rr))["id"].(string)

	rr = env.doMultipart(t, http.MethodPut, "/api/v1/tasks/update/"+id, map[string]string{
		"status": "completed",
	}, nil, bobCookie)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("assignee update: expected 403, got %d", rr.Code)
	}
	rr = env.doJSON(t, http.MethodDelete, "/api/v1/tasks/delete/"+id, nil, bobCookie)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("assignee delete: expected 403, got %d", rr.Code)
	}
}

func TestTaskImageUploadAndReplace(t *testing.T) {
	env := newTestEnv(t)
	body := env.register(t, "alice", "a@x.com", "secret123")
	aliceID, _ := dataObject(t, body)["id"].(string)
	cookie := env.login(t, "a@x.com", "secret123")

	rr := env.postMultipart(t, "/api/v1/tasks/create", map[string]string{
		"title": "t", "description": "d", "assignedTo": aliceID,
	}, []byte("first"), cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	task := dataObject(t, decodeBody(t, rr))
	id, _ := task["id"].(string)
	image, _ := task["image"].(map[string]any)
	first, _ := image["public_id"].(string)
	if first == "" {
		t.Fatal("expected stored image id")
	}

	rr = env.doMultipart(t, http.MethodPut, "/api/v1/tasks/update/"+id, nil, []byte("second"), cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if len(env.media.destroyed) != 1 || env.media.destroyed[0] != first {
		t.Fatalf("expected first image released, got %v", env.media.destroyed)
	}
}

func TestTaskCreateUnknownAssignee(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "secret123")
	cookie := env.login(t, "a@x.com", "secret123")

	rr := env.postMultipart(t, "/api/v1/tasks/create", map[string]string{
		"title": "t", "description": "d", "assignedTo": "01GHOST",
	}, nil, cookie)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown assignee: expected 404, got %d (%s)", rr.Code, rr.Body.String())
	}
}
