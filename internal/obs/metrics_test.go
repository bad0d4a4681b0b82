package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"/metrics":                           "/metrics",
		"/api/v1/notes/note/abc":             "/api/v1/notes/note/:id",
		"/api/v1/tasks/update/abc":           "/api/v1/tasks/update/:id",
		"/api/v1/tasks/delete/abc":           "/api/v1/tasks/delete/:id",
		"/api/v1/users/reset-password/tok":   "/api/v1/users/reset-password/:id",
		"/api/v1/users/delete-user/abc":      "/api/v1/users/delete-user/:id",
		"/api/v1/notes/note/abc/extra":       "/api/v1/notes/note/abc/extra",
		"/api/v1/notes/my-notes":             "/api/v1/notes/my-notes",
		"/api/v1/tasks/my-tasks?limit=10":    "/api/v1/tasks/my-tasks",
		"/api/v1/users/my-profile":           "/api/v1/users/my-profile",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
