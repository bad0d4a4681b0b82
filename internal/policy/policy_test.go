package policy

import "testing"

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name    string
		actor   string
		admin   bool
		owner   string
		op      Operation
		allowed bool
	}{
		{"owner reads", "u1", false, "u1", OpRead, true},
		{"owner updates", "u1", false, "u1", OpUpdate, true},
		{"owner deletes", "u1", false, "u1", OpDelete, true},
		{"stranger reads", "u2", false, "u1", OpRead, false},
		{"stranger updates", "u2", false, "u1", OpUpdate, false},
		{"stranger deletes", "u2", false, "u1", OpDelete, false},
		{"admin override", "u2", true, "u1", OpDelete, true},
		{"unknown operation", "u1", false, "u1", Operation("archive"), false},
		{"empty actor", "", false, "u1", OpRead, false},
		{"empty owner", "u1", false, "", OpRead, false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.actor, tc.admin, tc.owner, tc.op); got != tc.allowed {
			t.Fatalf("%s: CanAccess=%v, want %v", tc.name, got, tc.allowed)
		}
	}
}
