// Package policy holds the ownership authorization decision. It is pure:
// callers load the resource and the actor, policy only answers whether the
// combination is allowed.
package policy

// Operation enumerates the record-level actions subject to ownership checks.
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// CanAccess reports whether the actor may perform op on a record owned by
// ownerID. Access is discretionary: the owner may do everything, an admin may
// override, nobody else may do anything. Which identity counts as "owner" is
// the resource's call: for notes it is the owning user, for tasks the
// creator.
func CanAccess(actorID string, admin bool, ownerID string, op Operation) bool {
	if actorID == "" || ownerID == "" {
		return false
	}
	switch op {
	case OpRead, OpUpdate, OpDelete:
	default:
		return false
	}
	if admin {
		return true
	}
	return actorID == ownerID
}
