package tasks

import "context"

// Store describes task persistence. Missing records map to ErrNotFound; the
// creator and assignee refs on returned tasks reflect current usernames.
type Store interface {
	Create(ctx context.Context, task *Task) error
	Find(ctx context.Context, id string) (*Task, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*Task, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}
