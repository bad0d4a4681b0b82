package pg

import (
	"context"
	"database/sql"
	"errors"

	"taskdeck.org/internal/tasks"
)

// TaskStore implements tasks.Store on PostgreSQL. Creator and assignee
// usernames are joined at read time.
type TaskStore struct {
	db *sql.DB
}

var _ tasks.Store = (*TaskStore)(nil)

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.due_date,
	t.image_id, t.image_url,
	t.created_by, c.username,
	t.assigned_to, a.username,
	t.created_at, t.updated_at`

const taskJoins = `from tasks t
	join identities c on c.id = t.created_by
	join identities a on a.id = t.assigned_to`

func scanTask(row interface{ Scan(...any) error }) (*tasks.Task, error) {
	var task tasks.Task
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.DueDate,
		&task.Image.ID, &task.Image.URL,
		&task.CreatedBy.ID, &task.CreatedBy.Username,
		&task.AssignedTo.ID, &task.AssignedTo.Username,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskStore) Create(ctx context.Context, task *tasks.Task) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tasks
			(id, title, description, status, priority, due_date, image_id, image_url, created_by, assigned_to, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, task.ID, task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.Image.ID, task.Image.URL, task.CreatedBy.ID, task.AssignedTo.ID,
		task.CreatedAt, task.UpdatedAt)
	return err
}

func (s *TaskStore) Find(ctx context.Context, id string) (*tasks.Task, error) {
	row := s.db.QueryRowContext(ctx, `select `+taskColumns+` `+taskJoins+` where t.id=$1`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tasks.ErrNotFound
	}
	return task, err
}

func (s *TaskStore) ListByCreator(ctx context.Context, creatorID string) ([]*tasks.Task, error) {
	return s.listWhere(ctx, `t.created_by=$1`, creatorID)
}

func (s *TaskStore) ListByAssignee(ctx context.Context, assigneeID string) ([]*tasks.Task, error) {
	return s.listWhere(ctx, `t.assigned_to=$1`, assigneeID)
}

func (s *TaskStore) listWhere(ctx context.Context, cond, arg string) ([]*tasks.Task, error) {
	rows, err := s.db.QueryContext(ctx, `select `+taskColumns+` `+taskJoins+` where `+cond+` order by t.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tasks.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *TaskStore) Update(ctx context.Context, task *tasks.Task) error {
	res, err := s.db.ExecContext(ctx, `
		update tasks
		set title=$2, description=$3, status=$4, priority=$5, due_date=$6,
			image_id=$7, image_url=$8, assigned_to=$9, updated_at=$10
		where id=$1
	`, task.ID, task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.Image.ID, task.Image.URL, task.AssignedTo.ID, task.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res, tasks.ErrNotFound)
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, tasks.ErrNotFound)
}
