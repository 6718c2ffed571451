package task

import "context"

// Repository scopes every operation to an owner. A task belonging to someone
// else is indistinguishable from a task that does not exist.
type Repository interface {
	ListByOwner(context context.Context, ownerID string) ([]*Task, error)
	FindByOwner(context context.Context, ownerID, taskID string) (*Task, error)
	Create(context context.Context, task *Task) error
	Update(context context.Context, task *Task) error
	Delete(context context.Context, ownerID, taskID string) error
}
