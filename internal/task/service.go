package task

import (
	"context"
	"log/slog"

	"github.com/taskora/taskora/pkg/uuidv7"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) List(context context.Context, ownerID string) ([]*Task, error) {
	return service.repo.ListByOwner(context, ownerID)
}

func (service *Service) Create(context context.Context, ownerID, title, description string) (*Task, error) {
	t := &Task{
		ID:          uuidv7.New(),
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Status:      StatusPending,
	}

	if err := service.repo.Create(context, t); err != nil {
		return nil, err
	}

	return t, nil
}

// Update applies a partial update to the owner's task. Unset fields keep
// their current values.
func (service *Service) Update(context context.Context, ownerID, taskID string, input UpdateInput) (*Task, error) {
	t, err := service.repo.FindByOwner(context, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Status != nil {
		t.Status = *input.Status
	}

	if err := service.repo.Update(context, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (service *Service) Delete(context context.Context, ownerID, taskID string) error {
	return service.repo.Delete(context, ownerID, taskID)
}
