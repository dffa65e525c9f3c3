package services

import (
	"context"
	"strings"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
	"github.com/sirupsen/logrus"
)

const maxTitleLength = 500

// CreateTask adds a pending task to a property the caller can read.
func (s *Service) CreateTask(ctx context.Context, actor Actor, propertyID uint, title string) (types.TaskResponse, error) {
	const op = "services.CreateTask"
	log := s.log.WithField("operation", op)

	title = strings.TrimSpace(title)

	if title == "" {
		return types.TaskResponse{}, policy.Validation("title", "title is required")
	}

	if len(title) > maxTitleLength {
		return types.TaskResponse{}, policy.Validation("title", "title must be at most %d characters", maxTitleLength)
	}

	property, err := s.readableProperty(ctx, actor, propertyID)

	if err != nil {
		return types.TaskResponse{}, err
	}

	task := models.Task{Title: title, PropertyID: property.ID, CreatedByID: actor.ID}

	if err := s.repo.CreateTask(ctx, &task); err != nil {
		return types.TaskResponse{}, err
	}

	s.notify.PropertyChanged(property.ID)
	log.WithFields(logrus.Fields{"task_id": task.ID, "property_id": property.ID}).Info("task created")

	return types.NewTaskResponse(task), nil
}

// CompleteTask marks a pending task completed by the caller. Completing twice
// yields AlreadyCompleted and leaves the first completion in place.
func (s *Service) CompleteTask(ctx context.Context, actor Actor, taskID uint) (types.TaskResponse, error) {
	const op = "services.CompleteTask"
	log := s.log.WithField("operation", op)

	task, err := s.repo.GetTask(ctx, taskID)

	if err != nil {
		return types.TaskResponse{}, err
	}

	if _, err := s.readableProperty(ctx, actor, task.PropertyID); err != nil {
		return types.TaskResponse{}, err
	}

	if err := policy.Complete(&task, actor.ID, s.now()); err != nil {
		return types.TaskResponse{}, err
	}

	if err := s.repo.CompleteTask(ctx, task); err != nil {
		return types.TaskResponse{}, err
	}

	s.notify.PropertyChanged(task.PropertyID)
	log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": actor.ID}).Info("task completed")

	return types.NewTaskResponse(task), nil
}

func (s *Service) ListTasks(ctx context.Context, actor Actor, propertyID uint, filter policy.TaskFilter) ([]types.TaskResponse, error) {
	property, err := s.readableProperty(ctx, actor, propertyID)

	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasks(ctx, property.ID, filter)

	if err != nil {
		return nil, err
	}

	return types.NewTaskResponses(tasks), nil
}
