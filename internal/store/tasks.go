package store

import (
	"context"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
)

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	return translate(s.conn(ctx).Omit("Property").Create(task).Error, "task")
}

func (s *Store) GetTask(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task

	err := s.conn(ctx).Where("id = ?", id).First(&task).Error

	return task, translate(err, "task")
}

// CompleteTask persists a completion produced by policy.Complete. The write
// only lands while completed_at is still NULL, so of two racing completions
// exactly one succeeds and the other sees AlreadyCompleted. Timestamps are
// stored in UTC.
func (s *Store) CompleteTask(ctx context.Context, task models.Task) error {
	if task.CompletedByID == nil || task.CompletedAt == nil {
		return policy.Validation("task", "task has no completion to store")
	}

	res := s.conn(ctx).Model(&models.Task{}).
		Where("id = ? AND completed_at IS NULL", task.ID).
		Updates(map[string]interface{}{
			"completed_by_id": *task.CompletedByID,
			"completed_at":    task.CompletedAt.UTC(),
		})

	if res.Error != nil {
		return translate(res.Error, "task")
	}

	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := s.GetTask(ctx, task.ID); err != nil {
		return err
	}

	return policy.AlreadyCompleted()
}

func (s *Store) ListTasks(ctx context.Context, propertyID uint, filter policy.TaskFilter) ([]models.Task, error) {
	query := s.conn(ctx).Where("property_id = ?", propertyID)

	switch filter.State {
	case policy.TaskPending:
		query = query.Where("completed_at IS NULL")
	case policy.TaskCompleted:
		query = query.Where("completed_by_id IS NOT NULL AND completed_at IS NOT NULL")

		if filter.Start != nil {
			query = query.Where("completed_at >= ?", filter.Start.UTC())
		}

		if filter.End != nil {
			query = query.Where("completed_at <= ?", filter.End.UTC())
		}
	default:
		return nil, policy.Validation("status", "unknown task state %q", filter.State)
	}

	var tasks []models.Task

	err := query.Order("created_at DESC, id DESC").Find(&tasks).Error

	return tasks, translate(err, "task")
}

type pendingCount struct {
	PropertyID uint
	Count      int64
}

// CountPendingTasks returns pending counts for every id in propertyIDs with a
// single grouped query. Ids without pending tasks map to zero.
func (s *Store) CountPendingTasks(ctx context.Context, propertyIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(propertyIDs))

	for _, id := range propertyIDs {
		counts[id] = 0
	}

	if len(propertyIDs) == 0 {
		return counts, nil
	}

	var rows []pendingCount

	err := s.conn(ctx).Model(&models.Task{}).
		Select("property_id, COUNT(*) AS count").
		Where("property_id IN ? AND completed_at IS NULL", propertyIDs).
		Group("property_id").
		Scan(&rows).Error

	if err != nil {
		return nil, translate(err, "task")
	}

	for _, row := range rows {
		counts[row.PropertyID] = row.Count
	}

	return counts, nil
}
