package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/deployeval/internal/models"
)

// TaskFilter narrows task reads by email and/or round. Zero values mean no
// filter.
type TaskFilter struct {
	Email string
	Round int
}

// TaskRepository exposes persistence operations for dispatched tasks.
type TaskRepository interface {
	// Put upserts a task row keyed on (email, task, round, nonce).
	Put(ctx context.Context, task models.Task) error
	// Exists reports whether a successfully delivered task whose id starts
	// with templatePrefix was recorded for the email and round. Only
	// dispatches that received HTTP 200 count.
	Exists(ctx context.Context, email, templatePrefix string, round int) (bool, error)
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)
}

// NewTaskRepository constructs a task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) Put(ctx context.Context, task models.Task) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "email"}, {Name: "task"}, {Name: "round"}, {Name: "nonce"},
		},
		UpdateAll: true,
	}).Create(&task).Error
}

func (r *taskRepository) Exists(ctx context.Context, email, templatePrefix string, round int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("email = ? AND task LIKE ? AND round = ? AND status_code = ?",
			email, fmt.Sprintf("%s%%", templatePrefix), round, 200).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	db := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.Email != "" {
		db = db.Where("email = ?", filter.Email)
	}
	if filter.Round > 0 {
		db = db.Where("round = ?", filter.Round)
	}

	var tasks []models.Task
	if err := db.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
