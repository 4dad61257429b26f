package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/deployeval/internal/models"
)

// ResultFilter narrows check-result reads by email and/or task id.
type ResultFilter struct {
	Email string
	Task  string
}

// ResultRepository appends and reads scored check outcomes. The results
// table is append-only: re-scoring adds rows, it never replaces them.
type ResultRepository interface {
	Append(ctx context.Context, result models.CheckResult) error
	List(ctx context.Context, filter ResultFilter) ([]models.CheckResult, error)
}

// NewResultRepository constructs a check-result repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

type resultRepository struct {
	db *gorm.DB
}

func (r *resultRepository) Append(ctx context.Context, result models.CheckResult) error {
	return r.db.WithContext(ctx).Create(&result).Error
}

func (r *resultRepository) List(ctx context.Context, filter ResultFilter) ([]models.CheckResult, error) {
	db := r.db.WithContext(ctx).Model(&models.CheckResult{})

	if filter.Email != "" {
		db = db.Where("email = ?", filter.Email)
	}
	if filter.Task != "" {
		db = db.Where("task = ?", filter.Task)
	}

	var results []models.CheckResult
	if err := db.Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
