package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/deployeval/internal/models"
)

// SubmissionFilter narrows submission reads by email and/or round.
type SubmissionFilter struct {
	Email string
	Round int
}

// SubmissionRepository exposes persistence operations for accepted
// submissions.
type SubmissionRepository interface {
	// Put upserts a submission keyed on (email, task, round, nonce); a
	// repeated notification for the same key overwrites the earlier row.
	Put(ctx context.Context, submission models.Submission) error
	Exists(ctx context.Context, email, templatePrefix string, round int) (bool, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Put(ctx context.Context, submission models.Submission) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "email"}, {Name: "task"}, {Name: "round"}, {Name: "nonce"},
		},
		UpdateAll: true,
	}).Create(&submission).Error
}

func (r *submissionRepository) Exists(ctx context.Context, email, templatePrefix string, round int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("email = ? AND task LIKE ? AND round = ?",
			email, fmt.Sprintf("%s%%", templatePrefix), round).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	db := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.Email != "" {
		db = db.Where("email = ?", filter.Email)
	}
	if filter.Round > 0 {
		db = db.Where("round = ?", filter.Round)
	}

	var submissions []models.Submission
	if err := db.Order("id ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
