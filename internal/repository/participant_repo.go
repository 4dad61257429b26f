package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/deployeval/internal/models"
)

// ParticipantRepository manages the registered participant roster.
type ParticipantRepository interface {
	// Upsert registers a participant, replacing the endpoint and secret on
	// re-registration of the same email.
	Upsert(ctx context.Context, participant models.Participant) error
	List(ctx context.Context) ([]models.Participant, error)
	GetByEmail(ctx context.Context, email string) (models.Participant, error)
}

// NewParticipantRepository constructs a participant repository.
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

type participantRepository struct {
	db *gorm.DB
}

func (r *participantRepository) Upsert(ctx context.Context, participant models.Participant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		UpdateAll: true,
	}).Create(&participant).Error
}

func (r *participantRepository) List(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepository) GetByEmail(ctx context.Context, email string) (models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&participant).Error; err != nil {
		return models.Participant{}, err
	}
	return participant, nil
}
