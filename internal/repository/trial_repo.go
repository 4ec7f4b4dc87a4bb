package repository

import (
	"coursepass/internal/models"

	"gorm.io/gorm"
)

type TrialRepository struct {
	db *gorm.DB
}

func NewTrialRepository(db *gorm.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

func (r *TrialRepository) HasUsed(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.TrialUsage{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *TrialRepository) MarkUsed(t *models.TrialUsage) error {
	return r.db.Create(t).Error
}
