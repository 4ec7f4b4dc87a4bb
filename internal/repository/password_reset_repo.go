package repository

import (
	"time"

	"coursepass/internal/models"

	"gorm.io/gorm"
)

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(p *models.PasswordReset) error {
	return r.db.Create(p).Error
}

func (r *PasswordResetRepository) GetByToken(token string) (*models.PasswordReset, error) {
	var p models.PasswordReset
	err := r.db.Where("token = ?", token).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PasswordResetRepository) MarkUsed(id uint) error {
	now := time.Now()
	return r.db.Model(&models.PasswordReset{}).Where("id = ?", id).Update("used_at", &now).Error
}
