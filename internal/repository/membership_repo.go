package repository

import (
	"time"

	"coursepass/internal/domain"
	"coursepass/internal/models"

	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(m *models.Membership) error {
	return r.db.Create(m).Error
}

// GetByUserID returns the user's current membership (latest end date wins
// should stale duplicates ever exist).
func (r *MembershipRepository) GetByUserID(userID uint) (*models.Membership, error) {
	var m models.Membership
	err := r.db.Where("user_id = ?", userID).Order("end_date DESC").First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) Update(m *models.Membership) error {
	return r.db.Save(m).Error
}

// MarkExpired flips status for the user's active row. Returns the number of
// rows changed; zero means there was nothing to expire (idempotent).
func (r *MembershipRepository) MarkExpired(userID uint) (int64, error) {
	res := r.db.Model(&models.Membership{}).
		Where("user_id = ? AND status = ?", userID, domain.MembershipActive).
		Update("status", domain.MembershipExpired)
	return res.RowsAffected, res.Error
}

// ListOverdue returns active memberships whose end date has passed.
func (r *MembershipRepository) ListOverdue(now time.Time) ([]models.Membership, error) {
	var out []models.Membership
	err := r.db.Where("status = ? AND end_date < ?", domain.MembershipActive, now).Find(&out).Error
	return out, err
}

// List returns memberships for the admin screen, newest first.
func (r *MembershipRepository) List(status string, limit, offset int) ([]models.Membership, error) {
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Membership
	err := q.Find(&out).Error
	return out, err
}
