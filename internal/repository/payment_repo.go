package repository

import (
	"coursepass/internal/domain"
	"coursepass/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionID(txnID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("transaction_id = ?", txnID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(p *models.Payment) error {
	return r.db.Save(p).Error
}

// Complete transitions a payment pending -> completed and records the
// gateway transaction id. The WHERE clause is the idempotency gate: a second
// completion attempt matches zero rows and reports false, so duplicate
// webhook deliveries and the Stripe webhook/confirm race cannot double-apply.
func (r *PaymentRepository) Complete(id uint, txnID string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentCompleted,
			"transaction_id": txnID,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepository) MarkFailed(id uint) error {
	return r.db.Model(&models.Payment{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentPending).
		Update("payment_status", domain.PaymentFailed).Error
}

// AttachMembership links a payment to the membership row it paid for.
func (r *PaymentRepository) AttachMembership(paymentID, membershipID uint) error {
	return r.db.Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("membership_id", membershipID).Error
}

// ListByUser returns the user's payment history, newest first.
func (r *PaymentRepository) ListByUser(userID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := r.db.Where("user_id = ?", userID).Order("payment_date DESC").Find(&out).Error
	return out, err
}

// List returns payments for the admin screen, newest first.
func (r *PaymentRepository) List(status string, limit, offset int) ([]models.Payment, error) {
	q := r.db.Order("payment_date DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("payment_status = ?", status)
	}
	var out []models.Payment
	err := q.Find(&out).Error
	return out, err
}
