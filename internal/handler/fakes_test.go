package handler

import (
	"coursepass/internal/domain"
	"coursepass/internal/models"

	"gorm.io/gorm"
)

// fakePaymentStore mirrors the real store's pending->completed gate.
type fakePaymentStore struct {
	rows   map[uint]*models.Payment
	nextID uint
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{rows: map[uint]*models.Payment{}, nextID: 1}
}

func (f *fakePaymentStore) Create(p *models.Payment) error {
	if p.TransactionID != nil {
		for _, row := range f.rows {
			if row.TransactionID != nil && *row.TransactionID == *p.TransactionID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	p.ID = f.nextID
	f.nextID++
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePaymentStore) GetByID(id uint) (*models.Payment, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) GetByTransactionID(txnID string) (*models.Payment, error) {
	for _, p := range f.rows {
		if p.TransactionID != nil && *p.TransactionID == txnID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentStore) Complete(id uint, txnID string) (bool, error) {
	p, ok := f.rows[id]
	if !ok || p.PaymentStatus != domain.PaymentPending {
		return false, nil
	}
	p.PaymentStatus = domain.PaymentCompleted
	t := txnID
	p.TransactionID = &t
	return true, nil
}

func (f *fakePaymentStore) MarkFailed(id uint) error {
	if p, ok := f.rows[id]; ok && p.PaymentStatus == domain.PaymentPending {
		p.PaymentStatus = domain.PaymentFailed
	}
	return nil
}

// fakeEnroller records every membership write.
type fakeEnroller struct {
	calls []enrollCall
}

type enrollCall struct {
	userID         uint
	duration       int
	paymentID      uint
	enrollmentType string
	isTrial        bool
}

func (f *fakeEnroller) CreateOrExtend(userID uint, duration int, paymentID uint, enrollmentType string, isTrial bool) (uint, error) {
	f.calls = append(f.calls, enrollCall{userID, duration, paymentID, enrollmentType, isTrial})
	return 1, nil
}

type fakeUserGetter struct {
	users map[uint]*models.User
}

func (f *fakeUserGetter) GetByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}
