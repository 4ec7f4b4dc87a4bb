package service

import (
	"errors"
	"time"

	"coursepass/internal/models"

	"gorm.io/gorm"
)

// fakeMembershipStore keeps one membership per user, like the real table.
type fakeMembershipStore struct {
	rows   map[uint]*models.Membership
	nextID uint
	err    error
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{rows: map[uint]*models.Membership{}, nextID: 1}
}

func (f *fakeMembershipStore) GetByUserID(userID uint) (*models.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMembershipStore) Create(m *models.Membership) error {
	if f.err != nil {
		return f.err
	}
	m.ID = f.nextID
	f.nextID++
	cp := *m
	f.rows[m.UserID] = &cp
	return nil
}

func (f *fakeMembershipStore) Update(m *models.Membership) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[m.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *m
	f.rows[m.UserID] = &cp
	return nil
}

func (f *fakeMembershipStore) MarkExpired(userID uint) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	m, ok := f.rows[userID]
	if !ok || m.Status != "active" {
		return 0, nil
	}
	m.Status = "expired"
	return 1, nil
}

func (f *fakeMembershipStore) ListOverdue(now time.Time) ([]models.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Membership
	for _, m := range f.rows {
		if m.Status == "active" && !m.EndDate.After(now) {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakePaymentLinker struct {
	attached map[uint]uint // paymentID -> membershipID
}

func newFakePaymentLinker() *fakePaymentLinker {
	return &fakePaymentLinker{attached: map[uint]uint{}}
}

func (f *fakePaymentLinker) AttachMembership(paymentID, membershipID uint) error {
	f.attached[paymentID] = membershipID
	return nil
}

type fakeUserStore struct {
	users map[uint]*models.User
	roles map[uint]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*models.User{}, roles: map[uint]string{}}
}

func (f *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdateRole(userID uint, role string) error {
	if u, ok := f.users[userID]; ok && u.Role == "admin" {
		return nil
	}
	f.roles[userID] = role
	if u, ok := f.users[userID]; ok {
		u.Role = role
	}
	return nil
}

type fakeTrialStore struct {
	used map[string]bool
}

func newFakeTrialStore() *fakeTrialStore {
	return &fakeTrialStore{used: map[string]bool{}}
}

func (f *fakeTrialStore) HasUsed(email string) (bool, error) {
	return f.used[email], nil
}

func (f *fakeTrialStore) MarkUsed(t *models.TrialUsage) error {
	if f.used[t.Email] {
		return errors.New("duplicate entry")
	}
	f.used[t.Email] = true
	return nil
}

type fakeCourseStore struct {
	courses    map[uint]*models.Course
	allowlists map[string][]uint
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{courses: map[uint]*models.Course{}, allowlists: map[string][]uint{}}
}

func (f *fakeCourseStore) GetByID(id uint) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCourseStore) Allowlist(membershipType string) ([]uint, error) {
	return f.allowlists[membershipType], nil
}

// recordingNotifier counts the notices a test run produced.
type recordingNotifier struct {
	trials  []uint
	paid    []uint
	expired []uint
}

func (r *recordingNotifier) TrialEnrolled(userID uint) { r.trials = append(r.trials, userID) }
func (r *recordingNotifier) PaidEnrolled(userID uint, enrollmentType string, durationDays int) {
	r.paid = append(r.paid, userID)
}
func (r *recordingNotifier) MembershipExpired(userID uint, wasTrial bool) {
	r.expired = append(r.expired, userID)
}

// newTestService wires a service over fakes with a frozen clock.
func newTestService(now time.Time) (*MembershipService, *fakeMembershipStore, *fakeUserStore, *fakePaymentLinker, *fakeTrialStore, *fakeCourseStore, *recordingNotifier) {
	memberships := newFakeMembershipStore()
	users := newFakeUserStore()
	payments := newFakePaymentLinker()
	trials := newFakeTrialStore()
	courses := newFakeCourseStore()
	notifier := &recordingNotifier{}
	svc := NewMembershipService(memberships, payments, users, trials, courses, notifier)
	svc.now = func() time.Time { return now }
	return svc, memberships, users, payments, trials, courses, notifier
}
