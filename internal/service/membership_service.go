package service

import (
	"errors"
	"log"
	"time"

	"coursepass/internal/domain"
	"coursepass/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTrialUsed       = errors.New("free trial already used for this email")
	ErrInvalidDuration = errors.New("duration must be positive")
)

// MembershipStore is the persistence surface the membership service needs.
// *repository.MembershipRepository satisfies it; tests use an in-memory fake.
type MembershipStore interface {
	GetByUserID(userID uint) (*models.Membership, error)
	Create(m *models.Membership) error
	Update(m *models.Membership) error
	MarkExpired(userID uint) (int64, error)
	ListOverdue(now time.Time) ([]models.Membership, error)
}

// PaymentLinker attaches a payment row to the membership it paid for.
type PaymentLinker interface {
	AttachMembership(paymentID, membershipID uint) error
}

// UserStore supplies user lookup and the role transition invoked on
// activate/expire.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
	UpdateRole(userID uint, role string) error
}

type TrialStore interface {
	HasUsed(email string) (bool, error)
	MarkUsed(t *models.TrialUsage) error
}

// CourseStore supplies what the access check needs: the course's module tag
// and any explicit allowlist for a membership type.
type CourseStore interface {
	GetByID(id uint) (*models.Course, error)
	Allowlist(membershipType string) ([]uint, error)
}

// Notifier emits the enrollment and expiration notices.
type Notifier interface {
	TrialEnrolled(userID uint)
	PaidEnrolled(userID uint, enrollmentType string, durationDays int)
	MembershipExpired(userID uint, wasTrial bool)
}

type MembershipService struct {
	memberships MembershipStore
	payments    PaymentLinker
	users       UserStore
	trials      TrialStore
	courses     CourseStore
	notifier    Notifier
	now         func() time.Time
}

func NewMembershipService(memberships MembershipStore, payments PaymentLinker, users UserStore, trials TrialStore, courses CourseStore, notifier Notifier) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		payments:    payments,
		users:       users,
		trials:      trials,
		courses:     courses,
		notifier:    notifier,
		now:         time.Now,
	}
}

// CreateOrExtend creates the user's membership or extends the existing one.
// duration is in hours for trials, days otherwise. An unexpired membership
// extends from its current end date so paid-for time is never lost; an
// expired one restarts from now. Enrollment type is only ever upgraded by a
// paid purchase, and a trial never touches it.
func (s *MembershipService) CreateOrExtend(userID uint, duration int, paymentID uint, enrollmentType string, isTrial bool) (uint, error) {
	if duration <= 0 {
		return 0, ErrInvalidDuration
	}
	if !domain.IsValidEnrollmentType(enrollmentType) {
		enrollmentType = domain.EnrollmentBoth
	}

	existing, err := s.memberships.GetByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	now := s.now()
	base := now
	if existing != nil && existing.IsCurrent(now) {
		base = existing.EndDate
	}
	var end time.Time
	if isTrial {
		end = base.Add(time.Duration(duration) * time.Hour)
	} else {
		end = base.AddDate(0, 0, duration)
	}

	var membershipID uint
	if existing != nil {
		// Update in place, keeping the original start date.
		existing.Status = domain.MembershipActive
		existing.EndDate = end
		if !isTrial {
			// Upgrade only: an existing "both" membership is never narrowed.
			if enrollmentType == domain.EnrollmentBoth || existing.EnrollmentType != domain.EnrollmentBoth {
				existing.EnrollmentType = enrollmentType
			}
			existing.IsTrial = false
		}
		if err := s.memberships.Update(existing); err != nil {
			return 0, err
		}
		membershipID = existing.ID
	} else {
		m := &models.Membership{
			UserID:         userID,
			Status:         domain.MembershipActive,
			EnrollmentType: enrollmentType,
			IsTrial:        isTrial,
			StartDate:      now,
			EndDate:        end,
		}
		if err := s.memberships.Create(m); err != nil {
			return 0, err
		}
		membershipID = m.ID
	}

	if paymentID != 0 {
		if err := s.payments.AttachMembership(paymentID, membershipID); err != nil {
			log.Printf("[membership] attach payment %d to membership %d: %v", paymentID, membershipID, err)
		}
	}
	if err := s.users.UpdateRole(userID, domain.RoleActive); err != nil {
		log.Printf("[membership] role update for user %d: %v", userID, err)
	}
	if s.notifier != nil {
		if isTrial {
			s.notifier.TrialEnrolled(userID)
		} else {
			s.notifier.PaidEnrolled(userID, enrollmentType, duration)
		}
	}
	return membershipID, nil
}

// HasActiveMembership reports whether the user can access content right now.
func (s *MembershipService) HasActiveMembership(userID uint) bool {
	m, err := s.memberships.GetByUserID(userID)
	if err != nil || m == nil {
		return false
	}
	return m.IsCurrent(s.now())
}

// Expire flips the user's active membership to expired. A no-op when there
// is nothing active, so it is safe to call repeatedly.
func (s *MembershipService) Expire(userID uint) error {
	m, err := s.memberships.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	wasTrial := m.IsTrial
	rows, err := s.memberships.MarkExpired(userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	if err := s.users.UpdateRole(userID, domain.RoleExpired); err != nil {
		log.Printf("[membership] role update for user %d: %v", userID, err)
	}
	if s.notifier != nil {
		s.notifier.MembershipExpired(userID, wasTrial)
	}
	return nil
}

// DaysRemaining returns whole days of membership left, rounding partial days
// up, floored at zero.
func (s *MembershipService) DaysRemaining(userID uint) int {
	m, err := s.memberships.GetByUserID(userID)
	if err != nil || m == nil || m.Status != domain.MembershipActive {
		return 0
	}
	remaining := m.EndDate.Sub(s.now())
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Membership returns the user's current membership row, or nil.
func (s *MembershipService) Membership(userID uint) (*models.Membership, error) {
	m, err := s.memberships.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// IsTrialEligible reports whether the email has never used a free trial.
func (s *MembershipService) IsTrialEligible(email string) (bool, error) {
	used, err := s.trials.HasUsed(email)
	if err != nil {
		return false, err
	}
	return !used, nil
}

// MarkTrialUsed burns the trial for the email. The unique index makes a
// second call fail, which callers surface as ErrTrialUsed.
func (s *MembershipService) MarkTrialUsed(email string, userID uint) error {
	return s.trials.MarkUsed(&models.TrialUsage{
		Email:     email,
		UserID:    userID,
		TrialDate: s.now(),
	})
}

// HasCourseAccess decides whether the user may view the course. Admins
// always pass. Otherwise an active membership is required, then an explicit
// allowlist for the enrollment type wins when one is configured, falling
// back to module-tag matching: "both" grants everything, an untagged course
// is open to every member, and a tagged course requires the matching
// enrollment type.
func (s *MembershipService) HasCourseAccess(userID, courseID uint) bool {
	u, err := s.users.GetByID(userID)
	if err == nil && u != nil && u.IsAdmin() {
		return true
	}
	if !s.HasActiveMembership(userID) {
		return false
	}
	m, err := s.memberships.GetByUserID(userID)
	if err != nil || m == nil {
		return false
	}

	allow, err := s.courses.Allowlist(m.EnrollmentType)
	if err == nil && len(allow) > 0 {
		for _, id := range allow {
			if id == courseID {
				return true
			}
		}
		return false
	}

	if m.EnrollmentType == domain.EnrollmentBoth {
		return true
	}
	course, err := s.courses.GetByID(courseID)
	if err != nil || course == nil {
		return false
	}
	if course.Module == "" {
		return true
	}
	return course.Module == domain.ModuleSlugMap[m.EnrollmentType]
}
