package service

import (
	"fmt"
	"log"

	"coursepass/internal/models"
	"coursepass/internal/repository"
)

// NotificationService persists member-facing notices. It implements the
// Notifier interface consumed by the membership service.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) notify(userID uint, notifType, title, body string) {
	err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		log.Printf("[notify] %s for user %d: %v", notifType, userID, err)
	}
}

func (s *NotificationService) TrialEnrolled(userID uint) {
	s.notify(userID, "TRIAL_ENROLLED", "Trial started",
		"Your free trial is active. Enjoy full access to your course modules.")
}

func (s *NotificationService) PaidEnrolled(userID uint, enrollmentType string, durationDays int) {
	s.notify(userID, "PAID_ENROLLED", "Membership active",
		fmt.Sprintf("Your %s membership is active for the next %d days.", enrollmentType, durationDays))
}

func (s *NotificationService) MembershipExpired(userID uint, wasTrial bool) {
	if wasTrial {
		s.notify(userID, "TRIAL_EXPIRED", "Trial ended",
			"Your free trial has ended. Purchase a membership to keep your access.")
		return
	}
	s.notify(userID, "MEMBERSHIP_EXPIRED", "Membership expired",
		"Your membership has expired. Renew to regain access to your courses.")
}

func (s *NotificationService) PasswordResetRequested(userID uint, resetURL string) {
	s.notify(userID, "PASSWORD_RESET", "Password reset requested",
		"Use this link to reset your password: "+resetURL+"\nIf you did not request this, ignore this message.")
}

func (s *NotificationService) PaymentConfirmed(userID uint, amount float64, currency, reference string) {
	s.notify(userID, "PAYMENT_CONFIRMED", "Payment confirmed",
		fmt.Sprintf("Your payment of %.2f %s was received (ref %s).", amount, currency, reference))
}
