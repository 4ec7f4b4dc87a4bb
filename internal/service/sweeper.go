package service

import (
	"context"
	"log"
	"time"
)

// Sweeper runs the daily expiration pass: any active membership whose end
// date has passed is flipped to expired. Per-row failures are logged and
// skipped; the next run picks up whatever was missed.
type Sweeper struct {
	memberships MembershipStore
	svc         *MembershipService
	interval    time.Duration
	now         func() time.Time
}

func NewSweeper(memberships MembershipStore, svc *MembershipService, interval time.Duration) *Sweeper {
	return &Sweeper{
		memberships: memberships,
		svc:         svc,
		interval:    interval,
		now:         time.Now,
	}
}

// RunOnce performs a single sweep and returns how many memberships expired.
func (s *Sweeper) RunOnce() int {
	overdue, err := s.memberships.ListOverdue(s.now())
	if err != nil {
		log.Printf("[sweep] list overdue: %v", err)
		return 0
	}
	expired := 0
	for _, m := range overdue {
		if err := s.svc.Expire(m.UserID); err != nil {
			log.Printf("[sweep] expire user %d: %v", m.UserID, err)
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("[sweep] expired %d membership(s)", expired)
	}
	return expired
}

// Start runs an immediate sweep and then repeats on the configured interval
// until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.RunOnce()
	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.RunOnce()
		}
	}
}
