package booking

import (
	"context"
)

// ConflictChecker answers whether candidate slots collide with already paid bookings.
// It is a point-in-time read: it does not hold the slots for the caller.
type ConflictChecker struct {
	repo Repository
}

func NewConflictChecker(repo Repository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

func (c *ConflictChecker) HasConflict(ctx context.Context, serviceID string, slots []Slot) (bool, error) {
	if len(slots) == 0 {
		return false, nil
	}
	return c.repo.HasConflict(ctx, serviceID, slots)
}

type Service interface {
	// ListForUser returns the user's bookings, most recent first.
	ListForUser(ctx context.Context, filter Filter) ([]*Booking, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListForUser(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}
