// Package summary derives dashboard counters from the request and notification
// stores. It holds no state and recomputes on every call.
package summary

import (
	"context"

	"github.com/community-hub/internal/domain"
)

type Dashboard struct {
	Requests      domain.RequestCounts      `json:"requests"`
	Notifications domain.NotificationCounts `json:"notifications"`
}

type Service interface {
	RequestCounts(ctx context.Context) (*domain.RequestCounts, error)
	NotificationSummary(ctx context.Context) (*domain.NotificationCounts, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type requestScanner interface {
	Scan(ctx context.Context) ([]domain.ServiceRequest, error)
}

type notificationCounter interface {
	Counts(ctx context.Context) (*domain.NotificationCounts, error)
}

type service struct {
	requests      requestScanner
	notifications notificationCounter
}

type ServiceDeps struct {
	RequestRepo         requestScanner
	NotificationService notificationCounter
}

func NewService(deps ServiceDeps) Service {
	return &service{requests: deps.RequestRepo, notifications: deps.NotificationService}
}

// RequestCounts partitions every stored request by status. The buckets always sum to Total.
func (s *service) RequestCounts(ctx context.Context) (*domain.RequestCounts, error) {
	all, err := s.requests.Scan(ctx)
	if err != nil {
		return nil, err
	}
	c := &domain.RequestCounts{Total: len(all)}
	for _, r := range all {
		switch r.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusInProgress:
			c.InProgress++
		case domain.StatusCompleted:
			c.Completed++
		case domain.StatusCancelled:
			c.Cancelled++
		}
	}
	return c, nil
}

func (s *service) NotificationSummary(ctx context.Context) (*domain.NotificationCounts, error) {
	return s.notifications.Counts(ctx)
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	rc, err := s.RequestCounts(ctx)
	if err != nil {
		return nil, err
	}
	nc, err := s.NotificationSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Requests: *rc, Notifications: *nc}, nil
}
