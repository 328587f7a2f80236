package notification

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/pkg/clock"
	"github.com/community-hub/internal/pkg/id"
	"github.com/community-hub/internal/pkg/validate"
	"github.com/community-hub/internal/policy"
	"go.uber.org/zap"
)

type Service interface {
	// Add stores a new unread notification. A nil actor means the system raised it,
	// which is only allowed for alerts.
	Add(ctx context.Context, input domain.NotificationInput, actor *domain.Actor) (*domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string) (*domain.Notification, error)
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	Filter(ctx context.Context, criteria domain.NotificationCriteria) ([]domain.Notification, error)
	Counts(ctx context.Context) (*domain.NotificationCounts, error)
}

// Dispatcher fans a freshly stored notification out to an external channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) error
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	Scan(ctx context.Context) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type service struct {
	repo        notificationStore
	dispatchers []Dispatcher
	clock       clock.Clock
	log         *zap.Logger
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	Dispatchers      []Dispatcher
	Clock            clock.Clock
	Logger           *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:        deps.NotificationRepo,
		dispatchers: deps.Dispatchers,
		clock:       deps.Clock,
		log:         deps.Logger,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *service) Add(ctx context.Context, input domain.NotificationInput, actor *domain.Actor) (*domain.Notification, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.Type == domain.TypeAnnouncement && (actor == nil || !policy.CanMutate(policy.ActionAnnounce, actor.Role)) {
		return nil, fmt.Errorf("only administrators can publish announcements: %w", domain.ErrPermission)
	}

	now := s.clock.Now()
	n := &domain.Notification{
		NotificationID: id.NewAt(now),
		Title:          input.Title,
		Message:        input.Message,
		Type:           input.Type,
		Priority:       input.Priority,
		Sender:         input.Sender,
		CreatedAt:      now,
	}
	if n.Sender == nil && input.Type == domain.TypeAnnouncement {
		n.Sender = &domain.Sender{Name: actor.DisplayName, Avatar: actor.Avatar}
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}

	actorID := domain.System.ID
	if actor != nil {
		actorID = actor.ID
	}
	s.log.Info("notification added",
		zap.String("notification_id", n.NotificationID),
		zap.String("type", string(n.Type)),
		zap.String("actor_id", actorID),
	)
	s.dispatch(ctx, *n)
	return n, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds without change.
func (s *service) MarkRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	n, err := s.repo.MarkAsRead(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	s.log.Info("notification marked read", zap.String("notification_id", notificationID))
	return n, nil
}

func (s *service) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	return s.repo.Get(ctx, notificationID)
}

func (s *service) Filter(ctx context.Context, criteria domain.NotificationCriteria) ([]domain.Notification, error) {
	if criteria.Tab == "" {
		criteria.Tab = domain.TabAll
	}
	if !validTab(criteria.Tab) {
		return nil, fmt.Errorf("unknown tab %q: %w", criteria.Tab, domain.ErrValidation)
	}
	all, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(criteria.Search)
	out := make([]domain.Notification, 0, len(all))
	for i := range all {
		if matches(&all[i], criteria.Tab, q) {
			out = append(out, all[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].NotificationID > out[j].NotificationID
	})
	return out, nil
}

// Counts tallies every tab with the same predicate Filter uses, so a tab's count
// always equals the length of that tab's unsearched listing.
func (s *service) Counts(ctx context.Context) (*domain.NotificationCounts, error) {
	all, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	var c domain.NotificationCounts
	for i := range all {
		n := &all[i]
		if matches(n, domain.TabAll, "") {
			c.All++
		}
		if matches(n, domain.TabAlerts, "") {
			c.Alerts++
		}
		if matches(n, domain.TabAnnouncements, "") {
			c.Announcements++
		}
		if matches(n, domain.TabUnread, "") {
			c.Unread++
		}
	}
	return &c, nil
}

func (s *service) dispatch(ctx context.Context, n domain.Notification) {
	for _, d := range s.dispatchers {
		if err := d.Dispatch(ctx, n); err != nil {
			s.log.Warn("notification dispatch failed",
				zap.String("notification_id", n.NotificationID),
				zap.String("dispatcher", fmt.Sprintf("%T", d)),
				zap.Error(err),
			)
		}
	}
}

func validTab(t domain.NotificationTab) bool {
	switch t {
	case domain.TabAll, domain.TabAlerts, domain.TabAnnouncements, domain.TabUnread:
		return true
	}
	return false
}

// matches expects q already lowercased. An empty q matches everything.
func matches(n *domain.Notification, tab domain.NotificationTab, q string) bool {
	switch tab {
	case domain.TabAlerts:
		if n.Type != domain.TypeAlert {
			return false
		}
	case domain.TabAnnouncements:
		if n.Type != domain.TypeAnnouncement {
			return false
		}
	case domain.TabUnread:
		if n.IsRead {
			return false
		}
	}
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Message), q)
}
