package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/community-hub/internal/domain"
)

// NotificationRepo stores notifications in memory.
type NotificationRepo struct {
	mu    sync.RWMutex
	items map[string]*domain.Notification
	order []string
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{items: make(map[string]*domain.Notification)}
}

func (r *NotificationRepo) Put(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[n.NotificationID]; ok {
		return fmt.Errorf("notification %s already exists: %w", n.NotificationID, domain.ErrConflict)
	}
	r.items[n.NotificationID] = cloneNotification(n)
	r.order = append(r.order, n.NotificationID)
	return nil
}

func (r *NotificationRepo) Get(_ context.Context, notificationID string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[notificationID]
	if !ok {
		return nil, fmt.Errorf("notification %s not found: %w", notificationID, domain.ErrNotFound)
	}
	return cloneNotification(n), nil
}

func (r *NotificationRepo) Scan(_ context.Context) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Notification, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *cloneNotification(r.items[id]))
	}
	return out, nil
}

// MarkAsRead flips is_read to true. Marking an already-read notification is a no-op.
func (r *NotificationRepo) MarkAsRead(_ context.Context, notificationID string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[notificationID]
	if !ok {
		return nil, fmt.Errorf("notification %s not found: %w", notificationID, domain.ErrNotFound)
	}
	n.IsRead = true
	return cloneNotification(n), nil
}

func (r *NotificationRepo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]*domain.Notification)
	r.order = nil
}

func cloneNotification(n *domain.Notification) *domain.Notification {
	c := *n
	if n.Sender != nil {
		s := *n.Sender
		c.Sender = &s
	}
	return &c
}
