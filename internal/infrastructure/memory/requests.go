// Package memory is the default persistence backend: process-local maps guarded
// by RWMutexes. Every read returns a deep copy, so callers never observe a
// half-applied write.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/community-hub/internal/domain"
)

// RequestRepo stores service requests in memory.
type RequestRepo struct {
	mu    sync.RWMutex
	items map[string]*domain.ServiceRequest
	order []string
}

func NewRequestRepo() *RequestRepo {
	return &RequestRepo{items: make(map[string]*domain.ServiceRequest)}
}

func (r *RequestRepo) Get(_ context.Context, requestID string) (*domain.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sr, ok := r.items[requestID]
	if !ok {
		return nil, fmt.Errorf("service request %s not found: %w", requestID, domain.ErrNotFound)
	}
	return sr.Clone(), nil
}

// Scan returns every request in insertion order.
func (r *RequestRepo) Scan(_ context.Context) ([]domain.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ServiceRequest, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.items[id].Clone())
	}
	return out, nil
}

func (r *RequestRepo) Put(_ context.Context, sr *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[sr.RequestID]; ok {
		return fmt.Errorf("service request %s already exists: %w", sr.RequestID, domain.ErrConflict)
	}
	r.items[sr.RequestID] = sr.Clone()
	r.order = append(r.order, sr.RequestID)
	return nil
}

func (r *RequestRepo) Replace(_ context.Context, sr *domain.ServiceRequest, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[sr.RequestID]
	if !ok {
		return fmt.Errorf("service request %s not found: %w", sr.RequestID, domain.ErrNotFound)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("service request %s was modified concurrently: %w", sr.RequestID, domain.ErrConflict)
	}
	r.items[sr.RequestID] = sr.Clone()
	return nil
}

// Reset drops every stored request.
func (r *RequestRepo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]*domain.ServiceRequest)
	r.order = nil
}
