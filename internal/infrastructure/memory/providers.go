package memory

import (
	"context"
	"fmt"

	"github.com/community-hub/internal/domain"
)

// ProviderRepo is a read-only catalogue of service providers.
type ProviderRepo struct {
	items []domain.ServiceProvider
}

func NewProviderRepo(providers ...domain.ServiceProvider) *ProviderRepo {
	return &ProviderRepo{items: append([]domain.ServiceProvider(nil), providers...)}
}

func (r *ProviderRepo) List(_ context.Context) ([]domain.ServiceProvider, error) {
	return append([]domain.ServiceProvider{}, r.items...), nil
}

func (r *ProviderRepo) Get(_ context.Context, providerID string) (*domain.ServiceProvider, error) {
	for _, p := range r.items {
		if p.ProviderID == providerID {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("service provider %s not found: %w", providerID, domain.ErrNotFound)
}
