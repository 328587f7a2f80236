package request

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/pkg/clock"
	"github.com/community-hub/internal/pkg/id"
	"github.com/community-hub/internal/pkg/keylock"
	"github.com/community-hub/internal/pkg/validate"
	"github.com/community-hub/internal/policy"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds how often a mutation is re-applied after losing a
// version race to a writer in another process.
const maxSaveAttempts = 5

type Service interface {
	Create(ctx context.Context, input domain.CreateRequestInput, author domain.Actor) (*domain.ServiceRequest, error)
	TransitionStatus(ctx context.Context, requestID string, to domain.RequestStatus, actor domain.Actor, note string) (*domain.ServiceRequest, error)
	AddComment(ctx context.Context, requestID string, input domain.CommentInput, author domain.Actor) (*domain.Comment, error)
	Assign(ctx context.Context, requestID, providerID string, actor domain.Actor) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter domain.RequestFilter, actor domain.Actor) ([]domain.ServiceRequest, error)
	Get(ctx context.Context, requestID string, actor domain.Actor) (*domain.ServiceRequest, error)
	Providers(ctx context.Context) ([]domain.ServiceProvider, error)
}

type requestStore interface {
	Get(ctx context.Context, requestID string) (*domain.ServiceRequest, error)
	Scan(ctx context.Context) ([]domain.ServiceRequest, error)
	Put(ctx context.Context, r *domain.ServiceRequest) error
	// Replace overwrites the stored request only if its version still equals expectedVersion.
	Replace(ctx context.Context, r *domain.ServiceRequest, expectedVersion int) error
}

type providerStore interface {
	List(ctx context.Context) ([]domain.ServiceProvider, error)
	Get(ctx context.Context, providerID string) (*domain.ServiceProvider, error)
}

type service struct {
	repo      requestStore
	providers providerStore
	clock     clock.Clock
	locks     *keylock.Locker
	log       *zap.Logger
}

type ServiceDeps struct {
	RequestRepo  requestStore
	ProviderRepo providerStore
	Clock        clock.Clock
	Logger       *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:      deps.RequestRepo,
		providers: deps.ProviderRepo,
		clock:     deps.Clock,
		locks:     keylock.New(),
		log:       deps.Logger,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *service) Create(ctx context.Context, input domain.CreateRequestInput, author domain.Actor) (*domain.ServiceRequest, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Location = strings.TrimSpace(input.Location)
	if input.Priority == "" {
		input.Priority = domain.RequestPriorityMedium
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if !policy.CanMutate(policy.ActionCreateRequest, author.Role) {
		return nil, fmt.Errorf("role %q cannot create requests: %w", author.Role, domain.ErrPermission)
	}

	now := s.clock.Now()
	ref := domain.RefOf(author)
	r := &domain.ServiceRequest{
		RequestID:   id.NewAt(now),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.StatusPending,
		Location:    input.Location,
		CreatedBy:   ref,
		StatusHistory: []domain.StatusUpdate{{
			UpdateID:  id.NewAt(now),
			Status:    domain.StatusPending,
			Timestamp: now,
			UpdatedBy: ref,
		}},
		Comments:  []domain.Comment{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("service request created",
		zap.String("request_id", r.RequestID),
		zap.String("actor_id", author.ID),
		zap.String("category", r.Category),
	)
	return policy.Redact(r, author.Role), nil
}

func (s *service) TransitionStatus(ctx context.Context, requestID string, to domain.RequestStatus, actor domain.Actor, note string) (*domain.ServiceRequest, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, domain.ErrValidation)
	}

	var from domain.RequestStatus
	r, err := s.mutate(ctx, requestID, func(r *domain.ServiceRequest) (time.Time, error) {
		// Terminal requests reject every transition, whoever asks.
		if policy.IsTerminal(r.Status) {
			return time.Time{}, fmt.Errorf("request is %s: %w", r.Status, domain.ErrInvalidTransition)
		}
		if !policy.CanMutate(policy.ActionTransition, actor.Role) {
			return time.Time{}, fmt.Errorf("role %q cannot change status: %w", actor.Role, domain.ErrPermission)
		}
		if !policy.CanTransition(r.Status, to) {
			return time.Time{}, fmt.Errorf("%s -> %s: %w", r.Status, to, domain.ErrInvalidTransition)
		}

		now := s.monotonicNow(r)
		update := domain.StatusUpdate{
			UpdateID:  id.NewAt(now),
			Status:    to,
			Timestamp: now,
			UpdatedBy: domain.RefOf(actor),
		}
		if n := strings.TrimSpace(note); n != "" {
			update.Note = &n
		}
		from = r.Status
		r.StatusHistory = append(r.StatusHistory, update)
		r.Status = to
		return now, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("service request status changed",
		zap.String("request_id", r.RequestID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return policy.Redact(r, actor.Role), nil
}

func (s *service) AddComment(ctx context.Context, requestID string, input domain.CommentInput, author domain.Actor) (*domain.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", domain.ErrValidation)
	}
	if input.IsInternal && !policy.CanMutate(policy.ActionInternalComment, author.Role) {
		return nil, fmt.Errorf("only administrators can add internal comments: %w", domain.ErrPermission)
	}
	if !policy.CanMutate(policy.ActionComment, author.Role) {
		return nil, fmt.Errorf("role %q cannot comment: %w", author.Role, domain.ErrPermission)
	}

	var c domain.Comment
	r, err := s.mutate(ctx, requestID, func(r *domain.ServiceRequest) (time.Time, error) {
		now := s.clock.Now()
		c = domain.Comment{
			CommentID: id.NewAt(now),
			Author: domain.CommentAuthor{
				ID:     author.ID,
				Name:   author.DisplayName,
				Role:   author.Role,
				Avatar: author.Avatar,
			},
			Content:    content,
			Timestamp:  now,
			IsInternal: input.IsInternal,
		}
		r.Comments = append(r.Comments, c)
		return now, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("comment added",
		zap.String("request_id", r.RequestID),
		zap.String("actor_id", author.ID),
		zap.Bool("internal", c.IsInternal),
	)
	return &c, nil
}

func (s *service) Assign(ctx context.Context, requestID, providerID string, actor domain.Actor) (*domain.ServiceRequest, error) {
	r, err := s.mutate(ctx, requestID, func(r *domain.ServiceRequest) (time.Time, error) {
		if policy.IsTerminal(r.Status) {
			return time.Time{}, fmt.Errorf("request is %s: %w", r.Status, domain.ErrInvalidTransition)
		}
		if !policy.CanMutate(policy.ActionAssign, actor.Role) {
			return time.Time{}, fmt.Errorf("role %q cannot assign providers: %w", actor.Role, domain.ErrPermission)
		}
		p, err := s.providers.Get(ctx, providerID)
		if err != nil {
			return time.Time{}, err
		}
		r.AssignedTo = &domain.ProviderRef{ID: p.ProviderID, Name: p.Name}
		return s.clock.Now(), nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("service request assigned",
		zap.String("request_id", r.RequestID),
		zap.String("provider_id", providerID),
		zap.String("actor_id", actor.ID),
	)
	return policy.Redact(r, actor.Role), nil
}

func (s *service) List(ctx context.Context, filter domain.RequestFilter, actor domain.Actor) ([]domain.ServiceRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", filter.Status, domain.ErrValidation)
	}
	all, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ServiceRequest, 0, len(all))
	for i := range all {
		if matches(&all[i], filter) {
			out = append(out, *policy.Redact(&all[i], actor.Role))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RequestID > out[j].RequestID
	})
	return out, nil
}

func (s *service) Get(ctx context.Context, requestID string, actor domain.Actor) (*domain.ServiceRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return policy.Redact(r, actor.Role), nil
}

func (s *service) Providers(ctx context.Context) ([]domain.ServiceProvider, error) {
	return s.providers.List(ctx)
}

// mutate loads the request, lets apply check and change it, then saves it
// conditionally on the loaded version. The per-request lock only orders writers
// in this process; when another process wins the version race the request is
// reloaded and apply runs again against the fresh state.
func (s *service) mutate(ctx context.Context, requestID string, apply func(r *domain.ServiceRequest) (time.Time, error)) (*domain.ServiceRequest, error) {
	unlock := s.locks.Lock(requestID)
	defer unlock()

	var err error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		var r *domain.ServiceRequest
		if r, err = s.repo.Get(ctx, requestID); err != nil {
			return nil, err
		}
		var now time.Time
		if now, err = apply(r); err != nil {
			return nil, err
		}
		if err = s.save(ctx, r, now); err == nil {
			return r, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.log.Debug("request version conflict, retrying",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return nil, err
}

// save bumps the version and writes r, conditional on nobody else having written it since it was loaded.
func (s *service) save(ctx context.Context, r *domain.ServiceRequest, now time.Time) error {
	prev := r.Version
	r.Version++
	r.UpdatedAt = now
	return s.repo.Replace(ctx, r, prev)
}

// monotonicNow keeps the status history non-decreasing even if the clock steps backwards.
func (s *service) monotonicNow(r *domain.ServiceRequest) time.Time {
	now := s.clock.Now()
	if n := len(r.StatusHistory); n > 0 && now.Before(r.StatusHistory[n-1].Timestamp) {
		return r.StatusHistory[n-1].Timestamp
	}
	return now
}

func matches(r *domain.ServiceRequest, f domain.RequestFilter) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
		return false
	}
	if f.CreatedBy != "" && r.CreatedBy.ID != f.CreatedBy {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(r.Title), q) && !strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	return true
}
