// Package seed loads the demo dashboard: a provider catalogue, four service
// requests in every status and five community notifications.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/community-hub/internal/application/notification"
	"github.com/community-hub/internal/application/request"
	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/pkg/clock"
	"go.uber.org/zap"
)

var (
	Resident = domain.Actor{ID: "u-resident", DisplayName: "Resident", Role: domain.RoleResident, Avatar: "R"}
	Admin    = domain.Actor{ID: "u-admin", DisplayName: "Community Admin", Role: domain.RoleAdmin, Avatar: "CA"}
	hvacTech = domain.Actor{ID: "u-tech-jt", DisplayName: "John Technician", Role: domain.RoleTechnician, Avatar: "JT"}
	elecTech = domain.Actor{ID: "u-tech-se", DisplayName: "Sarah Electrician", Role: domain.RoleTechnician, Avatar: "SE"}
)

// Providers returns the service provider catalogue.
func Providers() []domain.ServiceProvider {
	return []domain.ServiceProvider{
		{ProviderID: "sp1", Name: "Quick Plumbing", Category: "Plumbing", Avatar: "QP"},
		{ProviderID: "sp2", Name: "Cool Air Services", Category: "HVAC", Avatar: "CA"},
		{ProviderID: "sp3", Name: "Quick Electric", Category: "Electrical", Avatar: "QE"},
		{ProviderID: "sp4", Name: "Green Landscaping", Category: "Landscaping", Avatar: "GL"},
		{ProviderID: "sp5", Name: "Security Systems Inc", Category: "Security", Avatar: "SS"},
		{ProviderID: "sp6", Name: "Clean Pool Services", Category: "Pool", Avatar: "CP"},
	}
}

// Deps are the stores the fixtures are written to. Fixtures are replayed
// through the services on a private clock, so their history and comment
// timestamps are the historical ones and nothing is dispatched.
type Deps struct {
	Requests      request.ServiceDeps
	Notifications notification.ServiceDeps
	Logger        *zap.Logger
}

// Load writes the fixtures unless the request store already holds data.
// Notification timestamps are relative to now.
func Load(ctx context.Context, deps Deps, now time.Time) error {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := clock.NewManual(now)

	rd := deps.Requests
	rd.Clock = clk
	rd.Logger = log
	requests := request.NewService(rd)

	existing, err := requests.List(ctx, domain.RequestFilter{}, Admin)
	if err != nil {
		return fmt.Errorf("seed: list requests: %w", err)
	}
	if len(existing) > 0 {
		log.Info("seed skipped, store is not empty", zap.Int("requests", len(existing)))
		return nil
	}

	nd := deps.Notifications
	nd.Clock = clk
	nd.Logger = log
	nd.Dispatchers = nil
	notifications := notification.NewService(nd)

	if err := loadRequests(ctx, requests, clk); err != nil {
		return fmt.Errorf("seed: requests: %w", err)
	}
	if err := loadNotifications(ctx, notifications, clk, now); err != nil {
		return fmt.Errorf("seed: notifications: %w", err)
	}
	log.Info("demo fixtures loaded")
	return nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// step is one replayed operation on the request created by its script.
type step struct {
	at  string
	run func(ctx context.Context, svc request.Service, id string) error
}

func transition(to domain.RequestStatus, note string) func(context.Context, request.Service, string) error {
	return func(ctx context.Context, svc request.Service, id string) error {
		_, err := svc.TransitionStatus(ctx, id, to, Admin, note)
		return err
	}
}

func assign(providerID string) func(context.Context, request.Service, string) error {
	return func(ctx context.Context, svc request.Service, id string) error {
		_, err := svc.Assign(ctx, id, providerID, Admin)
		return err
	}
}

func comment(author domain.Actor, content string, internal bool) func(context.Context, request.Service, string) error {
	return func(ctx context.Context, svc request.Service, id string) error {
		_, err := svc.AddComment(ctx, id, domain.CommentInput{Content: content, IsInternal: internal}, author)
		return err
	}
}

type script struct {
	created string
	input   domain.CreateRequestInput
	steps   []step
}

var requestScripts = []script{
	{
		created: "2023-06-08T09:20:00Z",
		input:   domain.CreateRequestInput{
			Title:       "Clogged Drain in Bathroom",
			Description: "The bathroom sink is draining very slowly.",
			Category:    "Plumbing",
			Priority:    domain.RequestPriorityMedium,
			Location:    "Unit 4B",
		},
		steps: []step{
			{"2023-06-09T13:15:00Z", comment(Resident, "I was able to fix this myself with a plunger. Please cancel the request.", false)},
			{"2023-06-09T13:15:00Z", transition(domain.StatusCancelled, "Cancelled at the resident's request.")},
		},
	},
	{
		created: "2023-06-10T16:45:00Z",
		input:   domain.CreateRequestInput{
			Title:       "Broken Light Fixture",
			Description: "The ceiling light in the hallway is not working even after changing the bulb.",
			Category:    "Electrical",
			Priority:    domain.RequestPriorityLow,
			Location:    "Unit 4B",
		},
		steps: []step{
			{"2023-06-11T09:00:00Z", assign("sp3")},
			{"2023-06-11T09:00:00Z", transition(domain.StatusInProgress, "")},
			{"2023-06-11T09:05:00Z", comment(Admin, "Quick Electric invoice to be billed to the building fund.", true)},
			{"2023-06-12T11:30:00Z", comment(elecTech, "Fixed the wiring issue in the fixture. All working now.", false)},
			{"2023-06-12T11:30:00Z", transition(domain.StatusCompleted, "Wiring repaired.")},
		},
	},
	{
		created: "2023-06-14T08:15:00Z",
		input:   domain.CreateRequestInput{
			Title:       "AC Not Cooling",
			Description: "The air conditioner in the living room is running but not cooling the room.",
			Category:    "HVAC",
			Priority:    domain.RequestPriorityHigh,
			Location:    "Unit 4B",
		},
		steps: []step{
			{"2023-06-14T09:00:00Z", assign("sp2")},
			{"2023-06-14T09:00:00Z", transition(domain.StatusInProgress, "")},
			{"2023-06-16T14:20:00Z", comment(hvacTech, "Scheduled for inspection tomorrow at 10 AM.", false)},
		},
	},
	{
		created: "2023-06-15T10:30:00Z",
		input:   domain.CreateRequestInput{
			Title:       "Leaking Faucet in Kitchen",
			Description: "The kitchen sink faucet has been leaking for two days. Water is pooling under the sink.",
			Category:    "Plumbing",
			Priority:    domain.RequestPriorityMedium,
			Location:    "Unit 4B",
		},
	},
}

func loadRequests(ctx context.Context, svc request.Service, clk *clock.Manual) error {
	for _, sc := range requestScripts {
		clk.Set(at(sc.created))
		r, err := svc.Create(ctx, sc.input, Resident)
		if err != nil {
			return fmt.Errorf("create %q: %w", sc.input.Title, err)
		}
		for _, st := range sc.steps {
			clk.Set(at(st.at))
			if err := st.run(ctx, svc, r.RequestID); err != nil {
				return fmt.Errorf("%q: %w", sc.input.Title, err)
			}
		}
	}
	return nil
}

type notificationFixture struct {
	age   time.Duration
	input domain.NotificationInput
	read  bool
}

var notificationFixtures = []notificationFixture{
	{
		age:   96 * time.Hour,
		input: domain.NotificationInput{
			Title:    "Pool Maintenance Complete",
			Message:  "The community pool maintenance is now complete. The pool is open for regular hours starting tomorrow.",
			Type:     domain.TypeAnnouncement,
			Priority: domain.PriorityMedium,
			Sender:   &domain.Sender{Name: "Facilities Management", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=fac456"},
		},
		read: true,
	},
	{
		age:   72 * time.Hour,
		input: domain.NotificationInput{
			Title:    "New Recycling Guidelines",
			Message:  "Please review the updated recycling guidelines. Changes will take effect starting next month.",
			Type:     domain.TypeAnnouncement,
			Priority: domain.PriorityLow,
			Sender:   &domain.Sender{Name: "Environmental Services", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=env123"},
		},
	},
	{
		age:   24 * time.Hour,
		input: domain.NotificationInput{
			Title:    "Community Picnic This Weekend",
			Message:  "Join us for the annual community picnic this Saturday at the central park. Food and drinks will be provided.",
			Type:     domain.TypeAnnouncement,
			Priority: domain.PriorityMedium,
			Sender:   &domain.Sender{Name: "Events Committee", Department: "Community Affairs"},
		},
		read: true,
	},
	{
		age:   12 * time.Hour,
		input: domain.NotificationInput{
			Title:    "Security Alert: Suspicious Activity",
			Message:  "There have been reports of suspicious individuals in the north parking area. Please ensure your vehicles are locked.",
			Type:     domain.TypeAlert,
			Priority: domain.PriorityHigh,
			Sender:   &domain.Sender{Name: "Security Team", Department: "Community Safety"},
		},
	},
	{
		age:   2 * time.Hour,
		input: domain.NotificationInput{
			Title:    "Water Outage Scheduled",
			Message:  "There will be a scheduled water outage on Friday from 10am to 2pm for maintenance work.",
			Type:     domain.TypeAlert,
			Priority: domain.PriorityHigh,
			Sender:   &domain.Sender{Name: "Maintenance Department", Department: "Utilities"},
		},
	},
}

func loadNotifications(ctx context.Context, svc notification.Service, clk *clock.Manual, now time.Time) error {
	for _, f := range notificationFixtures {
		clk.Set(now.Add(-f.age))
		n, err := svc.Add(ctx, f.input, &Admin)
		if err != nil {
			return fmt.Errorf("add %q: %w", f.input.Title, err)
		}
		if f.read {
			if _, err := svc.MarkRead(ctx, n.NotificationID); err != nil {
				return fmt.Errorf("mark %q read: %w", f.input.Title, err)
			}
		}
	}
	return nil
}
