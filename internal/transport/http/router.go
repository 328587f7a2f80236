package http

import (
	"context"
	"net/http"

	"github.com/community-hub/internal/application/notification"
	"github.com/community-hub/internal/application/request"
	"github.com/community-hub/internal/application/summary"
	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/domain"
	jwtinfra "github.com/community-hub/internal/infrastructure/jwt"
	"github.com/community-hub/internal/infrastructure/ws"
	"github.com/community-hub/internal/transport/http/handler"
	appmiddleware "github.com/community-hub/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps holds the services and infrastructure the router exposes.
// JWTProvider is optional; without it actors are read from the X-Actor-* headers.
type Deps struct {
	RequestService      request.Service
	NotificationService notification.Service
	SummaryService      summary.Service
	Hub                 *ws.Hub
	JWTProvider         *jwtinfra.Provider
	Logger              *zap.Logger
}

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of the rate limiter's cleanup goroutine.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			appmiddleware.HeaderActorID, appmiddleware.HeaderActorName,
			appmiddleware.HeaderActorRole, appmiddleware.HeaderActorAvatar,
		},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		log.Warn("no JWT keys configured, trusting X-Actor-* headers")
		authMw = appmiddleware.HeaderActor
	}
	writeRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)

	healthH := handler.NewHealthHandler()
	requestH := handler.NewRequestHandler(deps.RequestService, log)
	notifH := handler.NewNotificationHandler(deps.NotificationService, deps.Hub, log)
	dashH := handler.NewDashboardHandler(deps.SummaryService, log)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/requests", requestH.List)
			r.Get("/requests/{id}", requestH.Get)
			r.Get("/providers", requestH.Providers)
			r.Get("/roles", handler.ListRoles)
			r.Get("/statuses", handler.ListStatuses)
			// Status and assignee permissions are enforced by the request service,
			// after the terminal-state and existence checks.
			r.With(writeRL.Limit).Post("/requests", requestH.Create)
			r.With(writeRL.Limit).Post("/requests/{id}/status", requestH.Transition)
			r.With(writeRL.Limit).Post("/requests/{id}/comments", requestH.Comment)
			r.With(writeRL.Limit).Put("/requests/{id}/assignee", requestH.Assign)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/counts", notifH.Counts)
			r.Get("/notifications/stream", notifH.Stream)
			r.Get("/notifications/{id}", notifH.Get)
			r.With(writeRL.Limit).Put("/notifications/{id}/read", notifH.MarkRead)

			r.Get("/dashboard/summary", dashH.Summary)

			r.With(adminOnly, writeRL.Limit).Post("/notifications", notifH.Create)
		})
	})

	return r
}
