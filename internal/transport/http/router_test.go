package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/community-hub/internal/application/notification"
	"github.com/community-hub/internal/application/request"
	"github.com/community-hub/internal/application/summary"
	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/infrastructure/memory"
	"github.com/community-hub/internal/infrastructure/ws"
	appmiddleware "github.com/community-hub/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	residentActor = domain.Actor{ID: "u-res", DisplayName: "Rita Resident", Role: domain.RoleResident}
	adminActor    = domain.Actor{ID: "u-adm", DisplayName: "Alex Admin", Role: domain.RoleAdmin}
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	requests := memory.NewRequestRepo()
	notifSvc := notification.NewService(notification.ServiceDeps{NotificationRepo: memory.NewNotificationRepo()})
	cfg := &config.Config{AllowedOrigins: []string{"*"}, RateLimitRPS: 1000, RateLimitBurst: 1000}
	return NewRouter(ctx, cfg, &Deps{
		RequestService: request.NewService(request.ServiceDeps{
			RequestRepo:  requests,
			ProviderRepo: memory.NewProviderRepo(domain.ServiceProvider{ProviderID: "sp1", Name: "Quick Plumbing"}),
		}),
		NotificationService: notifSvc,
		SummaryService:      summary.NewService(summary.ServiceDeps{RequestRepo: requests, NotificationService: notifSvc}),
		Hub:                 ws.NewHub(cfg.AllowedOrigins, nil),
	})
}

func call(t *testing.T, h http.Handler, method, target string, a *domain.Actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if a != nil {
		req.Header.Set(appmiddleware.HeaderActorID, a.ID)
		req.Header.Set(appmiddleware.HeaderActorName, a.DisplayName)
		req.Header.Set(appmiddleware.HeaderActorRole, string(a.Role))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthCheckIsPublic(t *testing.T) {
	rr := call(t, newTestRouter(t), http.MethodGet, "/v1/health-check/ping", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RequiresActor(t *testing.T) {
	rr := call(t, newTestRouter(t), http.MethodGet, "/v1/requests", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_RequestLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rr := call(t, h, http.MethodPost, "/v1/requests", &residentActor,
		`{"title":"Leak","description":"Kitchen sink leaking","category":"Plumbing","priority":"high","location":"Unit 4B"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)

	rr = call(t, h, http.MethodPost, "/v1/requests/"+created.ID+"/status", &residentActor, `{"status":"in-progress"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodPost, "/v1/requests/"+created.ID+"/status", &adminActor, `{"status":"in-progress","note":"on it"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPut, "/v1/requests/"+created.ID+"/assignee", &adminActor, `{"provider_id":"sp1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/v1/requests/"+created.ID+"/status", &adminActor, `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = call(t, h, http.MethodGet, "/v1/dashboard/summary", &residentActor, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var d summary.Dashboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, domain.RequestCounts{InProgress: 1, Total: 1}, d.Requests)
}

func TestRouter_NotificationsAdminOnlyCreate(t *testing.T) {
	h := newTestRouter(t)
	body := `{"title":"Water shutoff","message":"Maintenance from 9 to 11","type":"alert","priority":"high"}`

	rr := call(t, h, http.MethodPost, "/v1/notifications", &residentActor, body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodPost, "/v1/notifications", &adminActor, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodGet, "/v1/notifications/counts", &residentActor, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var c domain.NotificationCounts
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
	assert.Equal(t, domain.NotificationCounts{All: 1, Alerts: 1, Unread: 1}, c)

	rr = call(t, h, http.MethodGet, "/v1/notifications?tab=bogus", &residentActor, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_TransitionErrorsFollowServiceOrder(t *testing.T) {
	h := newTestRouter(t)

	rr := call(t, h, http.MethodPost, "/v1/requests", &residentActor,
		`{"title":"Drain","description":"Bathroom sink drains slowly","category":"Plumbing"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = call(t, h, http.MethodPost, "/v1/requests/"+created.ID+"/status", &adminActor, `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// A terminal request rejects every transition as invalid, whoever asks.
	rr = call(t, h, http.MethodPost, "/v1/requests/"+created.ID+"/status", &residentActor, `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPut, "/v1/requests/"+created.ID+"/assignee", &residentActor, `{"provider_id":"sp1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/v1/requests/nope/status", &residentActor, `{"status":"pending"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPut, "/v1/requests/nope/assignee", &residentActor, `{"provider_id":"sp1"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}
