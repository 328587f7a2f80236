package handler

import (
	"net/http"

	"github.com/community-hub/internal/application/notification"
	"github.com/community-hub/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, actor domain.Actor) error
}

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	responder
	svc    notification.Service
	stream streamer
}

func NewNotificationHandler(svc notification.Service, stream streamer, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{responder: newResponder(log), svc: svc, stream: stream}
}

// List supports ?tab=all|alerts|announcements|unread&q=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.Filter(r.Context(), domain.NotificationCriteria{
		Tab:    domain.NotificationTab(q.Get("tab")),
		Search: q.Get("q"),
	})
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	views := make([]NotificationView, len(list))
	for i := range list {
		views[i] = toNotificationView(list[i])
	}
	writeJSON(w, http.StatusOK, ListEnvelope{Data: views, Count: len(views)})
}

func (h *NotificationHandler) Counts(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Counts(r.Context())
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationView(*n))
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.NotificationInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.svc.Add(r.Context(), in, &a)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNotificationView(*n))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationView(*n))
}

// Stream upgrades to a websocket that receives every new notification.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.stream.Serve(w, r, a); err != nil {
		// The upgrader has already answered the client.
		h.log.Warn("notification stream not opened", zap.String("actor_id", a.ID), zap.Error(err))
	}
}
