package handler

import (
	"encoding/json"
	"net/http"

	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/policy"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ListEnvelope wraps collection responses.
type ListEnvelope struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// RequestView is a service request as the dashboard renders it: the record
// plus badges and what the viewer may still do with it.
type RequestView struct {
	*domain.ServiceRequest
	StatusBadge   domain.Badge           `json:"status_badge"`
	PriorityBadge domain.Badge           `json:"priority_badge"`
	NextStatuses  []domain.RequestStatus `json:"next_statuses"`
	Actions       []policy.Action        `json:"actions"`
}

func toRequestView(r *domain.ServiceRequest, viewer domain.Role) RequestView {
	next := []domain.RequestStatus{}
	if policy.CanMutate(policy.ActionTransition, viewer) {
		next = append(next, policy.NextStatuses(r.Status)...)
	}
	return RequestView{
		ServiceRequest: r,
		StatusBadge:    domain.StatusBadge(r.Status),
		PriorityBadge:  domain.PriorityBadge(r.Priority),
		NextStatuses:   next,
		Actions:        policy.AvailableActions(r, viewer),
	}
}

// NotificationView adds the badge variant for the notification's priority.
type NotificationView struct {
	domain.Notification
	Variant string `json:"variant"`
}

func toNotificationView(n domain.Notification) NotificationView {
	return NotificationView{Notification: n, Variant: domain.NotificationVariant(n.Priority)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
