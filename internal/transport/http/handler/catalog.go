package handler

import (
	"net/http"

	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/policy"
)

// RoleView describes what an actor role may do.
type RoleView struct {
	Role    domain.Role     `json:"role"`
	Actions []policy.Action `json:"actions"`
}

// StatusView describes one request status and where it can move next.
type StatusView struct {
	Status   domain.RequestStatus   `json:"status"`
	Badge    domain.Badge           `json:"badge"`
	Terminal bool                   `json:"terminal"`
	Next     []domain.RequestStatus `json:"next"`
}

// ListRoles returns the permission matrix of every role.
func ListRoles(w http.ResponseWriter, r *http.Request) {
	roles := []domain.Role{domain.RoleResident, domain.RoleTechnician, domain.RoleAdmin}
	out := make([]RoleView, len(roles))
	for i, role := range roles {
		out[i] = RoleView{Role: role, Actions: policy.RoleActions(role)}
	}
	writeJSON(w, http.StatusOK, ListEnvelope{Data: out, Count: len(out)})
}

// ListStatuses returns the request state machine with display badges.
func ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses := []domain.RequestStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled}
	out := make([]StatusView, len(statuses))
	for i, s := range statuses {
		next := policy.NextStatuses(s)
		if next == nil {
			next = []domain.RequestStatus{}
		}
		out[i] = StatusView{Status: s, Badge: domain.StatusBadge(s), Terminal: policy.IsTerminal(s), Next: next}
	}
	writeJSON(w, http.StatusOK, ListEnvelope{Data: out, Count: len(out)})
}
