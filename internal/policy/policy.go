// Package policy holds the pure visibility and permission rules shared by the
// request and notification services and by the HTTP layer. Nothing here stores state.
package policy

import "github.com/community-hub/internal/domain"

// Action is a state-changing operation an actor may attempt.
type Action string

const (
	ActionCreateRequest   Action = "create_request"
	ActionTransition      Action = "transition_status"
	ActionComment         Action = "comment"
	ActionInternalComment Action = "internal_comment"
	ActionAssign          Action = "assign_provider"
	ActionAnnounce        Action = "announce"
)

// transitions lists the outgoing edges of every non-terminal status. Self-edges
// exist so that re-issuing the current status is recorded in the audit log.
var transitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusPending:    {domain.StatusPending, domain.StatusInProgress, domain.StatusCancelled},
	domain.StatusInProgress: {domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled},
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s domain.RequestStatus) bool {
	return s == domain.StatusCompleted || s == domain.StatusCancelled
}

// CanTransition reports whether the state machine has an edge from -> to.
func CanTransition(from, to domain.RequestStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s, excluding s itself.
func NextStatuses(s domain.RequestStatus) []domain.RequestStatus {
	var out []domain.RequestStatus
	for _, to := range transitions[s] {
		if to != s {
			out = append(out, to)
		}
	}
	return out
}

// CanMutate reports whether role may perform action.
func CanMutate(action Action, role domain.Role) bool {
	switch action {
	case ActionTransition, ActionInternalComment, ActionAssign, ActionAnnounce:
		return role == domain.RoleAdmin
	case ActionCreateRequest:
		return role == domain.RoleResident || role == domain.RoleAdmin
	case ActionComment:
		return role.Valid()
	}
	return false
}

// CanViewComment is true unless the comment is internal and the viewer is not an administrator.
func CanViewComment(c domain.Comment, role domain.Role) bool {
	return !c.IsInternal || role == domain.RoleAdmin
}

// VisibleComments returns the comments role may see, preserving order.
func VisibleComments(comments []domain.Comment, role domain.Role) []domain.Comment {
	out := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		if CanViewComment(c, role) {
			out = append(out, c)
		}
	}
	return out
}

// Redact returns a snapshot of r with every comment role may not see removed.
// The input is never modified.
func Redact(r *domain.ServiceRequest, role domain.Role) *domain.ServiceRequest {
	snap := r.Clone()
	if snap == nil {
		return nil
	}
	snap.Comments = VisibleComments(snap.Comments, role)
	return snap
}

// AvailableActions lists what role can still do with r. Terminal requests only
// accept comments.
func AvailableActions(r *domain.ServiceRequest, role domain.Role) []Action {
	out := []Action{}
	for _, a := range []Action{ActionTransition, ActionAssign, ActionComment, ActionInternalComment} {
		if IsTerminal(r.Status) && (a == ActionTransition || a == ActionAssign) {
			continue
		}
		if CanMutate(a, role) {
			out = append(out, a)
		}
	}
	return out
}

// RoleActions lists every action role is ever allowed to perform.
func RoleActions(role domain.Role) []Action {
	out := []Action{}
	for _, a := range []Action{ActionCreateRequest, ActionTransition, ActionAssign, ActionComment, ActionInternalComment, ActionAnnounce} {
		if CanMutate(a, role) {
			out = append(out, a)
		}
	}
	return out
}
