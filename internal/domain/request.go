package domain

import "time"

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// Valid reports whether s belongs to the request status domain.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type RequestPriority string

const (
	RequestPriorityLow    RequestPriority = "low"
	RequestPriorityMedium RequestPriority = "medium"
	RequestPriorityHigh   RequestPriority = "high"
	RequestPriorityUrgent RequestPriority = "urgent"
)

// ServiceRequest is a maintenance request raised by a resident.
// StatusHistory and Comments are append-only and owned by the request.
type ServiceRequest struct {
	RequestID     string          `json:"id" dynamodbav:"request_id"`
	Title         string          `json:"title" dynamodbav:"title"`
	Description   string          `json:"description" dynamodbav:"description"`
	Category      string          `json:"category" dynamodbav:"category"`
	Priority      RequestPriority `json:"priority" dynamodbav:"priority"`
	Status        RequestStatus   `json:"status" dynamodbav:"status"`
	Location      string          `json:"location" dynamodbav:"location"`
	CreatedBy     ActorRef        `json:"created_by" dynamodbav:"created_by"`
	AssignedTo    *ProviderRef    `json:"assigned_to,omitempty" dynamodbav:"assigned_to,omitempty"`
	StatusHistory []StatusUpdate  `json:"status_history" dynamodbav:"status_history"`
	Comments      []Comment       `json:"comments" dynamodbav:"comments"`
	Version       int             `json:"-" dynamodbav:"version"`
	CreatedAt     time.Time       `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time       `json:"updated" dynamodbav:"updated_at"`
}

// ActorRef is the persisted reference to an Actor.
type ActorRef struct {
	ID   string `json:"id" dynamodbav:"id"`
	Name string `json:"name" dynamodbav:"name"`
	Role Role   `json:"role" dynamodbav:"role"`
}

// RefOf returns the reference stored for a.
func RefOf(a Actor) ActorRef {
	return ActorRef{ID: a.ID, Name: a.DisplayName, Role: a.Role}
}

// StatusUpdate is one entry of a request's audit log.
type StatusUpdate struct {
	UpdateID  string        `json:"id" dynamodbav:"update_id"`
	Status    RequestStatus `json:"status" dynamodbav:"status"`
	Timestamp time.Time     `json:"timestamp" dynamodbav:"timestamp"`
	UpdatedBy ActorRef      `json:"updated_by" dynamodbav:"updated_by"`
	Note      *string       `json:"note,omitempty" dynamodbav:"note,omitempty"`
}

type CommentAuthor struct {
	ID     string `json:"id" dynamodbav:"id"`
	Name   string `json:"name" dynamodbav:"name"`
	Role   Role   `json:"role" dynamodbav:"role"`
	Avatar string `json:"avatar,omitempty" dynamodbav:"avatar,omitempty"`
}

type Comment struct {
	CommentID  string        `json:"id" dynamodbav:"comment_id"`
	Author     CommentAuthor `json:"author" dynamodbav:"author"`
	Content    string        `json:"content" dynamodbav:"content"`
	Timestamp  time.Time     `json:"timestamp" dynamodbav:"timestamp"`
	IsInternal bool          `json:"is_internal" dynamodbav:"is_internal"`
}

// Clone returns a deep copy so callers can never alias a stored record.
func (r *ServiceRequest) Clone() *ServiceRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.AssignedTo != nil {
		p := *r.AssignedTo
		c.AssignedTo = &p
	}
	c.StatusHistory = make([]StatusUpdate, len(r.StatusHistory))
	for i, u := range r.StatusHistory {
		if u.Note != nil {
			n := *u.Note
			u.Note = &n
		}
		c.StatusHistory[i] = u
	}
	c.Comments = append([]Comment(nil), r.Comments...)
	if c.Comments == nil {
		c.Comments = []Comment{}
	}
	return &c
}

// CreateRequestInput is the resident-supplied part of a new request.
type CreateRequestInput struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category"`
	Priority    RequestPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Location    string          `json:"location"`
}

type TransitionInput struct {
	Status RequestStatus `json:"status" validate:"required"`
	Note   string        `json:"note"`
}

type CommentInput struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

type AssignInput struct {
	ProviderID string `json:"provider_id" validate:"required"`
}

// RequestFilter narrows List results. Zero values match everything.
type RequestFilter struct {
	Status    RequestStatus
	Category  string
	Search    string
	CreatedBy string
}

// RequestCounts partitions requests by status.
type RequestCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}
