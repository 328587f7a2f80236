package domain

import "time"

type NotificationType string

const (
	TypeAlert        NotificationType = "alert"
	TypeAnnouncement NotificationType = "announcement"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

type Sender struct {
	Name       string `json:"name" dynamodbav:"name"`
	Department string `json:"department,omitempty" dynamodbav:"department,omitempty"`
	Avatar     string `json:"avatar,omitempty" dynamodbav:"avatar,omitempty"`
}

// Notification is a community alert or announcement. IsRead only ever moves false -> true.
type Notification struct {
	NotificationID string               `json:"id" dynamodbav:"notification_id"`
	Title          string               `json:"title" dynamodbav:"title"`
	Message        string               `json:"message" dynamodbav:"message"`
	Type           NotificationType     `json:"type" dynamodbav:"type"`
	Priority       NotificationPriority `json:"priority" dynamodbav:"priority"`
	IsRead         bool                 `json:"is_read" dynamodbav:"is_read"`
	Sender         *Sender              `json:"sender,omitempty" dynamodbav:"sender,omitempty"`
	CreatedAt      time.Time            `json:"timestamp" dynamodbav:"created_at"`
}

type NotificationInput struct {
	Title    string               `json:"title" validate:"required"`
	Message  string               `json:"message" validate:"required"`
	Type     NotificationType     `json:"type" validate:"required,oneof=alert announcement"`
	Priority NotificationPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Sender   *Sender              `json:"sender"`
}

type NotificationTab string

const (
	TabAll           NotificationTab = "all"
	TabAlerts        NotificationTab = "alerts"
	TabAnnouncements NotificationTab = "announcements"
	TabUnread        NotificationTab = "unread"
)

type NotificationCriteria struct {
	Tab    NotificationTab
	Search string
}

type NotificationCounts struct {
	All           int `json:"all"`
	Alerts        int `json:"alerts"`
	Announcements int `json:"announcements"`
	Unread        int `json:"unread"`
}
