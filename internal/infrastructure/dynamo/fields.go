package dynamo

// Attribute names used in key, condition and update expressions.
const (
	fieldRequestID      = "request_id"
	fieldNotificationID = "notification_id"
	fieldVersion        = "version"
	fieldIsRead         = "is_read"
)
