package domain

// Tone is the visual weight a presentation layer should give a badge.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneCaution Tone = "caution"
	ToneDanger  Tone = "danger"
)

type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

var unknownBadge = Badge{Label: "Unknown", Tone: ToneNeutral}

func StatusBadge(s RequestStatus) Badge {
	switch s {
	case StatusPending:
		return Badge{Label: "Pending", Tone: ToneNeutral}
	case StatusInProgress:
		return Badge{Label: "In Progress", Tone: ToneInfo}
	case StatusCompleted:
		return Badge{Label: "Completed", Tone: ToneSuccess}
	case StatusCancelled:
		return Badge{Label: "Cancelled", Tone: ToneDanger}
	}
	return unknownBadge
}

func PriorityBadge(p RequestPriority) Badge {
	switch p {
	case RequestPriorityLow:
		return Badge{Label: "Low", Tone: ToneInfo}
	case RequestPriorityMedium:
		return Badge{Label: "Medium", Tone: ToneWarning}
	case RequestPriorityHigh:
		return Badge{Label: "High", Tone: ToneCaution}
	case RequestPriorityUrgent:
		return Badge{Label: "Urgent", Tone: ToneDanger}
	}
	return unknownBadge
}

// NotificationVariant returns the badge variant used for a notification priority.
func NotificationVariant(p NotificationPriority) string {
	switch p {
	case PriorityHigh:
		return "destructive"
	case PriorityMedium:
		return "secondary"
	}
	return "outline"
}
