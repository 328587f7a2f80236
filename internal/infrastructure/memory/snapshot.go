package memory

import (
	"encoding/json"
	"fmt"

	"github.com/community-hub/internal/domain"
)

// Snapshot is the serialised state of the memory backend.
type Snapshot struct {
	Requests      []domain.ServiceRequest `json:"requests"`
	Notifications []domain.Notification   `json:"notifications"`
}

// TakeSnapshot copies the current contents of both repos.
func TakeSnapshot(requests *RequestRepo, notifications *NotificationRepo) Snapshot {
	requests.mu.RLock()
	snap := Snapshot{Requests: make([]domain.ServiceRequest, 0, len(requests.order))}
	for _, id := range requests.order {
		snap.Requests = append(snap.Requests, *requests.items[id].Clone())
	}
	requests.mu.RUnlock()

	notifications.mu.RLock()
	snap.Notifications = make([]domain.Notification, 0, len(notifications.order))
	for _, id := range notifications.order {
		snap.Notifications = append(snap.Notifications, *cloneNotification(notifications.items[id]))
	}
	notifications.mu.RUnlock()
	return snap
}

// Restore replaces the contents of both repos with snap.
func Restore(snap Snapshot, requests *RequestRepo, notifications *NotificationRepo) {
	requests.Reset()
	requests.mu.Lock()
	for i := range snap.Requests {
		sr := snap.Requests[i].Clone()
		// Versions are not serialised; restored records start a fresh sequence.
		sr.Version = 1
		if _, dup := requests.items[sr.RequestID]; !dup {
			requests.order = append(requests.order, sr.RequestID)
		}
		requests.items[sr.RequestID] = sr
	}
	requests.mu.Unlock()

	notifications.Reset()
	notifications.mu.Lock()
	for i := range snap.Notifications {
		n := cloneNotification(&snap.Notifications[i])
		if _, dup := notifications.items[n.NotificationID]; !dup {
			notifications.order = append(notifications.order, n.NotificationID)
		}
		notifications.items[n.NotificationID] = n
	}
	notifications.mu.Unlock()
}

func (s Snapshot) Marshal() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

func UnmarshalSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
