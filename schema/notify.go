package schema

import "time"

// NotificationType distinguishes toast severities.
type NotificationType string

const (
	// NotifySuccess marks a success toast.
	NotifySuccess NotificationType = "success"
	// NotifyError marks an error toast.
	NotifyError NotificationType = "error"
)

// Notification is a user-facing toast message.
type Notification struct {
	Type     NotificationType
	Title    string
	Message  string
	Duration time.Duration
}

// NotificationSink receives notifications destined for the UI.
type NotificationSink interface {
	Notify(n Notification)
}
