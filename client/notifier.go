package client

// Notification is a user-visible message, the stand-in for the storefront's
// toast surface.
type Notification struct {
	Title       string
	Description string
	Error       bool
}

type Notifier interface {
	Notify(n Notification)
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}
