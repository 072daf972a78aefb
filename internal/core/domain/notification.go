package domain

// NotificationKind tags outgoing messages for routing and metrics.
type NotificationKind string

const (
	NotificationEmailVerification NotificationKind = "email_verification"
	NotificationWelcome           NotificationKind = "welcome"
	NotificationPasswordReset     NotificationKind = "password_reset"
	NotificationPasswordChanged   NotificationKind = "password_changed"
)

// Notification is a rendered email ready for delivery.
type Notification struct {
	ID      string
	Kind    NotificationKind
	UserID  string
	From    string
	To      string
	Subject string
	HTML    string
}
