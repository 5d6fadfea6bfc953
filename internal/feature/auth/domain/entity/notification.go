package entity

// NotificationKind selects the transactional email to send.
type NotificationKind string

const (
	// NotifyConfirm asks the user to confirm their email address.
	NotifyConfirm NotificationKind = "confirm"
	// NotifyReset carries a password reset link.
	NotifyReset NotificationKind = "reset"
	// NotifyPasswordChanged tells the user their password was changed.
	NotifyPasswordChanged NotificationKind = "update"
)

// Notification is a request to email a user. BaseURL is the scheme and host
// that links in the message point at.
type Notification struct {
	Kind     NotificationKind
	Email    string
	Username string
	BaseURL  string
}
