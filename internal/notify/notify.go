package notify

import (
	"os/exec"
	"strconv"
	"time"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes the notification command
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier mirrors in-app alerts as desktop notifications
type Notifier struct {
	enabled bool
	run     Runner
}

// NewNotifier creates a notifier that shells out to notify-send
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		run:     execRunner,
	}
}

// WithRunner replaces the command runner
func (n *Notifier) WithRunner(run Runner) *Notifier {
	n.run = run
	return n
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}
	return n.run("notify-send", Args(notification)...)
}

// Args builds the notify-send argument list
func Args(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// Timeout in milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "taskman")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// Alert mirrors a blocking in-app alert
func (n *Notifier) Alert(title, body string, isError bool) error {
	urgency := UrgencyNormal
	icon := "dialog-information-symbolic"
	if isError {
		urgency = UrgencyCritical
		icon = "dialog-error-symbolic"
	}
	return n.Send(Notification{
		Title:   title,
		Body:    body,
		Urgency: urgency,
		Timeout: 5 * time.Second,
		Icon:    icon,
	})
}

// TaskCompleted announces a task being checked off
func (n *Notifier) TaskCompleted(text string) error {
	return n.Send(Notification{
		Title:   "Task complete",
		Body:    text,
		Urgency: UrgencyLow,
		Timeout: 3 * time.Second,
		Icon:    "object-select-symbolic",
	})
}
