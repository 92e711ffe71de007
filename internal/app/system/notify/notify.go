// internal/app/system/notify/notify.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Submission statuses that have a dedicated subject line.
const (
	StatusApproved      = "approved"
	StatusDenied        = "denied"
	StatusNeedsMoreInfo = "needs_more_information"
)

// Notifier tells a submitter what happened to their submission. Delivery is
// best-effort; callers log and ignore the error.
type Notifier interface {
	SendStatusEmail(ctx context.Context, to, orgName, status, extra string) error
}

// Subject returns the subject line for a status.
func Subject(status string) string {
	switch status {
	case StatusApproved:
		return "Your submission has been approved"
	case StatusDenied:
		return "Your submission has been denied"
	case StatusNeedsMoreInfo:
		return "We need more information about your submission"
	default:
		return fmt.Sprintf("Update on your resource submission (%s)", status)
	}
}

// Body renders the plain-text message.
func Body(orgName, status, extra string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	if orgName != "" {
		fmt.Fprintf(&b, "Your submission for %s is now: %s.\n", orgName, status)
	} else {
		fmt.Fprintf(&b, "Your resource submission is now: %s.\n", status)
	}
	if extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}
	b.WriteString("\nThank you,\nThe Contributor team\n")
	return b.String()
}

// Log writes the notification to the application log instead of sending it.
type Log struct {
	Logger *zap.Logger
}

// NewLog returns a Notifier that only logs.
func NewLog(logger *zap.Logger) *Log {
	return &Log{Logger: logger}
}

func (l *Log) SendStatusEmail(_ context.Context, to, orgName, status, extra string) error {
	l.Logger.Info("status email (not sent)",
		zap.String("to", to),
		zap.String("org", orgName),
		zap.String("subject", Subject(status)),
		zap.String("status", status),
		zap.String("extra_message", extra),
	)
	return nil
}
