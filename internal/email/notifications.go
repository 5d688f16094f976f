package email

import (
	"context"

	"carematch/internal/config"
	"carematch/internal/models"
)

// Mailer delivers rendered messages. *Service implements it.
type Mailer interface {
	IsEnabled() bool
	SendAsync(to []string, subject, htmlBody, textBody string)
	Wait()
}

// Notifier sends email notifications for account and match events.
type Notifier struct {
	mailer    Mailer
	templates *Templates
}

// NewNotifier creates a new email notifier backed by SMTP.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		mailer:    NewService(cfg),
		templates: NewTemplates(cfg),
	}
}

// NotifyAccountCreated sends a welcome email to a new account.
func (n *Notifier) NotifyAccountCreated(ctx context.Context, a *models.Account) {
	if !n.mailer.IsEnabled() || a.Email == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.AccountCreated(a)
	n.mailer.SendAsync([]string{a.Email}, subject, htmlBody, textBody)
}

// NotifyMatchRecorded tells the reviewer that a match was recorded for them.
func (n *Notifier) NotifyMatchRecorded(ctx context.Context, reviewer *models.Account, r *models.Request) {
	if !n.mailer.IsEnabled() || reviewer.Email == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.MatchRecorded(reviewer, r)
	n.mailer.SendAsync([]string{reviewer.Email}, subject, htmlBody, textBody)
}

// Wait blocks until queued notifications have been sent.
func (n *Notifier) Wait() {
	n.mailer.Wait()
}
