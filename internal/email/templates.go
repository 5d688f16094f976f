package email

import (
	"fmt"
	"html"
	"strings"

	"carematch/internal/auth"
	"carematch/internal/config"
	"carematch/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// link returns an absolute URL for an application path.
func (t *Templates) link(path string) string {
	return strings.TrimRight(t.cfg.BaseURL, "/") + path
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	site := html.EscapeString(t.cfg.SiteTitle)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .button { display: inline-block; background: #0f766e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), site, content, site, t.cfg.BaseURL, t.cfg.BaseURL)
}

// AccountCreated generates the welcome email for a newly registered account.
func (t *Templates) AccountCreated(a *models.Account) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your account is ready", t.cfg.SiteTitle)
	loginURL := t.link("/login")
	home := t.link(auth.Destination(a.Role))

	content := fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>An administrator created a %s account for you.</p>

        <div class="info-box">
            <p><span class="label">Sign-in email:</span> %s</p>
            <p><span class="label">Role:</span> %s</p>
        </div>

        <p>Sign in with the password your administrator gave you.</p>
        <a href="%s" class="button">Sign in</a>`,
		html.EscapeString(a.Name),
		html.EscapeString(t.cfg.SiteTitle),
		html.EscapeString(a.Email),
		roleLabel(a.Role),
		loginURL,
	)
	htmlBody = t.baseHTML("Your account is ready", content)

	textBody = fmt.Sprintf(`Hello %s,

An administrator created a %s account for you.

Sign-in email: %s
Role: %s

Sign in at %s with the password your administrator gave you.
After signing in you will land on %s
`, a.Name, t.cfg.SiteTitle, a.Email, roleLabel(a.Role), loginURL, home)

	return subject, htmlBody, textBody
}

// MatchRecorded generates the email telling a reviewer that a requester
// credited them with fulfilling a request.
func (t *Templates) MatchRecorded(reviewer *models.Account, r *models.Request) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] You were matched on \"%s\"", t.cfg.SiteTitle, r.Title)
	historyURL := t.link("/csr/matches")

	category := r.CategoryName
	if category == "" {
		category = "Uncategorized"
	}

	content := fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>The requester marked this request as completed and recorded you as the volunteer who helped.</p>

        <div class="info-box">
            <p><span class="label">Request:</span> %s</p>
            <p><span class="label">Category:</span> %s</p>
        </div>

        <a href="%s" class="button">View match history</a>`,
		html.EscapeString(reviewer.Name),
		html.EscapeString(r.Title),
		html.EscapeString(category),
		historyURL,
	)
	htmlBody = t.baseHTML("New match recorded", content)

	textBody = fmt.Sprintf(`Hello %s,

The requester marked this request as completed and recorded you as the volunteer who helped.

Request: %s
Category: %s

View your match history: %s
`, reviewer.Name, r.Title, category, historyURL)

	return subject, htmlBody, textBody
}

func roleLabel(r models.Role) string {
	switch r {
	case models.RoleAdmin:
		return "Administrator"
	case models.RolePIN:
		return "Requester"
	case models.RoleCSR:
		return "Volunteer"
	default:
		return string(r)
	}
}
