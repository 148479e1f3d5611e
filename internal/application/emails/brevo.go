package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender dispatches transactional emails. All sends are fire-and-forget from
// the caller's point of view: a failure is logged upstream, never retried.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName, entityName, role string) error
	SendInvite(ctx context.Context, toEmail, inviteLink, entityName, role string) error
	SendVerificationCode(ctx context.Context, toEmail, code string) error
}

// BrevoClient sends emails via the Brevo API. Empty APIKey makes every send a
// no-op so local development works without credentials.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@teamhub.app"
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "TeamHub"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome sends the welcome email after a role grant lands.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName, entityName, role string) error {
	if c.APIKey == "" {
		return nil
	}
	if firstName == "" {
		firstName = "there"
	}
	content := welcomeContent(firstName, entityName, role)
	return c.send(ctx, toEmail, "Welcome to TeamHub!", EmailLayout(content))
}

// SendInvite sends the invitation email with a redeem link.
func (c *BrevoClient) SendInvite(ctx context.Context, toEmail, inviteLink, entityName, role string) error {
	if c.APIKey == "" {
		return nil
	}
	content := invitationContent(inviteLink, entityName, role)
	subject := fmt.Sprintf("You have been invited to join %s", entityName)
	return c.send(ctx, toEmail, subject, EmailLayout(content))
}

// SendVerificationCode sends the out-of-band identity-verification code.
func (c *BrevoClient) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	if c.APIKey == "" {
		return nil
	}
	content := verificationContent(code)
	return c.send(ctx, toEmail, "Your TeamHub verification code", EmailLayout(content))
}

func welcomeContent(firstName, entityName, role string) string {
	return fmt.Sprintf(`
    <h1>Welcome to the team, %s!</h1>
    <p>Your account is set up and you have joined <strong>%s</strong> as a <strong>%s</strong>.</p>
    <p>Open the app to see your schedule, chat with your team, and respond to polls.</p>
    <center>
      <a href="https://app.teamhub.app" class="hub-button">Open TeamHub</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact our support team immediately.
    </p>
    <p>— The TeamHub Team</p>
`, EscapeHTML(firstName), EscapeHTML(entityName), EscapeHTML(role))
}

func invitationContent(inviteLink, entityName, role string) string {
	return fmt.Sprintf(`
    <h1>You've Been Invited to Join %s</h1>
    <p>You have been invited to join <strong>%s</strong> on TeamHub as a <strong>%s</strong>.</p>
    <p>Tap the button below to accept your invitation and get started:</p>
    <center>
      <a href="%s" class="hub-button">Accept Invitation</a>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">
      If you were not expecting this invitation, you can safely ignore this email.
    </p>
    <p>— The TeamHub Team</p>
`, EscapeHTML(entityName), EscapeHTML(entityName), EscapeHTML(role), inviteLink)
}

func verificationContent(code string) string {
	return fmt.Sprintf(`
    <h1>Confirm it's you</h1>
    <p>Enter this code in the app to confirm your existing TeamHub account:</p>
    <center>
      <p style="font-size: 32px; font-weight: 700; letter-spacing: 6px;">%s</p>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">
      The code expires in 10 minutes. If you did not request it, you can ignore this email.
    </p>
    <p>— The TeamHub Team</p>
`, EscapeHTML(code))
}
