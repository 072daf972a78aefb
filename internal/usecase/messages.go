package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	uuid "github.com/google/uuid"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

var (
	verificationEmail = template.Must(template.New("verification").Parse(
		`<p>You verification OTP</p><h1>{{.Code}}</h1>`))
	welcomeEmail = template.Must(template.New("welcome").Parse(
		`<h1> Welcome to Our {{.Application}} </h1><p>Thanks for choosing us.</p>`))
	resetEmail = template.Must(template.New("reset").Parse(
		`<p> Click Here To Reset Password </p><a href='{{.URL}}'>Change Password</a>`))
	passwordChangedEmail = template.Must(template.New("password_changed").Parse(
		`<h1>Password Reset Successfully</h1><p>Now you can use new password.</p>`))
)

const (
	subjectVerification    = "Email Verification"
	subjectWelcome         = "Welcome Email"
	subjectPasswordReset   = "Reset Password Link"
	subjectPasswordChanged = "Password Reset Successfully"
)

func (s *IdentityService) verificationNotification(user domain.User, code string) (domain.Notification, error) {
	return render(domain.NotificationEmailVerification, user, s.cfg.VerificationFrom, subjectVerification,
		verificationEmail, struct{ Code string }{code})
}

func (s *IdentityService) welcomeNotification(user domain.User) (domain.Notification, error) {
	return render(domain.NotificationWelcome, user, s.cfg.VerificationFrom, subjectWelcome,
		welcomeEmail, struct{ Application string }{s.cfg.ApplicationName})
}

func (s *IdentityService) resetNotification(user domain.User, token string) (domain.Notification, error) {
	link, err := resetLink(s.cfg.ResetPasswordURL, token, user.ID)
	if err != nil {
		return domain.Notification{}, err
	}
	return render(domain.NotificationPasswordReset, user, s.cfg.SecurityFrom, subjectPasswordReset,
		resetEmail, struct{ URL template.URL }{template.URL(link)})
}

func (s *IdentityService) passwordChangedNotification(user domain.User) (domain.Notification, error) {
	return render(domain.NotificationPasswordChanged, user, s.cfg.SecurityFrom, subjectPasswordChanged,
		passwordChangedEmail, nil)
}

// resetLink appends token and id to base, keeping any query base already has.
func resetLink(base, token, userID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("id", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func render(kind domain.NotificationKind, user domain.User, from, subject string, tmpl *template.Template, data any) (domain.Notification, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return domain.Notification{}, fmt.Errorf("render %s email: %w", kind, err)
	}
	return domain.Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		UserID:  user.ID,
		From:    from,
		To:      user.Email,
		Subject: subject,
		HTML:    body.String(),
	}, nil
}
