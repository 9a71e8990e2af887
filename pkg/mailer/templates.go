package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const (
	TemplateVerification      = "verification"
	TemplateTwoFactor         = "two_factor"
	TemplatePasswordReset     = "password_reset"
	TemplatePasswordChanged   = "password_changed"
	TemplateUsernameReminder  = "username_reminder"
	TemplateReservationNew    = "reservation_received"
	TemplateReservationStatus = "reservation_status"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "verification"}}<p>Hello {{.Username}},</p>
<p>Thank you for registering. Please confirm your email address by clicking the link below:</p>
<p><a href="{{.Link}}">Verify my account</a></p>
<p>This link expires in {{.ExpiresIn}}.</p>{{end}}

{{define "two_factor"}}<p>Hello {{.Username}},</p>
<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in {{.Minutes}} minutes. If you did not try to sign in, you can ignore this email.</p>{{end}}

{{define "password_reset"}}<p>Hello {{.Username}},</p>
<p>We received a request to reset your password. Use the link below to choose a new one:</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>This link expires in {{.ExpiresIn}}. If you did not request a reset, no action is needed.</p>{{end}}

{{define "password_changed"}}<p>Hello {{.Username}},</p>
<p>Your password was changed. If this was not you, reset your password immediately.</p>{{end}}

{{define "username_reminder"}}<p>Hello,</p>
<p>The username registered to this email address is <strong>{{.Username}}</strong>.</p>{{end}}

{{define "reservation_received"}}<p>Hello {{.ContactName}},</p>
<p>We received your reservation request at <strong>{{.Restaurant}}</strong> for {{.PartySize}} on {{.When}}.</p>
<p>The restaurant will confirm it shortly.</p>{{end}}

{{define "reservation_status"}}<p>Hello {{.ContactName}},</p>
<p>Your reservation at <strong>{{.Restaurant}}</strong> on {{.When}} is now <strong>{{.Status}}</strong>.</p>{{end}}
`))

const whenLayout = "Monday, January 2, 2006 at 3:04 PM"

func render(name string, data interface{}) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		// templates are static; a failure here is a programming error
		panic(fmt.Sprintf("mailer: render %s: %v", name, err))
	}
	return buf.String()
}

// expiresIn renders a TTL as whole hours when it divides evenly, minutes otherwise
func expiresIn(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		return plural(int(ttl/time.Hour), "hour")
	}
	return plural(int(ttl.Minutes()), "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// VerificationEmail carries the confirm-email link
func VerificationEmail(to, username, link string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Confirm your email address",
		HTMLBody: render(TemplateVerification, map[string]string{
			"Username": username, "Link": link, "ExpiresIn": expiresIn(ttl),
		}),
		Template: TemplateVerification,
	}
}

// TwoFactorEmail carries a six-digit sign-in code
func TwoFactorEmail(to, username, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your verification code",
		HTMLBody: render(TemplateTwoFactor, map[string]interface{}{
			"Username": username, "Code": code, "Minutes": int(ttl.Minutes()),
		}),
		Template: TemplateTwoFactor,
	}
}

// PasswordResetEmail carries the reset link
func PasswordResetEmail(to, username, link string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		HTMLBody: render(TemplatePasswordReset, map[string]string{
			"Username": username, "Link": link, "ExpiresIn": expiresIn(ttl),
		}),
		Template: TemplatePasswordReset,
	}
}

func PasswordChangedEmail(to, username string) Message {
	return Message{
		To:       to,
		Subject:  "Your password was changed",
		HTMLBody: render(TemplatePasswordChanged, map[string]string{"Username": username}),
		Template: TemplatePasswordChanged,
	}
}

func UsernameReminderEmail(to, username string) Message {
	return Message{
		To:       to,
		Subject:  "Your username",
		HTMLBody: render(TemplateUsernameReminder, map[string]string{"Username": username}),
		Template: TemplateUsernameReminder,
	}
}

func ReservationReceivedEmail(to, contactName, restaurant string, when time.Time, partySize int) Message {
	return Message{
		To:      to,
		Subject: "We received your reservation",
		HTMLBody: render(TemplateReservationNew, map[string]interface{}{
			"ContactName": contactName, "Restaurant": restaurant,
			"When": when.Format(whenLayout), "PartySize": partySize,
		}),
		Template: TemplateReservationNew,
	}
}

func ReservationStatusEmail(to, contactName, restaurant string, when time.Time, status string) Message {
	return Message{
		To:      to,
		Subject: "Reservation " + status,
		HTMLBody: render(TemplateReservationStatus, map[string]interface{}{
			"ContactName": contactName, "Restaurant": restaurant,
			"When": when.Format(whenLayout), "Status": status,
		}),
		Template: TemplateReservationStatus,
	}
}
