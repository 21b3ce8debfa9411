package mailer

import (
	"bytes"
	"html/template"
	"time"
)

// Subjects of the transactional mails.
const (
	SubjectVerification  = "Email Verification - NSEC Placement Portal"
	SubjectPasswordReset = "Password Reset Request"
)

var (
	otpTmpl = template.Must(template.New("otp").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2>Email Verification</h2>
<p>Your verification code for the NSEC Placement Portal is:</p>
<h1 style="letter-spacing:4px">{{.Code}}</h1>
<p>This code will expire in {{.Minutes}} minutes.</p>
<p>If you did not request this code, you can ignore this email.</p>
</div>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2>Password Reset</h2>
<p>You requested a password reset. Click the link below to choose a new password:</p>
<p><a href="{{.Link}}">Reset Password</a></p>
<p>This link will expire in {{.Minutes}} minutes.</p>
<p>If you did not request this, you can ignore this email.</p>
</div>`))
)

// OTPBody renders the verification mail.
func OTPBody(code string, ttl time.Duration) (string, error) {
	return render(otpTmpl, map[string]any{"Code": code, "Minutes": int(ttl.Minutes())})
}

// ResetBody renders the password reset mail around link.
func ResetBody(link string, ttl time.Duration) (string, error) {
	return render(resetTmpl, map[string]any{"Link": link, "Minutes": int(ttl.Minutes())})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
