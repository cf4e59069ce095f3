package notification

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"
)

const (
	kindPasswordReset = "password_reset"
	kindVerification  = "verification"
	kindWelcome       = "welcome"
)

type email struct {
	subject *texttemplate.Template
	body    *template.Template
}

type templateData struct {
	AppName   string
	Link      string
	Name      string
	ExpiresIn string
}

var emails = map[string]email{
	kindVerification: {
		subject: texttemplate.Must(texttemplate.New(kindVerification).Parse("Verify Your {{.AppName}} Account")),
		body: template.Must(template.New(kindVerification).Parse(`<html>
<body>
	<h2>Welcome to {{.AppName}}!</h2>
	<p>Thank you for registering with {{.AppName}}. Please verify your email address by clicking the link below:</p>
	<p><a href="{{.Link}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Verify Email</a></p>
	<p>If the button doesn't work, you can copy and paste this link into your browser:</p>
	<p>{{.Link}}</p>
	{{with .ExpiresIn}}<p>This link will expire in {{.}}.</p>{{end}}
	<p>If you didn't create an account with {{.AppName}}, please ignore this email.</p>
	<br>
	<p>Best regards,<br>The {{.AppName}} Team</p>
</body>
</html>`)),
	},
	kindPasswordReset: {
		subject: texttemplate.Must(texttemplate.New(kindPasswordReset).Parse("Reset Your {{.AppName}} Password")),
		body: template.Must(template.New(kindPasswordReset).Parse(`<html>
<body>
	<h2>Password Reset Request</h2>
	<p>We received a request to reset your password for your {{.AppName}} account.</p>
	<p>Click the link below to reset your password:</p>
	<p><a href="{{.Link}}" style="background-color: #2196F3; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
	<p>If the button doesn't work, you can copy and paste this link into your browser:</p>
	<p>{{.Link}}</p>
	{{with .ExpiresIn}}<p>This link will expire in {{.}}.</p>{{end}}
	<p>If you didn't request a password reset, please ignore this email. Your password will remain unchanged.</p>
	<br>
	<p>Best regards,<br>The {{.AppName}} Team</p>
</body>
</html>`)),
	},
	kindWelcome: {
		subject: texttemplate.Must(texttemplate.New(kindWelcome).Parse("Welcome to {{.AppName}} - Start Your Adventure!")),
		body: template.Must(template.New(kindWelcome).Parse(`<html>
<body>
	<h2>Welcome to {{.AppName}}, {{.Name}}!</h2>
	<p>Your account has been successfully created and verified.</p>
	<p>You're now ready to start your location-based questing adventure!</p>
	<h3>What's Next?</h3>
	<ul>
		<li>Complete your profile to get personalized quest recommendations</li>
		<li>Browse available quests in your city</li>
		<li>Join groups to quest with other adventurers</li>
		<li>Start earning points and achievements</li>
	</ul>
	<p><a href="{{.Link}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Start Exploring</a></p>
	<p>If you have any questions, feel free to contact our support team.</p>
	<br>
	<p>Happy questing!<br>The {{.AppName}} Team</p>
</body>
</html>`)),
	},
}

// humanizeTTL spells out d in the largest whole unit, e.g. "24 hours" or
// "1 hour". Zero yields "".
func humanizeTTL(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}

	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0 && d >= 48*time.Hour:
		return unit(int64(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	default:
		return unit(int64(d.Round(time.Second)/time.Second), "second")
	}
}

// render returns the subject and HTML body of the email of the given kind.
func render(kind string, data templateData) (string, string, error) {
	e, ok := emails[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}

	var subj, body bytes.Buffer
	if err := e.subject.Execute(&subj, data); err != nil {
		return "", "", fmt.Errorf("failed to render %s subject: %w", kind, err)
	}
	if err := e.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("failed to render %s body: %w", kind, err)
	}

	return subj.String(), body.String(), nil
}
