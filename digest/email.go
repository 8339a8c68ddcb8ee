package digest

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"

	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// Sender delivers a rendered digest email. Transport is deployment
// specific; the default just logs so a misconfigured mailer never
// breaks digest generation.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// LogSender is the no-transport Sender used in development.
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody string) error {
	Logger.Log.Infof("digest email (not sent, no transport configured): to=%s subject=%q bytes=%d", to, subject, len(htmlBody))
	return nil
}

const emailSubject = "Your Daily Wisdom Digest"

var emailTemplate = template.Must(template.New("digest_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; max-width: 600px; margin: 0 auto; color: #1a1a1a;">
	<h1 style="font-size: 20px;">Your Daily Wisdom</h1>
	<p style="font-size: 15px; line-height: 1.6;">{{.Message}}</p>
	{{range .Nuggets}}
	<div style="border-left: 3px solid #b8860b; padding: 8px 16px; margin: 16px 0;">
		<p style="font-size: 16px; line-height: 1.5; margin: 0;">{{.Text}}</p>
		{{if .Leader}}<p style="font-size: 13px; color: #666; margin: 8px 0 0;">&mdash; {{.Leader.Name}}, {{.Leader.Title}}</p>{{end}}
	</div>
	{{end}}
	{{if .Articles}}
	<h2 style="font-size: 16px; margin-top: 24px;">From your reading list</h2>
	<ul style="padding-left: 20px;">
		{{range .Articles}}
		<li style="font-size: 14px; line-height: 1.8;">
			<a href="{{.Url}}" style="color: #b8860b;">{{if .Title}}{{.Title}}{{else}}{{.Domain}}{{end}}</a>
			<span style="color: #999;">({{.Domain}})</span>
		</li>
		{{end}}
	</ul>
	{{end}}
	<p style="font-size: 12px; color: #999; margin-top: 32px;">You receive this because daily digest email is enabled in your preferences.</p>
</body>
</html>`))

// RenderEmail renders the digest into the HTML email body.
func RenderEmail(content *Content) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, content); err != nil {
		return "", errors.Wrap(err, "render digest email")
	}
	return buf.String(), nil
}

// EmailSubject is the subject line used for every digest email.
func EmailSubject() string {
	return emailSubject
}
