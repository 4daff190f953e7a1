package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// NoticeKind selects one of the product notice templates.
type NoticeKind string

const (
	NoticeNewFeature    NoticeKind = "newfeature"
	NoticeUpdateFeature NoticeKind = "updatefeature"
	NoticeDowntime      NoticeKind = "downtime"
)

type noticeCopy struct {
	subject string
	heading string
	intro   string
	outro   string
	signoff string
	accent  string
}

var notices = map[NoticeKind]noticeCopy{
	NoticeNewFeature: {
		subject: "New Feature Released",
		heading: "We’ve Launched a New Feature!",
		intro:   "We're excited to let you know about a new feature we've just released:",
		outro:   "We hope you find it helpful. Stay tuned for more updates!",
		signoff: "Best regards,",
		accent:  "#4a90e2",
	},
	NoticeUpdateFeature: {
		subject: "Feature Update Notification",
		heading: "We've Improved an Existing Feature!",
		intro:   "We’ve made some important updates to one of your favorite features:",
		outro:   "We hope this update enhances your experience. As always, thank you for being with us!",
		signoff: "Best regards,",
		accent:  "#f4b400",
	},
	NoticeDowntime: {
		subject: "Scheduled Downtime Alert",
		heading: "Important Downtime Notification",
		intro:   "Please note the following scheduled downtime or service interruption:",
		outro:   "We apologize for any inconvenience and appreciate your understanding.",
		signoff: "Thank you,",
		accent:  "#d9534f",
	},
}

// ParseNoticeKind matches s case-insensitively against the known kinds.
func ParseNoticeKind(s string) (NoticeKind, bool) {
	k := NoticeKind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := notices[k]
	return k, ok
}

// Subject returns the fixed subject line for k.
func (k NoticeKind) Subject() string {
	return notices[k].subject
}

var layout = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Subject}}</title>
<style>
body { font-family: Arial, sans-serif; background-color: #f4f4f9; margin: 0; padding: 0; }
.container { max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 20px; border-radius: 8px; }
h1 { color: #333333; font-size: 22px; margin-bottom: 10px; }
p { color: #555555; margin: 0 0 10px; line-height: 1.5; }
.section { padding: 15px; border-left: 4px solid {{.Accent}}; border-radius: 4px; margin: 20px 0; }
.section-title { font-size: 18px; font-weight: bold; margin-bottom: 5px; color: #333; }
.footer { margin-top: 20px; font-size: 12px; color: #888888; text-align: center; }
</style>
</head>
<body>
<div class="container">
<h1>{{.Heading}}</h1>
{{if .Intro}}<p>{{.Intro}}</p>{{end}}
<div class="section">
<div class="section-title">{{.Title}}</div>
<div>{{.Description}}</div>
</div>
{{if .Outro}}<p>{{.Outro}}</p>{{end}}
<p>{{.Signoff}}<br>The Skill Swap Team</p>
<div class="footer">You are receiving this because you have a Skill Swap account.</div>
</div>
</body>
</html>
`))

type layoutData struct {
	Subject     string
	Heading     string
	Intro       string
	Outro       string
	Signoff     string
	Accent      template.CSS
	Title       string
	Description string
}

func render(d layoutData) (string, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

// Notice builds the product notice of kind k for one recipient. Title and
// description are escaped.
func Notice(k NoticeKind, to, title, description string) (Message, error) {
	c, ok := notices[k]
	if !ok {
		return Message{}, fmt.Errorf("unknown notice kind %q", k)
	}
	html, err := render(layoutData{
		Subject:     c.subject,
		Heading:     c.heading,
		Intro:       c.intro,
		Outro:       c.outro,
		Signoff:     c.signoff,
		Accent:      template.CSS(c.accent),
		Title:       title,
		Description: description,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: c.subject,
		Text:    title + "\n\n" + description,
		HTML:    html,
	}, nil
}

// Announcement builds the email for an admin broadcast message.
func Announcement(to, title, message string) (Message, error) {
	html, err := render(layoutData{
		Subject:     title,
		Heading:     title,
		Signoff:     "Best regards,",
		Accent:      template.CSS("#4a90e2"),
		Title:       title,
		Description: message,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: title, Text: message, HTML: html}, nil
}
