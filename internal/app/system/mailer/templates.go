// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// NotificationData feeds every notification template. Fields a template
// does not use are ignored.
type NotificationData struct {
	SiteName   string
	Heading    string
	Lines      []string
	ActionText string
	ActionURL  string
}

// TeamInviteEmail tells an editor they were added to a creator's team.
func TeamInviteEmail(site, creator, role, url string) Email {
	return build(fmt.Sprintf("You were added to %s's team on %s", creator, site), NotificationData{
		SiteName:   site,
		Heading:    "You have a new team",
		Lines:      []string{fmt.Sprintf("%s added you to their team as %s.", creator, roleLabel(role))},
		ActionText: "Open your dashboard",
		ActionURL:  url,
	})
}

// TaskAssignedEmail tells an editor a video task is waiting for them.
func TaskAssignedEmail(site, creator, title, role, notes, url string) Email {
	lines := []string{fmt.Sprintf("%s assigned you the %s task on \"%s\".", creator, roleLabel(role), title)}
	if notes != "" {
		lines = append(lines, "Notes: "+notes)
	}
	return build(fmt.Sprintf("New task: %s", title), NotificationData{
		SiteName:   site,
		Heading:    "New task assigned",
		Lines:      lines,
		ActionText: "View task",
		ActionURL:  url,
	})
}

// TaskCompletedEmail tells a creator an editor finished a task.
func TaskCompletedEmail(site, editor, title, role, url string) Email {
	return build(fmt.Sprintf("Task completed: %s", title), NotificationData{
		SiteName:   site,
		Heading:    "Task completed",
		Lines:      []string{fmt.Sprintf("%s completed the %s task on \"%s\".", editor, roleLabel(role), title)},
		ActionText: "Review video",
		ActionURL:  url,
	})
}

// VideoReadyEmail tells a creator a video is waiting for review.
func VideoReadyEmail(site, editor, title, url string) Email {
	return build(fmt.Sprintf("Ready for review: %s", title), NotificationData{
		SiteName:   site,
		Heading:    "Video ready for review",
		Lines:      []string{fmt.Sprintf("%s marked \"%s\" ready for your review.", editor, title)},
		ActionText: "Review video",
		ActionURL:  url,
	})
}

// VideoPublishedEmail announces a successful publish.
func VideoPublishedEmail(site, title, youtubeID string) Email {
	watch := "https://www.youtube.com/watch?v=" + youtubeID
	return build(fmt.Sprintf("Published: %s", title), NotificationData{
		SiteName:   site,
		Heading:    "Your video is live",
		Lines:      []string{fmt.Sprintf("\"%s\" was published to YouTube.", title)},
		ActionText: "Watch on YouTube",
		ActionURL:  watch,
	})
}

// NewCommentEmail tells a collaborator about a new review comment.
func NewCommentEmail(site, author, title, text, url string) Email {
	return build(fmt.Sprintf("New comment on %s", title), NotificationData{
		SiteName:   site,
		Heading:    "New comment",
		Lines:      []string{fmt.Sprintf("%s commented on \"%s\":", author, title), text},
		ActionText: "Reply",
		ActionURL:  url,
	})
}

func roleLabel(role string) string {
	return strings.ReplaceAll(role, "_", " ")
}

func build(subject string, data NotificationData) Email {
	return Email{
		Subject:  subject,
		TextBody: buildText(data),
		HTMLBody: buildHTML(data),
	}
}

func buildText(data NotificationData) string {
	var buf bytes.Buffer
	buf.WriteString(data.Heading + "\n\n")
	for _, l := range data.Lines {
		buf.WriteString(l + "\n")
	}
	if data.ActionURL != "" {
		buf.WriteString("\n" + data.ActionText + ":\n" + data.ActionURL + "\n")
	}
	buf.WriteString(fmt.Sprintf("\n-- %s\n", data.SiteName))
	return buf.String()
}

var notificationTmpl = template.Must(template.New("notification").Parse(notificationHTMLTemplate))

func buildHTML(data NotificationData) string {
	var buf bytes.Buffer
	_ = notificationTmpl.Execute(&buf, data)
	return buf.String()
}

const notificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #dc2626;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px; font-size: 18px; color: #1f2937;">{{.Heading}}</h2>
              {{range .Lines}}<p style="margin: 0 0 12px; font-size: 15px; color: #374151; line-height: 1.5;">{{.}}</p>
              {{end}}
              {{if .ActionURL}}
              <div style="text-align: center; margin-top: 24px;">
                <a href="{{.ActionURL}}" style="display: inline-block; padding: 12px 32px; background-color: #dc2626; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">{{.ActionText}}</a>
              </div>
              {{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
