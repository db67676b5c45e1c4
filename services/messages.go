package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/rpupo63/team-portfolio-backend/models"
)

type message struct {
	Subject string
	Text    string
	HTML    string
}

func moderationMessage(projectName string, action models.ModerationAction, reason string) message {
	escapedName := html.EscapeString(projectName)

	if action == models.ActionApprove {
		return message{
			Subject: fmt.Sprintf(`Your project "%s" was approved`, projectName),
			Text: fmt.Sprintf(`Good news! Your project "%s" has been approved and is now visible in the team portfolio.`,
				projectName),
			HTML: fmt.Sprintf("<p>Good news! Your project <strong>%s</strong> has been approved and is now visible in the team portfolio.</p>",
				escapedName),
		}
	}

	msg := message{
		Subject: fmt.Sprintf(`Your project "%s" was not approved`, projectName),
		Text:    fmt.Sprintf(`Your project "%s" has been rejected by a moderator.`, projectName),
		HTML:    fmt.Sprintf("<p>Your project <strong>%s</strong> has been rejected by a moderator.</p>", escapedName),
	}
	if strings.TrimSpace(reason) != "" {
		msg.Text += "\n\nReason: " + reason
		msg.HTML += "<p>Reason: " + strings.ReplaceAll(html.EscapeString(reason), "\n", "<br>") + "</p>"
	}
	return msg
}

func digestMessage(pending int64) message {
	noun := "projects are"
	if pending == 1 {
		noun = "project is"
	}
	return message{
		Subject: fmt.Sprintf("%d %s awaiting review", pending, noun),
		Text:    fmt.Sprintf("%d %s waiting in the moderation queue.", pending, noun),
		HTML:    fmt.Sprintf("<p><strong>%d</strong> %s waiting in the moderation queue.</p>", pending, noun),
	}
}
