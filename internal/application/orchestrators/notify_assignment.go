package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"trainerdash/internal/adapters/email"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/catalog"
)

// NotifyAssignmentInput carries input for the NotifyAssignment orchestrator.
type NotifyAssignmentInput struct {
	Target      assignment.Target
	Recipients  []catalog.Client
	StartDate   string
	EndDate     string
	TrainerName string
}

// NotifyAssignmentDeps holds dependencies for NotifyAssignment.
type NotifyAssignmentDeps struct {
	Sender  email.Sender
	ReplyTo string
}

// assignmentBody is the markdown template of the notification.
const assignmentBody = `Hi %s,

**%s** assigned you a new %s: **%s**.

- Starts: %s
%s
Open the app to see the details.`

// ExecuteNotifyAssignment e-mails each recipient of an individual assignment.
// PRE: the assignment was accepted upstream
// POST: returns the number of messages handed to the sender; recipients without an e-mail are skipped
func ExecuteNotifyAssignment(ctx context.Context, input NotifyAssignmentInput, deps NotifyAssignmentDeps) (int, error) {
	if deps.Sender == nil {
		return 0, nil
	}
	what := "routine"
	if input.Target.Kind == assignment.KindDietPlan {
		what = "diet plan"
	}
	ends := ""
	if input.EndDate != "" {
		ends = "- Ends: " + input.EndDate + "\n"
	}
	trainer := input.TrainerName
	if trainer == "" {
		trainer = "Your trainer"
	}

	reqs := make([]email.SendRequest, 0, len(input.Recipients))
	for _, c := range input.Recipients {
		if strings.TrimSpace(c.Email) == "" {
			continue
		}
		md := fmt.Sprintf(assignmentBody, c.FullName(), trainer, what, input.Target.Name, input.StartDate, ends)
		html, err := email.RenderMarkdown(md)
		if err != nil {
			return 0, fmt.Errorf("rendering notification: %w", err)
		}
		reqs = append(reqs, email.SendRequest{
			To:      []string{c.Email},
			Subject: fmt.Sprintf("New %s: %s", what, input.Target.Name),
			HTML:    html,
			ReplyTo: deps.ReplyTo,
		})
	}
	if len(reqs) == 0 {
		return 0, nil
	}
	if _, err := deps.Sender.SendBatch(ctx, reqs); err != nil {
		return 0, err
	}
	slog.Info("assignment_notified", "kind", input.Target.Kind, "target_id", input.Target.ID, "recipients", len(reqs))
	return len(reqs), nil
}
