// Package notify delivers run summaries to messaging surfaces.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// SlackNotifier posts run summaries to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

// NewSlack creates a notifier for the given incoming webhook URL.
func NewSlack(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// NotifyRun posts the aggregate status, per-entry failures and the deploy
// outcome of one run.
func (n *SlackNotifier) NotifyRun(ctx context.Context, report *model.RunReport) error {
	color := "good"
	status := "passed"
	if !report.Passed() {
		color = "danger"
		status = "failed"
	}

	fields := []slack.AttachmentField{
		{Title: "Pipeline", Value: report.Pipeline, Short: true},
		{Title: "Trigger", Value: report.Trigger.Ref(), Short: true},
		{Title: "Entries", Value: fmt.Sprintf("%d", len(report.Entries)), Short: true},
		{Title: "Deployed", Value: fmt.Sprintf("%t", report.Deployed), Short: true},
	}

	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, e := range failed {
			names = append(names, e.Config)
		}
		fields = append(fields, slack.AttachmentField{
			Title: "Failed entries",
			Value: strings.Join(names, ", "),
		})
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Title:  fmt.Sprintf("Run %s %s", report.ID, status),
				Fields: fields,
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification",
			goerr.V("run_id", report.ID))
	}
	return nil
}
