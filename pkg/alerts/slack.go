package alerts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

var levelColors = map[AlertLevel]string{
	AlertWarning:  "#ff9900",
	AlertCritical: "#ff0000",
	AlertExceeded: "#cc0000",
}

// SlackNotifier mirrors budget alerts to a Slack incoming webhook.
// Messages without alert data are ignored.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client:     newHTTPClient(),
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, msg Message) error {
	if msg.Alert == nil {
		return nil
	}
	payload := slackPayload{
		Channel:     s.channel,
		Attachments: []slackAttachment{budgetAttachment(msg)},
	}
	return postJSON(ctx, s.client, "slack", s.webhookURL, payload, nil)
}

func budgetAttachment(msg Message) slackAttachment {
	a := msg.Alert
	color, ok := levelColors[a.Level]
	if !ok {
		color = "#36a64f"
	}
	return slackAttachment{
		Color: color,
		Title: msg.Subject,
		Fields: []slackField{
			{Title: "Recipient", Value: msg.To, Short: true},
			{Title: "Level", Value: string(a.Level), Short: true},
			{Title: "Spent", Value: units.Label(a.UsageIDR), Short: true},
			{Title: "Budget", Value: units.Label(a.BudgetIDR), Short: true},
			{Title: "Usage", Value: fmt.Sprintf("%.1f%%", a.PercentUsed), Short: true},
			{Title: "Threshold", Value: fmt.Sprintf("%.0f%%", a.ThresholdPct), Short: true},
		},
		Footer: "WattSense",
		Ts:     time.Now().Unix(),
	}
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
