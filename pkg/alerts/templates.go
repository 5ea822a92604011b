package alerts

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// BudgetWarningData feeds the budget warning email.
type BudgetWarningData struct {
	Name         string
	PercentUsed  float64
	BudgetLabel  string
	SpentLabel   string
	ThresholdPct float64
}

// MonthlySummaryData feeds the monthly energy summary email.
type MonthlySummaryData struct {
	Name        string
	Month       string
	TotalCost   string
	TotalEnergy string
	Tips        []string
}

var budgetWarningTmpl = template.Must(template.New("budget_warning").Parse(`<!DOCTYPE html>
<html>
<body style="background:#fff7f5;font-family:sans-serif">
  <div style="max-width:680px;margin:0 auto;background:#fff">
    <div style="background:#7c2d12;padding:20px 30px;color:#fff">
      <h1>Budget warning: {{printf "%.1f" .PercentUsed}}% used</h1>
      <p>Hi {{.Name}}, your energy budget is almost fully used. Consider adding more kWh.</p>
    </div>
    <div style="padding:24px 30px 40px">
      <h2>Current status</h2>
      <p>{{.SpentLabel}} of {{.BudgetLabel}} used.</p>
      <p>Add more kWh to avoid interruptions in tracking and alerts.</p>
    </div>
  </div>
  <p style="max-width:680px;margin:32px auto;font-size:12px;color:#9199a1">
    You are receiving this warning because your energy budget usage crossed {{printf "%.0f" .ThresholdPct}}%.
  </p>
</body>
</html>`))

var monthlySummaryTmpl = template.Must(template.New("monthly_summary").Parse(`<!DOCTYPE html>
<html>
<body style="background:#f3f3f5;font-family:sans-serif">
  <div style="max-width:680px;margin:0 auto;background:#fff">
    <div style="background:#0c1b33;padding:20px 30px;color:#fff">
      <h1>{{.Month}} Energy Summary</h1>
      <p>Hi {{.Name}}, here is your usage snapshot and quick tips to save more energy.</p>
    </div>
    <div style="padding:30px 30px 40px">
      <h2>Your totals</h2>
      <p>Cost: <strong>{{.TotalCost}}</strong></p>
      <p>Energy: <strong>{{.TotalEnergy}}</strong></p>
      {{- if .Tips}}
      <h2>Tips to save energy</h2>
      <ul>
        {{- range .Tips}}
        <li>{{.}}</li>
        {{- end}}
      </ul>
      {{- end}}
    </div>
  </div>
</body>
</html>`))

// BudgetWarning renders the warning email for a recipient.
func BudgetWarning(to string, data BudgetWarningData, alert *Alert) (Message, error) {
	var html bytes.Buffer
	if err := budgetWarningTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render budget warning: %w", err)
	}

	subject := fmt.Sprintf("Budget warning: %.1f%% used", data.PercentUsed)
	text := fmt.Sprintf("Hi %s,\n\n%s of %s used (%.1f%%).\nAdd more kWh to avoid interruptions in tracking and alerts.\n",
		data.Name, data.SpentLabel, data.BudgetLabel, data.PercentUsed)

	return Message{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
		Alert:   alert,
	}, nil
}

// MonthlySummary renders the monthly summary email for a recipient.
func MonthlySummary(to string, data MonthlySummaryData) (Message, error) {
	var html bytes.Buffer
	if err := monthlySummaryTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render monthly summary: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n%s summary\nCost: %s\nEnergy: %s\n", data.Name, data.Month, data.TotalCost, data.TotalEnergy)
	if len(data.Tips) > 0 {
		text.WriteString("\nTips:\n")
		for _, tip := range data.Tips {
			fmt.Fprintf(&text, "- %s\n", tip)
		}
	}

	return Message{
		To:      to,
		Subject: data.Month + " Summary - Energy usage overview",
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
