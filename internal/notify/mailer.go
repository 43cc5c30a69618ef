// Package notify e-mails repayment plan summaries through SES.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/shopspring/decimal"

	"score-handler/internal/amortization"
	awsclient "score-handler/internal/common/aws"
)

const planSubject = "Your repayment plan"

type Mailer struct {
	ses       awsclient.SESAPI
	fromEmail string
}

func NewMailer(client awsclient.SESAPI, fromEmail string) *Mailer {
	return &Mailer{ses: client, fromEmail: fromEmail}
}

// SendPlan e-mails a summary of the schedule to the given address.
func (m *Mailer) SendPlan(ctx context.Context, to, userID string, schedule *amortization.Schedule) error {
	text, html := renderPlan(userID, schedule)
	_, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(planSubject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(m.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("send plan e-mail: %w", err)
	}
	return nil
}

func renderPlan(userID string, s *amortization.Schedule) (string, string) {
	total := decimal.Zero
	for _, r := range s.Rows {
		total = total.Add(decimal.NewFromFloat(r.Instalment))
	}

	firstDue, lastDue := "", ""
	if len(s.Rows) > 0 {
		firstDue = s.Rows[0].DueDate
		lastDue = s.Rows[len(s.Rows)-1].DueDate
	}
	instalment := 0.0
	if len(s.Rows) > 0 {
		instalment = s.Rows[0].Instalment
	}

	lines := []string{
		fmt.Sprintf("Repayment plan for %s", userID),
		fmt.Sprintf("Amount: %s", money(s.Amount)),
		fmt.Sprintf("Annual rate: %s%%", decimal.NewFromFloat(s.AnnualRate*100).StringFixed(0)),
		fmt.Sprintf("Periods: %d", s.Periods),
		fmt.Sprintf("Monthly instalment: %s", money(instalment)),
		fmt.Sprintf("First payment due: %s", firstDue),
		fmt.Sprintf("Last payment due: %s", lastDue),
		fmt.Sprintf("Total to repay: %s", total.StringFixed(2)),
	}

	text := strings.Join(lines, "\n")
	html := "<p>" + strings.Join(lines, "<br>") + "</p>"
	return text, html
}

func money(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}
