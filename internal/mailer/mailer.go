package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"oahelper-api/internal/platform/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	KindVerification    = "verification"
	KindPasswordReset   = "password_reset"
	KindCoinsCredited   = "coins_credited"
	KindPurchase        = "premium_purchase"
	KindExtension       = "premium_extension"
	KindManualActivate  = "manual_activation"
	KindPaymentReceived = "payment_received"
	KindPaymentApproved = "payment_approved"
	KindPaymentRejected = "payment_rejected"
	KindAdminPayment    = "admin_payment_notice"
	KindSolution        = "solution_delivered"
)

// Mailer renders and sends the transactional emails.
type Mailer struct {
	sender      Sender
	frontendURL string
	adminEmail  string
	metrics     *metrics.Metrics
	log         *logrus.Entry
}

func New(sender Sender, frontendURL, adminEmail string, m *metrics.Metrics, log *logrus.Entry) *Mailer {
	return &Mailer{sender: sender, frontendURL: frontendURL, adminEmail: adminEmail, metrics: m, log: log}
}

const dateLayout = "January 2, 2006 3:04 PM"

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(dateLayout) },
}).Parse(`
{{define "layout_top"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="text-align: center; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0;">
<h1 style="margin: 0; font-size: 26px;">{{.}}</h1></div>
<div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; border: 1px solid #e9ecef;">{{end}}
{{define "layout_bottom"}}<p style="font-size: 13px; color: #888; margin-top: 30px;">OAHelper Team</p></div></div>{{end}}

{{define "verification"}}{{template "layout_top" "Verify your email"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your verification code is:</p>
<p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center;">{{.Code}}</p>
<p>Enter this code on the verification page to activate your account.</p>
{{template "layout_bottom"}}{{end}}

{{define "password_reset"}}{{template "layout_top" "Reset your password"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Use this code to reset your password. It expires in 10 minutes.</p>
<p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center;">{{.Code}}</p>
<p>If you did not request a reset you can ignore this email.</p>
{{template "layout_bottom"}}{{end}}

{{define "coins_credited"}}{{template "layout_top" "You received OACoins"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p><strong>{{.Amount}} OACoins</strong> have been added to your account.</p>
<p>Reason: {{.Reason}}</p>
<p>New balance: <strong>{{.Balance}}</strong></p>
{{template "layout_bottom"}}{{end}}

{{define "premium_purchase"}}{{template "layout_top" "Welcome to OAHelper Premium"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your <strong>{{.Plan}}</strong> is active. {{.Coins}} OACoins were deducted.</p>
<p>Valid until: <strong>{{date .End}}</strong></p>
<p><a href="{{.Link}}">Access Premium Features</a></p>
{{template "layout_bottom"}}{{end}}

{{define "premium_extension"}}{{template "layout_top" "Premium extended"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your premium subscription was extended by <strong>{{.Days}} day(s)</strong> for {{.Coins}} OACoins.</p>
<p>New end date: <strong>{{date .End}}</strong></p>
{{template "layout_bottom"}}{{end}}

{{define "manual_activation"}}{{template "layout_top" "Premium Subscription Activated"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Your <strong>{{.Plan}}</strong> premium access has been activated.</p>
<p>Start: <strong>{{date .Start}}</strong><br>End: <strong>{{date .End}}</strong></p>
{{if .Note}}<p>Note from the team: {{.Note}}</p>{{end}}
<p><a href="{{.Link}}">Access Premium Features</a></p>
{{template "layout_bottom"}}{{end}}

{{define "payment_received"}}{{template "layout_top" "Payment received"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
{{if .Approved}}<p><strong>Congratulations!</strong> Your payment has been verified and your Premium subscription is now active.</p>
{{else}}<p>We received your payment of <strong>{{.Amount}}</strong>. Our team will verify it shortly and activate your subscription.</p>{{end}}
{{template "layout_bottom"}}{{end}}

{{define "payment_approved"}}{{template "layout_top" "Welcome to OAHelper!"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p><strong>Congratulations!</strong> Your payment has been verified and your Premium subscription is now active.</p>
<p><a href="{{.Link}}">Access Premium Features</a></p>
{{template "layout_bottom"}}{{end}}

{{define "payment_rejected"}}{{template "layout_top" "Payment could not be verified"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>We could not verify your payment.</p>
{{if .Notes}}<p>Reason: {{.Notes}}</p>{{end}}
<p>Reply to this email if you think this is a mistake.</p>
{{template "layout_bottom"}}{{end}}

{{define "admin_payment_notice"}}{{template "layout_top" "New payment request"}}
<p><strong>{{.Name}}</strong> ({{.Email}}) submitted a payment of <strong>{{.Amount}}</strong> via {{.Method}}.</p>
{{if .Plan}}<p>Plan: {{.Plan}}</p>{{end}}
{{if .UTR}}<p>UTR: {{.UTR}}</p>{{end}}
<p>Status: {{.Status}}</p>
{{template "layout_bottom"}}{{end}}

{{define "solution_delivered"}}{{template "layout_top" "Your requested solution"}}
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Here is the {{.Language}} solution for question #{{.QuestionID}}:</p>
<pre style="background: #272822; color: #f8f8f2; padding: 16px; border-radius: 6px; overflow-x: auto;">{{.Code}}</pre>
{{template "layout_bottom"}}{{end}}
`))

func (m *Mailer) send(ctx context.Context, kind, to, name, subject string, data any) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, kind, data); err != nil {
		return fmt.Errorf("render %s: %w", kind, err)
	}
	err := m.sender.Send(ctx, Message{Kind: kind, To: to, ToName: name, Subject: subject, HTML: body.String()})
	m.metrics.ObserveEmail(kind, err == nil)
	if err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{"kind": kind, "to": to}).Error("mail: send failed")
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func (m *Mailer) link(path string) string {
	return m.frontendURL + path
}

func (m *Mailer) VerificationCode(ctx context.Context, to, name, code string) error {
	return m.send(ctx, KindVerification, to, name, "Verify your OAHelper account",
		map[string]any{"Name": name, "Code": code})
}

func (m *Mailer) PasswordReset(ctx context.Context, to, name, code string) error {
	return m.send(ctx, KindPasswordReset, to, name, "Password reset code - OAHelper",
		map[string]any{"Name": name, "Code": code})
}

func (m *Mailer) CoinsCredited(ctx context.Context, to, name string, amount decimal.Decimal, reason string, balance decimal.Decimal) error {
	return m.send(ctx, KindCoinsCredited, to, name, "You received OACoins!",
		map[string]any{"Name": name, "Amount": amount.String(), "Reason": reason, "Balance": balance.String()})
}

func (m *Mailer) PremiumPurchased(ctx context.Context, to, name, plan string, coins decimal.Decimal, end time.Time) error {
	return m.send(ctx, KindPurchase, to, name, "Premium Subscription Activated - OAHelper",
		map[string]any{"Name": name, "Plan": plan, "Coins": coins.String(), "End": end, "Link": m.link("/dashboard")})
}

func (m *Mailer) PremiumExtended(ctx context.Context, to, name string, days int, coins decimal.Decimal, end time.Time) error {
	return m.send(ctx, KindExtension, to, name, "Premium Subscription Extended - OAHelper",
		map[string]any{"Name": name, "Days": days, "Coins": coins.String(), "End": end})
}

func (m *Mailer) ManualActivation(ctx context.Context, to, name, plan string, start, end time.Time, note string) error {
	return m.send(ctx, KindManualActivate, to, name, "Premium Subscription Activated - OAHelper",
		map[string]any{"Name": name, "Plan": plan, "Start": start, "End": end, "Note": note, "Link": m.link("/dashboard")})
}

func (m *Mailer) PaymentReceived(ctx context.Context, to, name string, amount decimal.Decimal, approved bool) error {
	subject := "Payment received - OAHelper"
	if approved {
		subject = "Welcome to OA Helper Premium - Your Subscription is Active"
	}
	return m.send(ctx, KindPaymentReceived, to, name, subject,
		map[string]any{"Name": name, "Amount": amount.String(), "Approved": approved})
}

func (m *Mailer) PaymentDecided(ctx context.Context, to, name string, approved bool, notes string) error {
	if approved {
		return m.send(ctx, KindPaymentApproved, to, name, "Welcome to OA Helper Premium - Your Subscription is Active",
			map[string]any{"Name": name, "Link": m.link("/dashboard")})
	}
	return m.send(ctx, KindPaymentRejected, to, name, "Payment Verification Failed - OAHelper",
		map[string]any{"Name": name, "Notes": notes})
}

// AdminPaymentNotice is skipped when no admin address is configured.
func (m *Mailer) AdminPaymentNotice(ctx context.Context, name, email string, amount decimal.Decimal, method, plan, utr, status string) error {
	if m.adminEmail == "" {
		return nil
	}
	return m.send(ctx, KindAdminPayment, m.adminEmail, "OAHelper Admin", "New payment request from "+name,
		map[string]any{"Name": name, "Email": email, "Amount": amount.String(), "Method": method, "Plan": plan, "UTR": utr, "Status": status})
}

func (m *Mailer) SolutionDelivered(ctx context.Context, to, name string, questionID int64, language, code string) error {
	return m.send(ctx, KindSolution, to, name, "Your requested solution - OAHelper",
		map[string]any{"Name": name, "QuestionID": questionID, "Language": language, "Code": code})
}
