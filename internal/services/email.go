package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

type EmailService struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg, send: smtp.SendMail}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

// Send is a no-op when SMTP is not configured.
func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	return s.send(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

func (s *EmailService) SendTeamInvite(to, leaderName, inviteURL string) error {
	subject := fmt.Sprintf("%s invited you to their team", leaderName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Team Invitation</h2>
			<p>Hi,</p>
			<p><strong>%s</strong> has invited you to track time on their team.</p>
			<p><a href="%s">Click here to view and respond to this invitation</a></p>
		</body>
		</html>
	`, html.EscapeString(leaderName), html.EscapeString(inviteURL))

	return s.Send(to, subject, body)
}

func (s *EmailService) SendInvoice(to, senderName string, inv *models.Invoice) error {
	subject := fmt.Sprintf("Invoice %s from %s", inv.InvoiceNumber, senderName)

	var items strings.Builder
	for _, it := range inv.Items {
		fmt.Fprintf(&items, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(it.Description), formatMoney(it.Quantity), formatMoney(it.UnitPrice), formatMoney(it.Amount))
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Invoice %s</h2>
			<p>Issued %s, due %s.</p>
			<table>
				<tr><th>Description</th><th>Quantity</th><th>Unit Price</th><th>Amount</th></tr>
				%s
			</table>
			<p>Subtotal: %s %s<br>Discount: %s %s<br>Tax: %s %s</p>
			<p><strong>Total: %s %s</strong></p>
		</body>
		</html>
	`, html.EscapeString(inv.InvoiceNumber), formatDate(inv.IssueDate), formatDate(inv.DueDate), items.String(),
		formatMoney(inv.Subtotal), inv.Currency, formatMoney(inv.DiscountAmount), inv.Currency,
		formatMoney(inv.TaxAmount), inv.Currency, formatMoney(inv.TotalAmount), inv.Currency)

	return s.Send(to, subject, body)
}
