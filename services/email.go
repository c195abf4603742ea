package services

import (
	"fmt"

	"membership-portal/models"

	"gopkg.in/gomail.v2"
)

// Mailer sends payment receipt emails over SMTP.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewMailer builds a Mailer. From falls back to the SMTP user.
func NewMailer(host string, port int, user, pass, from string) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// SendReceipt emails a payment confirmation to the payer.
func (m *Mailer) SendReceipt(to string, rec models.PaymentRecord) error {
	if m.from == "" || m.user == "" || m.pass == "" {
		return fmt.Errorf("smtp credentials not configured")
	}

	name := rec.Contact.Name
	if name == "" {
		name = "Member"
	}

	kind := "conference registration"
	if rec.Category == models.CategorySponsor {
		kind = fmt.Sprintf("advertising booking (%s)", rec.Plan())
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <p>Dear <strong>%s</strong>,</p>
    <p>We have received your payment for your %s.</p>
    <table cellpadding="6" style="border-collapse: collapse;">
        <tr><td><strong>Payment ID</strong></td><td>%s</td></tr>
        <tr><td><strong>Order ID</strong></td><td>%s</td></tr>
        <tr><td><strong>Amount</strong></td><td>%s %.2f</td></tr>
    </table>
    <p>Thank you for your support.</p>
    <p>Best regards,<br/>Membership Team</p>
</body>
</html>
	`, name, kind, rec.PaymentID, rec.OrderID, rec.Currency, rec.Amount)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Payment received - %s", rec.PaymentID))
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send receipt email: %w", err)
	}
	return nil
}
