package mail

import (
	"context"
	"fmt"

	"mhargick-backend/internal/domain"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional mail. A nil *SendGridMailer is a usable no-op
// so local setups without an API key still work.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridMailer(apiKey, fromAddress string) *SendGridMailer {
	if apiKey == "" {
		return nil
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail("Mhargick Fashion Store", fromAddress),
	}
}

// SendOrderConfirmation mails the customer after their payment is
// confirmed. Failures are the caller's to log; the order state is already
// committed by the time this runs.
func (m *SendGridMailer) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	if m == nil {
		return nil
	}
	to := sgmail.NewEmail(order.User.Name, order.User.Email)
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)

	plain := fmt.Sprintf(
		"Hi %s,\n\nWe received your payment of %.2f for order %s. "+
			"Your order is confirmed and will be prepared for shipment.\n\n"+
			"Mhargick Fashion Store",
		order.User.Name, order.Total, order.OrderNumber,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>We received your payment of <strong>%.2f</strong> for order <strong>%s</strong>. "+
			"Your order is confirmed and will be prepared for shipment.</p><p>Mhargick Fashion Store</p>",
		order.User.Name, order.Total, order.OrderNumber,
	)

	msg := sgmail.NewSingleEmail(m.from, subject, to, plain, html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
