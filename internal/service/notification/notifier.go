// Package notification отправляет клиенту подтверждение заказа.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// sendFunc отправляет письмо и возвращает HTTP-статус и тело ответа провайдера.
type sendFunc func(ctx context.Context, msg *mail.SGMailV3) (int, string, error)

// SendGridNotifier отправляет подтверждения через SendGrid.
type SendGridNotifier struct {
	fromName  string
	fromEmail string
	send      sendFunc
	logger    *log.Entry
}

// NewSendGridNotifier создаёт notifier с API-ключом SendGrid.
func NewSendGridNotifier(apiKey, fromEmail, fromName string, logger *log.Entry) (*SendGridNotifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if strings.TrimSpace(fromEmail) == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	client := sendgrid.NewSendClient(apiKey)
	send := func(ctx context.Context, msg *mail.SGMailV3) (int, string, error) {
		resp, err := client.SendWithContext(ctx, msg)
		if err != nil {
			return 0, "", err
		}
		return resp.StatusCode, resp.Body, nil
	}
	return newSendGridNotifier(send, fromEmail, fromName, logger), nil
}

func newSendGridNotifier(send sendFunc, fromEmail, fromName string, logger *log.Entry) *SendGridNotifier {
	if logger == nil {
		logger = log.New().WithField("component", "notification")
	}
	if fromName == "" {
		fromName = "Print Shop"
	}
	return &SendGridNotifier{fromName: fromName, fromEmail: fromEmail, send: send, logger: logger}
}

// NotifyOrderConfirmed отправляет письмо с номером заказа и ссылкой на счёт.
func (n *SendGridNotifier) NotifyOrderConfirmed(ctx context.Context, msg domain.Notification) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: recipient is empty", domain.ErrNotificationFailed)
	}

	subject, text := render(msg)
	message := mail.NewSingleEmail(
		mail.NewEmail(n.fromName, n.fromEmail),
		subject,
		mail.NewEmail(msg.Name, msg.To),
		text,
		fmt.Sprintf("<pre>%s</pre>", text),
	)

	status, body, err := n.send(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid send: %v", domain.ErrNotificationFailed, err)
	}
	if status >= 400 {
		n.logger.WithFields(log.Fields{
			"order_id": msg.OrderID,
			"status":   status,
			"body":     body,
		}).Warn("sendgrid rejected message")
		return fmt.Errorf("%w: sendgrid status %d", domain.ErrNotificationFailed, status)
	}

	n.logger.WithFields(log.Fields{
		"order_id": msg.OrderID,
		"status":   status,
	}).Info("order confirmation sent")
	return nil
}

// LogNotifier пишет подтверждение в лог; используется без ключа SendGrid.
type LogNotifier struct {
	logger *log.Entry
}

// NewLogNotifier создаёт notifier-заглушку.
func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.New().WithField("component", "notification")
	}
	return &LogNotifier{logger: logger}
}

// NotifyOrderConfirmed логирует письмо вместо отправки.
func (n *LogNotifier) NotifyOrderConfirmed(ctx context.Context, msg domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, _ := render(msg)
	n.logger.WithFields(log.Fields{
		"order_id":    msg.OrderID,
		"to":          msg.To,
		"invoice_url": msg.InvoiceURL,
	}).Info(subject)
	return nil
}

func render(msg domain.Notification) (string, string) {
	subject := fmt.Sprintf("Comanda %s a fost înregistrată", msg.OrderNumber)

	var b strings.Builder
	fmt.Fprintf(&b, "Bună %s,\n\n", msg.Name)
	fmt.Fprintf(&b, "Comanda %s a fost înregistrată.\n", msg.OrderNumber)
	fmt.Fprintf(&b, "Total: %s %s\n", domain.FromMinor(msg.AmountMinor).StringFixed(2), msg.Currency)
	if msg.AWBNumber != "" {
		fmt.Fprintf(&b, "AWB: %s\n", msg.AWBNumber)
	}
	if msg.InvoiceURL != "" {
		fmt.Fprintf(&b, "Factura: %s\n", msg.InvoiceURL)
	}
	return subject, b.String()
}

var (
	_ domain.Notifier = (*SendGridNotifier)(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
)
