// Package email sends operator alert e-mail for forwarding failures that
// exhausted the queue's redelivery policy.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"zaakbrug_backend/internal/events"
	"zaakbrug_backend/platform/config"
	"zaakbrug_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

const subjectForwardingDeadLetter = "Zaak forwarding definitief mislukt"

// Alerter delivers plain-text operator alerts over SMTP.
type Alerter struct {
	cfg config.SMTPConfig
	log *logger.Logger
}

// NewAlerter creates an alerter. Returns nil when alert e-mail is not
// configured; a nil Alerter subscribes nothing.
func NewAlerter(cfg config.SMTPConfig, log *logger.Logger) *Alerter {
	if !cfg.IsAlertEmailEnabled() {
		log.Info("alert e-mail disabled: SMTP_HOST or ALERT_TO_ADDRESS not configured")
		return nil
	}
	return &Alerter{cfg: cfg, log: log}
}

// Subscribe registers the alerter on the event bus.
func (a *Alerter) Subscribe(bus events.Bus) {
	if a == nil {
		return
	}
	bus.Subscribe(events.ZaakForwardingFailed{}.EventName(), events.HandlerFunc(a.onForwardingFailed))
}

func (a *Alerter) onForwardingFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(events.ZaakForwardingFailed)
	if !ok || !failed.Exhausted {
		return nil
	}

	body := fmt.Sprintf(
		"De verwerking van inzending %s is definitief mislukt.\n\n"+
			"Laatst bereikte stap: %s\nFout: %s\n\n"+
			"Controleer de referentie-opslag en de zaak in het zaaksysteem voordat de taak opnieuw wordt aangeboden.",
		failed.SubmissionKey, failed.StateReached, failed.Error,
	)

	if err := a.send(ctx, subjectForwardingDeadLetter, body); err != nil {
		a.log.Error("alert e-mail failed", "submission_key", failed.SubmissionKey, "error", err)
		return err
	}

	a.log.Info("alert e-mail sent", "submission_key", failed.SubmissionKey)
	return nil
}

func (a *Alerter) send(ctx context.Context, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(a.cfg.GetAlertFromAddress()); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(a.cfg.GetAlertToAddress()); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(a.cfg.GetSMTPHost(),
		gomail.WithPort(a.cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(a.cfg.GetSMTPUsername()),
		gomail.WithPassword(a.cfg.GetSMTPPassword()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
