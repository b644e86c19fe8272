package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/courier"
	"github.com/vladislavdragonenkov/printshop/internal/service/invoicing"
	"github.com/vladislavdragonenkov/printshop/internal/service/notification"
	"github.com/vladislavdragonenkov/printshop/internal/service/retry"
)

// collaborators: внешние исполнители оформления, уже обёрнутые повторами.
type collaborators struct {
	courier  domain.Courier
	invoicer domain.Invoicer
	notifier domain.Notifier
}

// buildCollaborators собирает адаптеры курьера, счетов и уведомлений.
// Курьер и счета: mock-адаптеры; у каждого исполнителя свой breaker.
func buildCollaborators(cfg Config, logger *log.Entry) (collaborators, error) {
	retrier := retry.New(retry.Config{
		MaxAttempts:   cfg.RetryMaxAttempts,
		InitialDelay:  cfg.RetryInitialDelay,
		MaxDelay:      cfg.RetryMaxDelay,
		BackoffFactor: 2,
	}, logger.WithField("component", "retry"))

	policy := func(name string) retry.Policy {
		return retry.Policy{
			Retrier: retrier,
			Breaker: retry.NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout,
				logger.WithFields(log.Fields{"component": "circuit-breaker", "collaborator": name})),
		}
	}

	var notifier domain.Notifier
	if cfg.SendGridAPIKey != "" {
		sg, err := notification.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.SendGridFromName,
			logger.WithField("component", "notification"))
		if err != nil {
			return collaborators{}, err
		}
		notifier = sg
		logger.Info("sendgrid notifier enabled")
	} else {
		notifier = notification.NewLogNotifier(logger.WithField("component", "notification"))
		logger.Info("sendgrid is not configured, notifications go to the log")
	}

	return collaborators{
		courier:  retry.Courier(courier.NewMockService(), policy("courier")),
		invoicer: retry.Invoicer(invoicing.NewMockService(cfg.InvoiceBaseURL), policy("invoicing")),
		notifier: retry.Notifier(notifier, policy("notification")),
	}, nil
}
