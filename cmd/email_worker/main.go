package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/pkg/helpers"
	"github.com/oksasatya/greenloop/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender,
		mailer.WithAPIBase(cfg.MailgunAPIBase), mailer.WithTags(cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	if err := consumer.Consume(ctx, handleEmail(mg, logger)); err != nil {
		logger.WithError(err).Error("consumer stopped")
	}
	logger.Info("email worker exited")
}

// handleEmail renders and sends one job. Bad payloads and render failures
// are dropped; send failures are requeued.
func handleEmail(sender mailer.Sender, logger *logrus.Logger) func(ctx context.Context, body []byte) error {
	return func(ctx context.Context, body []byte) error {
		var job mailer.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			logger.WithError(err).Warn("bad email message")
			return fmt.Errorf("%w: %v", helpers.ErrDropMessage, err)
		}
		helpers.EnsureRecipientAndEmail(&job)

		subject, text, html, err := helpers.RenderEmailJob(&job)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "user_id": job.UserID}).Warn("render failed")
			return fmt.Errorf("%w: %v", helpers.ErrDropMessage, err)
		}

		c, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := sender.Send(c, job.To, subject, text, html); err != nil {
			logger.WithError(err).WithField("template", job.Template).Error("send failed")
			return err
		}
		logger.WithFields(logrus.Fields{"template": job.TemplateName(), "user_id": job.UserID}).Info("email sent")
		return nil
	}
}
