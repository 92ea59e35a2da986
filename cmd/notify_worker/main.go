package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/pkg/events"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
	"github.com/oksasatya/go-social-graph/pkg/mailer"
)

// notify_worker consumes graph events and emails the people they concern:
// a welcome on user.created and a notice to the followed user on follow.created.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; notify worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("amqp consumer")
	}
	defer consumer.Close()

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunAPIBase)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range consumer.Deliveries {
			handle(ctx, cfg, mg, logger, msg)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQEventsQueue).Info("notify worker listening")
	<-stop
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func handle(ctx context.Context, cfg *config.Config, mg *mailer.Mailgun, logger *logrus.Logger, msg amqp.Delivery) {
	var ev events.Event
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		logger.WithError(err).Warn("bad message")
		_ = msg.Nack(false, false)
		return
	}
	log := logger.WithFields(logrus.Fields{"type": ev.Type, "actor": ev.Actor, "target": ev.Target})

	job, ok := helpers.JobForEvent(cfg, ev)
	if !ok {
		_ = msg.Ack(false)
		return
	}
	job, err := mailer.Compose(job)
	if err != nil {
		log.WithError(err).Error("render failed")
		_ = msg.Nack(false, false)
		return
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := mg.Send(c, job.To, job.Subject, job.Text, job.HTML); err != nil {
		log.WithError(err).Warn("send failed; requeueing")
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	log.WithField("template", job.Template).Info("notification sent")
	_ = msg.Ack(false)
}
