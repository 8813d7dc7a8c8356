// The notifier consumes budget alert messages from the queue, delivers
// them by mail and records them for the audit trail. It runs separately
// from the API backend and shares nothing with it but the database and
// the queue.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/huyvuong1109/Financial-Management-Web/internal/alert"
	"github.com/huyvuong1109/Financial-Management-Web/internal/config"
	"github.com/huyvuong1109/Financial-Management-Web/internal/mail"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	output := io.Writer(os.Stdout)
	if cfg.App.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	err = os.MkdirAll(filepath.Dir(cfg.DB.Path), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	err = models.Connect(cfg.DB.Path + "?_pragma=foreign_keys(1)")
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	conn, err := amqp.Dial(cfg.Queue.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to broker")
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open channel")
	}
	defer channel.Close()

	_, err = channel.QueueDeclare(alert.Queue, true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare queue")
	}

	// autoAck: the broker considers the message delivered as soon as it is
	// handed to us. A crash mid-processing loses that one message, which is
	// the at-most-once contract the alert flags on the budget rely on.
	deliveries, err := channel.Consume(alert.Queue, "notifier", true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start consuming")
	}

	var sender mail.Sender = mail.LogSender{}
	if cfg.Mail.Host != "" {
		sender = &mail.SMTPSender{
			Addr: cfg.SMTPAddr(),
			From: cfg.Mail.From,
			Auth: cfg.SMTPAuth(),
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", alert.Queue).Msg("notifier startup complete")
	alert.NewConsumer(models.DB, sender).Run(ctx, deliveries)
	log.Info().Msg("notifier shutting down")
}
