package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/huyvuong1109/Financial-Management-Web/internal/alert"
	"github.com/huyvuong1109/Financial-Management-Web/internal/budget"
	"github.com/huyvuong1109/Financial-Management-Web/internal/config"
	"github.com/huyvuong1109/Financial-Management-Web/internal/controllers"
	"github.com/huyvuong1109/Financial-Management-Web/internal/ledger"
	"github.com/huyvuong1109/Financial-Management-Web/internal/mail"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/notify"
	"github.com/huyvuong1109/Financial-Management-Web/internal/otp"
	"github.com/huyvuong1109/Financial-Management-Web/internal/router"
	"github.com/huyvuong1109/Financial-Management-Web/internal/transaction"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// gin uses debug as the default mode, we use release for
	// security reasons
	gin.SetMode(cfg.App.GinMode)

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	output := io.Writer(os.Stdout)
	if (cfg.App.LogFormat == "" && gin.IsDebugging()) || cfg.App.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	// Create the data directory
	err = os.MkdirAll(filepath.Dir(cfg.DB.Path), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Connect to the database and migrate all models
	err = models.Connect(cfg.DB.Path + "?_pragma=foreign_keys(1)")
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Without a broker the backend still serves requests, alerts are
	// logged instead of published.
	var dispatcher alert.Dispatcher = alert.LogDispatcher{}
	conn, err := amqp.Dial(cfg.Queue.URL)
	if err != nil {
		log.Warn().Err(err).Msg("broker unreachable, alert publishing disabled")
	} else {
		defer conn.Close()

		dispatcher, err = alert.NewAMQPDispatcher(conn)
		if err != nil {
			log.Fatal().Msg(err.Error())
		}
	}

	var sender mail.Sender = mail.LogSender{}
	if cfg.Mail.Host != "" {
		sender = &mail.SMTPSender{
			Addr: cfg.SMTPAddr(),
			From: cfg.Mail.From,
			Auth: cfg.SMTPAuth(),
		}
	}

	var payments notify.PaymentRecorder = notify.NopPaymentRecorder{}
	if cfg.Payment.URL != "" {
		payments = notify.NewHTTPPaymentRecorder(cfg.Payment.URL)
	}

	tracker := budget.NewTracker(models.DB, dispatcher)
	engine := transaction.NewEngine(models.DB, otp.NewDefault(), mail.CodeMailer{Sender: sender}, tracker, payments)

	ctrl := &controllers.Controller{
		DB:      models.DB,
		Engine:  engine,
		Tracker: tracker,
		Ledger:  ledger.New(models.DB),
	}

	r, err := router.Router(ctrl)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	log.Info().Int("port", cfg.App.Port).Msg("backend startup complete")
	if err := r.Run(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
