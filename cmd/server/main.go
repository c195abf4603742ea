package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"membership-portal/config"
	"membership-portal/db"
	portalhttp "membership-portal/http"
	"membership-portal/http/handlers"
	"membership-portal/logger"
	"membership-portal/services"

	"github.com/razorpay/razorpay-go"
)

func main() {
	log := logger.NewDefault()
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal("Error initializing database: %v", err)
	}
	defer conn.Close()

	store := db.NewStore(conn)

	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		log.Fatal("Razorpay credentials not configured")
	}
	razorpayClient := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	events := services.NewEventPublisher(cfg.KafkaBrokers, log)

	var mailer services.ReceiptMailer
	if cfg.SMTPUser != "" && cfg.SMTPPass != "" {
		mailer = services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	} else {
		log.Warn("SMTP not configured, receipt emails disabled")
	}

	payments := services.NewPaymentService(
		razorpayClient.Order,
		store,
		services.NewCSVWriter(cfg.CSVDir),
		events,
		mailer,
		log,
	)

	zoho := services.NewZohoClient(cfg.ZohoClientID, cfg.ZohoClientSecret, cfg.ZohoRefreshToken)
	directory := services.NewDirectoryService(zoho, store, log)

	recaptcha := services.NewRecaptchaVerifier(cfg.RecaptchaSecret)

	h := handlers.New(payments, directory, recaptcha, cfg.RazorpayWebhookSecret, log)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: portalhttp.SetupRoutes(h),
	}

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Server starting on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: %v", err)
		}
	}()

	<-sigChan
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Error shutting down server: %v", err)
	}

	if err := events.Close(); err != nil {
		log.Error("Error closing Kafka producer: %v", err)
	}

	log.Info("Server shutdown complete")
}
