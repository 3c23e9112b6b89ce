package main

import (
	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/internal/config"
	"github.com/phishsim/api/pkg/email"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/sms"
)

// Services holds all application service instances.
type Services struct {
	Campaign *app.CampaignService
	Target   *app.TargetService
	Tracking *app.TrackingService
	Capture  *app.CaptureService
	Delivery *app.DeliveryService
}

// NewServices wires the application services. dispatcher may be nil,
// which disables background delivery dispatch.
func NewServices(cfg *config.Config, repos *Repositories, dispatcher app.Dispatcher, log *logger.Logger) *Services {
	tracking := app.NewTrackingService(repos.Campaign, repos.Target, repos.Event, repos.Credential, log)

	return &Services{
		Campaign: app.NewCampaignService(repos.Campaign, repos.Target, dispatcher, log),
		Target:   app.NewTargetService(repos.Target, log),
		Tracking: tracking,
		Capture:  app.NewCaptureService(repos.Campaign, repos.Target, repos.Credential, tracking, log),
		Delivery: app.NewDeliveryService(
			repos.Campaign,
			repos.Target,
			tracking,
			newEmailSender(cfg),
			newSMSSender(cfg),
			cfg.Tracking.BaseURL,
			log,
		),
	}
}

// newEmailSender builds the SMTP sender, or a no-op when delivery is
// disabled.
func newEmailSender(cfg *config.Config) email.Sender {
	if !cfg.SMTP.Enabled {
		return email.NewNoOpSender()
	}
	return email.NewSMTPSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
		TLS:      cfg.SMTP.UseTLS,
		Timeout:  cfg.SMTP.Timeout,
	})
}

// newSMSSender builds the SMS gateway sender, or a no-op when delivery
// is disabled.
func newSMSSender(cfg *config.Config) sms.Sender {
	if !cfg.SMS.Enabled {
		return sms.NewNoOpSender()
	}
	return sms.NewGatewaySender(sms.Config{
		GatewayURL: cfg.SMS.GatewayURL,
		APIKey:     cfg.SMS.APIKey,
		From:       cfg.SMS.From,
		Timeout:    cfg.SMS.Timeout,
	})
}
