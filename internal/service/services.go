package service

import (
	"github.com/dom/kavholm-api/internal/auth"
	"github.com/dom/kavholm-api/internal/config"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/dom/kavholm-api/internal/notify"
	"github.com/dom/kavholm-api/internal/repository"
)

type Services struct {
	Account  *AccountService
	Notifier *notify.Notifier
}

// NotifyConfig extracts the email settings from cfg.
func NotifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		Active:          cfg.EmailServiceActive,
		SendGridAPIKey:  cfg.SendGridAPIKey,
		FromAddress:     cfg.EmailFromAddress,
		ClientURL:       cfg.ClientURL,
		ApplicationName: cfg.ApplicationName,
	}
}

func NewServices(repos *repository.Repositories, gateway notify.Gateway, cfg *config.Config, log logging.Logger) *Services {
	hasher := auth.NewPasswordHasher(cfg.BcryptWorkFactor)
	sessions := auth.NewSessionIssuer(cfg.SecretKey, auth.DefaultSessionTTL)

	return &Services{
		Account:  NewAccountService(repos.Account, hasher, sessions, log.With("component", "accounts")),
		Notifier: notify.NewNotifier(gateway, NotifyConfig(cfg)),
	}
}
