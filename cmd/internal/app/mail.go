package app

import "warden/cmd/internal/auth/account"

// newMailer selects the outbound mail transport. Without an SMTP relay the
// server still runs, but verification links and login codes go nowhere, so
// the fallback is loudly logged.
func newMailer(cfg Config, log Logger) account.Mailer {
	if cfg.SMTPAddr == "" || cfg.SMTPFrom == "" {
		log.Warn("mail.disabled.noop_mailer")
		return account.NoopMailer{}
	}

	log.Info("mail.enabled.smtp", "addr", cfg.SMTPAddr)
	return account.SMTPMailer{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}
}
