package app

import (
	"log/slog"

	"ramadantracker.app/config"
)

// ConfigDisplayer logs the effective configuration at startup with key
// material redacted.
type ConfigDisplayer struct{}

// NewConfigDisplayer creates a configuration displayer
func NewConfigDisplayer() *ConfigDisplayer {
	return &ConfigDisplayer{}
}

// PrintConfig logs the loaded configuration for debugging
func (d *ConfigDisplayer) PrintConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	slog.Info("Effective configuration",
		"server_port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
		"scan_interval_seconds", cfg.Scheduler.ScanInterval,
		"dispatch_concurrency", cfg.Scheduler.Concurrency,
		"scan_page_size", cfg.Scheduler.PageSize,
		"push_subject", cfg.Push.Subject,
		"push_ttl", cfg.Push.TTL,
		"vapid_public_key", cfg.Push.VAPIDPublicKey,
		"vapid_private_key", redact(cfg.Push.VAPIDPrivateKey),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}
