// Package config provides configuration types and loading for smartbot.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration struct.
// Top-level groups: Paths, Bot, WhatsApp, Scheduler, Audit.
type Config struct {
	Paths     PathsConfig     `json:"paths"`
	Bot       BotConfig       `json:"bot"`
	WhatsApp  WhatsAppConfig  `json:"whatsapp"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Audit     AuditConfig     `json:"audit"`
}

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	DataDir   string `json:"dataDir" envconfig:"DATA_DIR"`
	SessionDB string `json:"sessionDb" envconfig:"SESSION_DB"`
	QRFile    string `json:"qrFile" envconfig:"QR_FILE"`
}

// BotConfig groups bot identity and command behaviour.
type BotConfig struct {
	OwnerNumber string `json:"ownerNumber" envconfig:"OWNER_NUMBER"`
	Prefix      string `json:"prefix" envconfig:"PREFIX"`
	Timezone    string `json:"timezone" envconfig:"TIMEZONE"`
}

// WhatsAppConfig configures the WhatsApp transport.
type WhatsAppConfig struct {
	DeviceName       string        `json:"deviceName" envconfig:"WHATSAPP_DEVICE_NAME"`
	ReconnectBase    time.Duration `json:"reconnectBase" envconfig:"WHATSAPP_RECONNECT_BASE"`
	ReconnectMax     time.Duration `json:"reconnectMax" envconfig:"WHATSAPP_RECONNECT_MAX"`
	ReconnectRetries int           `json:"reconnectRetries" envconfig:"WHATSAPP_RECONNECT_RETRIES"`
}

// SchedulerConfig configures the group open/close scheduler.
type SchedulerConfig struct {
	Enabled      bool          `json:"enabled" envconfig:"SCHEDULER_ENABLED"`
	TickInterval time.Duration `json:"tickInterval" envconfig:"SCHEDULER_TICK"`
}

// AuditConfig configures the optional Kafka audit stream.
// The publisher is disabled when Brokers is empty.
type AuditConfig struct {
	Brokers string `json:"brokers" envconfig:"AUDIT_BROKERS"`
	Topic   string `json:"topic" envconfig:"AUDIT_TOPIC"`
}

// Default returns the default configuration rooted at home.
func Default(home string) Config {
	base := filepath.Join(home, ConfigDir)
	return Config{
		Paths: PathsConfig{
			DataDir:   filepath.Join(base, "data"),
			SessionDB: filepath.Join(base, "session.db"),
			QRFile:    filepath.Join(base, "pair-qr.png"),
		},
		Bot: BotConfig{
			Prefix:   "!",
			Timezone: "Asia/Makassar",
		},
		WhatsApp: WhatsAppConfig{
			DeviceName:       "SmartBotV2",
			ReconnectBase:    5 * time.Second,
			ReconnectMax:     5 * time.Minute,
			ReconnectRetries: 10,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			TickInterval: 60 * time.Second,
		},
		Audit: AuditConfig{
			Topic: "smartbot.audit",
		},
	}
}
