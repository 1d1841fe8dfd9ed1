package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "TEAMLINE"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "teamline.db"
	defaultLogLevel      = "info"
	defaultMailProvider  = "log"
	defaultMailFrom      = "noreply@teamline.local"
	defaultMailFromName  = "Teamline"
	defaultSMTPPort      = 587
	defaultBaseURL       = "http://localhost:8080"
	defaultScannerHour   = 8
	defaultScannerOn     = true
	defaultSendTimeoutMS = 10000
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress  string
	DatabasePath string
	LogLevel     string
	BaseURL      string

	MailProvider  string
	MailFrom      string
	MailFromName  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SESRegion     string
	SendTimeoutMS int

	ScannerEnabled bool
	ScannerHour    int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("app.base_url", defaultBaseURL)
	configViper.SetDefault("mail.provider", defaultMailProvider)
	configViper.SetDefault("mail.from", defaultMailFrom)
	configViper.SetDefault("mail.from_name", defaultMailFromName)
	configViper.SetDefault("mail.smtp_port", defaultSMTPPort)
	configViper.SetDefault("mail.send_timeout_ms", defaultSendTimeoutMS)
	configViper.SetDefault("scanner.enabled", defaultScannerOn)
	configViper.SetDefault("scanner.hour", defaultScannerHour)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:    configViper.GetString("http.address"),
		DatabasePath:   configViper.GetString("database.path"),
		LogLevel:       configViper.GetString("log.level"),
		BaseURL:        configViper.GetString("app.base_url"),
		MailProvider:   configViper.GetString("mail.provider"),
		MailFrom:       configViper.GetString("mail.from"),
		MailFromName:   configViper.GetString("mail.from_name"),
		SMTPHost:       configViper.GetString("mail.smtp_host"),
		SMTPPort:       configViper.GetInt("mail.smtp_port"),
		SMTPUsername:   configViper.GetString("mail.smtp_username"),
		SMTPPassword:   configViper.GetString("mail.smtp_password"),
		SESRegion:      configViper.GetString("mail.ses_region"),
		SendTimeoutMS:  configViper.GetInt("mail.send_timeout_ms"),
		ScannerEnabled: configViper.GetBool("scanner.enabled"),
		ScannerHour:    configViper.GetInt("scanner.hour"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.MailProvider)) {
	case "log":
	case "smtp":
		if strings.TrimSpace(c.SMTPHost) == "" {
			return fmt.Errorf("mail.smtp_host is required for the smtp provider")
		}
		if strings.TrimSpace(c.SMTPUsername) == "" || strings.TrimSpace(c.SMTPPassword) == "" {
			return fmt.Errorf("mail.smtp_username and mail.smtp_password are required for the smtp provider")
		}
	case "ses":
		if strings.TrimSpace(c.SESRegion) == "" {
			return fmt.Errorf("mail.ses_region is required for the ses provider")
		}
	default:
		return fmt.Errorf("mail.provider must be one of log, smtp, ses")
	}
	if c.ScannerHour < 0 || c.ScannerHour > 23 {
		return fmt.Errorf("scanner.hour must be between 0 and 23")
	}
	return nil
}
