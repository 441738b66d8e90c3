// Package config assembles the service components from CLI flags,
// environment variables, and the optional config file.
package config

import (
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"ar-collections-service/internal/channels"
	"ar-collections-service/internal/composer"
	"ar-collections-service/internal/escalation"
	"ar-collections-service/internal/matcher"
	"ar-collections-service/internal/service"
	"ar-collections-service/internal/store"
	"ar-collections-service/pkg/logger"
)

// BuildLogger creates the process logger from the current settings.
func BuildLogger() (logger.Logger, error) {
	cfg := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		cfg = logger.DebugConfig()
	}
	if viper.GetString("log_format") == "json" {
		cfg.Format = logger.JSONFormat
	}
	if file := viper.GetString("log_file"); file != "" {
		cfg.File = file
	}
	return logger.NewLogger(cfg)
}

// OpenStore opens the memory store: Postgres when a DSN is configured, the
// file-backed store otherwise.
func OpenStore(log logger.Logger) (store.Store, error) {
	return store.Open(viper.GetString("database_url"), viper.GetString("data_dir"), log)
}

// CreateMatcherConfig creates a matcher configuration with the CLI threshold
// override applied. A negative threshold keeps the default.
func CreateMatcherConfig(threshold float64) *matcher.Config {
	cfg := matcher.DefaultConfig()
	if threshold >= 0 {
		cfg.ConfidenceThreshold = threshold
	}
	return cfg
}

// CreateEscalationConfig creates the collections policy from settings.
func CreateEscalationConfig() *escalation.Config {
	cfg := escalation.DefaultConfig()

	if viper.IsSet("high_value_threshold") {
		cfg.HighValueThreshold = decimal.NewFromFloat(viper.GetFloat64("high_value_threshold"))
	}
	if viper.IsSet("days_until_first_reminder") {
		cfg.DaysUntilFirstReminder = viper.GetInt("days_until_first_reminder")
	}
	if viper.IsSet("days_between_reminders") {
		cfg.DaysBetweenReminders = viper.GetInt("days_between_reminders")
	}
	if viper.IsSet("max_autonomous_reminders") {
		cfg.MaxAutonomousReminders = viper.GetInt("max_autonomous_reminders")
	}
	if viper.IsSet("escalation_days") {
		cfg.EscalationDays = viper.GetInt("escalation_days")
	}
	cfg.BlacklistedContacts = viper.GetStringSlice("blacklisted_contacts")
	cfg.VIPContacts = viper.GetStringSlice("vip_contacts")

	return cfg
}

// CreatePersona creates the outreach persona from settings.
func CreatePersona() composer.Persona {
	persona := composer.DefaultPersona()
	if name := viper.GetString("persona.name"); name != "" {
		persona.Name = name
	}
	if title := viper.GetString("persona.title"); title != "" {
		persona.Title = title
	}
	if company := viper.GetString("persona.company"); company != "" {
		persona.Company = company
	}
	if email := viper.GetString("persona.email"); email != "" {
		persona.Email = email
	}
	if phone := viper.GetString("persona.phone"); phone != "" {
		persona.Phone = phone
	}
	return persona
}

// CreateSender creates the delivery channel: SMTP when configured, console
// output otherwise.
func CreateSender(log logger.Logger) channels.Sender {
	host := viper.GetString("smtp.host")
	if host == "" {
		return &channels.ConsoleSender{Out: os.Stdout}
	}

	return channels.NewEmailSender(channels.SMTPConfig{
		Host:     host,
		Port:     viper.GetInt("smtp.port"),
		Username: viper.GetString("smtp.username"),
		Password: viper.GetString("smtp.password"),
		From:     viper.GetString("smtp.from"),
	}, log)
}

// BuildService wires a fully configured collections service. The returned
// service owns the store; callers should Close it when done.
func BuildService(threshold float64, log logger.Logger) (*service.Service, error) {
	st, err := OpenStore(log)
	if err != nil {
		return nil, err
	}

	svc, err := service.New(service.Options{
		Store:            st,
		MatcherConfig:    CreateMatcherConfig(threshold),
		EscalationConfig: CreateEscalationConfig(),
		Persona:          CreatePersona(),
		Sender:           CreateSender(log),
		Logger:           log,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	return svc, nil
}
