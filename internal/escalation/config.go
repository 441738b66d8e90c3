// Package escalation decides what collections action to take for overdue
// invoices: when to send reminders, when a phone call is warranted, when a
// case must be escalated to a human, and which contacts need special
// handling. Decisions are pure functions of the invoice, the communication
// history, and the policy configuration, so running an analysis twice on the
// same inputs yields the same plan.
package escalation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the collections policy knobs.
type Config struct {
	// HighValueThreshold is the outstanding balance at or above which phone
	// calls and sensitive actions require human approval.
	HighValueThreshold decimal.Decimal `json:"high_value_threshold"`

	// DaysUntilFirstReminder is the overdue age before the first reminder.
	DaysUntilFirstReminder int `json:"days_until_first_reminder"`

	// DaysBetweenReminders is the minimum gap between reminders.
	DaysBetweenReminders int `json:"days_between_reminders"`

	// MaxAutonomousReminders is how many reminders go out without a human
	// before the case moves to a call or escalation.
	MaxAutonomousReminders int `json:"max_autonomous_reminders"`

	// EscalationDays is the overdue age that forces escalation regardless of
	// contact history.
	EscalationDays int `json:"escalation_days"`

	// BlacklistedContacts are company names that must never be contacted
	// automatically. Matched by exact name.
	BlacklistedContacts []string `json:"blacklisted_contacts"`

	// VIPContacts are keywords identifying companies whose outreach always
	// needs approval and a softer tone. Matched by substring,
	// case-insensitively.
	VIPContacts []string `json:"vip_contacts"`
}

// DefaultConfig returns the production collections policy.
func DefaultConfig() *Config {
	return &Config{
		HighValueThreshold:     decimal.NewFromInt(5000),
		DaysUntilFirstReminder: 7,
		DaysBetweenReminders:   7,
		MaxAutonomousReminders: 3,
		EscalationDays:         60,
	}
}

// Validate checks if the escalation configuration is valid.
func (c *Config) Validate() error {
	if c.HighValueThreshold.IsNegative() {
		return fmt.Errorf("high value threshold cannot be negative: %s", c.HighValueThreshold)
	}
	if c.DaysUntilFirstReminder < 0 {
		return fmt.Errorf("days until first reminder cannot be negative: %d", c.DaysUntilFirstReminder)
	}
	if c.DaysBetweenReminders <= 0 {
		return fmt.Errorf("days between reminders must be positive: %d", c.DaysBetweenReminders)
	}
	if c.MaxAutonomousReminders <= 0 {
		return fmt.Errorf("max autonomous reminders must be positive: %d", c.MaxAutonomousReminders)
	}
	if c.EscalationDays <= 0 {
		return fmt.Errorf("escalation days must be positive: %d", c.EscalationDays)
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.BlacklistedContacts = append([]string(nil), c.BlacklistedContacts...)
	clone.VIPContacts = append([]string(nil), c.VIPContacts...)
	return &clone
}

// IsBlacklisted reports whether a company must not be contacted.
func (c *Config) IsBlacklisted(companyName string) bool {
	for _, name := range c.BlacklistedContacts {
		if name == companyName {
			return true
		}
	}
	return false
}

// IsVIP reports whether a company matches any VIP keyword.
func (c *Config) IsVIP(companyName string) bool {
	lower := strings.ToLower(companyName)
	for _, keyword := range c.VIPContacts {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
