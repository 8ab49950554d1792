// Package config defines the application configuration structure and loading.
package config

// Config is the root configuration for the application.
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Prayer        PrayerConfig        `mapstructure:"prayer"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token       string `mapstructure:"token" validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// PrayerConfig holds prayer time source settings.
type PrayerConfig struct {
	BaseURL       string `mapstructure:"base_url" validate:"required,url"`
	DefaultRegion string `mapstructure:"default_region" validate:"required"`
}

// NotificationsConfig tunes the sweep firing windows, in minutes.
type NotificationsConfig struct {
	TaskWindow   int `mapstructure:"task_window" validate:"omitempty,min=1,max=60"`
	PrayerWindow int `mapstructure:"prayer_window" validate:"omitempty,min=1,max=15"`
}

// SchedulerConfig holds settings for scheduled background tasks.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig holds settings for a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
