package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel      = "info"
	DefaultDBPath        = "storage.db"
	DefaultPrayerBaseURL = "https://islomapi.uz/api/present/day"
	DefaultPrayerRegion  = "Toshkent"
	DefaultTaskWindow    = 5
	DefaultPrayerWindow  = 2
)

// Default schedules for background tasks, in cron syntax with seconds omitted.
var defaultTaskSchedules = map[string]string{
	"notification_sweep": "* * * * *",
	"callback_eviction":  "0 * * * *",
	"state_cleanup":      "*/10 * * * *",
	"sql_maintenance":    "0 4 * * *",
}

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file (optional)
// 3. BOT_* environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, env vars and defaults cover it.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Scheduler.Tasks == nil {
		cfg.Scheduler.Tasks = make(map[string]TaskConfig)
	}
	for name, schedule := range defaultTaskSchedules {
		if _, ok := cfg.Scheduler.Tasks[name]; !ok {
			cfg.Scheduler.Tasks[name] = TaskConfig{Enabled: true, Schedule: schedule}
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	// Empty defaults so AutomaticEnv can populate these through Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("prayer.base_url", DefaultPrayerBaseURL)
	v.SetDefault("prayer.default_region", DefaultPrayerRegion)

	v.SetDefault("notifications.task_window", DefaultTaskWindow)
	v.SetDefault("notifications.prayer_window", DefaultPrayerWindow)
}
