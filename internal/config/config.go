// Package config loads settings from defaults, an optional taskchamp.yaml and
// TASKCHAMP_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/screen"
	"github.com/dukerupert/taskchamp/internal/storage"
)

const EnvPrefix = "TASKCHAMP"

type Config struct {
	Port         string
	DBPath       string
	BaseURL      string
	CookieSecure bool

	LogLevel  string
	LogFormat string

	Gateway gateway.Config
	Poll    screen.PollConfig

	ViewStateTTL time.Duration

	Storage storage.S3Config

	PostmarkToken string
	EmailFrom     string
	ResetSecret   string
	ResetTokenTTL time.Duration
}

// New returns a viper instance with defaults, env binding and the config file search path set.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "taskchamp.db")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	gw := gateway.DefaultConfig()
	v.SetDefault("points.regular", gw.RegularTaskPoints)
	v.SetDefault("points.bonus", gw.BonusTaskPoints)
	v.SetDefault("session_ttl", gw.SessionTTL)
	v.SetDefault("master.inactive_after_days", gw.InactiveAfterDays)
	v.SetDefault("master.recent_tasks", gw.RecentTaskLimit)

	poll := screen.DefaultPollConfig()
	v.SetDefault("refresh.poll_base", poll.Base)
	v.SetDefault("refresh.poll_max", poll.Max)
	v.SetDefault("refresh.poll_attempts", poll.Attempts)

	v.SetDefault("viewstate_ttl", 2*time.Hour)

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "profiles")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_url", "")

	v.SetDefault("email.postmark_token", "")
	v.SetDefault("email.from", "")
	v.SetDefault("reset.secret", "")
	v.SetDefault("reset.ttl", time.Hour)

	v.SetConfigName("taskchamp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskchamp")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if one exists and decodes the result.
// A missing file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:         v.GetString("port"),
		DBPath:       v.GetString("db_path"),
		BaseURL:      strings.TrimRight(v.GetString("base_url"), "/"),
		CookieSecure: v.GetBool("cookie_secure"),
		LogLevel:     v.GetString("log.level"),
		LogFormat:    v.GetString("log.format"),
		Gateway: gateway.Config{
			RegularTaskPoints: v.GetInt("points.regular"),
			BonusTaskPoints:   v.GetInt("points.bonus"),
			SessionTTL:        v.GetDuration("session_ttl"),
			InactiveAfterDays: v.GetInt("master.inactive_after_days"),
			RecentTaskLimit:   v.GetInt("master.recent_tasks"),
		},
		Poll: screen.PollConfig{
			Base:     v.GetDuration("refresh.poll_base"),
			Max:      v.GetDuration("refresh.poll_max"),
			Attempts: v.GetUint64("refresh.poll_attempts"),
		},
		ViewStateTTL: v.GetDuration("viewstate_ttl"),
		Storage: storage.S3Config{
			Endpoint:  v.GetString("s3.endpoint"),
			Bucket:    v.GetString("s3.bucket"),
			Region:    v.GetString("s3.region"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
			PublicURL: v.GetString("s3.public_url"),
		},
		PostmarkToken: v.GetString("email.postmark_token"),
		EmailFrom:     v.GetString("email.from"),
		ResetSecret:   v.GetString("reset.secret"),
		ResetTokenTTL: v.GetDuration("reset.ttl"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.Gateway.RegularTaskPoints < 0 || c.Gateway.BonusTaskPoints < 0 {
		errs = append(errs, errors.New("task points must not be negative"))
	}
	if c.Gateway.SessionTTL <= 0 {
		errs = append(errs, errors.New("session_ttl must be positive"))
	}
	if c.Poll.Attempts == 0 {
		errs = append(errs, errors.New("refresh.poll_attempts must be at least 1"))
	}
	if c.PostmarkToken != "" && c.ResetSecret == "" {
		errs = append(errs, errors.New("reset.secret is required when email is configured"))
	}
	return errors.Join(errs...)
}

// ResetEnabled reports whether password reset mail can be sent.
func (c Config) ResetEnabled() bool {
	return c.PostmarkToken != "" && c.EmailFrom != "" && c.ResetSecret != ""
}
