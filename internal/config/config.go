// Package config assembles the run configuration from environment variables,
// an optional YAML file and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Inbox            string        `mapstructure:"inbox"`
	Query            string        `mapstructure:"gmail_query"`
	HandledLabelName string        `mapstructure:"handled_label_name"`
	HandledLabelID   string        `mapstructure:"handled_label_id"`
	APIEndpoint      string        `mapstructure:"api_endpoint"`
	APIAuthorization string        `mapstructure:"api_authorization_header"`
	APITimeout       time.Duration `mapstructure:"api_timeout"`
	AuthMode         string        `mapstructure:"auth_mode"`
	KeyFile          string        `mapstructure:"service_account_file"`
	GmailctlDir      string        `mapstructure:"gmailctl_dir"`
	PageSize         int           `mapstructure:"page_size"`
	RPS              int           `mapstructure:"rps"`
	ContinueOnError  bool          `mapstructure:"continue_on_error"`
	DryRun           bool          `mapstructure:"dry_run"`
	LogLevel         string        `mapstructure:"log_level"`
}

// env names follow the deployment's existing variables; keys are the flag
// and file names.
var envNames = map[string]string{
	"inbox":                    "INBOX",
	"gmail_query":              "GMAIL_QUERY",
	"handled_label_name":       "HANDLED_LABEL_NAME",
	"handled_label_id":         "HANDLED_LABEL_ID",
	"api_endpoint":             "API_ENDPOINT",
	"api_authorization_header": "API_AUTHORIZATION_HEADER",
	"api_timeout":              "API_TIMEOUT",
	"auth_mode":                "AUTH_MODE",
	"service_account_file":     "SERVICE_ACCOUNT_FILE",
	"gmailctl_dir":             "GMAILCTL_DIR",
	"page_size":                "PAGE_SIZE",
	"rps":                      "RPS",
	"continue_on_error":        "CONTINUE_ON_ERROR",
	"dry_run":                  "DRY_RUN",
	"log_level":                "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auth_mode", "service-account")
	v.SetDefault("service_account_file", "service-account-key.json")
	v.SetDefault("gmailctl_dir", os.ExpandEnv("$HOME/.gmailctl"))
	v.SetDefault("page_size", 500)
	v.SetDefault("rps", 4)
	v.SetDefault("api_timeout", time.Duration(0))
	v.SetDefault("log_level", "info")
}

// Load resolves configuration with precedence flags > env > file > defaults.
// flags may be nil; path may be empty.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := envNames[key]; !known {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
// Settings used only for forwarding are skipped when forward is false.
func (c Config) Validate(forward bool) error {
	var errs *multierror.Error
	required := func(val, env string) {
		if strings.TrimSpace(val) == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s is required", env))
		}
	}
	switch c.AuthMode {
	case "service-account":
		required(c.Inbox, "INBOX")
		required(c.KeyFile, "SERVICE_ACCOUNT_FILE")
	case "local":
		required(c.GmailctlDir, "GMAILCTL_DIR")
		if forward {
			errs = multierror.Append(errs, fmt.Errorf("AUTH_MODE=local can only list labels; use service-account to forward mail"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("AUTH_MODE must be service-account or local, got %q", c.AuthMode))
	}
	if forward {
		required(c.HandledLabelName, "HANDLED_LABEL_NAME")
		if !c.DryRun {
			required(c.APIEndpoint, "API_ENDPOINT")
			required(c.APIAuthorization, "API_AUTHORIZATION_HEADER")
		}
	}
	if c.PageSize < 0 || c.PageSize > 500 {
		errs = multierror.Append(errs, fmt.Errorf("PAGE_SIZE must be between 0 and 500, got %d", c.PageSize))
	}
	if c.APITimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("API_TIMEOUT must not be negative"))
	}
	if _, err := c.Level(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
