// Package config is the boundary: the only place in this module that reads
// environment variables, YAML files, or a filesystem layout. Grounded
// directly on the teacher's internal/config/config.go — same chu.Load +
// loaderenv shape, same cfg tag conventions, same log-on-load idiom — with
// the provider/gateway registry swapped for the catalog/model-document
// layout this server reads instead.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"
	"github.com/rakunlabs/tell"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Service names this process for the teacher's mserver middleware. The
// env-var prefix Load gives loaderenv is the fixed "MOCKLLM_", not derived
// from Service.
var Service = "mockllm"

// Config is the root of the on-disk/environment configuration.
type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	// ConfigDir is the directory holding _catalog.yaml and models/*.yaml.
	ConfigDir string `cfg:"config_dir" default:"./config"`

	Server    Server      `cfg:"server"`
	Response  Response    `cfg:"response"`
	Store     Store       `cfg:"store"`
	Notify    Notify      `cfg:"notify"`
	Telemetry tell.Config `cfg:"telemetry,noprefix"`

	// ReloadDebounce is accepted as a bare duration string so it tolerates
	// the unitless shorthand str2duration understands (e.g. "5"); it is
	// converted by ReloadDebounceDuration rather than decoded by chu as a
	// time.Duration.
	ReloadDebounce string `cfg:"reload_debounce" default:"500ms"`
}

// Server configures the HTTP edge: listen address, base path, and the two
// bearer-token boundaries (gateway auth, admin auth).
type Server struct {
	Host string `cfg:"host"`
	Port string `cfg:"port" default:"8080"`

	BasePath string `cfg:"base_path"`

	// Auth guards /v1/*; Enabled false means the gateway surface is
	// unauthenticated regardless of Token.
	Auth BearerAuth `cfg:"auth"`

	// AdminAuth guards /v0/*; Enabled false means the admin surface is
	// unauthenticated. Unlike the teacher's AdminToken (where an empty
	// token disables the surface entirely), here the surface and the
	// auth check are independent: admin endpoints always exist, auth is
	// opt-in.
	AdminAuth BearerAuth `cfg:"admin_auth"`
}

// BearerAuth is a simple enabled/token bearer-auth gate, per spec.md §6's
// "server.auth / server.admin_auth: {enabled bool, token string}".
type BearerAuth struct {
	Enabled bool   `cfg:"enabled"`
	Token   string `cfg:"token" log:"-"`
}

// Response configures the wire-shaping applied to every model's responses;
// model documents carry no per-model override of it.
type Response struct {
	// ReasoningMode: none | prefix | field | both. "append" is accepted as
	// a deprecated alias of "prefix" and normalized in Load.
	ReasoningMode      string `cfg:"reasoning_mode" default:"none"`
	IncludeUsage       bool   `cfg:"include_usage" default:"true"`
	StreamFirstDelayMS int    `cfg:"stream_first_delay_ms"`
}

// Store selects the audit history backend. At most one of SQLite/Postgres
// should be set; neither set falls back to an in-memory store.
type Store struct {
	SQLite   *StoreSQLite   `cfg:"sqlite"`
	Postgres *StorePostgres `cfg:"postgres"`
}

type StoreSQLite struct {
	Datasource  string  `cfg:"datasource"`
	TablePrefix *string `cfg:"table_prefix"`
}

type StorePostgres struct {
	DSN         string  `cfg:"dsn" log:"-"`
	TablePrefix *string `cfg:"table_prefix"`
}

// Notify configures the operator-paging side channels the interactive
// broker fans `queued` events out to. Every sub-config is optional;
// unconfigured channels are simply not constructed.
type Notify struct {
	Discord  *NotifyDiscord  `cfg:"discord"`
	Telegram *NotifyTelegram `cfg:"telegram"`
	Mail     *NotifyMail     `cfg:"mail"`
}

type NotifyDiscord struct {
	BotToken  string `cfg:"bot_token" log:"-"`
	ChannelID string `cfg:"channel_id"`
}

type NotifyTelegram struct {
	BotToken string `cfg:"bot_token" log:"-"`
	ChatID   int64  `cfg:"chat_id"`
}

// NotifyMail mirrors the teacher's smtpConfig shape (email.go's NodeConfig
// "email" type).
type NotifyMail struct {
	Host               string   `cfg:"host"`
	Port               int      `cfg:"port" default:"587"`
	Username           string   `cfg:"username"`
	Password           string   `cfg:"password" log:"-"`
	From               string   `cfg:"from"`
	To                 []string `cfg:"to"`
	TLS                bool     `cfg:"tls"`
	NoTLS              bool     `cfg:"no_tls"`
	InsecureSkipVerify bool     `cfg:"insecure_skip_verify"`
}

// Load reads configuration from path (and AT-style environment overrides),
// sets the process log level, and normalizes the deprecated "append"
// reasoning-mode spelling to "prefix".
func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, path, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("MOCKLLM_")))); err != nil {
		return nil, err
	}

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	if cfg.Response.ReasoningMode == "append" {
		cfg.Response.ReasoningMode = "prefix"
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}

// ReloadDebounceDuration parses ReloadDebounce, falling back to 500ms on a
// malformed value rather than failing startup over a debounce knob.
func (c *Config) ReloadDebounceDuration() time.Duration {
	d, err := str2duration.ParseDuration(c.ReloadDebounce)
	if err != nil {
		slog.Warn("invalid reload_debounce, using default", "value", c.ReloadDebounce, "error", err)
		return 500 * time.Millisecond
	}
	return d
}
