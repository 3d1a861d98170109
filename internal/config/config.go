package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type QuizConfig struct {
	AdvanceDelay    string `mapstructure:"advance_delay"`
	CreationTimeout string `mapstructure:"creation_timeout"`
	CancelKeyword   string `mapstructure:"cancel_keyword"`
	Timezone        string `mapstructure:"timezone"`
	TopN            int    `mapstructure:"top_n"`
	SeedFile        string `mapstructure:"seed_file"`
	BankTTL         string `mapstructure:"bank_ttl"`
}

type AdminConfig struct {
	IDs []string `mapstructure:"ids"`
}

// Load reads YAML config from path, then applies TRIVIA_* environment
// overrides (e.g. TRIVIA_REDIS_ADDR). A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("postgres.url", "")
	v.SetDefault("sqlite.path", "")
	v.SetDefault("quiz.advance_delay", "2s")
	v.SetDefault("quiz.creation_timeout", "5m")
	v.SetDefault("quiz.cancel_keyword", "cancel")
	v.SetDefault("quiz.timezone", "Asia/Jakarta")
	v.SetDefault("quiz.top_n", 10)
	v.SetDefault("quiz.seed_file", "")
	v.SetDefault("quiz.bank_ttl", "10m")
	v.SetDefault("admin.ids", []string{})

	v.SetEnvPrefix("trivia")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isMissing(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	// TRIVIA_ADMIN_IDS arrives comma-separated and possibly space-padded.
	cfg.Admin.IDs = splitList(strings.Join(cfg.Admin.IDs, ","))
	return cfg, nil
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves the configured display timezone. Hosts without tzdata
// fall back to a fixed UTC+7 zone.
func (q QuizConfig) Location() *time.Location {
	if q.Timezone != "" {
		if loc, err := time.LoadLocation(q.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("WIB", 7*60*60)
}
