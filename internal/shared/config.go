package shared

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes the variables read by Load. LIGHTBNB_DB_HOST maps to db.host.
const EnvPrefix = "LIGHTBNB_"

type Config struct {
	App     AppConfig     `koanf:"app" validate:"required"`
	HTTP    HTTPConfig    `koanf:"http" validate:"required"`
	Metrics MetricsConfig `koanf:"metrics"`
	DB      DBConfig      `koanf:"db" validate:"required"`
	Redis   RedisConfig   `koanf:"redis"`
	Cache   CacheConfig   `koanf:"cache"`
	Memory  MemoryConfig  `koanf:"memory"`
	Seed    SeedConfig    `koanf:"seed"`
}

type AppConfig struct {
	Env string `koanf:"env" validate:"required"`
}

type HTTPConfig struct {
	Addr  string  `koanf:"addr" validate:"required"`
	RPS   float64 `koanf:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DBConfig carries the connection parameters {host, port, database, user, password}.
type DBConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=postgres pgx mysql"`
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"required,gt=0,lte=65535"`
	Database string `koanf:"database" validate:"required"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"` // empty disables the cache
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type MemoryConfig struct {
	Fixture string `koanf:"fixture"` // optional properties JSON for the in-memory store
}

type SeedConfig struct {
	File    string `koanf:"file"`
	Workers int    `koanf:"workers" validate:"gte=1"`
}

func defaults() Config {
	return Config{
		App:  AppConfig{Env: "prod"},
		HTTP: HTTPConfig{Addr: ":8080", RPS: 50, Burst: 100},
		DB: DBConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			Database: "lightbnb",
			User:     "vagrant",
			SSLMode:  "disable",
		},
		Cache: CacheConfig{TTL: 5 * time.Minute},
		Seed:  SeedConfig{File: "seeds/users.json", Workers: 8},
	}
}

// Load reads LIGHTBNB_* variables (and a .env file when present) over the
// defaults and validates the result.
func Load() (Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	c := defaults()
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// DSN renders the driver-specific connection string.
func (d DBConfig) DSN() string {
	if d.Driver == "mysql" {
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		mc.DBName = d.Database
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN()
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Database,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}
