package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MigrationsDir   string        `koanf:"migrations_dir"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Anubis struct {
		BaseURL     string        `koanf:"base_url"`
		PublicKey   string        `koanf:"public_key"`
		SecretKey   string        `koanf:"secret_key"`
		PostbackURL string        `koanf:"postback_url"`
		Timeout     time.Duration `koanf:"timeout"`
	} `koanf:"anubis"`

	Pricing struct {
		// Site-wide discount rate, 0 <= rate < 1. Zero disables the discount.
		SiteDiscount float64 `koanf:"site_discount"`
		// Flat delivery fee in cents, charged on delivery orders.
		DeliveryFeeCents int64 `koanf:"delivery_fee_cents"`
	} `koanf:"pricing"`

	Cart struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cart"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env overlay (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix MARMITA_, nested with __)
	// e.g. MARMITA_MYSQL__DSN, MARMITA_ANUBIS__SECRET_KEY
	if err := k.Load(env.Provider("MARMITA_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MARMITA_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	// Never send an unauthenticated request to the gateway.
	if c.Anubis.PublicKey == "" || c.Anubis.SecretKey == "" {
		return fmt.Errorf("anubis.public_key and anubis.secret_key required")
	}
	if c.Anubis.BaseURL == "" {
		return fmt.Errorf("anubis.base_url required")
	}
	if c.Pricing.SiteDiscount < 0 || c.Pricing.SiteDiscount >= 1 {
		return fmt.Errorf("pricing.site_discount must be in [0, 1)")
	}
	return nil
}
